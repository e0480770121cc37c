package classify

import (
	"fmt"

	"github.com/nsolari/procwatch/model"
)

// NamespaceIDs reads the namespace inode numbers for pid from
// /proc/<pid>/ns/*. Namespaces that can't be resolved (permission denied,
// process exited mid-read) are left at zero.
func NamespaceIDs(pid int) model.NamespaceIDs {
	ids := model.NamespaceIDs{PID: pid}
	read := func(name string) uint64 {
		ns, err := readNamespaceInode(fmt.Sprintf("/proc/%d/ns/%s", pid, name))
		if err != nil {
			return 0
		}
		return ns
	}
	ids.Net = read("net")
	ids.Mnt = read("mnt")
	ids.UTS = read("uts")
	ids.IPC = read("ipc")
	ids.User = read("user")
	return ids
}
