package sampler

import (
	"fmt"
	"strings"

	"github.com/nsolari/procwatch/util"
)

type statusFields struct {
	vmRSS uint64 // bytes
	uid   uint32
	gid   uint32
}

// readStatus parses /proc/<pid>/status for the fields the sampler needs
// that aren't in stat: RSS in bytes and the real uid/gid.
func readStatus(pid int) statusFields {
	var s statusFields
	kv, err := util.ParseKeyValueFile(fmt.Sprintf("/proc/%d/status", pid))
	if err != nil {
		return s
	}

	s.vmRSS = parseKB(kv["VmRSS"])

	if uidLine := kv["Uid"]; uidLine != "" {
		if f := strings.Fields(uidLine); len(f) > 0 {
			s.uid = uint32(util.ParseUint64(f[0]))
		}
	}
	if gidLine := kv["Gid"]; gidLine != "" {
		if f := strings.Fields(gidLine); len(f) > 0 {
			s.gid = uint32(util.ParseUint64(f[0]))
		}
	}
	return s
}

// parseKB parses a "1234 kB" status value into bytes. Empty for kernel
// threads with no RSS.
func parseKB(s string) uint64 {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}
	return util.ParseUint64(fields[0]) * 1024
}
