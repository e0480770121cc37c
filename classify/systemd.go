package classify

import (
	"strings"

	systemdutil "github.com/coreos/go-systemd/v22/util"
)

// runningUnderSystemd is probed once per process: a live dbus connection
// per pid would be a privileged, async dependency the sampler's refresh
// tick must not block on, so unit resolution instead parses the cgroup
// path text the sampler already read.
var runningUnderSystemd = systemdutil.IsRunningSystemd()

// SystemdUnit extracts the systemd unit (service or scope) managing a
// process from its cgroup path, e.g. "/system.slice/sshd.service" ->
// "sshd.service". Returns "" when systemd isn't the host's init, or the
// path's trailing segment isn't a unit file.
func SystemdUnit(cgroupPath string) string {
	if !runningUnderSystemd || cgroupPath == "" {
		return ""
	}
	seg := cgroupPath
	if idx := strings.LastIndex(seg, "/"); idx >= 0 {
		seg = seg[idx+1:]
	}
	switch {
	case strings.HasSuffix(seg, ".service"), strings.HasSuffix(seg, ".scope"):
		return seg
	default:
		return ""
	}
}
