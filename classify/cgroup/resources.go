package cgroup

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/nsolari/procwatch/util"
)

// Resources is a process's cgroup resource accounting, merged across
// whichever hierarchy version supplied it.
type Resources struct {
	CPUUsageUsec uint64
	MemCurrent   uint64
	MemLimit     uint64 // 0 means unlimited
	IORBytes     uint64
	IOWBytes     uint64
}

// Read resolves cgPath (as found in /proc/<pid>/cgroup) against the host's
// cgroup hierarchy and reads CPU/memory/IO accounting for it. v2 is tried
// first; v1's per-controller mount points are tried on failure.
func Read(cgPath string) Resources {
	switch DetectVersion() {
	case V2, Hybrid:
		if r, ok := readV2(filepath.Join(Root(), strings.TrimPrefix(cgPath, "/"))); ok {
			return r
		}
		return readV1(cgPath)
	default:
		return readV1(cgPath)
	}
}

func readV2(dir string) (Resources, bool) {
	var r Resources
	found := false

	if kv, err := util.ParseKeyValueFile(filepath.Join(dir, "cpu.stat")); err == nil {
		r.CPUUsageUsec = util.ParseUint64(kv["usage_usec"])
		found = true
	}
	if s, err := util.ReadFileString(filepath.Join(dir, "memory.current")); err == nil {
		r.MemCurrent = util.ParseUint64(strings.TrimSpace(s))
		found = true
	}
	if s, err := util.ReadFileString(filepath.Join(dir, "memory.max")); err == nil {
		s = strings.TrimSpace(s)
		if s != "max" {
			r.MemLimit = util.ParseUint64(s)
		}
	}
	if lines, err := util.ReadFileLines(filepath.Join(dir, "io.stat")); err == nil {
		for _, line := range lines {
			for _, f := range strings.Fields(line) {
				kv := strings.SplitN(f, "=", 2)
				if len(kv) != 2 {
					continue
				}
				switch kv[0] {
				case "rbytes":
					r.IORBytes += util.ParseUint64(kv[1])
				case "wbytes":
					r.IOWBytes += util.ParseUint64(kv[1])
				}
			}
		}
	}
	return r, found
}

func readV1(cgPath string) Resources {
	var r Resources

	if dir := findV1Controller("cpu,cpuacct"); dir != "" {
		full := filepath.Join(dir, cgPath)
		if s, err := util.ReadFileString(filepath.Join(full, "cpuacct.usage")); err == nil {
			r.CPUUsageUsec = util.ParseUint64(strings.TrimSpace(s)) / 1000
		}
	} else if dir := findV1Controller("cpuacct"); dir != "" {
		full := filepath.Join(dir, cgPath)
		if s, err := util.ReadFileString(filepath.Join(full, "cpuacct.usage")); err == nil {
			r.CPUUsageUsec = util.ParseUint64(strings.TrimSpace(s)) / 1000
		}
	}

	if dir := findV1Controller("memory"); dir != "" {
		full := filepath.Join(dir, cgPath)
		if s, err := util.ReadFileString(filepath.Join(full, "memory.usage_in_bytes")); err == nil {
			r.MemCurrent = util.ParseUint64(strings.TrimSpace(s))
		}
		if s, err := util.ReadFileString(filepath.Join(full, "memory.limit_in_bytes")); err == nil {
			v := util.ParseUint64(strings.TrimSpace(s))
			if v < 1<<62 {
				r.MemLimit = v
			}
		}
	}

	if dir := findV1Controller("blkio"); dir != "" {
		full := filepath.Join(dir, cgPath)
		if kv, err := util.ParseKeyValueFile(filepath.Join(full, "blkio.throttle.io_service_bytes")); err == nil {
			r.IORBytes = util.ParseUint64(kv["Read"])
			r.IOWBytes = util.ParseUint64(kv["Write"])
		}
	}

	return r
}

func findV1Controller(name string) string {
	path := filepath.Join("/sys/fs/cgroup", name)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}
