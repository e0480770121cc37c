// Package classify determines whether a process belongs to a container,
// which runtime manages it, and collects the cgroup/namespace facts that
// back that determination.
package classify

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nsolari/procwatch/classify/cgroup"
	"github.com/nsolari/procwatch/util"
)

// Runtime names the container engine managing a process, when known.
type Runtime string

const (
	RuntimeNone       Runtime = "none"
	RuntimeDocker     Runtime = "docker"
	RuntimeContainerd Runtime = "containerd"
	RuntimePodman     Runtime = "podman"
	RuntimeUnknown    Runtime = "unknown"
)

// HostRuntime reports which container engine sockets are present on this
// host. It does not imply every containerized process is managed by it —
// a host can run more than one engine.
func HostRuntime() Runtime {
	switch {
	case exists("/var/run/docker.sock"):
		return RuntimeDocker
	case exists("/run/containerd/containerd.sock"):
		return RuntimeContainerd
	case exists("/var/run/podman/podman.sock"):
		return RuntimePodman
	default:
		return RuntimeUnknown
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Classification is the per-process result of container analysis.
type Classification struct {
	IsContainer bool
	ContainerID string
	CgroupPath  string
	Resources   cgroup.Resources
	// Runtime is the host's container engine when IsContainer is true.
	Runtime Runtime
	// SystemdUnit is the service/scope managing this process, when the
	// host runs systemd and it isn't a container (see classify/systemd.go).
	SystemdUnit string
}

// pid1MntNS caches PID 1's mount namespace inode; every process on the
// host shares a mount namespace with PID 1 unless it is containerized.
var pid1MntNS = func() uint64 {
	ns, _ := readNamespaceInode("/proc/1/ns/mnt")
	return ns
}()

// Classify inspects the cgroup membership and mount namespace of pid and
// decides whether it is containerized.
func Classify(pid int) Classification {
	var c Classification

	cgContent, err := util.ReadFileString(fmt.Sprintf("/proc/%d/cgroup", pid))
	if err != nil {
		return c
	}
	c.CgroupPath = firstCgroupPath(cgContent)

	lowered := strings.ToLower(cgContent)
	switch {
	case strings.Contains(lowered, "docker"):
		c.IsContainer = true
	case strings.Contains(lowered, "containerd"):
		c.IsContainer = true
	case strings.Contains(lowered, "libpod"):
		c.IsContainer = true
	case strings.Contains(lowered, "kubepods"):
		c.IsContainer = true
	}

	if !c.IsContainer {
		if ns, err := readNamespaceInode(fmt.Sprintf("/proc/%d/ns/mnt", pid)); err == nil {
			if ns != pid1MntNS {
				c.IsContainer = true
			}
		}
	}

	if c.IsContainer {
		c.ContainerID = ExtractContainerID(cgContent)
		if c.CgroupPath != "" {
			c.Resources = cgroup.Read(c.CgroupPath)
		}
		c.Runtime = HostRuntime()
	} else {
		c.SystemdUnit = SystemdUnit(c.CgroupPath)
	}

	return c
}

// firstCgroupPath returns the cgroup v2 unified path (hierarchy ID "0") if
// present, else the first line's path.
func firstCgroupPath(content string) string {
	var fallback string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 3)
		if len(parts) != 3 {
			continue
		}
		if parts[0] == "0" {
			return parts[2]
		}
		if fallback == "" {
			fallback = parts[2]
		}
	}
	return fallback
}

// ExtractContainerID pulls a container ID out of a /proc/<pid>/cgroup
// listing. Docker/containerd cgroup paths end in the bare 64-hex ID;
// podman/systemd-scoped paths wrap it as "libpod-<id>.scope" or
// "docker-<id>.scope"; kubepods paths carry it as the trailing segment of
// the kubepods hierarchy.
func ExtractContainerID(cgContent string) string {
	for _, line := range strings.Split(cgContent, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 3)
		if len(parts) != 3 {
			continue
		}
		path := parts[2]

		if id, ok := between(path, "docker-", ".scope"); ok {
			return id
		}
		if id, ok := between(path, "libpod-", ".scope"); ok {
			return id
		}
		if strings.Contains(path, "docker") || strings.Contains(path, "containerd") {
			last := path
			if idx := strings.LastIndex(path, "/"); idx >= 0 {
				last = path[idx+1:]
			}
			if looksLikeID(last) {
				return last
			}
		}
		if strings.Contains(path, "kubepods") {
			last := path
			if idx := strings.LastIndex(path, "/"); idx >= 0 {
				last = path[idx+1:]
			}
			if looksLikeID(last) {
				return last
			}
		}
	}
	return ""
}

func between(s, prefix, suffix string) (string, bool) {
	start := strings.Index(s, prefix)
	if start < 0 {
		return "", false
	}
	start += len(prefix)
	end := strings.Index(s[start:], suffix)
	if end < 0 {
		return "", false
	}
	return s[start : start+end], true
}

func looksLikeID(s string) bool {
	if len(s) < 12 {
		return false
	}
	for _, r := range s {
		if !(r >= '0' && r <= '9') && !(r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}

func readNamespaceInode(path string) (uint64, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return 0, err
	}
	// Namespace symlinks look like "mnt:[4026531840]"; os.Readlink gives us
	// the target text without following it (namespace files aren't real
	// files, Stat would fail cross-namespace).
	target, err := os.Readlink(path)
	if err != nil {
		return 0, err
	}
	_ = fi
	start := strings.Index(target, "[")
	end := strings.Index(target, "]")
	if start < 0 || end < 0 || end <= start {
		return 0, fmt.Errorf("unexpected namespace link format: %s", target)
	}
	return util.ParseUint64(target[start+1 : end]), nil
}

// GetContainerPIDs scans /proc for every process whose cgroup membership
// references containerID.
func GetContainerPIDs(containerID string) []int {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil
	}
	var pids []int
	for _, e := range entries {
		pid := util.ParseInt(e.Name())
		if pid <= 0 {
			continue
		}
		content, err := util.ReadFileString(filepath.Join("/proc", e.Name(), "cgroup"))
		if err != nil {
			continue
		}
		if strings.Contains(content, containerID) {
			pids = append(pids, pid)
		}
	}
	return pids
}
