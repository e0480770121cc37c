// Package cgroup reads resource-accounting files for a single cgroup path,
// probing cgroup v2 first and falling back to the matching v1 controller
// hierarchy.
package cgroup

import (
	"os"
	"strings"
)

// Version identifies which cgroup hierarchy layout the host runs.
type Version int

const (
	V1     Version = 1
	V2     Version = 2
	Hybrid Version = 3
)

// DetectVersion determines whether the system uses cgroup v1, v2, or hybrid.
func DetectVersion() Version {
	if _, err := os.Stat("/sys/fs/cgroup/cgroup.controllers"); err == nil {
		if hasV1Hierarchies() {
			return Hybrid
		}
		return V2
	}
	return V1
}

func hasV1Hierarchies() bool {
	entries, err := os.ReadDir("/sys/fs/cgroup")
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.IsDir() {
			switch e.Name() {
			case "cpu", "cpuacct", "cpu,cpuacct", "memory", "blkio":
				return true
			}
		}
	}
	return false
}

// Root returns the cgroup v2 mount point, from /proc/mounts.
func Root() string {
	data, err := os.ReadFile("/proc/mounts")
	if err != nil {
		return "/sys/fs/cgroup"
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 3 && fields[2] == "cgroup2" {
			return fields[1]
		}
	}
	return "/sys/fs/cgroup"
}
