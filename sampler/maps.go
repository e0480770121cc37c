package sampler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nsolari/procwatch/model"
	"github.com/nsolari/procwatch/util"
)

// ReadMemoryMap parses /proc/<pid>/maps into one model.MemoryRegion per
// line.
func ReadMemoryMap(pid int) ([]model.MemoryRegion, error) {
	lines, err := util.ReadFileLines(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return nil, err
	}
	regions := make([]model.MemoryRegion, 0, len(lines))
	for _, line := range lines {
		r, ok := parseMapLine(line)
		if ok {
			regions = append(regions, r)
		}
	}
	return regions, nil
}

// parseMapLine parses one /proc/<pid>/maps line:
//
//	address           perms offset  dev   inode       pathname
//	55a1b2c3d000-55a1b2c5e000 r-xp 00000000 08:01 1234567   /usr/bin/foo
func parseMapLine(line string) (model.MemoryRegion, bool) {
	var r model.MemoryRegion
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return r, false
	}

	addrs := strings.SplitN(fields[0], "-", 2)
	if len(addrs) != 2 {
		return r, false
	}
	start, err1 := strconv.ParseUint(addrs[0], 16, 64)
	end, err2 := strconv.ParseUint(addrs[1], 16, 64)
	if err1 != nil || err2 != nil {
		return r, false
	}
	r.Start = start
	r.End = end

	r.Perms = fields[1]
	if off, err := strconv.ParseUint(fields[2], 16, 64); err == nil {
		r.Offset = off
	}
	r.Device = fields[3]
	r.Inode = util.ParseUint64(fields[4])
	if len(fields) > 5 {
		r.Pathname = strings.Join(fields[5:], " ")
	}

	if len(r.Perms) >= 4 {
		r.IsReadable = r.Perms[0] == 'r'
		r.IsWritable = r.Perms[1] == 'w'
		r.IsExecutable = r.Perms[2] == 'x'
		r.IsShared = r.Perms[3] == 's'
		r.IsPrivate = r.Perms[3] == 'p'
	}

	return r, true
}

// SummarizeMemoryMap aggregates regions the way a memory visualizer would:
// by code/data/heap/stack/shared-library category. Each region lands in at
// most one category; one that matches none (e.g. read-only, non-executable)
// counts only toward TotalSize.
func SummarizeMemoryMap(regions []model.MemoryRegion) model.MemoryMapSummary {
	sum := model.MemoryMapSummary{Libraries: make(map[string]uint64)}
	for _, r := range regions {
		size := r.Size()
		sum.TotalSize += size

		switch {
		case r.Pathname == "[heap]":
			sum.HeapSize += size
		case strings.HasPrefix(r.Pathname, "[stack"):
			sum.StackSize += size
		case isSharedLibrary(r.Pathname):
			sum.SharedLibSize += size
			sum.Libraries[r.Pathname] += size
		case r.IsExecutable && !r.IsWritable:
			sum.CodeSize += size
		case !r.IsExecutable && r.IsWritable:
			sum.DataSize += size
		}
	}
	return sum
}

func isSharedLibrary(path string) bool {
	return strings.HasSuffix(path, ".so") || strings.Contains(path, ".so.")
}
