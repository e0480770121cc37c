package view

import (
	"math"
	"sort"
	"strings"

	"github.com/nsolari/procwatch/model"
)

// Sort reorders processes in place by key and order. Ties break by PID
// ascending in either order, keeping the sort stable and deterministic
// across refreshes. NaN float fields (can occur if a memory_percent
// computation divides by zero on a malformed sample) compare equal to
// everything, so a NaN record's place is decided by the PID tie-break.
func Sort(processes []model.ProcessRecord, key model.SortKey, order model.SortOrder) {
	less := lessFunc(key)
	sort.SliceStable(processes, func(i, j int) bool {
		a, b := processes[i], processes[j]
		cmp := less(a, b)
		if cmp == 0 {
			return a.PID < b.PID
		}
		if order == model.SortDescending {
			return cmp > 0
		}
		return cmp < 0
	})
}

// lessFunc returns a three-way comparator: negative if a<b, positive if
// a>b, zero if equal (or incomparable, e.g. NaN).
func lessFunc(key model.SortKey) func(a, b model.ProcessRecord) int {
	switch key {
	case model.SortName:
		return func(a, b model.ProcessRecord) int { return strings.Compare(a.Name, b.Name) }
	case model.SortUser:
		return func(a, b model.ProcessRecord) int { return strings.Compare(a.User, b.User) }
	case model.SortCPU:
		return func(a, b model.ProcessRecord) int { return cmpFloat(a.CPUPercent, b.CPUPercent) }
	case model.SortMemory:
		return func(a, b model.ProcessRecord) int { return cmpUint(a.RSSKB, b.RSSKB) }
	case model.SortMemoryPercent:
		return func(a, b model.ProcessRecord) int { return cmpFloat(a.MemoryPercent, b.MemoryPercent) }
	case model.SortStartTime:
		return func(a, b model.ProcessRecord) int { return cmpInt64(a.StartTime, b.StartTime) }
	case model.SortPID:
		fallthrough
	default:
		return func(a, b model.ProcessRecord) int { return cmpInt(a.PID, b.PID) }
	}
}

func cmpFloat(a, b float64) int {
	if math.IsNaN(a) || math.IsNaN(b) {
		return 0
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpInt(a, b int) int {
	return a - b
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
