package snapshotstore

import "github.com/nsolari/procwatch/model"

// ProcessChange is one PID's before/after pair in a snapshot comparison.
type ProcessChange struct {
	PID        int
	Name       string
	Before     model.ProcessRecord
	After      model.ProcessRecord
	Significant bool
}

// SnapshotDiff is the new/terminated/changed/unchanged partition of two
// NamedSnapshots' process sets.
type SnapshotDiff struct {
	New        []model.ProcessRecord
	Terminated []model.ProcessRecord
	Changed    []ProcessChange
	Unchanged  []int // PIDs present and materially identical in both
}

// significantChange matches spec's own notion of a "big enough to care
// about" diff: more than 10 points of CPU, or more than 10MiB of RSS.
func significantChange(a, b model.ProcessRecord) bool {
	cpuDelta := a.CPUPercent - b.CPUPercent
	if cpuDelta < 0 {
		cpuDelta = -cpuDelta
	}
	if cpuDelta > 10.0 {
		return true
	}
	var rssDelta int64
	if a.RSSKB > b.RSSKB {
		rssDelta = int64(a.RSSKB - b.RSSKB)
	} else {
		rssDelta = int64(b.RSSKB - a.RSSKB)
	}
	const tenMiBInKB = 10 * 1024
	return rssDelta > tenMiBInKB
}

// Compare builds the new/terminated/changed/unchanged partition between
// two named snapshots.
func Compare(a, b NamedSnapshot) SnapshotDiff {
	before := make(map[int]model.ProcessRecord, len(a.Processes))
	for _, p := range a.Processes {
		before[p.PID] = p
	}
	after := make(map[int]model.ProcessRecord, len(b.Processes))
	for _, p := range b.Processes {
		after[p.PID] = p
	}

	var diff SnapshotDiff
	for pid, p := range after {
		if _, ok := before[pid]; !ok {
			diff.New = append(diff.New, p)
		}
	}
	for pid, p := range before {
		if _, ok := after[pid]; !ok {
			diff.Terminated = append(diff.Terminated, p)
		}
	}
	for pid, bp := range before {
		ap, ok := after[pid]
		if !ok {
			continue
		}
		if significantChange(bp, ap) {
			diff.Changed = append(diff.Changed, ProcessChange{
				PID: pid, Name: ap.Name, Before: bp, After: ap, Significant: true,
			})
		} else {
			diff.Unchanged = append(diff.Unchanged, pid)
		}
	}
	return diff
}
