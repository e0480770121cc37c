package snapshotstore

import (
	"fmt"

	"github.com/nsolari/procwatch/model"
)

// FieldChange is one attribute's before/after value on a process that
// changed between two states.
type FieldChange struct {
	Field         string
	OldValue      string
	NewValue      string
	PercentChange *float64
}

// ProcessDiffKind classifies how a single PID changed between two states.
type ProcessDiffKind string

const (
	DiffAdded     ProcessDiffKind = "added"
	DiffRemoved   ProcessDiffKind = "removed"
	DiffModified  ProcessDiffKind = "modified"
	DiffUnchanged ProcessDiffKind = "unchanged"
)

// ProcessStateDiff is one process's classification plus, for Modified,
// the list of fields that changed.
type ProcessStateDiff struct {
	PID     int
	Name    string
	Kind    ProcessDiffKind
	Changes []FieldChange
}

// DiffSummary counts each category across a whole-system state diff.
type DiffSummary struct {
	TotalOld, TotalNew                   int
	Added, Removed, Modified, Unchanged  int
	SignificantCPUChanges                int
	SignificantMemoryChanges             int
}

// StateDiffer compares process states field-by-field with configurable
// significance thresholds — a finer-grained sibling of Compare's bare
// new/terminated/changed partition.
type StateDiffer struct {
	ThresholdCPUPercent    float64
	ThresholdMemoryPercent float64
}

// NewStateDiffer returns a StateDiffer with the default 10%/10% CPU and
// memory significance thresholds.
func NewStateDiffer() StateDiffer {
	return StateDiffer{ThresholdCPUPercent: 10.0, ThresholdMemoryPercent: 10.0}
}

// Diff computes a full state diff between two process sets.
func (d StateDiffer) Diff(old, new []model.ProcessRecord) ([]ProcessStateDiff, DiffSummary) {
	oldByPID := make(map[int]model.ProcessRecord, len(old))
	for _, p := range old {
		oldByPID[p.PID] = p
	}
	newByPID := make(map[int]model.ProcessRecord, len(new))
	for _, p := range new {
		newByPID[p.PID] = p
	}

	summary := DiffSummary{TotalOld: len(old), TotalNew: len(new)}
	var diffs []ProcessStateDiff

	for pid, p := range newByPID {
		if _, ok := oldByPID[pid]; !ok {
			diffs = append(diffs, ProcessStateDiff{PID: pid, Name: p.Name, Kind: DiffAdded})
			summary.Added++
		}
	}
	for pid, p := range oldByPID {
		if _, ok := newByPID[pid]; !ok {
			diffs = append(diffs, ProcessStateDiff{PID: pid, Name: p.Name, Kind: DiffRemoved})
			summary.Removed++
		}
	}
	for pid, op := range oldByPID {
		np, ok := newByPID[pid]
		if !ok {
			continue
		}
		changes := d.compareFields(op, np)
		if len(changes) == 0 {
			diffs = append(diffs, ProcessStateDiff{PID: pid, Name: np.Name, Kind: DiffUnchanged})
			summary.Unchanged++
			continue
		}
		for _, c := range changes {
			if c.PercentChange == nil {
				continue
			}
			pct := *c.PercentChange
			if pct < 0 {
				pct = -pct
			}
			switch c.Field {
			case "cpu_percent":
				if pct > d.ThresholdCPUPercent {
					summary.SignificantCPUChanges++
				}
			case "memory":
				if pct > d.ThresholdMemoryPercent {
					summary.SignificantMemoryChanges++
				}
			}
		}
		diffs = append(diffs, ProcessStateDiff{PID: pid, Name: np.Name, Kind: DiffModified, Changes: changes})
		summary.Modified++
	}

	return diffs, summary
}

func (d StateDiffer) compareFields(old, new model.ProcessRecord) []FieldChange {
	var changes []FieldChange

	if absFloat(old.CPUPercent-new.CPUPercent) > 0.1 {
		changes = append(changes, FieldChange{
			Field:         "cpu_percent",
			OldValue:      fmt.Sprintf("%.1f%%", old.CPUPercent),
			NewValue:      fmt.Sprintf("%.1f%%", new.CPUPercent),
			PercentChange: percentChange(old.CPUPercent, new.CPUPercent),
		})
	}

	if old.RSSKB != new.RSSKB {
		changes = append(changes, FieldChange{
			Field:         "memory",
			OldValue:      fmt.Sprintf("%d KB", old.RSSKB),
			NewValue:      fmt.Sprintf("%d KB", new.RSSKB),
			PercentChange: percentChange(float64(old.RSSKB), float64(new.RSSKB)),
		})
	}

	if old.State != new.State {
		changes = append(changes, FieldChange{
			Field:    "state",
			OldValue: string(old.State),
			NewValue: string(new.State),
		})
	}

	if old.Threads != new.Threads {
		changes = append(changes, FieldChange{
			Field:         "threads",
			OldValue:      fmt.Sprintf("%d", old.Threads),
			NewValue:      fmt.Sprintf("%d", new.Threads),
			PercentChange: percentChange(float64(old.Threads), float64(new.Threads)),
		})
	}

	return changes
}

// percentChange returns ((new-old)/old)*100, or 100 if old is zero
// (can't express a ratio against a zero baseline, so treat any nonzero
// new value as a full jump — matches the reference implementation).
func percentChange(old, new float64) *float64 {
	var pct float64
	if old > 0 {
		pct = ((new - old) / old) * 100.0
	} else {
		pct = 100.0
	}
	return &pct
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
