package view

import (
	"testing"

	"github.com/nsolari/procwatch/model"
)

func TestBuildTreeCoverage(t *testing.T) {
	procs := []model.ProcessRecord{
		{PID: 1, PPID: 0},
		{PID: 2, PPID: 1},
		{PID: 3, PPID: 1},
		{PID: 4, PPID: 2},
		{PID: 99, PPID: 50}, // orphan: parent 50 not in snapshot
	}
	roots := BuildTree(procs)
	flat := Flatten(roots)
	if len(flat) != len(procs) {
		t.Fatalf("Flatten returned %d nodes, want %d (every process must appear exactly once)", len(flat), len(procs))
	}
	seen := make(map[int]bool)
	for _, n := range flat {
		if seen[n.Process.PID] {
			t.Errorf("pid %d appeared twice in flattened tree", n.Process.PID)
		}
		seen[n.Process.PID] = true
	}

	var orphanIsRoot bool
	for _, r := range roots {
		if r.Process.PID == 99 {
			orphanIsRoot = true
		}
	}
	if !orphanIsRoot {
		t.Error("process with missing parent should be promoted to a root")
	}
}

func TestBuildTreeDepth(t *testing.T) {
	procs := []model.ProcessRecord{
		{PID: 1, PPID: 0},
		{PID: 2, PPID: 1},
		{PID: 4, PPID: 2},
	}
	roots := BuildTree(procs)
	flat := Flatten(roots)
	depths := map[int]int{}
	for _, n := range flat {
		depths[n.Process.PID] = n.Depth
	}
	if depths[1] != 0 || depths[2] != 1 || depths[4] != 2 {
		t.Errorf("unexpected depths: %v", depths)
	}
}

func TestBuildTreeSelfParentIsRoot(t *testing.T) {
	procs := []model.ProcessRecord{{PID: 1, PPID: 1}}
	roots := BuildTree(procs)
	if len(roots) != 1 || roots[0].Process.PID != 1 {
		t.Errorf("process that is its own parent must become a root, got %+v", roots)
	}
}

// TestBuildTreeChildrenSortedByPID covers spec.md §4.3: children are
// ordered by PID ascending, independent of the input slice's order (a
// real /proc listing is lexicographic, not numeric).
func TestBuildTreeChildrenSortedByPID(t *testing.T) {
	procs := []model.ProcessRecord{
		{PID: 12, PPID: 1},
		{PID: 9, PPID: 0},
		{PID: 7, PPID: 1},
		{PID: 1, PPID: 0},
		{PID: 100, PPID: 1},
	}
	roots := BuildTree(procs)
	if len(roots) != 2 || roots[0].Process.PID != 1 || roots[1].Process.PID != 9 {
		t.Fatalf("roots not PID-ascending: %+v", roots)
	}
	var childPIDs []int
	for _, c := range roots[0].Children {
		childPIDs = append(childPIDs, c.Process.PID)
	}
	want := []int{7, 12, 100}
	if len(childPIDs) != len(want) {
		t.Fatalf("children = %v, want %v", childPIDs, want)
	}
	for i, pid := range want {
		if childPIDs[i] != pid {
			t.Errorf("children = %v, want %v", childPIDs, want)
		}
	}
}
