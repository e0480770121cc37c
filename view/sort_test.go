package view

import (
	"math"
	"testing"

	"github.com/nsolari/procwatch/model"
)

func TestSortStableByPIDOnTies(t *testing.T) {
	procs := []model.ProcessRecord{
		{PID: 3, Name: "a", CPUPercent: 5},
		{PID: 1, Name: "b", CPUPercent: 5},
		{PID: 2, Name: "c", CPUPercent: 5},
	}
	Sort(procs, model.SortCPU, model.SortAscending)
	want := []int{1, 2, 3}
	for i, w := range want {
		if procs[i].PID != w {
			t.Errorf("position %d: pid=%d, want %d (tie-break by pid ascending)", i, procs[i].PID, w)
		}
	}
}

func TestSortDescending(t *testing.T) {
	procs := []model.ProcessRecord{
		{PID: 1, CPUPercent: 10},
		{PID: 2, CPUPercent: 90},
		{PID: 3, CPUPercent: 50},
	}
	Sort(procs, model.SortCPU, model.SortDescending)
	want := []int{2, 3, 1}
	for i, w := range want {
		if procs[i].PID != w {
			t.Errorf("position %d: pid=%d, want %d", i, procs[i].PID, w)
		}
	}
}

func TestSortNaNTreatedAsEqual(t *testing.T) {
	procs := []model.ProcessRecord{
		{PID: 2, CPUPercent: math.NaN()},
		{PID: 1, CPUPercent: 10},
	}
	// Must not panic and must remain a stable no-op ordering by PID since
	// NaN compares equal to everything.
	Sort(procs, model.SortCPU, model.SortAscending)
	if procs[0].PID != 1 || procs[1].PID != 2 {
		t.Errorf("NaN entries should tie-break by pid, got order %d,%d", procs[0].PID, procs[1].PID)
	}
}

func TestSortByName(t *testing.T) {
	procs := []model.ProcessRecord{
		{PID: 1, Name: "zsh"},
		{PID: 2, Name: "bash"},
	}
	Sort(procs, model.SortName, model.SortAscending)
	if procs[0].Name != "bash" {
		t.Errorf("expected bash first, got %s", procs[0].Name)
	}
}
