// Package model holds the data entities shared across procwatch's
// components. Types here are plain data: no behavior, no locks.
package model

import "time"

// ProcessRecord is one row per observed PID in a Snapshot. Reconstructed
// fresh every sample tick; never mutated after publication.
type ProcessRecord struct {
	PID     int
	PPID    int
	Name    string
	Command string // full argv joined with spaces
	User    string
	UID     uint32
	GID     uint32
	State   byte // R S D Z T I

	CPUPercent    float64 // fraction of one core, 0-100*NumCPU
	RSSKB         uint64
	MemoryPercent float64
	Threads       int
	Priority      int
	Nice          int

	StartTime   int64 // unix seconds
	RunningTime time.Duration

	NetworkConnectionCount *int

	IsContainer            bool
	ContainerID            *string
	CgroupMemoryLimitBytes *uint64
	GPUMemoryMB            *int
}

// SystemMetrics is published once per Snapshot.
type SystemMetrics struct {
	CPUCount      int
	TotalMemoryKB uint64
	UsedMemoryKB  uint64 // total - available, matches `free`'s "used" column
	TotalSwapKB   uint64
	UsedSwapKB    uint64
	Load1         float64
	Load5         float64
	Load15        float64
	UptimeSeconds uint64
	Hostname      string
}

// Snapshot is one publication of the engine's live state, immutable after
// publish.
type Snapshot struct {
	Timestamp time.Time
	System    SystemMetrics
	Processes []ProcessRecord
}

// ByPID returns the record for pid and whether it was found.
func (s *Snapshot) ByPID(pid int) (ProcessRecord, bool) {
	for _, p := range s.Processes {
		if p.PID == pid {
			return p, true
		}
	}
	return ProcessRecord{}, false
}

// RefreshSummary reports the outcome of one sampler refresh.
type RefreshSummary struct {
	ProcessCount int
	ErrorCount   int
	Duration     time.Duration
}
