// Package anomaly implements the sliding-window statistical anomaly
// detector: a per-PID ring of recent samples, a rolling mean/stddev, and
// a z-score test against configurable sigma thresholds.
package anomaly

import (
	"container/ring"
	"fmt"
	"math"
	"time"

	"github.com/nsolari/procwatch/model"
)

// Kind names the category of an anomaly.
type Kind string

const (
	KindCPUSpike                    Kind = "cpu_spike"
	KindMemorySpike                 Kind = "memory_spike"
	KindSuddenTermination           Kind = "sudden_termination"
	KindExcessiveNetworkConnections Kind = "excessive_network_connections"
	KindUnusualGPUUsage             Kind = "unusual_gpu_usage"
)

// Anomaly is one detection event.
type Anomaly struct {
	Kind        Kind
	PID         int
	Name        string
	Severity    float64 // clamped to [0,1]
	Description string
	Timestamp   time.Time
	Current     float64
	Expected    float64
	Threshold   float64
}

// Config tunes the detector's sensitivity.
type Config struct {
	CPUThresholdSigma         float64
	MemoryThresholdSigma      float64
	NetworkConnectionThreshold int
	MinDataPoints             int
	HistorySize               int // per-PID ring capacity
	MaxAnomalyHistory         int // global ring capacity
}

// DefaultConfig mirrors the reference implementation's defaults.
func DefaultConfig() Config {
	return Config{
		CPUThresholdSigma:          3.0,
		MemoryThresholdSigma:       3.0,
		NetworkConnectionThreshold: 100,
		MinDataPoints:              10,
		HistorySize:                60,
		MaxAnomalyHistory:          1000,
	}
}

type dataPoint struct {
	cpuPercent float64
	rssKB      uint64
	startTime  int64
}

type processStats struct {
	r   *ring.Ring
	len int
	cap int
}

func newProcessStats(capacity int) *processStats {
	return &processStats{r: ring.New(capacity), cap: capacity}
}

func (s *processStats) add(d dataPoint) {
	s.r.Value = d
	s.r = s.r.Next()
	if s.len < s.cap {
		s.len++
	}
}

func (s *processStats) points() []dataPoint {
	out := make([]dataPoint, 0, s.len)
	r := s.r
	for i := 0; i < s.len; i++ {
		r = r.Prev()
	}
	for i := 0; i < s.len; i++ {
		out = append(out, r.Value.(dataPoint))
		r = r.Next()
	}
	return out
}

func (s *processStats) cpuMeanStdDev() (float64, float64) {
	pts := s.points()
	if len(pts) == 0 {
		return 0, 0
	}
	var sum float64
	for _, p := range pts {
		sum += p.cpuPercent
	}
	mean := sum / float64(len(pts))
	var variance float64
	for _, p := range pts {
		d := p.cpuPercent - mean
		variance += d * d
	}
	variance /= float64(len(pts))
	return mean, math.Sqrt(variance)
}

func (s *processStats) memMeanStdDev() (float64, float64) {
	pts := s.points()
	if len(pts) == 0 {
		return 0, 0
	}
	var sum float64
	for _, p := range pts {
		sum += float64(p.rssKB)
	}
	mean := sum / float64(len(pts))
	var variance float64
	for _, p := range pts {
		d := float64(p.rssKB) - mean
		variance += d * d
	}
	variance /= float64(len(pts))
	return mean, math.Sqrt(variance)
}

// Detector tracks per-PID history and emits anomalies as processes drift
// from their own recent baseline. Not safe for concurrent Update calls —
// it's meant to run in the engine's single anomaly-detector goroutine.
type Detector struct {
	cfg Config

	history   map[pidKey]*processStats
	names     map[int]string
	lastSeen  map[pidKey]time.Time

	ring    *ring.Ring
	ringLen int
}

// pidKey combines PID with start time so a reused PID never inherits a
// dead process's baseline.
type pidKey struct {
	pid       int
	startTime int64
}

// New constructs a Detector.
func New(cfg Config) *Detector {
	return &Detector{
		cfg:      cfg,
		history:  make(map[pidKey]*processStats),
		names:    make(map[int]string),
		lastSeen: make(map[pidKey]time.Time),
		ring:     ring.New(cfg.MaxAnomalyHistory),
	}
}

// Update folds one Snapshot into the detector's history and returns the
// anomalies it surfaces from this tick.
func (d *Detector) Update(snap model.Snapshot) []Anomaly {
	now := snap.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	active := make(map[pidKey]bool, len(snap.Processes))
	var found []Anomaly

	for _, p := range snap.Processes {
		key := pidKey{pid: p.PID, startTime: p.StartTime}
		active[key] = true
		d.names[p.PID] = p.Name

		stats, ok := d.history[key]
		if !ok {
			stats = newProcessStats(d.cfg.HistorySize)
			d.history[key] = stats
		}
		stats.add(dataPoint{cpuPercent: p.CPUPercent, rssKB: p.RSSKB, startTime: p.StartTime})
		d.lastSeen[key] = now

		if stats.len < d.cfg.MinDataPoints {
			continue
		}
		if a, ok := d.checkCPU(p, stats, now); ok {
			found = append(found, a)
		}
		if a, ok := d.checkMemory(p, stats, now); ok {
			found = append(found, a)
		}
		if a, ok := d.checkNetwork(p, now); ok {
			found = append(found, a)
		}
	}

	for key, seenAt := range d.lastSeen {
		if active[key] {
			continue
		}
		if a, ok := d.checkSuddenTermination(key, seenAt); ok {
			found = append(found, a)
		}
		delete(d.lastSeen, key)
		// The termination check above is the ring's last reader; a later
		// process with the same pid has a different start time, so it
		// never maps back to this key.
		delete(d.history, key)
	}

	for _, a := range found {
		d.push(a)
	}
	return found
}

func (d *Detector) checkCPU(p model.ProcessRecord, stats *processStats, now time.Time) (Anomaly, bool) {
	mean, stddev := stats.cpuMeanStdDev()
	if stddev < 1.0 {
		return Anomaly{}, false
	}
	z := (p.CPUPercent - mean) / stddev
	if math.Abs(z) <= d.cfg.CPUThresholdSigma {
		return Anomaly{}, false
	}
	severity := math.Min(math.Abs(z)/d.cfg.CPUThresholdSigma, 1.0)
	return Anomaly{
		Kind:        KindCPUSpike,
		PID:         p.PID,
		Name:        p.Name,
		Severity:    severity,
		Description: fmt.Sprintf("CPU usage %.1f%% is %.1f standard deviations above mean %.1f%%", p.CPUPercent, z, mean),
		Timestamp:   now,
		Current:     p.CPUPercent,
		Expected:    mean,
		Threshold:   mean + d.cfg.CPUThresholdSigma*stddev,
	}, true
}

func (d *Detector) checkMemory(p model.ProcessRecord, stats *processStats, now time.Time) (Anomaly, bool) {
	mean, stddev := stats.memMeanStdDev()
	if stddev < 1024.0 {
		return Anomaly{}, false
	}
	z := (float64(p.RSSKB) - mean) / stddev
	if math.Abs(z) <= d.cfg.MemoryThresholdSigma {
		return Anomaly{}, false
	}
	severity := math.Min(math.Abs(z)/d.cfg.MemoryThresholdSigma, 1.0)
	return Anomaly{
		Kind:        KindMemorySpike,
		PID:         p.PID,
		Name:        p.Name,
		Severity:    severity,
		Description: fmt.Sprintf("Memory usage %d KB is %.1f standard deviations above mean %.0f KB", p.RSSKB, z, mean),
		Timestamp:   now,
		Current:     float64(p.RSSKB),
		Expected:    mean,
		Threshold:   mean + d.cfg.MemoryThresholdSigma*stddev,
	}, true
}

func (d *Detector) checkNetwork(p model.ProcessRecord, now time.Time) (Anomaly, bool) {
	if p.NetworkConnectionCount == nil {
		return Anomaly{}, false
	}
	conns := *p.NetworkConnectionCount
	if conns <= d.cfg.NetworkConnectionThreshold {
		return Anomaly{}, false
	}
	severity := math.Min(float64(conns)/(float64(d.cfg.NetworkConnectionThreshold)*2.0), 1.0)
	return Anomaly{
		Kind:        KindExcessiveNetworkConnections,
		PID:         p.PID,
		Name:        p.Name,
		Severity:    severity,
		Description: fmt.Sprintf("Process has %d network connections (threshold: %d)", conns, d.cfg.NetworkConnectionThreshold),
		Timestamp:   now,
		Current:     float64(conns),
		Expected:    float64(d.cfg.NetworkConnectionThreshold) / 2.0,
		Threshold:   float64(d.cfg.NetworkConnectionThreshold),
	}, true
}

func (d *Detector) checkSuddenTermination(key pidKey, timestamp time.Time) (Anomaly, bool) {
	stats, ok := d.history[key]
	if !ok || stats.len < 5 {
		return Anomaly{}, false
	}
	cpuMean, _ := stats.cpuMeanStdDev()
	memMean, _ := stats.memMeanStdDev()
	if cpuMean <= 50.0 && memMean <= 100_000.0 {
		return Anomaly{}, false
	}
	name := d.names[key.pid]
	if name == "" {
		name = fmt.Sprintf("PID %d", key.pid)
	}
	return Anomaly{
		Kind:        KindSuddenTermination,
		PID:         key.pid,
		Name:        name,
		Severity:    0.5,
		Description: fmt.Sprintf("Process terminated suddenly (was using %.1f%% CPU, %d KB memory)", cpuMean, uint64(memMean)),
		Timestamp:   timestamp,
		Current:     0,
		Expected:    1,
		Threshold:   1,
	}, true
}

func (d *Detector) push(a Anomaly) {
	d.ring.Value = a
	d.ring = d.ring.Next()
	if d.ringLen < d.cfg.MaxAnomalyHistory {
		d.ringLen++
	}
}

// Recent returns the most recently detected anomalies, newest first,
// capped at count.
func (d *Detector) Recent(count int) []Anomaly {
	if count > d.ringLen {
		count = d.ringLen
	}
	out := make([]Anomaly, 0, count)
	r := d.ring
	for i := 0; i < count; i++ {
		r = r.Prev()
		out = append(out, r.Value.(Anomaly))
	}
	return out
}

// ForPID returns every stored anomaly for pid, oldest first.
func (d *Detector) ForPID(pid int) []Anomaly {
	all := d.Recent(d.ringLen)
	var out []Anomaly
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].PID == pid {
			out = append(out, all[i])
		}
	}
	return out
}
