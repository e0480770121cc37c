// Package sampler is the engine's process sampler: it walks /proc once per
// refresh tick and produces a model.Snapshot. It owns no network or disk
// I/O beyond /proc and /sys reads, and every read is best-effort — a
// process that exits mid-read is dropped from that tick's results rather
// than failing the whole refresh.
package sampler

import (
	"fmt"
	"os"
	"os/user"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/nsolari/procwatch/classify"
	"github.com/nsolari/procwatch/model"
	"github.com/nsolari/procwatch/util"
)

// Config tunes what a Sampler collects.
type Config struct {
	// MaxProcesses bounds how many processes a single Refresh returns,
	// keeping the top N by CPU usage. Zero means unbounded.
	MaxProcesses int

	// EnableContainerDetection toggles the classify package's per-process
	// cgroup/namespace inspection. Disabling it skips a /proc/<pid>/cgroup
	// read and a readlink per namespace per process, at the cost of
	// ProcessRecord.IsContainer always reading false.
	EnableContainerDetection bool

	// EnableNetworkCount toggles counting socket file descriptors per
	// process (adds one /proc/<pid>/fd directory listing per process).
	EnableNetworkCount bool
}

// DefaultConfig returns the sampler's recommended settings.
func DefaultConfig() Config {
	return Config{
		MaxProcesses:             0,
		EnableContainerDetection: true,
		EnableNetworkCount:       true,
	}
}

type tickState struct {
	utime, stime uint64
	sampledAt    time.Time
	startTime    int64 // unix seconds; used to detect PID reuse
}

// Sampler holds the state that makes CPU-percent computation possible:
// the previous tick's per-PID CPU ticks and the previous wall-clock time.
// It is not safe for concurrent Refresh calls; the engine runs one sampler
// goroutine.
type Sampler struct {
	cfg Config

	mu        sync.Mutex
	prevTicks map[int]tickState

	userCache map[uint32]string
	clkTck    float64
	bootTime  int64 // unix seconds /proc started counting jiffies from
}

// New constructs a Sampler. It reads /proc/stat once to establish the
// kernel boot time used to convert a process's start-time jiffies into a
// wall-clock timestamp.
func New(cfg Config) *Sampler {
	s := &Sampler{
		cfg:       cfg,
		prevTicks: make(map[int]tickState),
		userCache: make(map[uint32]string),
		clkTck:    clockTicksPerSecond(),
	}
	s.bootTime = readBootTime()
	return s
}

// clockTicksPerSecond returns USER_HZ, the unit /proc/<pid>/stat's jiffy
// fields are expressed in. Every Linux platform Go supports fixes this at
// 100; there is no portable sysconf(_SC_CLK_TCK) in x/sys/unix to query it
// at runtime.
func clockTicksPerSecond() float64 {
	return 100
}

func readBootTime() int64 {
	kv, err := util.ParseKeyValueFile("/proc/stat")
	if err != nil {
		return 0
	}
	return int64(util.ParseUint64(kv["btime"]))
}

// Refresh walks /proc and returns one Snapshot. Per-process errors
// (process exited between readdir and read) are absorbed; the count is
// reported in model.RefreshSummary but never fails the call.
func (s *Sampler) Refresh() (model.Snapshot, model.RefreshSummary, error) {
	start := time.Now()
	summary := model.RefreshSummary{}

	entries, err := os.ReadDir("/proc")
	if err != nil {
		return model.Snapshot{}, summary, fmt.Errorf("sampler: read /proc: %w", err)
	}

	sys, err := s.collectSystemMetrics()
	if err != nil {
		return model.Snapshot{}, summary, fmt.Errorf("sampler: collect system metrics: %w", err)
	}

	now := time.Now()
	records := make([]model.ProcessRecord, 0, len(entries))

	s.mu.Lock()
	seen := make(map[int]bool, len(entries))
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil || pid <= 0 {
			continue
		}
		rec, ok := s.readProcessLocked(pid, now, sys.TotalMemoryKB)
		if !ok {
			summary.ErrorCount++
			continue
		}
		seen[pid] = true
		records = append(records, rec)
	}
	// Drop ticks for PIDs that no longer exist, bounding prevTicks growth.
	for pid := range s.prevTicks {
		if !seen[pid] {
			delete(s.prevTicks, pid)
		}
	}
	s.mu.Unlock()

	if s.cfg.MaxProcesses > 0 && len(records) > s.cfg.MaxProcesses {
		sort.Slice(records, func(i, j int) bool {
			return records[i].CPUPercent > records[j].CPUPercent
		})
		records = records[:s.cfg.MaxProcesses]
	}

	summary.ProcessCount = len(records)
	summary.Duration = time.Since(start)

	return model.Snapshot{
		Timestamp: now,
		System:    sys,
		Processes: records,
	}, summary, nil
}

// readProcessLocked must be called with s.mu held: it reads and updates
// s.prevTicks for pid.
func (s *Sampler) readProcessLocked(pid int, now time.Time, totalMemKB uint64) (model.ProcessRecord, bool) {
	st, err := readStat(pid)
	if err != nil {
		return model.ProcessRecord{}, false
	}

	rec := model.ProcessRecord{
		PID:      pid,
		PPID:     st.ppid,
		Name:     st.comm,
		State:    st.state,
		Threads:  st.numThreads,
		Priority: st.priority,
		Nice:     st.nice,
	}
	rec.StartTime = s.bootTime + int64(float64(st.starttime)/s.clkTck)
	rec.RunningTime = now.Sub(time.Unix(rec.StartTime, 0))
	if rec.RunningTime < 0 {
		rec.RunningTime = 0
	}

	prev, hadPrev := s.prevTicks[pid]
	curTotal := st.utime + st.stime
	if hadPrev && prev.startTime == rec.StartTime {
		dt := now.Sub(prev.sampledAt)
		rec.CPUPercent = util.RatePct(prev.utime+prev.stime, curTotal, dt, s.clkTck)
	}
	s.prevTicks[pid] = tickState{utime: st.utime, stime: st.stime, sampledAt: now, startTime: rec.StartTime}

	status := readStatus(pid)
	rec.RSSKB = status.vmRSS / 1024 // readStatus reports bytes
	if totalMemKB > 0 {
		rec.MemoryPercent = float64(rec.RSSKB) / float64(totalMemKB) * 100
	}
	rec.UID = status.uid
	rec.GID = status.gid
	rec.User = s.lookupUser(status.uid)

	if cmd, err := readCmdline(pid); err == nil && cmd != "" {
		rec.Command = cmd
	} else {
		rec.Command = rec.Name
	}

	if s.cfg.EnableNetworkCount {
		if n, err := countSocketFDs(pid); err == nil {
			rec.NetworkConnectionCount = &n
		}
	}

	if s.cfg.EnableContainerDetection {
		c := classify.Classify(pid)
		rec.IsContainer = c.IsContainer
		if c.ContainerID != "" {
			id := c.ContainerID
			rec.ContainerID = &id
		}
		if c.Resources.MemLimit > 0 {
			lim := c.Resources.MemLimit
			rec.CgroupMemoryLimitBytes = &lim
		}
	}

	return rec, true
}

func (s *Sampler) lookupUser(uid uint32) string {
	if name, ok := s.userCache[uid]; ok {
		return name
	}
	name := strconv.FormatUint(uint64(uid), 10)
	if u, err := user.LookupId(name); err == nil {
		name = u.Username
	}
	s.userCache[uid] = name
	return name
}
