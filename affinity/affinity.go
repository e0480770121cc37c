// Package affinity operates on live kernel state rather than a Snapshot:
// CPU affinity masks, nice/scheduling priority, and signal delivery to a
// PID or process group. Every call is a thin wrapper over a syscall or a
// single /proc read — there is no caching and no notion of a tick.
package affinity

import (
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// Signal names the kernel signal numbers this package exposes, matching
// spec's documented set rather than the full syscall.Signal space.
type Signal = syscall.Signal

const (
	SIGHUP  Signal = 1
	SIGINT  Signal = 2
	SIGQUIT Signal = 3
	SIGKILL Signal = 9
	SIGUSR1 Signal = 10
	SIGUSR2 Signal = 12
	SIGTERM Signal = 15
	SIGCONT Signal = 18
	SIGSTOP Signal = 19
)

// ValidationError reports a caller input that was rejected before any
// syscall was attempted; prior kernel state is left unchanged.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("affinity: invalid %s: %s", e.Field, e.Msg)
}

// GetCPUAffinity returns the sorted set of CPU indices pid is allowed to
// run on.
func GetCPUAffinity(pid int) ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(pid, &set); err != nil {
		return nil, fmt.Errorf("affinity: get affinity for pid %d: %w", pid, err)
	}
	cpus := make([]int, 0, set.Count())
	for cpu := 0; cpu < unix.CPU_SETSIZE; cpu++ {
		if set.IsSet(cpu) {
			cpus = append(cpus, cpu)
		}
	}
	return cpus, nil
}

// SetCPUAffinity pins pid to exactly the given CPU indices. It fails if
// any index is at or beyond the host's online CPU count, or on a
// permission error from the kernel.
func SetCPUAffinity(pid int, cpus []int) error {
	online := runtime.NumCPU()
	for _, cpu := range cpus {
		if cpu < 0 || cpu >= online {
			return &ValidationError{Field: "cpu", Msg: fmt.Sprintf("cpu %d is outside the online range [0,%d)", cpu, online)}
		}
	}
	var set unix.CPUSet
	for _, cpu := range cpus {
		set.Set(cpu)
	}
	if err := unix.SchedSetaffinity(pid, &set); err != nil {
		return fmt.Errorf("affinity: set affinity for pid %d: %w", pid, err)
	}
	return nil
}

// FormatAffinityList collapses a sorted or unsorted set of CPU indices
// into a compact string: consecutive runs become "a-b", joined by commas.
// An empty set formats as "none".
func FormatAffinityList(cpus []int) string {
	if len(cpus) == 0 {
		return "none"
	}
	sorted := append([]int(nil), cpus...)
	sort.Ints(sorted)

	var ranges []string
	start, end := sorted[0], sorted[0]
	for _, cpu := range sorted[1:] {
		if cpu == end+1 {
			end = cpu
			continue
		}
		ranges = append(ranges, formatRange(start, end))
		start, end = cpu, cpu
	}
	ranges = append(ranges, formatRange(start, end))
	return strings.Join(ranges, ",")
}

func formatRange(start, end int) string {
	if start == end {
		return strconv.Itoa(start)
	}
	return fmt.Sprintf("%d-%d", start, end)
}

// ParseAffinityString is the inverse of FormatAffinityList: it expands
// "a-b" ranges and comma-separated singles back into a CPU index list.
func ParseAffinityString(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "none" {
		return nil, nil
	}
	var cpus []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if dash := strings.IndexByte(part, '-'); dash >= 0 {
			start, err := strconv.Atoi(part[:dash])
			if err != nil {
				return nil, &ValidationError{Field: "affinity", Msg: fmt.Sprintf("bad range start %q", part)}
			}
			end, err := strconv.Atoi(part[dash+1:])
			if err != nil {
				return nil, &ValidationError{Field: "affinity", Msg: fmt.Sprintf("bad range end %q", part)}
			}
			if end < start {
				return nil, &ValidationError{Field: "affinity", Msg: fmt.Sprintf("range %q is inverted", part)}
			}
			for cpu := start; cpu <= end; cpu++ {
				cpus = append(cpus, cpu)
			}
			continue
		}
		cpu, err := strconv.Atoi(part)
		if err != nil {
			return nil, &ValidationError{Field: "affinity", Msg: fmt.Sprintf("bad cpu index %q", part)}
		}
		cpus = append(cpus, cpu)
	}
	return cpus, nil
}

// SetNiceValue adjusts pid's scheduling priority. nice must be in
// [-20,19]; out-of-range values are rejected before the syscall runs.
func SetNiceValue(pid, nice int) error {
	if nice < -20 || nice > 19 {
		return &ValidationError{Field: "nice", Msg: "must be between -20 and 19"}
	}
	if err := unix.Setpriority(unix.PRIO_PROCESS, pid, nice); err != nil {
		return fmt.Errorf("affinity: set nice %d for pid %d: %w", nice, pid, err)
	}
	return nil
}

// KillProcess sends signal to pid, surfacing the raw errno from the
// kernel (e.g. ESRCH, EPERM) wrapped with context.
func KillProcess(pid int, signal Signal) error {
	if err := unix.Kill(pid, signal); err != nil {
		return fmt.Errorf("affinity: kill pid %d with signal %d: %w", pid, signal, err)
	}
	return nil
}

// KillProcessGroup sends signal to every process in pgid. Linux's kill(2)
// treats a negative pid as "send to the process group -pid", which is
// the kernel's own killpg(3) implementation.
func KillProcessGroup(pgid int, signal Signal) error {
	if pgid <= 0 {
		return &ValidationError{Field: "pgid", Msg: "must be positive"}
	}
	if err := unix.Kill(-pgid, signal); err != nil {
		return fmt.Errorf("affinity: kill process group %d with signal %d: %w", pgid, signal, err)
	}
	return nil
}
