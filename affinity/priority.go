package affinity

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nsolari/procwatch/util"
)

// SchedPolicy names a Linux scheduling class, decoded from /proc/<pid>/sched.
type SchedPolicy string

const (
	SchedOther SchedPolicy = "SCHED_OTHER"
	SchedFIFO  SchedPolicy = "SCHED_FIFO"
	SchedRR    SchedPolicy = "SCHED_RR"
	SchedBatch SchedPolicy = "SCHED_BATCH"
	SchedIdle  SchedPolicy = "SCHED_IDLE"
)

// PriorityInfo is the scheduling-related state of a single process.
type PriorityInfo struct {
	PID            int
	Nice           int
	Priority       int // kernel-calculated, stat field 18
	Policy         SchedPolicy
	CPUAffinity    []int
	IOPriorityClass string
	IOPriorityLevel int
}

// GetPriorityInfo reads /proc/<pid>/stat for nice and kernel priority,
// /proc/<pid>/sched for the scheduling policy, and the CPU affinity mask.
// I/O priority has no portable ioprio_get wrapper in x/sys, so it reports
// the Linux default class/level ("best-effort"/4) the way the reference
// implementation does absent a real syscall binding.
func GetPriorityInfo(pid int) (PriorityInfo, error) {
	fields, err := readStatFields(pid)
	if err != nil {
		return PriorityInfo{}, fmt.Errorf("affinity: priority info for pid %d: %w", pid, err)
	}

	info := PriorityInfo{
		PID:             pid,
		Priority:        fields.priority,
		Nice:            fields.nice,
		Policy:          schedPolicyOf(pid),
		IOPriorityClass: "best-effort",
		IOPriorityLevel: 4,
	}
	info.CPUAffinity, _ = GetCPUAffinity(pid)
	return info, nil
}

func schedPolicyOf(pid int) SchedPolicy {
	content, err := util.ReadFileString(fmt.Sprintf("/proc/%d/sched", pid))
	if err != nil {
		return SchedOther
	}
	for _, line := range strings.Split(content, "\n") {
		if !strings.Contains(line, "policy") {
			continue
		}
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			continue
		}
		switch strings.TrimSpace(line[idx+1:]) {
		case "0":
			return SchedOther
		case "1":
			return SchedFIFO
		case "2":
			return SchedRR
		case "3":
			return SchedBatch
		case "5":
			return SchedIdle
		}
	}
	return SchedOther
}

type statFields struct {
	ppid, pgid, sid, ttyNr, tpgid int
	priority, nice                int
}

// readStatFields parses the handful of /proc/<pid>/stat fields affinity
// and groups need, locating the comm field by its parentheses the same
// way the sampler does so a comm containing ')' or whitespace can't
// desynchronize the field offsets.
func readStatFields(pid int) (statFields, error) {
	var f statFields
	content, err := util.ReadFileString(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return f, err
	}
	openIdx := strings.Index(content, "(")
	closeIdx := strings.LastIndex(content, ")")
	if openIdx < 0 || closeIdx < 0 || closeIdx < openIdx {
		return f, fmt.Errorf("malformed stat for pid %d", pid)
	}
	rest := strings.Fields(content[closeIdx+2:])
	if len(rest) < 17 {
		return f, fmt.Errorf("stat too short for pid %d", pid)
	}
	// rest[0] is state (field 3); field N (1-indexed) is rest[N-3].
	f.ppid = atoi(rest[1])
	f.pgid = atoi(rest[2])
	f.sid = atoi(rest[3])
	f.ttyNr = atoi(rest[4])
	f.tpgid = atoi(rest[5])
	f.priority = atoi(rest[15])
	f.nice = atoi(rest[16])
	return f, nil
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
