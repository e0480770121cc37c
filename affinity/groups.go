package affinity

import "fmt"

// GroupInfo is the process-group/session identity of one PID, parsed
// from /proc/<pid>/stat.
type GroupInfo struct {
	PID             int
	PPID            int
	PGID            int
	SID             int
	TTYNr           int
	TPGID           int
	IsSessionLeader bool
	IsGroupLeader   bool
}

// GetProcessGroupInfo reads pid's job-control identifiers and derives its
// leader flags by identity: a process is its own session's leader iff
// pid == sid, and its own group's leader iff pid == pgid.
func GetProcessGroupInfo(pid int) (GroupInfo, error) {
	fields, err := readStatFields(pid)
	if err != nil {
		return GroupInfo{}, fmt.Errorf("affinity: group info for pid %d: %w", pid, err)
	}
	return GroupInfo{
		PID:             pid,
		PPID:            fields.ppid,
		PGID:            fields.pgid,
		SID:             fields.sid,
		TTYNr:           fields.ttyNr,
		TPGID:           fields.tpgid,
		IsSessionLeader: pid == fields.sid,
		IsGroupLeader:   pid == fields.pgid,
	}, nil
}

// GetTTYName decodes a stat tty_nr field into a device name, matching the
// kernel's major/minor encoding: major = (tty_nr>>8)&0xff, minor =
// tty_nr&0xff. Major 4 is the legacy console/tty driver, 136 is the
// modern pts (pseudo-terminal) driver; anything else is reported as
// "major:minor" since there is no universal name for it.
func GetTTYName(ttyNr int) string {
	if ttyNr == 0 {
		return "?"
	}
	major := (ttyNr >> 8) & 0xff
	minor := ttyNr & 0xff
	switch major {
	case 4:
		return fmt.Sprintf("tty%d", minor)
	case 136:
		return fmt.Sprintf("pts/%d", minor)
	default:
		return fmt.Sprintf("%d:%d", major, minor)
	}
}
