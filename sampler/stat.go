package sampler

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nsolari/procwatch/util"
)

type statFields struct {
	comm       string
	state      byte
	ppid       int
	numThreads int
	priority   int
	nice       int
	utime      uint64
	stime      uint64
	starttime  uint64
}

// readStat parses /proc/<pid>/stat. The comm field can itself contain
// spaces or parentheses, so the split point is the last ')' on the line,
// not the first whitespace run.
func readStat(pid int) (statFields, error) {
	content, err := util.ReadFileString(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return statFields{}, err
	}
	return parseStat(pid, content)
}

// parseStat parses the text of one /proc/<pid>/stat line.
func parseStat(pid int, content string) (statFields, error) {
	var st statFields

	openIdx := strings.Index(content, "(")
	closeIdx := strings.LastIndex(content, ")")
	if openIdx < 0 || closeIdx < 0 || closeIdx < openIdx {
		return st, fmt.Errorf("sampler: malformed stat for pid %d", pid)
	}
	st.comm = content[openIdx+1 : closeIdx]

	rest := strings.Fields(content[closeIdx+2:])
	if len(rest) < 20 {
		return st, fmt.Errorf("sampler: stat too short for pid %d", pid)
	}

	// Fields below are 0-indexed starting right after "state", i.e. field
	// 3 in the man page's 1-indexed numbering is rest[0].
	st.state = rest[0][0]
	st.ppid = util.ParseInt(rest[1])
	st.utime = util.ParseUint64(rest[11])
	st.stime = util.ParseUint64(rest[12])
	st.priority = util.ParseInt(rest[15])
	st.nice = util.ParseInt(rest[16])
	st.numThreads = util.ParseInt(rest[17])
	if len(rest) > 19 {
		st.starttime = util.ParseUint64(rest[19])
	}

	return st, nil
}

// readCmdline returns the space-joined argv of pid, reading the NUL
// separated /proc/<pid>/cmdline. Kernel threads have an empty cmdline.
func readCmdline(pid int) (string, error) {
	content, err := util.ReadFileString(filepath.Join("/proc", fmt.Sprintf("%d", pid), "cmdline"))
	if err != nil {
		return "", err
	}
	return joinCmdline(content), nil
}

// joinCmdline turns a NUL-separated /proc/<pid>/cmdline payload into a
// single space-joined command string.
func joinCmdline(raw string) string {
	parts := strings.Split(strings.TrimRight(raw, "\x00"), "\x00")
	return strings.Join(parts, " ")
}
