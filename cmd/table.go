package cmd

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nsolari/procwatch/engine"
	"github.com/nsolari/procwatch/model"
	"github.com/nsolari/procwatch/view"
)

var (
	colorCyan    = lipgloss.Color("#8BE9FD")
	colorGray    = lipgloss.Color("#6272A4")
	colorYellow  = lipgloss.Color("#F1FA8C")
	colorRed     = lipgloss.Color("#FF5555")
	colorWhite   = lipgloss.Color("#F8F8F2")
	headerStyle  = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(colorGray)
	warnStyle    = lipgloss.NewStyle().Foreground(colorYellow)
	critStyle    = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	normalStyle  = lipgloss.NewStyle().Foreground(colorWhite)
)

type tickMsg time.Time

// tableModel is a minimal bubbletea view over the engine's latest
// Snapshot, sorted by CPU descending — just enough to demonstrate the
// library end to end, not a production TUI.
type tableModel struct {
	eng       *engine.Engine
	interval  time.Duration
	snap      model.Snapshot
	haveSnap  bool
	sortKey   model.SortKey
	treeMode  bool
	nameFilter string
	err       error
}

func newTableModel(eng *engine.Engine, interval time.Duration) tableModel {
	return tableModel{eng: eng, interval: interval, sortKey: model.SortCPU}
}

// visibleRows applies the active name filter, then either the flat sort
// order or a depth-first tree walk, depending on treeMode.
func (m tableModel) visibleRows() []model.ProcessRecord {
	rows := append([]model.ProcessRecord(nil), m.snap.Processes...)

	if m.nameFilter != "" {
		compiled, err := view.Compile([]model.Filter{{Field: "name", Op: "contains", Value: m.nameFilter}})
		if err == nil {
			rows = view.Apply(rows, compiled)
		}
	}

	if m.treeMode {
		roots := view.BuildTree(rows)
		nodes := view.Flatten(roots)
		rows = make([]model.ProcessRecord, len(nodes))
		for i, n := range nodes {
			p := n.Process
			p.Name = strings.Repeat("  ", n.Depth) + p.Name
			rows[i] = p
		}
		return rows
	}

	view.Sort(rows, m.sortKey, model.SortDescending)
	return rows
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m tableModel) Init() tea.Cmd {
	return tick(m.interval)
}

func (m tableModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "c":
			m.sortKey = model.SortCPU
		case "m":
			m.sortKey = model.SortMemory
		case "p":
			m.sortKey = model.SortPID
		case "n":
			m.sortKey = model.SortName
		case "t":
			m.treeMode = !m.treeMode
		case "backspace":
			if len(m.nameFilter) > 0 {
				m.nameFilter = m.nameFilter[:len(m.nameFilter)-1]
			}
		case "esc":
			m.nameFilter = ""
		default:
			if len(msg.String()) == 1 && msg.String() >= "a" && msg.String() <= "z" {
				m.nameFilter += msg.String()
			}
		}
		return m, nil
	case tickMsg:
		if snap, ok := m.eng.Snapshot(); ok {
			m.snap = snap
			m.haveSnap = true
		}
		return m, tick(m.interval)
	}
	return m, nil
}

func (m tableModel) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("procwatch") + dimStyle.Render(" — q quit, c/m/p/n sort, t tree, type to filter name, esc clears") + "\n\n")

	if !m.haveSnap {
		b.WriteString(dimStyle.Render("waiting for first sample...") + "\n")
		return b.String()
	}

	sys := m.snap.System
	b.WriteString(fmt.Sprintf("%s  cpus=%d  mem=%d/%d KB  load=%.2f %.2f %.2f  procs=%d  filter=%q  tree=%v\n\n",
		m.snap.Timestamp.Format(time.RFC3339), sys.CPUCount, sys.UsedMemoryKB, sys.TotalMemoryKB,
		sys.Load1, sys.Load5, sys.Load15, len(m.snap.Processes), m.nameFilter, m.treeMode))

	rows := m.visibleRows()

	b.WriteString(headerStyle.Render(fmt.Sprintf("%8s %8s %-20s %6s %8s %-10s %s", "PID", "PPID", "NAME", "CPU%", "RSS(KB)", "USER", "STATE")) + "\n")

	limit := len(rows)
	if limit > 30 {
		limit = 30
	}
	for _, p := range rows[:limit] {
		style := normalStyle
		switch {
		case p.CPUPercent >= 80:
			style = critStyle
		case p.CPUPercent >= 50:
			style = warnStyle
		}
		b.WriteString(style.Render(fmt.Sprintf("%8d %8d %-20.20s %6.1f %8d %-10.10s %c", p.PID, p.PPID, p.Name, p.CPUPercent, p.RSSKB, p.User, p.State)) + "\n")
	}
	return b.String()
}
