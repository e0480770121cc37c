package alertengine

import (
	"strings"
	"time"
)

// phase is the Clear/Pending/Firing state for one (rule, pid) pair.
type phase int

const (
	phaseClear phase = iota
	phasePending
	phaseFiring
)

type ruleState struct {
	phase     phase
	firstSeen time.Time
	lastSent  time.Time
	count     int
}

type key struct {
	kind Kind
	pid  int
}

// Engine evaluates rules against each tick's processes and tracks the
// sustain-then-cooldown state machine per (rule, pid). Not safe for
// concurrent Evaluate calls — the engine runs one alert-evaluator
// goroutine.
type Engine struct {
	rules []Rule
	state map[key]*ruleState

	queue    []Alert
	queueCap int
}

// New constructs an Engine with a bounded drop-oldest alert queue.
func New(rules []Rule, queueCapacity int) *Engine {
	if queueCapacity <= 0 {
		queueCapacity = 100
	}
	return &Engine{
		rules:    rules,
		state:    make(map[key]*ruleState),
		queueCap: queueCapacity,
	}
}

// matchesFilter checks the rule's process_filter as a case-insensitive
// substring match against the process name.
func matchesFilter(rule Rule, processName string) bool {
	if rule.ProcessFilter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(processName), strings.ToLower(rule.ProcessFilter))
}

// handleTrigger advances the state machine for one (rule,pid) pair whose
// value currently exceeds the rule's threshold. It returns an Alert and
// true only on the tick firing transitions (sustained long enough, and
// cooldown since the last firing has elapsed).
func (e *Engine) handleTrigger(rule Rule, pid int, processName string, value float64, now time.Time) (Alert, bool) {
	k := key{kind: rule.Kind, pid: pid}
	st, ok := e.state[k]
	if !ok {
		st = &ruleState{}
		e.state[k] = st
	}

	if st.phase == phaseClear {
		st.phase = phasePending
		st.firstSeen = now
	}

	sustained := now.Sub(st.firstSeen) >= time.Duration(rule.DurationSeconds)*time.Second
	if !sustained {
		return Alert{}, false
	}

	cooledDown := st.lastSent.IsZero() || now.Sub(st.lastSent) >= time.Duration(rule.CooldownSeconds)*time.Second
	if !cooledDown {
		return Alert{}, false
	}

	st.phase = phaseFiring
	st.lastSent = now
	st.count++

	return Alert{
		Kind:        rule.Kind,
		Severity:    severityFor(value, rule.Threshold),
		ProcessName: processName,
		PID:         pid,
		Value:       value,
		Threshold:   rule.Threshold,
	}, true
}

// handleClear resets a (rule,pid) pair whose value has fallen back under
// threshold, so the next breach starts a fresh sustain window.
func (e *Engine) handleClear(rule Rule, pid int, now time.Time) {
	k := key{kind: rule.Kind, pid: pid}
	st, ok := e.state[k]
	if !ok {
		return
	}
	if st.phase != phaseClear {
		st.phase = phaseClear
		st.firstSeen = now
	}
}
