package alertengine

import (
	"fmt"
	"time"

	"github.com/nsolari/procwatch/model"
)

// Evaluate runs every enabled rule against snap's processes and returns
// the alerts that transitioned to Firing on this tick (not every
// breach — only durably sustained, cooldown-cleared ones). Fired alerts
// are also pushed onto the engine's bounded queue, oldest dropped first.
func (e *Engine) Evaluate(snap model.Snapshot) []Alert {
	now := snap.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	var fired []Alert
	for _, rule := range e.rules {
		if !rule.Enabled {
			continue
		}
		for _, p := range snap.Processes {
			if !matchesFilter(rule, p.Name) {
				continue
			}
			value, breached := evaluateCondition(rule, p)
			if !breached {
				e.handleClear(rule, p.PID, now)
				continue
			}
			alert, ok := e.handleTrigger(rule, p.PID, p.Name, value, now)
			if !ok {
				continue
			}
			alert.Message = formatMessage(alert)
			fired = append(fired, alert)
			e.push(alert)
		}
	}
	return fired
}

func evaluateCondition(rule Rule, p model.ProcessRecord) (value float64, breached bool) {
	switch rule.Kind {
	case KindHighCPU:
		return p.CPUPercent, p.CPUPercent > rule.Threshold
	case KindHighMemory:
		return p.MemoryPercent, p.MemoryPercent > rule.Threshold
	default:
		return 0, false
	}
}

func formatMessage(a Alert) string {
	return fmt.Sprintf("%s: %s (pid %d) value=%.1f threshold=%.1f", a.Kind, a.ProcessName, a.PID, a.Value, a.Threshold)
}

// push appends alert to the bounded queue, dropping the oldest entry if
// full.
func (e *Engine) push(alert Alert) {
	if len(e.queue) >= e.queueCap {
		e.queue = e.queue[1:]
	}
	e.queue = append(e.queue, alert)
}

// Drain removes and returns every alert currently queued.
func (e *Engine) Drain() []Alert {
	out := e.queue
	e.queue = nil
	return out
}
