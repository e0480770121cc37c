package alertengine

import (
	"time"

	"github.com/nsolari/procwatch/anomaly"
)

// anomalyRuleKind maps one of the detector's anomaly kinds onto the
// alertengine.Kind a rule is configured against.
func anomalyRuleKind(k anomaly.Kind) Kind {
	switch k {
	case anomaly.KindSuddenTermination:
		return KindProcessTerminated
	default:
		return KindAnomalyDetected
	}
}

// IngestAnomaly feeds one detector-reported anomaly through the same
// (rule,pid) sustain+cooldown state machine Evaluate uses for threshold
// rules. An anomaly's severity (already clamped to [0,1] by the
// detector) stands in for "value" against the rule's threshold.
func (e *Engine) IngestAnomaly(a anomaly.Anomaly) []Alert {
	now := a.Timestamp
	if now.IsZero() {
		now = time.Now()
	}
	kind := anomalyRuleKind(a.Kind)

	var fired []Alert
	for _, rule := range e.rules {
		if !rule.Enabled || rule.Kind != kind {
			continue
		}
		if !matchesFilter(rule, a.Name) {
			continue
		}
		alert, ok := e.handleTrigger(rule, a.PID, a.Name, a.Severity, now)
		if !ok {
			continue
		}
		alert.Message = a.Description
		fired = append(fired, alert)
		e.push(alert)
	}
	return fired
}
