package alertengine

import (
	"testing"
	"time"

	"github.com/nsolari/procwatch/model"
)

func snapAt(t time.Time, cpu float64) model.Snapshot {
	return model.Snapshot{
		Timestamp: t,
		Processes: []model.ProcessRecord{{PID: 1, Name: "worker", CPUPercent: cpu}},
	}
}

// TestAlertLifecycleTiming replays the spec's exact timeline: cpu stays
// at 95% (threshold 80, duration 5s, cooldown say 60s) at t=0,2,4,6,8,70 —
// the rule must fire once the condition has held for >=5s (at t=6, since
// first_seen=0) and again at t=70 once the cooldown since t=6 elapses.
func TestAlertLifecycleTiming(t *testing.T) {
	rules := []Rule{{Enabled: true, Kind: KindHighCPU, Threshold: 80, DurationSeconds: 5, CooldownSeconds: 60}}
	e := New(rules, 100)
	base := time.Unix(0, 0)

	ticks := []int{0, 2, 4, 6, 8, 70}
	var allFired []Alert
	for _, sec := range ticks {
		fired := e.Evaluate(snapAt(base.Add(time.Duration(sec)*time.Second), 95.0))
		allFired = append(allFired, fired...)
	}

	if len(allFired) != 2 {
		t.Fatalf("expected exactly 2 firings (t=6 and t=70), got %d: %+v", len(allFired), allFired)
	}
	for _, a := range allFired {
		if a.Severity != SeverityWarning {
			t.Errorf("95%% against threshold 80 (1.5x=120) should be Warning not Critical, got %v", a.Severity)
		}
	}
}

func TestSeverityCriticalAboveOnePointFiveX(t *testing.T) {
	rules := []Rule{{Enabled: true, Kind: KindHighCPU, Threshold: 10, DurationSeconds: 0, CooldownSeconds: 0}}
	e := New(rules, 100)
	base := time.Unix(0, 0)

	fired := e.Evaluate(snapAt(base, 16)) // 16 > 10*1.5
	if len(fired) != 1 || fired[0].Severity != SeverityCritical {
		t.Fatalf("expected Critical severity, got %+v", fired)
	}
}

func TestSeverityWarningBelowOnePointFiveX(t *testing.T) {
	rules := []Rule{{Enabled: true, Kind: KindHighCPU, Threshold: 10, DurationSeconds: 0, CooldownSeconds: 0}}
	e := New(rules, 100)
	base := time.Unix(0, 0)

	fired := e.Evaluate(snapAt(base, 12)) // 12 <= 10*1.5
	if len(fired) != 1 || fired[0].Severity != SeverityWarning {
		t.Fatalf("expected Warning severity, got %+v", fired)
	}
}

func TestClearResetsFirstSeen(t *testing.T) {
	rules := []Rule{{Enabled: true, Kind: KindHighCPU, Threshold: 80, DurationSeconds: 5, CooldownSeconds: 60}}
	e := New(rules, 100)
	base := time.Unix(0, 0)

	e.Evaluate(snapAt(base, 95))                         // t=0: pending starts
	e.Evaluate(snapAt(base.Add(3*time.Second), 10))      // t=3: clears, resets
	fired := e.Evaluate(snapAt(base.Add(5*time.Second), 95)) // t=5: only 2s since reset
	if len(fired) != 0 {
		t.Errorf("expected no firing — sustain window should have reset at the clear, got %+v", fired)
	}
}

func TestDisabledRuleNeverFires(t *testing.T) {
	rules := []Rule{{Enabled: false, Kind: KindHighCPU, Threshold: 1, DurationSeconds: 0, CooldownSeconds: 0}}
	e := New(rules, 100)
	fired := e.Evaluate(snapAt(time.Unix(0, 0), 100))
	if len(fired) != 0 {
		t.Errorf("disabled rule must never fire, got %+v", fired)
	}
}

func TestBoundedQueueDropsOldest(t *testing.T) {
	rules := []Rule{{Enabled: true, Kind: KindHighCPU, Threshold: 1, DurationSeconds: 0, CooldownSeconds: 0}}
	e := New(rules, 2)
	for i := 0; i < 5; i++ {
		e.Evaluate(snapAt(time.Unix(int64(i*100), 0), float64(50+i)))
	}
	drained := e.Drain()
	if len(drained) != 2 {
		t.Fatalf("queue should be capped at 2, got %d", len(drained))
	}
	if drained[0].Value != 53 || drained[1].Value != 54 {
		t.Errorf("expected the two newest alerts (53, 54) to survive, got %v, %v", drained[0].Value, drained[1].Value)
	}
}
