package anomaly

import (
	"testing"
	"time"

	"github.com/nsolari/procwatch/model"
)

func snapshotAt(t time.Time, cpu float64) model.Snapshot {
	return model.Snapshot{
		Timestamp: t,
		Processes: []model.ProcessRecord{
			{PID: 42, Name: "worker", StartTime: 1000, CPUPercent: cpu},
		},
	}
}

func TestNoFalsePositiveBelowVarianceFloor(t *testing.T) {
	d := New(DefaultConfig())
	base := time.Now()
	// All samples identical: stddev == 0 < 1.0 sigma floor, so no tick
	// may fire, including those past MinDataPoints.
	for i := 0; i < 15; i++ {
		anomalies := d.Update(snapshotAt(base.Add(time.Duration(i)*time.Second), 10.0))
		if len(anomalies) != 0 {
			t.Fatalf("tick %d: expected no anomalies with zero variance, got %+v", i, anomalies)
		}
	}
}

func TestCPUSpikeSeverityAboveFloor(t *testing.T) {
	d := New(DefaultConfig())
	base := time.Now()
	// 30 ticks at ~10% with small jitter, then one tick at 80%.
	var last []Anomaly
	for i := 0; i < 30; i++ {
		cpu := 10.0
		if i%2 == 0 {
			cpu = 11.0
		}
		last = d.Update(snapshotAt(base.Add(time.Duration(i)*time.Second), cpu))
	}
	_ = last
	spikeTicks := d.Update(snapshotAt(base.Add(31*time.Second), 80.0))

	var spike *Anomaly
	for i := range spikeTicks {
		if spikeTicks[i].Kind == KindCPUSpike {
			spike = &spikeTicks[i]
		}
	}
	if spike == nil {
		t.Fatalf("expected a CpuSpike anomaly on the 80%% tick, got %+v", spikeTicks)
	}
	if spike.Severity < 0.9 {
		t.Errorf("severity = %.3f, want >= 0.9", spike.Severity)
	}
}

func TestMinDataPointsGate(t *testing.T) {
	d := New(DefaultConfig())
	base := time.Now()
	// Fewer than MinDataPoints ticks: even an extreme jump must not fire.
	for i := 0; i < 5; i++ {
		cpu := 10.0
		if i == 4 {
			cpu = 99.0
		}
		anomalies := d.Update(snapshotAt(base.Add(time.Duration(i)*time.Second), cpu))
		if len(anomalies) != 0 {
			t.Fatalf("tick %d: expected no anomalies before min_data_points reached, got %+v", i, anomalies)
		}
	}
}

func TestSuddenTerminationOfHeavyProcess(t *testing.T) {
	d := New(DefaultConfig())
	base := time.Now()
	for i := 0; i < 10; i++ {
		d.Update(model.Snapshot{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Processes: []model.ProcessRecord{
				{PID: 7, Name: "heavy", StartTime: 500, CPUPercent: 60.0},
			},
		})
	}
	// Process vanishes.
	anomalies := d.Update(model.Snapshot{Timestamp: base.Add(11 * time.Second)})
	var found bool
	for _, a := range anomalies {
		if a.Kind == KindSuddenTermination && a.PID == 7 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected SuddenTermination for a heavy process that vanished, got %+v", anomalies)
	}
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	d := New(DefaultConfig())
	d.push(Anomaly{PID: 1, Timestamp: time.Unix(1, 0)})
	d.push(Anomaly{PID: 2, Timestamp: time.Unix(2, 0)})
	got := d.Recent(2)
	if got[0].PID != 2 || got[1].PID != 1 {
		t.Errorf("Recent() = %+v, want newest-first order [2,1]", got)
	}
}
