// Package engine is procwatch's orchestration layer: it owns the
// sampler's tick loop, publishes each Snapshot to a fan-out of ingest
// sinks (history, anomaly detector, alert engine), and runs the history
// writer and alert notifier as independent tasks so neither can stall a
// refresh. See the package's Run for the concurrency contract.
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/nsolari/procwatch/alertengine"
	"github.com/nsolari/procwatch/anomaly"
	"github.com/nsolari/procwatch/history"
	"github.com/nsolari/procwatch/model"
	"github.com/nsolari/procwatch/sampler"
	"github.com/nsolari/procwatch/snapshotstore"
)

// Sink is anything that wants every published Snapshot. Engine takes no
// registered sinks: tick hands each Snapshot directly to the anomaly
// detector, the alert engine, and the history writer's single-slot
// channel, none of which does I/O inline.
type Sink interface {
	Ingest(snap model.Snapshot)
}

// Config tunes the engine's tick cadence and subsystem behavior.
type Config struct {
	RefreshInterval time.Duration
	Sampler         sampler.Config
	Anomaly         anomaly.Config
	AlertRules      []alertengine.Rule
	AlertQueueCap   int
	Notifier        alertengine.Config

	// HistoryEnabled toggles the history-writer task entirely; when false
	// no database is opened and RecordProcesses/RecordSystem are never
	// called.
	HistoryEnabled bool
	DatabasePath   string
	// RetentionDays, when positive, is applied once by New: rows older
	// than this many days are deleted from the opened store.
	RetentionDays int

	SnapshotDir string
}

// DefaultConfig mirrors the documented defaults for every tunable.
func DefaultConfig() Config {
	return Config{
		RefreshInterval: 2 * time.Second,
		Sampler:         sampler.DefaultConfig(),
		Anomaly:         anomaly.DefaultConfig(),
		AlertQueueCap:   100,
		HistoryEnabled:  true,
		DatabasePath:    "procwatch_history.db",
		RetentionDays:   7,
		SnapshotDir:     "procwatch_snapshots",
	}
}

// Engine wires the sampler to every downstream subsystem and exposes the
// latest published Snapshot to readers (an HTTP handler or TUI, in a
// real deployment) under a read lock.
type Engine struct {
	cfg Config

	sampler  *sampler.Sampler
	detector *anomaly.Detector
	alerts   *alertengine.Engine
	notifier *alertengine.Notifier
	store    *history.Store // nil when HistoryEnabled is false
	snaps    *snapshotstore.Store

	mu   sync.RWMutex
	live model.Snapshot

	historyCh chan model.Snapshot // single-slot, overwritten when the writer falls behind
	limiter   *rate.Limiter
}

// New constructs an Engine. When cfg.HistoryEnabled is true it opens the
// SQLite store at cfg.DatabasePath immediately, returning an error if
// that fails — a fatal condition per the error taxonomy, not absorbed.
func New(cfg Config) (*Engine, error) {
	snaps, err := snapshotstore.NewStore(cfg.SnapshotDir)
	if err != nil {
		return nil, fmt.Errorf("engine: open snapshot store: %w", err)
	}

	e := &Engine{
		cfg:       cfg,
		sampler:   sampler.New(cfg.Sampler),
		detector:  anomaly.New(cfg.Anomaly),
		alerts:    alertengine.New(cfg.AlertRules, cfg.AlertQueueCap),
		notifier:  alertengine.NewNotifier(cfg.Notifier),
		snaps:     snaps,
		historyCh: make(chan model.Snapshot, 1),
		limiter:   rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	}
	if cfg.HistoryEnabled {
		store, err := history.Open(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("engine: open history store: %w", err)
		}
		e.store = store
		if cfg.RetentionDays > 0 {
			if _, err := store.CleanOldData(cfg.RetentionDays); err != nil {
				log.Printf("procwatch: history retention sweep: %v", err)
			}
		}
	}
	return e, nil
}

// Snapshot returns the most recently published Snapshot and whether one
// has been published yet.
func (e *Engine) Snapshot() (model.Snapshot, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.live.Timestamp.IsZero() {
		return model.Snapshot{}, false
	}
	return e.live, true
}

// Process returns one process record from the latest Snapshot.
func (e *Engine) Process(pid int) (model.ProcessRecord, bool) {
	snap, ok := e.Snapshot()
	if !ok {
		return model.ProcessRecord{}, false
	}
	return snap.ByPID(pid)
}

// Detector exposes the anomaly detector for callers that want recent
// anomalies (e.g. a TUI panel or the HTTP API).
func (e *Engine) Detector() *anomaly.Detector { return e.detector }

// Snapshots exposes the named-capture store for ad-hoc Capture/List/Load/Delete.
func (e *Engine) Snapshots() *snapshotstore.Store { return e.snaps }

// Run starts the sampler, history writer, and alert notifier tasks and
// blocks until ctx is canceled or a task fails. Each task observes ctx
// between iterations; an in-flight refresh, history batch, or alert
// delivery always completes before the task exits. On return, the
// pending history batch has been flushed and the alert queue drained
// with a bounded deadline.
func (e *Engine) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return e.runSampler(ctx) })
	if e.cfg.HistoryEnabled {
		g.Go(func() error { return e.runHistoryWriter(ctx) })
	}
	g.Go(func() error { return e.runAlertNotifier(ctx) })

	err := g.Wait()
	e.shutdown()
	return err
}

func (e *Engine) shutdown() {
	if e.store == nil {
		return
	}
	// Drain whatever the sampler last queued so a cancellation doesn't
	// silently drop the final tick.
	select {
	case snap := <-e.historyCh:
		e.recordWithRetry(snap)
	default:
	}
	if err := e.store.Close(); err != nil {
		log.Printf("procwatch: close history store: %v", err)
	}
}

// runSampler drives refresh on cfg.RefreshInterval. It never suspends on
// I/O itself: publishing is a lock acquisition, and handing a snapshot to
// the history/alert tasks is a non-blocking channel send.
func (e *Engine) runSampler(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.tick()
		}
	}
}

func (e *Engine) tick() {
	snap, summary, err := e.sampler.Refresh()
	if err != nil {
		log.Printf("procwatch: refresh failed: %v", err)
		return
	}
	if summary.ErrorCount > 0 {
		log.Printf("procwatch: refresh: %d processes, %d errors, %s", summary.ProcessCount, summary.ErrorCount, summary.Duration)
	}

	anomalies := e.detector.Update(snap)
	for _, a := range anomalies {
		e.alerts.IngestAnomaly(a)
	}
	e.alerts.Evaluate(snap)

	e.mu.Lock()
	e.live = snap
	e.mu.Unlock()

	e.enqueueHistory(snap)
}

// enqueueHistory hands snap to the history writer without blocking: if
// the writer is still busy with the previous tick, the pending snapshot
// is overwritten so the newest sample always wins (single-slot
// overwrite backpressure, per the concurrency model).
func (e *Engine) enqueueHistory(snap model.Snapshot) {
	if !e.cfg.HistoryEnabled {
		return
	}
	select {
	case e.historyCh <- snap:
	default:
		select {
		case <-e.historyCh:
		default:
		}
		select {
		case e.historyCh <- snap:
		default:
		}
	}
}

// runHistoryWriter consumes published snapshots and commits them. Each
// commit is attempted, retried once with a fixed backoff on failure, then
// dropped and logged — the sampler never waits on this task.
func (e *Engine) runHistoryWriter(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-e.historyCh:
			e.recordWithRetry(snap)
		}
	}
}

func (e *Engine) recordWithRetry(snap model.Snapshot) {
	inserted, failed, err := e.store.RecordProcesses(snap)
	if err != nil {
		time.Sleep(200 * time.Millisecond)
		inserted, failed, err = e.store.RecordProcesses(snap)
		if err != nil {
			log.Printf("procwatch: history batch dropped after retry: %v", err)
			return
		}
	}
	if failed > 0 {
		log.Printf("procwatch: history batch: %d inserted, %d row errors", inserted, failed)
	}
	if err := e.store.RecordSystem(snap.System, snap.Timestamp); err != nil {
		log.Printf("procwatch: record system history: %v", err)
	}
}

// runAlertNotifier drains the alert engine's bounded queue and dispatches
// each alert to configured channels, paced by a rate limiter so a burst
// of simultaneous breaches can't flood a webhook.
func (e *Engine) runAlertNotifier(ctx context.Context) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			e.drainAlerts(drainCtx)
			cancel()
			return nil
		case <-ticker.C:
			e.drainAlerts(ctx)
		}
	}
}

func (e *Engine) drainAlerts(ctx context.Context) {
	for _, a := range e.alerts.Drain() {
		if err := e.limiter.Wait(ctx); err != nil {
			return
		}
		e.notifier.Dispatch(a)
	}
}
