package tracelog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/trellis/internal/engine"
	"github.com/roach88/trellis/internal/id"
)

// Recorder writes one run's trace rows as the engine reports them. It
// implements engine.TraceSink, so wiring it is a single option:
//
//	rec := tracelog.NewRecorder(log)
//	runID, err := rec.BeginRun(ctx, "counter-basic", "counter")
//	cx := engine.NewContext(engine.WithTraceSink(rec))
//
// The sink interface cannot return errors, so the first failed write is
// retained and all later writes are skipped; FinishRun surfaces it.
// Like the engine itself, a Recorder is single-writer: all sink
// callbacks arrive on the engine goroutine.
type Recorder struct {
	log    *Log
	runID  string
	passes int
	err    error
}

var _ engine.TraceSink = (*Recorder)(nil)

// NewRecorder returns a Recorder writing to the given log. Call
// BeginRun before mounting it on a context.
func NewRecorder(log *Log) *Recorder {
	return &Recorder{log: log}
}

// BeginRun registers a new run and makes it the recorder's target.
// Run ids are UUIDv7, so lexicographic order follows creation time.
func (r *Recorder) BeginRun(ctx context.Context, scenario, app string) (string, error) {
	runID := uuid.Must(uuid.NewV7()).String()
	startedAt := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := r.log.db.ExecContext(ctx, `
		INSERT INTO runs (id, scenario, app, started_at)
		VALUES (?, ?, ?, ?)
	`, runID, scenario, app, startedAt)
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}

	r.runID = runID
	r.passes = 0
	r.err = nil
	return runID, nil
}

// FinishRun stamps the run's final pass count and outcome. It returns
// the first trace-write failure, if any, so callers learn about rows
// the sink had to drop mid-run.
func (r *Recorder) FinishRun(ctx context.Context, outcome string) error {
	if r.runID == "" {
		return fmt.Errorf("finish run: no active run")
	}

	_, err := r.log.db.ExecContext(ctx, `
		UPDATE runs SET passes = ?, outcome = ? WHERE id = ?
	`, r.passes, outcome, r.runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	return r.err
}

// RunID returns the id of the active run, or "" before BeginRun.
func (r *Recorder) RunID() string {
	return r.runID
}

// Err returns the first trace-write failure, or nil.
func (r *Recorder) Err() error {
	return r.err
}

// EventDispatched records one dequeued event.
func (r *Recorder) EventDispatched(pass int, seq int64, origin, target id.NodeID, propagation engine.Propagation, message string) {
	if r.skip() {
		return
	}
	_, err := r.log.db.Exec(`
		INSERT INTO events (run_id, pass, seq, origin, target, propagation, message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, r.runID, pass, seq, origin.String(), target.String(), propagation.String(), message)
	r.fail("record event", err)
}

// StoreChanged records one store whose cached value changed.
func (r *Recorder) StoreChanged(pass int, owner id.NodeID, key string, observers int) {
	if r.skip() {
		return
	}
	_, err := r.log.db.Exec(`
		INSERT INTO changes (run_id, pass, owner, store_key, observers)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, r.runID, pass, owner.String(), key, observers)
	r.fail("record change", err)
}

// ObserverRebuilt records one binding rebuild.
func (r *Recorder) ObserverRebuilt(pass int, node id.NodeID) {
	if r.skip() {
		return
	}
	_, err := r.log.db.Exec(`
		INSERT INTO rebuilds (run_id, pass, node)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
	`, r.runID, pass, node.String())
	r.fail("record rebuild", err)
}

// PassEnded tracks the highest pass number seen; FinishRun persists it.
func (r *Recorder) PassEnded(pass int, events, changes, rebuilds int) {
	if r.runID == "" {
		return
	}
	if pass > r.passes {
		r.passes = pass
	}
}

func (r *Recorder) skip() bool {
	return r.runID == "" || r.err != nil
}

// fail retains the first write failure. Later rows are skipped rather
// than recorded with gaps, so a partial trace never masquerades as a
// complete one.
func (r *Recorder) fail(op string, err error) {
	if err == nil || r.err != nil {
		return
	}
	r.err = fmt.Errorf("%s: %w", op, err)
	slog.Error("trace write failed, suspending recorder",
		"run", r.runID,
		"op", op,
		"error", err)
}
