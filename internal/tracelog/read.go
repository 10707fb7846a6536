package tracelog

import (
	"context"
	"fmt"
)

// RunInfo is one row of the runs table.
type RunInfo struct {
	ID        string
	Scenario  string
	App       string
	StartedAt string
	Passes    int
	Outcome   string
}

// TraceEvent is one recorded event dispatch.
type TraceEvent struct {
	Pass        int
	Seq         int64
	Origin      string
	Target      string
	Propagation string
	Message     string
}

// String renders the row for divergence reports and the CLI.
func (e TraceEvent) String() string {
	return fmt.Sprintf("pass=%d seq=%d %s %s->%s %s",
		e.Pass, e.Seq, e.Propagation, e.Origin, e.Target, e.Message)
}

// TraceChange is one recorded store change.
type TraceChange struct {
	Pass      int
	Owner     string
	Key       string
	Observers int
}

func (c TraceChange) String() string {
	return fmt.Sprintf("pass=%d owner=%s key=%s observers=%d",
		c.Pass, c.Owner, c.Key, c.Observers)
}

// TraceRebuild is one recorded observer rebuild.
type TraceRebuild struct {
	Pass int
	Node string
}

func (b TraceRebuild) String() string {
	return fmt.Sprintf("pass=%d node=%s", b.Pass, b.Node)
}

// RunTrace bundles everything recorded for one run, in canonical order.
type RunTrace struct {
	Run      RunInfo
	Events   []TraceEvent
	Changes  []TraceChange
	Rebuilds []TraceRebuild
}

// ReadRun returns the runs row for the given id. A missing run
// surfaces as an error wrapping sql.ErrNoRows.
func (l *Log) ReadRun(ctx context.Context, runID string) (RunInfo, error) {
	var info RunInfo
	err := l.db.QueryRowContext(ctx, `
		SELECT id, scenario, app, started_at, passes, outcome
		FROM runs
		WHERE id = ?
	`, runID).Scan(&info.ID, &info.Scenario, &info.App, &info.StartedAt, &info.Passes, &info.Outcome)
	if err != nil {
		return RunInfo{}, fmt.Errorf("read run %s: %w", runID, err)
	}
	return info, nil
}

// ReadRunEvents returns a run's events ordered by (pass, seq).
//
// Returns an empty slice (not nil) if the run recorded no events.
func (l *Log) ReadRunEvents(ctx context.Context, runID string) ([]TraceEvent, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT pass, seq, origin, target, propagation, message
		FROM events
		WHERE run_id = ?
		ORDER BY pass ASC, seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []TraceEvent{}
	for rows.Next() {
		var e TraceEvent
		if err := rows.Scan(&e.Pass, &e.Seq, &e.Origin, &e.Target, &e.Propagation, &e.Message); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

// readRunChanges returns a run's store changes in canonical order.
// Within a pass the natural key (owner, store_key) orders rows, which
// canonicalizes away the sweep order without losing any content.
func (l *Log) readRunChanges(ctx context.Context, runID string) ([]TraceChange, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT pass, owner, store_key, observers
		FROM changes
		WHERE run_id = ?
		ORDER BY pass ASC, owner ASC, store_key ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query changes: %w", err)
	}
	defer rows.Close()

	changes := []TraceChange{}
	for rows.Next() {
		var c TraceChange
		if err := rows.Scan(&c.Pass, &c.Owner, &c.Key, &c.Observers); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate changes: %w", err)
	}

	return changes, nil
}

// readRunRebuilds returns a run's rebuilds in canonical order.
func (l *Log) readRunRebuilds(ctx context.Context, runID string) ([]TraceRebuild, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT pass, node
		FROM rebuilds
		WHERE run_id = ?
		ORDER BY pass ASC, node ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query rebuilds: %w", err)
	}
	defer rows.Close()

	rebuilds := []TraceRebuild{}
	for rows.Next() {
		var b TraceRebuild
		if err := rows.Scan(&b.Pass, &b.Node); err != nil {
			return nil, fmt.Errorf("scan rebuild: %w", err)
		}
		rebuilds = append(rebuilds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rebuilds: %w", err)
	}

	return rebuilds, nil
}

// ReadRunTrace returns everything recorded for a run.
func (l *Log) ReadRunTrace(ctx context.Context, runID string) (RunTrace, error) {
	trace := RunTrace{}

	info, err := l.ReadRun(ctx, runID)
	if err != nil {
		return trace, err
	}
	trace.Run = info

	if trace.Events, err = l.ReadRunEvents(ctx, runID); err != nil {
		return trace, err
	}
	if trace.Changes, err = l.readRunChanges(ctx, runID); err != nil {
		return trace, err
	}
	if trace.Rebuilds, err = l.readRunRebuilds(ctx, runID); err != nil {
		return trace, err
	}

	return trace, nil
}

// ListRuns returns all recorded runs. UUIDv7 ids sort by creation
// time, so ordering by id yields chronological order.
func (l *Log) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, scenario, app, started_at, passes, outcome
		FROM runs
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []RunInfo{}
	for rows.Next() {
		var info RunInfo
		if err := rows.Scan(&info.ID, &info.Scenario, &info.App, &info.StartedAt, &info.Passes, &info.Outcome); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// Summary gives the CLI a one-line view of a run.
type Summary struct {
	Run      RunInfo
	Events   int
	Changes  int
	Rebuilds int
}

// Summarize returns row counts for a run alongside its runs row.
func (l *Log) Summarize(ctx context.Context, runID string) (Summary, error) {
	info, err := l.ReadRun(ctx, runID)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{Run: info}
	counts := []struct {
		table string
		dst   *int
	}{
		{"events", &s.Events},
		{"changes", &s.Changes},
		{"rebuilds", &s.Rebuilds},
	}
	for _, c := range counts {
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE run_id = ?", c.table)
		if err := l.db.QueryRowContext(ctx, query, runID).Scan(c.dst); err != nil {
			return Summary{}, fmt.Errorf("count %s: %w", c.table, err)
		}
	}

	return s, nil
}
