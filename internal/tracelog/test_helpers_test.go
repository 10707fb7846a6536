package tracelog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/trellis/internal/engine"
	"github.com/roach88/trellis/internal/id"
)

// createTestLog creates a trace database in a temp dir.
func createTestLog(t *testing.T) *Log {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.db")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

// recordRun begins a run, plays rows through the recorder and marks it ok.
func recordRun(t *testing.T, l *Log, scenario string, rows func(rec *Recorder)) string {
	t.Helper()
	rec := NewRecorder(l)
	runID, err := rec.BeginRun(context.Background(), scenario, "counter")
	if err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}
	rows(rec)
	if err := rec.FinishRun(context.Background(), "ok"); err != nil {
		t.Fatalf("FinishRun() failed: %v", err)
	}
	return runID
}

// sampleRows plays a minimal two-pass trace: one event mutates a store,
// one observer rebuilds, then a quiet pass settles.
func sampleRows(rec *Recorder) {
	n1, n2 := id.New(1, 0), id.New(2, 0)
	rec.EventDispatched(1, 1, n1, n1, engine.Up, "counter.increment")
	rec.StoreChanged(1, id.Root, "counterModel.Count", 1)
	rec.ObserverRebuilt(1, n2)
	rec.PassEnded(1, 1, 1, 1)
	rec.PassEnded(2, 0, 0, 0)
}
