package harness

import (
	"fmt"

	"github.com/roach88/trellis/internal/binding"
	"github.com/roach88/trellis/internal/engine"
	"github.com/roach88/trellis/internal/id"
	"github.com/roach88/trellis/internal/testutil"
)

// TraceEvent is one row of a run's trace, a flattened union over the
// four engine sink callbacks. Kind states which fields are meaningful.
type TraceEvent struct {
	Kind string `json:"kind"` // "event", "change", "rebuild" or "pass"
	Pass int    `json:"pass"`

	// Kind "event"
	Seq         int64  `json:"seq,omitempty"`
	Origin      string `json:"origin,omitempty"`
	Target      string `json:"target,omitempty"`
	Propagation string `json:"propagation,omitempty"`
	Message     string `json:"message,omitempty"`

	// Kind "change"
	Owner     string `json:"owner,omitempty"`
	Key       string `json:"key,omitempty"`
	Observers int    `json:"observers,omitempty"`

	// Kind "rebuild"
	Node string `json:"node,omitempty"`

	// Kind "pass"
	Events   int `json:"events,omitempty"`
	Changes  int `json:"changes,omitempty"`
	Rebuilds int `json:"rebuilds,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass indicates overall success: every step ran and every
	// assertion held.
	Pass bool `json:"pass"`

	// Passes is the total number of update passes across all steps.
	Passes int `json:"passes"`

	// Trace contains everything the engine reported, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains step and assertion failures. Empty if Pass.
	Errors []string `json:"errors,omitempty"`

	// Dump is the tree as the run left it, in DumpTree form.
	Dump string `json:"dump,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Option adjusts how Run executes a scenario.
type Option func(*runConfig)

type runConfig struct {
	sinks     []engine.TraceSink
	maxPasses int
}

// WithSink mirrors the run's trace into an extra sink, typically a
// tracelog.Recorder.
func WithSink(sink engine.TraceSink) Option {
	return func(cfg *runConfig) {
		if sink != nil {
			cfg.sinks = append(cfg.sinks, sink)
		}
	}
}

// WithMaxPasses overrides the engine's pass quota for the run.
func WithMaxPasses(n int) Option {
	return func(cfg *runConfig) {
		cfg.maxPasses = n
	}
}

// Run executes a scenario against its app and returns the result.
//
// Each run builds a fresh context and installs a sequential store-key
// source named after the scenario, so store keys (and through them
// trace rows) come out identical across runs of the same scenario.
//
// Step and assertion failures land in the result; only a scenario that
// cannot be run at all (unknown app) is an error.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	app, ok := LookupApp(scenario.App)
	if !ok {
		return nil, fmt.Errorf("unknown app %q", scenario.App)
	}

	cfg := &runConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	prev := binding.SetKeySource(testutil.NewSequentialKeySource(scenario.Name))
	defer binding.SetKeySource(prev)

	collector := &traceCollector{}
	sink := engine.TraceSink(collector)
	if len(cfg.sinks) > 0 {
		sink = &teeSink{sinks: append([]engine.TraceSink{collector}, cfg.sinks...)}
	}

	ctxOpts := []engine.Option{engine.WithTraceSink(sink)}
	if cfg.maxPasses > 0 {
		ctxOpts = append(ctxOpts, engine.WithMaxPasses(cfg.maxPasses))
	}

	cx := engine.NewContext(ctxOpts...)
	refs := app.Build(cx)

	result := NewResult()
	defer func() {
		result.Trace = collector.rows
		result.Dump = DumpTree(cx)
	}()

	// Settle the freshly mounted tree before the first step, in case a
	// builder emitted during mount.
	stats, err := cx.RunOnce()
	result.Passes += stats.Passes
	if err != nil {
		result.AddError(fmt.Sprintf("mount settle: %v", err))
		return result, nil
	}

	for i, step := range scenario.Steps {
		build, ok := app.Events[step.Emit]
		if !ok {
			result.AddError(fmt.Sprintf("step %d: app %q has no event %q", i, app.Name, step.Emit))
			return result, nil
		}
		message, err := build(step.Value)
		if err != nil {
			result.AddError(fmt.Sprintf("step %d (%s): %v", i, step.Emit, err))
			return result, nil
		}

		// Untargeted steps broadcast from the root through the whole
		// tree. Targeted steps raise the event at the named node and
		// let it bubble up, the way user input would.
		target := cx.Root()
		propagation := engine.Subtree
		if step.Target != "" {
			node, ok := refs[step.Target]
			if !ok {
				result.AddError(fmt.Sprintf("step %d: app %q has no ref %q", i, app.Name, step.Target))
				return result, nil
			}
			target = node
			propagation = engine.Up
		}

		count := step.Count
		if count <= 0 {
			count = 1
		}
		for n := 0; n < count; n++ {
			cx.EmitEvent(engine.Event{
				Origin:      target,
				Target:      target,
				Propagation: propagation,
				Message:     message,
			})
		}

		stats, err := cx.RunOnce()
		result.Passes += stats.Passes
		if err != nil {
			result.AddError(fmt.Sprintf("step %d (%s): %v", i, step.Emit, err))
			return result, nil
		}
	}

	for _, msg := range EvaluateAssertions(cx, refs, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// traceCollector accumulates engine sink callbacks as flat rows.
type traceCollector struct {
	rows []TraceEvent
}

func (c *traceCollector) EventDispatched(pass int, seq int64, origin, target id.NodeID, propagation engine.Propagation, message string) {
	c.rows = append(c.rows, TraceEvent{
		Kind:        "event",
		Pass:        pass,
		Seq:         seq,
		Origin:      origin.String(),
		Target:      target.String(),
		Propagation: propagation.String(),
		Message:     message,
	})
}

func (c *traceCollector) StoreChanged(pass int, owner id.NodeID, key string, observers int) {
	c.rows = append(c.rows, TraceEvent{
		Kind:      "change",
		Pass:      pass,
		Owner:     owner.String(),
		Key:       key,
		Observers: observers,
	})
}

func (c *traceCollector) ObserverRebuilt(pass int, node id.NodeID) {
	c.rows = append(c.rows, TraceEvent{
		Kind: "rebuild",
		Pass: pass,
		Node: node.String(),
	})
}

func (c *traceCollector) PassEnded(pass int, events, changes, rebuilds int) {
	c.rows = append(c.rows, TraceEvent{
		Kind:     "pass",
		Pass:     pass,
		Events:   events,
		Changes:  changes,
		Rebuilds: rebuilds,
	})
}

// teeSink fans trace callbacks out to several sinks, so one run can
// both collect rows for its result and record to a trace database.
type teeSink struct {
	sinks []engine.TraceSink
}

func (t *teeSink) EventDispatched(pass int, seq int64, origin, target id.NodeID, propagation engine.Propagation, message string) {
	for _, s := range t.sinks {
		s.EventDispatched(pass, seq, origin, target, propagation, message)
	}
}

func (t *teeSink) StoreChanged(pass int, owner id.NodeID, key string, observers int) {
	for _, s := range t.sinks {
		s.StoreChanged(pass, owner, key, observers)
	}
}

func (t *teeSink) ObserverRebuilt(pass int, node id.NodeID) {
	for _, s := range t.sinks {
		s.ObserverRebuilt(pass, node)
	}
}

func (t *teeSink) PassEnded(pass int, events, changes, rebuilds int) {
	for _, s := range t.sinks {
		s.PassEnded(pass, events, changes, rebuilds)
	}
}
