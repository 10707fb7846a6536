package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/trellis/internal/harness"
	"github.com/roach88/trellis/internal/tracelog"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
}

// ReplayReport holds the determinism verification outcome.
type ReplayReport struct {
	Scenario      string `json:"scenario"`
	RunA          string `json:"run_a"`
	RunB          string `json:"run_b"`
	Passes        int    `json:"passes"`
	Events        int    `json:"events"`
	Changes       int    `json:"changes"`
	Rebuilds      int    `json:"rebuilds"`
	ScenarioPass  bool   `json:"scenario_pass"`
	Deterministic bool   `json:"deterministic"`
	Divergence    string `json:"divergence,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <scenario>",
		Short: "Run a scenario twice and verify the traces match",
		Long: `Run a scenario twice against fresh contexts and verify determinism.

Both runs are recorded to the trace database, then compared row by
row: event dispatches, store changes, observer rebuilds and pass
counts must be identical. Deterministic store keys make the traces
byte-comparable across runs.

Exit codes:
  0 - Traces identical (scenario is deterministic)
  1 - Traces diverged
  2 - Command error (unreadable scenario, database failure)

Examples:
  trellis replay scenarios/counter-basic.yaml --db traces.db
  trellis replay scenarios/gauge-ratio.cue --db traces.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runReplay(opts *ReplayOptions, path string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	log, err := tracelog.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open trace database", err)
	}
	defer func() {
		if closeErr := log.Close(); closeErr != nil {
			slog.Error("error closing trace database", "error", closeErr)
		}
	}()

	runA, resultA, err := recordRun(ctx, log, scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "first run failed", err)
	}
	runB, _, err := recordRun(ctx, log, scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "second run failed", err)
	}

	divergence, err := tracelog.Compare(ctx, log, runA, runB)
	if err != nil {
		return WrapExitError(ExitCommandError, "trace comparison failed", err)
	}

	summary, err := log.Summarize(ctx, runA)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to summarize run", err)
	}

	report := ReplayReport{
		Scenario:      scenario.Name,
		RunA:          runA,
		RunB:          runB,
		Passes:        summary.Run.Passes,
		Events:        summary.Events,
		Changes:       summary.Changes,
		Rebuilds:      summary.Rebuilds,
		ScenarioPass:  resultA.Pass,
		Deterministic: divergence == nil,
	}
	if divergence != nil {
		report.Divergence = divergence.String()
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, report)
	}
	return outputReplayText(cmd, report, opts.Verbose)
}

// recordRun executes the scenario once with a fresh recorder and
// returns the run id. The run's outcome lands in the runs table either
// way; a trace-write failure is an error because a partial trace
// cannot support a determinism verdict.
func recordRun(ctx context.Context, log *tracelog.Log, scenario *harness.Scenario) (string, *harness.Result, error) {
	rec := tracelog.NewRecorder(log)
	runID, err := rec.BeginRun(ctx, scenario.Name, scenario.App)
	if err != nil {
		return "", nil, err
	}

	result, err := harness.Run(scenario, harness.WithSink(rec))
	if err != nil {
		_ = rec.FinishRun(ctx, "error")
		return "", nil, err
	}

	outcome := "pass"
	if !result.Pass {
		outcome = "fail"
	}
	if err := rec.FinishRun(ctx, outcome); err != nil {
		return "", nil, fmt.Errorf("trace incomplete: %w", err)
	}

	return runID, result, nil
}

// outputReplayJSON outputs the replay report as JSON.
func outputReplayJSON(cmd *cobra.Command, report ReplayReport) error {
	response := CLIResponse{
		Status: "ok",
		Data:   report,
	}

	if !report.Deterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeDeterminism,
			Message: "replay traces diverged",
			Details: report.Divergence,
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !report.Deterministic {
		return NewExitError(ExitFailure, "replay traces diverged")
	}
	return nil
}

// outputReplayText outputs the replay report as text.
func outputReplayText(cmd *cobra.Command, report ReplayReport, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay: %s\n", report.Scenario)
	if verbose {
		fmt.Fprintf(w, "  run A: %s\n", report.RunA)
		fmt.Fprintf(w, "  run B: %s\n", report.RunB)
	}
	fmt.Fprintf(w, "  trace: %d events, %d changes, %d rebuilds over %d passes\n",
		report.Events, report.Changes, report.Rebuilds, report.Passes)
	if !report.ScenarioPass {
		fmt.Fprintln(w, "  note: scenario assertions failed")
	}
	fmt.Fprintln(w)

	if report.Deterministic {
		fmt.Fprintln(w, "✓ Traces identical, scenario is deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Traces diverged")
	fmt.Fprintf(w, "  %s\n", report.Divergence)
	return NewExitError(ExitFailure, "replay traces diverged")
}
