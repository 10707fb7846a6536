package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/trellis/internal/harness"
	"github.com/roach88/trellis/internal/tracelog"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database  string
	MaxPasses int
}

// ScenarioReport holds the outcome of a single scenario execution.
type ScenarioReport struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Passes int      `json:"passes,omitempty"`
	RunID  string   `json:"run_id,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// RunReport holds the overall run outcome.
type RunReport struct {
	Scenarios []ScenarioReport `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario>...",
		Short: "Run scenarios against the engine",
		Long: `Run scenario files against the reactive binding engine.

Each scenario mounts its app on a fresh context, emits the scripted
events, lets the update cycle settle, and evaluates the assertions.
With --db, every run's trace (event dispatches, store changes,
observer rebuilds) is recorded to a SQLite database for later
inspection and replay comparison.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (trace database failure, etc.)

Examples:
  trellis run scenarios/counter-basic.yaml
  trellis run scenarios/*.yaml --db traces.db
  trellis run scenarios/gauge-ratio.cue --format json --verbose`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record run traces to this SQLite database")
	cmd.Flags().IntVar(&opts.MaxPasses, "max-passes", 0, "pass quota per update cycle (0 = engine default)")

	return cmd
}

func runScenarios(opts *RunOptions, paths []string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	var log *tracelog.Log
	if opts.Database != "" {
		var err error
		log, err = tracelog.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open trace database", err)
		}
		defer func() {
			if closeErr := log.Close(); closeErr != nil {
				slog.Error("error closing trace database", "error", closeErr)
			}
		}()
	}

	report := RunReport{
		Scenarios: make([]ScenarioReport, 0, len(paths)),
		Total:     len(paths),
	}

	for _, path := range paths {
		sr := runOneScenario(path, opts, log, cmd)
		report.Scenarios = append(report.Scenarios, sr)

		if sr.Pass {
			report.Passed++
		} else {
			report.Failed++
		}
	}

	if opts.Format == "json" {
		return outputRunJSON(cmd, report)
	}
	return outputRunText(cmd, report)
}

// runOneScenario loads, executes and optionally records one scenario.
// Problems with the scenario itself fail the report entry rather than
// aborting the whole batch.
func runOneScenario(path string, opts *RunOptions, log *tracelog.Log, cmd *cobra.Command) ScenarioReport {
	w := cmd.OutOrStdout()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		if opts.Format != "json" {
			fmt.Fprintf(w, "✗ %s\n", filepath.Base(path))
			fmt.Fprintf(w, "  Load error: %v\n", err)
		}
		return ScenarioReport{
			Name:   filepath.Base(path),
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}
	}

	var runOpts []harness.Option
	if opts.MaxPasses > 0 {
		runOpts = append(runOpts, harness.WithMaxPasses(opts.MaxPasses))
	}

	var rec *tracelog.Recorder
	if log != nil {
		rec = tracelog.NewRecorder(log)
		if _, err := rec.BeginRun(ctx, scenario.Name, scenario.App); err != nil {
			if opts.Format != "json" {
				fmt.Fprintf(w, "✗ %s\n", scenario.Name)
				fmt.Fprintf(w, "  Trace error: %v\n", err)
			}
			return ScenarioReport{
				Name:   scenario.Name,
				Errors: []string{fmt.Sprintf("failed to begin trace run: %v", err)},
			}
		}
		runOpts = append(runOpts, harness.WithSink(rec))
	}

	result, err := harness.Run(scenario, runOpts...)
	if err != nil {
		if rec != nil {
			_ = rec.FinishRun(ctx, "error")
		}
		if opts.Format != "json" {
			fmt.Fprintf(w, "✗ %s\n", scenario.Name)
			fmt.Fprintf(w, "  Execution error: %v\n", err)
		}
		return ScenarioReport{
			Name:   scenario.Name,
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		}
	}

	sr := ScenarioReport{
		Name:   scenario.Name,
		Pass:   result.Pass,
		Passes: result.Passes,
		Errors: result.Errors,
	}

	if rec != nil {
		sr.RunID = rec.RunID()
		outcome := "pass"
		if !result.Pass {
			outcome = "fail"
		}
		if err := rec.FinishRun(ctx, outcome); err != nil {
			sr.Pass = false
			sr.Errors = append(sr.Errors, fmt.Sprintf("trace recording incomplete: %v", err))
		}
	}

	if opts.Format != "json" {
		if sr.Pass {
			fmt.Fprintf(w, "✓ %s\n", scenario.Name)
		} else {
			fmt.Fprintf(w, "✗ %s\n", scenario.Name)
			for _, e := range sr.Errors {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
		if opts.Verbose {
			fmt.Fprintf(w, "  passes: %d, trace rows: %d\n", result.Passes, len(result.Trace))
			if sr.RunID != "" {
				fmt.Fprintf(w, "  run id: %s\n", sr.RunID)
			}
		}
	}

	return sr
}

// configureLogging routes engine diagnostics to stderr, away from the
// report on stdout. Verbose surfaces the engine's debug logs (dropped
// events and the like).
func configureLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

// outputRunJSON outputs the run report as JSON.
func outputRunJSON(cmd *cobra.Command, report RunReport) error {
	response := CLIResponse{
		Status: "ok",
		Data:   report,
	}

	if report.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeScenarioFail,
			Message: fmt.Sprintf("%d scenario(s) failed", report.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if report.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", report.Failed))
	}
	return nil
}

// outputRunText outputs the run report as text.
func outputRunText(cmd *cobra.Command, report RunReport) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run Summary: %d passed, %d failed, %d total\n", report.Passed, report.Failed, report.Total)

	if report.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", report.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
