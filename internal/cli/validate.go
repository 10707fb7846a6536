package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/trellis/internal/harness"
)

// FileValidation holds the validation outcome for one scenario file.
type FileValidation struct {
	Path       string                    `json:"path"`
	Valid      bool                      `json:"valid"`
	ParseError string                    `json:"parse_error,omitempty"`
	Errors     []harness.ValidationError `json:"errors,omitempty"`
}

// ValidateReport holds validation results across all files.
type ValidateReport struct {
	Files   []FileValidation `json:"files"`
	Valid   bool             `json:"valid"`
	Invalid int              `json:"invalid"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario>...",
		Short: "Validate scenario files without running them",
		Long: `Validate scenario files without executing them.

Checks YAML/CUE syntax, required fields, app registry membership,
event names against the app's event set, and assertion shapes. Every
problem in every file is reported, not just the first.

Exit codes:
  0 - All files valid
  1 - One or more files invalid (including unparseable files)

Examples:
  trellis validate scenarios/counter-basic.yaml
  trellis validate scenarios/*.yaml scenarios/*.cue --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	report := ValidateReport{
		Files: make([]FileValidation, 0, len(paths)),
		Valid: true,
	}

	for _, path := range paths {
		fv := validateOneFile(path)
		report.Files = append(report.Files, fv)
		if !fv.Valid {
			report.Valid = false
			report.Invalid++
		}
	}

	if opts.Format == "json" {
		return outputValidateJSON(cmd, report)
	}
	return outputValidateText(cmd, report)
}

func validateOneFile(path string) FileValidation {
	fv := FileValidation{Path: path}

	scenario, err := harness.ParseScenario(path)
	if err != nil {
		fv.ParseError = err.Error()
		return fv
	}

	fv.Errors = scenario.Validate()
	fv.Valid = len(fv.Errors) == 0
	return fv
}

// outputValidateJSON outputs the validation report as JSON.
func outputValidateJSON(cmd *cobra.Command, report ValidateReport) error {
	response := CLIResponse{
		Status: "ok",
		Data:   report,
	}

	if !report.Valid {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeValidation,
			Message: fmt.Sprintf("%d file(s) invalid", report.Invalid),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !report.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d file(s) invalid", report.Invalid))
	}
	return nil
}

// outputValidateText outputs the validation report as text.
func outputValidateText(cmd *cobra.Command, report ValidateReport) error {
	w := cmd.OutOrStdout()

	for _, fv := range report.Files {
		name := filepath.Base(fv.Path)
		if fv.Valid {
			fmt.Fprintf(w, "✓ %s\n", name)
			continue
		}

		fmt.Fprintf(w, "✗ %s\n", name)
		if fv.ParseError != "" {
			fmt.Fprintf(w, "  parse: %s\n", fv.ParseError)
		}
		for _, e := range fv.Errors {
			fmt.Fprintf(w, "  %s\n", e.Error())
		}
	}

	fmt.Fprintln(w)
	if !report.Valid {
		fmt.Fprintf(w, "✗ Validation failed: %d of %d file(s) invalid\n", report.Invalid, len(report.Files))
		return NewExitError(ExitFailure, fmt.Sprintf("%d file(s) invalid", report.Invalid))
	}

	fmt.Fprintln(w, "✓ All scenario files valid")
	return nil
}
