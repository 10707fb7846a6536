package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const missingApp = `name: no-app
description: Lacks the app field.
steps:
  - emit: increment
`

const unknownEvent = `name: bad-event
description: Emits an event the counter app does not offer.
app: counter
steps:
  - emit: explode
`

func TestValidateCommandValidFile(t *testing.T) {
	path := writeScenario(t, "counter-smoke.yaml", counterSmoke)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ counter-smoke.yaml")
	assert.Contains(t, buf.String(), "✓ All scenario files valid")
}

func TestValidateCommandMissingApp(t *testing.T) {
	path := writeScenario(t, "no-app.yaml", missingApp)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "✗ no-app.yaml")
	assert.Contains(t, buf.String(), "[S102]")
}

func TestValidateCommandUnknownEvent(t *testing.T) {
	path := writeScenario(t, "bad-event.yaml", unknownEvent)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, buf.String(), "[S111]")
	assert.Contains(t, buf.String(), "explode")
}

func TestValidateCommandParseError(t *testing.T) {
	path := writeScenario(t, "broken.yaml", "name: [unclosed\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "parse:")
}

func TestValidateCommandMixedFiles(t *testing.T) {
	good := writeScenario(t, "counter-smoke.yaml", counterSmoke)
	bad := writeScenario(t, "no-app.yaml", missingApp)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{good, bad})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, buf.String(), "✓ counter-smoke.yaml")
	assert.Contains(t, buf.String(), "✗ no-app.yaml")
	assert.Contains(t, buf.String(), "1 of 2 file(s) invalid")
}

func TestValidateCommandJSON(t *testing.T) {
	path := writeScenario(t, "no-app.yaml", missingApp)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   ValidateReport `json:"data"`
		Error  *CLIError      `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Invalid)
	require.Len(t, resp.Data.Files, 1)
	assert.False(t, resp.Data.Files[0].Valid)
	require.NotEmpty(t, resp.Data.Files[0].Errors)
	assert.Equal(t, "S102", resp.Data.Files[0].Errors[0].Code)
}

func TestValidateCommandCUEFile(t *testing.T) {
	path := writeScenario(t, "gauge.cue", `name:        "gauge-check"
description: "Set the level and check the ratio."
app:         "gauge"
steps: [{emit: "set_level", value: 25}]
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ gauge.cue")
}
