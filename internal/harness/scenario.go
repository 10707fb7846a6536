package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario drives one of the built-in apps through a sequence of
// events and checks the tree that falls out.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files and trace
	// recordings are keyed by it.
	Name string `yaml:"name" json:"name"`

	// Description explains what this scenario demonstrates.
	Description string `yaml:"description" json:"description"`

	// App names the built-in app to mount (see Apps).
	App string `yaml:"app" json:"app"`

	// Steps are applied in order: each emits its event (Count times)
	// and settles the update cycle before the next step runs.
	Steps []Step `yaml:"steps,omitempty" json:"steps,omitempty"`

	// Assertions run against the settled tree after the last step.
	Assertions []Assertion `yaml:"assertions,omitempty" json:"assertions,omitempty"`
}

// Step emits one named app event and settles.
type Step struct {
	// Emit names an event constructor of the scenario's app.
	Emit string `yaml:"emit" json:"emit"`

	// Target optionally names a node ref the event is raised at,
	// bubbling up the ancestor chain the way user input would. Empty
	// means broadcast from the root through the whole tree.
	Target string `yaml:"target,omitempty" json:"target,omitempty"`

	// Value is the event's payload, for constructors that take one
	// (e.g. the todo title for "add"). Scalars only.
	Value any `yaml:"value,omitempty" json:"value,omitempty"`

	// Count repeats the emit. Zero means once.
	Count int `yaml:"count,omitempty" json:"count,omitempty"`
}

// Assertion checks one fact about the settled tree.
type Assertion struct {
	// Type selects the check: label, child_count, store_count,
	// observer_count or alive.
	Type string `yaml:"type" json:"type"`

	// Ref names a node published by the app's builder (used by label,
	// child_count and alive).
	Ref string `yaml:"ref,omitempty" json:"ref,omitempty"`

	// Path walks visible-child indexes from Ref before checking, so
	// assertions can reach nodes rebuilt under a binding (list items).
	Path []int `yaml:"path,omitempty" json:"path,omitempty"`

	// Text is the expected label text (label). Compared NFC-normalized.
	Text string `yaml:"text,omitempty" json:"text,omitempty"`

	// Count is the expected count (child_count, store_count,
	// observer_count).
	Count int `yaml:"count,omitempty" json:"count,omitempty"`

	// Alive is the expected liveness (alive). Nil means true.
	Alive *bool `yaml:"alive,omitempty" json:"alive,omitempty"`
}

// Assertion type constants.
const (
	AssertLabel         = "label"
	AssertChildCount    = "child_count"
	AssertStoreCount    = "store_count"
	AssertObserverCount = "observer_count"
	AssertAlive         = "alive"
)

// Validation error codes (S100-S129).
const (
	// Scenario-level errors (S100-S109)
	ErrNameRequired = "S100" // name is required
	ErrDescRequired = "S101" // description is required
	ErrAppRequired  = "S102" // app is required
	ErrAppUnknown   = "S103" // app not in the registry

	// Step errors (S110-S119)
	ErrStepEmitRequired = "S110" // emit is required
	ErrStepEventUnknown = "S111" // event not offered by the app
	ErrStepCountInvalid = "S112" // negative repeat count

	// Assertion errors (S120-S129)
	ErrAssertTypeRequired = "S120" // type is required
	ErrAssertTypeUnknown  = "S121" // unknown assertion type
	ErrAssertRefRequired  = "S122" // ref is required for this type
	ErrAssertCountInvalid = "S123" // negative expected count
	ErrAssertPathInvalid  = "S124" // negative child index in path
)

// ValidationError is a structural problem in a scenario definition.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ParseScenario reads a scenario file without semantic validation.
// The format follows the extension: .yaml/.yml or .cue.
func ParseScenario(path string) (*Scenario, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAML(path)
	case ".cue":
		return parseCUE(path)
	default:
		return nil, fmt.Errorf("unsupported scenario format %q (want .yaml, .yml or .cue)", filepath.Ext(path))
	}
}

// LoadScenario reads, parses and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	scenario, err := ParseScenario(path)
	if err != nil {
		return nil, err
	}

	if errs := scenario.Validate(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("invalid scenario %s: %s", path, strings.Join(msgs, "; "))
	}

	return scenario, nil
}

// parseYAML decodes a YAML scenario with strict field checking, so a
// typo like "assertion:" fails loudly instead of silently dropping the
// section.
func parseYAML(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &scenario, nil
}

// Validate checks the scenario against the app registry and assertion
// rules. Returns all errors found (does not fail-fast).
func (s *Scenario) Validate() []ValidationError {
	var errs []ValidationError

	if s.Name == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "name is required", Code: ErrNameRequired})
	}
	if s.Description == "" {
		errs = append(errs, ValidationError{Field: "description", Message: "description is required", Code: ErrDescRequired})
	}

	var app App
	var haveApp bool
	if s.App == "" {
		errs = append(errs, ValidationError{Field: "app", Message: "app is required", Code: ErrAppRequired})
	} else if app, haveApp = LookupApp(s.App); !haveApp {
		errs = append(errs, ValidationError{
			Field:   "app",
			Message: fmt.Sprintf("unknown app %q (have: %s)", s.App, strings.Join(AppNames(), ", ")),
			Code:    ErrAppUnknown,
		})
	}

	for i, step := range s.Steps {
		field := fmt.Sprintf("steps[%d]", i)
		if step.Emit == "" {
			errs = append(errs, ValidationError{Field: field + ".emit", Message: "emit is required", Code: ErrStepEmitRequired})
		} else if haveApp {
			if _, ok := app.Events[step.Emit]; !ok {
				errs = append(errs, ValidationError{
					Field:   field + ".emit",
					Message: fmt.Sprintf("app %q has no event %q (have: %s)", s.App, step.Emit, strings.Join(app.EventNames(), ", ")),
					Code:    ErrStepEventUnknown,
				})
			}
		}
		if step.Count < 0 {
			errs = append(errs, ValidationError{Field: field + ".count", Message: "count must not be negative", Code: ErrStepCountInvalid})
		}
	}

	for i, a := range s.Assertions {
		errs = append(errs, validateAssertion(i, a)...)
	}

	return errs
}

// validateAssertion checks a single assertion based on its type.
func validateAssertion(index int, a Assertion) []ValidationError {
	field := fmt.Sprintf("assertions[%d]", index)
	var errs []ValidationError

	switch a.Type {
	case "":
		return []ValidationError{{Field: field + ".type", Message: "type is required", Code: ErrAssertTypeRequired}}
	case AssertLabel, AssertChildCount, AssertAlive:
		if a.Ref == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".ref",
				Message: fmt.Sprintf("ref is required for %s", a.Type),
				Code:    ErrAssertRefRequired,
			})
		}
	case AssertStoreCount, AssertObserverCount:
		// Context-wide counts; no ref involved.
	default:
		return []ValidationError{{
			Field:   field + ".type",
			Message: fmt.Sprintf("unknown assertion type %q", a.Type),
			Code:    ErrAssertTypeUnknown,
		}}
	}

	if a.Count < 0 {
		errs = append(errs, ValidationError{Field: field + ".count", Message: "count must not be negative", Code: ErrAssertCountInvalid})
	}
	for _, idx := range a.Path {
		if idx < 0 {
			errs = append(errs, ValidationError{Field: field + ".path", Message: "child indexes must not be negative", Code: ErrAssertPathInvalid})
			break
		}
	}

	return errs
}
