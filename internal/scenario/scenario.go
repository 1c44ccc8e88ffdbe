// Package scenario runs scripted user sessions against a form.
//
// A scenario is a YAML document with a name and a list of steps. Each step
// is one user event (change, blur, submit, reset), a pause (wait) or a set
// of expectations about the form state (expect):
//
//	name: happy path
//	steps:
//	  - change: {field: firstName, value: Alice}
//	  - blur: firstName
//	  - wait: 1600ms
//	  - expect: {canSubmit: true}
//	  - submit: {}
//	  - expect: {isSubmitting: true}
//	  - wait: 1100ms
//	  - expect: {isSubmitting: false, notifications: 1}
package scenario

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/regform/internal/errors"
)

// Step kinds.
const (
	KindChange = "change"
	KindBlur   = "blur"
	KindSubmit = "submit"
	KindReset  = "reset"
	KindWait   = "wait"
	KindExpect = "expect"
)

var kinds = []string{KindChange, KindBlur, KindSubmit, KindReset, KindWait, KindExpect}

// Scenario is a parsed scenario file.
type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`

	// Path is the file the scenario was loaded from, if any.
	Path string `yaml:"-"`
}

// Step is one scenario step. Exactly one of the kind fields is set.
type Step struct {
	Change *Change        `yaml:"change,omitempty"`
	Blur   string         `yaml:"blur,omitempty"`
	Wait   time.Duration  `yaml:"wait,omitempty"`
	Expect *Expect        `yaml:"expect,omitempty"`
	Submit map[string]any `yaml:"submit,omitempty"`
	Reset  map[string]any `yaml:"reset,omitempty"`

	// Kind is the step kind, taken from the step's only key.
	Kind string `yaml:"-"`

	// Line and Column locate the step in its file.
	Line   int `yaml:"-"`
	Column int `yaml:"-"`
}

// Change sets a field value.
type Change struct {
	Field string `yaml:"field"`
	Value string `yaml:"value"`
}

// Expect lists assertions about the form state. Unset entries are not
// checked.
type Expect struct {
	CanSubmit     *bool `yaml:"canSubmit,omitempty"`
	IsSubmitting  *bool `yaml:"isSubmitting,omitempty"`
	IsSubmitted   *bool `yaml:"isSubmitted,omitempty"`
	Notifications *int  `yaml:"notifications,omitempty"`

	// Errors maps field names to their exact error lists. An empty list
	// asserts the field is valid.
	Errors map[string][]string `yaml:"errors,omitempty"`

	// Validating is the exact set of fields with an async run in flight.
	Validating *[]string `yaml:"validating,omitempty"`

	// Values maps field names to their expected values.
	Values map[string]string `yaml:"values,omitempty"`

	// Messages maps field names to the text shown under the field.
	Messages map[string]string `yaml:"messages,omitempty"`
}

// UnmarshalYAML records the step's position and checks that it has
// exactly one known kind.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return stepError(node, "a step must be a mapping such as {blur: email}")
	}

	var keys []string
	for i := 0; i+1 < len(node.Content); i += 2 {
		keys = append(keys, node.Content[i].Value)
	}
	if len(keys) != 1 {
		return stepError(node, fmt.Sprintf("a step needs exactly one key, got %d (%s)", len(keys), strings.Join(keys, ", ")))
	}
	if !isKind(keys[0]) {
		return stepError(node, fmt.Sprintf("unknown step %q", keys[0]))
	}

	type plain Step
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = Step(p)
	s.Kind = keys[0]
	s.Line = node.Line
	s.Column = node.Column
	return nil
}

func isKind(key string) bool {
	for _, k := range kinds {
		if k == key {
			return true
		}
	}
	return false
}

// stepErr carries a node position out of yaml decoding.
type stepErr struct {
	line, column int
	msg          string
}

func (e *stepErr) Error() string {
	return fmt.Sprintf("line %d: %s", e.line, e.msg)
}

func stepError(node *yaml.Node, msg string) error {
	return &stepErr{line: node.Line, column: node.Column, msg: msg}
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E300").WithDetail("No scenario at " + path)
		}
		return nil, errors.New("E301").Wrap(err)
	}
	return Parse(data, path)
}

// Parse parses a scenario document. path is used in error locations and
// may be empty.
func Parse(data []byte, path string) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		var se *stepErr
		if stderrors.As(err, &se) {
			e := errors.New("E302").WithDetail(se.msg)
			if path != "" {
				e.WithLocation(path, se.line, se.column)
			}
			return nil, e
		}
		return nil, errors.New("E301").WithDetail(err.Error()).Wrap(err)
	}
	sc.Path = path

	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks step arguments that YAML decoding cannot.
func (sc *Scenario) Validate() error {
	if len(sc.Steps) == 0 {
		return errors.New("E301").WithDetail("scenario has no steps")
	}
	for i := range sc.Steps {
		step := &sc.Steps[i]
		var msg string
		switch step.Kind {
		case KindChange:
			if step.Change == nil || step.Change.Field == "" {
				msg = "change needs a field"
			}
		case KindBlur:
			if step.Blur == "" {
				msg = "blur needs a field name"
			}
		case KindWait:
			if step.Wait <= 0 {
				msg = "wait needs a positive duration such as 500ms"
			}
		case KindExpect:
			if step.Expect == nil {
				msg = "expect needs at least one assertion"
			}
		}
		if msg != "" {
			return sc.errorAt(errors.New("E302").WithDetail(msg), step)
		}
	}
	return nil
}

// errorAt attaches the step's position to e when the scenario has a file.
func (sc *Scenario) errorAt(e *errors.Error, step *Step) *errors.Error {
	if sc.Path != "" && step.Line > 0 {
		e.WithLocation(sc.Path, step.Line, step.Column)
	}
	return e
}

// String describes the step in one line.
func (s Step) String() string {
	switch s.Kind {
	case KindChange:
		return fmt.Sprintf("change %s = %q", s.Change.Field, s.Change.Value)
	case KindBlur:
		return "blur " + s.Blur
	case KindWait:
		return "wait " + s.Wait.String()
	default:
		return s.Kind
	}
}
