package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sigcheck/internal/rules"
	"github.com/roach88/sigcheck/internal/tracer"
)

// Transcript is the expected standard output, one integer per line.
type Transcript []int

// String joins the values with newlines. An empty transcript is "".
func (t Transcript) String() string {
	parts := make([]string, len(t))
	for i, n := range t {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, "\n")
}

// Scenario is one grading case.
type Scenario struct {
	// ID selects the scenario on the command line.
	ID string

	Description string

	// Arg is passed to the target as its last argument. Empty means ID.
	Arg string

	// ExpectedOutput is nil when output is not checked. A non-nil empty
	// transcript requires the program to print nothing.
	ExpectedOutput *Transcript

	// MaxDuration in whole seconds; nil when elapsed time is not checked.
	MaxDuration *int64

	// Rules are evaluated in order against the trace.
	Rules []rules.Rule
}

// Argument returns the value passed to the target for this scenario.
func (s Scenario) Argument() string {
	if s.Arg != "" {
		return s.Arg
	}
	return s.ID
}

// Suite is a named, ordered collection of scenarios and the command that
// runs them.
type Suite struct {
	Name string

	// Tracer is the command prefix, e.g. strace with its flags.
	Tracer []string

	// Target is the program under test plus any fixed arguments.
	Target []string

	// Dir is the working directory for invocations. Empty means the
	// current directory.
	Dir string

	Scenarios []Scenario
}

// Command returns the full argv for grading sc.
func (s *Suite) Command(sc Scenario) []string {
	return slices.Concat(s.Tracer, s.Target, []string{sc.Argument()})
}

// Lookup finds a scenario by id.
func (s *Suite) Lookup(id string) (Scenario, bool) {
	for _, sc := range s.Scenarios {
		if sc.ID == id {
			return sc, true
		}
	}
	return Scenario{}, false
}

// IDs lists scenario ids in suite order.
func (s *Suite) IDs() []string {
	ids := make([]string, len(s.Scenarios))
	for i, sc := range s.Scenarios {
		ids[i] = sc.ID
	}
	return ids
}

// SuiteFile is the on-disk form of a Suite. The json tags are used when the
// suite is written in CUE.
type SuiteFile struct {
	// Name identifies the suite in reports.
	Name string `yaml:"name" json:"name"`

	// Description is free text.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Tracer is the command prefix. Omitted means tracer.DefaultCommand;
	// an empty list means no tracer.
	Tracer []string `yaml:"tracer,omitempty" json:"tracer,omitempty"`

	// Target is the program under test and its fixed arguments. Required.
	Target []string `yaml:"target" json:"target"`

	// StrictRules rejects malformed rule text at load time instead of
	// dropping it.
	StrictRules bool `yaml:"strict_rules,omitempty" json:"strict_rules,omitempty"`

	// BaseRules apply to every scenario that inherits them.
	BaseRules []string `yaml:"base_rules,omitempty" json:"base_rules,omitempty"`

	// Scenarios in grading order. Required and non-empty.
	Scenarios []ScenarioFile `yaml:"scenarios" json:"scenarios"`
}

// ScenarioFile is the on-disk form of a Scenario.
type ScenarioFile struct {
	ID             string   `yaml:"id" json:"id"`
	Description    string   `yaml:"description,omitempty" json:"description,omitempty"`
	Arg            string   `yaml:"arg,omitempty" json:"arg,omitempty"`
	ExpectedOutput *[]int   `yaml:"expected_output,omitempty" json:"expected_output,omitempty"`
	MaxDuration    *int64   `yaml:"max_duration,omitempty" json:"max_duration,omitempty"`
	Rules          []string `yaml:"rules,omitempty" json:"rules,omitempty"`

	// InheritRules defaults to true.
	InheritRules *bool `yaml:"inherit_rules,omitempty" json:"inherit_rules,omitempty"`
}

// SuiteError reports an invalid suite definition.
type SuiteError struct {
	Path    string
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *SuiteError) Error() string {
	var buf strings.Builder
	if e.Path != "" {
		buf.WriteString(e.Path)
		buf.WriteString(": ")
	}
	if e.Field != "" {
		buf.WriteString(e.Field)
		buf.WriteString(": ")
	}
	buf.WriteString(e.Message)
	if e.Err != nil {
		fmt.Fprintf(&buf, ": %v", e.Err)
	}
	return buf.String()
}

func (e *SuiteError) Unwrap() error {
	return e.Err
}

// LoadOptions adjusts how a suite file is compiled.
type LoadOptions struct {
	// Strict forces strict rule parsing even if the file does not ask
	// for it.
	Strict bool
}

// LoadSuite reads a suite from a .yaml, .yml or .cue file.
func LoadSuite(path string, opts LoadOptions) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}

	var sf *SuiteFile
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		sf, err = DecodeSuiteYAML(data)
	case ".cue":
		sf, err = DecodeSuiteCUE(data, path)
	default:
		return nil, &SuiteError{Path: path, Message: fmt.Sprintf("unsupported suite format %q (want .yaml, .yml or .cue)", ext)}
	}
	if err != nil {
		return nil, &SuiteError{Path: path, Message: "failed to parse suite", Err: err}
	}

	suite, err := sf.Compile(opts)
	if err != nil {
		var se *SuiteError
		if errors.As(err, &se) && se.Path == "" {
			se.Path = path
		}
		return nil, err
	}

	if abs, err := filepath.Abs(path); err == nil {
		suite.Dir = filepath.Dir(abs)
	}
	return suite, nil
}

// DecodeSuiteYAML parses YAML suite text. Unknown fields are rejected so a
// misspelled key fails loudly.
func DecodeSuiteYAML(data []byte) (*SuiteFile, error) {
	var sf SuiteFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sf); err != nil {
		return nil, err
	}
	return &sf, nil
}

// Compile validates the file and builds an immutable Suite from it.
func (sf *SuiteFile) Compile(opts LoadOptions) (*Suite, error) {
	if err := sf.validate(); err != nil {
		return nil, err
	}

	mode := rules.Permissive
	if sf.StrictRules || opts.Strict {
		mode = rules.Strict
	}

	base, err := rules.ParseLines(sf.BaseRules, mode)
	if err != nil {
		return nil, &SuiteError{Field: "base_rules", Message: "invalid rule", Err: err}
	}

	tracerCmd := sf.Tracer
	if tracerCmd == nil {
		tracerCmd = tracer.DefaultCommand
	}

	suite := &Suite{
		Name:      sf.Name,
		Tracer:    slices.Clone(tracerCmd),
		Target:    slices.Clone(sf.Target),
		Scenarios: make([]Scenario, 0, len(sf.Scenarios)),
	}

	for i, f := range sf.Scenarios {
		extra, err := rules.ParseLines(f.Rules, mode)
		if err != nil {
			return nil, &SuiteError{Field: fmt.Sprintf("scenarios[%d].rules", i), Message: "invalid rule", Err: err}
		}

		ruleList := rules.Compose(extra)
		if f.InheritRules == nil || *f.InheritRules {
			ruleList = rules.Compose(base, extra)
		}

		sc := Scenario{
			ID:          f.ID,
			Description: f.Description,
			Arg:         f.Arg,
			MaxDuration: f.MaxDuration,
			Rules:       ruleList,
		}
		if f.ExpectedOutput != nil {
			t := Transcript(slices.Clone(*f.ExpectedOutput))
			sc.ExpectedOutput = &t
		}
		suite.Scenarios = append(suite.Scenarios, sc)
	}

	return suite, nil
}

func (sf *SuiteFile) validate() error {
	if sf.Name == "" {
		return &SuiteError{Field: "name", Message: "is required"}
	}
	if len(sf.Target) == 0 {
		return &SuiteError{Field: "target", Message: "is required and must be non-empty"}
	}
	if len(sf.Scenarios) == 0 {
		return &SuiteError{Field: "scenarios", Message: "list is required and must be non-empty"}
	}

	seen := make(map[string]int, len(sf.Scenarios))
	for i, s := range sf.Scenarios {
		field := fmt.Sprintf("scenarios[%d]", i)
		if s.ID == "" {
			return &SuiteError{Field: field + ".id", Message: "is required"}
		}
		if prev, dup := seen[s.ID]; dup {
			return &SuiteError{Field: field + ".id", Message: fmt.Sprintf("duplicate id %q (first used by scenarios[%d])", s.ID, prev)}
		}
		seen[s.ID] = i
		if s.MaxDuration != nil && *s.MaxDuration < 0 {
			return &SuiteError{Field: field + ".max_duration", Message: "must be non-negative"}
		}
	}
	return nil
}
