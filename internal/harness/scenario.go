package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/delegateas/XrmSync-sub000/internal/model"
	"github.com/delegateas/XrmSync-sub000/internal/reconcile"
	"github.com/delegateas/XrmSync-sub000/internal/store"
)

// Scenario defines one reconciliation test.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Declaration is inline CUE source. Exactly one of Declaration and
	// Source is set.
	Declaration string `yaml:"declaration,omitempty"`

	// Source is a directory of CUE files, relative to the scenario file.
	Source string `yaml:"source,omitempty"`

	// Solution overrides the declared solution.
	Solution string `yaml:"solution,omitempty"`

	// Remote is the state seeded into the store before the run.
	Remote store.Fixture `yaml:"remote"`

	// Apply writes the plan and requires a second diff to be empty.
	Apply bool `yaml:"apply"`

	// Assertions validate the outcome.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates the plan, the violations or the final remote state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Operation is a rendered operation line (plan_contains).
	Operation string `yaml:"operation,omitempty"`

	// Operations are rendered operation lines in expected order (plan_order).
	Operations []string `yaml:"operations,omitempty"`

	// Action and Kind select operations (plan_count); Kind also selects
	// entities (final_state). An empty Kind matches every kind.
	Action reconcile.Action `yaml:"action,omitempty"`
	Kind   model.Kind       `yaml:"kind,omitempty"`

	// Count is the expected number of matching operations (plan_count).
	Count int `yaml:"count,omitempty"`

	// Code and Message select a violation (violation). Message is a
	// case-sensitive fragment.
	Code    string `yaml:"code,omitempty"`
	Message string `yaml:"message,omitempty"`

	// Name is the entity's identity key (final_state).
	Name string `yaml:"name,omitempty"`

	// Absent inverts final_state: the entity must not exist.
	Absent bool `yaml:"absent,omitempty"`
}

// Assertion type constants.
const (
	AssertPlanContains = "plan_contains"
	AssertPlanOrder    = "plan_order"
	AssertPlanCount    = "plan_count"
	AssertViolation    = "violation"
	AssertFinalState   = "final_state"
)

var actions = map[reconcile.Action]bool{
	reconcile.ActionCreate: true,
	reconcile.ActionUpdate: true,
	reconcile.ActionDelete: true,
}

var kinds = map[model.Kind]bool{
	model.KindPluginType:       true,
	model.KindStep:             true,
	model.KindImage:            true,
	model.KindCustomAPI:        true,
	model.KindRequestParameter: true,
	model.KindResponseProperty: true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Source != "" && !filepath.IsAbs(scenario.Source) {
		scenario.Source = filepath.Join(filepath.Dir(path), scenario.Source)
	}
	if scenario.Source != "" {
		if _, err := os.Stat(scenario.Source); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: source directory not found: %s", scenario.Source)
		}
	}

	return scenario, nil
}

// ParseScenario decodes a scenario from YAML with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(s.Name, `/\`) {
		return fmt.Errorf("name %q must not contain path separators", s.Name)
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Declaration == "" && s.Source == "":
		return fmt.Errorf("one of declaration or source is required")
	case s.Declaration != "" && s.Source != "":
		return fmt.Errorf("declaration and source are mutually exclusive")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion) error {
	if a.Kind != "" && !kinds[a.Kind] {
		return fmt.Errorf("assertions[%d]: unknown kind %q", index, a.Kind)
	}

	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertPlanContains:
		if a.Operation == "" {
			return fmt.Errorf("assertions[%d]: operation is required for plan_contains", index)
		}
	case AssertPlanOrder:
		if len(a.Operations) < 2 {
			return fmt.Errorf("assertions[%d]: at least two operations are required for plan_order", index)
		}
	case AssertPlanCount:
		if !actions[a.Action] {
			return fmt.Errorf("assertions[%d]: action must be create, update or delete for plan_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for plan_count", index)
		}
	case AssertViolation:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for violation", index)
		}
	case AssertFinalState:
		if a.Kind == "" || a.Name == "" {
			return fmt.Errorf("assertions[%d]: kind and name are required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
