package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/delegateas/XrmSync-sub000/internal/model"
)

// AssertionError is returned when an assertion fails.
// It includes the full plan to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Plan     []string // Rendered plan for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Plan) > 0 {
		fmt.Fprintf(&buf, "\nPlan:\n")
		for i, line := range e.Plan {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, line)
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertPlanContains:
		return assertPlanContains(result, a)
	case AssertPlanOrder:
		return assertPlanOrder(result, a)
	case AssertPlanCount:
		return assertPlanCount(result, a)
	case AssertViolation:
		return assertViolation(result, a)
	case AssertFinalState:
		return assertFinalState(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertPlanContains(result *Result, a Assertion) error {
	lines := result.Lines()
	if slices.Contains(lines, a.Operation) {
		return nil
	}
	return &AssertionError{
		Type:     AssertPlanContains,
		Expected: a.Operation,
		Actual:   "not found in plan",
		Plan:     lines,
	}
}

// assertPlanOrder checks that operations appear in the given relative order.
// Other operations may appear between them.
func assertPlanOrder(result *Result, a Assertion) error {
	lines := result.Lines()

	var found []string
	next := 0
	for _, line := range lines {
		if next < len(a.Operations) && line == a.Operations[next] {
			found = append(found, line)
			next++
		}
	}
	if next == len(a.Operations) {
		return nil
	}

	return &AssertionError{
		Type:     AssertPlanOrder,
		Expected: fmt.Sprintf("%d operations in order", len(a.Operations)),
		Actual:   "matched subsequence differs (-want +got):\n" + cmp.Diff(a.Operations, found),
		Plan:     lines,
	}
}

func assertPlanCount(result *Result, a Assertion) error {
	count := 0
	for _, op := range result.Plan.Operations {
		if op.Action == a.Action && (a.Kind == "" || op.Kind == a.Kind) {
			count++
		}
	}
	if count == a.Count {
		return nil
	}

	what := string(a.Action)
	if a.Kind != "" {
		what += " " + string(a.Kind)
	}
	return &AssertionError{
		Type:     AssertPlanCount,
		Expected: fmt.Sprintf("%d %s operation(s)", a.Count, what),
		Actual:   fmt.Sprintf("%d", count),
		Plan:     result.Lines(),
	}
}

func assertViolation(result *Result, a Assertion) error {
	for _, v := range result.Violations {
		if v.Code == a.Code && strings.Contains(v.Message, a.Message) {
			return nil
		}
	}

	got := make([]string, len(result.Violations))
	for i, v := range result.Violations {
		got[i] = v.Error()
	}
	expected := a.Code
	if a.Message != "" {
		expected = fmt.Sprintf("%s containing %q", a.Code, a.Message)
	}
	actual := "no violations"
	if len(got) > 0 {
		actual = strings.Join(got, "; ")
	}
	return &AssertionError{
		Type:     AssertViolation,
		Expected: expected,
		Actual:   actual,
	}
}

func assertFinalState(result *Result, a Assertion) error {
	exists := slices.ContainsFunc(entityNames(result.Final, a.Kind), func(name string) bool {
		return model.SameKey(name, a.Name)
	})
	if exists != a.Absent {
		return nil
	}

	expected, actual := "present", "absent"
	if a.Absent {
		expected, actual = actual, expected
	}
	return &AssertionError{
		Type:     AssertFinalState,
		Expected: fmt.Sprintf("%s %q %s", a.Kind, a.Name, expected),
		Actual:   actual,
		Plan:     result.Lines(),
	}
}

// entityNames lists the identity keys of every entity of kind in decl.
func entityNames(decl model.Declaration, kind model.Kind) []string {
	var names []string
	for _, t := range decl.PluginTypes {
		if kind == model.KindPluginType {
			names = append(names, t.Name)
		}
		for _, s := range t.Steps {
			if kind == model.KindStep {
				names = append(names, s.Name)
			}
			for _, img := range s.Images {
				if kind == model.KindImage {
					names = append(names, img.Name)
				}
			}
		}
	}
	for _, api := range decl.CustomAPIs {
		if kind == model.KindCustomAPI {
			names = append(names, api.UniqueName)
		}
		for _, p := range api.RequestParameters {
			if kind == model.KindRequestParameter {
				names = append(names, p.UniqueName)
			}
		}
		for _, p := range api.ResponseProperties {
			if kind == model.KindResponseProperty {
				names = append(names, p.UniqueName)
			}
		}
	}
	return names
}
