package harness

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/delegateas/XrmSync-sub000/internal/reconcile"
)

// Snapshot renders the parts of a result golden files pin down: the
// violations of a rejected declaration, or the plan followed by the number
// of operations applied.
func Snapshot(result *Result) ([]byte, error) {
	var buf bytes.Buffer

	if result.Rejected() {
		fmt.Fprintf(&buf, "Rejected: %d violation(s).\n", len(result.Violations))
		for _, v := range result.Violations {
			fmt.Fprintln(&buf, v.Error())
		}
		return buf.Bytes(), nil
	}

	if err := reconcile.Render(&buf, result.Plan); err != nil {
		return nil, err
	}
	if result.Applied > 0 {
		fmt.Fprintf(&buf, "Applied: %d operation(s).\n", result.Applied)
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can check Pass; test failure (via goldie)
// occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, snapshot)
	return nil
}
