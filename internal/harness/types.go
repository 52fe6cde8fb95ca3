package harness

import (
	"github.com/delegateas/XrmSync-sub000/internal/model"
	"github.com/delegateas/XrmSync-sub000/internal/reconcile"
	"github.com/delegateas/XrmSync-sub000/internal/validation"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when the run converged (if applied) and every
	// assertion held.
	Pass bool `json:"pass"`

	// Violations are the validation failures. A rejected declaration has
	// an empty plan.
	Violations []validation.Violation `json:"violations,omitempty"`

	// Plan is the write plan computed against the seeded remote state.
	Plan reconcile.Plan `json:"plan"`

	// Applied counts operations written when the scenario applies its plan.
	Applied int `json:"applied"`

	// Final is the solution's remote snapshot when the run ended.
	Final model.Declaration `json:"final"`

	// Errors holds assertion and convergence failures.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Rejected reports whether validation stopped the run.
func (r *Result) Rejected() bool {
	return len(r.Violations) > 0
}

// Lines returns the plan's operations rendered one per line.
func (r *Result) Lines() []string {
	lines := make([]string, len(r.Plan.Operations))
	for i, op := range r.Plan.Operations {
		lines[i] = reconcile.FormatOperation(op)
	}
	return lines
}
