package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Violation codes (E200-E299)
const (
	// Identity (E200-E201)
	ErrMissingName   = "E200" // identity key is empty
	ErrDuplicateName = "E201" // identity key repeated within the parent scope

	// Step (E202-E209)
	ErrPreStageAsync           = "E202" // pre-execution stage registered asynchronously
	ErrAssociateFilter         = "E203" // Associate/Disassociate with filtered attributes
	ErrAssociateEntity         = "E204" // Associate/Disassociate bound to a single entity
	ErrDuplicateRegistration   = "E205" // same message, stage and entity twice under one type
	ErrUserContextMissing      = "E206" // impersonated user does not exist remotely
	ErrAsyncAutoDeleteNotAsync = "E207" // async auto delete on a synchronous step

	// Image (E210-E219)
	ErrImageNotSupported = "E210" // message does not support images
	ErrCreatePreImage    = "E211" // Create step with a pre-image
	ErrDeletePostImage   = "E212" // Delete step with a post-image
	ErrPreStagePostImage = "E213" // pre-execution step with a post-image

	// Custom API (E220-E229)
	ErrBoundEntityMissing    = "E220" // bound API without bound entity
	ErrBoundEntityUnexpected = "E221" // unbound API with bound entity
	ErrMissingPrefix         = "E222" // unique name lacks the publisher prefix
	ErrFunctionWorkflow      = "E223" // function enabled for workflow

	// Parameters (E230-E239)
	ErrParameterEntity        = "E230" // logical entity name on a non-entity type
	ErrParameterMissingPrefix = "E231" // unique name lacks the publisher prefix
)

// Violation is one rule failure against one entity.
type Violation struct {
	Code    string `json:"code"`
	Entity  string `json:"entity"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (v Violation) Error() string {
	if v.Entity == "" {
		return fmt.Sprintf("[%s] %s", v.Code, v.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", v.Code, v.Entity, v.Message)
}

// AggregateError carries every violation found in one validation run.
type AggregateError struct {
	merr *multierror.Error
}

// Error lists every violation, one per line.
func (e *AggregateError) Error() string {
	return e.merr.Error()
}

// Unwrap exposes the individual violations to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	return e.merr.WrappedErrors()
}

// Len returns the number of violations.
func (e *AggregateError) Len() int {
	return e.merr.Len()
}

// Violations returns the aggregated violations in walk order.
func (e *AggregateError) Violations() []Violation {
	out := make([]Violation, 0, e.merr.Len())
	for _, err := range e.merr.WrappedErrors() {
		var v Violation
		if errors.As(err, &v) {
			out = append(out, v)
		}
	}
	return out
}

// Aggregate turns collected violations into the error a caller sees:
// nil for none, the violation itself for one, an AggregateError otherwise.
func Aggregate(violations []Violation) error {
	switch len(violations) {
	case 0:
		return nil
	case 1:
		return violations[0]
	}

	var merr *multierror.Error
	for _, v := range violations {
		merr = multierror.Append(merr, v)
	}
	merr.ErrorFormat = formatViolations
	return &AggregateError{merr: merr}
}

// Violations extracts every violation carried by err, whether it is a single
// Violation or an AggregateError. Other errors yield nil.
func Violations(err error) []Violation {
	var agg *AggregateError
	if errors.As(err, &agg) {
		return agg.Violations()
	}
	var v Violation
	if errors.As(err, &v) {
		return []Violation{v}
	}
	return nil
}

func formatViolations(errs []error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation violations:", len(errs))
	for _, err := range errs {
		fmt.Fprintf(&b, "\n  * %s", err)
	}
	return b.String()
}
