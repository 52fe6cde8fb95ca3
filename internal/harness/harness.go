package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/delegateas/XrmSync-sub000/internal/declare"
	"github.com/delegateas/XrmSync-sub000/internal/difference"
	"github.com/delegateas/XrmSync-sub000/internal/model"
	"github.com/delegateas/XrmSync-sub000/internal/reconcile"
	"github.com/delegateas/XrmSync-sub000/internal/store"
	"github.com/delegateas/XrmSync-sub000/internal/testutil"
	"github.com/delegateas/XrmSync-sub000/internal/validation"
)

// Harness is the scenario execution engine.
type Harness struct {
	store  *store.Store
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Create a fresh in-memory store with sequential IDs
//  2. Seed the remote fixture
//  3. Load the declaration and validate it against the seeded users
//  4. Diff against the remote snapshot and build the plan
//  5. Apply the plan and diff again when the scenario asks for it
//  6. Evaluate assertions
//
// Errors are returned for broken scenarios (unreadable declaration,
// unseedable fixture); a declaration rejected by validation is a result.
func Run(scenario *Scenario) (*Result, error) {
	ids := testutil.NewSequentialIDs()
	st, err := store.Open(":memory:", store.WithIDGenerator(ids.Next))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	ctx := context.Background()
	if err := st.Seed(ctx, scenario.Remote); err != nil {
		return nil, fmt.Errorf("failed to seed remote state: %w", err)
	}

	decl, err := loadDeclaration(scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	if err := h.execute(ctx, decl, scenario.Apply, result); err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func loadDeclaration(scenario *Scenario) (model.Declaration, error) {
	var (
		decl model.Declaration
		err  error
	)
	if scenario.Source != "" {
		decl, err = declare.Load(scenario.Source)
	} else {
		decl, err = declare.CompileString(scenario.Declaration)
	}
	if err != nil {
		return model.Declaration{}, fmt.Errorf("failed to load declaration: %w", err)
	}

	if scenario.Solution != "" {
		decl.Solution = scenario.Solution
	}
	if decl.Solution == "" {
		return model.Declaration{}, fmt.Errorf("scenario %q declares no solution", scenario.Name)
	}
	return decl, nil
}

func (h *Harness) execute(ctx context.Context, decl model.Declaration, apply bool, result *Result) error {
	missing, err := h.store.MissingUserContexts(ctx, decl.UserContexts())
	if err != nil {
		return err
	}

	err = validation.Validate(decl, validation.Options{Prefix: decl.Prefix, MissingUserContexts: missing})
	if err != nil {
		result.Violations = validation.Violations(err)
		if len(result.Violations) == 0 {
			return err
		}
		h.logger.Info("declaration rejected", "violations", len(result.Violations))
		return h.finish(ctx, decl.Solution, result)
	}

	result.Plan, err = h.plan(ctx, decl)
	if err != nil {
		return err
	}
	if !apply {
		return h.finish(ctx, decl.Solution, result)
	}

	exec := reconcile.NewExecutor(h.store.Writer(decl.Solution), reconcile.WithLogger(h.logger))
	result.Applied, err = exec.Apply(ctx, result.Plan)
	if err != nil {
		result.AddError(fmt.Sprintf("apply failed: %v", err))
		return h.finish(ctx, decl.Solution, result)
	}

	again, err := h.plan(ctx, decl)
	if err != nil {
		return err
	}
	for _, op := range again.Operations {
		result.AddError(fmt.Sprintf("not converged after apply: %s", reconcile.FormatOperation(op)))
	}
	return h.finish(ctx, decl.Solution, result)
}

func (h *Harness) plan(ctx context.Context, decl model.Declaration) (reconcile.Plan, error) {
	remote, err := h.store.Snapshot(ctx, decl.Solution)
	if err != nil {
		return reconcile.Plan{}, err
	}
	return reconcile.NewPlan(difference.Calculate(decl, remote)), nil
}

func (h *Harness) finish(ctx context.Context, solution string, result *Result) error {
	final, err := h.store.Snapshot(ctx, solution)
	if err != nil {
		return err
	}
	result.Final = final
	h.logger.Debug("scenario finished", "solution", solution)
	return nil
}
