package reconcile

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/delegateas/XrmSync-sub000/internal/model"
)

// Writer applies single operations to the remote system. Create methods
// return the ID the remote system assigned.
type Writer interface {
	CreatePluginType(ctx context.Context, t model.PluginType) (uuid.UUID, error)
	CreateStep(ctx context.Context, s model.Step) (uuid.UUID, error)
	CreateImage(ctx context.Context, i model.Image) (uuid.UUID, error)
	CreateCustomAPI(ctx context.Context, a model.CustomAPI) (uuid.UUID, error)
	CreateRequestParameter(ctx context.Context, p model.RequestParameter) (uuid.UUID, error)
	CreateResponseProperty(ctx context.Context, p model.ResponseProperty) (uuid.UUID, error)

	UpdateStep(ctx context.Context, s model.Step) error
	UpdateImage(ctx context.Context, i model.Image) error
	UpdateCustomAPI(ctx context.Context, a model.CustomAPI) error
	UpdateRequestParameter(ctx context.Context, p model.RequestParameter) error
	UpdateResponseProperty(ctx context.Context, p model.ResponseProperty) error

	Delete(ctx context.Context, kind model.Kind, id uuid.UUID) error
}

// ApplyError reports the operation that failed and how many operations
// completed before it.
type ApplyError struct {
	Op      Operation
	Applied int
	Err     error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("%s %s %q (after %d applied): %v", e.Op.Action, e.Op.Kind, e.Op.Name, e.Applied, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

// Executor drives a Writer through a Plan.
type Executor struct {
	writer Writer
	logger *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger operations are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = l
	}
}

// NewExecutor returns an Executor writing through w.
func NewExecutor(w Writer, opts ...Option) *Executor {
	e := &Executor{
		writer: w,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply runs every operation of plan in order and returns the number applied.
// It stops at the first failure, returning an *ApplyError.
func (e *Executor) Apply(ctx context.Context, plan Plan) (int, error) {
	creates, updates, deletes := plan.Totals()
	e.logger.Info("applying plan",
		"creates", creates,
		"updates", updates,
		"deletes", deletes,
	)

	ids := newCreatedIDs()
	for i, op := range plan.Operations {
		if err := ctx.Err(); err != nil {
			return i, &ApplyError{Op: op, Applied: i, Err: err}
		}

		id, err := e.apply(ctx, ids, op)
		if err != nil {
			e.logger.Error("operation failed",
				"action", op.Action,
				"kind", op.Kind,
				"name", op.Name,
				"error", err,
			)
			return i, &ApplyError{Op: op, Applied: i, Err: err}
		}

		if op.Action == ActionCreate {
			ids.record(op.Kind, op.Parent, op.Name, id)
		} else {
			id = op.ID
		}
		e.logger.Info("operation applied",
			"action", op.Action,
			"kind", op.Kind,
			"name", op.Name,
			"id", id,
		)
	}

	e.logger.Info("plan applied", "operations", len(plan.Operations))
	return len(plan.Operations), nil
}

func (e *Executor) apply(ctx context.Context, ids *createdIDs, op Operation) (uuid.UUID, error) {
	switch op.Action {
	case ActionDelete:
		return uuid.Nil, e.writer.Delete(ctx, op.Kind, op.ID)
	case ActionCreate:
		return e.create(ctx, ids, op)
	case ActionUpdate:
		return uuid.Nil, e.update(ctx, op)
	default:
		return uuid.Nil, fmt.Errorf("unknown action %q", op.Action)
	}
}

func (e *Executor) create(ctx context.Context, ids *createdIDs, op Operation) (uuid.UUID, error) {
	var err error
	switch v := op.entity.(type) {
	case model.PluginType:
		return e.writer.CreatePluginType(ctx, v)
	case model.Step:
		if v.PluginTypeID, err = ids.parent(v.PluginTypeID, model.KindPluginType, "", v.PluginTypeName); err != nil {
			return uuid.Nil, err
		}
		return e.writer.CreateStep(ctx, v)
	case model.Image:
		if v.StepID, err = ids.parent(v.StepID, model.KindStep, v.PluginTypeName, v.StepName); err != nil {
			return uuid.Nil, err
		}
		return e.writer.CreateImage(ctx, v)
	case model.CustomAPI:
		return e.writer.CreateCustomAPI(ctx, v)
	case model.RequestParameter:
		if v.CustomAPIID, err = ids.parent(v.CustomAPIID, model.KindCustomAPI, "", v.CustomAPIName); err != nil {
			return uuid.Nil, err
		}
		return e.writer.CreateRequestParameter(ctx, v)
	case model.ResponseProperty:
		if v.CustomAPIID, err = ids.parent(v.CustomAPIID, model.KindCustomAPI, "", v.CustomAPIName); err != nil {
			return uuid.Nil, err
		}
		return e.writer.CreateResponseProperty(ctx, v)
	default:
		return uuid.Nil, fmt.Errorf("cannot create %T", op.entity)
	}
}

func (e *Executor) update(ctx context.Context, op Operation) error {
	switch v := op.entity.(type) {
	case model.Step:
		return e.writer.UpdateStep(ctx, v)
	case model.Image:
		return e.writer.UpdateImage(ctx, v)
	case model.CustomAPI:
		return e.writer.UpdateCustomAPI(ctx, v)
	case model.RequestParameter:
		return e.writer.UpdateRequestParameter(ctx, v)
	case model.ResponseProperty:
		return e.writer.UpdateResponseProperty(ctx, v)
	default:
		return fmt.Errorf("cannot update %T", op.entity)
	}
}

// createdKey identifies an entity created in this run. Names are unique
// only under their parent, so the parent's key is part of the identity.
type createdKey struct {
	kind   model.Kind
	parent string
	name   string
}

// createdIDs remembers the IDs assigned to entities created earlier in the
// run. A key created twice is ambiguous and cannot be used as a parent.
type createdIDs struct {
	byKey map[createdKey]uuid.UUID
}

func newCreatedIDs() *createdIDs {
	return &createdIDs{byKey: make(map[createdKey]uuid.UUID)}
}

func (c *createdIDs) record(kind model.Kind, parent, name string, id uuid.UUID) {
	key := createdKey{kind: kind, parent: model.Key(parent), name: model.Key(name)}
	if _, dup := c.byKey[key]; dup {
		c.byKey[key] = uuid.Nil
		return
	}
	c.byKey[key] = id
}

// parent returns id when it is already known, otherwise the ID created in
// this run for the entity of kind named name under scope.
func (c *createdIDs) parent(id uuid.UUID, kind model.Kind, scope, name string) (uuid.UUID, error) {
	if id != uuid.Nil {
		return id, nil
	}
	what := fmt.Sprintf("%s %q", kind, name)
	if scope != "" {
		what += fmt.Sprintf(" in %q", scope)
	}

	created, ok := c.byKey[createdKey{kind: kind, parent: model.Key(scope), name: model.Key(name)}]
	if !ok {
		return uuid.Nil, fmt.Errorf("parent %s was not created", what)
	}
	if created == uuid.Nil {
		return uuid.Nil, fmt.Errorf("parent %s is ambiguous", what)
	}
	return created, nil
}
