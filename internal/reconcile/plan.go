package reconcile

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/delegateas/XrmSync-sub000/internal/difference"
	"github.com/delegateas/XrmSync-sub000/internal/model"
)

// Action is what an operation does to its entity.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Operation is one write against the remote system.
type Operation struct {
	Action     Action     `json:"action"`
	Kind       model.Kind `json:"kind"`
	Name       string     `json:"name"`
	Parent     string     `json:"parent,omitempty"`
	ID         uuid.UUID  `json:"id,omitzero"`
	Properties []string   `json:"properties,omitempty"`
	Recreate   bool       `json:"recreate,omitempty"`

	// entity is the model value handed to the Writer.
	entity any
}

// Entity returns the model value the operation writes.
func (o Operation) Entity() any {
	return o.entity
}

// Plan is the ordered list of operations for one reconciliation.
type Plan struct {
	Operations []Operation `json:"operations"`
}

// MarshalJSON encodes the operations together with their per-kind summary.
func (p Plan) MarshalJSON() ([]byte, error) {
	ops := p.Operations
	if ops == nil {
		ops = []Operation{}
	}
	return json.Marshal(jsonPlan{Operations: ops, Summary: p.Summary()})
}

// Empty reports whether the plan has nothing to do.
func (p Plan) Empty() bool {
	return len(p.Operations) == 0
}

// Summary returns per-kind operation counts in hierarchy order.
func (p Plan) Summary() []difference.Counts {
	kinds := []model.Kind{
		model.KindPluginType,
		model.KindStep,
		model.KindImage,
		model.KindCustomAPI,
		model.KindRequestParameter,
		model.KindResponseProperty,
	}
	out := make([]difference.Counts, len(kinds))
	index := make(map[model.Kind]int, len(kinds))
	for i, k := range kinds {
		out[i].Kind = k
		index[k] = i
	}
	for _, op := range p.Operations {
		c := &out[index[op.Kind]]
		switch op.Action {
		case ActionCreate:
			c.Creates++
		case ActionUpdate:
			c.Updates++
		case ActionDelete:
			c.Deletes++
		}
	}
	return out
}

// Totals returns the number of creates, updates and deletes.
func (p Plan) Totals() (creates, updates, deletes int) {
	for _, c := range p.Summary() {
		creates += c.Creates
		updates += c.Updates
		deletes += c.Deletes
	}
	return creates, updates, deletes
}

// kind describes how to name and identify one entity kind in a plan.
type kind[T any] struct {
	kind   model.Kind
	name   func(T) string
	parent func(T) string
	id     func(T) uuid.UUID
}

var (
	pluginTypeKind = kind[model.PluginType]{
		kind:   model.KindPluginType,
		name:   func(t model.PluginType) string { return t.Name },
		parent: func(model.PluginType) string { return "" },
		id:     func(t model.PluginType) uuid.UUID { return t.ID },
	}
	stepKind = kind[model.Step]{
		kind:   model.KindStep,
		name:   func(s model.Step) string { return s.Name },
		parent: func(s model.Step) string { return s.PluginTypeName },
		id:     func(s model.Step) uuid.UUID { return s.ID },
	}
	imageKind = kind[model.Image]{
		kind:   model.KindImage,
		name:   func(i model.Image) string { return i.Name },
		parent: func(i model.Image) string { return i.StepName },
		id:     func(i model.Image) uuid.UUID { return i.ID },
	}
	customAPIKind = kind[model.CustomAPI]{
		kind:   model.KindCustomAPI,
		name:   func(a model.CustomAPI) string { return a.UniqueName },
		parent: func(model.CustomAPI) string { return "" },
		id:     func(a model.CustomAPI) uuid.UUID { return a.ID },
	}
	requestParameterKind = kind[model.RequestParameter]{
		kind:   model.KindRequestParameter,
		name:   func(p model.RequestParameter) string { return p.UniqueName },
		parent: func(p model.RequestParameter) string { return p.CustomAPIName },
		id:     func(p model.RequestParameter) uuid.UUID { return p.ID },
	}
	responsePropertyKind = kind[model.ResponseProperty]{
		kind:   model.KindResponseProperty,
		name:   func(p model.ResponseProperty) string { return p.UniqueName },
		parent: func(p model.ResponseProperty) string { return p.CustomAPIName },
		id:     func(p model.ResponseProperty) uuid.UUID { return p.ID },
	}
)

func (k kind[T]) deletes(ops []Operation, items []T) []Operation {
	for _, e := range items {
		ops = append(ops, Operation{
			Action: ActionDelete,
			Kind:   k.kind,
			Name:   k.name(e),
			Parent: k.parent(e),
			ID:     k.id(e),
			entity: e,
		})
	}
	return ops
}

func (k kind[T]) creates(ops []Operation, changes []difference.Change[T]) []Operation {
	for _, c := range changes {
		ops = append(ops, Operation{
			Action:     ActionCreate,
			Kind:       k.kind,
			Name:       k.name(c.Local),
			Parent:     k.parent(c.Local),
			Properties: c.ChangedProperties(),
			Recreate:   c.Recreate(),
			entity:     c.Local,
		})
	}
	return ops
}

func (k kind[T]) updates(ops []Operation, changes []difference.Change[T]) []Operation {
	for _, c := range changes {
		ops = append(ops, Operation{
			Action:     ActionUpdate,
			Kind:       k.kind,
			Name:       k.name(c.Local),
			Parent:     k.parent(c.Local),
			ID:         k.id(c.Local),
			Properties: c.ChangedProperties(),
			entity:     c.Local,
		})
	}
	return ops
}

// NewPlan orders the operations in d for execution.
func NewPlan(d difference.Differences) Plan {
	var ops []Operation

	ops = imageKind.deletes(ops, d.Images.Deletes)
	ops = stepKind.deletes(ops, d.Steps.Deletes)
	ops = pluginTypeKind.deletes(ops, d.PluginTypes.Deletes)
	ops = responsePropertyKind.deletes(ops, d.ResponseProperties.Deletes)
	ops = requestParameterKind.deletes(ops, d.RequestParameters.Deletes)
	ops = customAPIKind.deletes(ops, d.CustomAPIs.Deletes)

	ops = pluginTypeKind.creates(ops, d.PluginTypes.Creates)
	ops = stepKind.creates(ops, d.Steps.Creates)
	ops = imageKind.creates(ops, d.Images.Creates)
	ops = customAPIKind.creates(ops, d.CustomAPIs.Creates)
	ops = requestParameterKind.creates(ops, d.RequestParameters.Creates)
	ops = responsePropertyKind.creates(ops, d.ResponseProperties.Creates)

	// Plugin types have no comparable properties and are never updated.
	ops = stepKind.updates(ops, d.Steps.Updates)
	ops = imageKind.updates(ops, d.Images.Updates)
	ops = customAPIKind.updates(ops, d.CustomAPIs.Updates)
	ops = requestParameterKind.updates(ops, d.RequestParameters.Updates)
	ops = responsePropertyKind.updates(ops, d.ResponseProperties.Updates)

	return Plan{Operations: ops}
}
