package difference

import (
	"github.com/delegateas/XrmSync-sub000/internal/compare"
	"github.com/delegateas/XrmSync-sub000/internal/model"
)

// Change describes one create or update.
//
// For an update, Local carries the remote IDs so it can be written in place,
// Remote is the current remote state and Changes lists the soft properties
// that differ. For a create, Local is the entity to create; when the create
// is half of a recreate, Remote is the entity being deleted and Changes lists
// every differing property (at least one of them hard).
type Change[T any] struct {
	Local   T                  `json:"local"`
	Remote  T                  `json:"remote"`
	Changes compare.Changes[T] `json:"-"`
}

// Recreate reports whether this create replaces a deleted remote entity.
func (c Change[T]) Recreate() bool {
	return len(c.Changes) > 0
}

// ChangedProperties returns the names of the differing properties.
func (c Change[T]) ChangedProperties() []string {
	return c.Changes.Names()
}

// Set holds the operations for one entity kind.
// Entities in a Set never carry their children; children have their own Set.
type Set[T any] struct {
	Creates []Change[T] `json:"creates"`
	Updates []Change[T] `json:"updates"`
	Deletes []T         `json:"deletes"`
}

// Empty reports whether the set holds no operations.
func (s Set[T]) Empty() bool {
	return len(s.Creates) == 0 && len(s.Updates) == 0 && len(s.Deletes) == 0
}

// Len returns the number of operations in the set.
func (s Set[T]) Len() int {
	return len(s.Creates) + len(s.Updates) + len(s.Deletes)
}

// Differences is the result of Calculate: one Set per entity kind.
type Differences struct {
	PluginTypes        Set[model.PluginType]       `json:"plugin_types"`
	Steps              Set[model.Step]             `json:"steps"`
	Images             Set[model.Image]            `json:"images"`
	CustomAPIs         Set[model.CustomAPI]        `json:"custom_apis"`
	RequestParameters  Set[model.RequestParameter] `json:"request_parameters"`
	ResponseProperties Set[model.ResponseProperty] `json:"response_properties"`
}

// Empty reports whether nothing needs to change.
func (d Differences) Empty() bool {
	return d.Len() == 0
}

// Len returns the total number of operations.
func (d Differences) Len() int {
	return d.PluginTypes.Len() + d.Steps.Len() + d.Images.Len() +
		d.CustomAPIs.Len() + d.RequestParameters.Len() + d.ResponseProperties.Len()
}

// Counts summarizes the operations of one kind.
type Counts struct {
	Kind    model.Kind `json:"kind"`
	Creates int        `json:"creates"`
	Updates int        `json:"updates"`
	Deletes int        `json:"deletes"`
}

// Summary returns per-kind operation counts in hierarchy order.
func (d Differences) Summary() []Counts {
	return []Counts{
		counts(model.KindPluginType, d.PluginTypes),
		counts(model.KindStep, d.Steps),
		counts(model.KindImage, d.Images),
		counts(model.KindCustomAPI, d.CustomAPIs),
		counts(model.KindRequestParameter, d.RequestParameters),
		counts(model.KindResponseProperty, d.ResponseProperties),
	}
}

func counts[T any](kind model.Kind, s Set[T]) Counts {
	return Counts{Kind: kind, Creates: len(s.Creates), Updates: len(s.Updates), Deletes: len(s.Deletes)}
}
