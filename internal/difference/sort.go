package difference

import (
	"cmp"
	"slices"

	"github.com/google/uuid"

	"github.com/delegateas/XrmSync-sub000/internal/model"
)

// sortKey orders entities by grandparent key, parent key, own key, then ID.
type sortKey struct {
	scope  string
	parent string
	name   string
	id     uuid.UUID
}

func compareSortKeys(a, b sortKey) int {
	if c := cmp.Compare(a.scope, b.scope); c != 0 {
		return c
	}
	if c := cmp.Compare(a.parent, b.parent); c != 0 {
		return c
	}
	if c := cmp.Compare(a.name, b.name); c != 0 {
		return c
	}
	return model.CompareIDs(a.id, b.id)
}

func sortSet[T any](s *Set[T], key func(T) sortKey) {
	byChange := func(a, b Change[T]) int { return compareSortKeys(key(a.Local), key(b.Local)) }
	slices.SortStableFunc(s.Creates, byChange)
	slices.SortStableFunc(s.Updates, byChange)
	slices.SortStableFunc(s.Deletes, func(a, b T) int { return compareSortKeys(key(a), key(b)) })
}

func (d *Differences) sort() {
	sortSet(&d.PluginTypes, func(t model.PluginType) sortKey {
		return sortKey{name: model.Key(t.Name), id: t.ID}
	})
	sortSet(&d.Steps, func(s model.Step) sortKey {
		return sortKey{parent: model.Key(s.PluginTypeName), name: model.Key(s.Name), id: s.ID}
	})
	sortSet(&d.Images, func(i model.Image) sortKey {
		return sortKey{
			scope:  model.Key(i.PluginTypeName),
			parent: model.Key(i.StepName),
			name:   model.Key(i.Name),
			id:     i.ID,
		}
	})
	sortSet(&d.CustomAPIs, func(a model.CustomAPI) sortKey {
		return sortKey{name: model.Key(a.UniqueName), id: a.ID}
	})
	sortSet(&d.RequestParameters, func(p model.RequestParameter) sortKey {
		return sortKey{parent: model.Key(p.CustomAPIName), name: model.Key(p.UniqueName), id: p.ID}
	})
	sortSet(&d.ResponseProperties, func(p model.ResponseProperty) sortKey {
		return sortKey{parent: model.Key(p.CustomAPIName), name: model.Key(p.UniqueName), id: p.ID}
	})
}
