// Package compare holds the per-kind property tables used to decide whether
// two instances of the same logical entity differ, and how.
//
// Every table entry names a property, says whether a difference is hard
// (the remote system cannot update it in place, so the entity is recreated)
// or soft (updated in place), and carries a typed accessor. Tables are plain
// data; nothing is discovered by reflection.
package compare

import "github.com/delegateas/XrmSync-sub000/internal/model"

// Property is one comparable property of an entity kind.
type Property[T any] struct {
	Name string
	Hard bool

	equal func(local, remote T) bool
	value func(e T) any
}

// Field builds a property from a typed accessor.
func Field[T any, V comparable](name string, hard bool, get func(T) V) Property[T] {
	return Property[T]{
		Name:  name,
		Hard:  hard,
		equal: func(local, remote T) bool { return get(local) == get(remote) },
		value: func(e T) any { return get(e) },
	}
}

// Equal reports whether both sides hold the same value.
func (p Property[T]) Equal(local, remote T) bool {
	return p.equal(local, remote)
}

// Value fetches the property from one entity.
func (p Property[T]) Value(e T) any {
	return p.value(e)
}

// Values fetches the property from both sides.
func (p Property[T]) Values(local, remote T) (any, any) {
	return p.value(local), p.value(remote)
}

// Changes is the list of properties that differ between two instances.
type Changes[T any] []Property[T]

// Hard reports whether any change forces a recreate.
func (c Changes[T]) Hard() bool {
	for _, p := range c {
		if p.Hard {
			return true
		}
	}
	return false
}

// Names returns the property names in table order.
func (c Changes[T]) Names() []string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name
	}
	return names
}

// Disposition is the outcome of comparing a matched pair.
type Disposition int

const (
	Unchanged Disposition = iota
	Update
	Recreate
)

func (d Disposition) String() string {
	switch d {
	case Update:
		return "update"
	case Recreate:
		return "recreate"
	default:
		return "unchanged"
	}
}

// Disposition classifies the changes: none is unchanged, soft-only is an
// in-place update, and any hard change means recreate.
func (c Changes[T]) Disposition() Disposition {
	switch {
	case len(c) == 0:
		return Unchanged
	case c.Hard():
		return Recreate
	default:
		return Update
	}
}

// Comparer knows the identity and comparable properties of one kind.
type Comparer[T any] struct {
	Kind       model.Kind
	Name       func(T) string
	Properties []Property[T]
}

// Key returns the identity key of an entity.
func (c Comparer[T]) Key(e T) string {
	return model.Key(c.Name(e))
}

// Diff returns the properties whose values differ, in table order.
// Callers only compare entities with the same key.
func (c Comparer[T]) Diff(local, remote T) Changes[T] {
	var changes Changes[T]
	for _, p := range c.Properties {
		if !p.Equal(local, remote) {
			changes = append(changes, p)
		}
	}
	return changes
}

// Property looks up a table entry by name.
func (c Comparer[T]) Property(name string) (Property[T], bool) {
	for _, p := range c.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property[T]{}, false
}
