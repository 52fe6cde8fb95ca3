package validation

import (
	"fmt"

	"github.com/delegateas/XrmSync-sub000/internal/model"
)

// Rule inspects a single entity and describes each problem it finds.
type Rule[T any] interface {
	ID() string
	Check(entity T) []string
}

// ChildRule inspects an entity together with its parent and siblings.
// Siblings include the entity itself.
type ChildRule[T, P any] interface {
	ID() string
	Check(entity T, parent P, siblings []T) []string
}

type ruleFunc[T any] struct {
	code  string
	check func(T) []string
}

func (r ruleFunc[T]) ID() string              { return r.code }
func (r ruleFunc[T]) Check(entity T) []string { return r.check(entity) }

// NewRule builds a Rule from a check function.
func NewRule[T any](code string, check func(T) []string) Rule[T] {
	return ruleFunc[T]{code: code, check: check}
}

type childRuleFunc[T, P any] struct {
	code  string
	check func(T, P, []T) []string
}

func (r childRuleFunc[T, P]) ID() string { return r.code }
func (r childRuleFunc[T, P]) Check(entity T, parent P, siblings []T) []string {
	return r.check(entity, parent, siblings)
}

// NewChildRule builds a ChildRule from a check function.
func NewChildRule[T, P any](code string, check func(T, P, []T) []string) ChildRule[T, P] {
	return childRuleFunc[T, P]{code: code, check: check}
}

// Lift adapts a Rule to the ChildRule shape; parent and siblings are ignored.
func Lift[P, T any](r Rule[T]) ChildRule[T, P] {
	return NewChildRule(r.ID(), func(e T, _ P, _ []T) []string { return r.Check(e) })
}

// RequireName reports entities whose identity key is empty.
func RequireName[T any](kind model.Kind, name func(T) string) Rule[T] {
	return NewRule(ErrMissingName, func(e T) []string {
		if model.Key(name(e)) == "" {
			return []string{fmt.Sprintf("%s name is required", kind)}
		}
		return nil
	})
}

// UniqueName reports entities whose identity key is repeated among siblings.
// Every occurrence is reported so each can be located.
func UniqueName[T, P any](kind model.Kind, name func(T) string) ChildRule[T, P] {
	return NewChildRule(ErrDuplicateName, func(e T, _ P, siblings []T) []string {
		key := model.Key(name(e))
		if key == "" {
			return nil
		}
		n := 0
		for _, s := range siblings {
			if model.Key(name(s)) == key {
				n++
			}
		}
		if n > 1 {
			return []string{fmt.Sprintf("%s name %q is declared %d times", kind, name(e), n)}
		}
		return nil
	})
}
