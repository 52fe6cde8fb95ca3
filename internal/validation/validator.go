package validation

import (
	"fmt"

	"github.com/delegateas/XrmSync-sub000/internal/model"
)

// Validator runs a Registry over a declaration.
type Validator struct {
	registry Registry
}

// New returns a Validator for the given rules.
func New(registry Registry) *Validator {
	return &Validator{registry: registry}
}

// Validate checks decl with the default rules.
func Validate(decl model.Declaration, opts Options) error {
	return New(DefaultRegistry(opts)).Validate(decl)
}

// Validate returns nil when decl is valid, the Violation when exactly one
// rule failed and an *AggregateError otherwise.
func (v *Validator) Validate(decl model.Declaration) error {
	return Aggregate(v.Check(decl))
}

// Check runs every rule and returns all violations in walk order: plugin
// types, their steps and images, then custom APIs, their request parameters
// and response properties.
func (v *Validator) Check(decl model.Declaration) []Violation {
	decl = decl.Linked()

	var out []Violation
	for _, t := range decl.PluginTypes {
		out = run(out, v.registry.PluginTypes, t, decl, decl.PluginTypes, label(model.KindPluginType, t.Name, ""))
		for _, s := range t.Steps {
			out = run(out, v.registry.Steps, s, t, t.Steps, label(model.KindStep, s.Name, t.Name))
			for _, img := range s.Images {
				out = run(out, v.registry.Images, img, s, s.Images, label(model.KindImage, img.Name, s.Name))
			}
		}
	}
	for _, api := range decl.CustomAPIs {
		out = run(out, v.registry.CustomAPIs, api, decl, decl.CustomAPIs, label(model.KindCustomAPI, api.UniqueName, ""))
		for _, p := range api.RequestParameters {
			out = run(out, v.registry.RequestParameters, p, api, api.RequestParameters,
				label(model.KindRequestParameter, p.UniqueName, api.UniqueName))
		}
		for _, p := range api.ResponseProperties {
			out = run(out, v.registry.ResponseProperties, p, api, api.ResponseProperties,
				label(model.KindResponseProperty, p.UniqueName, api.UniqueName))
		}
	}
	return out
}

func run[T, P any](out []Violation, rules []ChildRule[T, P], entity T, parent P, siblings []T, entityLabel string) []Violation {
	for _, r := range rules {
		for _, msg := range r.Check(entity, parent, siblings) {
			out = append(out, Violation{Code: r.ID(), Entity: entityLabel, Message: msg})
		}
	}
	return out
}

func label(kind model.Kind, name, parent string) string {
	if parent == "" {
		return fmt.Sprintf("%s %q", kind, name)
	}
	return fmt.Sprintf("%s %q in %q", kind, name, parent)
}
