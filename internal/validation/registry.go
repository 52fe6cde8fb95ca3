package validation

import (
	"github.com/google/uuid"

	"github.com/delegateas/XrmSync-sub000/internal/model"
)

// Options carries the inputs rules need beyond the declaration itself.
type Options struct {
	// Prefix is the publisher prefix; empty disables the prefix rules.
	Prefix string
	// MissingUserContexts lists referenced user contexts that were not
	// found remotely.
	MissingUserContexts []uuid.UUID
}

// Registry holds the rules run for each entity kind, in order.
type Registry struct {
	PluginTypes        []ChildRule[model.PluginType, model.Declaration]
	Steps              []ChildRule[model.Step, model.PluginType]
	Images             []ChildRule[model.Image, model.Step]
	CustomAPIs         []ChildRule[model.CustomAPI, model.Declaration]
	RequestParameters  []ChildRule[model.RequestParameter, model.CustomAPI]
	ResponseProperties []ChildRule[model.ResponseProperty, model.CustomAPI]
}

// Len returns the total number of registered rules.
func (r Registry) Len() int {
	return len(r.PluginTypes) + len(r.Steps) + len(r.Images) +
		len(r.CustomAPIs) + len(r.RequestParameters) + len(r.ResponseProperties)
}

// DefaultRegistry returns every built-in rule.
func DefaultRegistry(opts Options) Registry {
	ptName := func(t model.PluginType) string { return t.Name }
	stepName := func(s model.Step) string { return s.Name }
	imgName := func(i model.Image) string { return i.Name }
	apiName := func(a model.CustomAPI) string { return a.UniqueName }
	reqName := func(p model.RequestParameter) string { return p.UniqueName }
	respName := func(p model.ResponseProperty) string { return p.UniqueName }

	return Registry{
		PluginTypes: []ChildRule[model.PluginType, model.Declaration]{
			Lift[model.Declaration](RequireName(model.KindPluginType, ptName)),
			UniqueName[model.PluginType, model.Declaration](model.KindPluginType, ptName),
		},
		Steps: []ChildRule[model.Step, model.PluginType]{
			Lift[model.PluginType](RequireName(model.KindStep, stepName)),
			UniqueName[model.Step, model.PluginType](model.KindStep, stepName),
			Lift[model.PluginType](PreStageNotAsync),
			Lift[model.PluginType](AssociateNoFilter),
			Lift[model.PluginType](AssociateAllEntities),
			NoDuplicateRegistrations,
			Lift[model.PluginType](UserContextExists(opts.MissingUserContexts)),
			Lift[model.PluginType](AsyncAutoDeleteRequiresAsync),
		},
		Images: []ChildRule[model.Image, model.Step]{
			Lift[model.Step](RequireName(model.KindImage, imgName)),
			UniqueName[model.Image, model.Step](model.KindImage, imgName),
			ImagesSupported,
			CreateNoPreImage,
			DeleteNoPostImage,
			PreStageNoPostImage,
		},
		CustomAPIs: []ChildRule[model.CustomAPI, model.Declaration]{
			Lift[model.Declaration](RequireName(model.KindCustomAPI, apiName)),
			UniqueName[model.CustomAPI, model.Declaration](model.KindCustomAPI, apiName),
			Lift[model.Declaration](BoundEntityMatchesBinding),
			Lift[model.Declaration](UnboundHasNoEntity),
			Lift[model.Declaration](RequirePrefix(ErrMissingPrefix, model.KindCustomAPI, opts.Prefix, apiName)),
			Lift[model.Declaration](FunctionNotWorkflow),
		},
		RequestParameters: []ChildRule[model.RequestParameter, model.CustomAPI]{
			Lift[model.CustomAPI](RequireName(model.KindRequestParameter, reqName)),
			UniqueName[model.RequestParameter, model.CustomAPI](model.KindRequestParameter, reqName),
			Lift[model.CustomAPI](EntityNameForEntityTypes(model.KindRequestParameter,
				func(p model.RequestParameter) model.ParameterType { return p.Type },
				func(p model.RequestParameter) string { return p.LogicalEntityName })),
			Lift[model.CustomAPI](RequirePrefix(ErrParameterMissingPrefix, model.KindRequestParameter, opts.Prefix, reqName)),
		},
		ResponseProperties: []ChildRule[model.ResponseProperty, model.CustomAPI]{
			Lift[model.CustomAPI](RequireName(model.KindResponseProperty, respName)),
			UniqueName[model.ResponseProperty, model.CustomAPI](model.KindResponseProperty, respName),
			Lift[model.CustomAPI](EntityNameForEntityTypes(model.KindResponseProperty,
				func(p model.ResponseProperty) model.ParameterType { return p.Type },
				func(p model.ResponseProperty) string { return p.LogicalEntityName })),
			Lift[model.CustomAPI](RequirePrefix(ErrParameterMissingPrefix, model.KindResponseProperty, opts.Prefix, respName)),
		},
	}
}
