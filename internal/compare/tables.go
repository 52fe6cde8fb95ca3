package compare

import (
	"github.com/google/uuid"

	"github.com/delegateas/XrmSync-sub000/internal/model"
)

const (
	soft = false
	hard = true
)

// PluginTypes compares plugin types. A plugin type has nothing to update;
// matched types are always unchanged.
var PluginTypes = Comparer[model.PluginType]{
	Kind: model.KindPluginType,
	Name: func(t model.PluginType) string { return t.Name },
}

// Steps compares step registrations.
var Steps = Comparer[model.Step]{
	Kind: model.KindStep,
	Name: func(s model.Step) string { return s.Name },
	Properties: []Property[model.Step]{
		Field("EventOperation", hard, func(s model.Step) string { return model.Key(s.EventOperation) }),
		Field("LogicalName", hard, func(s model.Step) string { return model.Key(s.LogicalName) }),
		Field("Stage", hard, func(s model.Step) model.Stage { return s.Stage }),
		Field("Mode", hard, func(s model.Step) model.Mode { return s.Mode }),
		Field("Deployment", hard, func(s model.Step) model.Deployment { return s.Deployment }),
		Field("ExecutionOrder", soft, func(s model.Step) int { return s.ExecutionOrder }),
		Field("FilteredAttributes", soft, func(s model.Step) string { return model.NormalizeAttributes(s.FilteredAttributes) }),
		Field("UserContext", soft, func(s model.Step) uuid.UUID { return s.UserContext }),
		Field("AsyncAutoDelete", soft, func(s model.Step) bool { return s.AsyncAutoDelete }),
	},
}

// Images compares step images. Every image property is updatable.
var Images = Comparer[model.Image]{
	Kind: model.KindImage,
	Name: func(i model.Image) string { return i.Name },
	Properties: []Property[model.Image]{
		Field("EntityAlias", soft, func(i model.Image) string { return i.EntityAlias }),
		Field("ImageType", soft, func(i model.Image) model.ImageType { return i.ImageType }),
		Field("Attributes", soft, func(i model.Image) string { return model.NormalizeAttributes(i.Attributes) }),
	},
}

// CustomAPIs compares custom API definitions. The remote system rejects
// changes to the shape of the message, so those are hard.
var CustomAPIs = Comparer[model.CustomAPI]{
	Kind: model.KindCustomAPI,
	Name: func(a model.CustomAPI) string { return a.UniqueName },
	Properties: []Property[model.CustomAPI]{
		Field("BindingType", hard, func(a model.CustomAPI) model.BindingType { return a.BindingType }),
		Field("BoundEntityLogicalName", hard, func(a model.CustomAPI) string { return model.Key(a.BoundEntityLogicalName) }),
		Field("IsFunction", hard, func(a model.CustomAPI) bool { return a.IsFunction }),
		Field("EnabledForWorkflow", hard, func(a model.CustomAPI) bool { return a.EnabledForWorkflow }),
		Field("AllowedCustomProcessingStepType", hard, func(a model.CustomAPI) model.ProcessingStepType { return a.AllowedCustomProcessingStepType }),
		Field("IsCustomizable", hard, func(a model.CustomAPI) bool { return a.IsCustomizable }),
		Field("Name", soft, func(a model.CustomAPI) string { return a.Name }),
		Field("DisplayName", soft, func(a model.CustomAPI) string { return a.DisplayName }),
		Field("Description", soft, func(a model.CustomAPI) string { return a.Description }),
		Field("IsPrivate", soft, func(a model.CustomAPI) bool { return a.IsPrivate }),
		Field("ExecutePrivilegeName", soft, func(a model.CustomAPI) string { return a.ExecutePrivilegeName }),
		Field("PluginTypeName", soft, func(a model.CustomAPI) string { return model.Key(a.PluginTypeName) }),
	},
}

// RequestParameters compares custom API request parameters.
var RequestParameters = Comparer[model.RequestParameter]{
	Kind: model.KindRequestParameter,
	Name: func(p model.RequestParameter) string { return p.UniqueName },
	Properties: []Property[model.RequestParameter]{
		Field("Type", hard, func(p model.RequestParameter) model.ParameterType { return p.Type }),
		Field("LogicalEntityName", hard, func(p model.RequestParameter) string { return model.Key(p.LogicalEntityName) }),
		Field("IsOptional", hard, func(p model.RequestParameter) bool { return p.IsOptional }),
		Field("IsCustomizable", hard, func(p model.RequestParameter) bool { return p.IsCustomizable }),
		Field("Name", soft, func(p model.RequestParameter) string { return p.Name }),
		Field("DisplayName", soft, func(p model.RequestParameter) string { return p.DisplayName }),
		Field("Description", soft, func(p model.RequestParameter) string { return p.Description }),
	},
}

// ResponseProperties compares custom API response properties.
var ResponseProperties = Comparer[model.ResponseProperty]{
	Kind: model.KindResponseProperty,
	Name: func(p model.ResponseProperty) string { return p.UniqueName },
	Properties: []Property[model.ResponseProperty]{
		Field("Type", hard, func(p model.ResponseProperty) model.ParameterType { return p.Type }),
		Field("LogicalEntityName", hard, func(p model.ResponseProperty) string { return model.Key(p.LogicalEntityName) }),
		Field("IsCustomizable", hard, func(p model.ResponseProperty) bool { return p.IsCustomizable }),
		Field("Name", soft, func(p model.ResponseProperty) string { return p.Name }),
		Field("DisplayName", soft, func(p model.ResponseProperty) string { return p.DisplayName }),
		Field("Description", soft, func(p model.ResponseProperty) string { return p.Description }),
	},
}
