package model

import (
	"bytes"
	"slices"

	"github.com/google/uuid"
)

// Declaration is a complete plugin and custom API graph.
// The same type describes the local declaration and the remote snapshot.
type Declaration struct {
	Solution    string       `json:"solution" yaml:"solution"`
	Prefix      string       `json:"prefix" yaml:"prefix"`
	PluginTypes []PluginType `json:"plugin_types" yaml:"plugin_types"`
	CustomAPIs  []CustomAPI  `json:"custom_apis" yaml:"custom_apis"`
}

// PluginType is a plugin class registered in the remote system.
type PluginType struct {
	ID    uuid.UUID `json:"id" yaml:"id,omitempty"`
	Name  string    `json:"name" yaml:"name"`
	Steps []Step    `json:"steps" yaml:"steps,omitempty"`
}

// Step is a message processing step registration under a plugin type.
type Step struct {
	ID             uuid.UUID `json:"id" yaml:"id,omitempty"`
	Name           string    `json:"name" yaml:"name"`
	PluginTypeName string    `json:"plugin_type_name" yaml:"plugin_type_name,omitempty"`
	PluginTypeID   uuid.UUID `json:"plugin_type_id" yaml:"plugin_type_id,omitempty"`

	EventOperation     string     `json:"event_operation" yaml:"event_operation"`
	LogicalName        string     `json:"logical_name" yaml:"logical_name,omitempty"` // empty = all entities
	Stage              Stage      `json:"stage" yaml:"stage"`
	Mode               Mode       `json:"mode" yaml:"mode"`
	Deployment         Deployment `json:"deployment" yaml:"deployment"`
	ExecutionOrder     int        `json:"execution_order" yaml:"execution_order"`
	FilteredAttributes string     `json:"filtered_attributes" yaml:"filtered_attributes,omitempty"`
	UserContext        uuid.UUID  `json:"user_context" yaml:"user_context,omitempty"` // Nil = calling user
	AsyncAutoDelete    bool       `json:"async_auto_delete" yaml:"async_auto_delete,omitempty"`

	Images []Image `json:"images" yaml:"images,omitempty"`
}

// Image is an entity snapshot registered on a step.
type Image struct {
	ID             uuid.UUID `json:"id" yaml:"id,omitempty"`
	Name           string    `json:"name" yaml:"name"`
	StepName       string    `json:"step_name" yaml:"step_name,omitempty"`
	StepID         uuid.UUID `json:"step_id" yaml:"step_id,omitempty"`
	PluginTypeName string    `json:"plugin_type_name" yaml:"plugin_type_name,omitempty"` // scopes StepName

	EntityAlias string    `json:"entity_alias" yaml:"entity_alias"`
	ImageType   ImageType `json:"image_type" yaml:"image_type"`
	Attributes  string    `json:"attributes" yaml:"attributes,omitempty"`
}

// CustomAPI is a custom message definition.
type CustomAPI struct {
	ID         uuid.UUID `json:"id" yaml:"id,omitempty"`
	UniqueName string    `json:"unique_name" yaml:"unique_name"`

	Name                            string             `json:"name" yaml:"name"`
	DisplayName                     string             `json:"display_name" yaml:"display_name"`
	Description                     string             `json:"description" yaml:"description,omitempty"`
	BindingType                     BindingType        `json:"binding_type" yaml:"binding_type"`
	BoundEntityLogicalName          string             `json:"bound_entity_logical_name" yaml:"bound_entity_logical_name,omitempty"`
	IsFunction                      bool               `json:"is_function" yaml:"is_function,omitempty"`
	EnabledForWorkflow              bool               `json:"enabled_for_workflow" yaml:"enabled_for_workflow,omitempty"`
	AllowedCustomProcessingStepType ProcessingStepType `json:"allowed_custom_processing_step_type" yaml:"allowed_custom_processing_step_type"`
	ExecutePrivilegeName            string             `json:"execute_privilege_name" yaml:"execute_privilege_name,omitempty"`
	IsCustomizable                  bool               `json:"is_customizable" yaml:"is_customizable,omitempty"`
	IsPrivate                       bool               `json:"is_private" yaml:"is_private,omitempty"`
	PluginTypeName                  string             `json:"plugin_type_name" yaml:"plugin_type_name,omitempty"`

	RequestParameters  []RequestParameter `json:"request_parameters" yaml:"request_parameters,omitempty"`
	ResponseProperties []ResponseProperty `json:"response_properties" yaml:"response_properties,omitempty"`
}

// RequestParameter is an input of a custom API.
type RequestParameter struct {
	ID            uuid.UUID `json:"id" yaml:"id,omitempty"`
	UniqueName    string    `json:"unique_name" yaml:"unique_name"`
	CustomAPIName string    `json:"custom_api_name" yaml:"custom_api_name,omitempty"`
	CustomAPIID   uuid.UUID `json:"custom_api_id" yaml:"custom_api_id,omitempty"`

	Name              string        `json:"name" yaml:"name"`
	DisplayName       string        `json:"display_name" yaml:"display_name"`
	Description       string        `json:"description" yaml:"description,omitempty"`
	Type              ParameterType `json:"type" yaml:"type"`
	LogicalEntityName string        `json:"logical_entity_name" yaml:"logical_entity_name,omitempty"`
	IsOptional        bool          `json:"is_optional" yaml:"is_optional,omitempty"`
	IsCustomizable    bool          `json:"is_customizable" yaml:"is_customizable,omitempty"`
}

// ResponseProperty is an output of a custom API.
type ResponseProperty struct {
	ID            uuid.UUID `json:"id" yaml:"id,omitempty"`
	UniqueName    string    `json:"unique_name" yaml:"unique_name"`
	CustomAPIName string    `json:"custom_api_name" yaml:"custom_api_name,omitempty"`
	CustomAPIID   uuid.UUID `json:"custom_api_id" yaml:"custom_api_id,omitempty"`

	Name              string        `json:"name" yaml:"name"`
	DisplayName       string        `json:"display_name" yaml:"display_name"`
	Description       string        `json:"description" yaml:"description,omitempty"`
	Type              ParameterType `json:"type" yaml:"type"`
	LogicalEntityName string        `json:"logical_entity_name" yaml:"logical_entity_name,omitempty"`
	IsCustomizable    bool          `json:"is_customizable" yaml:"is_customizable,omitempty"`
}

// UserContexts returns the distinct impersonation users referenced by steps,
// sorted for deterministic lookups.
func (d Declaration) UserContexts() []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, pt := range d.PluginTypes {
		for _, s := range pt.Steps {
			if s.UserContext == uuid.Nil || seen[s.UserContext] {
				continue
			}
			seen[s.UserContext] = true
			ids = append(ids, s.UserContext)
		}
	}
	slices.SortFunc(ids, CompareIDs)
	return ids
}

// Linked returns a copy of the declaration in which every child carries its
// parent's key and ID. Loaders call it so callers never see a dangling child.
func (d Declaration) Linked() Declaration {
	out := d
	out.PluginTypes = make([]PluginType, len(d.PluginTypes))
	for i, pt := range d.PluginTypes {
		pt.Steps = slices.Clone(pt.Steps)
		for j := range pt.Steps {
			s := &pt.Steps[j]
			s.PluginTypeName = pt.Name
			s.PluginTypeID = pt.ID
			s.Images = slices.Clone(s.Images)
			for k := range s.Images {
				s.Images[k].StepName = s.Name
				s.Images[k].StepID = s.ID
				s.Images[k].PluginTypeName = pt.Name
			}
		}
		out.PluginTypes[i] = pt
	}

	out.CustomAPIs = make([]CustomAPI, len(d.CustomAPIs))
	for i, api := range d.CustomAPIs {
		api.RequestParameters = slices.Clone(api.RequestParameters)
		for j := range api.RequestParameters {
			api.RequestParameters[j].CustomAPIName = api.UniqueName
			api.RequestParameters[j].CustomAPIID = api.ID
		}
		api.ResponseProperties = slices.Clone(api.ResponseProperties)
		for j := range api.ResponseProperties {
			api.ResponseProperties[j].CustomAPIName = api.UniqueName
			api.ResponseProperties[j].CustomAPIID = api.ID
		}
		out.CustomAPIs[i] = api
	}
	return out
}

// CompareIDs orders two IDs bytewise.
func CompareIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}

// Kind names an entity kind in plans, logs and violations.
type Kind string

const (
	KindPluginType       Kind = "plugin type"
	KindStep             Kind = "step"
	KindImage            Kind = "image"
	KindCustomAPI        Kind = "custom api"
	KindRequestParameter Kind = "request parameter"
	KindResponseProperty Kind = "response property"
)
