package declare

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/delegateas/XrmSync-sub000/internal/model"
)

// CompileError is a conversion failure at a CUE position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type imageDecl struct {
	Name       string   `json:"name"`
	Alias      string   `json:"alias"`
	Type       string   `json:"type"`
	Attributes []string `json:"attributes"`
}

type stepDecl struct {
	Name               string      `json:"name"`
	Message            string      `json:"message"`
	Entity             string      `json:"entity"`
	Stage              string      `json:"stage"`
	Mode               string      `json:"mode"`
	Deployment         string      `json:"deployment"`
	Order              int         `json:"order"`
	FilteredAttributes []string    `json:"filtered_attributes"`
	UserContext        string      `json:"user_context"`
	AsyncAutoDelete    bool        `json:"async_auto_delete"`
	Images             []imageDecl `json:"image"`
}

type customAPIDecl struct {
	Name            string `json:"name"`
	DisplayName     string `json:"display_name"`
	Description     string `json:"description"`
	Binding         string `json:"binding"`
	BoundEntity     string `json:"bound_entity"`
	Function        bool   `json:"function"`
	Workflow        bool   `json:"workflow"`
	AllowedStepType string `json:"allowed_step_type"`
	Privilege       string `json:"privilege"`
	Customizable    bool   `json:"customizable"`
	Private         bool   `json:"private"`
	PluginType      string `json:"plugin_type"`
}

type parameterDecl struct {
	Name         string `json:"name"`
	DisplayName  string `json:"display_name"`
	Description  string `json:"description"`
	Type         string `json:"type"`
	Entity       string `json:"entity"`
	Optional     bool   `json:"optional"`
	Customizable bool   `json:"customizable"`
}

// compiler collects errors while walking a unified value.
type compiler struct {
	errs *multierror.Error
}

func (c *compiler) fail(field string, v cue.Value, format string, args ...any) {
	c.errs = multierror.Append(c.errs, &CompileError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Pos:     v.Pos(),
	})
}

func (c *compiler) cueError(err error) {
	c.errs = multierror.Append(c.errs, formatCUEError(err))
}

// Compile converts a schema-unified CUE value into a declaration. Every
// conversion error is reported; the declaration is only returned when there
// are none.
func Compile(v cue.Value) (model.Declaration, error) {
	c := &compiler{}
	decl := model.Declaration{
		Solution: c.str(v, "solution"),
		Prefix:   c.str(v, "prefix"),
	}

	c.fields(v.LookupPath(cue.ParsePath("plugin")), func(name string, tv cue.Value) {
		decl.PluginTypes = append(decl.PluginTypes, c.pluginType(name, tv))
	})
	c.fields(v.LookupPath(cue.ParsePath("customapi")), func(name string, av cue.Value) {
		decl.CustomAPIs = append(decl.CustomAPIs, c.customAPI(name, av))
	})

	if err := c.errs.ErrorOrNil(); err != nil {
		return model.Declaration{}, err
	}
	return decl.Linked(), nil
}

func (c *compiler) str(v cue.Value, path string) string {
	f := v.LookupPath(cue.ParsePath(path))
	if !f.Exists() {
		return ""
	}
	s, err := f.String()
	if err != nil {
		c.cueError(err)
	}
	return s
}

// fields calls fn for each regular field of v in declaration order.
func (c *compiler) fields(v cue.Value, fn func(label string, fv cue.Value)) {
	if !v.Exists() {
		return
	}
	iter, err := v.Fields()
	if err != nil {
		c.cueError(err)
		return
	}
	for iter.Next() {
		fn(iter.Label(), iter.Value())
	}
}

func (c *compiler) pluginType(name string, v cue.Value) model.PluginType {
	t := model.PluginType{Name: name}

	list, err := v.LookupPath(cue.ParsePath("step")).List()
	if err != nil {
		c.cueError(err)
		return t
	}
	for list.Next() {
		sv := list.Value()
		var d stepDecl
		if err := sv.Decode(&d); err != nil {
			c.cueError(err)
			continue
		}
		t.Steps = append(t.Steps, c.step(name, d, sv))
	}
	return t
}

func (c *compiler) step(typeName string, d stepDecl, v cue.Value) model.Step {
	s := model.Step{
		Name:               d.Name,
		EventOperation:     d.Message,
		LogicalName:        d.Entity,
		ExecutionOrder:     d.Order,
		FilteredAttributes: strings.Join(d.FilteredAttributes, ","),
		AsyncAutoDelete:    d.AsyncAutoDelete,
	}

	var err error
	if s.Stage, err = model.ParseStage(d.Stage); err != nil {
		c.fail("stage", v, "%v", err)
	}
	if s.Mode, err = model.ParseMode(d.Mode); err != nil {
		c.fail("mode", v, "%v", err)
	}
	if s.Deployment, err = model.ParseDeployment(d.Deployment); err != nil {
		c.fail("deployment", v, "%v", err)
	}
	if d.UserContext != "" {
		if s.UserContext, err = uuid.Parse(d.UserContext); err != nil {
			c.fail("user_context", v, "invalid user context %q: %v", d.UserContext, err)
		}
	}
	if strings.TrimSpace(s.Name) == "" {
		s.Name = model.StepName(typeName, s.Stage, s.EventOperation, s.LogicalName)
	}

	for _, img := range d.Images {
		i := model.Image{
			Name:        img.Name,
			EntityAlias: img.Alias,
			Attributes:  strings.Join(img.Attributes, ","),
		}
		if i.ImageType, err = model.ParseImageType(img.Type); err != nil {
			c.fail("image.type", v, "%v", err)
		}
		if strings.TrimSpace(i.Name) == "" {
			i.Name = i.EntityAlias
		}
		s.Images = append(s.Images, i)
	}
	return s
}

func (c *compiler) customAPI(uniqueName string, v cue.Value) model.CustomAPI {
	var d customAPIDecl
	if err := v.Decode(&d); err != nil {
		c.cueError(err)
		return model.CustomAPI{UniqueName: uniqueName}
	}

	api := model.CustomAPI{
		UniqueName:             uniqueName,
		Name:                   d.Name,
		DisplayName:            d.DisplayName,
		Description:            d.Description,
		BoundEntityLogicalName: d.BoundEntity,
		IsFunction:             d.Function,
		EnabledForWorkflow:     d.Workflow,
		ExecutePrivilegeName:   d.Privilege,
		IsCustomizable:         d.Customizable,
		IsPrivate:              d.Private,
		PluginTypeName:         d.PluginType,
	}
	var err error
	if api.BindingType, err = model.ParseBindingType(d.Binding); err != nil {
		c.fail("binding", v, "%v", err)
	}
	if api.AllowedCustomProcessingStepType, err = model.ParseProcessingStepType(d.AllowedStepType); err != nil {
		c.fail("allowed_step_type", v, "%v", err)
	}
	if api.Name == "" {
		api.Name = uniqueName
	}
	if api.DisplayName == "" {
		api.DisplayName = api.Name
	}

	c.fields(v.LookupPath(cue.ParsePath("request")), func(name string, pv cue.Value) {
		p, ok := c.parameter(name, pv)
		if !ok {
			return
		}
		api.RequestParameters = append(api.RequestParameters, model.RequestParameter{
			UniqueName:        name,
			Name:              p.Name,
			DisplayName:       p.DisplayName,
			Description:       p.Description,
			Type:              p.Type,
			LogicalEntityName: p.LogicalEntityName,
			IsOptional:        p.IsOptional,
			IsCustomizable:    p.IsCustomizable,
		})
	})
	c.fields(v.LookupPath(cue.ParsePath("response")), func(name string, pv cue.Value) {
		p, ok := c.parameter(name, pv)
		if !ok {
			return
		}
		api.ResponseProperties = append(api.ResponseProperties, model.ResponseProperty{
			UniqueName:        name,
			Name:              p.Name,
			DisplayName:       p.DisplayName,
			Description:       p.Description,
			Type:              p.Type,
			LogicalEntityName: p.LogicalEntityName,
			IsCustomizable:    p.IsCustomizable,
		})
	})
	return api
}

// parameter decodes the fields shared by request parameters and response
// properties.
func (c *compiler) parameter(uniqueName string, v cue.Value) (model.RequestParameter, bool) {
	var d parameterDecl
	if err := v.Decode(&d); err != nil {
		c.cueError(err)
		return model.RequestParameter{}, false
	}
	p := model.RequestParameter{
		Name:              d.Name,
		DisplayName:       d.DisplayName,
		Description:       d.Description,
		LogicalEntityName: d.Entity,
		IsOptional:        d.Optional,
		IsCustomizable:    d.Customizable,
	}
	t, err := model.ParseParameterType(d.Type)
	if err != nil {
		c.fail("type", v, "%v", err)
		return p, false
	}
	p.Type = t
	if p.Name == "" {
		p.Name = uniqueName
	}
	if p.DisplayName == "" {
		p.DisplayName = p.Name
	}
	return p, true
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
