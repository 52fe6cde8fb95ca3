package validation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delegateas/XrmSync-sub000/internal/model"
)

// =============================================================================
// Step rules
// =============================================================================

func TestPreStageNotAsync(t *testing.T) {
	step := model.Step{Stage: model.StagePreOperation, Mode: model.ModeAsynchronous}
	msgs := PreStageNotAsync.Check(step)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "PreOperation")
	assert.Equal(t, ErrPreStageAsync, PreStageNotAsync.ID())

	step.Stage = model.StagePostOperation
	assert.Empty(t, PreStageNotAsync.Check(step))
}

func TestAssociateRules(t *testing.T) {
	step := model.Step{EventOperation: "associate", FilteredAttributes: "name", LogicalName: "account"}
	assert.Len(t, AssociateNoFilter.Check(step), 1)
	assert.Len(t, AssociateAllEntities.Check(step), 1)

	step = model.Step{EventOperation: "Disassociate"}
	assert.Empty(t, AssociateNoFilter.Check(step))
	assert.Empty(t, AssociateAllEntities.Check(step))

	step = model.Step{EventOperation: "Update", FilteredAttributes: "name", LogicalName: "account"}
	assert.Empty(t, AssociateNoFilter.Check(step))
	assert.Empty(t, AssociateAllEntities.Check(step))
}

func TestAsyncAutoDeleteRequiresAsync(t *testing.T) {
	assert.Len(t, AsyncAutoDeleteRequiresAsync.Check(model.Step{AsyncAutoDelete: true}), 1)
	assert.Empty(t, AsyncAutoDeleteRequiresAsync.Check(model.Step{AsyncAutoDelete: true, Mode: model.ModeAsynchronous}))
}

func TestNoDuplicateRegistrations(t *testing.T) {
	a := model.Step{Name: "a", EventOperation: "Update", Stage: model.StagePostOperation, LogicalName: "account"}
	b := model.Step{Name: "b", EventOperation: "update", Stage: model.StagePostOperation, LogicalName: "Account"}
	c := model.Step{Name: "c", EventOperation: "Update", Stage: model.StagePreOperation, LogicalName: "account"}
	siblings := []model.Step{a, b, c}

	msgs := NoDuplicateRegistrations.Check(a, model.PluginType{}, siblings)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "2 steps")
	assert.Empty(t, NoDuplicateRegistrations.Check(c, model.PluginType{}, siblings))
}

func TestUserContextExists(t *testing.T) {
	missing := uuid.MustParse("00000000-0000-0000-0000-0000000000aa")
	present := uuid.MustParse("00000000-0000-0000-0000-0000000000bb")
	rule := UserContextExists([]uuid.UUID{missing})

	msgs := rule.Check(model.Step{UserContext: missing})
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], missing.String())
	assert.Empty(t, rule.Check(model.Step{UserContext: present}))
	assert.Empty(t, rule.Check(model.Step{}))
}

// =============================================================================
// Image rules
// =============================================================================

func TestImagesSupported(t *testing.T) {
	img := model.Image{Name: "pre"}
	assert.Empty(t, ImagesSupported.Check(img, model.Step{EventOperation: "SetStateDynamicEntity"}, nil))
	msgs := ImagesSupported.Check(img, model.Step{EventOperation: "RetrieveMultiple"}, nil)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "RetrieveMultiple")
}

func TestCreateNoPreImage(t *testing.T) {
	create := model.Step{EventOperation: "Create", Stage: model.StagePostOperation}
	msgs := CreateNoPreImage.Check(model.Image{ImageType: model.ImageTypePre}, create, nil)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "pre-image")
	assert.Contains(t, msgs[0], "Create")

	assert.Len(t, CreateNoPreImage.Check(model.Image{ImageType: model.ImageTypeBoth}, create, nil), 1)
	assert.Empty(t, CreateNoPreImage.Check(model.Image{ImageType: model.ImageTypePost}, create, nil))
}

func TestDeleteNoPostImage(t *testing.T) {
	del := model.Step{EventOperation: "delete", Stage: model.StagePostOperation}
	assert.Len(t, DeleteNoPostImage.Check(model.Image{ImageType: model.ImageTypePost}, del, nil), 1)
	assert.Empty(t, DeleteNoPostImage.Check(model.Image{ImageType: model.ImageTypePre}, del, nil))
}

func TestPreStageNoPostImage(t *testing.T) {
	pre := model.Step{EventOperation: "Update", Stage: model.StagePreValidation}
	assert.Len(t, PreStageNoPostImage.Check(model.Image{ImageType: model.ImageTypePost}, pre, nil), 1)
	assert.Empty(t, PreStageNoPostImage.Check(model.Image{ImageType: model.ImageTypePre}, pre, nil))
}

// =============================================================================
// Custom API rules
// =============================================================================

func TestBindingRules(t *testing.T) {
	bound := model.CustomAPI{BindingType: model.BindingTypeEntity}
	assert.Len(t, BoundEntityMatchesBinding.Check(bound), 1)
	bound.BoundEntityLogicalName = "account"
	assert.Empty(t, BoundEntityMatchesBinding.Check(bound))

	global := model.CustomAPI{BindingType: model.BindingTypeGlobal, BoundEntityLogicalName: "account"}
	assert.Len(t, UnboundHasNoEntity.Check(global), 1)
	global.BoundEntityLogicalName = ""
	assert.Empty(t, UnboundHasNoEntity.Check(global))
}

func TestFunctionNotWorkflow(t *testing.T) {
	assert.Len(t, FunctionNotWorkflow.Check(model.CustomAPI{IsFunction: true, EnabledForWorkflow: true}), 1)
	assert.Empty(t, FunctionNotWorkflow.Check(model.CustomAPI{IsFunction: true}))
}

func TestRequirePrefix(t *testing.T) {
	name := func(a model.CustomAPI) string { return a.UniqueName }
	rule := RequirePrefix(ErrMissingPrefix, model.KindCustomAPI, "ctx", name)

	assert.Empty(t, rule.Check(model.CustomAPI{UniqueName: "ctx_DoThing"}))
	assert.Empty(t, rule.Check(model.CustomAPI{UniqueName: "CTX_DoThing"}))
	msgs := rule.Check(model.CustomAPI{UniqueName: "ctxDoThing"})
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], `"ctx_"`)

	disabled := RequirePrefix(ErrMissingPrefix, model.KindCustomAPI, "", name)
	assert.Empty(t, disabled.Check(model.CustomAPI{UniqueName: "anything"}))
}

func TestEntityNameForEntityTypes(t *testing.T) {
	rule := EntityNameForEntityTypes(model.KindRequestParameter,
		func(p model.RequestParameter) model.ParameterType { return p.Type },
		func(p model.RequestParameter) string { return p.LogicalEntityName })

	assert.Empty(t, rule.Check(model.RequestParameter{Type: model.ParameterEntityReference, LogicalEntityName: "account"}))
	assert.Empty(t, rule.Check(model.RequestParameter{Type: model.ParameterString}))
	assert.Len(t, rule.Check(model.RequestParameter{Type: model.ParameterString, LogicalEntityName: "account"}), 1)
}

// =============================================================================
// Generic rules
// =============================================================================

func TestRequireName(t *testing.T) {
	rule := RequireName(model.KindPluginType, func(p model.PluginType) string { return p.Name })
	assert.Len(t, rule.Check(model.PluginType{Name: "  "}), 1)
	assert.Empty(t, rule.Check(model.PluginType{Name: "Plugin"}))
}

func TestUniqueNameReportsEveryOccurrence(t *testing.T) {
	rule := UniqueName[model.PluginType, model.Declaration](model.KindPluginType,
		func(p model.PluginType) string { return p.Name })
	siblings := []model.PluginType{{Name: "A"}, {Name: "a"}, {Name: "B"}}

	assert.Len(t, rule.Check(siblings[0], model.Declaration{}, siblings), 1)
	assert.Len(t, rule.Check(siblings[1], model.Declaration{}, siblings), 1)
	assert.Empty(t, rule.Check(siblings[2], model.Declaration{}, siblings))
}

func TestLiftKeepsID(t *testing.T) {
	lifted := Lift[model.PluginType](PreStageNotAsync)
	assert.Equal(t, PreStageNotAsync.ID(), lifted.ID())
	step := model.Step{Stage: model.StagePreValidation, Mode: model.ModeAsynchronous}
	assert.Len(t, lifted.Check(step, model.PluginType{}, nil), 1)
}
