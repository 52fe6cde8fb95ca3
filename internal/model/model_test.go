package model

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestKeyIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, Key("Contoso.Plugins.Account"), Key("contoso.plugins.ACCOUNT"))
	assert.Equal(t, Key("  ctx_DoThing "), Key("ctx_dothing"))
	assert.NotEqual(t, Key("ctx_a"), Key("ctx_b"))
}

func TestKeyNormalizesUnicode(t *testing.T) {
	// "é" precomposed vs "e" + combining acute accent
	assert.True(t, SameKey("caf\u00e9", "cafe\u0301"))
}

func TestNormalizeAttributes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"name", "name"},
		{"name,description", "description,name"},
		{" Name , description,name,", "description,name"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeAttributes(tt.in), "input %q", tt.in)
	}
}

func TestStepName(t *testing.T) {
	assert.Equal(t, "Contoso.AccountPlugin: PreOperation Update of account",
		StepName("Contoso.AccountPlugin", StagePreOperation, "Update", "account"))
	assert.Equal(t, "Contoso.AssocPlugin: PostOperation Associate of any entity",
		StepName("Contoso.AssocPlugin", StagePostOperation, "Associate", ""))
}

func TestParseEnums(t *testing.T) {
	stage, err := ParseStage("preoperation")
	require.NoError(t, err)
	assert.Equal(t, StagePreOperation, stage)

	stage, err = ParseStage("40")
	require.NoError(t, err)
	assert.Equal(t, StagePostOperation, stage)

	_, err = ParseStage("30")
	assert.Error(t, err)

	_, err = ParseMode("sometimes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid mode")

	bt, err := ParseBindingType("EntityCollection")
	require.NoError(t, err)
	assert.True(t, bt.IsBound())
	assert.False(t, BindingTypeGlobal.IsBound())

	pt, err := ParseParameterType("EntityReference")
	require.NoError(t, err)
	assert.True(t, pt.IsEntityType())
	assert.False(t, ParameterString.IsEntityType())
}

func TestImageTypeCoverage(t *testing.T) {
	assert.True(t, ImageTypePre.HasPre())
	assert.False(t, ImageTypePre.HasPost())
	assert.True(t, ImageTypeBoth.HasPre())
	assert.True(t, ImageTypeBoth.HasPost())
	assert.False(t, ImageTypePost.HasPre())
}

func TestStageIsPreExecution(t *testing.T) {
	assert.True(t, StagePreValidation.IsPreExecution())
	assert.True(t, StagePreOperation.IsPreExecution())
	assert.False(t, StagePostOperation.IsPreExecution())
}

func TestEnumsRoundTripThroughYAML(t *testing.T) {
	in := `
name: s1
event_operation: Update
stage: PreOperation
mode: Asynchronous
deployment: Both
execution_order: 2
images:
  - name: pre
    entity_alias: pre
    image_type: PreImage
`
	var s Step
	require.NoError(t, yaml.Unmarshal([]byte(in), &s))
	assert.Equal(t, StagePreOperation, s.Stage)
	assert.Equal(t, ModeAsynchronous, s.Mode)
	assert.Equal(t, DeploymentBoth, s.Deployment)
	require.Len(t, s.Images, 1)
	assert.Equal(t, ImageTypePre, s.Images[0].ImageType)
}

func TestEnumsMarshalAsNames(t *testing.T) {
	data, err := json.Marshal(Step{Stage: StagePostOperation, Mode: ModeSynchronous})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"stage":"PostOperation"`)
	assert.Contains(t, string(data), `"mode":"Synchronous"`)
}

func TestLinkedFillsParentReferences(t *testing.T) {
	typeID := uuid.New()
	stepID := uuid.New()
	apiID := uuid.New()
	decl := Declaration{
		PluginTypes: []PluginType{{
			ID:   typeID,
			Name: "T",
			Steps: []Step{{
				ID:     stepID,
				Name:   "S",
				Images: []Image{{Name: "I"}},
			}},
		}},
		CustomAPIs: []CustomAPI{{
			ID:                 apiID,
			UniqueName:         "ctx_Api",
			RequestParameters:  []RequestParameter{{UniqueName: "ctx_In"}},
			ResponseProperties: []ResponseProperty{{UniqueName: "ctx_Out"}},
		}},
	}

	linked := decl.Linked()

	step := linked.PluginTypes[0].Steps[0]
	assert.Equal(t, "T", step.PluginTypeName)
	assert.Equal(t, typeID, step.PluginTypeID)
	assert.Equal(t, "S", step.Images[0].StepName)
	assert.Equal(t, stepID, step.Images[0].StepID)
	assert.Equal(t, "T", step.Images[0].PluginTypeName)
	assert.Equal(t, apiID, linked.CustomAPIs[0].RequestParameters[0].CustomAPIID)
	assert.Equal(t, "ctx_Api", linked.CustomAPIs[0].ResponseProperties[0].CustomAPIName)

	// Input untouched
	assert.Empty(t, decl.PluginTypes[0].Steps[0].PluginTypeName)
	assert.Empty(t, decl.CustomAPIs[0].RequestParameters[0].CustomAPIName)
}

func TestUserContextsDistinctAndSorted(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	decl := Declaration{PluginTypes: []PluginType{
		{Name: "T1", Steps: []Step{{Name: "s1", UserContext: a}, {Name: "s2"}}},
		{Name: "T2", Steps: []Step{{Name: "s3", UserContext: b}, {Name: "s4", UserContext: a}}},
	}}
	assert.Equal(t, []uuid.UUID{b, a}, decl.UserContexts())
}
