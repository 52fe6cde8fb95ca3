package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delegateas/XrmSync-sub000/internal/model"
	"github.com/delegateas/XrmSync-sub000/internal/reconcile"
	"github.com/delegateas/XrmSync-sub000/internal/testutil"
)

var _ reconcile.Writer = (*Writer)(nil)

// openTestStore opens a fresh database with deterministic IDs.
func openTestStore(t *testing.T) (*Store, *testutil.SequentialIDs) {
	t.Helper()
	ids := testutil.NewSequentialIDs()
	s, err := Open(filepath.Join(t.TempDir(), "remote.db"), WithIDGenerator(ids.Next))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, ids
}

func seedTestStore(t *testing.T) *Store {
	t.Helper()
	s, _ := openTestStore(t)
	fx, err := LoadFixture(filepath.Join("testdata", "remote.yaml"))
	require.NoError(t, err)
	require.NoError(t, s.Seed(context.Background(), fx))
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		s.Close()
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	for _, table := range []string{"plugin_types", "steps", "images", "custom_apis", "request_parameters", "response_properties", "system_users"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %q not found", table)
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s, _ := openTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
}

func TestOpen_CreatesLookupIndexes(t *testing.T) {
	s, _ := openTestStore(t)

	for _, index := range []string{
		"idx_plugin_types_solution",
		"idx_steps_plugin_type",
		"idx_images_step",
		"idx_custom_apis_solution",
		"idx_request_parameters_api",
		"idx_response_properties_api",
	} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name=?", index).Scan(&name)
		assert.NoError(t, err, "index %q not found", index)
	}
}

func TestSnapshot_FromFixture(t *testing.T) {
	s := seedTestStore(t)

	decl, err := s.Snapshot(context.Background(), "Core")
	require.NoError(t, err)
	assert.Equal(t, "Core", decl.Solution)

	require.Len(t, decl.PluginTypes, 1)
	pt := decl.PluginTypes[0]
	assert.Equal(t, testutil.ID(1), pt.ID)

	require.Len(t, pt.Steps, 1)
	step := pt.Steps[0]
	assert.Equal(t, testutil.ID(2), step.ID)
	assert.Equal(t, pt.ID, step.PluginTypeID)
	assert.Equal(t, pt.Name, step.PluginTypeName)
	assert.Equal(t, model.StagePostOperation, step.Stage)
	assert.Equal(t, 1, step.ExecutionOrder)
	assert.Equal(t, uuid.MustParse("5f0c1c52-0000-0000-0000-000000000001"), step.UserContext)

	require.Len(t, step.Images, 1)
	assert.Equal(t, step.ID, step.Images[0].StepID)
	assert.Equal(t, step.Name, step.Images[0].StepName)
	assert.Equal(t, model.ImageTypePre, step.Images[0].ImageType)

	require.Len(t, decl.CustomAPIs, 1)
	api := decl.CustomAPIs[0]
	assert.Equal(t, model.BindingTypeEntity, api.BindingType)
	require.Len(t, api.RequestParameters, 1)
	assert.Equal(t, model.ParameterEntityReference, api.RequestParameters[0].Type)
	assert.Equal(t, api.ID, api.RequestParameters[0].CustomAPIID)
	require.Len(t, api.ResponseProperties, 1)
	assert.Equal(t, "ctx_Recalculate", api.ResponseProperties[0].CustomAPIName)
}

func TestSnapshot_ScopedToSolution(t *testing.T) {
	s := seedTestStore(t)

	other, err := s.Snapshot(context.Background(), "Other")
	require.NoError(t, err)
	require.Len(t, other.PluginTypes, 1)
	assert.Equal(t, "Other.Plugin", other.PluginTypes[0].Name)
	assert.Empty(t, other.CustomAPIs)

	unknown, err := s.Snapshot(context.Background(), "Missing")
	require.NoError(t, err)
	assert.Empty(t, unknown.PluginTypes)
}

func TestMissingUserContexts(t *testing.T) {
	s := seedTestStore(t)
	known := uuid.MustParse("5f0c1c52-0000-0000-0000-000000000001")
	unknown := uuid.MustParse("5f0c1c52-0000-0000-0000-000000000002")

	missing, err := s.MissingUserContexts(context.Background(), []uuid.UUID{known, unknown})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{unknown}, missing)

	require.NoError(t, s.AddUser(context.Background(), unknown, "late user"))
	missing, err = s.MissingUserContexts(context.Background(), []uuid.UUID{known, unknown})
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestWriter_CreateUpdateDelete(t *testing.T) {
	s, ids := openTestStore(t)
	ctx := context.Background()
	w := s.Writer("Core")

	typeID, err := w.CreatePluginType(ctx, model.PluginType{Name: "T"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), ids.Current())

	stepID, err := w.CreateStep(ctx, model.Step{
		Name:           "S",
		PluginTypeID:   typeID,
		EventOperation: "Update",
		Stage:          model.StagePostOperation,
		Mode:           model.ModeAsynchronous,
	})
	require.NoError(t, err)

	imageID, err := w.CreateImage(ctx, model.Image{Name: "post", StepID: stepID, ImageType: model.ImageTypePost})
	require.NoError(t, err)

	require.NoError(t, w.UpdateStep(ctx, model.Step{
		ID:             stepID,
		Name:           "S",
		EventOperation: "Update",
		Stage:          model.StagePostOperation,
		Mode:           model.ModeAsynchronous,
		ExecutionOrder: 5,
	}))

	decl, err := s.Snapshot(ctx, "Core")
	require.NoError(t, err)
	require.Len(t, decl.PluginTypes, 1)
	require.Len(t, decl.PluginTypes[0].Steps, 1)
	assert.Equal(t, 5, decl.PluginTypes[0].Steps[0].ExecutionOrder)
	assert.Equal(t, model.ModeAsynchronous, decl.PluginTypes[0].Steps[0].Mode)

	err = w.Delete(ctx, model.KindStep, stepID)
	require.Error(t, err, "step still has an image")

	require.NoError(t, w.Delete(ctx, model.KindImage, imageID))
	require.NoError(t, w.Delete(ctx, model.KindStep, stepID))
	require.NoError(t, w.Delete(ctx, model.KindPluginType, typeID))

	decl, err = s.Snapshot(ctx, "Core")
	require.NoError(t, err)
	assert.Empty(t, decl.PluginTypes)
}

func TestWriter_CustomAPIRoundTrip(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	w := s.Writer("Core")

	apiID, err := w.CreateCustomAPI(ctx, model.CustomAPI{UniqueName: "ctx_Do", BindingType: model.BindingTypeGlobal, IsFunction: true})
	require.NoError(t, err)
	_, err = w.CreateRequestParameter(ctx, model.RequestParameter{UniqueName: "ctx_In", CustomAPIID: apiID, Type: model.ParameterString, IsOptional: true})
	require.NoError(t, err)
	propID, err := w.CreateResponseProperty(ctx, model.ResponseProperty{UniqueName: "ctx_Out", CustomAPIID: apiID, Type: model.ParameterInteger})
	require.NoError(t, err)

	require.NoError(t, w.UpdateCustomAPI(ctx, model.CustomAPI{ID: apiID, UniqueName: "ctx_Do", IsFunction: true, Description: "does"}))
	require.NoError(t, w.UpdateResponseProperty(ctx, model.ResponseProperty{ID: propID, UniqueName: "ctx_Out", Type: model.ParameterInteger, DisplayName: "Out"}))

	decl, err := s.Snapshot(ctx, "Core")
	require.NoError(t, err)
	require.Len(t, decl.CustomAPIs, 1)
	api := decl.CustomAPIs[0]
	assert.Equal(t, "does", api.Description)
	assert.True(t, api.IsFunction)
	require.Len(t, api.RequestParameters, 1)
	assert.True(t, api.RequestParameters[0].IsOptional)
	require.Len(t, api.ResponseProperties, 1)
	assert.Equal(t, "Out", api.ResponseProperties[0].DisplayName)
}

func TestWriter_NotFound(t *testing.T) {
	s, _ := openTestStore(t)
	w := s.Writer("Core")

	err := w.UpdateImage(context.Background(), model.Image{ID: testutil.ID(99)})
	assert.ErrorIs(t, err, ErrNotFound)

	err = w.Delete(context.Background(), model.KindCustomAPI, testutil.ID(99))
	assert.ErrorIs(t, err, ErrNotFound)

	err = w.Delete(context.Background(), model.Kind("widget"), testutil.ID(99))
	assert.ErrorContains(t, err, "unknown kind")
}

func TestWriter_CreateStepRequiresParent(t *testing.T) {
	s, _ := openTestStore(t)

	_, err := s.Writer("Core").CreateStep(context.Background(), model.Step{Name: "orphan", PluginTypeID: testutil.ID(42)})
	assert.Error(t, err, "foreign key must reject unknown parent")
}

func TestLoadFixture_RejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("solutions:\n  Core:\n    plugins: []\n"), 0o644))

	_, err := LoadFixture(path)
	assert.Error(t, err)
}
