package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delegateas/XrmSync-sub000/internal/declare"
	"github.com/delegateas/XrmSync-sub000/internal/difference"
	"github.com/delegateas/XrmSync-sub000/internal/model"
	"github.com/delegateas/XrmSync-sub000/internal/reconcile"
	"github.com/delegateas/XrmSync-sub000/internal/validation"
)

const coreDeclaration = `package xrmsync

solution: "Core"
prefix:   "ctx"

plugin: "Ctx.Plugins.AccountPlugin": step: [{
	message: "Update"
	entity:  "account"
	stage:   "PostOperation"
	image: [{alias: "pre", type: "PreImage", attributes: ["name"]}]
}]

customapi: "ctx_Recalculate": {
	plugin_type: "Ctx.Plugins.RecalculateApi"
	request: "ctx_Target": {type: "EntityReference", entity: "account"}
}
`

// writeDeclaration writes src as the only CUE file of a fresh directory.
func writeDeclaration(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "declaration.cue"), []byte(src), 0o644))
	return dir
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "remote.db")
}

func TestValidateValidDeclaration(t *testing.T) {
	dir := writeDeclaration(t, coreDeclaration)

	out, err := execute(t, "validate", dir)
	require.NoError(t, err)
	assert.Equal(t, "✓ Declaration valid: 1 plugin type(s), 1 custom API(s)\n", out)
}

func TestValidateValidDeclarationJSON(t *testing.T) {
	dir := writeDeclaration(t, coreDeclaration)

	out, err := execute(t, "--format", "json", "validate", dir)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, "Core", resp.Data.Solution)
	assert.Equal(t, 1, resp.Data.PluginTypes)
	assert.Equal(t, 1, resp.Data.CustomAPIs)
}

func TestValidateMissingDirectory(t *testing.T) {
	out, err := execute(t, "validate", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), declare.ErrCodeNotFound)
	assert.Contains(t, out, "not found")
}

func TestValidateEmptyDirectory(t *testing.T) {
	_, err := execute(t, "validate", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), declare.ErrCodeNoFiles)
}

func TestValidateReportsEveryViolation(t *testing.T) {
	dir := writeDeclaration(t, `package xrmsync

prefix: "ctx"

plugin: "T": step: [{
	message: "Update"
	entity:  "account"
	stage:   "PreOperation"
	mode:    "Asynchronous"
}]

customapi: "Recalculate": {}
`)

	out, err := execute(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "2 violation(s)")

	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "["+validation.ErrPreStageAsync+"]")
	assert.Contains(t, out, "["+validation.ErrMissingPrefix+"]")
}

func TestValidateViolationsJSON(t *testing.T) {
	dir := writeDeclaration(t, `package xrmsync

prefix: "ctx"
customapi: "Recalculate": {}
`)

	out, err := execute(t, "--format", "json", "validate", dir)
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Violations, 1)
	assert.Equal(t, validation.ErrMissingPrefix, resp.Data.Violations[0].Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, validation.ErrMissingPrefix, resp.Error.Code)
}

func TestValidatePrefixFlagOverridesDeclaration(t *testing.T) {
	dir := writeDeclaration(t, coreDeclaration)

	out, err := execute(t, "validate", "--prefix", "new", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "["+validation.ErrMissingPrefix+"]")
	assert.Contains(t, out, "["+validation.ErrParameterMissingPrefix+"]")
}

func TestValidateInvalidDeclaration(t *testing.T) {
	dir := writeDeclaration(t, `package xrmsync

plugin: "T": step: [{
	message:      "Update"
	stage:        "PostOperation"
	user_context: "not-a-uuid"
}]
`)

	out, err := execute(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Declaration invalid")
	assert.Contains(t, out, "not-a-uuid")
}

func TestValidateSchemaError(t *testing.T) {
	dir := writeDeclaration(t, `package xrmsync

plugin: "T": step: [{
	message: "Update"
	stage:   "Sideways"
}]
`)

	out, err := execute(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, declare.ErrCodeBuildFailed)
}

func TestDiffAgainstEmptyStore(t *testing.T) {
	dir := writeDeclaration(t, coreDeclaration)

	out, err := execute(t, "diff", "--db", tempDB(t), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "to create, 0 to update, 0 to delete.")
	assert.Contains(t, out, `+ create plugin type "Ctx.Plugins.AccountPlugin"`)
	assert.Contains(t, out, `+ create image "pre" in "Ctx.Plugins.AccountPlugin: PostOperation Update of account"`)
	assert.Contains(t, out, `+ create request parameter "ctx_Target" in "ctx_Recalculate"`)
}

func TestDiffJSON(t *testing.T) {
	dir := writeDeclaration(t, coreDeclaration)

	out, err := execute(t, "--format", "json", "diff", "--db", tempDB(t), dir)
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Operations []reconcile.Operation `json:"operations"`
			Summary    []difference.Counts   `json:"summary"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.NotEmpty(t, resp.Data.Operations)
	assert.Equal(t, reconcile.ActionCreate, resp.Data.Operations[0].Action)
	assert.Equal(t, model.KindPluginType, resp.Data.Operations[0].Kind)
	assert.NotEmpty(t, resp.Data.Summary)
}

func TestSyncThenDiffFindsNothing(t *testing.T) {
	dir := writeDeclaration(t, coreDeclaration)
	db := tempDB(t)

	out, err := execute(t, "sync", "--db", db, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Applied ")

	out, err = execute(t, "diff", "--db", db, dir)
	require.NoError(t, err)
	assert.Equal(t, "No changes.\n", out)

	out, err = execute(t, "sync", "--db", db, dir)
	require.NoError(t, err)
	assert.Equal(t, "No changes.\n", out, "a converged solution needs no writes")
}

func TestSyncDryRunWritesNothing(t *testing.T) {
	dir := writeDeclaration(t, coreDeclaration)
	db := tempDB(t)

	out, err := execute(t, "sync", "--dry-run", "--db", db, dir)
	require.NoError(t, err)
	assert.Contains(t, out, `+ create custom api "ctx_Recalculate"`)
	assert.Contains(t, out, "Dry run: no changes applied.")

	out, err = execute(t, "diff", "--db", db, dir)
	require.NoError(t, err)
	assert.NotEqual(t, "No changes.\n", out)
}

func TestSyncJSON(t *testing.T) {
	dir := writeDeclaration(t, coreDeclaration)

	out, err := execute(t, "--format", "json", "sync", "--db", tempDB(t), dir)
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Solution string `json:"solution"`
			DryRun   bool   `json:"dry_run"`
			Applied  int    `json:"applied"`
			Plan     struct {
				Operations []reconcile.Operation `json:"operations"`
			} `json:"plan"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "Core", resp.Data.Solution)
	assert.False(t, resp.Data.DryRun)
	assert.Equal(t, len(resp.Data.Plan.Operations), resp.Data.Applied)
}

func TestSyncRemovesUndeclaredEntities(t *testing.T) {
	db := tempDB(t)
	_, err := execute(t, "sync", "--db", db, writeDeclaration(t, coreDeclaration))
	require.NoError(t, err)

	out, err := execute(t, "sync", "--db", db, writeDeclaration(t, `package xrmsync

solution: "Core"
prefix:   "ctx"

plugin: "Ctx.Plugins.AccountPlugin": step: [{
	message: "Update"
	entity:  "account"
	stage:   "PostOperation"
}]
`))
	require.NoError(t, err)
	assert.Contains(t, out, `- delete image "pre" in "Ctx.Plugins.AccountPlugin: PostOperation Update of account"`)
	assert.Contains(t, out, `- delete request parameter "ctx_Target" in "ctx_Recalculate"`)
	assert.Contains(t, out, `- delete custom api "ctx_Recalculate"`)
	assert.NotContains(t, out, "plugin type", "the declared plugin type is kept")
}

func TestSyncRejectsUnknownUserContext(t *testing.T) {
	dir := writeDeclaration(t, `package xrmsync

solution: "Core"

plugin: "T": step: [{
	message:      "Update"
	entity:       "account"
	stage:        "PostOperation"
	user_context: "5f0c1c52-0000-0000-0000-000000000001"
}]
`)
	db := tempDB(t)

	out, err := execute(t, "sync", "--db", db, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "["+validation.ErrUserContextMissing+"]")

	out, err = execute(t, "diff", "--db", db, writeDeclaration(t, `package xrmsync
solution: "Core"
`))
	require.NoError(t, err)
	assert.Equal(t, "No changes.\n", out, "a rejected declaration writes nothing")
}

func TestSyncWithoutSolution(t *testing.T) {
	dir := writeDeclaration(t, `package xrmsync
prefix: "ctx"
`)

	out, err := execute(t, "sync", "--db", tempDB(t), dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNoSolution)
}

func TestSolutionFromEnvironment(t *testing.T) {
	t.Setenv("XRMSYNC_SOLUTION", "FromEnv")
	dir := writeDeclaration(t, `package xrmsync
prefix: "ctx"
`)

	out, err := execute(t, "--format", "json", "sync", "--db", tempDB(t), dir)
	require.NoError(t, err)
	assert.Contains(t, out, `"solution": "FromEnv"`)
}

func TestConfigFileSuppliesDatabase(t *testing.T) {
	db := tempDB(t)
	cfgPath := filepath.Join(t.TempDir(), "xrmsync.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database: "+db+"\ndry_run: true\n"), 0o644))
	dir := writeDeclaration(t, coreDeclaration)

	out, err := execute(t, "--config", cfgPath, "sync", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Dry run: no changes applied.")
	assert.FileExists(t, db)
}

func TestMissingConfigFile(t *testing.T) {
	dir := writeDeclaration(t, coreDeclaration)

	out, err := execute(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeConfig)
}
