package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// loadConfigFromYAML writes yaml to a temp file and loads it.
func loadConfigFromYAML(t *testing.T, yaml string) (Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xrmsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return Load(viper.New(), path)
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	require.Equal(t, Defaults(), cfg)
}

func TestLoad_File(t *testing.T) {
	cfg, err := loadConfigFromYAML(t, `
source: ./declarations
solution: Core
prefix: ctx
database: /tmp/remote.db
dry_run: true
log_level: debug
`)
	require.NoError(t, err)
	require.Equal(t, "./declarations", cfg.Source)
	require.Equal(t, "Core", cfg.Solution)
	require.Equal(t, "ctx", cfg.Prefix)
	require.Equal(t, "/tmp/remote.db", cfg.Database)
	require.True(t, cfg.DryRun)
	require.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("XRMSYNC_SOLUTION", "FromEnv")
	t.Setenv("XRMSYNC_DRY_RUN", "true")

	cfg, err := loadConfigFromYAML(t, "solution: FromFile\n")
	require.NoError(t, err)
	require.Equal(t, "FromEnv", cfg.Solution)
	require.True(t, cfg.DryRun)
}

func TestLoad_FlagOverridesEnv(t *testing.T) {
	t.Setenv("XRMSYNC_DATABASE", "env.db")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("db", "", "")
	require.NoError(t, flags.Parse([]string{"--db", "flag.db"}))

	v := viper.New()
	require.NoError(t, v.BindPFlag("database", flags.Lookup("db")))

	chdir(t, t.TempDir())
	cfg, err := Load(v, "")
	require.NoError(t, err)
	require.Equal(t, "flag.db", cfg.Database)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	_, err := loadConfigFromYAML(t, "log_level: loud\n")
	require.ErrorContains(t, err, "invalid log_level")
}

func TestValidate_EmptyDatabase(t *testing.T) {
	cfg := Defaults()
	cfg.Database = " "
	require.Error(t, cfg.Validate())
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) on older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
