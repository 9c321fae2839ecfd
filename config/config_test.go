package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, BackendBadger, cfg.Storage)
	assert.Equal(t, "duopro:", cfg.BasePrefix)
	assert.Equal(t, 30*time.Second, cfg.ProbeInterval.Std())
	assert.Equal(t, "crm-leads", cfg.Endpoints.Leads)
	assert.NotEmpty(t, cfg.DataDir)
	assert.NoError(t, cfg.Validate())
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := DefaultConfig()
	cfg.BackendURL = "https://portal.example.test"
	cfg.Storage = BackendSQLite
	cfg.FetchTimeout = Duration(4 * time.Second)
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://portal.example.test", loaded.BackendURL)
	assert.Equal(t, BackendSQLite, loaded.Storage)
	assert.Equal(t, 4*time.Second, loaded.FetchTimeout.Std())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"fetch_timeout": "4s"`)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"storage":"sqlite","probe_timeout":1000000000}`), 0600))

	t.Setenv("PORTAL_STORAGE", "charm")
	t.Setenv("PORTAL_FETCH_TIMEOUT", "7s")
	t.Setenv("PORTAL_TASKS_ENDPOINT", "project-tasks")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendCharm, cfg.Storage)
	assert.Equal(t, time.Second, cfg.ProbeTimeout.Std())
	assert.Equal(t, 7*time.Second, cfg.FetchTimeout.Std())
	assert.Equal(t, "project-tasks", cfg.Endpoints.Tasks)
}

func TestDotEnvIsLoaded(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PORTAL_BACKEND_URL=https://from-dotenv.test\n"), 0600))
	t.Cleanup(func() { _ = os.Unsetenv("PORTAL_BACKEND_URL") })

	cfg, err := Load(filepath.Join(dir, "none.json"))
	require.NoError(t, err)
	assert.Equal(t, "https://from-dotenv.test", cfg.BackendURL)
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage = "redis"
	assert.Error(t, cfg.Validate())
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDurationsAcceptHumanStrings(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"probe_interval":"45s","probe_timeout":"1500ms"}`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.ProbeInterval.Std())
	assert.Equal(t, 1500*time.Millisecond, cfg.ProbeTimeout.Std())

	require.NoError(t, os.WriteFile(path, []byte(`{"probe_interval":"soon"}`), 0600))
	_, err = Load(path)
	assert.Error(t, err)
}
