package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingDefaultFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	testChdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, cfg.SocketPath+".lock", cfg.LockPath)
	assert.Equal(t, "localhost:3310", cfg.Security.ClamdAddress)
	assert.Zero(t, cfg.EngineTimeout())
}

func TestLoadExplicitFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	testChdir(t, t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
socket_path = "~/run/pdfsuite.sock"
engine_path = "/opt/lo/soffice"
engine_timeout_seconds = 90
log_format = "json"

[security]
scan_inputs = true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "run", "pdfsuite.sock"), cfg.SocketPath)
	assert.Equal(t, "/opt/lo/soffice", cfg.EnginePath)
	assert.Equal(t, 90*time.Second, cfg.EngineTimeout())
	assert.True(t, cfg.Security.ScanInputs)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	testChdir(t, t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	testChdir(t, t.TempDir())
	t.Setenv("PDFSUITE_ENGINE", "/usr/local/bin/soffice")
	t.Setenv("PDFSUITE_SCAN_INPUTS", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/soffice", cfg.EnginePath)
	assert.True(t, cfg.Security.ScanInputs)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.LogFormat = "xml"
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.EngineTimeoutSeconds = -1
	require.Error(t, cfg.Validate())
}
