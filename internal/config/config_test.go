package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(flags)
	return flags
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hxpage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault_ReturnsExpectedDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "/_hx/dispatch", cfg.Server.DispatchPath)
	assert.Equal(t, 30*time.Minute, cfg.Server.SessionTTL)
	assert.False(t, cfg.App.SealedTokens)
	assert.Equal(t, 100*time.Millisecond, cfg.App.RefreshDelay)
	assert.Equal(t, 4, cfg.App.IDLength)
	assert.Equal(t, "keyed", cfg.App.Mode)
	assert.Equal(t, 64, cfg.App.MaxPublishDepth)
	assert.NoError(t, Validate(cfg))
}

func TestLoad_DefaultsWhenNoSources(t *testing.T) {
	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingFileIsSkipped(t *testing.T) {
	cfg, err := Load(nil, filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
log:
  level: debug
  format: json
app:
  refresh_delay: 250ms
  mode: log
  validate_scripts: true
`)
	cfg, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 250*time.Millisecond, cfg.App.RefreshDelay)
	assert.Equal(t, "log", cfg.App.Mode)
	assert.True(t, cfg.App.ValidateScripts)
	assert.Equal(t, ":8080", cfg.Server.Addr, "untouched keys keep defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "app:\n  mode: log\n")
	t.Setenv("HXPAGE_APP_MODE", "keyed")
	t.Setenv("HXPAGE_SERVER_DISPATCH_PATH", "/dispatch")

	cfg, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, "keyed", cfg.App.Mode)
	assert.Equal(t, "/dispatch", cfg.Server.DispatchPath)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("HXPAGE_SERVER_ADDR", ":9000")
	flags := newTestFlagSet()
	require.NoError(t, flags.Parse([]string{"--server.addr=:7000", "--app.refresh_delay=1s"}))

	cfg, err := Load(flags, "")
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, time.Second, cfg.App.RefreshDelay)
}

func TestLoad_SessionAndTokenSettings(t *testing.T) {
	t.Setenv("HXPAGE_APP_SEALED_TOKENS", "true")
	flags := newTestFlagSet()
	require.NoError(t, flags.Parse([]string{"--server.session_ttl=5m"}))

	cfg, err := Load(flags, "")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.Server.SessionTTL)
	assert.True(t, cfg.App.SealedTokens)
}

func TestLoad_UnchangedFlagsDoNotOverrideEnv(t *testing.T) {
	t.Setenv("HXPAGE_LOG_FORMAT", "json")
	cfg, err := Load(newTestFlagSet(), "")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_DebugFlag(t *testing.T) {
	flags := newTestFlagSet()
	require.NoError(t, flags.Parse([]string{"--debug"}))
	cfg, err := Load(flags, "")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"mode", "app:\n  mode: sometimes\n"},
		{"format", "log:\n  format: xml\n"},
		{"dispatch path", "server:\n  dispatch_path: dispatch\n"},
		{"id length", "app:\n  id_length: 0\n"},
		{"key", "server:\n  key: not-hex\n"},
		{"session ttl", "server:\n  session_ttl: -1s\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(nil, writeFile(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestKeyBytes(t *testing.T) {
	key, err := ServerConfig{}.KeyBytes()
	require.NoError(t, err)
	assert.Nil(t, key)

	_, err = ServerConfig{Key: "abcd"}.KeyBytes()
	assert.Error(t, err, "short keys are rejected")

	hex64 := "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
	key, err = ServerConfig{Key: hex64}.KeyBytes()
	require.NoError(t, err)
	assert.Len(t, key, 32)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "log.level", envKey("HXPAGE_LOG_LEVEL"))
	assert.Equal(t, "app.max_publish_depth", envKey("HXPAGE_APP_MAX_PUBLISH_DEPTH"))
}
