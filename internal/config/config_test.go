package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/omochice/bobba-client/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bobba.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaultConfig(t *testing.T) {
	cfg := config.LoadDefaultConfig()

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Server.Secure)
	assert.Equal(t, config.TransportWebSocket, cfg.Server.Transport)
	assert.Equal(t, 10*time.Second, cfg.Server.DialTimeout)
	assert.Empty(t, cfg.Admin.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  host: game.example.com
  port: 443
  secure: true
  transport: tcp
  dial_timeout: 3s
login:
  username: Bob
log:
  level: debug
  format: json
admin:
  addr: 127.0.0.1:9090
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "game.example.com", cfg.Server.Host)
	assert.Equal(t, 443, cfg.Server.Port)
	assert.True(t, cfg.Server.Secure)
	assert.Equal(t, config.TransportTCP, cfg.Server.Transport)
	assert.Equal(t, 3*time.Second, cfg.Server.DialTimeout)
	assert.Equal(t, "Bob", cfg.Login.Username)
	assert.NotEmpty(t, cfg.Login.Look, "unset fields keep their defaults")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:9090", cfg.Admin.Addr)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed yaml", content: "server: [\n"},
		{name: "bad port", content: "server:\n  port: 70000\n"},
		{name: "bad transport", content: "server:\n  transport: udp\n"},
		{name: "bad level", content: "log:\n  level: loud\n"},
		{name: "bad format", content: "log:\n  format: xml\n"},
		{name: "empty username", content: "login:\n  username: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSetupLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		t.Run(format, func(t *testing.T) {
			logger, err := config.SetupLogger(config.LogConfig{Level: "warn", Format: format})
			require.NoError(t, err)
			assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
			assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
		})
	}

	_, err := config.SetupLogger(config.LogConfig{Level: "loud", Format: "json"})
	assert.Error(t, err)
}
