package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tek.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()
	assert.Equal(t, 4000, cfg.Instrument.Port)
	assert.Equal(t, 10*time.Second, cfg.Instrument.Timeout)
	assert.Equal(t, ":8000", cfg.Server.Listen)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
instrument:
  address: 192.168.1.20
  timeout: 30s
redis:
  enabled: true
  addr: redis:6379
  channel: scope
log:
  level: debug
  format: json
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.20", cfg.Instrument.Address)
	assert.Equal(t, 30*time.Second, cfg.Instrument.Timeout)
	// defaults survive for keys not in the file
	assert.Equal(t, 4000, cfg.Instrument.Port)
	assert.Equal(t, ":8000", cfg.Server.Listen)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "scope", cfg.Redis.Channel)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "instrument: [1, 2"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "instrument:\n  timeout: soon\n"))
	assert.Error(t, err)
}

func TestSetupLogger(t *testing.T) {
	std := log.StandardLogger()
	level, formatter, out := std.GetLevel(), std.Formatter, std.Out
	t.Cleanup(func() {
		std.SetLevel(level)
		std.SetFormatter(formatter)
		std.SetOutput(out)
	})

	path := filepath.Join(t.TempDir(), "tek.log")
	logger := SetupLogger(LogConfig{Level: "debug", Format: "json", Output: "file", FilePath: path})
	assert.Equal(t, log.DebugLevel, logger.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, logger.Formatter)
	assert.Equal(t, log.DebugLevel, std.GetLevel())

	log.Debug("to the file")
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"to the file"`)

	logger = SetupLogger(LogConfig{Level: "nonsense"})
	assert.Equal(t, log.InfoLevel, logger.GetLevel())
	assert.IsType(t, &log.TextFormatter{}, logger.Formatter)
}
