package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "roster.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Monitor.Enabled)
	assert.Equal(t, time.Hour, cfg.Monitor.Interval)
}

func TestLoad_FileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
database:
  path: ":memory:"
monitor:
  interval: 15m
`), 0o600))

	t.Setenv("ROSTER_SERVER_PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port, "env wins over file")
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.Equal(t, 15*time.Minute, cfg.Monitor.Interval)
}

func TestLoad_MalformedDotEnv(t *testing.T) {
	// GIVEN: A .env file with an invalid variable name
	// WHEN: Loading configuration
	// THEN: The parse error is returned instead of being skipped

	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ROSTER-PORT=9000\n"), 0o600))

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".env")
}

func TestValidate(t *testing.T) {
	valid := Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Driver: "sqlite", Path: "x.db"},
		Log:      LogConfig{Level: "info", Format: "json"},
		Monitor:  MonitorConfig{Enabled: true, Interval: time.Minute},
	}
	require.NoError(t, valid.Validate())

	memory := valid
	memory.Database = DatabaseConfig{Driver: "memory"}
	require.NoError(t, memory.Validate(), "memory store needs no path")

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"empty db path", func(c *Config) { c.Database.Path = " " }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "postgres" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"zero monitor interval", func(c *Config) { c.Monitor.Interval = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger(LogConfig{Level: "nope"})
	assert.Error(t, err)
}
