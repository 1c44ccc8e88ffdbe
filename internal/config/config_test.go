package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/regform/internal/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNew(t *testing.T) {
	cfg := New()

	assert.Equal(t, DefaultDebounce, cfg.Debounce.Std())
	assert.Equal(t, DefaultAsyncLatency, cfg.AsyncLatency.Std())
	assert.Equal(t, DefaultSubmitLatency, cfg.SubmitLatency.Std())
	assert.Equal(t, DefaultMinFirstName, cfg.MinFirstName)
	assert.Equal(t, DefaultMinLastName, cfg.MinLastName)
	assert.Equal(t, DefaultQueueSize, cfg.QueueSize)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultLogFormat, cfg.LogFormat)
	assert.Empty(t, cfg.MetricsAddr)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ConfigFileName, `{
  "debounce": "250ms",
  "asyncLatency": "2s",
  "minFirstName": 4,
  "logFormat": "json"
}
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Debounce.Std())
	assert.Equal(t, 2*time.Second, cfg.AsyncLatency.Std())
	assert.Equal(t, DefaultSubmitLatency, cfg.SubmitLatency.Std(), "unset keys keep defaults")
	assert.Equal(t, 4, cfg.MinFirstName)
	assert.Equal(t, DefaultMinLastName, cfg.MinLastName)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, path, cfg.Path())
	assert.True(t, Exists(dir))
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, ConfigFileName))
	assert.Equal(t, "E201", errors.Code(err))
	assert.False(t, Exists(dir))

	bad := writeFile(t, dir, "bad.json", `{"debounce": 500`)
	_, err = LoadFile(bad)
	assert.Equal(t, "E200", errors.Code(err))

	badDuration := writeFile(t, dir, "dur.json", `{"debounce": "soon"}`)
	_, err = LoadFile(badDuration)
	assert.Equal(t, "E200", errors.Code(err))
}

func TestApplyEnv(t *testing.T) {
	cfg := New()
	err := cfg.ApplyEnv(map[string]string{
		"REGFORM_DEBOUNCE":       "750ms",
		"REGFORM_MIN_LAST_NAME":  "5",
		"REGFORM_METRICS_ADDR":   ":9090",
		"REGFORM_LOG_LEVEL":      "debug",
		"DEBOUNCE":               "1h",
		"OTHER_APP_SUBMIT_DELAY": "1h",
	})
	require.NoError(t, err)

	assert.Equal(t, 750*time.Millisecond, cfg.Debounce.Std())
	assert.Equal(t, 5, cfg.MinLastName)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, DefaultSubmitLatency, cfg.SubmitLatency.Std(), "unprefixed variables are ignored")
}

func TestApplyEnvInvalid(t *testing.T) {
	cfg := New()
	err := cfg.ApplyEnv(map[string]string{"REGFORM_DEBOUNCE": "soon"})
	require.Error(t, err)
	assert.Equal(t, "E203", errors.Code(err))
}

func TestLoadLayers(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ConfigFileName, `{"debounce": "100ms", "submitLatency": "3s", "minFirstName": 2}`)
	dotenv := writeFile(t, dir, DotEnvFileName, "REGFORM_SUBMIT_LATENCY=4s\nREGFORM_MIN_FIRST_NAME=6\n")
	t.Setenv("REGFORM_MIN_FIRST_NAME", "7")

	cfg, err := Load(path, dotenv)
	require.NoError(t, err)

	assert.Equal(t, 100*time.Millisecond, cfg.Debounce.Std(), "file over defaults")
	assert.Equal(t, 4*time.Second, cfg.SubmitLatency.Std(), "dotenv over file")
	assert.Equal(t, 7, cfg.MinFirstName, "environment over dotenv")
}

func TestLoadWithoutFiles(t *testing.T) {
	cfg, err := Load("", filepath.Join(t.TempDir(), DotEnvFileName))
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounce, cfg.Debounce.Std())
	assert.Empty(t, cfg.Path())
}

func TestLoadValidates(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ConfigFileName, `{"logFormat": "xml"}`)

	_, err := Load(path, "")
	assert.Equal(t, "E202", errors.Code(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults", func(*Config) {}, true},
		{"zero debounce", func(c *Config) { c.Debounce = 0 }, true},
		{"negative debounce", func(c *Config) { c.Debounce = Duration(-time.Second) }, false},
		{"negative latency", func(c *Config) { c.AsyncLatency = Duration(-1) }, false},
		{"negative submit latency", func(c *Config) { c.SubmitLatency = Duration(-1) }, false},
		{"negative min", func(c *Config) { c.MinLastName = -1 }, false},
		{"zero queue", func(c *Config) { c.QueueSize = 0 }, false},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, false},
		{"upper level", func(c *Config) { c.LogLevel = "WARN" }, true},
		{"json format", func(c *Config) { c.LogFormat = "json" }, true},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, "E202", errors.Code(err))
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	cfg := New()
	cfg.LogLevel = "debug"
	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)

	cfg := New()
	assert.Error(t, cfg.Save(), "no path yet")

	cfg.Debounce = Duration(300 * time.Millisecond)
	cfg.MetricsAddr = ":9100"
	require.NoError(t, cfg.SaveTo(path))
	assert.Equal(t, path, cfg.Path())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"debounce": "300ms"`)

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Debounce, loaded.Debounce)
	assert.Equal(t, ":9100", loaded.MetricsAddr)

	loaded.MinFirstName = 5
	require.NoError(t, loaded.Save())
	again, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5, again.MinFirstName)
}
