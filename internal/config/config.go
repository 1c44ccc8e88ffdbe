package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/vango-dev/regform/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "regform.json"

	// DotEnvFileName is the dotenv file read next to the config file.
	DotEnvFileName = ".env"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "REGFORM_"

	// DefaultDebounce is the quiet period before the async first-name check.
	DefaultDebounce = 500 * time.Millisecond

	// DefaultAsyncLatency is the simulated latency of the async check.
	DefaultAsyncLatency = time.Second

	// DefaultSubmitLatency is the simulated latency of the submit call.
	DefaultSubmitLatency = time.Second

	// DefaultMinFirstName is the minimum first name length.
	DefaultMinFirstName = 3

	// DefaultMinLastName is the minimum last name length.
	DefaultMinLastName = 2

	// DefaultQueueSize is the event loop buffer size.
	DefaultQueueSize = 256

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default log handler.
	DefaultLogFormat = "text"
)

// Config is the regform.json configuration. Every key can be overridden
// with a REGFORM_ environment variable.
type Config struct {
	// Debounce is the quiet period before async validation starts.
	Debounce Duration `json:"debounce,omitempty" env:"DEBOUNCE"`

	// AsyncLatency is the simulated latency of the first-name check.
	AsyncLatency Duration `json:"asyncLatency,omitempty" env:"ASYNC_LATENCY"`

	// SubmitLatency is the simulated latency of the submit call.
	SubmitLatency Duration `json:"submitLatency,omitempty" env:"SUBMIT_LATENCY"`

	// MinFirstName is the minimum first name length in characters.
	MinFirstName int `json:"minFirstName,omitempty" env:"MIN_FIRST_NAME"`

	// MinLastName is the minimum last name length in characters.
	MinLastName int `json:"minLastName,omitempty" env:"MIN_LAST_NAME"`

	// QueueSize is the event loop buffer size.
	QueueSize int `json:"queueSize,omitempty" env:"QUEUE_SIZE"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"logLevel,omitempty" env:"LOG_LEVEL"`

	// LogFormat is text or json.
	LogFormat string `json:"logFormat,omitempty" env:"LOG_FORMAT"`

	// MetricsAddr, when set, serves Prometheus metrics on this address.
	MetricsAddr string `json:"metricsAddr,omitempty" env:"METRICS_ADDR"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Debounce:      Duration(DefaultDebounce),
		AsyncLatency:  Duration(DefaultAsyncLatency),
		SubmitLatency: Duration(DefaultSubmitLatency),
		MinFirstName:  DefaultMinFirstName,
		MinLastName:   DefaultMinLastName,
		QueueSize:     DefaultQueueSize,
		LogLevel:      DefaultLogLevel,
		LogFormat:     DefaultLogFormat,
	}
}

// Load builds the configuration in layers: defaults, the JSON file at path
// (skipped when path is empty), the dotenv file, then the environment.
// A missing dotenv file is not an error.
func Load(path, dotenv string) (*Config, error) {
	cfg := New()
	if path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return nil, err
		}
	}

	environ, err := environment(dotenv)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(environ); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E201").
				WithDetail("No " + filepath.Base(path) + " found in " + filepath.Dir(path))
		}
		return nil, errors.New("E200").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E200").
			WithDetail("Failed to parse " + path + ": " + err.Error()).
			WithExample(`{"debounce": "500ms", "asyncLatency": "1s", "minFirstName": 3}`)
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// environment returns the process environment layered over the dotenv
// file, so real variables win over dotenv entries.
func environment(dotenv string) (map[string]string, error) {
	environ := map[string]string{}
	if dotenv != "" {
		values, err := godotenv.Read(dotenv)
		switch {
		case err == nil:
			environ = values
		case !os.IsNotExist(err):
			return nil, errors.New("E203").
				WithDetail("Failed to read " + dotenv).
				Wrap(err)
		}
	}
	for key, value := range env.ToMap(os.Environ()) {
		environ[key] = value
	}
	return environ, nil
}

// ApplyEnv overrides fields from REGFORM_ variables in environ.
func (c *Config) ApplyEnv(environ map[string]string) error {
	err := env.ParseWithOptions(c, env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	})
	if err != nil {
		return errors.New("E203").WithDetail(err.Error()).Wrap(err)
	}
	return nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E200").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E200").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.QueueSize == 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch {
	case c.Debounce < 0:
		return errors.New("E202").WithDetail("debounce must not be negative")
	case c.AsyncLatency < 0:
		return errors.New("E202").WithDetail("asyncLatency must not be negative")
	case c.SubmitLatency < 0:
		return errors.New("E202").WithDetail("submitLatency must not be negative")
	case c.MinFirstName < 0 || c.MinLastName < 0:
		return errors.New("E202").WithDetail("minimum lengths must not be negative")
	case c.QueueSize <= 0:
		return errors.New("E202").WithDetail("queueSize must be positive")
	}

	if _, err := c.SlogLevel(); err != nil {
		return errors.New("E202").
			WithDetail("logLevel must be one of debug, info, warn, error").
			Wrap(err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return errors.New("E202").WithDetail("logFormat must be text or json")
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.LogLevel))
	return level, err
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}
