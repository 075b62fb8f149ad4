package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vango-dev/tabledash/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "tabledash.json"

	// DefaultPort is the default server port.
	DefaultPort = 3000

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultBaseURL is the users API the dashboard reads from.
	DefaultBaseURL = "https://67eb9e33aa794fb3222ae85f.mockapi.io/api/v1"

	// DefaultMetricsPath is where Prometheus metrics are served.
	DefaultMetricsPath = "/metrics"

	// Environment overrides.
	EnvPort   = "TABLEDASH_PORT"
	EnvAPIURL = "TABLEDASH_API_URL"
)

// Config represents tabledash.json.
type Config struct {
	Server  ServerConfig  `json:"server"`
	API     APIConfig     `json:"api"`
	Table   TableConfig   `json:"table"`
	Metrics MetricsConfig `json:"metrics"`
	Log     LogConfig     `json:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

// APIConfig contains remote users API settings. Durations use
// time.ParseDuration syntax.
type APIConfig struct {
	BaseURL      string `json:"baseURL,omitempty"`
	Timeout      string `json:"timeout,omitempty"`
	StaleTime    string `json:"staleTime,omitempty"`
	Retries      int    `json:"retries,omitempty"`
	RetryDelay   string `json:"retryDelay,omitempty"`
	OptionsDelay string `json:"optionsDelay,omitempty"`
}

// TableConfig contains URL state settings for the table.
type TableConfig struct {
	PerPage    int    `json:"perPage,omitempty"`
	ThrottleMs int    `json:"throttleMs,omitempty"`
	DebounceMs int    `json:"debounceMs,omitempty"`
	History    string `json:"history,omitempty"`
	FilterMode string `json:"filterMode,omitempty"`

	// ClearOnDefault is a pointer so an explicit false survives defaults.
	ClearOnDefault *bool `json:"clearOnDefault,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `json:"level,omitempty"`
	Format string `json:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{Metrics: MetricsConfig{Enabled: true}}
	c.applyDefaults()
	return c
}

// Load reads tabledash.json from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("T100").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Run 'tabledash config --init' to write the defaults to " + ConfigFileName)
		}
		return nil, errors.New("T102").Wrap(err)
	}

	cfg := &Config{Metrics: MetricsConfig{Enabled: true}}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("T102").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// IsNotFound reports whether err means no config file exists.
func IsNotFound(err error) bool {
	var te *errors.Error
	return errors.As(err, &te) && te.Code == "T100"
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}

	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout == "" {
		c.API.Timeout = "10s"
	}
	if c.API.StaleTime == "" {
		c.API.StaleTime = "30s"
	}
	if c.API.RetryDelay == "" {
		c.API.RetryDelay = "200ms"
	}
	if c.API.OptionsDelay == "" {
		c.API.OptionsDelay = "2s"
	}

	if c.Table.PerPage == 0 {
		c.Table.PerPage = 10
	}
	if c.Table.ThrottleMs == 0 {
		c.Table.ThrottleMs = 50
	}
	if c.Table.DebounceMs == 0 {
		c.Table.DebounceMs = 300
	}
	if c.Table.History == "" {
		c.Table.History = "replace"
	}
	if c.Table.FilterMode == "" {
		c.Table.FilterMode = "columns"
	}
	if c.Table.ClearOnDefault == nil {
		on := true
		c.Table.ClearOnDefault = &on
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// ApplyEnv overrides fields from environment variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("T101").
				WithDetail(EnvPort + " must be a number, got " + strconv.Quote(v))
		}
		c.Server.Port = port
	}
	if v := getenv(EnvAPIURL); v != "" {
		c.API.BaseURL = v
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("T101").WithDetail("server.port must be between 0 and 65535")
	}
	for name, d := range map[string]string{
		"api.timeout":      c.API.Timeout,
		"api.staleTime":    c.API.StaleTime,
		"api.retryDelay":   c.API.RetryDelay,
		"api.optionsDelay": c.API.OptionsDelay,
	} {
		if _, err := time.ParseDuration(d); err != nil {
			return errors.New("T101").WithDetail(name + ": " + err.Error())
		}
	}
	if c.API.Retries < 0 {
		return errors.New("T101").WithDetail("api.retries must not be negative")
	}
	if c.Table.PerPage < 1 {
		return errors.New("T101").WithDetail("table.perPage must be positive")
	}
	if c.Table.ThrottleMs < 0 || c.Table.DebounceMs < 0 {
		return errors.New("T101").WithDetail("table.throttleMs and table.debounceMs must not be negative")
	}
	if c.Table.History != "replace" && c.Table.History != "push" {
		return errors.New("T101").
			WithDetail("table.history must be \"replace\" or \"push\", got " + strconv.Quote(c.Table.History))
	}
	if c.Table.FilterMode != "columns" && c.Table.FilterMode != "codec" {
		return errors.New("T101").
			WithDetail("table.filterMode must be \"columns\" or \"codec\", got " + strconv.Quote(c.Table.FilterMode))
	}
	if _, err := c.LogLevel(); err != nil {
		return errors.New("T101").WithDetail("log.level: " + err.Error())
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("T101").WithDetail("log.format must be \"text\" or \"json\"")
	}
	return nil
}

// Address returns the host:port the server listens on.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// Duration helpers assume Validate has passed and return zero otherwise.

// Timeout returns the API request timeout.
func (c *Config) Timeout() time.Duration { return mustDuration(c.API.Timeout) }

// StaleTime returns how long fetched pages stay fresh.
func (c *Config) StaleTime() time.Duration { return mustDuration(c.API.StaleTime) }

// RetryDelay returns the delay between fetch retries.
func (c *Config) RetryDelay() time.Duration { return mustDuration(c.API.RetryDelay) }

// OptionsDelay returns the simulated latency of the options source.
func (c *Config) OptionsDelay() time.Duration { return mustDuration(c.API.OptionsDelay) }

// Throttle returns the URL write interval for pagination and sort.
func (c *Config) Throttle() time.Duration {
	return time.Duration(c.Table.ThrottleMs) * time.Millisecond
}

// Debounce returns the quiet period for text filters.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Table.DebounceMs) * time.Millisecond
}

// ClearOnDefault reports whether default values are removed from the URL.
func (c *Config) ClearOnDefault() bool {
	return c.Table.ClearOnDefault == nil || *c.Table.ClearOnDefault
}

// LogLevel parses log.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(c.Log.Level))
	return l, err
}

// JSON returns the indented config as written to disk.
func (c *Config) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, errors.New("T102").Wrap(err)
	}
	return append(data, '\n'), nil
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	data, err := c.JSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("T102").Wrap(err)
	}
	c.configPath = path
	return nil
}

func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
