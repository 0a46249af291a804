package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nomis52/signup/logging"
)

const (
	// Default backend settings
	defaultBackendURL     = "http://localhost:8000"
	defaultBackendTimeout = 10 * time.Second

	// Default web host settings
	defaultListenAddr = ":8080"
	defaultSessionTTL = 30 * time.Minute
	defaultPageTitle  = "Mergington High School Activities"

	// Default UI settings
	defaultMessageDuration = 5 * time.Second

	// Default monitoring settings
	defaultMetricsPrefix = "signup_client"
	defaultJobName       = "signup-cli"

	// Default logging settings
	defaultLogLevel  = "info"
	defaultLogFormat = "json"
	defaultLogOutput = "stderr"
)

// Environment variables that override the config file.
const (
	EnvBackendURL = "SIGNUP_BACKEND_URL"
	EnvListenAddr = "SIGNUP_LISTEN_ADDR"
	EnvLogLevel   = "SIGNUP_LOG_LEVEL"
)

// Config represents the complete application configuration
type Config struct {
	Backend    BackendConfig    `yaml:"backend"`
	Server     ServerConfig     `yaml:"server"`
	UI         UIConfig         `yaml:"ui"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    logging.Config   `yaml:"logging"`
}

// BackendConfig holds the signup backend connection settings
type BackendConfig struct {
	// URL is the base URL of the backend, including the scheme
	URL string `yaml:"url"`
	// Timeout bounds each request to the backend
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig holds the web host settings
type ServerConfig struct {
	// The listen address, defaults to :8080
	ListenAddr string `yaml:"listen_addr"`
	// SessionTTL is how long an idle browser session keeps its page state
	SessionTTL time.Duration `yaml:"session_ttl"`
	// Title is shown in the page header
	Title string `yaml:"title"`
}

// UIConfig holds page behaviour settings
type UIConfig struct {
	// MessageDuration is how long a status message stays visible
	MessageDuration time.Duration `yaml:"message_duration"`
}

// MonitoringConfig holds metrics settings. An empty VictoriaMetricsURL
// disables pushing from the CLI.
type MonitoringConfig struct {
	VictoriaMetricsURL string `yaml:"victoriametrics_url"`
	MetricsPrefix      string `yaml:"metrics_prefix"`
	JobName            string `yaml:"jobname"`
}

// Default returns a config with every default applied.
func Default() Config {
	var cfg Config
	cfg.SetDefaults()
	return cfg
}

// Validate performs basic validation on the configuration
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return errors.New("backend URL is required")
	}
	u, err := url.Parse(c.Backend.URL)
	if err != nil {
		return fmt.Errorf("invalid backend URL %q: %w", c.Backend.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend URL %q must use http or https", c.Backend.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("backend URL %q has no host", c.Backend.URL)
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("backend timeout must be positive")
	}
	if c.Server.SessionTTL <= 0 {
		return errors.New("session TTL must be positive")
	}
	if c.UI.MessageDuration <= 0 {
		return errors.New("message duration must be positive")
	}
	if c.Monitoring.VictoriaMetricsURL != "" {
		if _, err := url.ParseRequestURI(c.Monitoring.VictoriaMetricsURL); err != nil {
			return fmt.Errorf("invalid VictoriaMetrics URL: %w", err)
		}
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return nil
}

// SetDefaults sets reasonable default values for optional fields
func (c *Config) SetDefaults() {
	if c.Backend.URL == "" {
		c.Backend.URL = defaultBackendURL
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = defaultBackendTimeout
	}
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = defaultListenAddr
	}
	if c.Server.SessionTTL == 0 {
		c.Server.SessionTTL = defaultSessionTTL
	}
	if c.Server.Title == "" {
		c.Server.Title = defaultPageTitle
	}
	if c.UI.MessageDuration == 0 {
		c.UI.MessageDuration = defaultMessageDuration
	}
	if c.Monitoring.MetricsPrefix == "" {
		c.Monitoring.MetricsPrefix = defaultMetricsPrefix
	}
	if c.Monitoring.JobName == "" {
		c.Monitoring.JobName = defaultJobName
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Output == "" {
		c.Logging.Output = defaultLogOutput
	}
}

// ApplyEnv overrides file settings with SIGNUP_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvBackendURL); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv(EnvListenAddr); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
}

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// LoadConfig reads the YAML config file at path, applies environment
// overrides and defaults, and validates the result. An empty path loads
// defaults and environment overrides only.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to open config file %s: %w", path, err)
		}
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
