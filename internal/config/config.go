// Package config provides configuration loading and validation for beacon.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables holding the API credentials. They override anything
// in the config file so secrets never have to be written to disk.
const (
	EnvClientID     = "BEACON_CLIENT_ID"
	EnvClientSecret = "BEACON_CLIENT_SECRET"
)

// Defaults for the public findings API.
const (
	DefaultAuthURL  = "https://auth.blumira.com/oauth/token"
	DefaultBaseURL  = "https://api.blumira.com/public-api/v1"
	DefaultAppURL   = "https://app.blumira.com"
	DefaultAudience = "public-api"
)

// ErrMissingCredentials is returned when no client id/secret is configured.
// It is a configuration problem to show the user, not a crash.
var ErrMissingCredentials = fmt.Errorf(
	"missing API credentials: set %s and %s", EnvClientID, EnvClientSecret)

// Config is the complete beacon configuration.
type Config struct {
	API    APIConfig    `yaml:"api,omitempty"`
	Server ServerConfig `yaml:"server,omitempty"`
	Report ReportConfig `yaml:"report,omitempty"`
	Data   DataConfig   `yaml:"data,omitempty"`
}

// APIConfig describes the findings API endpoints and credentials.
type APIConfig struct {
	AuthURL      string        `yaml:"auth_url,omitempty"`
	BaseURL      string        `yaml:"base_url,omitempty"`
	AppURL       string        `yaml:"app_url,omitempty"`
	Audience     string        `yaml:"audience,omitempty"`
	ClientID     string        `yaml:"client_id,omitempty"`
	ClientSecret string        `yaml:"client_secret,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr           string   `yaml:"addr,omitempty"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// ReportConfig configures report generation.
type ReportConfig struct {
	OutputDir string `yaml:"output_dir,omitempty"`
	// Title shown at the top of rendered dashboards.
	Title string `yaml:"title,omitempty"`
}

// DataConfig configures local snapshot storage.
type DataConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		API: APIConfig{
			AuthURL:  DefaultAuthURL,
			BaseURL:  DefaultBaseURL,
			AppURL:   DefaultAppURL,
			Audience: DefaultAudience,
			Timeout:  30 * time.Second,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Report: ReportConfig{
			OutputDir: "reports",
			Title:     "MSP Security Dashboard",
		},
		Data: DataConfig{
			Dir: "data",
		},
	}
}

// LoadConfig reads and parses a YAML configuration file, fills defaults, and
// applies environment overrides. An empty path returns the defaults with
// environment credentials applied.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted source (config file)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
		cfg.fillDefaults()
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// fillDefaults restores defaults for fields the file left empty.
func (c *Config) fillDefaults() {
	def := Default()
	if c.API.AuthURL == "" {
		c.API.AuthURL = def.API.AuthURL
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = def.API.BaseURL
	}
	if c.API.AppURL == "" {
		c.API.AppURL = def.API.AppURL
	}
	if c.API.Audience == "" {
		c.API.Audience = def.API.Audience
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = def.API.Timeout
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Report.OutputDir == "" {
		c.Report.OutputDir = def.Report.OutputDir
	}
	if c.Report.Title == "" {
		c.Report.Title = def.Report.Title
	}
	if c.Data.Dir == "" {
		c.Data.Dir = def.Data.Dir
	}
}

// applyEnv overrides credentials from the environment.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvClientID); v != "" {
		c.API.ClientID = v
	}
	if v := os.Getenv(EnvClientSecret); v != "" {
		c.API.ClientSecret = v
	}
}

// Validate checks the configuration for structural problems. Credential
// presence is checked separately by Credentials, since read-only commands
// (report, dash, list) work from local snapshots without them.
func (c *Config) Validate() error {
	if c.API.AuthURL == "" || c.API.BaseURL == "" {
		return errors.New("api auth_url and base_url must not be empty")
	}
	if c.API.Timeout < 0 {
		return errors.New("api timeout must not be negative")
	}
	return nil
}

// Credentials returns the configured client id and secret, or
// ErrMissingCredentials if either is absent.
func (c *APIConfig) Credentials() (id, secret string, err error) {
	if c.ClientID == "" || c.ClientSecret == "" {
		return "", "", ErrMissingCredentials
	}
	return c.ClientID, c.ClientSecret, nil
}
