// Package config provides configuration loading and validation for the CLI and the gateway.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultGatewayURL is used when neither the config file nor a flag names a gateway.
const DefaultGatewayURL = "http://localhost:8080"

// Config is the CLI configuration loaded from a YAML file.
// All fields are optional; missing values come from flags or defaults.
type Config struct {
	GatewayURL   string `yaml:"gateway_url,omitempty"`   // Auth gateway base URL
	StorePath    string `yaml:"store_path,omitempty"`    // SQLite file holding the shell's credential and role
	ManifestPath string `yaml:"manifest_path,omitempty"` // Host-marker manifest for detection
	Provider     string `yaml:"provider,omitempty"`      // Default sign-in provider

	Port        int    `yaml:"port,omitempty"`         // Gateway listen port
	DatabaseURL string `yaml:"database_url,omitempty"` // PostgreSQL connection URL

	Verbose bool `yaml:"verbose,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	store := filepath.Join(".jobmarket", "shell.db")
	if dir, err := os.UserConfigDir(); err == nil {
		store = filepath.Join(dir, "jobmarket", "shell.db")
	}
	return Config{
		GatewayURL:   DefaultGatewayURL,
		StorePath:    store,
		ManifestPath: "host.json",
		Provider:     "line",
		Port:         8080,
	}
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	return &cfg, nil
}

// Validate checks the values that are set. Unset fields are not errors;
// they are filled by MergeWithDefaults.
func (c *Config) Validate() error {
	if c.GatewayURL != "" {
		u, err := url.Parse(c.GatewayURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("config error: 'gateway_url' must be an http(s) URL, got %q", c.GatewayURL)
		}
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' out of range: %d", c.Port)
	}
	if c.Provider != "" && !KnownProvider(c.Provider) {
		return fmt.Errorf("config error: unknown provider %q", c.Provider)
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.GatewayURL == "" {
		result.GatewayURL = defaults.GatewayURL
	}
	if result.StorePath == "" {
		result.StorePath = defaults.StorePath
	}
	if result.ManifestPath == "" {
		result.ManifestPath = defaults.ManifestPath
	}
	if result.Provider == "" {
		result.Provider = defaults.Provider
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	// Bools cannot distinguish unset from false; flags always win.
	return result
}
