package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobmarket.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	path := writeConfig(t, `
gateway_url: https://gateway.example.com
store_path: /tmp/shell.db
manifest_path: ./host.json
provider: google
port: 9090
verbose: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://gateway.example.com", cfg.GatewayURL)
	assert.Equal(t, "/tmp/shell.db", cfg.StorePath)
	assert.Equal(t, "./host.json", cfg.ManifestPath)
	assert.Equal(t, "google", cfg.Provider)
	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "gateway_url: [unterminated"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "empty config", cfg: Config{}},
		{name: "full config", cfg: Config{GatewayURL: "http://localhost:8080", Port: 8080, Provider: "line"}},
		{name: "non-http gateway", cfg: Config{GatewayURL: "ftp://example.com"}, wantErr: "gateway_url"},
		{name: "relative gateway", cfg: Config{GatewayURL: "/api"}, wantErr: "gateway_url"},
		{name: "port out of range", cfg: Config{Port: 70000}, wantErr: "port"},
		{name: "unknown provider", cfg: Config{Provider: "myspace"}, wantErr: "unknown provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_MergeWithDefaults(t *testing.T) {
	cfg := Config{GatewayURL: "https://gateway.example.com", Port: 9000}

	merged := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, "https://gateway.example.com", merged.GatewayURL)
	assert.Equal(t, 9000, merged.Port)
	assert.Equal(t, "line", merged.Provider)
	assert.Equal(t, "host.json", merged.ManifestPath)
	assert.NotEmpty(t, merged.StorePath)
	assert.Empty(t, cfg.Provider, "receiver is not modified")
}
