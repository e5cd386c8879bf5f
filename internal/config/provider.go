package config

import (
	"fmt"
	"os"
	"slices"
)

// Sign-in providers accepted by POST /api/auth/{provider}.
const (
	ProviderGoogle = "google"
	ProviderLine   = "line"
)

// KnownProvider reports whether name is a supported ID-token provider.
func KnownProvider(name string) bool {
	return slices.Contains([]string{ProviderGoogle, ProviderLine}, name)
}

// ProviderConfig holds the audiences ID tokens must be issued for.
// A provider with an empty audience is disabled.
type ProviderConfig struct {
	GoogleClientID string
	LineChannelID  string
	LineVerifyURL  string
}

// DefaultLineVerifyURL is LINE's ID token verification endpoint.
const DefaultLineVerifyURL = "https://api.line.me/oauth2/v2.1/verify"

// NewProviderConfig reads GOOGLE_CLIENT_ID, LINE_CHANNEL_ID and LINE_VERIFY_URL.
// At least one provider must be configured.
func NewProviderConfig() (*ProviderConfig, error) {
	cfg := &ProviderConfig{
		GoogleClientID: os.Getenv("GOOGLE_CLIENT_ID"),
		LineChannelID:  os.Getenv("LINE_CHANNEL_ID"),
		LineVerifyURL:  os.Getenv("LINE_VERIFY_URL"),
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Enabled returns the providers that have an audience configured.
func (c *ProviderConfig) Enabled() []string {
	var out []string
	if c.GoogleClientID != "" {
		out = append(out, ProviderGoogle)
	}
	if c.LineChannelID != "" {
		out = append(out, ProviderLine)
	}
	return out
}

func (c *ProviderConfig) normalize() error {
	if c.LineVerifyURL == "" {
		c.LineVerifyURL = DefaultLineVerifyURL
	}
	if len(c.Enabled()) == 0 {
		return fmt.Errorf("no sign-in provider configured: set GOOGLE_CLIENT_ID or LINE_CHANNEL_ID")
	}
	return nil
}
