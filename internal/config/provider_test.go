package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviderConfig(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "client.apps.googleusercontent.com")
	t.Setenv("LINE_CHANNEL_ID", "")
	t.Setenv("LINE_VERIFY_URL", "")

	cfg, err := NewProviderConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{ProviderGoogle}, cfg.Enabled())
	assert.Equal(t, DefaultLineVerifyURL, cfg.LineVerifyURL)
}

func TestNewProviderConfig_NoneConfigured(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("LINE_CHANNEL_ID", "")

	_, err := NewProviderConfig()
	assert.Error(t, err)
}

func TestKnownProvider(t *testing.T) {
	assert.True(t, KnownProvider("google"))
	assert.True(t, KnownProvider("line"))
	assert.False(t, KnownProvider("LINE"))
	assert.False(t, KnownProvider("password"))
}
