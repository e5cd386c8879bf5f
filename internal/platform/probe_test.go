package platform

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func envLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestEnvProbe(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want Variant
	}{
		{name: "empty environment", env: map[string]string{}, want: VariantWeb},
		{name: "liff bridge", env: map[string]string{EnvMessagingBridge: "1"}, want: VariantMessagingClient},
		{name: "liff bridge disabled", env: map[string]string{EnvMessagingBridge: "false"}, want: VariantWeb},
		{name: "unparseable flag", env: map[string]string{EnvMessagingBridge: "yes please"}, want: VariantWeb},
		{
			name: "native android",
			env:  map[string]string{EnvNativeBridge: "true", EnvNativeOS: "android"},
			want: VariantNativeAndroid,
		},
		{
			name: "native os without bridge flag",
			env:  map[string]string{EnvNativeOS: "ios"},
			want: VariantWeb,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probe := &EnvProbe{lookup: envLookup(tt.env)}
			assert.Equal(t, tt.want, Classify(probe))
		})
	}
}

func TestNewEnvProbe_ReadsProcessEnvironment(t *testing.T) {
	t.Setenv(EnvNativeBridge, "true")
	t.Setenv(EnvNativeOS, "ios")

	assert.Equal(t, VariantNativeIOS, NewDetector(NewEnvProbe()).Detect())
}

func TestHeaderProbe(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/platform", nil)
	assert.Equal(t, VariantWeb, Classify(NewHeaderProbe(req)))

	req.Header.Set(HeaderNativeBridge, "true")
	req.Header.Set(HeaderNativeOS, "ios")
	assert.Equal(t, VariantNativeIOS, Classify(NewHeaderProbe(req)))

	req.Header.Set(HeaderMessagingBridge, "1")
	assert.Equal(t, VariantMessagingClient, Classify(NewHeaderProbe(req)))
}
