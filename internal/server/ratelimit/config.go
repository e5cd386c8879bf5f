package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Rule limits one method on one path. A Path ending in "/" matches every
// path under it; any other Path must match exactly.
type Rule struct {
	Method string
	Path   string
	Limit  int           // requests per Window
	Window time.Duration
	Burst  int // bucket capacity, Limit when 0
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	Allowlist       map[string]bool
	Denylist        map[string]bool
	Rules           []Rule
}

// LoadConfig reads RATE_LIMIT_* environment variables.
func LoadConfig() *Config {
	return loadConfig(os.LookupEnv)
}

func loadConfig(lookup func(string) (string, bool)) *Config {
	env := envReader{lookup: lookup}
	if !env.boolean("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    env.integer("RATE_LIMIT_DEFAULT_LIMIT", 600),
		DefaultWindow:   env.duration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: env.duration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		IdleTTL:         env.duration("RATE_LIMIT_IDLE_TTL", time.Hour),
		Allowlist:       parseIPList(env.str("RATE_LIMIT_ALLOWLIST")),
		Denylist:        parseIPList(env.str("RATE_LIMIT_DENYLIST")),
		Rules:           DefaultRules(env.integer("RATE_LIMIT_AUTH_PER_MINUTE", 20)),
	}
}

// DefaultRules returns the gateway's endpoint rules. Sign-in endpoints get
// authPerMinute requests per client; account creation is stricter.
func DefaultRules(authPerMinute int) []Rule {
	return []Rule{
		{Method: "POST", Path: "/api/auth/register", Limit: 5, Window: time.Hour, Burst: 2},
		{Method: "POST", Path: "/api/auth/password", Limit: 10, Window: time.Minute, Burst: 3},
		{Method: "POST", Path: "/api/auth/", Limit: authPerMinute, Window: time.Minute, Burst: 5},
		{Method: "PUT", Path: "/api/me/role", Limit: 30, Window: time.Minute, Burst: 5},
	}
}

type envReader struct {
	lookup func(string) (string, bool)
}

func (e envReader) str(key string) string {
	v, _ := e.lookup(key)
	return strings.TrimSpace(v)
}

func (e envReader) integer(key string, def int) int {
	if n, err := strconv.Atoi(e.str(key)); err == nil {
		return n
	}
	return def
}

func (e envReader) boolean(key string, def bool) bool {
	if b, err := strconv.ParseBool(e.str(key)); err == nil {
		return b
	}
	return def
}

func (e envReader) duration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(e.str(key)); err == nil {
		return d
	}
	return def
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
