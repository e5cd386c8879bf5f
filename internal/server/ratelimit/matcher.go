package ratelimit

import "strings"

// exempt lists the health probes, which are never limited.
var exempt = map[string]bool{
	"GET /":       true,
	"GET /health": true,
}

// Match returns the rule for a request, or nil when the default limit applies.
// Exact rules win over prefix rules; among prefix rules the first listed wins.
func Match(method, path string, rules []Rule) *Rule {
	for i := range rules {
		if rules[i].Method == method && rules[i].Path == path {
			return &rules[i]
		}
	}
	for i := range rules {
		r := &rules[i]
		if r.Method == method && strings.HasSuffix(r.Path, "/") && strings.HasPrefix(path, r.Path) {
			return r
		}
	}
	return nil
}

// Exempt reports whether a request bypasses rate limiting.
func Exempt(method, path string) bool {
	return exempt[method+" "+path]
}
