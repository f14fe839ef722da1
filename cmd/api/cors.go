package main

import (
	"net/url"
	"strings"
)

// matchCORSOrigin reports whether origin is allowed by patterns. A pattern is
// "*", an exact origin, or scheme://*.domain for any subdomain of domain.
func matchCORSOrigin(origin string, patterns []string) bool {
	o, err := url.Parse(origin)
	if err != nil || o.Scheme == "" || o.Host == "" {
		return false
	}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		switch {
		case p == "*":
			return true
		case strings.EqualFold(p, origin):
			return true
		}
		scheme, host, ok := strings.Cut(p, "://")
		if !ok || !strings.HasPrefix(host, "*.") {
			continue
		}
		suffix := strings.ToLower(host[1:])
		h := strings.ToLower(o.Host)
		if strings.EqualFold(o.Scheme, scheme) && strings.HasSuffix(h, suffix) && len(h) > len(suffix) {
			return true
		}
	}
	return false
}
