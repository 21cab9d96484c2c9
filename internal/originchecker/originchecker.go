// Package originchecker decides which browser origins may call the API
// cross-origin. An origin is trusted when its hostname is one of a fixed set
// of local hostnames, whatever its scheme and port.
package originchecker

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// DefaultHostnames are the hostnames trusted when New is given none.
var DefaultHostnames = []string{"localhost", "127.0.0.1"}

// OriginChecker validates the Origin header of cross-origin requests.
type OriginChecker struct {
	trustedHostnames map[string]struct{}
}

// New creates an OriginChecker trusting the given hostnames, or
// DefaultHostnames when none are given.
//
// Hostnames are compared case-insensitively and must not carry a scheme or a port.
func New(hostnames ...string) (*OriginChecker, error) {
	if len(hostnames) == 0 {
		hostnames = DefaultHostnames
	}

	trusted := make(map[string]struct{}, len(hostnames))
	for _, hostname := range hostnames {
		if hostname == "" || strings.ContainsAny(hostname, ":/") {
			return nil, fmt.Errorf("in internal/originchecker/originchecker.go/New(): invalid hostname %q", hostname)
		}
		trusted[strings.ToLower(hostname)] = struct{}{}
	}

	return &OriginChecker{
		trustedHostnames: trusted,
	}, nil
}

// Check reports whether the origin (e.g. "http://localhost:3000") is trusted.
// Origins that cannot be parsed are not trusted.
func (checker *OriginChecker) Check(origin string) bool {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}

	_, ok := checker.trustedHostnames[strings.ToLower(parsed.Hostname())]

	return ok
}

// AllowOriginFunc has the signature expected by cors.Options.AllowOriginFunc.
func (checker *OriginChecker) AllowOriginFunc(_ *http.Request, origin string) bool {
	return checker.Check(origin)
}
