// Package origin decides whether a content URL is trusted to reach host
// capabilities. The decision is a pure function of the URL and the static
// configuration loaded at startup.
package origin

import (
	"net/url"
	"strings"

	"github.com/ppiankov/hostgate/internal/config"
)

// IsTrusted reports whether rawURL is trusted.
//
// A URL is trusted when it starts with any trusted-domain prefix. The match
// is a plain string prefix, not path-boundary aware, so a domain entry of
// "https://app.example.com/editor" also trusts "/editor-beta". In the dev
// stage any localhost or 127.0.0.1 host is trusted regardless of scheme or
// port. Empty or malformed URLs are untrusted.
func IsTrusted(rawURL string, trustedDomains []string, stage config.Stage) bool {
	if rawURL == "" {
		return false
	}

	for _, domain := range trustedDomains {
		if domain != "" && strings.HasPrefix(rawURL, domain) {
			return true
		}
	}

	if stage != config.StageDev {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1":
		return true
	}
	return false
}

// Evaluator binds the trusted-domain list and stage once.
type Evaluator struct {
	domains []string
	stage   config.Stage
}

// NewEvaluator copies domains so later mutation of the caller's slice has
// no effect.
func NewEvaluator(domains []string, stage config.Stage) *Evaluator {
	d := make([]string, len(domains))
	copy(d, domains)
	return &Evaluator{domains: d, stage: stage}
}

// Trusted evaluates rawURL against the bound configuration.
func (e *Evaluator) Trusted(rawURL string) bool {
	return IsTrusted(rawURL, e.domains, e.stage)
}

// Stage returns the bound stage.
func (e *Evaluator) Stage() config.Stage { return e.stage }
