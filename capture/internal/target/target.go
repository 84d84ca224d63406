// Package target resolves user-supplied Polymarket URLs into the canonical
// navigation form used by the capture pipeline.
//
// Both /event/<slug> and /market/<slug> inputs are accepted; the output is
// always normalised to /event/<slug>[/<nested>] because the event page is the
// only layout the transformation rules are tuned for.
package target

import (
	"fmt"
	"net/url"
	"strings"
)

// Target is the canonical navigation target derived from one input URL.
// A non-empty NestedOutcomeSlug biases page-mode resolution toward the
// nested-outcome layout.
type Target struct {
	NavigationURL     string
	EventSlug         string
	NestedOutcomeSlug string
}

const host = "polymarket.com"

// Resolve parses raw, validates host and path shape, and returns the
// canonical target. Any error here means the input can never become a valid
// capture; callers treat it as terminal.
func Resolve(raw string) (Target, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Target{}, fmt.Errorf("target: parse %q: %w", raw, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return Target{}, fmt.Errorf("target: unsupported scheme %q", u.Scheme)
	}

	h := strings.ToLower(u.Hostname())
	if h != host && !strings.HasSuffix(h, "."+host) {
		return Target{}, fmt.Errorf("target: foreign host %q", u.Hostname())
	}

	parts := splitPath(u.Path)
	if len(parts) < 2 || len(parts) > 3 {
		return Target{}, fmt.Errorf("target: unexpected path %q", u.Path)
	}
	if parts[0] != "event" && parts[0] != "market" {
		return Target{}, fmt.Errorf("target: unexpected path root %q", parts[0])
	}

	slug := parts[1]
	if !validSlug(slug) {
		return Target{}, fmt.Errorf("target: invalid slug %q", slug)
	}

	var nested string
	if len(parts) == 3 {
		nested = parts[2]
		if !validSlug(nested) {
			return Target{}, fmt.Errorf("target: invalid nested slug %q", nested)
		}
	}

	nav := "https://" + host + "/event/" + slug
	if nested != "" {
		nav += "/" + nested
	}

	return Target{
		NavigationURL:     nav,
		EventSlug:         slug,
		NestedOutcomeSlug: nested,
	}, nil
}

func splitPath(p string) []string {
	var parts []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

// validSlug accepts the lowercase-kebab slugs Polymarket generates. Query
// strings and fragments are already stripped by url.Parse.
func validSlug(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
