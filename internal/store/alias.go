package store

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/gosimple/slug"
)

var aliasPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

var reservedAliases = map[string]bool{
	"index":    true,
	"archive":  true,
	"metadata": true,
	".":        true,
	"..":       true,
}

// ValidateAlias enforces the alias charset: printable ASCII from a
// restricted set, 1..=64 bytes, no path separators, not a reserved name.
// An accepted alias is guaranteed safe to use as a single path segment.
func ValidateAlias(alias string) error {
	if len(alias) < 1 || len(alias) > 64 {
		return fmt.Errorf("store: alias %q must be 1-64 characters", alias)
	}
	if !aliasPattern.MatchString(alias) {
		return fmt.Errorf("store: alias %q contains invalid characters", alias)
	}
	if reservedAliases[alias] {
		return fmt.Errorf("store: alias %q is reserved", alias)
	}
	return nil
}

// SuggestAlias derives a candidate alias from a source URL's host and path,
// for the CLI's "add <url>" shorthand when the caller omits an explicit
// alias. The result always satisfies ValidateAlias, falling back to "source"
// if the URL yields nothing sluggable.
func SuggestAlias(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fallbackAlias(rawURL)
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")
	base := strings.TrimSuffix(strings.TrimSuffix(u.Path, "/llms.txt"), "/llms-full.txt")
	base = strings.Trim(base, "/")

	candidate := host
	if base != "" {
		candidate = host + "-" + base
	}

	s := slug.Make(candidate)
	if len(s) > 64 {
		s = strings.Trim(s[:64], "-")
	}
	if s == "" || ValidateAlias(s) != nil {
		return fallbackAlias(rawURL)
	}
	return s
}

func fallbackAlias(rawURL string) string {
	s := slug.Make(rawURL)
	if len(s) > 64 {
		s = s[:64]
	}
	s = strings.Trim(s, "-")
	if s == "" || ValidateAlias(s) != nil {
		return "source"
	}
	return s
}
