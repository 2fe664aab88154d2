package crawler

import (
	"net"
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// linkFilter decides which extracted links are scheduled.
// The start URL of a crawl is never filtered.
type linkFilter struct {
	// ignorePatterns are URL path globs to skip.
	ignorePatterns []string

	// followPatterns, if set, are the only URL path globs crawled.
	followPatterns []string

	// sameHost restricts links to the start URL's host.
	sameHost bool

	// sameDomain restricts links to the start URL's registrable domain
	// (eTLD+1), so www.example.com and blog.example.com are both kept.
	sameDomain bool
}

// allow reports whether link should be scheduled during a crawl rooted at rootHost.
//
// Logic:
//  1. If sameHost is set and the link's host differs, skip it
//  2. If sameDomain is set and the link's registrable domain differs, skip it
//  3. If the path matches any ignore pattern, skip it
//  4. If follow patterns are set and the path matches none, skip it
//  5. Otherwise, crawl it
//
// Unparseable links are allowed so the crawl records them as malformed.
func (f linkFilter) allow(rootHost, link string) bool {
	if !f.sameHost && !f.sameDomain && len(f.ignorePatterns) == 0 && len(f.followPatterns) == 0 {
		return true
	}

	u, err := url.Parse(link)
	if err != nil {
		return true
	}

	if f.sameHost && !strings.EqualFold(u.Hostname(), rootHost) {
		return false
	}

	if f.sameDomain && !strings.EqualFold(registrableDomain(u.Hostname()), registrableDomain(rootHost)) {
		return false
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	for _, pattern := range f.ignorePatterns {
		if matchPattern(pattern, path) {
			return false
		}
	}

	if len(f.followPatterns) > 0 {
		for _, pattern := range f.followPatterns {
			if matchPattern(pattern, path) {
				return true
			}
		}
		return false
	}

	return true
}

// registrableDomain returns the eTLD+1 of host, or host itself when it has
// none (IP addresses, localhost, bare public suffixes).
func registrableDomain(host string) string {
	host = strings.ToLower(host)
	if net.ParseIP(host) != nil {
		return host
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// matchPattern checks if a path matches a glob pattern.
//
// Examples:
//   - "/admin/*" matches "/admin", "/admin/dashboard" and "/admin/a/b"
//   - "*.pdf" matches "/docs/file.pdf"
//   - "/api/v?" matches "/api/v1", "/api/v2"
func matchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}

	if ext, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(ext, ".") && !strings.ContainsAny(ext, "*?[") {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	matched, err := filepath.Match(pattern, path)
	if err != nil {
		return false
	}
	if matched {
		return true
	}

	// Patterns without a slash also match against the last path segment.
	if !strings.Contains(pattern, "/") {
		matched, err := filepath.Match(pattern, filepath.Base(path))
		if err == nil && matched {
			return true
		}
	}

	return false
}
