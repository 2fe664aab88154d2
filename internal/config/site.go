package config

import (
	"maps"
	"strings"
	"time"
)

// SiteConfig holds settings for requests to a single host.
type SiteConfig struct {
	// Cookie is sent as the Cookie header.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are added to every request to this host.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Depth overrides the crawl depth when this host is a start URL.
	// If zero, the global depth is used.
	Depth int `yaml:"depth,omitempty"`
}

// File represents the structure of the .hostcrawl.yaml configuration file.
// Zero values leave the corresponding Config field untouched.
type File struct {
	Fetchers          int               `yaml:"fetchers,omitempty"`
	Extractors        int               `yaml:"extractors,omitempty"`
	PerHost           int               `yaml:"perHost,omitempty"`
	Depth             int               `yaml:"depth,omitempty"`
	Timeout           time.Duration     `yaml:"timeout,omitempty"`
	UserAgent         string            `yaml:"userAgent,omitempty"`
	MaxBodySize       int64             `yaml:"maxBodySize,omitempty"`
	Proxy             string            `yaml:"proxy,omitempty"`
	RequestsPerSecond float64           `yaml:"requestsPerSecond,omitempty"`
	Burst             int               `yaml:"burst,omitempty"`
	SameHostOnly      bool              `yaml:"sameHostOnly,omitempty"`
	SameDomainOnly    bool              `yaml:"sameDomainOnly,omitempty"`
	IgnorePatterns    []string          `yaml:"ignorePatterns,omitempty"`
	FollowPatterns    []string          `yaml:"followPatterns,omitempty"`
	Headers           map[string]string `yaml:"headers,omitempty"`

	// Sites maps host names to their settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults is applied to every host unless a site overrides it.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// Apply copies the non-zero crawl settings of the file into cfg and records
// the file as cfg.Sites.
func (cf *File) Apply(cfg *Config) {
	if cf.Fetchers != 0 {
		cfg.FetchConcurrency = cf.Fetchers
	}
	if cf.Extractors != 0 {
		cfg.ExtractConcurrency = cf.Extractors
	}
	if cf.PerHost != 0 {
		cfg.PerHostConcurrency = cf.PerHost
	}
	if cf.Depth != 0 {
		cfg.Depth = cf.Depth
	}
	if cf.Timeout != 0 {
		cfg.Timeout = cf.Timeout
	}
	if cf.UserAgent != "" {
		cfg.UserAgent = cf.UserAgent
	}
	if cf.MaxBodySize != 0 {
		cfg.MaxBodySize = cf.MaxBodySize
	}
	if cf.Proxy != "" {
		cfg.ProxyAddress = cf.Proxy
	}
	if cf.RequestsPerSecond != 0 {
		cfg.RequestsPerSecond = cf.RequestsPerSecond
	}
	if cf.Burst != 0 {
		cfg.Burst = cf.Burst
	}
	if cf.SameHostOnly {
		cfg.SameHostOnly = true
	}
	if cf.SameDomainOnly {
		cfg.SameDomainOnly = true
	}
	if len(cf.IgnorePatterns) > 0 {
		cfg.IgnorePatterns = cf.IgnorePatterns
	}
	if len(cf.FollowPatterns) > 0 {
		cfg.FollowPatterns = cf.FollowPatterns
	}
	if len(cf.Headers) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string)
		}
		maps.Copy(cfg.Headers, cf.Headers)
	}
	cfg.Sites = cf
}

// GetSiteConfig returns the configuration for host, merging the site entry
// over the defaults. Host names are matched case-insensitively.
// A nil File yields the zero SiteConfig.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	if cf == nil {
		return SiteConfig{}
	}
	result := cf.Defaults
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = maps.Clone(cf.Defaults.Headers)
	}

	site, ok := cf.Sites[host]
	if !ok {
		for name, s := range cf.Sites {
			if strings.EqualFold(name, host) {
				site, ok = s, true
				break
			}
		}
	}
	if !ok {
		return result
	}

	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if site.Depth != 0 {
		result.Depth = site.Depth
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		maps.Copy(result.Headers, site.Headers)
	}
	return result
}

// HostHeaders returns the extra request headers for host, including the
// Cookie header. It returns nil when nothing is configured.
func (cf *File) HostHeaders(host string) map[string]string {
	site := cf.GetSiteConfig(host)
	if site.Cookie == "" && len(site.Headers) == 0 {
		return nil
	}
	headers := make(map[string]string, len(site.Headers)+1)
	maps.Copy(headers, site.Headers)
	if site.Cookie != "" {
		headers["Cookie"] = site.Cookie
	}
	return headers
}
