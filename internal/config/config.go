package config

import (
	"path/filepath"
	"runtime"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "hostcrawl"

	// DefaultDepth fetches the start page and every page it links to.
	DefaultDepth = 2

	// DefaultTimeout bounds a single HTTP request, including redirects.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies hostcrawl in HTTP requests.
	DefaultUserAgent = "hostcrawl/1.0 (+https://github.com/nao1215/hostcrawl)"

	// DefaultMaxBodySize limits how much of a response body is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultBatchSize is the number of start URLs crawled at once with --list.
	DefaultBatchSize = 4

	// DefaultBurst is the token bucket size used when a rate limit is set.
	DefaultBurst = 1
)

// DefaultConcurrency returns the default size of each worker pool and of the
// per-host limit: the number of logical CPUs.
func DefaultConcurrency() int {
	return runtime.NumCPU()
}

// Config holds all configuration options for hostcrawl.
// It is populated from the config file and CLI flags, in that order, and
// passed down explicitly rather than kept in global state.
type Config struct {
	// FetchConcurrency is the number of download workers.
	// Values above the crawler's hard ceiling are clamped, not rejected.
	FetchConcurrency int

	// ExtractConcurrency is the number of link extraction workers.
	ExtractConcurrency int

	// PerHostConcurrency caps concurrent downloads against a single host.
	PerHostConcurrency int

	// Depth is the crawl depth. 1 fetches only the start URL.
	Depth int

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes.
	// Zero means DefaultMaxBodySize.
	MaxBodySize int64

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" form.
	ProxyAddress string

	// RequestsPerSecond is the per-host rate limit. Zero disables it.
	RequestsPerSecond float64

	// Burst is the per-host token bucket size used with RequestsPerSecond.
	Burst int

	// Headers are sent with every request.
	Headers map[string]string

	// IgnorePatterns are URL path globs that are never followed.
	IgnorePatterns []string

	// FollowPatterns, if set, are the only URL path globs followed.
	FollowPatterns []string

	// SameHostOnly restricts the crawl to the start URL's host.
	SameHostOnly bool

	// SameDomainOnly restricts the crawl to the start URL's registrable
	// domain, subdomains included.
	SameDomainOnly bool

	// BatchSize is the number of start URLs crawled concurrently.
	BatchSize int

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the explicit configuration file path, if any.
	ConfigFilePath string

	// Sites holds per-host settings loaded from the config file.
	Sites *File

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is written instead of stdout when set.
	ReportFile string

	// Targets are the start URLs.
	Targets []string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	n := DefaultConcurrency()
	return &Config{
		FetchConcurrency:   n,
		ExtractConcurrency: n,
		PerHostConcurrency: n,
		Depth:              DefaultDepth,
		Timeout:            DefaultTimeout,
		UserAgent:          DefaultUserAgent,
		MaxBodySize:        DefaultMaxBodySize,
		Burst:              DefaultBurst,
		BatchSize:          DefaultBatchSize,
	}
}

// XDGConfigDir returns the XDG config directory for hostcrawl.
// On Linux: ~/.config/hostcrawl
// On macOS: ~/Library/Application Support/hostcrawl
// On Windows: %APPDATA%\hostcrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	if c.FetchConcurrency < 1 || c.ExtractConcurrency < 1 || c.PerHostConcurrency < 1 {
		return ErrInvalidConcurrency
	}

	if c.Depth < 0 {
		return ErrInvalidDepth
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.RequestsPerSecond < 0 || c.Burst < 0 {
		return ErrInvalidRateLimit
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
