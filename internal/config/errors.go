package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// They are sentinels so callers can use errors.Is.
var (
	// ErrNoTarget is returned when neither a positional URL nor --list
	// provides a start URL.
	ErrNoTarget = errors.New("no start URL specified: provide a URL or use --list")

	// ErrInvalidConcurrency is returned when a pool size or the per-host
	// limit is below one.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be at least 1")

	// ErrInvalidDepth is returned for a negative crawl depth.
	ErrInvalidDepth = errors.New("invalid depth: must be non-negative")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 for the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidRateLimit is returned when the rate or burst is negative.
	ErrInvalidRateLimit = errors.New("invalid rate limit: rate and burst must be non-negative")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
