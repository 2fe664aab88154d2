package crawler

import (
	"errors"
	"fmt"
)

// Per-URL error kinds. Every error stored in Result.Errors matches exactly
// one of these through errors.Is.
var (
	// ErrMalformedURL is recorded when a URL cannot be parsed or has no host.
	// It is detected before any work is registered for the URL.
	ErrMalformedURL = errors.New("malformed url")

	// ErrDownload is recorded when the Downloader fails for a URL.
	// The URL's branch stops there: no extraction, no recursion.
	ErrDownload = errors.New("download failed")

	// ErrExtract is recorded against a page whose links could not be extracted.
	ErrExtract = errors.New("link extraction failed")
)

var (
	// ErrNegativeDepth is returned by Download for a depth below zero.
	ErrNegativeDepth = errors.New("invalid depth: must be non-negative")

	// ErrClosed is returned when work is submitted to a closed Crawler.
	ErrClosed = errors.New("crawler is closed")

	// ErrUnexpectedStatus is returned by HTTPDownloader for 4xx and 5xx responses.
	ErrUnexpectedStatus = errors.New("unexpected http status")
)

// URLError describes a failure tied to a single URL of a crawl.
type URLError struct {
	// URL is the page the error is recorded against.
	URL string

	// Kind is ErrMalformedURL, ErrDownload or ErrExtract.
	Kind error

	// Err is the underlying cause, may be nil.
	Err error
}

// Error implements the error interface.
func (e *URLError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.URL, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.URL, e.Kind, e.Err)
}

// Unwrap returns both the kind and the cause so errors.Is matches either.
func (e *URLError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
