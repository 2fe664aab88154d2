package model

import (
	"errors"

	"github.com/nao1215/hostcrawl/internal/crawler"
)

// ErrorKind classifies a per-URL crawl error.
type ErrorKind int

const (
	// ErrorKindUnknown is used for errors outside the crawl taxonomy.
	ErrorKindUnknown ErrorKind = iota

	// ErrorKindMalformedURL means the URL could not be parsed or had no host.
	ErrorKindMalformedURL

	// ErrorKindDownload means the page could not be fetched.
	ErrorKindDownload

	// ErrorKindExtract means the page was fetched but its links could not be
	// extracted.
	ErrorKindExtract
)

// String returns the snake_case name used in reports.
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindMalformedURL:
		return "malformed_url"
	case ErrorKindDownload:
		return "download"
	case ErrorKindExtract:
		return "extract"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name, so JSON output is readable.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name. Unrecognized names decode to
// ErrorKindUnknown.
func (k *ErrorKind) UnmarshalText(text []byte) error {
	*k = ErrorKindUnknown
	for _, kind := range ErrorKinds() {
		if kind.String() == string(text) {
			*k = kind
			break
		}
	}
	return nil
}

// KindOf classifies err by the crawler sentinel it wraps.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, crawler.ErrMalformedURL):
		return ErrorKindMalformedURL
	case errors.Is(err, crawler.ErrDownload):
		return ErrorKindDownload
	case errors.Is(err, crawler.ErrExtract):
		return ErrorKindExtract
	default:
		return ErrorKindUnknown
	}
}

// ErrorKinds lists the known kinds in report order.
func ErrorKinds() []ErrorKind {
	return []ErrorKind{ErrorKindMalformedURL, ErrorKindDownload, ErrorKindExtract}
}
