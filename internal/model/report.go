package model

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/nao1215/hostcrawl/internal/crawler"
)

// CrawlReport is the outcome of crawling one start URL.
type CrawlReport struct {
	// StartURL is the URL the crawl started from.
	StartURL string `json:"start_url"`

	// Depth is the requested crawl depth.
	Depth int `json:"depth"`

	// DateCrawled is when the crawl started.
	DateCrawled time.Time `json:"date_crawled"`

	// ElapsedMillis is the crawl duration in milliseconds.
	ElapsedMillis int64 `json:"elapsed_ms"`

	// Downloaded lists the pages fetched successfully, sorted.
	Downloaded []string `json:"downloaded"`

	// Errors lists the per-URL failures, sorted by URL.
	Errors []URLFailure `json:"errors"`

	// Interrupted is set when the crawl was cancelled before it finished.
	// Downloaded and Errors then hold partial results.
	Interrupted bool `json:"interrupted"`

	// Error is the crawl-level error message, if any.
	Error string `json:"error,omitempty"`
}

// URLFailure is a single per-URL error.
type URLFailure struct {
	URL     string    `json:"url"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// HostCount aggregates a report by host.
type HostCount struct {
	Host       string `json:"host"`
	Downloaded int    `json:"downloaded"`
	Errors     int    `json:"errors"`
}

// NewCrawlReport creates an empty report for startURL.
func NewCrawlReport(startURL string, depth int) *CrawlReport {
	return &CrawlReport{
		StartURL:    startURL,
		Depth:       depth,
		DateCrawled: time.Now(),
		Downloaded:  []string{},
		Errors:      []URLFailure{},
	}
}

// AddResult copies a crawler result into the report.
// A nil result is ignored.
func (r *CrawlReport) AddResult(res *crawler.Result) {
	if res == nil {
		return
	}
	r.Downloaded = append(r.Downloaded, res.Downloaded...)
	for _, u := range res.ErrorURLs() {
		err := res.Errors[u]
		r.Errors = append(r.Errors, URLFailure{
			URL:     u,
			Kind:    KindOf(err),
			Message: errorMessage(u, err),
		})
	}
	slices.Sort(r.Downloaded)
	slices.SortFunc(r.Errors, func(a, b URLFailure) int {
		return strings.Compare(a.URL, b.URL)
	})
}

// Finish records the duration and the crawl-level error.
func (r *CrawlReport) Finish(elapsed time.Duration, err error) {
	r.ElapsedMillis = elapsed.Milliseconds()
	if err == nil {
		return
	}
	r.Error = err.Error()
	r.Interrupted = errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, crawler.ErrClosed)
}

// DownloadedCount returns the number of pages fetched successfully.
func (r *CrawlReport) DownloadedCount() int {
	return len(r.Downloaded)
}

// ErrorCount returns the number of failed URLs.
func (r *CrawlReport) ErrorCount() int {
	return len(r.Errors)
}

// Summary returns the one-line outcome, "downloaded N, errors M".
func (r *CrawlReport) Summary() string {
	return fmt.Sprintf("downloaded %d, errors %d", r.DownloadedCount(), r.ErrorCount())
}

// CountByKind returns the number of failures per kind.
func (r *CrawlReport) CountByKind() map[ErrorKind]int {
	counts := make(map[ErrorKind]int)
	for _, f := range r.Errors {
		counts[f.Kind]++
	}
	return counts
}

// FailuresOfKind returns the failures of the given kind in URL order.
func (r *CrawlReport) FailuresOfKind(kind ErrorKind) []URLFailure {
	var out []URLFailure
	for _, f := range r.Errors {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

// HostSummary aggregates downloads and errors per host, sorted by host.
// URLs without a parsable host are grouped under "(invalid)".
func (r *CrawlReport) HostSummary() []HostCount {
	byHost := make(map[string]*HostCount)
	get := func(rawURL string) *HostCount {
		host := "(invalid)"
		if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
			host = strings.ToLower(u.Hostname())
		}
		hc, ok := byHost[host]
		if !ok {
			hc = &HostCount{Host: host}
			byHost[host] = hc
		}
		return hc
	}

	for _, u := range r.Downloaded {
		get(u).Downloaded++
	}
	for _, f := range r.Errors {
		get(f.URL).Errors++
	}

	out := make([]HostCount, 0, len(byHost))
	for _, hc := range byHost {
		out = append(out, *hc)
	}
	slices.SortFunc(out, func(a, b HostCount) int {
		return strings.Compare(a.Host, b.Host)
	})
	return out
}

// errorMessage strips the URL prefix a *crawler.URLError adds, since the
// report already carries the URL.
func errorMessage(rawURL string, err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, rawURL+": "); ok {
		return rest
	}
	return msg
}
