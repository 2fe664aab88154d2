// Package model defines the report data structures produced by a crawl.
//
// This package contains the following main types:
//   - CrawlReport: The outcome of crawling one start URL
//   - URLFailure: A single per-URL error with its classified kind
//   - ErrorKind: The error taxonomy (malformed URL, download, extraction)
//
// Design decision: Report structures live apart from both the crawler and
// the report writers, so writers depend on plain data and never on the
// crawler's runtime types.
//
// The models are designed to be serializable to JSON for report output.
package model
