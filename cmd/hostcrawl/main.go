// Package main provides the entry point for the hostcrawl CLI.
//
// hostcrawl downloads a page and recursively follows its links up to a
// depth limit, with bounded total and per-host concurrency.
//
// Usage:
//
//	hostcrawl <url> [fetchers [extractors [perHost]]]
//	hostcrawl --list <file>
//
// See --help for all available options.
package main

// main is the entry point for hostcrawl.
func main() {
	Execute()
}
