// Package crawler provides a bounded-concurrency recursive link crawler.
//
// # Architecture
//
// A Crawler owns two worker pools, one for page fetches and one for link
// extraction, plus a host gate that admits at most a fixed number of
// concurrent fetches per remote host. Each call to Download starts a crawl
// that walks outbound links at decreasing depth until the depth budget is
// exhausted.
//
// # Components
//
//   - visitedRegistry: URL to deepest scheduled depth, used for dedup
//   - hostGate: per-host in-flight counter with a FIFO of deferred fetches
//   - workerPool: fixed set of goroutines draining an unbounded FIFO queue
//   - barrier: dynamic completion counter, Download blocks until it drains
//   - Crawler / crawl: the driver that ties the pieces together
//
// # Completion
//
// The amount of work is not known up front because every fetched page may
// discover any number of further links. Every unit registers with the
// barrier before it is handed to a pool, and arrives when it finishes. The
// root call holds one extra party until the start URL has been scheduled, so
// the barrier can only drain once no unit is left that could create more
// work.
//
// # Usage
//
//	d := crawler.NewHTTPDownloader(http.DefaultClient)
//	c := crawler.New(d, 8, 8, 2)
//	defer c.Close()
//	res, err := c.Download(ctx, "https://example.com/", 2)
package crawler
