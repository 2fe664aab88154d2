package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"runtime/debug"
	"sync"
	"time"
)

// Crawler downloads pages and follows their links up to a depth limit with
// bounded total and per-host concurrency.
//
// A Crawler is safe for concurrent use. Concurrent Download calls share the
// worker pools and the per-host limits but not their visited sets.
type Crawler struct {
	downloader Downloader
	logger     *slog.Logger
	filter     linkFilter

	fetchers   *workerPool
	extractors *workerPool
	hosts      *hostGate

	// baseCtx is cancelled by Close and bounds every Download.
	baseCtx   context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// Option configures a Crawler.
type Option func(*settings)

type settings struct {
	logger *slog.Logger
	filter linkFilter
	rps    float64
	burst  int
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithIgnorePatterns skips extracted links whose path matches any glob.
func WithIgnorePatterns(patterns []string) Option {
	return func(s *settings) {
		s.filter.ignorePatterns = patterns
	}
}

// WithFollowPatterns follows only extracted links whose path matches a glob.
// An empty slice follows everything not ignored.
func WithFollowPatterns(patterns []string) Option {
	return func(s *settings) {
		s.filter.followPatterns = patterns
	}
}

// WithSameHostOnly restricts extracted links to the start URL's host.
func WithSameHostOnly(sameHost bool) Option {
	return func(s *settings) {
		s.filter.sameHost = sameHost
	}
}

// WithSameDomainOnly restricts extracted links to the start URL's registrable
// domain, following subdomains of the same site.
func WithSameDomainOnly(sameDomain bool) Option {
	return func(s *settings) {
		s.filter.sameDomain = sameDomain
	}
}

// WithHostRateLimit allows at most rps requests per second per host with
// the given burst. Zero rps disables rate limiting.
func WithHostRateLimit(rps float64, burst int) Option {
	return func(s *settings) {
		s.rps = rps
		s.burst = burst
	}
}

// New creates a Crawler and starts its worker pools.
//
// fetchers and extractors size the two pools; perHost caps concurrent
// fetches against a single host. Each value is clamped to [1, MaxConcurrency].
// Close must be called to stop the pools.
func New(downloader Downloader, fetchers, extractors, perHost int, opts ...Option) *Crawler {
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	fetchPool := newWorkerPool(fetchers)

	return &Crawler{
		downloader: downloader,
		logger:     s.logger,
		filter:     s.filter,
		fetchers:   fetchPool,
		extractors: newWorkerPool(extractors),
		hosts:      newHostGate(fetchPool, perHost, s.rps, s.burst),
		baseCtx:    ctx,
		cancel:     cancel,
	}
}

// Close stops both pools. Queued work is discarded, running units are
// cancelled through their context and awaited. Download must not be called
// after Close; it returns ErrClosed if it is.
func (c *Crawler) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		c.fetchers.close()
		c.extractors.close()
		c.logger.Debug("crawler closed")
	})
}

// Workers returns the number of live worker goroutines in both pools.
func (c *Crawler) Workers() int {
	return c.fetchers.workers() + c.extractors.workers()
}

// HostStats returns the admission state for host.
func (c *Crawler) HostStats(host string) HostStats {
	return c.hosts.stats(host)
}

// Download crawls from startURL, following links until depth is exhausted.
// Depth 0 fetches nothing, depth 1 fetches only startURL, depth 2 also
// fetches the pages it links to, and so on.
//
// Per-URL failures never abort the crawl; they are collected in
// Result.Errors. A malformed startURL yields a result with that single error.
// If ctx is cancelled or the Crawler is closed before the crawl finishes,
// the partial result is returned together with ctx.Err() or ErrClosed.
func (c *Crawler) Download(ctx context.Context, startURL string, depth int) (*Result, error) {
	if depth < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeDepth, depth)
	}
	if c.baseCtx.Err() != nil {
		return nil, ErrClosed
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.baseCtx, cancel)
	defer stop()

	cr := c.newCrawl(ctx, startURL)

	c.logger.Info("crawl started", "url", startURL, "depth", depth)
	start := time.Now()

	cr.schedule(startURL, depth)
	cr.barrier.arrive()

	err := cr.barrier.wait(ctx)
	if err == nil {
		// Units that saw a cancelled context finish quickly and may drain
		// the barrier before wait observes ctx.
		err = ctx.Err()
	}
	if err != nil && c.baseCtx.Err() != nil {
		err = ErrClosed
	}

	res := cr.result()
	c.logger.Info("crawl finished",
		"url", startURL,
		"downloaded", len(res.Downloaded),
		"errors", len(res.Errors),
		"visited", cr.visited.len(),
		"elapsed", time.Since(start),
	)
	return res, err
}

// newCrawl returns the state for one Download call. The barrier starts with
// one party held by the caller.
func (c *Crawler) newCrawl(ctx context.Context, startURL string) *crawl {
	cr := &crawl{
		Crawler: c,
		ctx:     ctx,
		visited: newVisitedRegistry(),
		barrier: newBarrier(1),
		errors:  make(map[string]error),
	}
	if u, err := url.Parse(startURL); err == nil {
		cr.rootHost = u.Hostname()
	}
	return cr
}

// crawl is the state of a single Download call.
type crawl struct {
	*Crawler

	ctx      context.Context
	rootHost string
	visited  *visitedRegistry
	barrier  *barrier

	mu         sync.Mutex
	downloaded []string
	errors     map[string]error
}

// schedule admits rawURL at depth and hands a fetch unit to the host gate.
// It only submits work and returns; recursion happens through the pools.
func (cr *crawl) schedule(rawURL string, depth int) {
	if depth <= 0 {
		return
	}

	host, err := hostOf(rawURL)
	if err != nil {
		cr.fail(rawURL, ErrMalformedURL, err)
		return
	}

	admitted, first := cr.visited.tryAdmit(rawURL, depth)
	if !admitted {
		return
	}
	if first {
		cr.mu.Lock()
		cr.downloaded = append(cr.downloaded, rawURL)
		cr.mu.Unlock()
	}

	cr.barrier.register()
	if err := cr.hosts.submit(host, cr.fetchUnit(rawURL, host, depth)); err != nil {
		cr.fail(rawURL, ErrDownload, err)
		cr.barrier.arrive()
	}
}

// fetchUnit downloads rawURL and, while depth remains, queues its extraction.
func (cr *crawl) fetchUnit(rawURL, host string, depth int) job {
	return func() {
		defer cr.barrier.arrive()
		defer cr.hosts.release(host)

		doc, err := cr.fetch(rawURL, host)
		if err != nil {
			cr.fail(rawURL, ErrDownload, err)
			return
		}
		cr.logger.Debug("page downloaded", "url", rawURL, "depth", depth)

		if depth <= 1 {
			return
		}

		cr.barrier.register()
		if err := cr.extractors.submit(cr.extractUnit(rawURL, doc, depth)); err != nil {
			cr.fail(rawURL, ErrExtract, err)
			cr.barrier.arrive()
		}
	}
}

// extractUnit extracts the links of pageURL and schedules each at depth-1.
//
// Extraction is all-or-nothing: if the document reports an error, no link
// from it is followed.
func (cr *crawl) extractUnit(pageURL string, doc Document, depth int) job {
	return func() {
		defer cr.barrier.arrive()

		links, err := extractLinks(doc)
		if err != nil {
			cr.fail(pageURL, ErrExtract, err)
			return
		}
		cr.logger.Debug("links extracted", "url", pageURL, "links", len(links))

		for _, link := range links {
			if !cr.filter.allow(cr.rootHost, link) {
				continue
			}
			cr.schedule(link, depth-1)
		}
	}
}

func (cr *crawl) fetch(rawURL, host string) (doc Document, err error) {
	if err := cr.ctx.Err(); err != nil {
		return nil, err
	}
	if err := cr.hosts.wait(cr.ctx, host); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			cr.logger.Error("downloader panicked", "url", rawURL, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("downloader panic: %v", r)
		}
	}()
	return cr.downloader.Download(cr.ctx, rawURL)
}

func extractLinks(doc Document) (links []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor panic: %v", r)
		}
	}()
	return doc.ExtractLinks()
}

// fail records err against rawURL. A later error for the same URL replaces
// the earlier one.
func (cr *crawl) fail(rawURL string, kind, err error) {
	urlErr := &URLError{URL: rawURL, Kind: kind, Err: err}

	cr.mu.Lock()
	cr.errors[rawURL] = urlErr
	cr.mu.Unlock()

	cr.logger.Warn("crawl error", "url", rawURL, "kind", kind.Error(), "error", err)
}

// result snapshots the crawl. URLs with an error are removed from the
// downloaded set.
func (cr *crawl) result() *Result {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	res := &Result{
		Downloaded: make([]string, 0, len(cr.downloaded)),
		Errors:     make(map[string]error, len(cr.errors)),
	}
	for u, err := range cr.errors {
		res.Errors[u] = err
	}
	for _, u := range cr.downloaded {
		if _, failed := cr.errors[u]; !failed {
			res.Downloaded = append(res.Downloaded, u)
		}
	}
	res.sort()
	return res
}

// hostOf returns the host name of an absolute URL, without the port.
func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Hostname() == "" {
		return "", fmt.Errorf("missing scheme or host in %q", rawURL)
	}
	return u.Hostname(), nil
}
