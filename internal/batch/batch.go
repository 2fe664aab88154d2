package batch

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/hostcrawl/internal/crawler"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of seeds crawled at once when no
// WithConcurrency option is given.
const DefaultConcurrency = 4

// Crawler is the part of *crawler.Crawler the processor needs.
type Crawler interface {
	Download(ctx context.Context, startURL string, depth int) (*crawler.Result, error)
}

// Outcome is the result of crawling one seed.
type Outcome struct {
	// Seed is the start URL.
	Seed string

	// Index is the seed's position in the input slice.
	Index int

	// Depth is the depth the seed was crawled with.
	Depth int

	// Result holds the crawl result. It is partial when Err is a
	// cancellation error and nil when the seed never started.
	Result *crawler.Result

	// Err is the crawl-level error returned by Download.
	Err error

	// Elapsed is how long the seed's crawl took.
	Elapsed time.Duration
}

// Processor crawls multiple seeds concurrently.
//
// Design decision: seeds share one Crawler rather than getting a crawler
// each, so per-host limits hold across the whole batch.
type Processor struct {
	crawler     Crawler
	concurrency int
	logger      *slog.Logger
	depthFor    func(seed string) int
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets a custom logger for batch processing.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithConcurrency sets the maximum number of seeds crawled at once.
// Non-positive values keep the default.
func WithConcurrency(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithDepthFunc chooses the crawl depth per seed, for example from
// per-site configuration.
func WithDepthFunc(fn func(seed string) int) Option {
	return func(p *Processor) {
		if fn != nil {
			p.depthFor = fn
		}
	}
}

// NewProcessor creates a Processor that crawls every seed to depth unless
// WithDepthFunc overrides it.
func NewProcessor(c Crawler, depth int, opts ...Option) *Processor {
	p := &Processor{
		crawler:     c,
		concurrency: DefaultConcurrency,
		depthFor:    func(string) int { return depth },
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// ProcessBatch crawls seeds and returns one Outcome per seed, in input order.
//
// A failed seed does not stop the others; its error is kept in its Outcome.
// The returned error is non-nil only when ctx ends before every seed started.
func (p *Processor) ProcessBatch(ctx context.Context, seeds []string) ([]Outcome, error) {
	outcomes := make([]Outcome, len(seeds))
	for i, seed := range seeds {
		outcomes[i] = Outcome{Seed: seed, Index: i, Depth: p.depthFor(seed)}
	}

	// Each goroutine writes only its own slot.
	err := p.ProcessBatchWithCallback(ctx, seeds, func(o Outcome) {
		outcomes[o.Index] = o
	})

	if err != nil {
		for i := range outcomes {
			if outcomes[i].Result == nil && outcomes[i].Err == nil {
				outcomes[i].Err = err
			}
		}
	}

	return outcomes, err
}

// ProcessBatchWithCallback crawls seeds and calls callback as each one
// completes. The callback runs on the goroutine that crawled the seed, so it
// must be safe for concurrent use.
func (p *Processor) ProcessBatchWithCallback(ctx context.Context, seeds []string, callback func(Outcome)) error {
	p.logger.Info("starting batch",
		"seeds", len(seeds),
		"concurrency", p.concurrency,
	)
	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, seed := range seeds {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			depth := p.depthFor(seed)
			p.logger.Info("crawling seed",
				"url", seed,
				"depth", depth,
				"index", i+1,
				"total", len(seeds),
			)

			start := time.Now()
			res, err := p.crawler.Download(ctx, seed, depth)
			o := Outcome{
				Seed:    seed,
				Index:   i,
				Depth:   depth,
				Result:  res,
				Err:     err,
				Elapsed: time.Since(start),
			}

			if err != nil {
				p.logger.Warn("seed crawl failed", "url", seed, "error", err)
			} else {
				p.logger.Info("seed crawl complete",
					"url", seed,
					"downloaded", len(res.Downloaded),
					"errors", len(res.Errors),
				)
			}

			callback(o)

			// Seed failures are kept in the Outcome and never cancel the group.
			return nil
		})
	}

	err := g.Wait()

	p.logger.Info("batch complete",
		"seeds", len(seeds),
		"elapsed", time.Since(startTime),
	)

	return err
}
