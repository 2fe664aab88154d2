package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/nao1215/hostcrawl/internal/batch"
	"github.com/nao1215/hostcrawl/internal/config"
	"github.com/nao1215/hostcrawl/internal/crawler"
	securelog "github.com/nao1215/hostcrawl/internal/log"
	"github.com/nao1215/hostcrawl/internal/model"
	"github.com/nao1215/hostcrawl/internal/report"
	"github.com/spf13/cobra"
)

// errInvalidArgument is returned for a positional argument that is not an
// integer.
var errInvalidArgument = errors.New("invalid argument")

// concurrencyArgs names the optional positional arguments after the URL.
var concurrencyArgs = []string{"fetchers", "extractors", "perHost"}

// runRootCmd executes a crawl.
func runRootCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := securelog.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runCrawl(ctx, cfg, logger, cmd.OutOrStdout())
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from the configuration file, the command
// flags and the positional arguments, in increasing priority.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}
	if err := loadConfigFile(cfg); err != nil {
		return nil, err
	}

	// Flags override the file only when given explicitly.
	if flags.Changed("depth") {
		if cfg.Depth, err = flags.GetInt("depth"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("rate") {
		if cfg.RequestsPerSecond, err = flags.GetFloat64("rate"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("burst") {
		if cfg.Burst, err = flags.GetInt("burst"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-body-size") {
		if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("same-host") {
		if cfg.SameHostOnly, err = flags.GetBool("same-host"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("same-domain") {
		if cfg.SameDomainOnly, err = flags.GetBool("same-domain"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("ignore") {
		if cfg.IgnorePatterns, err = flags.GetStringSlice("ignore"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("follow") {
		if cfg.FollowPatterns, err = flags.GetStringSlice("follow"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("batch") {
		if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
			return nil, err
		}
	}

	headers, err := flags.GetStringArray("header")
	if err != nil {
		return nil, err
	}
	if err := applyHeaders(cfg, headers); err != nil {
		return nil, err
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	if err := applyArgs(cfg, args); err != nil {
		return nil, err
	}

	listPath, err := flags.GetString("list")
	if err != nil {
		return nil, err
	}
	if listPath != "" {
		targets, err := readTargetList(listPath)
		if err != nil {
			return nil, err
		}
		cfg.Targets = append(cfg.Targets, targets...)
	}

	return cfg, nil
}

// loadConfigFile applies the configuration file, if any, to cfg.
// A missing file is an error only when its path was given explicitly.
func loadConfigFile(cfg *config.Config) error {
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath == "" {
		if cfg.ConfigFilePath != "" {
			return fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
		}
		cfg.Sites = &config.File{Sites: make(map[string]config.SiteConfig)}
		return nil
	}

	cf, err := config.LoadConfigFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	cf.Apply(cfg)
	return nil
}

// applyHeaders parses "Name: value" header flags into cfg.Headers.
func applyHeaders(cfg *config.Config, headers []string) error {
	for _, h := range headers {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return fmt.Errorf("%w: header %q must be in \"Name: value\" form", errInvalidArgument, h)
		}
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string)
		}
		cfg.Headers[name] = strings.TrimSpace(value)
	}
	return nil
}

// applyArgs applies the positional arguments: the start URL followed by
// up to three pool sizes.
func applyArgs(cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return nil
	}
	cfg.Targets = append(cfg.Targets, args[0])

	fields := []*int{&cfg.FetchConcurrency, &cfg.ExtractConcurrency, &cfg.PerHostConcurrency}
	for i, arg := range args[1:] {
		if i >= len(fields) {
			return fmt.Errorf("%w: unexpected argument %q", errInvalidArgument, arg)
		}
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer, got %q", errInvalidArgument, concurrencyArgs[i], arg)
		}
		*fields[i] = n
	}
	return nil
}

// readTargetList reads start URLs from a file, one per line.
// Blank lines and lines starting with '#' are skipped.
func readTargetList(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided list path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open target list: %w", err)
	}
	defer f.Close()

	var targets []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read target list: %w", err)
	}
	return targets, nil
}

// runCrawl crawls every target and writes one report per target.
// It returns the first crawl-level or report error; per-URL errors are
// only reported.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout io.Writer) error {
	c, err := newCrawler(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	writer, closeOutput, err := newReportWriter(cfg, stdout)
	if err != nil {
		return err
	}
	defer closeOutput()

	bp := batch.NewProcessor(c, cfg.Depth,
		batch.WithConcurrency(cfg.BatchSize),
		batch.WithLogger(logger),
		batch.WithDepthFunc(func(seed string) int {
			return seedDepth(cfg, seed)
		}),
	)

	var (
		mu       sync.Mutex
		firstErr error
	)
	batchErr := bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(o batch.Outcome) {
		crawlReport := newCrawlReport(o)

		mu.Lock()
		defer mu.Unlock()

		if _, err := writer.Write(crawlReport); err != nil {
			logger.Error("report failed", "url", o.Seed, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to write report: %w", err)
			}
		}
		if o.Err != nil && firstErr == nil {
			firstErr = fmt.Errorf("crawl of %s stopped: %w", o.Seed, o.Err)
		}
	})

	if firstErr != nil {
		return firstErr
	}
	return batchErr
}

// newCrawler builds the HTTP downloader and the crawler from cfg.
func newCrawler(cfg *config.Config, logger *slog.Logger) (*crawler.Crawler, error) {
	client, err := crawler.NewHTTPClient(cfg.ProxyAddress, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	downloader := crawler.NewHTTPDownloader(client,
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithHeaders(cfg.Headers),
		crawler.WithHostHeaders(cfg.Sites.HostHeaders),
	)

	return crawler.New(downloader,
		cfg.FetchConcurrency, cfg.ExtractConcurrency, cfg.PerHostConcurrency,
		crawler.WithLogger(logger),
		crawler.WithIgnorePatterns(cfg.IgnorePatterns),
		crawler.WithFollowPatterns(cfg.FollowPatterns),
		crawler.WithSameHostOnly(cfg.SameHostOnly),
		crawler.WithSameDomainOnly(cfg.SameDomainOnly),
		crawler.WithHostRateLimit(cfg.RequestsPerSecond, cfg.Burst),
	), nil
}

// seedDepth returns the crawl depth for a start URL.
// A per-site depth overrides the global one.
func seedDepth(cfg *config.Config, seed string) int {
	u, err := url.Parse(seed)
	if err != nil || u.Hostname() == "" {
		return cfg.Depth
	}
	if site := cfg.Sites.GetSiteConfig(u.Hostname()); site.Depth > 0 {
		return site.Depth
	}
	return cfg.Depth
}

// newCrawlReport converts a batch outcome into a report.
func newCrawlReport(o batch.Outcome) *model.CrawlReport {
	r := model.NewCrawlReport(o.Seed, o.Depth)
	r.DateCrawled = time.Now().Add(-o.Elapsed)
	r.AddResult(o.Result)
	r.Finish(o.Elapsed, o.Err)
	return r
}

// newReportWriter returns the writer for the requested format.
// With --output the formatted report goes to the file and the summary line
// still goes to stdout. The returned function closes the file.
func newReportWriter(cfg *config.Config, stdout io.Writer) (report.Writer, func(), error) {
	if cfg.ReportFile == "" {
		return formatWriter(cfg, stdout, cfg.Verbose), func() {}, nil
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports list every crawled URL, which may include tokens in query strings.
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}

	w := report.NewMultiWriter(
		report.NewSimpleWriter(stdout),
		formatWriter(cfg, f, true),
	)
	return w, func() { _ = f.Close() }, nil
}

// formatWriter returns the writer for the configured report format.
func formatWriter(cfg *config.Config, w io.Writer, detailed bool) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(w, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(detailed))
	}
}
