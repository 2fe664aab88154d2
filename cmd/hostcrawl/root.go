package main

import (
	"fmt"
	"os"

	"github.com/nao1215/hostcrawl/internal/config"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for hostcrawl.
// The root command itself runs a crawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hostcrawl <url> [fetchers [extractors [perHost]]]",
		Short: "Recursive link crawler with per-host concurrency limits",
		Long: `hostcrawl downloads a page, extracts its links and follows them up to a
depth limit. Every URL is fetched at most once per crawl unless it is
reached again with more remaining depth.

fetchers and extractors size the download and link extraction worker
pools; perHost caps concurrent downloads against a single host. Each
defaults to the number of CPUs and is capped at 50.

Examples:
  # Crawl a site two levels deep and print the counts
  hostcrawl https://example.com/

  # 16 download workers, 4 extraction workers, 2 requests per host
  hostcrawl https://example.com/ 16 4 2

  # Crawl deeper, staying on the start host
  hostcrawl --depth 4 --same-host https://example.com/

  # Crawl every URL listed in a file and write a Markdown report
  hostcrawl --list seeds.txt --markdown -o report.md

  # Route requests through a local Tor SOCKS5 proxy
  hostcrawl --proxy 127.0.0.1:9050 http://example.onion/

Configuration file (.hostcrawl.yaml) example:
  depth: 3
  requestsPerSecond: 2
  sites:
    example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"
      depth: 5`,
		Version:       getVersion(),
		Args:          cobra.MaximumNArgs(4),
		RunE:          runRootCmd,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging and detailed text reports")

	// Crawl behavior flags
	cmd.Flags().IntP("depth", "d", config.DefaultDepth,
		"Crawl depth (1 fetches only the start URL)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:9050)")
	cmd.Flags().Float64("rate", 0,
		"Maximum requests per second per host (0 disables the limit)")
	cmd.Flags().Int("burst", config.DefaultBurst,
		"Requests allowed in a burst per host when --rate is set")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")
	cmd.Flags().StringArrayP("header", "H", nil,
		`Extra request header in "Name: value" form (repeatable)`)
	cmd.Flags().Bool("same-host", false,
		"Only follow links on the start URL's host")
	cmd.Flags().Bool("same-domain", false,
		"Only follow links on the start URL's registrable domain")
	cmd.Flags().StringSlice("ignore", nil,
		"URL path globs that are never followed")
	cmd.Flags().StringSlice("follow", nil,
		"URL path globs to follow; everything else is skipped")

	// Batch flags
	cmd.Flags().StringP("list", "l", "",
		"File with one start URL per line")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of start URLs crawled concurrently")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: "+config.DefaultConfigFile+" in current directory or XDG config dir)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path; the summary line still goes to stdout")

	// Add subcommands
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
