package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/hostcrawl/internal/model"
)

// SimpleWriter outputs human-readable text reports.
//
// By default it prints the single line "downloaded N, errors M". In verbose
// mode a detailed block with per-host counts and every failure follows.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with nothing to list are shown.
	showEmpty bool

	// verbose enables the detailed block.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	if w.verbose {
		w.writeHeader(&sb, report)
		w.writeHosts(&sb, report)
		w.writeFailures(&sb, report)
		sb.WriteString(strings.Repeat("=", 70))
		sb.WriteString("\n")
	}

	sb.WriteString(report.Summary())
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with crawl information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         HOSTCRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Start URL:  %s\n", report.StartURL)
	fmt.Fprintf(sb, "Crawl Date: %s\n", report.DateCrawled.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Depth:      %d\n", report.Depth)
	fmt.Fprintf(sb, "Elapsed:    %dms\n", report.ElapsedMillis)

	switch {
	case report.Interrupted:
		sb.WriteString("Status:     INTERRUPTED (partial results)\n")
	case report.Error != "":
		fmt.Fprintf(sb, "Status:     ERROR - %s\n", report.Error)
	default:
		sb.WriteString("Status:     Complete\n")
	}
	sb.WriteString("\n")
}

// writeHosts writes per-host download and error counts.
func (w *SimpleWriter) writeHosts(sb *strings.Builder, report *model.CrawlReport) {
	hosts := report.HostSummary()
	if len(hosts) == 0 && !w.showEmpty {
		return
	}

	writeSection(sb, "HOSTS")
	if len(hosts) == 0 {
		sb.WriteString("  No hosts visited\n\n")
		return
	}
	for _, h := range hosts {
		fmt.Fprintf(sb, "  %-40s %5d ok %5d failed\n", h.Host, h.Downloaded, h.Errors)
	}
	sb.WriteString("\n")
}

// writeFailures writes the failed URLs grouped by kind.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, report *model.CrawlReport) {
	if report.ErrorCount() == 0 && !w.showEmpty {
		return
	}

	writeSection(sb, "FAILURES")
	for _, kind := range model.ErrorKinds() {
		failures := report.FailuresOfKind(kind)
		if len(failures) == 0 && !w.showEmpty {
			continue
		}
		fmt.Fprintf(sb, "[%s] %d\n", kind, len(failures))
		for _, f := range failures {
			fmt.Fprintf(sb, "  * %s\n", f.URL)
			if f.Message != "" {
				fmt.Fprintf(sb, "    %s\n", f.Message)
			}
		}
		sb.WriteString("\n")
	}
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}
