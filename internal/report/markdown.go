package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/hostcrawl/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in GitHub Flavored Markdown.
// This format is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeHosts(md, report)
	w.writeFailures(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("hostcrawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Start URL", "`" + report.StartURL + "`"},
			{"Crawl Date", report.DateCrawled.Format("2006-01-02 15:04:05 MST")},
			{"Depth", strconv.Itoa(report.Depth)},
			{"Elapsed", strconv.FormatInt(report.ElapsedMillis, 10) + " ms"},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.CrawlReport) string {
	if report.Interrupted {
		return "⚠️ Interrupted (partial results)"
	}
	if report.Error != "" {
		return "❌ Error - " + report.Error
	}
	return "✅ Complete"
}

// writeSummary writes the outcome counts, a chart and an alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Summary")
	md.PlainText("")

	counts := report.CountByKind()
	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"✅ Downloaded", strconv.Itoa(report.DownloadedCount())},
			{"🔗 Malformed URL", strconv.Itoa(counts[model.ErrorKindMalformedURL])},
			{"📥 Download failed", strconv.Itoa(counts[model.ErrorKindDownload])},
			{"🧩 Extraction failed", strconv.Itoa(counts[model.ErrorKindExtract])},
			{"**Errors**", "**" + strconv.Itoa(report.ErrorCount()) + "**"},
		},
	})
	md.PlainText("")

	if report.DownloadedCount()+report.ErrorCount() > 0 {
		w.writePieChart(md, report)
	}

	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart of the crawl outcome.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.CrawlReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Crawl Outcome"),
		piechart.WithShowData(true),
	)

	if n := report.DownloadedCount(); n > 0 {
		chart.LabelAndIntValue("Downloaded", uint64(n))
	}
	counts := report.CountByKind()
	for _, kind := range model.ErrorKinds() {
		if n := counts[kind]; n > 0 {
			chart.LabelAndIntValue(kindTitle(kind), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert describing the overall outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.CrawlReport) {
	switch {
	case report.Interrupted:
		md.Cautionf("The crawl was interrupted. %d page(s) downloaded before it stopped.", report.DownloadedCount())
	case report.ErrorCount() > report.DownloadedCount():
		md.Warningf("Most visited URLs failed: %d error(s) against %d download(s).",
			report.ErrorCount(), report.DownloadedCount())
	case report.ErrorCount() > 0:
		md.Note(fmt.Sprintf("%d URL(s) could not be crawled.", report.ErrorCount()))
	default:
		md.Tip("Every visited URL was downloaded.")
	}
	md.PlainText("")
}

// writeHosts writes per-host counts.
func (w *MarkdownWriter) writeHosts(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Hosts")
	md.PlainText("")

	hosts := report.HostSummary()
	if len(hosts) == 0 {
		md.PlainText("No hosts visited.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(hosts))
	for i, h := range hosts {
		rows[i] = []string{"`" + h.Host + "`", strconv.Itoa(h.Downloaded), strconv.Itoa(h.Errors)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Host", "Downloaded", "Errors"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(report.Downloaded) > 0 {
		md.Details("Downloaded pages ("+strconv.Itoa(len(report.Downloaded))+")", strings.Join(report.Downloaded, "\n"))
		md.PlainText("")
	}
}

// writeFailures writes failed URLs grouped by kind.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Failures")
	md.PlainText("")

	if report.ErrorCount() == 0 {
		md.PlainText("No failures.")
		md.PlainText("")
		return
	}

	for _, kind := range model.ErrorKinds() {
		failures := report.FailuresOfKind(kind)
		if len(failures) == 0 {
			continue
		}

		md.PlainText("### " + kindTitle(kind))
		md.PlainText("")

		rows := make([][]string, len(failures))
		for i, f := range failures {
			msg := f.Message
			if msg == "" {
				msg = "-"
			}
			rows[i] = []string{
				"`" + truncateString(f.URL, 80) + "`",
				truncateString(msg, 80),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"URL", "Message"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [hostcrawl](https://github.com/nao1215/hostcrawl)*")
}

func kindTitle(kind model.ErrorKind) string {
	switch kind {
	case model.ErrorKindMalformedURL:
		return "Malformed URL"
	case model.ErrorKindDownload:
		return "Download failed"
	case model.ErrorKindExtract:
		return "Extraction failed"
	default:
		return "Other"
	}
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
