package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/hostcrawl/internal/crawler"
	"github.com/nao1215/hostcrawl/internal/model"
)

// createTestReport creates a report with downloads and one failure of each kind.
func createTestReport() *model.CrawlReport {
	r := model.NewCrawlReport("https://example.com/", 2)
	r.AddResult(&crawler.Result{
		Downloaded: []string{"https://example.com/", "https://example.com/about", "https://other.test/"},
		Errors: map[string]error{
			"https://example.com/missing": &crawler.URLError{
				URL:  "https://example.com/missing",
				Kind: crawler.ErrDownload,
				Err:  errors.New("unexpected http status: 404"),
			},
			"https://example.com/broken": &crawler.URLError{
				URL:  "https://example.com/broken",
				Kind: crawler.ErrExtract,
				Err:  errors.New("parse error"),
			},
			"http://[::1": &crawler.URLError{URL: "http://[::1", Kind: crawler.ErrMalformedURL},
		},
	})
	r.Finish(250*time.Millisecond, nil)
	return r
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("default output is the summary line", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewSimpleWriter(&buf).Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := buf.String(); got != "downloaded 3, errors 3\n" {
			t.Errorf("unexpected output %q", got)
		}
		if n != buf.Len() {
			t.Errorf("expected %d bytes, got %d", buf.Len(), n)
		}
	})

	t.Run("empty report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(model.NewCrawlReport("https://example.com/", 0)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := buf.String(); got != "downloaded 0, errors 0\n" {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("verbose mode includes hosts and failures", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"HOSTCRAWL REPORT",
			"Start URL:  https://example.com/",
			"Status:     Complete",
			"HOSTS",
			"example.com",
			"FAILURES",
			"[download] 1",
			"https://example.com/missing",
			"unexpected http status: 404",
			"[extract] 1",
			"[malformed_url] 1",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
		if !strings.HasSuffix(output, "downloaded 3, errors 3\n") {
			t.Errorf("expected summary as last line, got %q", output)
		}
	})

	t.Run("verbose mode hides empty sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		r := model.NewCrawlReport("https://example.com/", 1)
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "FAILURES") {
			t.Error("expected failures section to be hidden")
		}
	})

	t.Run("show empty sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		r := model.NewCrawlReport("https://example.com/", 1)
		if _, err := NewSimpleWriter(&buf, WithVerbose(true), WithShowEmpty(true)).Write(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "No hosts visited") || !strings.Contains(output, "[download] 0") {
			t.Errorf("expected empty sections, got %s", output)
		}
	})

	t.Run("interrupted report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		r := model.NewCrawlReport("https://example.com/", 3)
		r.Finish(time.Second, context.Canceled)
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "INTERRUPTED") {
			t.Errorf("expected interrupted status, got %s", buf.String())
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("outputs valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded struct {
			StartURL   string   `json:"start_url"`
			Downloaded []string `json:"downloaded"`
			Errors     []struct {
				URL  string `json:"url"`
				Kind string `json:"kind"`
			} `json:"errors"`
		}
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.StartURL != "https://example.com/" || len(decoded.Downloaded) != 3 || len(decoded.Errors) != 3 {
			t.Errorf("unexpected decoded report %+v", decoded)
		}
		for _, e := range decoded.Errors {
			if e.Kind == "" || e.Kind == "unknown" {
				t.Errorf("expected classified kind for %s, got %q", e.URL, e.Kind)
			}
		}
	})

	t.Run("compact output by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Errorf("expected single line, got %q", buf.String())
		}
	})

	t.Run("pretty print with indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"start_url\"") {
			t.Errorf("expected indented output, got %s", buf.String())
		}
	})

	t.Run("custom prefix and indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithIndent(">", "\t")).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n>\t\"start_url\"") {
			t.Errorf("expected custom indentation, got %s", buf.String())
		}
	})
}

func TestFullJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewFullJSONWriter(&buf, "v1.2.3").Write(createTestReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded JSONReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Version != "v1.2.3" {
		t.Errorf("expected version v1.2.3, got %q", decoded.Version)
	}
	if decoded.Report == nil || decoded.Report.StartURL != "https://example.com/" {
		t.Errorf("unexpected report %+v", decoded.Report)
	}
	if len(decoded.Hosts) != 3 {
		t.Errorf("expected 3 hosts, got %v", decoded.Hosts)
	}
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))

		n, err := mw.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != text.Len()+js.Len() {
			t.Errorf("expected %d bytes, got %d", text.Len()+js.Len(), n)
		}
		if text.Len() == 0 || js.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var after bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(failingWriter{}), NewSimpleWriter(&after))

		if _, err := mw.Write(createTestReport()); err == nil {
			t.Error("expected error")
		}
		if after.Len() != 0 {
			t.Error("expected later writers to be skipped")
		}
	})

	t.Run("handles empty writers list", func(t *testing.T) {
		t.Parallel()

		n, err := NewMultiWriter().Write(createTestReport())
		if err != nil || n != 0 {
			t.Errorf("expected (0, nil), got (%d, %v)", n, err)
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes full report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# hostcrawl Report",
			"`https://example.com/`",
			"## Summary",
			"```mermaid",
			"Crawl Outcome",
			"## Hosts",
			"`example.com`",
			"<details>",
			"## Failures",
			"### Download failed",
			"`https://example.com/missing`",
			"hostcrawl](https://github.com/nao1215/hostcrawl)",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("clean report has a tip and no failures", func(t *testing.T) {
		t.Parallel()

		r := model.NewCrawlReport("https://example.com/", 1)
		r.AddResult(&crawler.Result{Downloaded: []string{"https://example.com/"}})

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "[!TIP]") {
			t.Errorf("expected tip alert, got %s", output)
		}
		if !strings.Contains(output, "No failures.") {
			t.Errorf("expected no failures, got %s", output)
		}
	})

	t.Run("empty report has no chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(model.NewCrawlReport("https://example.com/", 0)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if strings.Contains(output, "```mermaid") {
			t.Error("expected no chart for an empty report")
		}
		if !strings.Contains(output, "No hosts visited.") {
			t.Errorf("expected empty hosts section, got %s", output)
		}
	})

	t.Run("interrupted report has a caution", func(t *testing.T) {
		t.Parallel()

		r := createTestReport()
		r.Finish(time.Second, crawler.ErrClosed)

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "[!CAUTION]") || !strings.Contains(output, "Interrupted") {
			t.Errorf("expected interrupted status, got %s", output)
		}
	})
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{in: "short", maxLen: 10, want: "short"},
		{in: "exactly10!", maxLen: 10, want: "exactly10!"},
		{in: "this is too long", maxLen: 10, want: "this is..."},
		{in: "abcdef", maxLen: 3, want: "abc"},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("write failed")
}
