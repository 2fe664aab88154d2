package crawler

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
)

func TestHTTPDownloader(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("sends headers and extracts links", func(t *testing.T) {
		t.Parallel()

		headers := make(chan http.Header, 1)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers <- r.Header.Clone()
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(`<a href="/next">next</a>`))
		}))
		defer server.Close()

		d := NewHTTPDownloader(server.Client(),
			WithUserAgent("test-agent"),
			WithHeaders(map[string]string{"X-Test": "yes"}),
		)
		doc, err := d.Download(ctx, server.URL+"/start")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := <-headers
		if ua := got.Get("User-Agent"); ua != "test-agent" {
			t.Errorf("expected User-Agent test-agent, got %q", ua)
		}
		if custom := got.Get("X-Test"); custom != "yes" {
			t.Errorf("expected custom header, got %q", custom)
		}

		links, err := doc.ExtractLinks()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(links, []string{server.URL + "/next"}) {
			t.Errorf("unexpected links %v", links)
		}
	})

	t.Run("host headers", func(t *testing.T) {
		t.Parallel()

		cookies := make(chan string, 1)
		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			cookies <- r.Header.Get("Cookie")
		}))
		defer server.Close()

		d := NewHTTPDownloader(server.Client(), WithHostHeaders(func(host string) map[string]string {
			if host != "127.0.0.1" {
				return nil
			}
			return map[string]string{"Cookie": "session=abc"}
		}))
		if _, err := d.Download(ctx, server.URL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := <-cookies; got != "session=abc" {
			t.Errorf("expected host cookie, got %q", got)
		}
	})

	t.Run("default user agent", func(t *testing.T) {
		t.Parallel()

		agents := make(chan string, 1)
		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			agents <- r.Header.Get("User-Agent")
		}))
		defer server.Close()

		if _, err := NewHTTPDownloader(server.Client(), WithUserAgent("")).Download(ctx, server.URL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ua := <-agents; ua != DefaultUserAgent {
			t.Errorf("expected default User-Agent, got %q", ua)
		}
	})

	t.Run("error status fails", func(t *testing.T) {
		t.Parallel()

		for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError} {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
			}))

			_, err := NewHTTPDownloader(server.Client()).Download(ctx, server.URL)
			server.Close()

			if !errors.Is(err, ErrUnexpectedStatus) {
				t.Errorf("status %d: expected ErrUnexpectedStatus, got %v", status, err)
			}
		}
	})

	t.Run("non html has no links", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"href": "<a href=\"/x\">"}`))
		}))
		defer server.Close()

		doc, err := NewHTTPDownloader(server.Client()).Download(ctx, server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		links, err := doc.ExtractLinks()
		if err != nil || len(links) != 0 {
			t.Errorf("expected no links, got %v, %v", links, err)
		}
	})

	t.Run("body is truncated at the limit", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<a href="/early">e</a>` + strings.Repeat(" ", 4096) + `<a href="/late">l</a>`))
		}))
		defer server.Close()

		doc, err := NewHTTPDownloader(server.Client(), WithMaxBodySize(256)).Download(ctx, server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		links, err := doc.ExtractLinks()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(links, []string{server.URL + "/early"}) {
			t.Errorf("expected only the early link, got %v", links)
		}
	})

	t.Run("links resolve against the redirect target", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/new/dir/", http.StatusFound)
		})
		mux.HandleFunc("/new/dir/", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html><a href="child">c</a></html>`))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		doc, err := NewHTTPDownloader(server.Client()).Download(ctx, server.URL+"/old")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		links, err := doc.ExtractLinks()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(links, []string{server.URL + "/new/dir/child"}) {
			t.Errorf("unexpected links %v", links)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		defer server.Close()

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := NewHTTPDownloader(server.Client()).Download(cancelled, server.URL); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("nil client uses default", func(t *testing.T) {
		t.Parallel()

		if d := NewHTTPDownloader(nil); d.client != http.DefaultClient {
			t.Error("expected http.DefaultClient")
		}
	})
}

func TestHTTPDownloaderContentEncoding(t *testing.T) {
	t.Parallel()

	const page = `<html><body><a href="/next">next</a></body></html>`

	encoders := map[string]func(io.Writer) io.WriteCloser{
		"gzip": func(w io.Writer) io.WriteCloser { return gzip.NewWriter(w) },
		"br":   func(w io.Writer) io.WriteCloser { return brotli.NewWriter(w) },
		"deflate": func(w io.Writer) io.WriteCloser {
			fw, _ := flate.NewWriter(w, flate.DefaultCompression) //nolint:errcheck // level is valid
			return fw
		},
	}

	for encoding, newEncoder := range encoders {
		t.Run(encoding, func(t *testing.T) {
			t.Parallel()

			var compressed bytes.Buffer
			enc := newEncoder(&compressed)
			if _, err := enc.Write([]byte(page)); err != nil {
				t.Fatal(err)
			}
			if err := enc.Close(); err != nil {
				t.Fatal(err)
			}

			accepted := make(chan string, 1)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				accepted <- r.Header.Get("Accept-Encoding")
				w.Header().Set("Content-Type", "text/html")
				w.Header().Set("Content-Encoding", encoding)
				_, _ = w.Write(compressed.Bytes())
			}))
			defer server.Close()

			doc, err := NewHTTPDownloader(server.Client()).Download(context.Background(), server.URL)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := <-accepted; !strings.Contains(got, encoding) {
				t.Errorf("expected Accept-Encoding to include %s, got %q", encoding, got)
			}
			links, err := doc.ExtractLinks()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(links, []string{server.URL + "/next"}) {
				t.Errorf("unexpected links %v", links)
			}
		})
	}

	t.Run("corrupt gzip fails", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Encoding", "gzip")
			_, _ = w.Write([]byte("not gzip"))
		}))
		defer server.Close()

		if _, err := NewHTTPDownloader(server.Client()).Download(context.Background(), server.URL); err == nil {
			t.Error("expected decode error")
		}
	})
}

func TestHTTPDownloaderCharset(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		contentType string
		body        []byte
	}{
		{
			name:        "content-type charset",
			contentType: "text/html; charset=iso-8859-1",
			body:        []byte("<a href=\"/caf\xe9\">menu</a>"),
		},
		{
			name:        "meta charset",
			contentType: "text/html",
			body:        []byte("<html><head><meta charset=\"iso-8859-1\"></head><body><a href=\"/caf\xe9\">menu</a></body></html>"),
		},
		{
			name:        "utf-8",
			contentType: "text/html; charset=utf-8",
			body:        []byte("<a href=\"/caf\u00e9\">menu</a>"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = w.Write(tt.body)
			}))
			defer server.Close()

			doc, err := NewHTTPDownloader(server.Client()).Download(context.Background(), server.URL)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			links, err := doc.ExtractLinks()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if want := []string{server.URL + "/caf%C3%A9"}; !slices.Equal(links, want) {
				t.Errorf("got %v, want %v", links, want)
			}
		})
	}
}

func TestIsHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		contentType string
		want        bool
	}{
		{contentType: "", want: true},
		{contentType: "text/html", want: true},
		{contentType: "text/html; charset=utf-8", want: true},
		{contentType: "TEXT/HTML", want: true},
		{contentType: "application/xhtml+xml", want: true},
		{contentType: "text/plain", want: false},
		{contentType: "image/png", want: false},
		{contentType: ";;;", want: false},
	}
	for _, tt := range tests {
		if got := isHTML(tt.contentType); got != tt.want {
			t.Errorf("isHTML(%q) = %v, want %v", tt.contentType, got, tt.want)
		}
	}
}
