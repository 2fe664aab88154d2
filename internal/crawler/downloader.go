package crawler

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
)

// Downloader fetches a single page.
// Implementations must be safe for concurrent use.
type Downloader interface {
	Download(ctx context.Context, rawURL string) (Document, error)
}

// Document is a fetched page whose outbound links can be extracted.
// ExtractLinks is called on the extraction pool, never on the fetch pool.
type Document interface {
	ExtractLinks() ([]string, error)
}

// DownloaderFunc adapts a function to the Downloader interface.
type DownloaderFunc func(ctx context.Context, rawURL string) (Document, error)

// Download calls f(ctx, rawURL).
func (f DownloaderFunc) Download(ctx context.Context, rawURL string) (Document, error) {
	return f(ctx, rawURL)
}

// Default HTTPDownloader settings.
const (
	DefaultUserAgent   = "hostcrawl/1.0 (+https://github.com/nao1215/hostcrawl)"
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// HTTPDownloader downloads pages over HTTP and parses HTML for anchors.
type HTTPDownloader struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	headers     map[string]string
	hostHeaders func(host string) map[string]string
}

// HTTPOption configures an HTTPDownloader.
type HTTPOption func(*HTTPDownloader)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPOption {
	return func(d *HTTPDownloader) {
		if ua != "" {
			d.userAgent = ua
		}
	}
}

// WithMaxBodySize limits how many bytes of a response body are read.
func WithMaxBodySize(size int64) HTTPOption {
	return func(d *HTTPDownloader) {
		if size > 0 {
			d.maxBodySize = size
		}
	}
}

// WithHeaders adds custom headers to every request.
func WithHeaders(headers map[string]string) HTTPOption {
	return func(d *HTTPDownloader) {
		d.headers = headers
	}
}

// WithHostHeaders adds the headers returned by fn for the request's host.
// They are applied after the headers set by WithHeaders.
func WithHostHeaders(fn func(host string) map[string]string) HTTPOption {
	return func(d *HTTPDownloader) {
		d.hostHeaders = fn
	}
}

// NewHTTPDownloader returns a Downloader backed by client.
// A nil client means http.DefaultClient.
func NewHTTPDownloader(client *http.Client, opts ...HTTPOption) *HTTPDownloader {
	if client == nil {
		client = http.DefaultClient
	}
	d := &HTTPDownloader{
		client:      client,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download performs a GET request for rawURL and buffers the body.
// Responses with a status of 400 or above are treated as failures.
func (d *HTTPDownloader) Download(ctx context.Context, rawURL string) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	for k, v := range d.headers {
		req.Header.Set(k, v)
	}
	if d.hostHeaders != nil {
		for k, v := range d.hostHeaders(req.URL.Hostname()) {
			req.Header.Set(k, v)
		}
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, d.maxBodySize)) //nolint:errcheck // best effort
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := d.readBody(resp)
	if err != nil {
		return nil, err
	}

	// Links resolve against the final URL after redirects.
	base := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL.String()
	}

	return &htmlDocument{
		baseURL:     base,
		contentType: resp.Header.Get("Content-Type"),
		body:        body,
	}, nil
}

// readBody decodes the response body according to its Content-Encoding and
// reads at most maxBodySize decoded bytes.
// Setting Accept-Encoding by hand turns off the transport's transparent gzip
// handling, so every advertised encoding is decoded here.
func (d *HTTPDownloader) readBody(resp *http.Response) ([]byte, error) {
	reader := io.Reader(resp.Body)

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		fl := flate.NewReader(resp.Body)
		defer fl.Close()
		reader = fl
	}

	body, err := io.ReadAll(io.LimitReader(reader, d.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// htmlDocument is a buffered HTTP response.
type htmlDocument struct {
	baseURL     string
	contentType string
	body        []byte
}

// ExtractLinks parses the body for anchors. Non-HTML documents have no links.
func (doc *htmlDocument) ExtractLinks() ([]string, error) {
	if !isHTML(doc.contentType) {
		return nil, nil
	}
	parser, err := NewParser(doc.baseURL)
	if err != nil {
		return nil, err
	}
	// Transcode to UTF-8 using the Content-Type charset, a <meta> tag or sniffing.
	content, err := charset.NewReader(bytes.NewReader(doc.body), doc.contentType)
	if err != nil {
		return nil, fmt.Errorf("decode charset: %w", err)
	}
	return parser.ParseLinks(content)
}

// isHTML reports whether contentType names an HTML media type.
// An empty content type is assumed to be HTML.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
