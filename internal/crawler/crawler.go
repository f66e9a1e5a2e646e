
package crawler

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrInvalidURL = errors.New("invalid url")
	ErrNonHTML    = errors.New("non-html content")
)

// StatusError is returned for responses outside the 2xx/3xx range.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d for %s", e.StatusCode, e.URL)
}

type Options struct {
	Timeout     time.Duration
	DialTimeout time.Duration
	SizeCap     int64
	UserAgent   string
}

type HTTPClient struct {
	client    *http.Client
	sizeCap   int64
	userAgent string
}

func NewHTTPClient(opts Options) *HTTPClient {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   opts.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = "govie-covid-scraper/1.0"
	}
	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		sizeCap:   opts.SizeCap,
		userAgent: ua,
	}
}

// Response is a fetched HTML document. Body must be closed by the caller.
type Response struct {
	Body        io.ReadCloser
	FinalURL    string
	ContentType string
	Elapsed     time.Duration
}

func (h *HTTPClient) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	start := time.Now()
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if !strings.Contains(mediaType, "text/html") && !strings.Contains(mediaType, "application/xhtml+xml") && mediaType != "" {
		// servers that omit the header are let through
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrNonHTML, mediaType)
	}

	var body io.ReadCloser = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, err
		}
		body = &gzipBody{Reader: gz, raw: resp.Body}
	}

	var r io.Reader = body
	if h.sizeCap > 0 {
		r = io.LimitReader(body, h.sizeCap)
	}

	return &Response{
		Body:        readCloser{Reader: r, Closer: body},
		FinalURL:    resp.Request.URL.String(),
		ContentType: contentType,
		Elapsed:     time.Since(start),
	}, nil
}

// FetchAll fetches rawURL and reads the whole (capped) body.
func (h *HTTPClient) FetchAll(ctx context.Context, rawURL string) ([]byte, *Response, error) {
	start := time.Now()
	resp, err := h.Fetch(ctx, rawURL)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read body of %s: %w", rawURL, err)
	}
	resp.Elapsed = time.Since(start)
	return data, resp, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

type gzipBody struct {
	*gzip.Reader
	raw io.Closer
}

func (g *gzipBody) Close() error {
	g.Reader.Close()
	return g.raw.Close()
}
