// Package http provides an HTTP-based implementation of rufus.Fetcher
// that decodes response bodies according to their declared charset.
package http

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fwojciec/rufus"
	"golang.org/x/net/html/charset"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
// Kept consistent with rod.DefaultFetchTimeout (10s).
const DefaultFetchTimeout = 10 * time.Second

// Ensure Fetcher implements rufus.Fetcher at compile time.
var _ rufus.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves page text using plain HTTP GET requests.
// Unlike rod.Fetcher, this does not execute JavaScript.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithClient sets the HTTP client used for requests. The Fetcher works on a
// copy carrying the configured fetch timeout; c itself is left unchanged.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}

	var c http.Client
	if f.client != nil {
		c = *f.client
	}
	c.Timeout = f.timeout
	f.client = &c

	return f
}

// Fetch retrieves the URL and decodes its body.
// The charset comes from the Content-Type header and defaults to UTF-8.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*rufus.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, rufus.Errorf(rufus.ETRANSPORT, "invalid request for %s: %v", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		var timeoutErr interface{ Timeout() bool }
		if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
			return nil, rufus.Errorf(rufus.ETRANSPORT, "timeout after %s fetching %s", f.timeout, url)
		}
		return nil, rufus.Errorf(rufus.ETRANSPORT, "fetching %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, rufus.Errorf(rufus.ETRANSPORT, "HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, rufus.Errorf(rufus.ETRANSPORT, "reading body of %s: %v", url, err)
	}

	label := ContentCharset(resp.Header.Get("Content-Type"))
	text, enc, err := Decode(body, label)
	if err != nil {
		return nil, rufus.Errorf(rufus.EENCODING, "decoding %s: %s", url, rufus.ErrorMessage(err))
	}

	return &rufus.FetchResult{
		URL:      url,
		Text:     text,
		Encoding: enc,
	}, nil
}

// Close releases idle connections held by the client.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// ContentCharset returns the charset parameter of a Content-Type header,
// or rufus.DefaultEncoding when none is declared.
func ContentCharset(contentType string) string {
	if contentType == "" {
		return rufus.DefaultEncoding
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return rufus.DefaultEncoding
	}
	if cs := strings.TrimSpace(params["charset"]); cs != "" {
		return cs
	}
	return rufus.DefaultEncoding
}

// Decode converts body from the named charset to UTF-8 and returns the
// canonical charset name. Unknown charsets and malformed bodies return EENCODING.
func Decode(body []byte, label string) (string, string, error) {
	enc, name := charset.Lookup(label)
	if enc == nil {
		return "", "", rufus.Errorf(rufus.EENCODING, "unsupported charset %q", label)
	}

	if name == rufus.DefaultEncoding {
		if !utf8.Valid(body) {
			return "", "", rufus.Errorf(rufus.EENCODING, "invalid %s byte sequence", name)
		}
		return string(body), name, nil
	}

	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", "", rufus.Errorf(rufus.EENCODING, "invalid %s byte sequence: %v", name, err)
	}
	return string(decoded), name, nil
}
