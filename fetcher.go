package rufus

import "context"

// DefaultEncoding is assumed when a response declares no charset.
const DefaultEncoding = "utf-8"

// FetchResult holds a decoded page body.
type FetchResult struct {
	// URL is the requested URL.
	URL string

	// Text is the body decoded to UTF-8.
	Text string

	// Encoding is the charset the body was decoded from.
	Encoding string
}

// Fetcher retrieves page text from URLs.
type Fetcher interface {
	// Fetch issues a single GET for the URL and returns the decoded body.
	// Returns ETRANSPORT on connection failure, timeout or non-2xx status,
	// and EENCODING when the body cannot be decoded under its charset.
	Fetch(ctx context.Context, url string) (*FetchResult, error)

	// Close releases resources held by the fetcher.
	Close() error
}
