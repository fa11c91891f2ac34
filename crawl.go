package rufus

import (
	"context"
	"net/url"
	"strings"
)

// PageResult holds the text contributed by one seed URL: its own paragraph
// text followed by the paragraph text of each nested hop in discovery order.
type PageResult struct {
	URL    string   `json:"url"`
	Text   string   `json:"text"`
	Nested []string `json:"nested,omitempty"`
}

// SkippedURL records a URL that contributed nothing because it failed.
type SkippedURL struct {
	URL string `json:"url"`
	Err error  `json:"-"`
}

// CrawlResult is the outcome of one crawl session.
type CrawlResult struct {
	// Corpus is the concatenation of all page results in seed order.
	Corpus string `json:"corpus"`

	// Pages holds one entry per seed URL that was fetched, in seed order.
	Pages []PageResult `json:"pages"`

	// Fetched lists every URL a fetch was attempted for, in corpus order:
	// each seed followed by its nested hops.
	Fetched []string `json:"fetched"`

	// Skipped lists URLs whose fetch or extraction failed.
	Skipped []SkippedURL `json:"skipped,omitempty"`
}

// Crawler collects text from seed URLs and one hop of nested links.
type Crawler interface {
	// Crawl fetches the seeds and their nested hops and returns the corpus.
	// Per-URL failures are reported in CrawlResult.Skipped rather than
	// returned as an error.
	Crawl(ctx context.Context, seeds []string) (*CrawlResult, error)
}

// StripFragment returns rawURL without its "#fragment" suffix.
// URLs differing only by fragment refer to the same page.
func StripFragment(rawURL string) string {
	if idx := strings.Index(rawURL, "#"); idx != -1 {
		return rawURL[:idx]
	}
	return rawURL
}

// CanonicalURL returns the key under which rawURL is deduplicated: the
// fragment is dropped, the host is lowercased and an empty path becomes "/".
// Unparseable or host-less input only loses its fragment.
func CanonicalURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return StripFragment(rawURL)
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	}
	return u.String()
}

// VisitedSet records the URLs claimed for fetching within one crawl session.
type VisitedSet interface {
	// Claim marks url as visited and reports whether the caller claimed it
	// first. Concurrent callers racing on the same URL see exactly one true.
	Claim(url string) bool

	// Contains reports whether url has been claimed.
	Contains(url string) bool

	// Len returns the number of claimed URLs.
	Len() int
}

// PageStore saves crawled pages. Saved pages become visible together on
// Commit; Abort discards them.
type PageStore interface {
	Save(ctx context.Context, page *PageResult) error
	Commit() error
	Abort() error
}
