// Package crawl collects paragraph text from seed pages and from the pages
// their list items link to, one hop deep.
package crawl

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/rufus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency is the number of fetches allowed in flight when
// Crawler.Concurrency is not set.
const DefaultConcurrency = 10

// Compile-time interface verification.
var _ rufus.Crawler = (*Crawler)(nil)

// Crawler fetches seed URLs concurrently, follows the first link of each
// list item on a seed page exactly once, and concatenates the paragraph
// text of everything it fetched.
type Crawler struct {
	Fetcher     rufus.Fetcher
	Extractor   rufus.Extractor
	Concurrency int

	// RetryDelays are the waits between attempts of a failed fetch.
	// Nil means a single attempt per URL.
	RetryDelays []time.Duration

	// Logger, if set, receives retry diagnostics.
	Logger LogFunc

	// Progress, if set, receives an event per finished URL. Calls are
	// serialized.
	Progress ProgressFunc
}

// ProgressEvent reports progress during a crawl operation.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	URL       string
	Nested    bool
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting crawl progress.
type ProgressFunc func(event ProgressEvent)

// page holds the outcome of fetching and extracting a single URL.
type page struct {
	url   string
	text  string
	links []string
	err   error
}

// seedOutcome is a seed page plus the nested pages it claimed, in
// discovery order.
type seedOutcome struct {
	root   page
	nested []page
}

// session is the state of one Crawl call. Nothing in it outlives the call.
type session struct {
	c       *Crawler
	visited rufus.VisitedSet
	sem     *semaphore.Weighted

	mu        sync.Mutex
	completed int
}

// Crawl fetches seeds and their nested hops and returns the corpus.
// Failed URLs contribute no text and are listed in the result's Skipped
// field; the returned error is reserved for a misconfigured Crawler.
//
// All seeds are claimed before any fetch starts. Nested links are then
// claimed seed by seed in input order, so when two pages link to the same
// URL the earlier seed owns it and the corpus does not depend on which
// fetch finished first.
func (c *Crawler) Crawl(ctx context.Context, seeds []string) (*rufus.CrawlResult, error) {
	if c.Fetcher == nil {
		return nil, rufus.Errorf(rufus.EINVALID, "crawler requires a fetcher")
	}
	if c.Extractor == nil {
		return nil, rufus.Errorf(rufus.EINVALID, "crawler requires an extractor")
	}

	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	s := &session{
		c:       c,
		visited: NewVisitedSet(len(seeds) * 8),
		sem:     semaphore.NewWeighted(int64(concurrency)),
	}

	owned := make([]bool, len(seeds))
	for i, seed := range seeds {
		owned[i] = s.visited.Claim(seed)
	}
	s.report(ProgressEvent{Type: ProgressStarted})

	// turns[i] is closed once every seed before i has claimed its links.
	turns := make([]chan struct{}, len(seeds)+1)
	for i := range turns {
		turns[i] = make(chan struct{})
	}
	close(turns[0])

	outcomes := make([]*seedOutcome, len(seeds))
	var g errgroup.Group
	for i, seed := range seeds {
		g.Go(func() error {
			outcomes[i] = s.crawlSeed(ctx, seed, owned[i], turns[i], turns[i+1])
			return nil
		})
	}
	_ = g.Wait()

	result := assemble(outcomes)
	s.report(ProgressEvent{Type: ProgressFinished})
	return result, nil
}

// crawlSeed fetches one seed, waits for its claim turn, claims the nested
// links nobody reached first, hands the turn on, then fetches the claimed
// links concurrently. A seed already claimed by an earlier duplicate only
// forwards the turn.
func (s *session) crawlSeed(ctx context.Context, seed string, owned bool, turn <-chan struct{}, next chan<- struct{}) *seedOutcome {
	if !owned {
		<-turn
		close(next)
		return nil
	}

	root := s.visit(ctx, rufus.CanonicalURL(seed), true)

	<-turn
	var claimed []string
	if root.err == nil {
		for _, link := range root.links {
			if s.visited.Claim(link) {
				claimed = append(claimed, rufus.CanonicalURL(link))
			}
		}
	}
	close(next)

	nested := make([]page, len(claimed))
	var g errgroup.Group
	for i, link := range claimed {
		g.Go(func() error {
			nested[i] = s.visit(ctx, link, false)
			return nil
		})
	}
	_ = g.Wait()

	return &seedOutcome{root: root, nested: nested}
}

// visit fetches url and extracts its paragraph text, plus its list-item
// links when withLinks is set.
func (s *session) visit(ctx context.Context, url string, withLinks bool) page {
	p := page{url: url}
	defer func() {
		ev := ProgressEvent{Type: ProgressCompleted, URL: url, Nested: !withLinks}
		if p.err != nil {
			ev.Type = ProgressFailed
			ev.Error = p.err
		}
		s.report(ev)
	}()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		p.err = rufus.Errorf(rufus.ETRANSPORT, "fetching %s: %v", url, err)
		return p
	}
	result, err := FetchWithRetryDelays(ctx, url, s.c.Fetcher.Fetch, s.c.Logger, s.c.RetryDelays)
	s.sem.Release(1)
	if err != nil {
		p.err = err
		return p
	}

	p.text, err = s.c.Extractor.ExtractText(result.Text)
	if err != nil {
		p.err = err
		return p
	}

	if withLinks {
		p.links, err = s.c.Extractor.ExtractLinks(result.Text, url)
		if err != nil {
			p.err = err
			p.text = ""
			return p
		}
	}
	return p
}

// report delivers ev to the progress callback, if any.
func (s *session) report(ev ProgressEvent) {
	if s.c.Progress == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.Type == ProgressCompleted || ev.Type == ProgressFailed {
		s.completed++
	}
	ev.Completed = s.completed
	s.c.Progress(ev)
}

// assemble concatenates outcomes in seed order, each seed's own text
// followed by its nested pages' text in discovery order.
func assemble(outcomes []*seedOutcome) *rufus.CrawlResult {
	result := &rufus.CrawlResult{}
	var corpus strings.Builder

	for _, o := range outcomes {
		if o == nil {
			continue
		}

		result.Fetched = append(result.Fetched, o.root.url)
		if o.root.err != nil {
			result.Skipped = append(result.Skipped, rufus.SkippedURL{URL: o.root.url, Err: o.root.err})
			continue
		}

		var text strings.Builder
		text.WriteString(o.root.text)
		pr := rufus.PageResult{URL: o.root.url}
		for _, n := range o.nested {
			result.Fetched = append(result.Fetched, n.url)
			if n.err != nil {
				result.Skipped = append(result.Skipped, rufus.SkippedURL{URL: n.url, Err: n.err})
				continue
			}
			text.WriteString(n.text)
			pr.Nested = append(pr.Nested, n.url)
		}
		pr.Text = text.String()

		result.Pages = append(result.Pages, pr)
		corpus.WriteString(pr.Text)
	}

	result.Corpus = corpus.String()
	return result
}
