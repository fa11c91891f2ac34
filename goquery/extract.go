// Package goquery implements rufus.Extractor using goquery CSS selection.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/rufus"
)

// Ensure Extractor implements rufus.Extractor at compile time.
var _ rufus.Extractor = (*Extractor)(nil)

// Extractor pulls paragraph text and list-item links out of HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractText returns the text of every <p> element in document order,
// each followed by a newline.
func (e *Extractor) ExtractText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", rufus.Errorf(rufus.EINVALID, "failed to parse HTML: %v", err)
	}

	var b strings.Builder
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		b.WriteString(sel.Text())
		b.WriteByte('\n')
	})
	return b.String(), nil
}

// ExtractLinks returns the first hyperlink of every <li> that has one,
// resolved against baseURL. Duplicates are kept; the crawler dedups.
func (e *Extractor) ExtractLinks(html string, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, rufus.Errorf(rufus.EINVALID, "invalid base URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, rufus.Errorf(rufus.EINVALID, "failed to parse HTML: %v", err)
	}

	var links []string
	doc.Find("li").Each(func(_ int, li *goquery.Selection) {
		a := li.Find("a[href]").First()
		if a.Length() == 0 {
			return
		}
		href, _ := a.Attr("href")
		if resolved := resolveURL(base, href); resolved != "" {
			links = append(links, resolved)
		}
	})
	return links, nil
}

// resolveURL resolves href against base and strips the fragment.
// Returns empty string for unparseable or non-HTTP references
// (javascript:, mailto:, tel:, data: and friends).
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved.String()
}
