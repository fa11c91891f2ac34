// Package trafilatura implements rufus.Extractor with go-trafilatura main
// content detection, so navigation, sidebars and footers stay out of the
// corpus.
package trafilatura

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/rufus"
	rufusgoquery "github.com/fwojciec/rufus/goquery"
	"github.com/markusmobius/go-trafilatura"
)

// Ensure Extractor implements rufus.Extractor at compile time.
var _ rufus.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to extract the paragraphs of a page's main
// content. Links are taken from the whole page.
type Extractor struct {
	links *rufusgoquery.Extractor
}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{links: rufusgoquery.NewExtractor()}
}

// ExtractText returns the paragraphs of the main content, each followed by
// a newline. A page with no detectable main content yields no text.
func (e *Extractor) ExtractText(rawHTML string) (string, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", rufus.Errorf(rufus.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil || result == nil || result.ContentNode == nil {
		return "", nil
	}

	var b strings.Builder
	goquery.NewDocumentFromNode(result.ContentNode).Find("p").Each(func(_ int, sel *goquery.Selection) {
		b.WriteString(sel.Text())
		b.WriteByte('\n')
	})
	if b.Len() == 0 && strings.TrimSpace(result.ContentText) != "" {
		b.WriteString(result.ContentText)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// ExtractLinks delegates to the goquery list-item link extraction.
func (e *Extractor) ExtractLinks(rawHTML string, baseURL string) ([]string, error) {
	return e.links.ExtractLinks(rawHTML, baseURL)
}
