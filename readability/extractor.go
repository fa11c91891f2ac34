// Package readability implements rufus.Extractor with go-readability's
// article scoring.
package readability

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/rufus"
	rufusgoquery "github.com/fwojciec/rufus/goquery"
	"github.com/go-shiori/go-readability"
)

// Ensure Extractor implements rufus.Extractor at compile time.
var _ rufus.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability to keep only the paragraphs of a page's
// main article. Links are taken from the whole page.
type Extractor struct {
	links *rufusgoquery.Extractor
}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{links: rufusgoquery.NewExtractor()}
}

// ExtractText returns the paragraphs of the main article, each followed by
// a newline.
func (e *Extractor) ExtractText(rawHTML string) (string, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", rufus.Errorf(rufus.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil || article.Node == nil {
		return "", nil
	}

	var b strings.Builder
	goquery.NewDocumentFromNode(article.Node).Find("p").Each(func(_ int, sel *goquery.Selection) {
		b.WriteString(sel.Text())
		b.WriteByte('\n')
	})
	if b.Len() == 0 && strings.TrimSpace(article.TextContent) != "" {
		b.WriteString(strings.TrimSpace(article.TextContent))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// ExtractLinks delegates to the goquery list-item link extraction.
func (e *Extractor) ExtractLinks(rawHTML string, baseURL string) ([]string, error) {
	return e.links.ExtractLinks(rawHTML, baseURL)
}
