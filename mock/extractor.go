package mock

import (
	"github.com/fwojciec/rufus"
)

var _ rufus.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of rufus.Extractor.
type Extractor struct {
	ExtractTextFn  func(html string) (string, error)
	ExtractLinksFn func(html string, baseURL string) ([]string, error)
}

func (e *Extractor) ExtractText(html string) (string, error) {
	return e.ExtractTextFn(html)
}

func (e *Extractor) ExtractLinks(html string, baseURL string) ([]string, error) {
	return e.ExtractLinksFn(html, baseURL)
}
