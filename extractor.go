package rufus

// Extractor turns fetched HTML into plain text and nested-hop links.
type Extractor interface {
	// ExtractText returns the text of every paragraph element in document
	// order, each followed by a newline.
	ExtractText(html string) (string, error)

	// ExtractLinks returns, for every list item containing a hyperlink, the
	// first hyperlink resolved against baseURL. Fragments are stripped and
	// only http and https URLs are returned.
	ExtractLinks(html string, baseURL string) ([]string, error)
}
