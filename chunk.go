package rufus

import (
	"strings"
	"unicode"
)

// Chunking defaults.
const (
	DefaultChunkSize    = 1500
	DefaultChunkOverlap = 64
)

// chunkSeparators are the natural boundaries SplitText breaks on, largest first.
var chunkSeparators = []string{"\n\n", "\n", ". ", " "}

// Chunk is a contiguous window of the corpus used as the unit of embedding.
// Start and End are rune offsets into the corpus; consecutive chunks overlap
// by previous.End - next.Start runes.
type Chunk struct {
	Index   int    `json:"index"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Content string `json:"content"`
}

// Len returns the chunk length in runes.
func (c Chunk) Len() int {
	return c.End - c.Start
}

// ValidateChunking returns an error unless size > 0 and 0 <= overlap < size.
func ValidateChunking(size, overlap int) error {
	if size <= 0 {
		return Errorf(EINVALID, "chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return Errorf(EINVALID, "chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return nil
}

// SplitText splits text into windows of at most size runes where consecutive
// windows share roughly overlap runes.
//
// Each window ends on the largest natural boundary (paragraph, line, sentence,
// word) that fits; when no boundary fits, it is cut at exactly size runes.
// The following window starts overlap runes before the previous end, moved
// forward to the next word start when one is available.
//
// Empty text yields no chunks; text no longer than size yields one chunk.
func SplitText(text string, size, overlap int) ([]Chunk, error) {
	if err := ValidateChunking(size, overlap); err != nil {
		return nil, err
	}

	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil, nil
	}

	var chunks []Chunk
	start := 0
	for {
		end := n
		if n-start > size {
			end = breakPoint(runes, start, start+size, overlap)
		}
		chunks = append(chunks, Chunk{
			Index:   len(chunks),
			Start:   start,
			End:     end,
			Content: string(runes[start:end]),
		})
		if end == n {
			break
		}
		start = overlapStart(runes, end, overlap)
	}
	return chunks, nil
}

// breakPoint returns the offset just past the last separator in
// runes[start:limit], trying separators from largest to smallest.
// The result is always greater than start+overlap so the next window advances.
func breakPoint(runes []rune, start, limit, overlap int) int {
	for _, sep := range chunkSeparators {
		s := []rune(sep)
		for i := limit - len(s); i >= start && i+len(s) > start+overlap; i-- {
			if hasRunes(runes[i:], s) {
				return i + len(s)
			}
		}
	}
	return limit
}

// overlapStart returns where the window after one ending at end begins.
func overlapStart(runes []rune, end, overlap int) int {
	if overlap == 0 {
		return end
	}
	target := end - overlap
	for p := target; p < end; p++ {
		if p > 0 && unicode.IsSpace(runes[p-1]) && !unicode.IsSpace(runes[p]) {
			return p
		}
	}
	return target
}

func hasRunes(runes, prefix []rune) bool {
	if len(runes) < len(prefix) {
		return false
	}
	for i, r := range prefix {
		if runes[i] != r {
			return false
		}
	}
	return true
}

// JoinChunks reassembles the text chunks were split from by dropping the
// overlapping prefix of every chunk after the first.
func JoinChunks(chunks []Chunk) string {
	var sb strings.Builder
	prevEnd := 0
	for i, c := range chunks {
		if i == 0 {
			sb.WriteString(c.Content)
			prevEnd = c.End
			continue
		}
		runes := []rune(c.Content)
		skip := min(max(prevEnd-c.Start, 0), len(runes))
		sb.WriteString(string(runes[skip:]))
		prevEnd = c.End
	}
	return sb.String()
}
