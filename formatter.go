package rufus

import (
	"fmt"
	"strings"
)

// FormatResult formats retrieval hits for display, one "[rank] text" entry
// per hit separated by blank lines.
func FormatResult(r *RetrievalResult) string {
	if r.Len() == 0 {
		return ""
	}

	parts := make([]string, 0, len(r.Hits))
	for _, h := range r.Hits {
		parts = append(parts, fmt.Sprintf("[%d] %s", h.Rank, h.Text))
	}

	return strings.Join(parts, "\n\n")
}

// FormatBuildSummary formats build statistics for display.
func FormatBuildSummary(r *BuildResult) string {
	if r == nil {
		return ""
	}
	s := fmt.Sprintf("Indexed %d chunks from %d pages (%s", r.Chunks, len(r.Fetched)-len(r.Skipped), FormatBytes(r.Bytes))
	if r.Tokens > 0 {
		s += ", " + FormatTokens(r.Tokens)
	}
	s += ")"
	if n := len(r.Skipped); n > 0 {
		s += fmt.Sprintf(", skipped %d", n)
	}
	return s
}

// TruncateURL shortens a URL for display, keeping the informative end.
func TruncateURL(url string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if maxLen < 4 {
		return url[:min(len(url), maxLen)]
	}
	if len(url) <= maxLen {
		return url
	}
	return "..." + url[len(url)-maxLen+3:]
}

// FormatBytes formats bytes in human-readable form.
func FormatBytes(bytes int) string {
	const (
		KB = 1024
		MB = KB * 1024
	)
	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatTokens formats a token count in human-readable form.
func FormatTokens(tokens int) string {
	if tokens < 1000 {
		return fmt.Sprintf("~%d tokens", tokens)
	}
	return fmt.Sprintf("~%dk tokens", (tokens+500)/1000)
}
