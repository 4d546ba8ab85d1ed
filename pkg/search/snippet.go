package search

import "strings"

const (
	snippetContext = 50
	snippetWindow  = 100
	windowStride   = 10
)

// extractSnippet returns a short excerpt of the page. When the query
// appears literally, the snippet centers on the first occurrence with
// surrounding context; otherwise the densest window of query words wins,
// falling back to the page head.
func extractSnippet(text, query string) string {
	lower := strings.ToLower(text)
	query = strings.ToLower(strings.TrimSpace(query))

	if pos := strings.Index(lower, query); query != "" && pos >= 0 {
		start := pos - snippetContext
		if start < 0 {
			start = 0
		}
		end := pos + len(query) + snippetContext
		if end > len(text) {
			end = len(text)
		}
		snippet := text[start:end]
		if start > 0 {
			snippet = "..." + snippet
		}
		if end < len(text) {
			snippet = snippet + "..."
		}
		return snippet
	}

	return bestWindow(text, strings.Fields(query))
}

// bestWindow scans fixed-size windows and keeps the one containing the
// most query words.
func bestWindow(text string, words []string) string {
	if len(text) <= snippetWindow {
		return strings.TrimSpace(text)
	}

	lower := strings.ToLower(text)
	best := 0
	bestStart := 0
	for i := 0; i+snippetWindow <= len(text); i += windowStride {
		window := lower[i : i+snippetWindow]
		hits := 0
		for _, w := range words {
			if strings.Contains(window, w) {
				hits++
			}
		}
		if hits > best {
			best = hits
			bestStart = i
		}
	}
	return strings.TrimSpace(text[bestStart : bestStart+snippetWindow])
}
