package score

import "strings"

// Passage is a standalone span of a page that clears the coherence
// threshold on its own.
type Passage struct {
	// Text is the passage content with surrounding whitespace trimmed.
	Text string
	// Index is the passage's sentence index within the page.
	Index int
	// Coherence is the passage's standalone composite score.
	Coherence float64
}

// ExtractPassages splits text on terminal punctuation and returns the
// passages of at least minLength characters whose standalone composite
// score is at or above minCoherence. Useful for salvaging readable spans
// from otherwise noisy pages.
func (s *Scorer) ExtractPassages(text string, minLength int, minCoherence float64) []Passage {
	if minLength <= 0 {
		minLength = 50
	}

	var passages []Passage
	for i, sent := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		sent = strings.TrimSpace(sent)
		if len(sent) < minLength {
			continue
		}
		composite, _ := s.Score(sent, "")
		if composite >= minCoherence {
			passages = append(passages, Passage{Text: sent, Index: i, Coherence: composite})
		}
	}
	return passages
}
