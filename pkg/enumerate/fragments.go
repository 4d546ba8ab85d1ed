package enumerate

import "strings"

// Fragment is a sub-phrase derived from a query: a single word, a word
// pair, or a word triple.
type Fragment struct {
	Text  string
	Prior float64
}

// SplitFragments splits a normalized phrase into searchable fragments:
// individual words of at least minLen characters, consecutive word
// pairs, and consecutive word triples. Longer fragments carry higher
// priors because a match against them is more specific.
func SplitFragments(phrase string, minLen int) []Fragment {
	words := strings.Fields(strings.ToLower(phrase))

	var frags []Fragment
	for _, w := range words {
		if len(w) >= minLen {
			frags = append(frags, Fragment{Text: w, Prior: priorWord})
		}
	}
	for i := 0; i+1 < len(words); i++ {
		pair := words[i] + " " + words[i+1]
		if len(pair) >= minLen {
			frags = append(frags, Fragment{Text: pair, Prior: priorPair})
		}
	}
	for i := 0; i+2 < len(words); i++ {
		frags = append(frags, Fragment{
			Text:  words[i] + " " + words[i+1] + " " + words[i+2],
			Prior: priorTriple,
		})
	}
	return frags
}
