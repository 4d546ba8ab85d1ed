package score

import (
	_ "embed"
	"strings"
)

// Base word list embedded at build time so the scorer works in all
// distributions without external data files.
//
//go:embed wordlist.txt
var baseWordList string

// Dictionary is a case-insensitive set of recognized words used by the
// english_density submetric. The base list covers common English words;
// callers extend it with domain vocabulary via AddWords or the
// dictionary_extensions configuration key.
type Dictionary struct {
	words map[string]struct{}
}

// NewDictionary creates a dictionary seeded with the embedded base list.
func NewDictionary() *Dictionary {
	d := &Dictionary{words: make(map[string]struct{}, 512)}
	for _, w := range strings.Fields(baseWordList) {
		d.words[w] = struct{}{}
	}
	return d
}

// NewEmptyDictionary creates a dictionary with no entries.
func NewEmptyDictionary() *Dictionary {
	return &Dictionary{words: make(map[string]struct{})}
}

// Contains reports whether word is in the dictionary, case-insensitively.
func (d *Dictionary) Contains(word string) bool {
	_, ok := d.words[strings.ToLower(word)]
	return ok
}

// AddWords extends the dictionary. Words are lowered before insertion.
func (d *Dictionary) AddWords(words ...string) {
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			d.words[w] = struct{}{}
		}
	}
}

// Len returns the number of distinct words.
func (d *Dictionary) Len() int {
	return len(d.words)
}
