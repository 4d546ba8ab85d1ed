package babel

import (
	"crypto/sha256"
	"encoding/hex"
)

// PageLength is the exact character count of every generated page.
const PageLength = 3200

// Breakdown holds the individual coherence submetrics, each normalized to
// [0, 1]. Exposed alongside the composite score for explainability.
type Breakdown struct {
	EnglishDensity    float64 `json:"english_density"`
	PunctuationScore  float64 `json:"punctuation_score"`
	SentenceStructure float64 `json:"sentence_structure"`
	WordDistribution  float64 `json:"word_distribution"`
	PhraseMatch       float64 `json:"phrase_match"`
	CharEntropy       float64 `json:"char_entropy"`
}

// Page is one scored page of the text space. A Page is a pure function of
// its address: the text never changes, so pages carry no timestamps and
// require no invalidation.
type Page struct {
	// Address is the canonical lowercase hex address the page was
	// generated from.
	Address string `json:"address"`

	// Text is the generated content, exactly PageLength characters over
	// the fixed 29-symbol alphabet.
	Text string `json:"text"`

	// Score is the composite coherence score in [0, 100].
	Score float64 `json:"score"`

	// Scores is the submetric breakdown behind Score.
	Scores Breakdown `json:"scores"`

	// Hash is a truncated SHA-256 of Text, usable as a stable content
	// fingerprint.
	Hash string `json:"hash"`
}

// ContentHash computes the page content fingerprint: the first 16 hex
// characters of SHA-256 over the text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:16]
}
