// Package score implements the multi-signal coherence heuristic: a pure
// function from page text (plus an optional target phrase) to a composite
// score in [0, 100] with a full submetric breakdown.
//
// The heuristic estimates readability; it makes no guarantee that high
// scoring text is actually grammatical English.
package score

import (
	"math"
	"strings"
	"unicode"

	"github.com/babelseek/babelseek/pkg/babel"
	bberrors "github.com/babelseek/babelseek/pkg/errors"
)

// Weights configures the relative importance of each submetric. Weights
// must be non-negative and sum to 1.0.
type Weights struct {
	EnglishDensity    float64 `yaml:"english_density" json:"english_density"`
	SentenceStructure float64 `yaml:"sentence_structure" json:"sentence_structure"`
	PunctuationScore  float64 `yaml:"punctuation_score" json:"punctuation_score"`
	PhraseMatch       float64 `yaml:"phrase_match" json:"phrase_match"`
	WordDistribution  float64 `yaml:"word_distribution" json:"word_distribution"`
	CharEntropy       float64 `yaml:"char_entropy" json:"char_entropy"`
}

// DefaultWeights returns the tuned default weight configuration.
func DefaultWeights() Weights {
	return Weights{
		EnglishDensity:    0.35,
		SentenceStructure: 0.20,
		PunctuationScore:  0.15,
		PhraseMatch:       0.15,
		WordDistribution:  0.10,
		CharEntropy:       0.05,
	}
}

const weightSumTolerance = 1e-9

// Validate checks the weight configuration. Negative weights or a sum
// away from 1.0 fail with an InvalidWeights error.
func (w Weights) Validate() error {
	all := []float64{
		w.EnglishDensity, w.SentenceStructure, w.PunctuationScore,
		w.PhraseMatch, w.WordDistribution, w.CharEntropy,
	}
	sum := 0.0
	for _, v := range all {
		if v < 0 {
			return bberrors.InvalidWeights("weights must be non-negative")
		}
		sum += v
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return bberrors.Newf(bberrors.ErrCodeInvalidWeights, "weights sum to %.4f, want 1.0", sum)
	}
	return nil
}

// Scorer computes coherence scores. Scoring is a pure function of
// (text, phrase, dictionary, weights); a Scorer is safe for concurrent
// use once constructed.
type Scorer struct {
	dict    *Dictionary
	weights Weights
	ngram   int
}

// Option configures the scorer.
type Option func(*Scorer)

// WithNGramSize overrides the n-gram length used for partial phrase
// credit (default 3).
func WithNGramSize(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.ngram = n
		}
	}
}

// NewScorer creates a scorer with the given dictionary and weights.
// Construction fails fast with InvalidWeights on a bad configuration.
// A nil dictionary gets the embedded default.
func NewScorer(dict *Dictionary, weights Weights, opts ...Option) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if dict == nil {
		dict = NewDictionary()
	}
	s := &Scorer{dict: dict, weights: weights, ngram: 3}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Score computes the composite coherence score for text against an
// optional target phrase. The result is always in [0, 100], with the
// submetric breakdown returned for explainability.
func (s *Scorer) Score(text, phrase string) (float64, babel.Breakdown) {
	tokens := tokenize(text)

	bd := babel.Breakdown{
		EnglishDensity:    s.englishDensity(tokens),
		PunctuationScore:  punctuationScore(text),
		SentenceStructure: sentenceStructure(text),
		WordDistribution:  wordDistribution(tokens),
		PhraseMatch:       s.phraseMatch(text, phrase),
		CharEntropy:       charEntropy(text),
	}

	composite := 100 * (s.weights.EnglishDensity*bd.EnglishDensity +
		s.weights.SentenceStructure*bd.SentenceStructure +
		s.weights.PunctuationScore*bd.PunctuationScore +
		s.weights.PhraseMatch*bd.PhraseMatch +
		s.weights.WordDistribution*bd.WordDistribution +
		s.weights.CharEntropy*bd.CharEntropy)

	return clamp(composite, 0, 100), bd
}

// Weights returns the active weight configuration.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Dictionary returns the active dictionary.
func (s *Scorer) Dictionary() *Dictionary {
	return s.dict
}

// tokenize lowercases, splits on whitespace, and strips surrounding
// punctuation from each token.
func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := fields[:0]
	for _, f := range fields {
		t := strings.TrimFunc(f, unicode.IsPunct)
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// englishDensity is the fraction of tokens present in the dictionary.
func (s *Scorer) englishDensity(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	hits := 0
	for _, t := range tokens {
		if s.dict.Contains(t) {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}

// punctuationScore peaks at 1.0 when punctuation density is within
// [2%, 8%] of characters, degrading linearly outside the band: up from
// zero density and down to zero at 20%.
func punctuationScore(text string) float64 {
	if text == "" {
		return 0
	}
	count := 0
	for _, r := range text {
		if unicode.IsPunct(r) {
			count++
		}
	}
	ratio := float64(count) / float64(len([]rune(text)))
	switch {
	case ratio >= 0.02 && ratio <= 0.08:
		return 1.0
	case ratio < 0.02:
		return clamp(ratio/0.02, 0, 1)
	default:
		return clamp(1-(ratio-0.08)/0.12, 0, 1)
	}
}

// sentenceStructure rewards sentence-like segmentation: terminal
// punctuation, plausible sentence lengths, and capitalized sentence
// starts. Long punctuation-free runs score zero.
func sentenceStructure(text string) float64 {
	if text == "" {
		return 0
	}

	terminals := strings.Count(text, ".") + strings.Count(text, "!") + strings.Count(text, "?")
	if terminals == 0 {
		return 0
	}

	score := 0.3
	avgLen := float64(len(text)) / float64(terminals)
	switch {
	case avgLen >= 50 && avgLen <= 200:
		score += 0.4
	case avgLen >= 30 && avgLen <= 300:
		score += 0.2
	}

	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	if len(sentences) > 1 {
		capitalized := 0
		for _, sent := range sentences {
			sent = strings.TrimSpace(sent)
			if sent != "" && unicode.IsUpper(rune(sent[0])) {
				capitalized++
			}
		}
		score += 0.3 * float64(capitalized) / float64(len(sentences))
	}

	return clamp(score, 0, 1)
}

// wordDistribution scores token variety: the distinct-to-total ratio,
// penalizing both near-total repetition and near-total uniqueness, with
// an extra penalty when a single token dominates.
func wordDistribution(tokens []string) float64 {
	if len(tokens) < 10 {
		return 0.5
	}

	counts := make(map[string]int, len(tokens))
	mostCommon := 0
	for _, t := range tokens {
		counts[t]++
		if counts[t] > mostCommon {
			mostCommon = counts[t]
		}
	}

	uniqueRatio := float64(len(counts)) / float64(len(tokens))
	var score float64
	switch {
	case uniqueRatio >= 0.3 && uniqueRatio <= 0.7:
		score = 1.0
	case uniqueRatio >= 0.2 && uniqueRatio <= 0.8:
		score = 0.7
	default:
		score = 0.4
	}

	if float64(mostCommon)/float64(len(tokens)) > 0.2 {
		score *= 0.5
	}
	return score
}

// phraseMatch gives full credit for an exact case-insensitive substring
// match and partial credit proportional to character n-gram overlap.
// No phrase means no credit.
func (s *Scorer) phraseMatch(text, phrase string) float64 {
	phrase = strings.ToLower(strings.TrimSpace(phrase))
	if phrase == "" {
		return 0
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, phrase) {
		return 1.0
	}

	grams := charNGrams(strings.ReplaceAll(phrase, " ", ""), s.ngram)
	if len(grams) == 0 {
		return 0
	}
	haystack := strings.ReplaceAll(lower, " ", "")
	hits := 0
	for _, g := range grams {
		if strings.Contains(haystack, g) {
			hits++
		}
	}
	return float64(hits) / float64(len(grams))
}

// charEntropy is the Shannon entropy of the character distribution,
// normalized against the maximum for the generator's 29-symbol alphabet.
func charEntropy(text string) float64 {
	if text == "" {
		return 0
	}
	counts := make(map[rune]int)
	total := 0
	for _, r := range strings.ToLower(text) {
		counts[r]++
		total++
	}
	entropy := 0.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		entropy -= p * math.Log2(p)
	}
	maxEntropy := math.Log2(29)
	return clamp(entropy/maxEntropy, 0, 1)
}

// charNGrams returns the sequential n-grams of s. When s is shorter than
// n, s itself is the single gram.
func charNGrams(s string, n int) []string {
	if s == "" {
		return nil
	}
	if len(s) <= n {
		return []string{s}
	}
	grams := make([]string, 0, len(s)-n+1)
	for i := 0; i+n <= len(s); i++ {
		grams = append(grams, s[i:i+n])
	}
	return grams
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
