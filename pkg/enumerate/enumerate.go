// Package enumerate turns a query phrase into an ordered, deduplicated
// list of candidate addresses under selectable strategies. Enumeration is
// deterministic: identical (phrase, parameters) always produce the same
// candidate list in the same order.
package enumerate

import (
	"context"
	"strings"

	"github.com/babelseek/babelseek/pkg/babel"
	bberrors "github.com/babelseek/babelseek/pkg/errors"
	"github.com/babelseek/babelseek/pkg/generator"
)

// Strategy selects a candidate-derivation approach.
type Strategy string

const (
	// StrategyExact derives one candidate from a digest of the full phrase.
	StrategyExact Strategy = "exact"
	// StrategyFragments derives candidates from words, word pairs, and
	// word triples of the phrase.
	StrategyFragments Strategy = "fragments"
	// StrategyNGram derives candidates from fixed-length character
	// n-grams of the phrase.
	StrategyNGram Strategy = "ngram"
	// StrategyInversion scans a bounded seed window for pages that
	// literally contain the phrase.
	StrategyInversion Strategy = "inversion"
	// StrategyAuto unions all strategies.
	StrategyAuto Strategy = "auto"
)

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyExact:
		return StrategyExact, nil
	case StrategyFragments:
		return StrategyFragments, nil
	case StrategyNGram:
		return StrategyNGram, nil
	case StrategyInversion:
		return StrategyInversion, nil
	case StrategyAuto:
		return StrategyAuto, nil
	default:
		return "", bberrors.InvalidStrategy(s)
	}
}

// Candidate is an address proposed as plausibly relevant to a query,
// produced before any page is generated.
type Candidate struct {
	// Address is the canonical candidate address.
	Address string
	// Strategy is the strategy that produced the candidate.
	Strategy Strategy
	// Prior is a heuristic likelihood that the candidate's page is
	// relevant, used only for diagnostics and candidate ordering hints.
	Prior float64
}

// Prior likelihoods by derivation route. Inversion candidates are proven
// to contain the phrase, so they rank just below an exact-digest hit.
const (
	priorExact     = 1.0
	priorInversion = 0.9
	priorTriple    = 0.8
	priorPair      = 0.6
	priorWord      = 0.4
	priorNGram     = 0.2
)

// Strategy salts keep the digest spaces of different derivation routes
// disjoint. Part of the candidate-derivation contract.
const (
	saltFragment = "fragment:"
	saltNGram    = "ngram:"
)

// Enumerator produces candidates. Safe for concurrent use.
type Enumerator struct {
	gen                 *generator.Generator
	ngramSize           int
	fragmentMinLen      int
	inversionIterations int
	inversionMaxMatches int
}

// Option configures the enumerator.
type Option func(*Enumerator)

// WithNGramSize sets the character n-gram length (default 4).
func WithNGramSize(n int) Option {
	return func(e *Enumerator) {
		if n > 0 {
			e.ngramSize = n
		}
	}
}

// WithFragmentMinLength sets the minimum fragment length (default 3).
func WithFragmentMinLength(n int) Option {
	return func(e *Enumerator) {
		if n > 0 {
			e.fragmentMinLen = n
		}
	}
}

// WithInversionWindow bounds the inversion scan: at most iterations seeds
// are tested and at most maxMatches candidates returned. The iteration
// cap is the hard cutoff that keeps pathological queries from running
// unbounded.
func WithInversionWindow(iterations, maxMatches int) Option {
	return func(e *Enumerator) {
		if iterations > 0 {
			e.inversionIterations = iterations
		}
		if maxMatches > 0 {
			e.inversionMaxMatches = maxMatches
		}
	}
}

// Defaults for the bounded inversion window.
const (
	DefaultInversionIterations = 4096
	DefaultInversionMaxMatches = 8
)

// New creates an enumerator over the given generator.
func New(gen *generator.Generator, opts ...Option) *Enumerator {
	e := &Enumerator{
		gen:                 gen,
		ngramSize:           4,
		fragmentMinLen:      3,
		inversionIterations: DefaultInversionIterations,
		inversionMaxMatches: DefaultInversionMaxMatches,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enumerate returns the deduplicated, ordered candidate list for phrase
// under the given strategy. An empty phrase (or a phrase producing no
// fragments) yields an empty list, not an error.
func (e *Enumerator) Enumerate(ctx context.Context, phrase string, strategy Strategy) ([]Candidate, error) {
	phrase = normalize(phrase)
	if phrase == "" {
		return nil, nil
	}

	var raw []Candidate
	var err error
	switch strategy {
	case StrategyExact:
		raw = e.exact(phrase)
	case StrategyFragments:
		raw = e.fragments(phrase)
	case StrategyNGram:
		raw = e.ngrams(phrase)
	case StrategyInversion:
		raw, err = e.inversion(ctx, phrase)
	case StrategyAuto:
		raw = e.exact(phrase)
		raw = append(raw, e.fragments(phrase)...)
		raw = append(raw, e.ngrams(phrase)...)
		var inv []Candidate
		inv, err = e.inversion(ctx, phrase)
		raw = append(raw, inv...)
	default:
		return nil, bberrors.InvalidStrategy(string(strategy))
	}
	if err != nil {
		return nil, err
	}
	return dedupe(raw), nil
}

func (e *Enumerator) exact(phrase string) []Candidate {
	return []Candidate{{
		Address:  babel.FormatSeed(babel.SeedFromDigest(phrase)),
		Strategy: StrategyExact,
		Prior:    priorExact,
	}}
}

func (e *Enumerator) fragments(phrase string) []Candidate {
	frags := SplitFragments(phrase, e.fragmentMinLen)
	out := make([]Candidate, 0, len(frags))
	for _, f := range frags {
		out = append(out, Candidate{
			Address:  babel.FormatSeed(babel.SeedFromDigest(saltFragment + f.Text)),
			Strategy: StrategyFragments,
			Prior:    f.Prior,
		})
	}
	return out
}

func (e *Enumerator) ngrams(phrase string) []Candidate {
	compact := strings.ReplaceAll(phrase, " ", "")
	if compact == "" {
		return nil
	}
	var grams []string
	if len(compact) <= e.ngramSize {
		grams = []string{compact}
	} else {
		for i := 0; i+e.ngramSize <= len(compact); i++ {
			grams = append(grams, compact[i:i+e.ngramSize])
		}
	}
	out := make([]Candidate, 0, len(grams))
	for _, g := range grams {
		out = append(out, Candidate{
			Address:  babel.FormatSeed(babel.SeedFromDigest(saltNGram + g)),
			Strategy: StrategyNGram,
			Prior:    priorNGram,
		})
	}
	return out
}

func (e *Enumerator) inversion(ctx context.Context, phrase string) ([]Candidate, error) {
	matches, err := e.gen.FindInWindow(ctx, phrase, babel.SeedFromDigest(phrase),
		e.inversionIterations, e.inversionMaxMatches)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(matches))
	for _, m := range matches {
		out = append(out, Candidate{
			Address:  m.Address,
			Strategy: StrategyInversion,
			Prior:    priorInversion,
		})
	}
	return out, nil
}

// normalize lowercases and collapses internal whitespace so digest
// derivation is stable under formatting differences.
func normalize(phrase string) string {
	return strings.Join(strings.Fields(strings.ToLower(phrase)), " ")
}

// dedupe removes duplicate addresses, keeping the first occurrence so
// ordering stays reproducible.
func dedupe(cands []Candidate) []Candidate {
	seen := make(map[string]struct{}, len(cands))
	out := cands[:0]
	for _, c := range cands {
		if _, ok := seen[c.Address]; ok {
			continue
		}
		seen[c.Address] = struct{}{}
		out = append(out, c)
	}
	return out
}
