package assemble

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/babelseek/babelseek/pkg/babel"
	bberrors "github.com/babelseek/babelseek/pkg/errors"
	"github.com/babelseek/babelseek/pkg/version"
)

// Method selects a grouping policy.
type Method string

const (
	// MethodAddressAdjacency orders pages by address and takes the first
	// book_size in address order.
	MethodAddressAdjacency Method = "address_adjacency"
	// MethodCoherenceThreshold filters pages at/above a threshold and
	// takes the top book_size by composite score.
	MethodCoherenceThreshold Method = "coherence_threshold"
	// MethodPhraseRelevance ranks by the phrase_match submetric with
	// composite score as tie-break.
	MethodPhraseRelevance Method = "phrase_relevance"
	// MethodCustom preserves a caller-supplied ordering, validating
	// count and address-uniqueness only.
	MethodCustom Method = "custom"
)

// ParseMethod validates a method name.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case MethodAddressAdjacency:
		return MethodAddressAdjacency, nil
	case MethodCoherenceThreshold:
		return MethodCoherenceThreshold, nil
	case MethodPhraseRelevance:
		return MethodPhraseRelevance, nil
	case MethodCustom:
		return MethodCustom, nil
	default:
		return "", bberrors.Newf(bberrors.ErrCodeInvalidStrategy, "unrecognized assembly method %q", s).
			WithSuggestion("valid methods: address_adjacency, coherence_threshold, phrase_relevance, custom")
	}
}

// PadPolicy decides what happens when fewer qualifying pages exist than
// book_size. Padding versus failing is always an explicit choice, never
// silent.
type PadPolicy string

const (
	// PadNever fails with InsufficientPages on any shortfall.
	PadNever PadPolicy = "never"
	// PadLowerScoring tops a short book up with the best non-qualifying
	// pages, still failing if the pool itself is too small.
	PadLowerScoring PadPolicy = "lower_scoring"
)

// Options configures one assembly.
type Options struct {
	// Method is the grouping policy.
	Method Method

	// BookSize is the required member count. Must be positive.
	BookSize int

	// TargetPhrase drives MethodPhraseRelevance and is recorded in
	// provenance for all methods.
	TargetPhrase string

	// CoherenceThreshold is the qualifying bar for
	// MethodCoherenceThreshold.
	CoherenceThreshold float64

	// Pad is the shortfall policy (default PadNever).
	Pad PadPolicy
}

// Assembler builds books from already-scored pages.
type Assembler struct{}

// New creates an assembler.
func New() *Assembler {
	return &Assembler{}
}

// Assemble builds a book from pages under the given options. Validation
// happens before any work; a shortfall under the active pad policy fails
// with InsufficientPages.
func (a *Assembler) Assemble(pages []babel.Page, opts Options) (*Book, error) {
	if opts.BookSize <= 0 {
		return nil, bberrors.Newf(bberrors.ErrCodeInvalidQuery, "book_size must be positive, got %d", opts.BookSize)
	}
	method, err := ParseMethod(string(opts.Method))
	if err != nil {
		return nil, err
	}
	if opts.Pad == "" {
		opts.Pad = PadNever
	}

	var members []babel.Page
	switch method {
	case MethodAddressAdjacency:
		members, err = byAddressAdjacency(pages, opts)
	case MethodCoherenceThreshold:
		members, err = byCoherenceThreshold(pages, opts)
	case MethodPhraseRelevance:
		members, err = byPhraseRelevance(pages, opts)
	case MethodCustom:
		members, err = custom(pages, opts)
	}
	if err != nil {
		return nil, err
	}

	return &Book{
		ID:                 uuid.NewString(),
		Pages:              members,
		Method:             method,
		AggregateCoherence: meanScore(members),
		Provenance: Provenance{
			Query: opts.TargetPhrase,
			Parameters: map[string]string{
				"method":              string(method),
				"book_size":           fmt.Sprintf("%d", opts.BookSize),
				"coherence_threshold": fmt.Sprintf("%g", opts.CoherenceThreshold),
				"pad_policy":          string(opts.Pad),
			},
			CreatedAt:     time.Now().UTC(),
			EngineVersion: version.Version,
		},
		IntegrityHash: integrityHash(members),
	}, nil
}

func byAddressAdjacency(pages []babel.Page, opts Options) ([]babel.Page, error) {
	if len(pages) < opts.BookSize {
		return nil, bberrors.InsufficientPages(len(pages), opts.BookSize)
	}
	sorted := clonePages(pages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return babel.CompareAddresses(sorted[i].Address, sorted[j].Address) < 0
	})
	return sorted[:opts.BookSize], nil
}

func byCoherenceThreshold(pages []babel.Page, opts Options) ([]babel.Page, error) {
	var qualifying, rest []babel.Page
	for _, p := range pages {
		if p.Score >= opts.CoherenceThreshold {
			qualifying = append(qualifying, p)
		} else {
			rest = append(rest, p)
		}
	}
	sortByScore(qualifying)

	if len(qualifying) < opts.BookSize {
		if opts.Pad != PadLowerScoring {
			return nil, bberrors.InsufficientPages(len(qualifying), opts.BookSize).
				WithDetail("pad_policy", string(opts.Pad))
		}
		sortByScore(rest)
		need := opts.BookSize - len(qualifying)
		if need > len(rest) {
			return nil, bberrors.InsufficientPages(len(qualifying)+len(rest), opts.BookSize).
				WithDetail("pad_policy", string(opts.Pad))
		}
		qualifying = append(qualifying, rest[:need]...)
	}
	return qualifying[:opts.BookSize], nil
}

func byPhraseRelevance(pages []babel.Page, opts Options) ([]babel.Page, error) {
	if strings.TrimSpace(opts.TargetPhrase) == "" {
		return nil, bberrors.InvalidQuery("phrase_relevance assembly requires a target phrase")
	}
	if len(pages) < opts.BookSize {
		return nil, bberrors.InsufficientPages(len(pages), opts.BookSize)
	}
	sorted := clonePages(pages)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Scores.PhraseMatch != sorted[j].Scores.PhraseMatch {
			return sorted[i].Scores.PhraseMatch > sorted[j].Scores.PhraseMatch
		}
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return babel.CompareAddresses(sorted[i].Address, sorted[j].Address) < 0
	})
	return sorted[:opts.BookSize], nil
}

// custom validates count and address-uniqueness only; the caller's
// ordering is the book ordering.
func custom(pages []babel.Page, opts Options) ([]babel.Page, error) {
	if len(pages) < opts.BookSize {
		return nil, bberrors.InsufficientPages(len(pages), opts.BookSize)
	}
	if len(pages) > opts.BookSize {
		return nil, bberrors.Newf(bberrors.ErrCodeInvalidQuery,
			"custom assembly requires exactly %d pages, got %d", opts.BookSize, len(pages))
	}
	seen := make(map[string]struct{}, len(pages))
	for _, p := range pages {
		if _, dup := seen[p.Address]; dup {
			return nil, bberrors.Newf(bberrors.ErrCodeInvalidQuery,
				"duplicate address %q in custom page list", p.Address)
		}
		seen[p.Address] = struct{}{}
	}
	return clonePages(pages), nil
}

// sortByScore orders descending by composite score with ascending
// address as the deterministic tie-break.
func sortByScore(pages []babel.Page) {
	sort.SliceStable(pages, func(i, j int) bool {
		if pages[i].Score != pages[j].Score {
			return pages[i].Score > pages[j].Score
		}
		return babel.CompareAddresses(pages[i].Address, pages[j].Address) < 0
	})
}

func clonePages(pages []babel.Page) []babel.Page {
	out := make([]babel.Page, len(pages))
	copy(out, pages)
	return out
}
