// Package search orchestrates candidate enumeration, page generation,
// and coherence scoring into ranked, filtered results.
package search

import (
	"context"

	"github.com/babelseek/babelseek/pkg/babel"
	"github.com/babelseek/babelseek/pkg/enumerate"
)

// PageProvider supplies pages by address, typically backed by the shared
// page cache so repeated candidates cost one generation.
type PageProvider interface {
	// GetPage returns the page for a canonical address, generating it on
	// first access.
	GetPage(ctx context.Context, address string) (babel.Page, error)
}

// Request configures a search.
type Request struct {
	// Query is the phrase to search for. Must be non-empty.
	Query string

	// Strategy selects candidate derivation; StrategyAuto unions all.
	Strategy enumerate.Strategy

	// MaxCandidates caps the number of returned results. Values <= 0
	// short-circuit to an empty result with no generation work.
	MaxCandidates int

	// MinCoherence discards results scoring below this composite value.
	MinCoherence float64
}

// Result is one ranked search hit.
type Result struct {
	// Address is the page's canonical address.
	Address string `json:"address"`

	// Snippet is a short excerpt centered on the best matching span.
	Snippet string `json:"snippet"`

	// Score is the composite coherence score with the query as target
	// phrase.
	Score float64 `json:"score"`

	// Scores is the submetric breakdown behind Score.
	Scores babel.Breakdown `json:"scores"`

	// Strategy is the strategy that proposed the address.
	Strategy enumerate.Strategy `json:"strategy"`

	// Prior is the candidate's heuristic prior likelihood.
	Prior float64 `json:"prior"`
}
