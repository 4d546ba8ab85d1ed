// Package assemble groups scored pages into ordered book artifacts under
// a chosen grouping policy, preserving provenance and determinism.
package assemble

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/babelseek/babelseek/pkg/babel"
)

// Provenance records how a book came to be, for external immutable-ledger
// recording by collaborators.
type Provenance struct {
	// Query is the originating query or target phrase, if any.
	Query string `json:"query"`

	// Parameters captures the assembly parameters as strings.
	Parameters map[string]string `json:"parameters"`

	// CreatedAt is the assembly timestamp (UTC).
	CreatedAt time.Time `json:"created_at"`

	// EngineVersion is the library version that assembled the book.
	EngineVersion string `json:"engine_version"`
}

// Book is an ordered, scored collection of pages assembled under one
// strategy. Books are immutable once constructed; the integrity hash
// detects post-construction tampering.
type Book struct {
	// ID is a unique book identifier.
	ID string `json:"id"`

	// Pages is the ordered member sequence.
	Pages []babel.Page `json:"pages"`

	// Method is the assembly method that produced the ordering.
	Method Method `json:"method"`

	// AggregateCoherence is the arithmetic mean of member scores.
	AggregateCoherence float64 `json:"aggregate_coherence"`

	// Provenance records the originating query, parameters, and time.
	Provenance Provenance `json:"provenance"`

	// IntegrityHash is a SHA-256 over the ordered (address, text) pairs.
	IntegrityHash string `json:"integrity_hash"`
}

// PageCount returns the number of member pages.
func (b *Book) PageCount() int {
	return len(b.Pages)
}

// Verify recomputes the integrity hash and reports whether the book is
// untampered.
func (b *Book) Verify() bool {
	return integrityHash(b.Pages) == b.IntegrityHash
}

// integrityHash hashes the concatenated (address, text) pairs in final
// book order, NUL-separated so field boundaries cannot be confused.
func integrityHash(pages []babel.Page) string {
	h := sha256.New()
	for _, p := range pages {
		h.Write([]byte(p.Address))
		h.Write([]byte{0})
		h.Write([]byte(p.Text))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// meanScore is the arithmetic mean of member composite scores.
func meanScore(pages []babel.Page) float64 {
	if len(pages) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range pages {
		sum += p.Score
	}
	return sum / float64(len(pages))
}
