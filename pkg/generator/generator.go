// Package generator implements the deterministic page generator: a pure
// mapping from hexadecimal addresses to fixed-length pages of text.
//
// The recurrence, its constants, and the charset ordering are the
// cross-implementation contract. Any divergence breaks addressability,
// so they must never change:
//
//	state = (state*1103515245 + 12345) mod 2^31
//	char  = CHARSET[state mod 29]
//
// repeated 3200 times from the address-derived initial state.
package generator

import (
	"context"
	"math/big"
	"strings"

	"github.com/babelseek/babelseek/pkg/babel"
	bberrors "github.com/babelseek/babelseek/pkg/errors"
)

// Linear congruential generator constants. Part of the contract.
const (
	Multiplier = 1103515245
	Increment  = 12345
	Modulus    = uint64(1) << 31
)

// Charset is the fixed 29-symbol page alphabet: space first, then a-z,
// comma, period. Ordering is part of the contract.
const Charset = " abcdefghijklmnopqrstuvwxyz,."

// CharsetSize is the alphabet length.
const CharsetSize = len(Charset)

var bigModulus = new(big.Int).SetUint64(Modulus)

// Generator produces pages from addresses. It is stateless; the zero
// value is not usable, construct with New.
type Generator struct{}

// New creates a page generator.
func New() *Generator {
	return &Generator{}
}

// Generate returns the page text for the given address. The address is
// parsed as an arbitrary-precision unsigned integer seed; addresses wider
// than a machine word are fully supported. Generation is pure and
// idempotent: identical addresses always yield byte-identical text.
func (g *Generator) Generate(address string) (string, error) {
	seed, err := babel.ParseAddress(address)
	if err != nil {
		return "", bberrors.InvalidAddress(address, err)
	}
	return g.generateSeed(reduceSeed(seed)), nil
}

// GenerateSeed returns the page for a seed already inside the state
// space. Used by window scans to avoid reparsing addresses.
func (g *Generator) GenerateSeed(seed uint32) string {
	return g.generateSeed(uint64(seed) % Modulus)
}

// reduceSeed folds an arbitrary-precision seed into the LCG state space.
// Reducing once up front is arithmetically identical to carrying the full
// integer through the first recurrence step, because multiplication and
// addition distribute over the modulus.
func reduceSeed(seed *big.Int) uint64 {
	return new(big.Int).Mod(seed, bigModulus).Uint64()
}

func (g *Generator) generateSeed(state uint64) string {
	var b strings.Builder
	b.Grow(babel.PageLength)
	for i := 0; i < babel.PageLength; i++ {
		state = (state*Multiplier + Increment) % Modulus
		b.WriteByte(Charset[state%uint64(CharsetSize)])
	}
	return b.String()
}

// InCharset reports whether every character of s belongs to the page
// alphabet.
func InCharset(s string) bool {
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(Charset, rune(s[i])) {
			return false
		}
	}
	return true
}

// Match is one hit from a bounded window scan.
type Match struct {
	// Address is the canonical address of the matching page.
	Address string
	// Position is the byte offset of the substring within the page.
	Position int
}

// FindInWindow scans up to maxIterations sequential seeds starting at
// start (wrapping modulo the state space) and returns every page that
// contains target, up to maxMatches. The scan is a bounded brute force,
// not an inversion of the recurrence; the recurrence is not efficiently
// invertible from output alone. Cancellation is cooperative: the context
// is checked each iteration.
func (g *Generator) FindInWindow(ctx context.Context, target string, start uint32, maxIterations, maxMatches int) ([]Match, error) {
	target = strings.ToLower(target)
	if target == "" || !InCharset(target) || maxIterations <= 0 || maxMatches <= 0 {
		return nil, nil
	}

	var matches []Match
	for i := 0; i < maxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return matches, err
		}
		seed := uint32((uint64(start) + uint64(i)) % Modulus)
		page := g.GenerateSeed(seed)
		if pos := strings.Index(page, target); pos >= 0 {
			matches = append(matches, Match{Address: babel.FormatSeed(seed), Position: pos})
			if len(matches) >= maxMatches {
				break
			}
		}
	}
	return matches, nil
}

// Invert performs the bounded inversion utility: it derives a window
// start from a stable digest of target and returns the first address in
// the window whose page contains target, if any.
func (g *Generator) Invert(ctx context.Context, target string, maxIterations int) (Match, bool, error) {
	target = strings.ToLower(strings.TrimSpace(target))
	matches, err := g.FindInWindow(ctx, target, babel.SeedFromDigest(target), maxIterations, 1)
	if err != nil {
		return Match{}, false, err
	}
	if len(matches) == 0 {
		return Match{}, false, nil
	}
	return matches[0], true, nil
}
