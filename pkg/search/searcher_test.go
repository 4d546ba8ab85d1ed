package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babelseek/babelseek/pkg/babel"
	"github.com/babelseek/babelseek/pkg/enumerate"
	bberrors "github.com/babelseek/babelseek/pkg/errors"
	"github.com/babelseek/babelseek/pkg/generator"
	"github.com/babelseek/babelseek/pkg/score"
)

// fakeProvider serves canned texts by address and counts lookups. Unknown
// addresses get deterministic filler so every candidate resolves.
type fakeProvider struct {
	mu    sync.Mutex
	calls int
	pages map[string]string
	err   error
}

func (p *fakeProvider) GetPage(_ context.Context, address string) (babel.Page, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.err != nil {
		return babel.Page{}, p.err
	}
	text, ok := p.pages[address]
	if !ok {
		text = strings.Repeat("zq xv jk wq ", 20) + address
	}
	return babel.Page{Address: address, Text: text}, nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func newSearcher(t *testing.T, provider PageProvider) *Searcher {
	t.Helper()
	scorer, err := score.NewScorer(nil, score.DefaultWeights())
	require.NoError(t, err)
	enum := enumerate.New(generator.New(), enumerate.WithInversionWindow(32, 2))
	return New(enum, provider, scorer, WithWorkers(4))
}

func TestSearch_EmptyQuery(t *testing.T) {
	provider := &fakeProvider{}
	s := newSearcher(t, provider)

	_, err := s.Search(context.Background(), Request{Query: "  ", Strategy: enumerate.StrategyAuto, MaxCandidates: 10})
	require.Error(t, err)
	assert.Equal(t, bberrors.ErrCodeInvalidQuery, bberrors.GetCode(err))
	assert.Zero(t, provider.callCount())
}

func TestSearch_InvalidStrategy(t *testing.T) {
	s := newSearcher(t, &fakeProvider{})

	_, err := s.Search(context.Background(), Request{Query: "thalos", Strategy: "semantic", MaxCandidates: 10})
	require.Error(t, err)
	assert.Equal(t, bberrors.ErrCodeInvalidStrategy, bberrors.GetCode(err))
}

func TestSearch_ZeroBudgetShortCircuits(t *testing.T) {
	provider := &fakeProvider{}
	s := newSearcher(t, provider)

	results, err := s.Search(context.Background(), Request{Query: "thalos prime", Strategy: enumerate.StrategyAuto})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Zero(t, provider.callCount(), "no pages should be generated")
}

func TestSearch_ExactHit(t *testing.T) {
	// "5ec6e6a9" is the exact-strategy digest address for "thalos prime".
	provider := &fakeProvider{pages: map[string]string{
		"5ec6e6a9": "It was there all along. The thalos prime page was in the library for all to find.",
	}}
	s := newSearcher(t, provider)

	results, err := s.Search(context.Background(), Request{
		Query:         "thalos prime",
		Strategy:      enumerate.StrategyExact,
		MaxCandidates: 10,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "5ec6e6a9", r.Address)
	assert.Equal(t, enumerate.StrategyExact, r.Strategy)
	assert.Equal(t, 1.0, r.Prior)
	assert.Equal(t, 1.0, r.Scores.PhraseMatch)
	assert.Contains(t, strings.ToLower(r.Snippet), "thalos prime")
	assert.Greater(t, r.Score, 50.0)
	assert.Equal(t, 1, provider.callCount())
}

func TestSearch_RankingAndCap(t *testing.T) {
	provider := &fakeProvider{pages: map[string]string{
		"5ec6e6a9": "It was there all along. The thalos prime page was in the library for all to find.",
	}}
	s := newSearcher(t, provider)

	results, err := s.Search(context.Background(), Request{
		Query:         "thalos prime",
		Strategy:      enumerate.StrategyAuto,
		MaxCandidates: 5,
	})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results), 5)

	// The planted page outranks filler and descending order holds
	// throughout, with the numeric address tie-break.
	assert.Equal(t, "5ec6e6a9", results[0].Address)
	for i := 1; i < len(results); i++ {
		prev, cur := results[i-1], results[i]
		if prev.Score == cur.Score {
			assert.Negative(t, babel.CompareAddresses(prev.Address, cur.Address))
		} else {
			assert.Greater(t, prev.Score, cur.Score)
		}
	}
}

func TestSearch_MinCoherenceFilters(t *testing.T) {
	s := newSearcher(t, &fakeProvider{})

	results, err := s.Search(context.Background(), Request{
		Query:         "thalos prime",
		Strategy:      enumerate.StrategyAuto,
		MaxCandidates: 10,
		MinCoherence:  101,
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_Deterministic(t *testing.T) {
	provider := &fakeProvider{pages: map[string]string{
		"5ec6e6a9": "The thalos prime page was in the library for all to find.",
	}}
	s := newSearcher(t, provider)

	req := Request{Query: "thalos prime", Strategy: enumerate.StrategyAuto, MaxCandidates: 8}
	first, err := s.Search(context.Background(), req)
	require.NoError(t, err)
	second, err := s.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSearch_ProviderErrorPropagates(t *testing.T) {
	boom := errors.New("backing store down")
	s := newSearcher(t, &fakeProvider{err: boom})

	_, err := s.Search(context.Background(), Request{
		Query:         "thalos",
		Strategy:      enumerate.StrategyExact,
		MaxCandidates: 10,
	})
	assert.ErrorIs(t, err, boom)
}

func TestExtractSnippet(t *testing.T) {
	long := strings.Repeat("a", 200) + " the library " + strings.Repeat("b", 200)

	snippet := extractSnippet(long, "the library")
	assert.Contains(t, snippet, "the library")
	assert.True(t, strings.HasPrefix(snippet, "..."))
	assert.True(t, strings.HasSuffix(snippet, "..."))

	// Query at the head gets no leading ellipsis.
	head := "the library " + strings.Repeat("b", 200)
	snippet = extractSnippet(head, "the library")
	assert.True(t, strings.HasPrefix(snippet, "the library"))
	assert.True(t, strings.HasSuffix(snippet, "..."))

	// Short pages come back whole.
	assert.Equal(t, "tiny page", extractSnippet("  tiny page  ", "absent"))

	// Without a literal match the densest window wins.
	text := strings.Repeat("z", 150) + " thalos " + strings.Repeat("z", 150)
	snippet = extractSnippet(text, "thalos prime")
	assert.Contains(t, snippet, "thalos")
	assert.LessOrEqual(t, len(snippet), snippetWindow)
}
