package discovery

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babelseek/babelseek/pkg/assemble"
	"github.com/babelseek/babelseek/pkg/babel"
	"github.com/babelseek/babelseek/pkg/config"
	"github.com/babelseek/babelseek/pkg/enumerate"
	bberrors "github.com/babelseek/babelseek/pkg/errors"
	"github.com/babelseek/babelseek/pkg/export"
	"github.com/babelseek/babelseek/pkg/generator"
	"github.com/babelseek/babelseek/pkg/search"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Cache.Size = 64
	cfg.Inversion.MaxIterations = 64
	cfg.Inversion.MaxMatches = 2
	cfg.Logging.Level = ""
	return cfg
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(testConfig())
	require.NoError(t, err)
	return e
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Eviction = "fifo"
	_, err := New(cfg)
	require.Error(t, err)
	assert.Equal(t, bberrors.ErrCodeConfigInvalid, bberrors.GetCode(err))

	cfg = testConfig()
	cfg.Scoring.Weights.CharEntropy = 0.5
	_, err = New(cfg)
	require.Error(t, err)
	assert.Equal(t, bberrors.ErrCodeInvalidWeights, bberrors.GetCode(err))
}

func TestGetPage_GenerateThenHit(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	first, err := e.GetPage(ctx, "0000002a")
	require.NoError(t, err)
	assert.Equal(t, "0000002a", first.Address)
	assert.Len(t, first.Text, babel.PageLength)
	assert.Len(t, first.Hash, 16)
	assert.Equal(t, 1, e.CacheLen())

	second, err := e.GetPage(ctx, "0000002a")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	stats := e.Stats()
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, int64(1), stats.CacheMisses)
	assert.Equal(t, int64(1), stats.PagesGenerated)
}

func TestGetPage_CanonicalizesBeforeLookup(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	first, err := e.GetPage(ctx, "  0000002A ")
	require.NoError(t, err)
	second, err := e.GetPage(ctx, "0000002a")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, e.CacheLen(), "one cache entry for both spellings")
}

func TestGetPage_InvalidAddress(t *testing.T) {
	e := newEngine(t)

	for _, addr := range []string{"", "zz", "12g4", "0x2a"} {
		_, err := e.GetPage(context.Background(), addr)
		require.Error(t, err, "address %q", addr)
		assert.Equal(t, bberrors.ErrCodeInvalidAddress, bberrors.GetCode(err))
	}
	assert.Zero(t, e.CacheLen())
}

func TestGetPage_SingleFlight(t *testing.T) {
	e := newEngine(t)

	var wg sync.WaitGroup
	pages := make([]babel.Page, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			page, err := e.GetPage(context.Background(), "000000ff")
			assert.NoError(t, err)
			pages[i] = page
		}(i)
	}
	wg.Wait()

	for i := 1; i < 8; i++ {
		assert.Equal(t, pages[0], pages[i])
	}
	assert.Equal(t, int64(1), e.Stats().PagesGenerated, "concurrent misses converge on one generation")
}

func TestCache_EvictionBound(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Size = 2
	e, err := New(cfg)
	require.NoError(t, err)

	for _, addr := range []string{"01", "02", "03", "04", "05"} {
		_, gerr := e.GetPage(context.Background(), addr)
		require.NoError(t, gerr)
	}
	assert.LessOrEqual(t, e.CacheLen(), 2)

	e.ClearCache()
	assert.Zero(t, e.CacheLen())
}

func TestCache_TwoQueuePolicy(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Eviction = config.Eviction2Q
	cfg.Cache.Size = 8
	e, err := New(cfg)
	require.NoError(t, err)

	first, err := e.GetPage(context.Background(), "0000002a")
	require.NoError(t, err)
	second, err := e.GetPage(context.Background(), "0000002a")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), e.Stats().CacheHits)
}

func TestNewRequest_AppliesDefaults(t *testing.T) {
	e := newEngine(t)

	req := e.NewRequest("thalos prime")
	assert.Equal(t, "thalos prime", req.Query)
	assert.Equal(t, enumerate.StrategyAuto, req.Strategy)
	assert.Equal(t, 50, req.MaxCandidates)
	assert.Equal(t, 30.0, req.MinCoherence)
}

func TestSearch_EndToEnd(t *testing.T) {
	e := newEngine(t)

	req := e.NewRequest("thalos prime")
	req.MinCoherence = 0

	resp, err := e.Search(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)

	assert.Equal(t, "thalos prime", resp.Query)
	assert.Equal(t, enumerate.StrategyAuto, resp.Strategy)
	assert.LessOrEqual(t, len(resp.Results), req.MaxCandidates)
	assert.Positive(t, resp.Elapsed)
	assert.Positive(t, resp.CacheMisses, "cold cache misses on first run")
	assert.Positive(t, resp.AverageCoherence)

	for i := 1; i < len(resp.Results); i++ {
		assert.GreaterOrEqual(t, resp.Results[i-1].Score, resp.Results[i].Score)
	}
}

func TestSearch_SecondRunHitsCache(t *testing.T) {
	e := newEngine(t)
	req := e.NewRequest("thalos prime")
	req.MinCoherence = 0

	first, err := e.Search(context.Background(), req)
	require.NoError(t, err)
	second, err := e.Search(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Results, second.Results, "identical requests rank identically")
	assert.Zero(t, second.CacheMisses)
	assert.Positive(t, second.CacheHits)

	stats := e.Stats()
	assert.Equal(t, int64(2), stats.TotalSearches)
	assert.Equal(t, int64(2), stats.StrategyCounts[string(enumerate.StrategyAuto)])
}

func TestSearch_PageTextMatchesGenerator(t *testing.T) {
	e := newEngine(t)
	req := e.NewRequest("babel")
	req.Strategy = enumerate.StrategyExact
	req.MinCoherence = 0

	resp, err := e.Search(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)

	// The cached page is exactly what a bare generator produces.
	page, err := e.GetPage(context.Background(), resp.Results[0].Address)
	require.NoError(t, err)
	text, err := generator.New().Generate(resp.Results[0].Address)
	require.NoError(t, err)
	assert.Equal(t, text, page.Text)
}

func TestAssembleBook_Validation(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	opts := AssembleOptions{Method: assemble.MethodAddressAdjacency, BookSize: 2}

	_, err := e.AssembleBook(ctx, "  ", opts)
	require.Error(t, err)
	assert.Equal(t, bberrors.ErrCodeInvalidQuery, bberrors.GetCode(err))

	_, err = e.AssembleBook(ctx, "thalos", AssembleOptions{Method: assemble.MethodAddressAdjacency})
	require.Error(t, err)
	assert.Equal(t, bberrors.ErrCodeInvalidQuery, bberrors.GetCode(err))

	_, err = e.AssembleBook(ctx, "thalos", AssembleOptions{Method: "alphabetical", BookSize: 2})
	require.Error(t, err)
	assert.Equal(t, bberrors.ErrCodeInvalidStrategy, bberrors.GetCode(err))
}

func TestAssembleBook_AddressAdjacency(t *testing.T) {
	e := newEngine(t)

	book, err := e.AssembleBook(context.Background(), "thalos prime", AssembleOptions{
		Method:   assemble.MethodAddressAdjacency,
		BookSize: 3,
	})
	require.NoError(t, err)
	require.Equal(t, 3, book.PageCount())
	assert.True(t, book.Verify())
	assert.Equal(t, "thalos prime", book.Provenance.Query)

	for i := 1; i < len(book.Pages); i++ {
		assert.Negative(t, babel.CompareAddresses(book.Pages[i-1].Address, book.Pages[i].Address))
	}
	for _, p := range book.Pages {
		assert.Len(t, p.Text, babel.PageLength)
	}
}

func TestAssembleBook_PhraseRelevance(t *testing.T) {
	e := newEngine(t)

	book, err := e.AssembleBook(context.Background(), "thalos prime", AssembleOptions{
		Method:   assemble.MethodPhraseRelevance,
		BookSize: 3,
		Strategy: enumerate.StrategyAuto,
	})
	require.NoError(t, err)
	require.Equal(t, 3, book.PageCount())

	// Phrase-aware submetrics from the search survive into the book.
	for i := 1; i < len(book.Pages); i++ {
		assert.GreaterOrEqual(t, book.Pages[i-1].Scores.PhraseMatch, book.Pages[i].Scores.PhraseMatch)
	}
}

func TestAssembleBook_ThresholdTooHigh(t *testing.T) {
	e := newEngine(t)

	_, err := e.AssembleBook(context.Background(), "thalos prime", AssembleOptions{
		Method:             assemble.MethodCoherenceThreshold,
		BookSize:           3,
		CoherenceThreshold: 100,
	})
	require.Error(t, err)
	assert.Equal(t, bberrors.ErrCodeInsufficientPages, bberrors.GetCode(err))
}

func TestExportBook(t *testing.T) {
	e := newEngine(t)

	book, err := e.AssembleBook(context.Background(), "thalos prime", AssembleOptions{
		Method:   assemble.MethodAddressAdjacency,
		BookSize: 2,
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, e.ExportBook(&buf, book, export.FormatText))
	assert.Contains(t, buf.String(), book.ID)

	buf.Reset()
	err = e.ExportBook(&buf, book, "parquet")
	require.Error(t, err)
	assert.Equal(t, bberrors.ErrCodeExportFormat, bberrors.GetCode(err))
}

func TestEngine_ImplementsPageProvider(t *testing.T) {
	var _ search.PageProvider = newEngine(t)
}

func TestScorerAccessor(t *testing.T) {
	e := newEngine(t)
	require.NotNil(t, e.Scorer())

	passages := e.Scorer().ExtractPassages(strings.Repeat("zq wv ", 40), 20, 99.9)
	assert.Empty(t, passages)
}
