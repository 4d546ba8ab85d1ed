// Package discovery is the unified entry point to the pipeline: it owns
// the bounded page cache and exposes search, page lookup, book assembly,
// and export as one engine with timing and cache metrics attached.
package discovery

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/babelseek/babelseek/internal/logging"
	"github.com/babelseek/babelseek/pkg/assemble"
	"github.com/babelseek/babelseek/pkg/babel"
	"github.com/babelseek/babelseek/pkg/config"
	"github.com/babelseek/babelseek/pkg/enumerate"
	bberrors "github.com/babelseek/babelseek/pkg/errors"
	"github.com/babelseek/babelseek/pkg/export"
	"github.com/babelseek/babelseek/pkg/generator"
	"github.com/babelseek/babelseek/pkg/score"
	"github.com/babelseek/babelseek/pkg/search"
	"github.com/babelseek/babelseek/pkg/telemetry"
)

// Engine coordinates the discovery pipeline. The page cache is the only
// shared mutable state; concurrent misses for the same address converge
// on a single in-flight computation.
type Engine struct {
	cfg       config.Config
	gen       *generator.Generator
	scorer    *score.Scorer
	searcher  *search.Searcher
	assembler *assemble.Assembler
	cache     PageCache
	metrics   *telemetry.Metrics
	logger    *slog.Logger
	flight    singleflight.Group
}

// Option configures the engine.
type Option func(*Engine)

// WithLogger sets the structured logger (default: slog.Default, or the
// logger built from the config's logging section when one is set).
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an engine from a validated configuration. Construction
// fails fast on invalid weights, cache, or inversion settings.
func New(cfg config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dict := score.NewDictionary()
	dict.AddWords(cfg.Scoring.DictionaryExtensions...)

	scorer, err := score.NewScorer(dict, cfg.Scoring.Weights, score.WithNGramSize(cfg.Scoring.NGramSize))
	if err != nil {
		return nil, err
	}

	cache, err := NewPageCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:       cfg,
		gen:       generator.New(),
		scorer:    scorer,
		assembler: assemble.New(),
		cache:     cache,
		metrics:   telemetry.NewMetrics(100),
		logger:    slog.Default(),
	}

	if cfg.Logging.Level != "" || cfg.Logging.FilePath != "" {
		logger, _, lerr := logging.Setup(logging.Config{
			Level:         cfg.Logging.Level,
			FilePath:      cfg.Logging.FilePath,
			WriteToStderr: true,
		})
		if lerr == nil {
			e.logger = logger
		}
	}
	for _, opt := range opts {
		opt(e)
	}

	enum := enumerate.New(e.gen,
		enumerate.WithInversionWindow(cfg.Inversion.MaxIterations, cfg.Inversion.MaxMatches))

	searchOpts := []search.Option{search.WithLogger(e.logger)}
	if cfg.Search.Workers > 0 {
		searchOpts = append(searchOpts, search.WithWorkers(cfg.Search.Workers))
	}
	e.searcher = search.New(enum, e, scorer, searchOpts...)

	return e, nil
}

// GetPage returns the page for an address: a cache hit, or a
// generate+score+cache on miss. Malformed addresses fail with
// InvalidAddress before any generation work.
func (e *Engine) GetPage(ctx context.Context, address string) (babel.Page, error) {
	canonical, err := babel.CanonicalAddress(address)
	if err != nil {
		return babel.Page{}, bberrors.InvalidAddress(address, err)
	}

	if page, ok := e.cache.Get(canonical); ok {
		e.metrics.RecordCacheHit()
		return page, nil
	}
	e.metrics.RecordCacheMiss()

	v, err, _ := e.flight.Do(canonical, func() (any, error) {
		// Double-check under the flight: a concurrent winner may have
		// populated the cache already.
		if page, ok := e.cache.Get(canonical); ok {
			return page, nil
		}
		text, gerr := e.gen.Generate(canonical)
		if gerr != nil {
			return babel.Page{}, gerr
		}
		composite, breakdown := e.scorer.Score(text, "")
		page := babel.Page{
			Address: canonical,
			Text:    text,
			Score:   composite,
			Scores:  breakdown,
			Hash:    babel.ContentHash(text),
		}
		e.cache.Add(canonical, page)
		e.metrics.RecordPageGenerated()
		return page, nil
	})
	if err != nil {
		return babel.Page{}, err
	}
	if err := ctx.Err(); err != nil {
		return babel.Page{}, err
	}
	return v.(babel.Page), nil
}

// Response carries ranked results plus execution metadata.
type Response struct {
	// Results are the ranked search hits.
	Results []search.Result `json:"results"`

	// Query and Strategy echo the executed request.
	Query    string             `json:"query"`
	Strategy enumerate.Strategy `json:"strategy"`

	// AverageCoherence is the mean composite score of Results.
	AverageCoherence float64 `json:"average_coherence"`

	// Elapsed is the wall time the search took.
	Elapsed time.Duration `json:"elapsed"`

	// CacheHits and CacheMisses are the cache counter deltas observed
	// during this search.
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
}

// NewRequest returns a search request for query with the configured
// defaults applied.
func (e *Engine) NewRequest(query string) search.Request {
	return search.Request{
		Query:         query,
		Strategy:      enumerate.StrategyAuto,
		MaxCandidates: e.cfg.Search.DefaultMaxCandidates,
		MinCoherence:  e.cfg.Search.DefaultMinCoherence,
	}
}

// Search delegates to the searcher and records elapsed time plus cache
// hit/miss counters in the response metadata.
func (e *Engine) Search(ctx context.Context, req search.Request) (*Response, error) {
	start := time.Now()
	hitsBefore, missesBefore := e.metrics.CacheCounters()

	results, err := e.searcher.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	hitsAfter, missesAfter := e.metrics.CacheCounters()
	elapsed := time.Since(start)

	avg := 0.0
	for _, r := range results {
		avg += r.Score
	}
	if len(results) > 0 {
		avg /= float64(len(results))
	}

	e.metrics.Record(telemetry.SearchEvent{
		Query:       req.Query,
		Strategy:    string(req.Strategy),
		Candidates:  req.MaxCandidates,
		ResultCount: len(results),
		Latency:     elapsed,
		Timestamp:   time.Now(),
	})

	return &Response{
		Results:          results,
		Query:            req.Query,
		Strategy:         req.Strategy,
		AverageCoherence: avg,
		Elapsed:          elapsed,
		CacheHits:        hitsAfter - hitsBefore,
		CacheMisses:      missesAfter - missesBefore,
	}, nil
}

// AssembleOptions configures AssembleBook.
type AssembleOptions struct {
	// Method is the grouping policy.
	Method assemble.Method

	// BookSize is the required page count. Must be positive.
	BookSize int

	// CoherenceThreshold is the qualifying bar for the candidate pool
	// and the coherence_threshold method.
	CoherenceThreshold float64

	// Strategy selects candidate derivation for the pool search
	// (default: auto).
	Strategy enumerate.Strategy

	// Pad is the shortfall policy (default: fail with
	// InsufficientPages).
	Pad assemble.PadPolicy
}

// AssembleBook searches for a candidate pool, then assembles a book from
// the discovered pages. All request validation happens before the search
// runs.
func (e *Engine) AssembleBook(ctx context.Context, query string, opts AssembleOptions) (*assemble.Book, error) {
	if strings.TrimSpace(query) == "" {
		return nil, bberrors.InvalidQuery("assembly query must not be empty")
	}
	if opts.BookSize <= 0 {
		return nil, bberrors.Newf(bberrors.ErrCodeInvalidQuery,
			"book_size must be positive, got %d", opts.BookSize)
	}
	method, err := assemble.ParseMethod(string(opts.Method))
	if err != nil {
		return nil, err
	}
	strategy := opts.Strategy
	if strategy == "" {
		strategy = enumerate.StrategyAuto
	}

	// Gather a pool larger than the book so the assembler has slack.
	resp, err := e.Search(ctx, search.Request{
		Query:         query,
		Strategy:      strategy,
		MaxCandidates: opts.BookSize * 3,
		MinCoherence:  0,
	})
	if err != nil {
		return nil, err
	}

	pages := make([]babel.Page, 0, len(resp.Results))
	for _, r := range resp.Results {
		page, perr := e.GetPage(ctx, r.Address)
		if perr != nil {
			return nil, perr
		}
		// Carry the phrase-aware scores from the search so methods like
		// phrase_relevance see the query's submetrics.
		page.Score = r.Score
		page.Scores = r.Scores
		pages = append(pages, page)
	}

	book, err := e.assembler.Assemble(pages, assemble.Options{
		Method:             method,
		BookSize:           opts.BookSize,
		TargetPhrase:       query,
		CoherenceThreshold: opts.CoherenceThreshold,
		Pad:                opts.Pad,
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("book assembled",
		slog.String("book_id", book.ID),
		slog.String("method", string(method)),
		slog.Int("pages", book.PageCount()),
		slog.Float64("aggregate_coherence", book.AggregateCoherence))

	return book, nil
}

// ExportBook serializes a book to w in the given format. Pure
// formatting; no scoring or assembly logic runs.
func (e *Engine) ExportBook(w io.Writer, book *assemble.Book, format export.Format) error {
	return export.Book(w, book, format)
}

// Scorer exposes the engine's scorer for passage extraction and
// re-scoring.
func (e *Engine) Scorer() *score.Scorer {
	return e.scorer
}

// Stats returns a snapshot of search and cache metrics.
func (e *Engine) Stats() telemetry.Snapshot {
	return e.metrics.Snapshot()
}

// CacheLen returns the number of cached pages.
func (e *Engine) CacheLen() int {
	return e.cache.Len()
}

// ClearCache drops all cached pages. Purely a capacity operation;
// regenerated pages are always identical.
func (e *Engine) ClearCache() {
	e.cache.Purge()
}
