package search

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/babelseek/babelseek/pkg/babel"
	"github.com/babelseek/babelseek/pkg/enumerate"
	bberrors "github.com/babelseek/babelseek/pkg/errors"
	"github.com/babelseek/babelseek/pkg/score"
)

// Searcher runs the search pipeline: enumerate candidates, generate their
// pages through the shared provider, score against the query, then rank.
type Searcher struct {
	enum     *enumerate.Enumerator
	provider PageProvider
	scorer   *score.Scorer
	workers  int
	logger   *slog.Logger
}

// Option configures the searcher.
type Option func(*Searcher)

// WithWorkers sets the generation/scoring fan-out (default: GOMAXPROCS).
// Page generation and scoring for distinct addresses are independent and
// side-effect-free, so they parallelize freely.
func WithWorkers(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLogger sets the structured logger (default: slog.Default).
func WithLogger(l *slog.Logger) Option {
	return func(s *Searcher) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a searcher. All three dependencies are required.
func New(enum *enumerate.Enumerator, provider PageProvider, scorer *score.Scorer, opts ...Option) *Searcher {
	s := &Searcher{
		enum:     enum,
		provider: provider,
		scorer:   scorer,
		workers:  runtime.GOMAXPROCS(0),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search executes the request and returns results sorted descending by
// composite score, with numeric address-ascending order as the
// deterministic tie-break. Validation failures are reported before any
// generation work; an exhausted candidate pool yields an empty slice,
// never an error.
func (s *Searcher) Search(ctx context.Context, req Request) ([]Result, error) {
	start := time.Now()

	if strings.TrimSpace(req.Query) == "" {
		return nil, bberrors.InvalidQuery("search query must not be empty")
	}
	strategy, err := enumerate.ParseStrategy(string(req.Strategy))
	if err != nil {
		return nil, err
	}
	if req.MaxCandidates <= 0 {
		return []Result{}, nil
	}

	candidates, err := s.enum.Enumerate(ctx, req.Query, strategy)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []Result{}, nil
	}

	results, err := s.scoreCandidates(ctx, req.Query, candidates)
	if err != nil {
		return nil, err
	}

	filtered := results[:0]
	for _, r := range results {
		if r.Score >= req.MinCoherence {
			filtered = append(filtered, r)
		}
	}

	sortResults(filtered)
	if len(filtered) > req.MaxCandidates {
		filtered = filtered[:req.MaxCandidates]
	}

	s.logger.Debug("search completed",
		slog.String("query", req.Query),
		slog.String("strategy", string(strategy)),
		slog.Int("candidates", len(candidates)),
		slog.Int("results", len(filtered)),
		slog.Duration("elapsed", time.Since(start)))

	return filtered, nil
}

// scoreCandidates fans generation and scoring out across the worker
// pool. Result order follows candidate order; ranking happens later.
func (s *Searcher) scoreCandidates(ctx context.Context, query string, candidates []enumerate.Candidate) ([]Result, error) {
	results := make([]Result, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, cand := range candidates {
		i, cand := i, cand
		g.Go(func() error {
			page, err := s.provider.GetPage(gctx, cand.Address)
			if err != nil {
				return err
			}
			composite, breakdown := s.scorer.Score(page.Text, query)
			results[i] = Result{
				Address:  page.Address,
				Snippet:  extractSnippet(page.Text, query),
				Score:    composite,
				Scores:   breakdown,
				Strategy: cand.Strategy,
				Prior:    cand.Prior,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// sortResults orders by descending composite score, breaking ties by
// ascending numeric address so identical inputs always rank identically.
func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return babel.CompareAddresses(results[i].Address, results[j].Address) < 0
	})
}
