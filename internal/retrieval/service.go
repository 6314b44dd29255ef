package retrieval

import (
	"context"
	"log"
	"sync"

	"github.com/palmlore/palmd/internal/domain"
	"github.com/palmlore/palmd/internal/store"
	"github.com/palmlore/palmd/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

// Embedder generates a fixed-length vector for a query string.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Config tunes retrieval behavior. Zero values fall back to the defaults
// used by DefaultConfig.
type Config struct {
	// SearchThreshold applies to plain vector search, HybridThreshold to
	// combined vector+keyword search.
	SearchThreshold float64
	HybridThreshold float64
	// PerQueryLimit caps results fetched per planned query.
	PerQueryLimit int
	// SearchLimit is the result cap for interactive search, ContextLimit
	// for full prompt-context retrieval.
	SearchLimit  int
	ContextLimit int
	// MaxConcurrent bounds the parallel fan-out of planned queries.
	MaxConcurrent int
}

func DefaultConfig() Config {
	return Config{
		SearchThreshold: 0.75,
		HybridThreshold: 0.7,
		PerQueryLimit:   3,
		SearchLimit:     5,
		ContextLimit:    8,
		MaxConcurrent:   4,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SearchThreshold <= 0 {
		c.SearchThreshold = d.SearchThreshold
	}
	if c.HybridThreshold <= 0 {
		c.HybridThreshold = d.HybridThreshold
	}
	if c.PerQueryLimit <= 0 {
		c.PerQueryLimit = d.PerQueryLimit
	}
	if c.SearchLimit <= 0 {
		c.SearchLimit = d.SearchLimit
	}
	if c.ContextLimit <= 0 {
		c.ContextLimit = d.ContextLimit
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = d.MaxConcurrent
	}
	return c
}

// Service plans knowledge queries, fans them out against the store, and
// aggregates the results. Store and embedding failures are never fatal: a
// failing query is logged and skipped, and an empty result list is a
// valid outcome.
type Service struct {
	embedder Embedder
	store    store.KnowledgeStore
	cfg      Config
}

func NewService(embedder Embedder, knowledgeStore store.KnowledgeStore, cfg Config) *Service {
	return &Service{
		embedder: embedder,
		store:    knowledgeStore,
		cfg:      cfg.withDefaults(),
	}
}

// SearchKnowledge runs the planned queries with plain vector search and
// returns up to SearchLimit deduplicated results. Used by the interactive
// search endpoint.
func (s *Service) SearchKnowledge(ctx context.Context, analysisType domain.AnalysisType, handType domain.HandType, age int) []*domain.KnowledgeItem {
	results := s.runQueries(ctx, PlanQueries(analysisType, handType, age), false)
	return Aggregate(results, s.cfg.SearchLimit)
}

// RelevantKnowledge runs the planned queries with hybrid search and
// returns up to ContextLimit deduplicated results for prompt augmentation.
func (s *Service) RelevantKnowledge(ctx context.Context, analysisType domain.AnalysisType, handType domain.HandType, age int) []*domain.KnowledgeItem {
	results := s.runQueries(ctx, PlanQueries(analysisType, handType, age), true)
	return Aggregate(results, s.cfg.ContextLimit)
}

// runQueries executes the planned queries with a bounded parallel fan-out.
// Each query is independent and read-only, so failures are isolated: the
// failing query contributes nothing and the rest proceed. Result order is
// kept stable by plan position so aggregation tie-breaking stays
// deterministic.
func (s *Service) runQueries(ctx context.Context, queries []domain.QuerySpec, hybrid bool) []*domain.KnowledgeItem {
	perQuery := make([][]*domain.KnowledgeItem, len(queries))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrent)

	for i, spec := range queries {
		g.Go(func() error {
			items, err := s.runQuery(ctx, spec, hybrid)
			if err != nil {
				log.Printf("knowledge query %q failed: %v", spec.Query, err)
				telemetry.CaptureError(ctx, err)
				return nil
			}
			mu.Lock()
			perQuery[i] = items
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var all []*domain.KnowledgeItem
	for _, items := range perQuery {
		all = append(all, items...)
	}
	return all
}

func (s *Service) runQuery(ctx context.Context, spec domain.QuerySpec, hybrid bool) ([]*domain.KnowledgeItem, error) {
	embedding, err := s.embedder.GenerateEmbedding(ctx, spec.Query)
	if err != nil {
		return nil, err
	}

	if hybrid {
		return s.store.HybridSearch(ctx, spec.Query, embedding, s.cfg.HybridThreshold, s.cfg.PerQueryLimit, spec.Category)
	}
	return s.store.Search(ctx, embedding, s.cfg.SearchThreshold, s.cfg.PerQueryLimit, spec.Category)
}
