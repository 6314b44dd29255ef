// Package store defines the knowledge store abstraction shared by the
// Supabase REST and direct Postgres backends.
package store

import (
	"context"
	"log"

	"github.com/palmlore/palmd/internal/domain"
)

// DefaultBatchSize is the number of rows sent per insert call.
const DefaultBatchSize = 50

// KnowledgeStore is implemented by similarity-search backends. Search and
// HybridSearch return items ranked by vector closeness, optionally
// filtered by category (empty category means no filter).
type KnowledgeStore interface {
	Search(ctx context.Context, embedding []float32, threshold float64, limit int, category domain.Category) ([]*domain.KnowledgeItem, error)
	HybridSearch(ctx context.Context, query string, embedding []float32, threshold float64, limit int, category domain.Category) ([]*domain.KnowledgeItem, error)
	InsertBatch(ctx context.Context, items []*domain.KnowledgeItem) error
	Count(ctx context.Context) (int, error)
}

// InsertAll uploads items in fixed-size batches. A failing batch is logged
// and skipped; processing continues with the next batch. Returns the
// number of rows inserted.
func InsertAll(ctx context.Context, s KnowledgeStore, items []*domain.KnowledgeItem, batchSize int) int {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	inserted := 0
	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]
		if err := s.InsertBatch(ctx, batch); err != nil {
			log.Printf("batch %d insert failed: %v", start/batchSize+1, err)
			continue
		}
		inserted += len(batch)
		log.Printf("batch %d inserted (%d rows)", start/batchSize+1, len(batch))
	}
	return inserted
}
