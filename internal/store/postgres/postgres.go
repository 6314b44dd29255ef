// Package postgres implements the knowledge store directly against
// Postgres with pgvector, for deployments that point at the database
// rather than the managed REST surface.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/palmlore/palmd/internal/domain"
)

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists and searches knowledge items in the palm_knowledge table.
type Store struct {
	db dbtx
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

const searchColumns = `id, title, content, category, subcategory, keywords, 1 - (embedding <=> $1) AS similarity`

// Search returns items whose cosine similarity to the query embedding
// exceeds threshold, most similar first.
func (s *Store) Search(ctx context.Context, embedding []float32, threshold float64, limit int, category domain.Category) ([]*domain.KnowledgeItem, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+searchColumns+`
		 FROM palm_knowledge
		 WHERE 1 - (embedding <=> $1) > $2
		   AND ($3::text IS NULL OR category = $3)
		 ORDER BY embedding <=> $1
		 LIMIT $4`,
		pgvector.NewVector(embedding), threshold, nullableCategory(category), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// HybridSearch widens the vector match with a keyword-overlap match on the
// space-separated query terms, mirroring the managed hybrid RPC.
func (s *Store) HybridSearch(ctx context.Context, query string, embedding []float32, threshold float64, limit int, category domain.Category) ([]*domain.KnowledgeItem, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+searchColumns+`
		 FROM palm_knowledge
		 WHERE (1 - (embedding <=> $1) > $2 OR keywords && string_to_array($5, ' '))
		   AND ($3::text IS NULL OR category = $3)
		 ORDER BY embedding <=> $1
		 LIMIT $4`,
		pgvector.NewVector(embedding), threshold, nullableCategory(category), limit, query,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// InsertBatch inserts one batch of rows.
func (s *Store) InsertBatch(ctx context.Context, items []*domain.KnowledgeItem) error {
	for _, item := range items {
		createdAt := item.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err := s.db.Exec(ctx,
			`INSERT INTO palm_knowledge
				(id, title, content, category, subcategory, keywords, embedding, metadata, created_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			item.ID,
			item.Title,
			item.Content,
			item.Category,
			nullableString(item.Subcategory),
			item.Keywords,
			pgvector.NewVector(item.Embedding),
			item.Metadata,
			createdAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of stored knowledge rows.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM palm_knowledge`).Scan(&count)
	return count, err
}

func scanItems(rows pgx.Rows) ([]*domain.KnowledgeItem, error) {
	var items []*domain.KnowledgeItem
	for rows.Next() {
		var item domain.KnowledgeItem
		var subcategory *string
		if err := rows.Scan(
			&item.ID, &item.Title, &item.Content, &item.Category,
			&subcategory, &item.Keywords, &item.Similarity,
		); err != nil {
			return nil, err
		}
		if subcategory != nil {
			item.Subcategory = *subcategory
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableCategory(c domain.Category) *string {
	return nullableString(string(c))
}
