package ingest

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/palmlore/palmd/internal/domain"
	"github.com/palmlore/palmd/internal/store"
)

// Document is a named source file to be chunked and embedded.
type Document struct {
	Name    string
	Content string
}

// Source yields documents for ingestion.
type Source interface {
	Documents(ctx context.Context) ([]Document, error)
}

// DirSource reads .txt and .md files from a local directory.
type DirSource struct {
	Dir string
}

func (s DirSource) Documents(ctx context.Context) ([]Document, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", s.Dir, err)
	}

	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".txt" && ext != ".md" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.Dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		docs = append(docs, Document{Name: name, Content: string(data)})
	}

	return docs, nil
}

// ObjectStore lists and downloads documents from bucket storage.
type ObjectStore interface {
	ListDocuments(ctx context.Context, prefix string) ([]string, error)
	GetDocument(ctx context.Context, key string) (string, error)
}

// BucketSource reads documents from an S3-compatible bucket.
type BucketSource struct {
	Store  ObjectStore
	Prefix string
}

func (s BucketSource) Documents(ctx context.Context) ([]Document, error) {
	keys, err := s.Store.ListDocuments(ctx, s.Prefix)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(keys))
	for _, key := range keys {
		content, err := s.Store.GetDocument(ctx, key)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{Name: filepath.Base(key), Content: content})
	}

	return docs, nil
}

// Embedder generates a fixed-length vector for a chunk of text.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Stats summarizes an ingestion run.
type Stats struct {
	Documents int
	Chunks    int
	Inserted  int
	Failed    int
}

// Service turns source documents into classified, embedded knowledge rows.
type Service struct {
	embedder  Embedder
	store     store.KnowledgeStore
	chunkCfg  ChunkConfig
	batchSize int
}

func NewService(embedder Embedder, knowledgeStore store.KnowledgeStore) *Service {
	return &Service{
		embedder:  embedder,
		store:     knowledgeStore,
		chunkCfg:  DefaultChunkConfig(),
		batchSize: store.DefaultBatchSize,
	}
}

// Run chunks every document from the source, classifies and embeds each
// chunk, and uploads the resulting rows in batches. A chunk whose
// embedding fails is counted and skipped so one bad chunk does not abort
// the run.
func (s *Service) Run(ctx context.Context, source Source) (*Stats, error) {
	docs, err := source.Documents(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Documents: len(docs)}
	var items []*domain.KnowledgeItem

	for _, doc := range docs {
		chunks := ChunkText(doc.Content, s.chunkCfg)
		base := strings.TrimSuffix(doc.Name, filepath.Ext(doc.Name))
		log.Printf("processing %s: %d chunks", doc.Name, len(chunks))

		for i, chunk := range chunks {
			if err := ctx.Err(); err != nil {
				return stats, err
			}

			category, subcategory := Classify(chunk, base)
			keywords := ExtractKeywords(chunk)

			embedding, err := s.embedder.GenerateEmbedding(ctx, chunk)
			if err != nil {
				log.Printf("embedding failed for %s chunk %d: %v", doc.Name, i+1, err)
				stats.Failed++
				continue
			}

			items = append(items, &domain.KnowledgeItem{
				ID:          uuid.NewString(),
				Title:       fmt.Sprintf("%s - 第%d段", base, i+1),
				Content:     chunk,
				Category:    category,
				Subcategory: subcategory,
				Keywords:    keywords,
				Embedding:   embedding,
				Metadata: map[string]any{
					"source":       doc.Name,
					"chunk_index":  i,
					"total_chunks": len(chunks),
				},
			})
		}
		stats.Chunks += len(chunks)
	}

	stats.Inserted = store.InsertAll(ctx, s.store, items, s.batchSize)
	return stats, nil
}
