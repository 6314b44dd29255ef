// Package supabase implements the knowledge store against the Supabase
// REST surface: the similarity-search RPCs and the table insert endpoint.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/palmlore/palmd/internal/domain"
)

const (
	searchFunction = "search_palm_knowledge"
	hybridFunction = "hybrid_search_palm_knowledge"
	tableName      = "palm_knowledge"

	defaultTimeout = 30 * time.Second
)

// Store talks to the managed Supabase project over REST with the
// anonymous key.
type Store struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

func New(baseURL, anonKey string) *Store {
	return &Store{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

type knowledgeRow struct {
	ID          string         `json:"id,omitempty"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	Category    string         `json:"category"`
	Subcategory *string        `json:"subcategory,omitempty"`
	Keywords    []string       `json:"keywords,omitempty"`
	Embedding   []float32      `json:"embedding,omitempty"`
	Similarity  float64        `json:"similarity,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func (r *knowledgeRow) toDomain() *domain.KnowledgeItem {
	item := &domain.KnowledgeItem{
		ID:         r.ID,
		Title:      r.Title,
		Content:    r.Content,
		Category:   domain.Category(r.Category),
		Keywords:   r.Keywords,
		Similarity: r.Similarity,
		Metadata:   r.Metadata,
	}
	if r.Subcategory != nil {
		item.Subcategory = *r.Subcategory
	}
	return item
}

func rowFromDomain(item *domain.KnowledgeItem) knowledgeRow {
	row := knowledgeRow{
		ID:        item.ID,
		Title:     item.Title,
		Content:   item.Content,
		Category:  string(item.Category),
		Keywords:  item.Keywords,
		Embedding: item.Embedding,
		Metadata:  item.Metadata,
	}
	if item.Subcategory != "" {
		row.Subcategory = &item.Subcategory
	}
	return row
}

type searchParams struct {
	QueryText      string    `json:"query_text,omitempty"`
	QueryEmbedding []float32 `json:"query_embedding"`
	MatchThreshold float64   `json:"match_threshold"`
	MatchCount     int       `json:"match_count"`
	FilterCategory *string   `json:"filter_category"`
}

func categoryFilter(category domain.Category) *string {
	if category == "" {
		return nil
	}
	s := string(category)
	return &s
}

// Search calls the vector-similarity RPC.
func (s *Store) Search(ctx context.Context, embedding []float32, threshold float64, limit int, category domain.Category) ([]*domain.KnowledgeItem, error) {
	return s.rpc(ctx, searchFunction, searchParams{
		QueryEmbedding: embedding,
		MatchThreshold: threshold,
		MatchCount:     limit,
		FilterCategory: categoryFilter(category),
	})
}

// HybridSearch calls the combined vector+keyword RPC.
func (s *Store) HybridSearch(ctx context.Context, query string, embedding []float32, threshold float64, limit int, category domain.Category) ([]*domain.KnowledgeItem, error) {
	return s.rpc(ctx, hybridFunction, searchParams{
		QueryText:      query,
		QueryEmbedding: embedding,
		MatchThreshold: threshold,
		MatchCount:     limit,
		FilterCategory: categoryFilter(category),
	})
}

func (s *Store) rpc(ctx context.Context, function string, params searchParams) ([]*domain.KnowledgeItem, error) {
	var rows []knowledgeRow
	url := fmt.Sprintf("%s/rest/v1/rpc/%s", s.baseURL, function)
	if err := s.doJSON(ctx, http.MethodPost, url, params, nil, &rows); err != nil {
		return nil, err
	}

	items := make([]*domain.KnowledgeItem, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].toDomain())
	}
	return items, nil
}

// InsertBatch inserts one batch of rows into the knowledge table.
func (s *Store) InsertBatch(ctx context.Context, items []*domain.KnowledgeItem) error {
	if len(items) == 0 {
		return nil
	}

	rows := make([]knowledgeRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, rowFromDomain(item))
	}

	url := fmt.Sprintf("%s/rest/v1/%s", s.baseURL, tableName)
	headers := map[string]string{"Prefer": "return=minimal"}
	return s.doJSON(ctx, http.MethodPost, url, rows, headers, nil)
}

// Count returns the number of rows in the knowledge table, used by the
// store diagnostic endpoint.
func (s *Store) Count(ctx context.Context) (int, error) {
	url := fmt.Sprintf("%s/rest/v1/%s?select=id&limit=1", s.baseURL, tableName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	s.setHeaders(req)
	req.Header.Set("Prefer", "count=exact")
	req.Header.Set("Range", "0-0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, &domain.UpstreamError{Service: "supabase", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return 0, &domain.UpstreamError{Service: "supabase", StatusCode: resp.StatusCode, Body: string(body)}
	}

	// Content-Range is "<from>-<to>/<total>" when count=exact is requested.
	contentRange := resp.Header.Get("Content-Range")
	idx := strings.LastIndex(contentRange, "/")
	if idx < 0 {
		return 0, fmt.Errorf("unexpected Content-Range %q", contentRange)
	}
	count, err := strconv.Atoi(contentRange[idx+1:])
	if err != nil {
		return 0, fmt.Errorf("unexpected Content-Range %q", contentRange)
	}
	return count, nil
}

func (s *Store) setHeaders(req *http.Request) {
	req.Header.Set("apikey", s.anonKey)
	req.Header.Set("Authorization", "Bearer "+s.anonKey)
	req.Header.Set("Content-Type", "application/json")
}

func (s *Store) doJSON(ctx context.Context, method, url string, payload any, headers map[string]string, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	s.setHeaders(req)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &domain.UpstreamError{Service: "supabase", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return &domain.UpstreamError{Service: "supabase", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
