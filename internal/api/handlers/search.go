package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/palmlore/palmd/internal/api"
	"github.com/palmlore/palmd/internal/domain"
)

// KnowledgeSearcher runs planned similarity queries against the store.
type KnowledgeSearcher interface {
	SearchKnowledge(ctx context.Context, analysisType domain.AnalysisType, handType domain.HandType, age int) []*domain.KnowledgeItem
}

type SearchHandler struct {
	svc KnowledgeSearcher
}

// NewSearchHandler creates a SearchHandler. svc may be nil when no
// knowledge store is configured.
func NewSearchHandler(svc KnowledgeSearcher) *SearchHandler {
	return &SearchHandler{svc: svc}
}

type SearchRequest struct {
	AnalysisType string `json:"analysisType"`
	HandType     string `json:"handType,omitempty"`
	Age          int    `json:"age"`
}

type SearchResultItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Similarity  float64  `json:"similarity"`
}

type SearchResponse struct {
	Results []SearchResultItem `json:"results"`
	Count   int                `json:"count"`
}

// Search handles POST /search-knowledge.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		api.HandleError(w, domain.ErrStoreNotConfigured)
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	analysisType := domain.AnalysisType(req.AnalysisType)
	if !domain.IsValidAnalysisType(analysisType) {
		api.Error(w, http.StatusBadRequest, "invalid analysis type")
		return
	}

	handType := domain.HandType(req.HandType)
	if handType == "" {
		handType = domain.HandDominant
	} else if !domain.IsValidHandType(handType) {
		api.Error(w, http.StatusBadRequest, "invalid hand type")
		return
	}

	items := h.svc.SearchKnowledge(r.Context(), analysisType, handType, req.Age)

	results := make([]SearchResultItem, 0, len(items))
	for _, item := range items {
		results = append(results, SearchResultItem{
			ID:          item.ID,
			Title:       item.Title,
			Content:     item.Content,
			Category:    string(item.Category),
			Subcategory: item.Subcategory,
			Keywords:    item.Keywords,
			Similarity:  item.Similarity,
		})
	}

	api.JSON(w, http.StatusOK, SearchResponse{Results: results, Count: len(results)})
}
