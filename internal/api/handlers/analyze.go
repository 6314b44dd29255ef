package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/palmlore/palmd/internal/api"
	"github.com/palmlore/palmd/internal/domain"
)

// Analyzer runs palm readings against the LLM gateway.
type Analyzer interface {
	Analyze(ctx context.Context, req *domain.AnalysisRequest) (string, error)
	AnalyzeStream(ctx context.Context, req *domain.AnalysisRequest, fn func(delta string) error) error
}

type AnalyzeHandler struct {
	svc Analyzer
}

func NewAnalyzeHandler(svc Analyzer) *AnalyzeHandler {
	return &AnalyzeHandler{svc: svc}
}

type KnowledgeBaseItem struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Keywords []string `json:"keywords,omitempty"`
}

type AnalyzeRequest struct {
	Image         string              `json:"image"`
	BirthYear     int                 `json:"birthYear"`
	Gender        string              `json:"gender,omitempty"`
	HandType      string              `json:"handType,omitempty"`
	AnalysisType  string              `json:"analysisType,omitempty"`
	KnowledgeBase []KnowledgeBaseItem `json:"knowledgeBase,omitempty"`
}

type AnalyzeResponse struct {
	Analysis string `json:"analysis"`
}

func (req *AnalyzeRequest) toDomain() *domain.AnalysisRequest {
	out := &domain.AnalysisRequest{
		Image:        req.Image,
		BirthYear:    req.BirthYear,
		Gender:       req.Gender,
		HandType:     domain.HandType(req.HandType),
		AnalysisType: domain.AnalysisType(req.AnalysisType),
	}
	for _, item := range req.KnowledgeBase {
		out.Knowledge = append(out.Knowledge, &domain.KnowledgeItem{
			Title:    item.Title,
			Content:  item.Content,
			Keywords: item.Keywords,
		})
	}
	return out
}

// Analyze handles POST /analyze.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	analysis, err := h.svc.Analyze(r.Context(), req.toDomain())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, AnalyzeResponse{Analysis: analysis})
}

// AnalyzeStream handles POST /analyze-stream. Deltas are written as plain
// text and flushed as they arrive; the request context cancels the
// upstream stream when the client disconnects.
func (h *AnalyzeHandler) AnalyzeStream(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		api.Error(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	started := false
	err := h.svc.AnalyzeStream(r.Context(), req.toDomain(), func(delta string) error {
		if !started {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if _, err := w.Write([]byte(delta)); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		if !started {
			api.HandleError(w, err)
			return
		}
		// Headers are already sent; the envelope cannot be delivered.
		log.Printf("stream aborted: %v", err)
	}
}
