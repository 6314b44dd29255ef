package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/palmlore/palmd/internal/api/handlers"
	"github.com/palmlore/palmd/internal/config"
	"github.com/palmlore/palmd/internal/domain"
)

type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Analyze(ctx context.Context, req *domain.AnalysisRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockAnalyzer) AnalyzeStream(ctx context.Context, req *domain.AnalysisRequest, fn func(delta string) error) error {
	args := m.Called(ctx, req, fn)
	return args.Error(0)
}

type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) SearchKnowledge(ctx context.Context, analysisType domain.AnalysisType, handType domain.HandType, age int) []*domain.KnowledgeItem {
	args := m.Called(ctx, analysisType, handType, age)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*domain.KnowledgeItem)
}

func newTestRouter(analyzer *MockAnalyzer, searcher *MockSearcher) http.Handler {
	return NewRouter(RouterConfig{
		AnalyzeHandler: handlers.NewAnalyzeHandler(analyzer),
		SearchHandler:  handlers.NewSearchHandler(searcher),
		DiagHandler:    handlers.NewDiagHandler(&config.Config{GatewayAPIKey: "key"}, nil),
	})
}

func doRequest(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_AnalyzeRoundTrip(t *testing.T) {
	analyzer := new(MockAnalyzer)
	analyzer.On("Analyze", mock.Anything, mock.Anything).Return("分析结果", nil)

	router := newTestRouter(analyzer, new(MockSearcher))

	rec := doRequest(t, router, http.MethodPost, "/analyze", map[string]any{
		"image":        "data:image/jpeg;base64,abc",
		"birthYear":    1990,
		"analysisType": "career",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "分析结果")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_WrongMethodReturnsJSON405(t *testing.T) {
	router := newTestRouter(new(MockAnalyzer), new(MockSearcher))

	rec := doRequest(t, router, http.MethodGet, "/analyze", nil)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "method not allowed", resp["error"])
}

func TestRouter_PreflightOptions(t *testing.T) {
	router := newTestRouter(new(MockAnalyzer), new(MockSearcher))

	req := httptest.NewRequest(http.MethodOptions, "/analyze", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(new(MockAnalyzer), new(MockSearcher))

	rec := doRequest(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestRouter_UnknownRouteReturnsJSON404(t *testing.T) {
	router := newTestRouter(new(MockAnalyzer), new(MockSearcher))

	rec := doRequest(t, router, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not found")
}

func TestRouter_SearchKnowledge(t *testing.T) {
	searcher := new(MockSearcher)
	searcher.On("SearchKnowledge", mock.Anything, domain.AnalysisCareer, domain.HandDominant, 25).
		Return([]*domain.KnowledgeItem{{ID: "1", Title: "事业线", Similarity: 0.9}})

	router := newTestRouter(new(MockAnalyzer), searcher)

	rec := doRequest(t, router, http.MethodPost, "/search-knowledge", map[string]any{
		"analysisType": "career",
		"age":          25,
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
}

func TestRouter_DiagConfig(t *testing.T) {
	router := newTestRouter(new(MockAnalyzer), new(MockSearcher))

	rec := doRequest(t, router, http.MethodGet, "/test", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"gateway":true`)
}
