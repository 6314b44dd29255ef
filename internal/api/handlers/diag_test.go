package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/palmlore/palmd/internal/config"
	"github.com/palmlore/palmd/internal/domain"
)

type MockCounter struct {
	mock.Mock
}

func (m *MockCounter) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func getRequest(h http.HandlerFunc, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestDiagHandler_ConfigPresence(t *testing.T) {
	cfg := &config.Config{
		GatewayAPIKey: "key",
		SupabaseURL:   "https://example.supabase.co",
	}
	h := NewDiagHandler(cfg, nil)

	rec := getRequest(h.Config, "/test")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ConfigStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Gateway)
	assert.False(t, resp.Embeddings)
	assert.False(t, resp.Store) // anon key missing
}

func TestDiagHandler_StoreCount(t *testing.T) {
	counter := new(MockCounter)
	counter.On("Count", mock.Anything).Return(128, nil)

	h := NewDiagHandler(&config.Config{}, counter)

	rec := getRequest(h.Store, "/test-store")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp StoreStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Connected)
	assert.Equal(t, 128, resp.Count)
}

func TestDiagHandler_StoreFailure(t *testing.T) {
	counter := new(MockCounter)
	counter.On("Count", mock.Anything).
		Return(0, &domain.UpstreamError{Service: "supabase", StatusCode: 401, Body: "bad key"})

	h := NewDiagHandler(&config.Config{}, counter)

	rec := getRequest(h.Store, "/test-store")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "401")
}

func TestDiagHandler_StoreNotConfigured(t *testing.T) {
	h := NewDiagHandler(&config.Config{}, nil)

	rec := getRequest(h.Store, "/test-store")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
