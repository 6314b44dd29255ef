package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/palmlore/palmd/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		APIKey:  "vck-test",
		BaseURL: srv.URL + "/v1",
	})
}

func TestClient_Analyze_Success(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer vck-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"您的生命线走势清晰。"}}]}`)
	})

	analysis, err := client.Analyze(context.Background(), "分析提示词", "data:image/jpeg;base64,xxx")

	require.NoError(t, err)
	assert.Equal(t, "您的生命线走势清晰。", analysis)
	assert.Equal(t, DefaultModel, gotBody["model"])

	// The user message carries both the prompt text and the image part.
	messages := gotBody["messages"].([]any)
	require.Len(t, messages, 1)
	content := messages[0].(map[string]any)["content"].([]any)
	require.Len(t, content, 2)
	assert.Equal(t, "text", content[0].(map[string]any)["type"])
	assert.Equal(t, "image_url", content[1].(map[string]any)["type"])
}

func TestClient_Analyze_UpstreamFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"model overloaded","type":"server_error"}}`)
	})

	_, err := client.Analyze(context.Background(), "prompt", "https://example.com/palm.jpg")

	require.Error(t, err)
	var upstream *domain.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusInternalServerError, upstream.StatusCode)
	assert.Contains(t, upstream.Body, "model overloaded")
}

func TestClient_Analyze_NoChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[]}`)
	})

	_, err := client.Analyze(context.Background(), "prompt", "https://example.com/palm.jpg")

	require.Error(t, err)
	var upstream *domain.UpstreamError
	assert.True(t, errors.As(err, &upstream))
}

func TestClient_AnalyzeStream_RelaysDeltas(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, delta := range []string{"您的", "生命线", "很清晰"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", delta)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	var got []string
	err := client.AnalyzeStream(context.Background(), "prompt", "https://example.com/palm.jpg", func(delta string) error {
		got = append(got, delta)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"您的", "生命线", "很清晰"}, got)
}

func TestClient_AnalyzeStream_UpstreamFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"error":{"message":"bad gateway","type":"server_error"}}`)
	})

	err := client.AnalyzeStream(context.Background(), "prompt", "https://example.com/palm.jpg", func(string) error {
		t.Fatal("no deltas expected")
		return nil
	})

	require.Error(t, err)
	var upstream *domain.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusBadGateway, upstream.StatusCode)
}

func TestClient_AnalyzeStream_RelayErrorAborts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for i := 0; i < 10; i++ {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\"chunk\"}}]}\n\n")
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	calls := 0
	err := client.AnalyzeStream(context.Background(), "prompt", "https://example.com/palm.jpg", func(string) error {
		calls++
		if calls == 2 {
			return errors.New("client disconnected")
		}
		return nil
	})

	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Config{APIKey: "vck-test"})

	assert.Equal(t, DefaultModel, client.model)
	assert.InDelta(t, DefaultTemperature, client.temperature, 0.001)
	assert.Equal(t, DefaultMaxTokens, client.maxTokens)
}
