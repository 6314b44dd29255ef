//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	openaiapi "github.com/sashabaranov/go-openai"

	"github.com/palmlore/palmd/internal/api/handlers"
	"github.com/palmlore/palmd/internal/config"
	"github.com/palmlore/palmd/internal/gateway"
	"github.com/palmlore/palmd/internal/retrieval"
	"github.com/palmlore/palmd/internal/server"
	"github.com/palmlore/palmd/internal/service"
	"github.com/palmlore/palmd/internal/store/postgres"
	"github.com/palmlore/palmd/internal/testutil"
)

// TestEnv holds all resources needed for end-to-end tests.
type TestEnv struct {
	Ctx       context.Context
	Pool      *pgxpool.Pool
	Store     *postgres.Store
	ServerURL string
	Client    *http.Client
}

// stubEmbedder maps every query to the same unit vector so similarity
// search is deterministic without a live embedding provider.
type stubEmbedder struct{}

func (stubEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	v := make([]float32, 1536)
	v[0] = 1
	return v, nil
}

// newGatewayStub serves a chat-completion endpoint that always answers
// with the given text, streaming when the request asks for it.
func newGatewayStub(t *testing.T, answer string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Stream bool `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if !req.Stream {
			w.Header().Set("Content-Type", "application/json")
			resp := openaiapi.ChatCompletionResponse{
				Choices: []openaiapi.ChatCompletionChoice{
					{Message: openaiapi.ChatCompletionMessage{Content: answer}},
				},
			}
			json.NewEncoder(w).Encode(resp)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, r := range answer {
			chunk := fmt.Sprintf(`{"choices":[{"delta":{"content":%q}}]}`, string(r))
			fmt.Fprintf(w, "data: %s\n\n", chunk)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))
}

// SetupEnv starts a pgvector container, runs migrations and serves the
// full router over real HTTP with the gateway stubbed.
func SetupEnv(t *testing.T, gatewayURL string) *TestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { pgC.Terminate(ctx) })

	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")
	t.Cleanup(pool.Close)

	knowledgeStore := postgres.New(pool)

	retrievalSvc := retrieval.NewService(stubEmbedder{}, knowledgeStore, retrieval.Config{})
	gw := gateway.NewClient(gateway.Config{
		APIKey:  "test-key",
		BaseURL: gatewayURL,
	})
	analysisSvc := service.NewAnalysisService(gw, retrievalSvc)

	cfg := &config.Config{GatewayAPIKey: "test-key", DatabaseURL: pgC.ConnectionString()}
	router := server.NewRouter(server.RouterConfig{
		AnalyzeHandler: handlers.NewAnalyzeHandler(analysisSvc),
		SearchHandler:  handlers.NewSearchHandler(retrievalSvc),
		DiagHandler:    handlers.NewDiagHandler(cfg, knowledgeStore),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &TestEnv{
		Ctx:       ctx,
		Pool:      pool,
		Store:     knowledgeStore,
		ServerURL: srv.URL,
		Client:    srv.Client(),
	}
}

// PostJSON sends a JSON POST and returns the response.
func (env *TestEnv) PostJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}

	resp, err := env.Client.Post(env.ServerURL+path, "application/json", strings.NewReader(string(payload)))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}
