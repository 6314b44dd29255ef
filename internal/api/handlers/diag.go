package handlers

import (
	"context"
	"net/http"

	"github.com/palmlore/palmd/internal/api"
	"github.com/palmlore/palmd/internal/config"
	"github.com/palmlore/palmd/internal/domain"
)

// Counter reports how many knowledge rows the store holds.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// DiagHandler serves the configuration and connectivity diagnostics.
type DiagHandler struct {
	cfg   *config.Config
	store Counter
}

// NewDiagHandler creates a DiagHandler. store may be nil when no knowledge
// store is configured.
func NewDiagHandler(cfg *config.Config, store Counter) *DiagHandler {
	return &DiagHandler{cfg: cfg, store: store}
}

type ConfigStatusResponse struct {
	Status     string `json:"status"`
	Gateway    bool   `json:"gateway"`
	Embeddings bool   `json:"embeddings"`
	Store      bool   `json:"store"`
}

// Config handles GET /test. It reports which external services are
// configured without touching any of them.
func (h *DiagHandler) Config(w http.ResponseWriter, r *http.Request) {
	api.JSON(w, http.StatusOK, ConfigStatusResponse{
		Status:     "ok",
		Gateway:    h.cfg.HasGateway(),
		Embeddings: h.cfg.HasEmbeddings(),
		Store:      h.cfg.HasStore(),
	})
}

type StoreStatusResponse struct {
	Connected bool `json:"connected"`
	Count     int  `json:"count"`
}

// Store handles GET /test-store. It performs one live count query against
// the knowledge store.
func (h *DiagHandler) Store(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		api.HandleError(w, domain.ErrStoreNotConfigured)
		return
	}

	count, err := h.store.Count(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, StoreStatusResponse{Connected: true, Count: count})
}
