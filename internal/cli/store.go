package cli

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/palmlore/palmd/internal/config"
	"github.com/palmlore/palmd/internal/database"
	"github.com/palmlore/palmd/internal/store"
	"github.com/palmlore/palmd/internal/store/postgres"
	"github.com/palmlore/palmd/internal/store/supabase"
)

// openStore connects the configured knowledge store backend. Direct
// Postgres wins when both are configured; the returned pool is non-nil
// only for the Postgres backend and must be closed by the caller. Returns
// a nil store when neither backend is configured.
func openStore(ctx context.Context, cfg *config.Config) (store.KnowledgeStore, *pgxpool.Pool, error) {
	if cfg.HasPostgres() {
		pool, err := database.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Println("connected to database")
		return postgres.New(pool), pool, nil
	}

	if cfg.HasSupabase() {
		return supabase.New(cfg.SupabaseURL, cfg.SupabaseAnonKey), nil, nil
	}

	return nil, nil, nil
}
