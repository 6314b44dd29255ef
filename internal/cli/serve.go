package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/palmlore/palmd/internal/api/handlers"
	"github.com/palmlore/palmd/internal/config"
	"github.com/palmlore/palmd/internal/gateway"
	"github.com/palmlore/palmd/internal/openai"
	"github.com/palmlore/palmd/internal/retrieval"
	"github.com/palmlore/palmd/internal/server"
	"github.com/palmlore/palmd/internal/service"
	"github.com/palmlore/palmd/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the analysis API server",
		Long:  "Start the palmd API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if a DSN is set
	if cfg.SentryDSN != "" {
		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if cfg.Environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	knowledgeStore, pool, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open knowledge store: %w", err)
	}
	if pool != nil {
		defer pool.Close()

		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			if err := runMigrations(cfg.DatabaseURL); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}
	}
	if knowledgeStore == nil {
		log.Println("no knowledge store configured, analyses run without retrieval")
	}

	var retriever service.Retriever
	var searcher handlers.KnowledgeSearcher
	if knowledgeStore != nil && cfg.HasEmbeddings() {
		retrievalSvc := retrieval.NewService(openai.NewClient(cfg.OpenAIAPIKey), knowledgeStore, retrieval.Config{
			HybridThreshold: cfg.SimilarityThreshold,
			SearchLimit:     cfg.SearchLimit,
			ContextLimit:    cfg.ContextLimit,
		})
		retriever = retrievalSvc
		searcher = retrievalSvc
	}

	var gw service.Gateway
	if cfg.HasGateway() {
		gw = gateway.NewClient(gateway.Config{
			APIKey:      cfg.GatewayAPIKey,
			BaseURL:     cfg.GatewayURL,
			Model:       cfg.GatewayModel,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		})
	} else {
		log.Println("no gateway API key configured, analyze endpoints will fail")
	}

	analysisSvc := service.NewAnalysisService(gw, retriever)

	router := server.NewRouter(server.RouterConfig{
		AnalyzeHandler: handlers.NewAnalyzeHandler(analysisSvc),
		SearchHandler:  handlers.NewSearchHandler(searcher),
		DiagHandler:    handlers.NewDiagHandler(cfg, knowledgeStore),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
