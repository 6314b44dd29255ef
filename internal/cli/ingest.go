package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/palmlore/palmd/internal/config"
	"github.com/palmlore/palmd/internal/domain"
	"github.com/palmlore/palmd/internal/ingest"
	"github.com/palmlore/palmd/internal/openai"
	"github.com/palmlore/palmd/internal/storage"
)

// IngestCmd returns the ingest command
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Chunk, classify and embed knowledge documents",
		Long:  "Read .txt/.md documents from a local directory or an S3 bucket, split them into chunks, classify and embed each chunk, and upload the rows to the knowledge store",
		RunE:  runIngest,
	}

	cmd.Flags().StringP("dir", "d", "", "Local directory holding the documents")
	cmd.Flags().String("prefix", "", "Object key prefix when reading from the S3 bucket")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.HasEmbeddings() {
		return domain.ErrEmbeddingsNotConfigured
	}

	knowledgeStore, pool, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open knowledge store: %w", err)
	}
	if pool != nil {
		defer pool.Close()

		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	if knowledgeStore == nil {
		return domain.ErrStoreNotConfigured
	}

	source, err := buildSource(ctx, cmd, cfg)
	if err != nil {
		return err
	}

	svc := ingest.NewService(openai.NewClient(cfg.OpenAIAPIKey), knowledgeStore)

	stats, err := svc.Run(ctx, source)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	log.Printf("ingestion complete: %d documents, %d chunks, %d inserted, %d failed",
		stats.Documents, stats.Chunks, stats.Inserted, stats.Failed)
	return nil
}

func buildSource(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (ingest.Source, error) {
	dir, _ := cmd.Flags().GetString("dir")
	if dir != "" {
		return ingest.DirSource{Dir: dir}, nil
	}

	if !cfg.HasS3() {
		return nil, fmt.Errorf("no document source: pass --dir or configure the S3 bucket")
	}

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		UsePathStyle:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	prefix, _ := cmd.Flags().GetString("prefix")
	return ingest.BucketSource{Store: s3Client, Prefix: prefix}, nil
}
