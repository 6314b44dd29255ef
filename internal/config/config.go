package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Debug       bool   `envconfig:"DEBUG" default:"false"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`

	// LLM gateway (chat-completion compatible endpoint)
	GatewayAPIKey string  `envconfig:"GATEWAY_API_KEY"`
	GatewayURL    string  `envconfig:"GATEWAY_URL" default:"https://ai-gateway.vercel.sh/v1"`
	GatewayModel  string  `envconfig:"GATEWAY_MODEL" default:"openai/gpt-4o-mini"`
	Temperature   float32 `envconfig:"TEMPERATURE" default:"0.7"`
	MaxTokens     int     `envconfig:"MAX_TOKENS" default:"2000"`

	// Embedding provider
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	// Knowledge store: direct Postgres when DATABASE_URL is set,
	// otherwise the Supabase REST backend when URL and key are set.
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	SupabaseURL     string `envconfig:"SUPABASE_URL"`
	SupabaseAnonKey string `envconfig:"SUPABASE_ANON_KEY"`

	SimilarityThreshold float64 `envconfig:"SIMILARITY_THRESHOLD" default:"0.7"`
	SearchLimit         int     `envconfig:"SEARCH_LIMIT" default:"5"`
	ContextLimit        int     `envconfig:"CONTEXT_LIMIT" default:"8"`

	// Optional S3-compatible source for ingest documents
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"palm-docs"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("PALM", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasGateway() bool {
	return c.GatewayAPIKey != ""
}

func (c *Config) HasEmbeddings() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasPostgres() bool {
	return c.DatabaseURL != ""
}

func (c *Config) HasSupabase() bool {
	return c.SupabaseURL != "" && c.SupabaseAnonKey != ""
}

// HasStore reports whether any knowledge store backend is configured.
func (c *Config) HasStore() bool {
	return c.HasPostgres() || c.HasSupabase()
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}
