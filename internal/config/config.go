package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// n8n workflow engine
	N8NWebhookBaseURL        string
	N8NLogoProcessingWebhook string
	N8NPageGeneratorWebhook  string
	N8NPDFAssemblyWebhook    string

	// Supabase
	SupabaseURL           string
	SupabaseServiceKey    string
	SupabaseJWTSecret     string
	SupabaseStorageBucket string

	// Database
	DatabaseURL string

	// Pipeline policy
	StageTimeout    time.Duration
	StageMaxRetries int
	StageRetryBase  time.Duration
	MaxLogoBytes    int64
	StaleJobTimeout time.Duration

	// Server
	Port        string
	Environment string
}

func Load() (*Config, error) {
	cfg := &Config{
		N8NWebhookBaseURL:        getEnv("N8N_WEBHOOK_BASE_URL", ""),
		N8NLogoProcessingWebhook: getEnv("N8N_LOGO_PROCESSING_WEBHOOK", "logo-processing"),
		N8NPageGeneratorWebhook:  getEnv("N8N_PAGE_GENERATOR_WEBHOOK", "page-generator"),
		N8NPDFAssemblyWebhook:    getEnv("N8N_PDF_ASSEMBLY_WEBHOOK", "pdf-assembly"),

		SupabaseURL:           getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:    getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseJWTSecret:     getEnv("SUPABASE_JWT_SECRET", ""),
		SupabaseStorageBucket: getEnv("SUPABASE_STORAGE_BUCKET", "catalog-assets"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		StageTimeout:    time.Duration(getEnvInt("STAGE_TIMEOUT_SECONDS", 60)) * time.Second,
		StageMaxRetries: getEnvInt("STAGE_MAX_RETRIES", 2),
		StageRetryBase:  time.Duration(getEnvInt("STAGE_RETRY_BASE_MS", 500)) * time.Millisecond,
		MaxLogoBytes:    int64(getEnvInt("MAX_LOGO_SIZE_MB", 10)) << 20,
		StaleJobTimeout: time.Duration(getEnvInt("STALE_JOB_TIMEOUT_MINUTES", 30)) * time.Minute,

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.N8NWebhookBaseURL == "" {
		return fmt.Errorf("N8N_WEBHOOK_BASE_URL is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.StageMaxRetries < 0 {
		return fmt.Errorf("STAGE_MAX_RETRIES must be >= 0")
	}
	if c.MaxLogoBytes <= 0 {
		return fmt.Errorf("MAX_LOGO_SIZE_MB must be > 0")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
