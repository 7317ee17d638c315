package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Per-document processing deadline
	DocTimeout time.Duration

	// Taxonomy profiles
	TaxonomyDir   string
	TaxonomyWatch bool

	// Artifact store
	ArtifactDir string
	IndexDBPath string

	// EDGAR fetch
	EdgarBaseURL   string
	EdgarUserAgent string

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("FILINGNOTES_API_KEY"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		DocTimeout: envDuration("DOC_TIMEOUT", 2*time.Minute),

		TaxonomyDir:   envOr("TAXONOMY_DIR", "taxonomies"),
		TaxonomyWatch: envBool("TAXONOMY_WATCH", true),

		ArtifactDir: envOr("ARTIFACT_DIR", "artifacts"),
		IndexDBPath: envOr("INDEX_DB_PATH", "filings.db"),

		EdgarBaseURL:   envOr("EDGAR_BASE_URL", "https://www.sec.gov"),
		EdgarUserAgent: os.Getenv("EDGAR_USER_AGENT"),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.DocTimeout <= 0 {
		cfg.DocTimeout = 2 * time.Minute
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("FILINGNOTES_API_KEY is required")
	}
	if c.EdgarUserAgent == "" {
		return fmt.Errorf("EDGAR_USER_AGENT is required (the SEC rejects anonymous clients)")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
