package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable, e.g. FUNDGEST_PORT.
const Prefix = "FUNDGEST"

type Config struct {
	Port     string `envconfig:"PORT" default:"8090" validate:"required,numeric"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	// Auth
	APIKey string `envconfig:"API_KEY"`

	// Record store connection; empty URL disables it.
	RecordStoreURL    string `envconfig:"RECORDSTORE_URL" validate:"omitempty,url"`
	RecordStoreAPIKey string `envconfig:"RECORDSTORE_API_KEY" validate:"required_with=RecordStoreURL"`

	// CSV sink; empty disables it.
	OutputDir string `envconfig:"OUTPUT_DIR"`

	// Worker pool
	WorkerCount        int `envconfig:"WORKER_COUNT" default:"4" validate:"min=1"`
	MaxQueueSize       int `envconfig:"MAX_QUEUE_SIZE" default:"100" validate:"min=1"`
	MaxConcurrentStore int `envconfig:"MAX_CONCURRENT_STORE" default:"4" validate:"min=1"`

	// Upload limits
	MaxUploadBytes int64 `envconfig:"MAX_UPLOAD_BYTES" default:"52428800" validate:"min=1"`

	// Job state
	JobTTL      time.Duration `envconfig:"JOB_TTL" default:"1h" validate:"gt=0"`
	StatsWindow time.Duration `envconfig:"STATS_WINDOW" default:"1h" validate:"gt=0"`

	// PDF
	PDFFallbackPdftotext bool `envconfig:"PDF_FALLBACK_PDFTOTEXT" default:"true"`

	// Optional YAML file overriding dataset section keywords.
	SectionsFile string `envconfig:"SECTIONS_FILE" validate:"omitempty,file"`
}

// Load reads FUNDGEST_* environment variables, applying tag defaults.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config from env: %w", err)
	}
	return cfg, nil
}

// Validate checks settings every binary needs.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", describe(err))
	}
	return nil
}

// ValidateServer additionally requires the settings the HTTP service needs.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("%s_API_KEY is required", Prefix)
	}
	return nil
}

// SlogLevel maps LogLevel onto slog.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

var validate = validator.New()

// describe flattens validator errors into one readable line.
func describe(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%s", strings.Join(parts, "; "))
}
