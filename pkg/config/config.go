// Package config loads the usage-matching pipeline's configuration from
// unprefixed environment variables using github.com/kelseyhightower/envconfig.
//
// # Basic usage
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatalf("failed to load configuration: %v", err)
//	}
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("invalid configuration: %v", err)
//	}
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full set of environment-driven settings both workers share.
// Usage Processor and Matching Engine each load the whole struct and ignore
// the fields their own cascade/embedding concerns don't need.
type Config struct {
	// Identity
	ServiceName string `envconfig:"SERVICE_NAME" default:"usage-matching"`

	// Message bus
	KafkaBrokers       []string `envconfig:"KAFKA_BROKERS"`
	KafkaConsumerGroup string   `envconfig:"KAFKA_CONSUMER_GROUP" default:"usage-matching"`

	// Datastore
	DatabaseURL  string `envconfig:"DATABASE_URL"`
	MaxOpenConns int    `envconfig:"DATABASE_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns int    `envconfig:"DATABASE_MAX_IDLE_CONNS" default:"5"`

	// Embedding provider
	OpenAIAPIKey       string        `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel     string        `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingBatchSize int           `envconfig:"EMBEDDING_BATCH_SIZE" default:"100"`
	EmbeddingCacheTTL  time.Duration `envconfig:"EMBEDDING_CACHE_TTL" default:"10m"`
	EmbeddingPacing    time.Duration `envconfig:"EMBEDDING_PACING" default:"50ms"`

	// Matching cascade thresholds
	ISRCConfidence          float64 `envconfig:"ISRC_CONFIDENCE" default:"1.0"`
	FuzzyMatchThreshold     float64 `envconfig:"FUZZY_MATCH_THRESHOLD" default:"0.85"`
	EmbeddingMatchThreshold float64 `envconfig:"EMBEDDING_MATCH_THRESHOLD" default:"0.80"`
	ManualReviewThreshold   float64 `envconfig:"MANUAL_REVIEW_THRESHOLD" default:"0.60"`
	MaxAlternativeMatches   int     `envconfig:"MAX_ALTERNATIVE_MATCHES" default:"5"`
	MaxRetries              int     `envconfig:"MAX_RETRIES" default:"3"`

	// Ambient
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	HealthPort      int           `envconfig:"HEALTH_PORT" default:"8081"`

	// Telemetry (optional; tracing stays disabled until an endpoint is set)
	TelemetryOTLPEndpoint   string `envconfig:"TELEMETRY_OTLP_ENDPOINT"`
	TelemetryServiceVersion string `envconfig:"TELEMETRY_SERVICE_VERSION" default:"1.0.0"`
}

// Load reads Config from unprefixed environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the fields every worker needs regardless of which cascade
// stage or normalizer path a given message takes.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}

	for name, v := range map[string]float64{
		"ISRC_CONFIDENCE":           c.ISRCConfidence,
		"FUZZY_MATCH_THRESHOLD":     c.FuzzyMatchThreshold,
		"EMBEDDING_MATCH_THRESHOLD": c.EmbeddingMatchThreshold,
		"MANUAL_REVIEW_THRESHOLD":   c.ManualReviewThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0,1], got %v", name, v)
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid LOG_LEVEL: %s", c.LogLevel)
	}

	return nil
}
