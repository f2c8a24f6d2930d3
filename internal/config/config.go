package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the dataset/inference server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Delegate DelegateConfig
	Queue    QueueConfig
	Pricing  PricingConfig
	Auth     AuthConfig
	Overlap  OverlapConfig
}

type ServerConfig struct {
	Port            int
	Env             string
	RateLimitPerMin int
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// DelegateConfig configures the external prediction service client.
type DelegateConfig struct {
	BaseURL         string
	Timeout         time.Duration
	MaxPayloadBytes int64
	RetryBackoff    time.Duration
}

type QueueConfig struct {
	Workers     int
	ProgressTTL time.Duration
}

// PricingConfig holds the per-type token rates and the zip inspection
// guards. Upload and inference use different rate tables.
type PricingConfig struct {
	ImageUploadRate    float64
	FrameUploadRate    float64
	ImageInferenceRate float64
	FrameInferenceRate float64
	ZipMaxDepth        int
	ZipMaxBytes        int64
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// OverlapConfig controls the duplicate-content detector. EmptyMatches
// preserves the legacy verdict that two content-less datasets with the
// same name overlap.
type OverlapConfig struct {
	EmptyMatches bool
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            envInt("PORT", 8080),
			Env:             envString("APP_ENV", "development"),
			RateLimitPerMin: envInt("RATE_LIMIT_PER_MIN", 60),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Delegate: DelegateConfig{
			BaseURL:         os.Getenv("INFERENCE_URL"),
			Timeout:         envDuration("INFERENCE_TIMEOUT", 60*time.Second),
			MaxPayloadBytes: envInt64("INFERENCE_MAX_PAYLOAD_BYTES", 64<<20),
			RetryBackoff:    envDuration("INFERENCE_RETRY_BACKOFF", 2*time.Second),
		},
		Queue: QueueConfig{
			Workers:     envInt("QUEUE_WORKERS", 4),
			ProgressTTL: envDuration("QUEUE_PROGRESS_TTL", 30*time.Minute),
		},
		Pricing: PricingConfig{
			ImageUploadRate:    envFloat("COST_IMAGE_UPLOAD", 0.65),
			FrameUploadRate:    envFloat("COST_FRAME_UPLOAD", 0.45),
			ImageInferenceRate: envFloat("COST_IMAGE_INFERENCE", 2.75),
			FrameInferenceRate: envFloat("COST_FRAME_INFERENCE", 1.95),
			ZipMaxDepth:        envInt("ZIP_MAX_DEPTH", 5),
			ZipMaxBytes:        envInt64("ZIP_MAX_BYTES", 512<<20),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			TokenTTL:  envDuration("JWT_TOKEN_TTL", 24*time.Hour),
		},
		Overlap: OverlapConfig{
			EmptyMatches: envBool("OVERLAP_EMPTY_MATCHES", true),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	if c.Delegate.BaseURL == "" {
		return fmt.Errorf("INFERENCE_URL is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitPerMin <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MIN must be positive, got %d", c.Server.RateLimitPerMin)
	}
	if c.Queue.Workers <= 0 {
		return fmt.Errorf("QUEUE_WORKERS must be positive, got %d", c.Queue.Workers)
	}
	if c.Delegate.MaxPayloadBytes <= 0 {
		return fmt.Errorf("INFERENCE_MAX_PAYLOAD_BYTES must be positive, got %d", c.Delegate.MaxPayloadBytes)
	}
	if c.Pricing.ImageUploadRate <= 0 || c.Pricing.FrameUploadRate <= 0 ||
		c.Pricing.ImageInferenceRate <= 0 || c.Pricing.FrameInferenceRate <= 0 {
		return fmt.Errorf("cost rates must be positive")
	}
	if c.Pricing.ZipMaxDepth <= 0 {
		return fmt.Errorf("ZIP_MAX_DEPTH must be positive, got %d", c.Pricing.ZipMaxDepth)
	}
	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
