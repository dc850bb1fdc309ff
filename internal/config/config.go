// Package config reads the process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Data source backends.
const (
	SourcePostgres = "postgres"
	SourceFiles    = "files"
	SourceS3       = "s3"
)

type Config struct {
	HTTPAddr       string
	AllowedOrigins string
	AppEnv         string
	LogLevel       string
	Data           DataConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	CacheTTL       time.Duration
}

type DataConfig struct {
	Source   string // postgres, files, s3
	Dir      string
	S3Bucket string
	S3Prefix string
	Region   string
}

type DatabaseConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
}

// RedisConfig selects the Redis cache backend. An empty Addr means the
// in-process memory cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load reads the configuration. It fails on values that are present but
// malformed, so a typo never silently falls back to a default.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8000"),
		AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		AppEnv:         getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Data: DataConfig{
			Source:   strings.ToLower(getEnv("DATA_SOURCE", SourcePostgres)),
			Dir:      getEnv("DATA_DIR", "data/csv"),
			S3Bucket: os.Getenv("S3_BUCKET"),
			S3Prefix: os.Getenv("S3_PREFIX"),
			Region:   getEnv("AWS_REGION", "us-east-1"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
	}

	var err error
	if cfg.Redis.DB, err = getEnvAsInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	maxConns, err := getEnvAsInt("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, err
	}
	minConns, err := getEnvAsInt("DB_MIN_CONNS", 1)
	if err != nil {
		return nil, err
	}
	cfg.Database.MaxConns, cfg.Database.MinConns = int32(maxConns), int32(minConns)
	if cfg.CacheTTL, err = getEnvAsDuration("CACHE_TTL", time.Hour); err != nil {
		return nil, err
	}

	switch cfg.Data.Source {
	case SourcePostgres:
		if cfg.Database.URL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when DATA_SOURCE=%s", SourcePostgres)
		}
	case SourceFiles:
	case SourceS3:
		if cfg.Data.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required when DATA_SOURCE=%s", SourceS3)
		}
	default:
		return nil, fmt.Errorf("DATA_SOURCE %q: want %s, %s or %s", cfg.Data.Source, SourcePostgres, SourceFiles, SourceS3)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}

// getEnvAsDuration accepts Go durations ("30m") or a plain number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
