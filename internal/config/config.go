package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	DatabaseURL string // CHUNKD_DATABASE_URL (required)
	HTTPAddr    string // CHUNKD_HTTP_ADDR (default ":8084")
	NATSURL     string // CHUNKD_NATS_URL (optional, empty = no events, no invalidation)
	AuthToken   string // CHUNKD_AUTH_TOKEN (optional, empty = auth disabled)

	// Cache settings
	CachePath         string // CHUNKD_CACHE_PATH (optional, empty = in-memory cache)
	CacheEmptyResults bool   // CHUNKD_CACHE_EMPTY_RESULTS ("true" caches not-found as empty)

	// Snapshot sync settings
	SyncInterval time.Duration // CHUNKD_SYNC_INTERVAL (default 5m; 0 = disabled)
	SnapshotPath string        // CHUNKD_SNAPSHOT_PATH (enables file snapshots when set)
	S3Bucket     string        // CHUNKD_S3_BUCKET (enables S3 snapshots when set)
	S3Prefix     string        // CHUNKD_S3_PREFIX (default "chunkd/")
	S3Region     string        // CHUNKD_S3_REGION (default "us-east-1")
	S3Endpoint   string        // CHUNKD_S3_ENDPOINT (custom endpoint for MinIO)
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:       os.Getenv("CHUNKD_DATABASE_URL"),
		HTTPAddr:          envOrDefault("CHUNKD_HTTP_ADDR", ":8084"),
		NATSURL:           os.Getenv("CHUNKD_NATS_URL"),
		AuthToken:         os.Getenv("CHUNKD_AUTH_TOKEN"),
		CachePath:         os.Getenv("CHUNKD_CACHE_PATH"),
		CacheEmptyResults: os.Getenv("CHUNKD_CACHE_EMPTY_RESULTS") == "true",
		SnapshotPath:      os.Getenv("CHUNKD_SNAPSHOT_PATH"),
		S3Bucket:          os.Getenv("CHUNKD_S3_BUCKET"),
		S3Prefix:          envOrDefault("CHUNKD_S3_PREFIX", "chunkd/"),
		S3Region:          envOrDefault("CHUNKD_S3_REGION", "us-east-1"),
		S3Endpoint:        os.Getenv("CHUNKD_S3_ENDPOINT"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("CHUNKD_DATABASE_URL is required")
	}

	intervalStr := envOrDefault("CHUNKD_SYNC_INTERVAL", "5m")
	if intervalStr != "" {
		d, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("CHUNKD_SYNC_INTERVAL: %w", err)
		}
		c.SyncInterval = d
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
