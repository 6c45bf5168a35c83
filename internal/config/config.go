package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the advisory BFF configuration.
type Config struct {
	// HTTP listen address for the session API.
	ListenAddr string

	// Upstream advisory service (prediction, costing, reports, meta).
	Upstream struct {
		BaseURL string
		// Timeout for ordinary JSON calls. Report downloads use
		// ReportTimeout because PDF generation can take longer.
		Timeout       time.Duration
		ReportTimeout time.Duration
	}

	// Session snapshot store. Addr empty means in-memory only.
	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	Session struct {
		// TTL for the assessment snapshot written before report
		// downloads.
		SnapshotTTL time.Duration
		// How long an untouched workflow session stays registered
		// before it is evicted.
		IdleTTL time.Duration
	}

	Location struct {
		// Upper bound for a device geolocation capture.
		CaptureTimeout time.Duration
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load builds the configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.ListenAddr = getEnv("LISTEN_ADDR", ":8085")

	cfg.Upstream.BaseURL = getEnv("UPSTREAM_BASE_URL", "http://127.0.0.1:5000")
	cfg.Upstream.Timeout = getDurationSeconds("UPSTREAM_TIMEOUT_SECONDS", 15)
	cfg.Upstream.ReportTimeout = getDurationSeconds("UPSTREAM_REPORT_TIMEOUT_SECONDS", 60)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.Session.SnapshotTTL = getDurationSeconds("SESSION_SNAPSHOT_TTL_SECONDS", 3600)
	cfg.Session.IdleTTL = getDurationSeconds("SESSION_IDLE_TTL_SECONDS", 3600)

	cfg.Location.CaptureTimeout = getDurationSeconds("LOCATION_CAPTURE_TIMEOUT_SECONDS", 10)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationSeconds(key string, defaultSeconds int) time.Duration {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return time.Duration(v) * time.Second
	}
	return time.Duration(defaultSeconds) * time.Second
}
