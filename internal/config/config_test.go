package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_DefaultValues(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.ListenAddr != ":8085" {
		t.Errorf("Expected LISTEN_ADDR default ':8085', got '%s'", cfg.ListenAddr)
	}

	if cfg.Upstream.BaseURL != "http://127.0.0.1:5000" {
		t.Errorf("Expected UPSTREAM_BASE_URL default 'http://127.0.0.1:5000', got '%s'", cfg.Upstream.BaseURL)
	}

	if cfg.Upstream.Timeout != 15*time.Second {
		t.Errorf("Expected upstream timeout default 15s, got %v", cfg.Upstream.Timeout)
	}

	if cfg.Upstream.ReportTimeout != 60*time.Second {
		t.Errorf("Expected report timeout default 60s, got %v", cfg.Upstream.ReportTimeout)
	}

	if cfg.Redis.Addr != "" {
		t.Errorf("Expected REDIS_ADDR default empty, got '%s'", cfg.Redis.Addr)
	}

	if cfg.Location.CaptureTimeout != 10*time.Second {
		t.Errorf("Expected capture timeout default 10s, got %v", cfg.Location.CaptureTimeout)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Expected LOG_LEVEL default 'info', got '%s'", cfg.Log.Level)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	os.Setenv("LISTEN_ADDR", ":9090")
	os.Setenv("UPSTREAM_BASE_URL", "http://advisor.test")
	os.Setenv("UPSTREAM_TIMEOUT_SECONDS", "5")
	os.Setenv("REDIS_ADDR", "redis.test:6379")
	os.Setenv("LOG_LEVEL", "debug")

	defer func() {
		os.Unsetenv("LISTEN_ADDR")
		os.Unsetenv("UPSTREAM_BASE_URL")
		os.Unsetenv("UPSTREAM_TIMEOUT_SECONDS")
		os.Unsetenv("REDIS_ADDR")
		os.Unsetenv("LOG_LEVEL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.ListenAddr != ":9090" {
		t.Errorf("Expected LISTEN_ADDR ':9090', got '%s'", cfg.ListenAddr)
	}

	if cfg.Upstream.BaseURL != "http://advisor.test" {
		t.Errorf("Expected UPSTREAM_BASE_URL 'http://advisor.test', got '%s'", cfg.Upstream.BaseURL)
	}

	if cfg.Upstream.Timeout != 5*time.Second {
		t.Errorf("Expected upstream timeout 5s, got %v", cfg.Upstream.Timeout)
	}

	if cfg.Redis.Addr != "redis.test:6379" {
		t.Errorf("Expected REDIS_ADDR 'redis.test:6379', got '%s'", cfg.Redis.Addr)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Expected LOG_LEVEL 'debug', got '%s'", cfg.Log.Level)
	}
}

func TestGetEnv(t *testing.T) {
	os.Setenv("TEST_VAR", "test-value")
	defer os.Unsetenv("TEST_VAR")

	value := getEnv("TEST_VAR", "default")
	if value != "test-value" {
		t.Errorf("Expected 'test-value', got '%s'", value)
	}

	value = getEnv("NON_EXISTENT_VAR", "default-value")
	if value != "default-value" {
		t.Errorf("Expected 'default-value', got '%s'", value)
	}
}
