package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Timeout != 60*time.Second {
		t.Errorf("Timeout = %v, want 60s", cfg.Timeout)
	}
	if cfg.MaxDownloadSize != 100*1024*1024 {
		t.Errorf("MaxDownloadSize = %d, want 100 MiB", cfg.MaxDownloadSize)
	}
	if cfg.MaxRedirects != 10 {
		t.Errorf("MaxRedirects = %d, want 10", cfg.MaxRedirects)
	}
	if cfg.ContentTTL != 24*time.Hour {
		t.Errorf("ContentTTL = %v, want 24h", cfg.ContentTTL)
	}
	if cfg.DownloadDir == "" || cfg.ContentCacheDir == "" {
		t.Error("cache directories must default to a temp subdirectory")
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("PDF_MCP_DOWNLOAD_DIR", "/tmp/dl")
	t.Setenv("PDF_MCP_CONTENT_CACHE_DIR", "/tmp/cc")
	t.Setenv("PDF_MCP_HTTP_TIMEOUT", "30")
	t.Setenv("PDF_MCP_MAX_DOWNLOAD_SIZE", "1048576")
	t.Setenv("PDF_MCP_MAX_REDIRECTS", "5")
	t.Setenv("PDF_MCP_CONTENT_TTL_HOURS", "6")

	cfg := LoadConfig()

	if cfg.DownloadDir != "/tmp/dl" {
		t.Errorf("DownloadDir = %q", cfg.DownloadDir)
	}
	if cfg.ContentCacheDir != "/tmp/cc" {
		t.Errorf("ContentCacheDir = %q", cfg.ContentCacheDir)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.MaxDownloadSize != 1048576 {
		t.Errorf("MaxDownloadSize = %d, want 1048576", cfg.MaxDownloadSize)
	}
	if cfg.MaxRedirects != 5 {
		t.Errorf("MaxRedirects = %d, want 5", cfg.MaxRedirects)
	}
	if cfg.ContentTTL != 6*time.Hour {
		t.Errorf("ContentTTL = %v, want 6h", cfg.ContentTTL)
	}
}

func TestLoadConfigIgnoresInvalidValues(t *testing.T) {
	t.Setenv("PDF_MCP_HTTP_TIMEOUT", "not-a-number")
	t.Setenv("PDF_MCP_MAX_DOWNLOAD_SIZE", "-5")
	t.Setenv("PDF_MCP_MAX_REDIRECTS", "0")

	cfg := LoadConfig()

	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want default", cfg.Timeout)
	}
	if cfg.MaxDownloadSize != DefaultMaxDownloadSize {
		t.Errorf("MaxDownloadSize = %d, want default", cfg.MaxDownloadSize)
	}
	if cfg.MaxRedirects != DefaultMaxRedirects {
		t.Errorf("MaxRedirects = %d, want default", cfg.MaxRedirects)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  logrus.Level
	}{
		{"", logrus.WarnLevel},
		{"debug", logrus.DebugLevel},
		{"INFO", logrus.InfoLevel},
		{"warning", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"garbage", logrus.WarnLevel},
	}

	for _, tt := range tests {
		t.Setenv("LOG_LEVEL", tt.value)
		if got := parseLogLevel(); got != tt.want {
			t.Errorf("parseLogLevel() with LOG_LEVEL=%q = %v, want %v", tt.value, got, tt.want)
		}
	}
}
