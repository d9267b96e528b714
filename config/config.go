// Package config holds the configuration surface for the pdf-mcp content
// acquisition subsystem. All values come from environment variables layered
// over defaults; a .env file in the working directory is honoured if present.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultMaxDownloadSize caps remote PDF downloads (100 MiB)
	DefaultMaxDownloadSize = int64(100 * 1024 * 1024)

	// DefaultMaxRedirects caps manual redirect hops during a fetch
	DefaultMaxRedirects = 10

	// DefaultTimeout for a whole HTTP fetch
	DefaultTimeout = 60 * time.Second

	// DefaultContentTTL is how long extracted document content stays valid
	DefaultContentTTL = 24 * time.Hour
)

// Config holds the configuration for the download and content caches
type Config struct {
	// DownloadDir is where fetched PDFs are stored
	DownloadDir string

	// ContentCacheDir is where extracted document content is stored
	ContentCacheDir string

	// Timeout for HTTP fetches
	Timeout time.Duration

	// MaxDownloadSize in bytes; downloads exceeding it are aborted
	MaxDownloadSize int64

	// MaxRedirects is the manual redirect hop cap
	MaxRedirects int

	// ContentTTL is the time-to-live for cached document content
	ContentTTL time.Duration
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	base := filepath.Join(os.TempDir(), "pdf-mcp")

	return &Config{
		DownloadDir:     filepath.Join(base, "downloads"),
		ContentCacheDir: filepath.Join(base, "content"),
		Timeout:         DefaultTimeout,
		MaxDownloadSize: DefaultMaxDownloadSize,
		MaxRedirects:    DefaultMaxRedirects,
		ContentTTL:      DefaultContentTTL,
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	// Best-effort: absent .env files are not an error
	_ = godotenv.Load()

	config := DefaultConfig()

	if dir := os.Getenv("PDF_MCP_DOWNLOAD_DIR"); dir != "" {
		config.DownloadDir = dir
	}

	if dir := os.Getenv("PDF_MCP_CONTENT_CACHE_DIR"); dir != "" {
		config.ContentCacheDir = dir
	}

	if timeout := os.Getenv("PDF_MCP_HTTP_TIMEOUT"); timeout != "" {
		if secs, err := strconv.Atoi(timeout); err == nil && secs > 0 {
			config.Timeout = time.Duration(secs) * time.Second
		}
	}

	if maxSize := os.Getenv("PDF_MCP_MAX_DOWNLOAD_SIZE"); maxSize != "" {
		if size, err := strconv.ParseInt(maxSize, 10, 64); err == nil && size > 0 {
			config.MaxDownloadSize = size
		}
	}

	if redirects := os.Getenv("PDF_MCP_MAX_REDIRECTS"); redirects != "" {
		if hops, err := strconv.Atoi(redirects); err == nil && hops > 0 {
			config.MaxRedirects = hops
		}
	}

	if ttl := os.Getenv("PDF_MCP_CONTENT_TTL_HOURS"); ttl != "" {
		if hours, err := strconv.Atoi(ttl); err == nil && hours > 0 {
			config.ContentTTL = time.Duration(hours) * time.Hour
		}
	}

	return config
}

// parseLogLevel parses the LOG_LEVEL environment variable and returns the
// appropriate logrus level. Defaults to WarnLevel if not set or invalid.
func parseLogLevel() logrus.Level {
	logLevelStr := os.Getenv("LOG_LEVEL")
	if logLevelStr == "" {
		return logrus.WarnLevel
	}

	switch strings.ToLower(strings.TrimSpace(logLevelStr)) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.WarnLevel
	}
}

// NewLogger creates a logger honouring the LOG_LEVEL environment variable
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(parseLogLevel())
	logger.SetOutput(os.Stderr)
	return logger
}
