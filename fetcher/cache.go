package fetcher

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
)

// DownloadCache maps source URLs to previously downloaded files. Lookups
// check an in-memory index first and fall back to a deterministic-filename
// probe on disk, backfilling the index on a hit, so the cache survives
// process restarts without a persistent index format.
type DownloadCache struct {
	dir    string
	logger *logrus.Logger

	mu    sync.Mutex
	index map[string]string

	// Cross-process lock guarding writes and clears of the cache directory
	fileLock *flock.Flock
}

// DownloadStats describes the on-disk state of the download cache
type DownloadStats struct {
	FileCount  int    `json:"cached_files"`
	TotalBytes int64  `json:"total_size_bytes"`
	Directory  string `json:"cache_dir"`
}

// NewDownloadCache creates the cache directory with owner-only permissions
func NewDownloadCache(dir string, logger *logrus.Logger) (*DownloadCache, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	// MkdirAll leaves pre-existing directories untouched
	if err := os.Chmod(dir, 0700); err != nil {
		return nil, err
	}

	return &DownloadCache{
		dir:      dir,
		logger:   logger,
		index:    make(map[string]string),
		fileLock: flock.New(filepath.Join(dir, ".lock")),
	}, nil
}

// Dir returns the cache directory
func (c *DownloadCache) Dir() string {
	return c.dir
}

// Filename derives the deterministic cache filename for a URL: 16 hex
// characters of the URL's SHA-256, suffixed with the sanitised original
// basename when the URL path ends in .pdf, otherwise with ".pdf".
func (c *DownloadCache) Filename(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	urlHash := hex.EncodeToString(sum[:])[:16]

	if parsed, err := url.Parse(rawURL); err == nil && strings.HasSuffix(parsed.Path, ".pdf") {
		safeName := sanitizeBasename(path.Base(parsed.Path))
		if safeName != "" {
			return urlHash + "_" + safeName
		}
	}

	return urlHash + ".pdf"
}

// sanitizeBasename keeps only alphanumerics, '.', '_' and '-'
func sanitizeBasename(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == '.' || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Lookup returns the local path for a URL if it is already downloaded.
// Stale index entries whose backing file has been removed are treated as
// misses, not errors.
func (c *DownloadCache) Lookup(rawURL string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.index[rawURL]; ok {
		if _, err := os.Stat(cached); err == nil {
			return cached, true
		}
		delete(c.index, rawURL)
	}

	// Disk probe: a previous process may have populated the cache
	probe := filepath.Join(c.dir, c.Filename(rawURL))
	if _, err := os.Stat(probe); err == nil {
		c.index[rawURL] = probe
		return probe, true
	}

	return "", false
}

// Store persists a fully validated download and registers it in the index.
// The body is written in one pass with owner-only permissions; no partial
// file is ever registered.
func (c *DownloadCache) Store(rawURL string, data []byte) (string, error) {
	localPath := filepath.Join(c.dir, c.Filename(rawURL))

	if err := c.fileLock.Lock(); err != nil {
		return "", err
	}
	defer func() {
		if unlockErr := c.fileLock.Unlock(); unlockErr != nil {
			c.logger.WithError(unlockErr).Warn("Failed to release download cache lock")
		}
	}()

	if err := os.WriteFile(localPath, data, 0600); err != nil {
		return "", err
	}

	c.mu.Lock()
	c.index[rawURL] = localPath
	c.mu.Unlock()

	return localPath, nil
}

// Clear deletes every cached download and resets the in-memory index.
// Individual deletion failures are swallowed and simply not counted.
func (c *DownloadCache) Clear() int {
	if err := c.fileLock.Lock(); err != nil {
		c.logger.WithError(err).Warn("Failed to acquire download cache lock for clear")
	} else {
		defer func() {
			if unlockErr := c.fileLock.Unlock(); unlockErr != nil {
				c.logger.WithError(unlockErr).Warn("Failed to release download cache lock")
			}
		}()
	}

	count := 0
	matches, err := filepath.Glob(filepath.Join(c.dir, "*.pdf"))
	if err == nil {
		for _, match := range matches {
			if err := os.Remove(match); err != nil {
				c.logger.WithError(err).WithField("file", match).Debug("Failed to remove cached download")
				continue
			}
			count++
		}
	}

	c.mu.Lock()
	c.index = make(map[string]string)
	c.mu.Unlock()

	return count
}

// Stats scans the cache directory so the numbers reflect reality even
// after external modification.
func (c *DownloadCache) Stats() DownloadStats {
	stats := DownloadStats{Directory: c.dir}

	matches, err := filepath.Glob(filepath.Join(c.dir, "*.pdf"))
	if err != nil {
		return stats
	}

	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		stats.FileCount++
		stats.TotalBytes += info.Size()
	}

	return stats
}
