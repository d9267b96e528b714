// Package contentcache caches extracted document content (metadata, table
// of contents, per-page text) keyed by document identity, with lazy
// TTL-based expiry enforced at read time.
package contentcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mcptools/pdf-mcp/pdf"
)

// Record is the cached content of one document. Metadata/TOC and page
// text are populated independently: a record may hold metadata with no
// page text yet, or the other way around.
type Record struct {
	Identity  string            `json:"identity"`
	PageCount int               `json:"page_count"`
	Metadata  map[string]string `json:"metadata"`
	TOC       []pdf.TOCEntry    `json:"toc"`
	Pages     map[int]string    `json:"pages"`
	CreatedAt time.Time         `json:"created_at"`
}

// Stats describes the on-disk state of the content cache
type Stats struct {
	TotalFiles     int   `json:"total_files"`
	TotalPages     int   `json:"total_pages"`
	CacheSizeBytes int64 `json:"cache_size_bytes"`
}

// Cache stores one JSON record file per document identity
type Cache struct {
	dir    string
	ttl    time.Duration
	logger *logrus.Logger

	mu sync.Mutex
}

// NewCache creates the cache directory with owner-only permissions
func NewCache(dir string, ttl time.Duration, logger *logrus.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	return &Cache{
		dir:    dir,
		ttl:    ttl,
		logger: logger,
	}, nil
}

// Identity derives the cache key for a local document. The key binds the
// path to a change fingerprint (size and mtime) so an edited file never
// serves stale cached content: editing changes the identity, and the old
// record ages out via TTL.
func (c *Cache) Identity(docPath string) (string, error) {
	info, err := os.Stat(docPath)
	if err != nil {
		return "", fmt.Errorf("cannot stat document %s: %w", docPath, err)
	}

	key := fmt.Sprintf("%s|%d|%d", docPath, info.Size(), info.ModTime().UnixNano())
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:16], nil
}

func (c *Cache) recordPath(identity string) string {
	return filepath.Join(c.dir, identity+".json")
}

// load reads a record and enforces expiry; expired records are purged and
// reported as misses. Callers must hold c.mu.
func (c *Cache) load(identity string) (*Record, bool) {
	data, err := os.ReadFile(c.recordPath(identity))
	if err != nil {
		return nil, false
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		// Unreadable records are treated as misses and removed
		_ = os.Remove(c.recordPath(identity))
		return nil, false
	}

	if c.expired(&record) {
		_ = os.Remove(c.recordPath(identity))
		return nil, false
	}

	return &record, true
}

// store writes a record. Callers must hold c.mu.
func (c *Cache) store(record *Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache record: %w", err)
	}

	if err := os.WriteFile(c.recordPath(record.Identity), data, 0600); err != nil {
		return fmt.Errorf("failed to write cache record: %w", err)
	}

	return nil
}

func (c *Cache) expired(record *Record) bool {
	if c.ttl <= 0 {
		return false
	}
	return time.Since(record.CreatedAt) > c.ttl
}

func newRecord(identity string) *Record {
	return &Record{
		Identity:  identity,
		Metadata:  make(map[string]string),
		TOC:       []pdf.TOCEntry{},
		Pages:     make(map[int]string),
		CreatedAt: time.Now(),
	}
}

// SaveMetadata caches a document's page count, metadata and TOC
func (c *Cache) SaveMetadata(docPath string, pageCount int, metadata map[string]string, toc []pdf.TOCEntry) error {
	identity, err := c.Identity(docPath)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	record, ok := c.load(identity)
	if !ok {
		record = newRecord(identity)
	}

	record.PageCount = pageCount
	record.Metadata = metadata
	record.TOC = toc

	return c.store(record)
}

// GetMetadata returns the cached record for a document, or a miss when
// nothing is cached, the record expired, or no metadata was ever saved.
func (c *Cache) GetMetadata(docPath string) (*Record, bool) {
	identity, err := c.Identity(docPath)
	if err != nil {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	record, ok := c.load(identity)
	if !ok || record.Metadata == nil || record.PageCount == 0 {
		return nil, false
	}

	return record, true
}

// SavePageText caches the extracted text of one page
func (c *Cache) SavePageText(docPath string, pageIndex int, text string) error {
	identity, err := c.Identity(docPath)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	record, ok := c.load(identity)
	if !ok {
		record = newRecord(identity)
	}

	if record.Pages == nil {
		record.Pages = make(map[int]string)
	}
	record.Pages[pageIndex] = text

	return c.store(record)
}

// GetPageText returns the cached text of one page
func (c *Cache) GetPageText(docPath string, pageIndex int) (string, bool) {
	identity, err := c.Identity(docPath)
	if err != nil {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	record, ok := c.load(identity)
	if !ok {
		return "", false
	}

	text, ok := record.Pages[pageIndex]
	return text, ok
}

// GetPagesText returns the cached text for the requested page indices,
// containing only the pages that are present and unexpired. Partial hits
// are expected; the caller extracts the remainder.
func (c *Cache) GetPagesText(docPath string, pageIndices []int) map[int]string {
	result := make(map[int]string)

	identity, err := c.Identity(docPath)
	if err != nil {
		return result
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	record, ok := c.load(identity)
	if !ok {
		return result
	}

	for _, pageIndex := range pageIndices {
		if text, ok := record.Pages[pageIndex]; ok {
			result[pageIndex] = text
		}
	}

	return result
}

// Stats scans the cache directory, purging expired records as it goes
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stats Stats

	matches, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return stats
	}

	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}

		data, err := os.ReadFile(match)
		if err != nil {
			continue
		}

		var record Record
		if err := json.Unmarshal(data, &record); err != nil {
			continue
		}

		if c.expired(&record) {
			if err := os.Remove(match); err != nil {
				c.logger.WithError(err).WithField("file", match).Debug("Failed to remove expired record")
			}
			continue
		}

		stats.TotalFiles++
		stats.TotalPages += len(record.Pages)
		stats.CacheSizeBytes += info.Size()
	}

	return stats
}

// ClearAll removes every cached record and returns the number removed.
// Individual deletion failures are swallowed and not counted.
func (c *Cache) ClearAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	matches, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return count
	}

	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			c.logger.WithError(err).WithField("file", match).Debug("Failed to remove cache record")
			continue
		}
		count++
	}

	return count
}
