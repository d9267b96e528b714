// Package reader is the entry point of the content acquisition subsystem:
// it classifies a source string, resolves URLs to trusted local files
// through the guarded fetcher, and serves document content through the
// content cache, extracting only on misses.
package reader

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mcptools/pdf-mcp/config"
	"github.com/mcptools/pdf-mcp/contentcache"
	"github.com/mcptools/pdf-mcp/fetcher"
	"github.com/mcptools/pdf-mcp/pdf"
)

// ParsedDocument is an open handle produced by the parsing collaborator
type ParsedDocument interface {
	PageCount() int
	ExtractPageText(pageIndex int) (string, error)
	Metadata() (map[string]string, error)
	TOC() ([]pdf.TOCEntry, error)
	Close() error
}

// DocumentParser opens documents. The parsing engine stays an opaque
// collaborator behind this interface.
type DocumentParser interface {
	Open(path string) (ParsedDocument, error)
}

type pdfcpuParser struct{}

func (pdfcpuParser) Open(path string) (ParsedDocument, error) {
	return pdf.Open(path)
}

// DocumentInfo is the metadata view of a document
type DocumentInfo struct {
	Source    string            `json:"source"`
	Path      string            `json:"path"`
	PageCount int               `json:"page_count"`
	Metadata  map[string]string `json:"metadata"`
	TOC       []pdf.TOCEntry    `json:"toc"`
	CacheHit  bool              `json:"cache_hit"`
}

// CacheStats combines the stats of both caches
type CacheStats struct {
	Downloads fetcher.DownloadStats `json:"downloads"`
	Content   contentcache.Stats    `json:"content"`
}

// Reader resolves sources and serves cached document content
type Reader struct {
	fetcher *fetcher.Fetcher
	content *contentcache.Cache
	parser  DocumentParser
	logger  *logrus.Logger
}

// New creates a reader with both caches rooted under the configured
// directories.
func New(cfg *config.Config, logger *logrus.Logger) (*Reader, error) {
	f, err := fetcher.NewFetcher(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise download cache: %w", err)
	}

	content, err := contentcache.NewCache(cfg.ContentCacheDir, cfg.ContentTTL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise content cache: %w", err)
	}

	return &Reader{
		fetcher: f,
		content: content,
		parser:  pdfcpuParser{},
		logger:  logger,
	}, nil
}

// IsURL reports whether a source string is a remote URL rather than a
// local path. Classification is a pure prefix check.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Resolve turns a source string into a local file path, downloading
// remote URLs through the guarded fetcher.
func (r *Reader) Resolve(ctx context.Context, source string, forceRefresh bool) (string, error) {
	if IsURL(source) {
		return r.fetcher.Fetch(ctx, source, forceRefresh)
	}

	if _, err := os.Stat(source); err != nil {
		return "", fmt.Errorf("PDF file not found: %s", source)
	}
	return source, nil
}

// DocumentInfo returns a document's page count, metadata and TOC,
// serving from the content cache when possible.
func (r *Reader) DocumentInfo(ctx context.Context, source string, forceRefresh bool) (*DocumentInfo, error) {
	path, err := r.Resolve(ctx, source, forceRefresh)
	if err != nil {
		return nil, err
	}

	if record, ok := r.content.GetMetadata(path); ok {
		r.logger.WithField("path", path).Debug("Content cache hit for metadata")
		return &DocumentInfo{
			Source:    source,
			Path:      path,
			PageCount: record.PageCount,
			Metadata:  record.Metadata,
			TOC:       record.TOC,
			CacheHit:  true,
		}, nil
	}

	doc, err := r.parser.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = doc.Close()
	}()

	metadata, err := doc.Metadata()
	if err != nil {
		return nil, err
	}

	toc, err := doc.TOC()
	if err != nil {
		return nil, err
	}

	if err := r.content.SaveMetadata(path, doc.PageCount(), metadata, toc); err != nil {
		r.logger.WithError(err).WithField("path", path).Warn("Failed to cache document metadata")
	}

	return &DocumentInfo{
		Source:    source,
		Path:      path,
		PageCount: doc.PageCount(),
		Metadata:  metadata,
		TOC:       toc,
	}, nil
}

// PageText returns the extracted text of one zero-based page
func (r *Reader) PageText(ctx context.Context, source string, pageIndex int) (string, error) {
	path, err := r.Resolve(ctx, source, false)
	if err != nil {
		return "", err
	}

	if text, ok := r.content.GetPageText(path, pageIndex); ok {
		r.logger.WithFields(logrus.Fields{
			"path": path,
			"page": pageIndex,
		}).Debug("Content cache hit for page text")
		return text, nil
	}

	doc, err := r.parser.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = doc.Close()
	}()

	text, err := doc.ExtractPageText(pageIndex)
	if err != nil {
		return "", err
	}

	if err := r.content.SavePageText(path, pageIndex, text); err != nil {
		r.logger.WithError(err).WithField("path", path).Warn("Failed to cache page text")
	}

	return text, nil
}

// PagesText returns the text of a 1-based page selection like "1-3,5"
// (empty or "all" selects every page), mixing content cache hits with
// fresh extraction for the misses.
func (r *Reader) PagesText(ctx context.Context, source string, pages string) (map[int]string, error) {
	path, err := r.Resolve(ctx, source, false)
	if err != nil {
		return nil, err
	}

	var doc ParsedDocument
	defer func() {
		if doc != nil {
			_ = doc.Close()
		}
	}()

	// Page count comes from the cached metadata when available so fully
	// cached reads never open the document
	pageCount := 0
	if record, ok := r.content.GetMetadata(path); ok {
		pageCount = record.PageCount
	} else {
		if doc, err = r.parser.Open(path); err != nil {
			return nil, err
		}
		pageCount = doc.PageCount()
	}

	indices, err := pdf.ParsePageRange(pages, pageCount)
	if err != nil {
		return nil, err
	}

	result := r.content.GetPagesText(path, indices)

	for _, pageIndex := range indices {
		if _, ok := result[pageIndex]; ok {
			continue
		}

		if doc == nil {
			if doc, err = r.parser.Open(path); err != nil {
				return nil, err
			}
		}

		text, err := doc.ExtractPageText(pageIndex)
		if err != nil {
			return nil, err
		}

		if err := r.content.SavePageText(path, pageIndex, text); err != nil {
			r.logger.WithError(err).WithField("path", path).Warn("Failed to cache page text")
		}
		result[pageIndex] = text
	}

	return result, nil
}

// Stats reports the state of both caches
func (r *Reader) Stats() CacheStats {
	return CacheStats{
		Downloads: r.fetcher.Cache().Stats(),
		Content:   r.content.Stats(),
	}
}

// ClearCaches empties both caches and returns the number of files
// removed from each.
func (r *Reader) ClearCaches() (downloads int, content int) {
	return r.fetcher.Cache().Clear(), r.content.ClearAll()
}
