// Package pdf adapts pdfcpu as the document parsing collaborator: it opens
// a document handle and extracts per-page text, the metadata dictionary and
// the table of contents.
package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// TOCEntry is one entry of a document's table of contents
type TOCEntry struct {
	Level int    `json:"level"`
	Title string `json:"title"`
	Page  int    `json:"page"`
}

// Document is an open document handle
type Document struct {
	path      string
	pageCount int
	conf      *model.Configuration
}

// Open validates that the file exists and is a readable PDF and returns a
// document handle.
func Open(path string) (*Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cannot open PDF %s: %w", path, err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF %s: %w", path, err)
	}

	return &Document{
		path:      path,
		pageCount: pageCount,
		conf:      conf,
	}, nil
}

// Path returns the document's file path
func (d *Document) Path() string {
	return d.path
}

// PageCount returns the number of pages
func (d *Document) PageCount() int {
	return d.pageCount
}

// Close releases the handle. The file-based pdfcpu API holds no open
// resources between calls, so this only exists to satisfy the handle
// contract.
func (d *Document) Close() error {
	return nil
}

// ExtractPageText extracts the text of a single zero-based page index
func (d *Document) ExtractPageText(pageIndex int) (string, error) {
	if pageIndex < 0 || pageIndex >= d.pageCount {
		return "", fmt.Errorf("page index %d out of range (document has %d pages)", pageIndex, d.pageCount)
	}
	pageNum := pageIndex + 1

	tempDir, err := os.MkdirTemp("", "pdfmcp_text_*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(tempDir)
	}()

	if err := api.ExtractContentFile(d.path, tempDir, []string{strconv.Itoa(pageNum)}, d.conf); err != nil {
		return "", fmt.Errorf("failed to extract content for page %d: %w", pageNum, err)
	}

	baseName := strings.TrimSuffix(filepath.Base(d.path), ".pdf")
	contentFile := filepath.Join(tempDir, fmt.Sprintf("%s_Content_page_%d.txt", baseName, pageNum))

	raw, err := os.ReadFile(contentFile)
	if err != nil {
		return "", fmt.Errorf("failed to read extracted content for page %d: %w", pageNum, err)
	}

	return pageTextFromContent(string(raw)), nil
}

// Metadata returns the document information dictionary as a flat
// string-to-string mapping.
func (d *Document) Metadata() (map[string]string, error) {
	f, err := os.Open(d.path)
	if err != nil {
		return nil, fmt.Errorf("cannot open PDF %s: %w", d.path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	info, err := api.PDFInfo(f, d.path, nil, false, d.conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF info: %w", err)
	}

	return map[string]string{
		"title":             info.Title,
		"author":            info.Author,
		"subject":           info.Subject,
		"creator":           info.Creator,
		"producer":          info.Producer,
		"creation_date":     info.CreationDate,
		"modification_date": info.ModificationDate,
	}, nil
}

// TOC returns the document outline flattened into ordered entries with
// nesting levels starting at 1. Documents without an outline tree are
// common; they yield an empty list.
func (d *Document) TOC() ([]TOCEntry, error) {
	f, err := os.Open(d.path)
	if err != nil {
		return nil, fmt.Errorf("cannot open PDF %s: %w", d.path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	bookmarks, err := api.Bookmarks(f, d.conf)
	if err != nil {
		return []TOCEntry{}, nil
	}

	return flattenBookmarks(bookmarks, 1), nil
}

func flattenBookmarks(bookmarks []pdfcpu.Bookmark, level int) []TOCEntry {
	entries := make([]TOCEntry, 0, len(bookmarks))
	for _, bm := range bookmarks {
		entries = append(entries, TOCEntry{
			Level: level,
			Title: bm.Title,
			Page:  bm.PageFrom,
		})
		if len(bm.Kids) > 0 {
			entries = append(entries, flattenBookmarks(bm.Kids, level+1)...)
		}
	}
	return entries
}
