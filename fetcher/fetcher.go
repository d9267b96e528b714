// Package fetcher downloads remote PDFs with SSRF validation on every
// redirect hop, a streamed byte budget, and a content-addressed download
// cache.
package fetcher

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/mcptools/pdf-mcp/config"
	"github.com/mcptools/pdf-mcp/security"
)

const (
	// UserAgent for outbound requests
	UserAgent = "pdf-mcp/1.0 (PDF fetcher)"

	// chunkSize for streamed body reads
	chunkSize = 8 * 1024

	// Outbound request pacing: request starts per second and burst
	requestsPerSecond = 10
	requestBurst      = 10
)

// Fetcher resolves a remote URL to a trusted local file
type Fetcher struct {
	cfg       *config.Config
	cache     *DownloadCache
	client    *http.Client
	validator security.URLValidator
	limiter   *rate.Limiter
	group     singleflight.Group
	logger    *logrus.Logger
}

// NewFetcher creates a fetcher backed by a download cache under
// cfg.DownloadDir. Transport-level redirect following is disabled: hops
// are walked manually so each target can be validated before connecting.
func NewFetcher(cfg *config.Config, logger *logrus.Logger) (*Fetcher, error) {
	cache, err := NewDownloadCache(cfg.DownloadDir, logger)
	if err != nil {
		return nil, err
	}

	return &Fetcher{
		cfg:   cfg,
		cache: cache,
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		validator: security.NewGuard(),
		limiter:   rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
		logger:    logger,
	}, nil
}

// Cache returns the underlying download cache
func (f *Fetcher) Cache() *DownloadCache {
	return f.cache
}

// Fetch downloads a PDF from a URL and returns the local path. Cached
// downloads are returned without a network transfer unless forceRefresh
// is set. Concurrent fetches of the same URL are collapsed into one
// download.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, forceRefresh bool) (string, error) {
	if err := f.validator.Validate(rawURL); err != nil {
		return "", err
	}

	if !forceRefresh {
		if path, ok := f.cache.Lookup(rawURL); ok {
			f.logger.WithFields(logrus.Fields{
				"url":  rawURL,
				"path": path,
			}).Debug("Download cache hit")
			return path, nil
		}
	}

	if forceRefresh {
		// A forced refresh must always perform its own transfer
		return f.download(ctx, rawURL)
	}

	path, err, _ := f.group.Do(rawURL, func() (any, error) {
		return f.download(ctx, rawURL)
	})
	if err != nil {
		return "", err
	}
	return path.(string), nil
}

// download walks the redirect chain one hop at a time, validating every
// candidate target before connecting, then streams and verifies the body.
func (f *Fetcher) download(ctx context.Context, rawURL string) (string, error) {
	currentURL := rawURL

	for hop := 0; hop < f.cfg.MaxRedirects; hop++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", &TransportError{URL: currentURL, Err: err}
		}

		resp, err := f.get(ctx, currentURL)
		if err != nil {
			return "", &TransportError{URL: currentURL, Err: err}
		}

		if isRedirect(resp.StatusCode) {
			next, err := resp.Location()
			closeBody(resp, f.logger)
			if err != nil {
				return "", &TransportError{URL: currentURL, StatusCode: resp.StatusCode, Err: err}
			}

			nextURL := next.String()
			// Re-validate before following: the first hop passing tells us
			// nothing about where an attacker's server redirects to
			if err := f.validator.Validate(nextURL); err != nil {
				return "", err
			}

			f.logger.WithFields(logrus.Fields{
				"from": currentURL,
				"to":   nextURL,
				"hop":  hop + 1,
			}).Debug("Following redirect")
			currentURL = nextURL
			continue
		}

		body, contentType, err := f.readBody(resp, currentURL)
		if err != nil {
			return "", err
		}

		if !strings.Contains(strings.ToLower(contentType), "pdf") && !bytes.HasPrefix(body, []byte("%PDF")) {
			return "", &NotAPDFError{URL: rawURL, ContentType: contentType}
		}

		path, err := f.cache.Store(rawURL, body)
		if err != nil {
			return "", err
		}

		f.logger.WithFields(logrus.Fields{
			"url":   rawURL,
			"path":  path,
			"bytes": len(body),
		}).Debug("Downloaded PDF")
		return path, nil
	}

	return "", &TooManyRedirectsError{URL: rawURL, Max: f.cfg.MaxRedirects}
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/pdf,*/*;q=0.8")

	return f.client.Do(req)
}

// readBody enforces the byte budget twice: up front from Content-Length
// when present, and again while streaming, because the header can be
// absent or wrong. The response body is always closed.
func (f *Fetcher) readBody(resp *http.Response, currentURL string) ([]byte, string, error) {
	defer closeBody(resp, f.logger)

	if resp.StatusCode >= 400 {
		return nil, "", &TransportError{URL: currentURL, StatusCode: resp.StatusCode}
	}

	if header := resp.Header.Get("Content-Length"); header != "" {
		if declared, err := strconv.ParseInt(header, 10, 64); err == nil && declared > f.cfg.MaxDownloadSize {
			return nil, "", &TooLargeError{URL: currentURL, Size: declared, Limit: f.cfg.MaxDownloadSize}
		}
	}

	var buf bytes.Buffer
	chunk := make([]byte, chunkSize)
	var total int64

	for {
		n, err := resp.Body.Read(chunk)
		if n > 0 {
			total += int64(n)
			if total > f.cfg.MaxDownloadSize {
				return nil, "", &TooLargeError{URL: currentURL, Size: total, Limit: f.cfg.MaxDownloadSize}
			}
			buf.Write(chunk[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, "", &TransportError{URL: currentURL, Err: err}
		}
	}

	return buf.Bytes(), resp.Header.Get("Content-Type"), nil
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func closeBody(resp *http.Response, logger *logrus.Logger) {
	if closeErr := resp.Body.Close(); closeErr != nil {
		logger.WithError(closeErr).Warn("Failed to close response body")
	}
}
