package fetcher

import "fmt"

// TooLargeError indicates a download exceeded the configured size budget,
// either declared up front via Content-Length or observed while streaming.
type TooLargeError struct {
	URL   string
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("PDF too large: %d bytes (max %d bytes): %s", e.Size, e.Limit, e.URL)
}

// NotAPDFError indicates the response failed both the Content-Type check
// and the %PDF magic-byte check.
type NotAPDFError struct {
	URL         string
	ContentType string
}

func (e *NotAPDFError) Error() string {
	return fmt.Sprintf("URL does not appear to be a PDF (content type %q): %s", e.ContentType, e.URL)
}

// TooManyRedirectsError indicates the redirect hop cap was exceeded
type TooManyRedirectsError struct {
	URL string
	Max int
}

func (e *TooManyRedirectsError) Error() string {
	return fmt.Sprintf("too many redirects (max %d): %s", e.Max, e.URL)
}

// TransportError indicates a network or HTTP-level failure. StatusCode is
// zero when the failure happened below the HTTP layer.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP error %d fetching %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
