package fetcher

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultMaxBytes caps how much of a remote document is kept in memory.
const DefaultMaxBytes = 256 << 20

type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: 60 * time.Second},
		maxBytes: DefaultMaxBytes,
	}
}

// IsURL reports whether source should be fetched rather than opened.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// GetBytes downloads url. The second return value is the response
// Content-Type.
func (f *Fetcher) GetBytes(url string) ([]byte, string, error) {
	resp, err := f.client.Get(url)
	if err != nil {
		return nil, "", fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to fetch %s, status code: %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, "", fmt.Errorf("response from %s exceeds %d bytes", url, f.maxBytes)
	}
	return body, resp.Header.Get("Content-Type"), nil
}
