package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// httpClient talks to a Supabase-style storage REST API:
// GET {base}/storage/v1/object/{bucket}/{path} with a service key.
type httpClient struct {
	baseURL    string
	serviceKey string
	client     *http.Client
}

// NewHTTPClient creates a storage client for the given API base URL and
// service key.
func NewHTTPClient(baseURL, serviceKey string) Client {
	return &httpClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		client:     &http.Client{Timeout: 2 * time.Minute},
	}
}

func (c *httpClient) Download(ctx context.Context, bucket, path string) (Object, error) {
	objectURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, url.PathEscape(bucket), escapePath(path))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, objectURL, nil)
	if err != nil {
		return Object{}, fmt.Errorf("failed to build storage request: %w", err)
	}
	if c.serviceKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Object{}, fmt.Errorf("failed to download %s/%s: %w", bucket, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Object{}, ErrObjectNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return Object{}, fmt.Errorf("storage returned status %d for %s/%s", resp.StatusCode, bucket, path)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Object{}, fmt.Errorf("failed to read object body: %w", err)
	}

	return Object{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        int64(len(data)),
	}, nil
}

// escapePath escapes each path segment while keeping separators intact.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
