// Package resolver turns opaque item IDs into display metadata.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const userAgent = "Cadence/0.1 (https://github.com/nlaurent/cadence)"

// Metadata is the display information for one item.
type Metadata struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// Resolver resolves an item ID into display metadata.
// Implementations must honor ctx cancellation and deadlines; callers bound
// each lookup with a timeout.
type Resolver interface {
	Resolve(ctx context.Context, itemID string) (Metadata, error)
}

// HTTPResolver resolves metadata from an oEmbed-style JSON endpoint:
// GET {endpoint}?id={itemID}&format=json.
type HTTPResolver struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTP creates a resolver against the given endpoint URL.
func NewHTTP(endpoint string) *HTTPResolver {
	return &HTTPResolver{
		endpoint: endpoint,
		// The overall client timeout is a backstop; per-lookup timeouts
		// come from the caller's context.
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Resolve fetches metadata for itemID.
func (r *HTTPResolver) Resolve(ctx context.Context, itemID string) (Metadata, error) {
	params := url.Values{}
	params.Set("id", itemID)
	params.Set("format", "json")
	reqURL := fmt.Sprintf("%s?%s", r.endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return Metadata{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Metadata{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Metadata{}, fmt.Errorf("API status %d: %s", resp.StatusCode, string(body))
	}

	var meta Metadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return Metadata{}, fmt.Errorf("decode response: %w", err)
	}
	return meta, nil
}

// Verify HTTPResolver implements Resolver at compile time.
var _ Resolver = (*HTTPResolver)(nil)
