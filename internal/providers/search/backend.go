package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sandevgo/filepilot/internal/core"
	"github.com/sandevgo/filepilot/pkg/retry"
)

// HTTPBackend talks to the external file-indexing service. Transient
// failures are retried with backoff; the provider adapters never retry,
// but the backend is local infrastructure and restarts are common.
type HTTPBackend struct {
	client  *http.Client
	baseURL string
	retrier *retry.Retrier
}

func NewHTTPBackend(baseURL string) *HTTPBackend {
	return &HTTPBackend{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
		retrier: retry.NewDefaultRetrier(),
	}
}

type backendRequest struct {
	Query   string             `json:"query"`
	Options core.SearchOptions `json:"options"`
}

func (b *HTTPBackend) AIFileSearch(ctx context.Context, query string, opts core.SearchOptions) (core.BackendResponse, error) {
	return b.post(ctx, "/api/search/files", query, opts)
}

func (b *HTTPBackend) SearchContent(ctx context.Context, query string, opts core.SearchOptions) (core.BackendResponse, error) {
	return b.post(ctx, "/api/search/content", query, opts)
}

func (b *HTTPBackend) post(ctx context.Context, path, query string, opts core.SearchOptions) (core.BackendResponse, error) {
	body, err := json.Marshal(backendRequest{Query: query, Options: opts})
	if err != nil {
		return core.BackendResponse{}, fmt.Errorf("marshal: %w", err)
	}

	var result core.BackendResponse
	err = b.retrier.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := b.client.Do(req)
		if err != nil {
			return fmt.Errorf("request: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("search backend http %d: %s", resp.StatusCode, string(data))
		}

		result = core.BackendResponse{}
		if err := json.Unmarshal(data, &result); err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.BackendResponse{}, err
	}
	return result, nil
}
