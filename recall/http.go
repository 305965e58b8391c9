package recall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL is the production Recall API endpoint.
const DefaultBaseURL = "https://api.recall.dev"

// apiBackend talks to the remote Recall REST API. All protocol details
// beyond the envelope shapes belong to the service, not to this client.
type apiBackend struct {
	apiKey     string
	projectID  string
	baseURL    string
	httpClient *http.Client
}

func newAPIBackend(apiKey, projectID, baseURL string) *apiBackend {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &apiBackend{
		apiKey:    apiKey,
		projectID: projectID,
		baseURL:   baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (b *apiBackend) Store(ctx context.Context, req StoreRequest) (*StoreResponse, error) {
	var resp StoreResponse
	if err := b.do(ctx, http.MethodPost, "/v1/memories", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (b *apiBackend) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	var resp SearchResponse
	if err := b.do(ctx, http.MethodPost, "/v1/memories/search", req, &resp); err != nil {
		return nil, err
	}
	// The service MAY omit the results field entirely when nothing matches.
	if resp.Results == nil {
		resp.Results = []Record{}
	}
	return &resp, nil
}

func (b *apiBackend) List(ctx context.Context, req ListRequest) (*ListResponse, error) {
	q := url.Values{}
	q.Set("user_id", req.UserID)
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}

	var resp ListResponse
	if err := b.do(ctx, http.MethodGet, "/v1/memories?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Memories == nil {
		resp.Memories = []Record{}
	}
	return &resp, nil
}

func (b *apiBackend) Delete(ctx context.Context, userID, memoryID string) (*DeleteResponse, error) {
	q := url.Values{}
	q.Set("user_id", userID)

	var resp DeleteResponse
	path := "/v1/memories/" + url.PathEscape(memoryID) + "?" + q.Encode()
	if err := b.do(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (b *apiBackend) DeleteAll(ctx context.Context, userID string) (*DeleteResponse, error) {
	q := url.Values{}
	q.Set("user_id", userID)

	var resp DeleteResponse
	if err := b.do(ctx, http.MethodDelete, "/v1/memories?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (b *apiBackend) Close() error {
	b.httpClient.CloseIdleConnections()
	return nil
}

// do performs one request/response round trip. Errors from the transport or
// the service propagate unchanged to the caller; there are no retries.
func (b *apiBackend) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("X-Project-ID", b.projectID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("recall api: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// APIError is a non-2xx response from the remote service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("recall api: status %d: %s", e.StatusCode, truncate(e.Body, 200))
}
