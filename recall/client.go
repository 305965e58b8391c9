package recall

import (
	"context"
	"fmt"
	"log"
	"os"
)

// DefaultLimit is the search result limit used when a request does not set
// one. Top 3-5 records are usually sufficient for prompt context.
const DefaultLimit = 5

// Config configures a Client.
type Config struct {
	// APIKey authenticates against the remote service.
	// Defaults to the RECALL_API_KEY environment variable.
	APIKey string

	// ProjectID selects the logical partition.
	// Defaults to RECALL_PROJECT_ID, then "default".
	ProjectID string

	// BaseURL overrides the remote API endpoint.
	BaseURL string

	// Backend overrides the transport. When nil the remote HTTP backend is
	// used. Pass a localdb.Store to run fully embedded.
	Backend Backend
}

// Client is the façade over a memory Backend. It applies validation and
// defaults; all service semantics (ranking, persistence, consistency) live
// behind the Backend.
type Client struct {
	backend   Backend
	projectID string
}

// New creates a Client. Without an explicit Backend it targets the remote
// HTTP API using Config.APIKey.
func New(cfg Config) (*Client, error) {
	if cfg.ProjectID == "" {
		cfg.ProjectID = os.Getenv("RECALL_PROJECT_ID")
	}
	if cfg.ProjectID == "" {
		cfg.ProjectID = "default"
	}

	backend := cfg.Backend
	if backend == nil {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("RECALL_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("recall: missing API key (set RECALL_API_KEY or Config.APIKey)")
		}
		backend = newAPIBackend(apiKey, cfg.ProjectID, cfg.BaseURL)
	}

	return &Client{backend: backend, projectID: cfg.ProjectID}, nil
}

// ProjectID returns the logical partition this client writes to.
func (c *Client) ProjectID() string {
	return c.projectID
}

// Store creates a new record for req.UserID.
func (c *Client) Store(ctx context.Context, req StoreRequest) (*StoreResponse, error) {
	if req.Content == "" {
		return nil, ErrEmptyContent
	}
	if req.UserID == "" {
		return nil, ErrEmptyUserID
	}

	resp, err := c.backend.Store(ctx, req)
	if err != nil {
		return nil, err
	}
	log.Printf("[RECALL] Stored memory id=%s user=%s backend=%s", resp.ID, req.UserID, resp.Backend)
	return resp, nil
}

// Search retrieves records relevant to req.Query for req.UserID. An empty
// result sequence is a normal outcome, particularly before any record has
// been stored for that identity.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if req.UserID == "" {
		return nil, ErrEmptyUserID
	}
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}

	resp, err := c.backend.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	log.Printf("[RECALL] Search %q user=%s returned %d results", truncate(req.Query, 50), req.UserID, len(resp.Results))
	return resp, nil
}

// GetAll lists every record for req.UserID, newest first.
func (c *Client) GetAll(ctx context.Context, req ListRequest) (*ListResponse, error) {
	if req.UserID == "" {
		return nil, ErrEmptyUserID
	}

	resp, err := c.backend.List(ctx, req)
	if err != nil {
		return nil, err
	}
	log.Printf("[RECALL] GetAll user=%s returned %d memories", req.UserID, len(resp.Memories))
	return resp, nil
}

// Delete removes one record permanently.
func (c *Client) Delete(ctx context.Context, userID, memoryID string) (*DeleteResponse, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	if memoryID == "" {
		return nil, ErrEmptyMemoryID
	}
	return c.backend.Delete(ctx, userID, memoryID)
}

// DeleteAll removes every record for an identity. Intended for demo cleanup.
func (c *Client) DeleteAll(ctx context.Context, userID string) (*DeleteResponse, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	return c.backend.DeleteAll(ctx, userID)
}

// Close releases backend resources.
func (c *Client) Close() error {
	return c.backend.Close()
}

// truncate shortens text for logging.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
