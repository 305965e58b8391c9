package recall

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Storage backend tags reported in response envelopes. The tag identifies
// which physical backend served a request and is diagnostic only.
const (
	BackendRemoteAPI     = "remote_api"
	BackendLocalDatabase = "local_database"
)

var (
	// ErrEmptyContent is returned when storing a record with no content.
	ErrEmptyContent = errors.New("recall: content must not be empty")

	// ErrEmptyUserID is returned when an operation is missing its identity key.
	ErrEmptyUserID = errors.New("recall: user_id must not be empty")

	// ErrEmptyMemoryID is returned when deleting without a record identifier.
	ErrEmptyMemoryID = errors.New("recall: memory_id must not be empty")
)

// Record is a single memory held by the service. The service owns the
// lifecycle: records are created by Store, read by Search/GetAll, and
// removed by Delete. Fields beyond Content are implementation-defined and
// may be absent.
type Record struct {
	// ID is the opaque identifier assigned by the service on creation.
	ID string `json:"id"`

	// Content is the free-text body of the memory.
	Content string `json:"content"`

	// UserID is the identity key the record is scoped to.
	UserID string `json:"user_id,omitempty"`

	// Metadata is an open mapping with no enforced schema.
	Metadata map[string]any `json:"metadata,omitempty"`

	// Tags is a convenience view over metadata tags.
	Tags []string `json:"tags,omitempty"`

	// Score is the search relevance score, set only on search results.
	Score float64 `json:"score,omitempty"`

	// CreatedAt is the service-side creation time.
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Text returns the record content for prompt assembly. A record may arrive
// without a content field; in that case the JSON representation of the
// record is substituted so context building never fails.
func (r Record) Text() string {
	if r.Content != "" {
		return r.Content
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return ""
	}
	return string(raw)
}

// HasTag reports whether the record carries the given tag.
func (r Record) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// StoreRequest describes a record to create.
type StoreRequest struct {
	Content  string         `json:"content"`
	UserID   string         `json:"user_id"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Tags     []string       `json:"tags,omitempty"`
}

// StoreResponse is the envelope returned by a store call.
type StoreResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Context string `json:"context,omitempty"`
	Backend string `json:"backend"`
}

// SearchRequest describes a semantic search over one identity's records.
type SearchRequest struct {
	Query  string `json:"query"`
	UserID string `json:"user_id"`
	Limit  int    `json:"limit,omitempty"`
}

// SearchResponse is the envelope returned by a search call. Results may be
// an empty sequence; callers must treat that as success.
type SearchResponse struct {
	Query   string   `json:"query"`
	Results []Record `json:"results"`
	Backend string   `json:"backend"`
}

// ListRequest describes a get_all call for one identity.
type ListRequest struct {
	UserID string `json:"user_id"`
	Limit  int    `json:"limit,omitempty"`
}

// ListResponse is the envelope returned by a get_all call. Unlike search,
// records appear under "memories" and the query field may be blank.
type ListResponse struct {
	Query    string   `json:"query,omitempty"`
	Memories []Record `json:"memories"`
	Backend  string   `json:"backend"`
}

// DeleteResponse is the envelope returned by delete and delete_all calls.
type DeleteResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Deleted int    `json:"deleted,omitempty"`
}

// Backend is the transport behind a Client.
// Implementations: the remote HTTP API (default) and localdb.Store.
type Backend interface {
	// Store creates a record and returns its envelope.
	Store(ctx context.Context, req StoreRequest) (*StoreResponse, error)

	// Search retrieves records by semantic relevance, most relevant first.
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)

	// List retrieves all records for an identity, newest first.
	List(ctx context.Context, req ListRequest) (*ListResponse, error)

	// Delete removes one record permanently.
	Delete(ctx context.Context, userID, memoryID string) (*DeleteResponse, error)

	// DeleteAll removes every record for an identity.
	DeleteAll(ctx context.Context, userID string) (*DeleteResponse, error)

	// Close releases transport resources.
	Close() error
}

// Embedder converts text to vector embeddings for local backends.
// Implementations: embedder/mock (testing), embedder/openai (API-based).
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}
