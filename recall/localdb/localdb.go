// Package localdb is an embedded Backend for the Recall client.
//
// It keeps records in chromem-go, a pure Go vector database, so the
// cookbooks run offline without a remote account. Response envelopes match
// the remote API but carry the "local_database" backend tag.
package localdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"github.com/recallai/recall-go/recall"
)

// Store implements recall.Backend on top of chromem-go.
type Store struct {
	db       *chromem.DB
	embedder recall.Embedder

	// embedCache memoizes embeddings by text so repeated queries and
	// store-then-search flows do not re-embed identical strings.
	embedCache *ristretto.Cache

	mu          sync.RWMutex
	collections map[string]*chromem.Collection
	// records is the per-identity list view, newest first. chromem-go has no
	// list-all or delete-by-ID, so this index is authoritative for List and
	// for filtering out deleted records from search results.
	records map[string][]recall.Record
	deleted map[string]bool
}

// New creates an embedded store backed by the given embedder.
func New(embedder recall.Embedder) (*Store, error) {
	if embedder == nil {
		return nil, fmt.Errorf("localdb: embedder is required")
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1 << 24,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}

	return &Store{
		db:          chromem.NewDB(),
		embedder:    embedder,
		embedCache:  cache,
		collections: make(map[string]*chromem.Collection),
		records:     make(map[string][]recall.Record),
		deleted:     make(map[string]bool),
	}, nil
}

// getOrCreateCollection returns the collection for an identity. Each
// identity gets its own collection for namespace isolation.
func (s *Store) getOrCreateCollection(userID string) (*chromem.Collection, error) {
	s.mu.RLock()
	col, exists := s.collections[userID]
	s.mu.RUnlock()
	if exists {
		return col, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if col, exists := s.collections[userID]; exists {
		return col, nil
	}

	name := "user_" + userID
	if userID == "" {
		name = "global"
	}
	col, err := s.db.CreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	s.collections[userID] = col
	return col, nil
}

// embed converts text to a vector, consulting the cache first.
func (s *Store) embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := s.embedCache.Get(text); ok {
		if emb, ok := v.([]float32); ok {
			return emb, nil
		}
	}

	emb, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.embedCache.Set(text, emb, int64(len(text)))
	return emb, nil
}

// Store embeds the content and saves it under the identity's collection.
func (s *Store) Store(ctx context.Context, req recall.StoreRequest) (*recall.StoreResponse, error) {
	col, err := s.getOrCreateCollection(req.UserID)
	if err != nil {
		return nil, err
	}

	embedding, err := s.embed(ctx, req.Content)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}

	rec := recall.Record{
		ID:        uuid.New().String(),
		Content:   req.Content,
		UserID:    req.UserID,
		Metadata:  req.Metadata,
		Tags:      req.Tags,
		CreatedAt: time.Now().UTC(),
	}

	doc := chromem.Document{
		ID:        rec.ID,
		Content:   rec.Content,
		Embedding: embedding,
		Metadata:  docMetadata(rec),
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("add document: %w", err)
	}

	s.mu.Lock()
	s.records[req.UserID] = append([]recall.Record{rec}, s.records[req.UserID]...)
	s.mu.Unlock()

	log.Printf("[LOCALDB] Stored memory id=%s user=%s", rec.ID, req.UserID)

	return &recall.StoreResponse{
		Success: true,
		ID:      rec.ID,
		Context: summaryContext(rec),
		Backend: recall.BackendLocalDatabase,
	}, nil
}

// Search embeds the query and retrieves records by cosine similarity.
func (s *Store) Search(ctx context.Context, req recall.SearchRequest) (*recall.SearchResponse, error) {
	resp := &recall.SearchResponse{
		Query:   req.Query,
		Results: []recall.Record{},
		Backend: recall.BackendLocalDatabase,
	}

	s.mu.RLock()
	stored := len(s.records[req.UserID])
	s.mu.RUnlock()
	if stored == 0 {
		// Nothing stored for this identity yet. Normal, not an error.
		return resp, nil
	}

	col, err := s.getOrCreateCollection(req.UserID)
	if err != nil {
		return nil, err
	}

	embedding, err := s.embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// chromem-go requires nResults <= collection size; retry with smaller
	// limits until the query fits.
	var results []chromem.Result
	for limit := req.Limit; limit >= 1; limit-- {
		results, err = col.QueryEmbedding(ctx, embedding, limit, nil, nil)
		if err == nil {
			break
		}
		if limit == 1 || !isTooManyResultsError(err) {
			return nil, fmt.Errorf("query collection: %w", err)
		}
	}

	for _, result := range results {
		s.mu.RLock()
		gone := s.deleted[result.ID]
		s.mu.RUnlock()
		if gone {
			continue
		}

		rec := recordFromResult(result, req.UserID)
		rec.Score = float64(result.Similarity)
		resp.Results = append(resp.Results, rec)
	}

	log.Printf("[LOCALDB] Search user=%s returned %d results", req.UserID, len(resp.Results))
	return resp, nil
}

// List returns the identity's records, newest first.
func (s *Store) List(ctx context.Context, req recall.ListRequest) (*recall.ListResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	memories := make([]recall.Record, len(s.records[req.UserID]))
	copy(memories, s.records[req.UserID])
	if req.Limit > 0 && len(memories) > req.Limit {
		memories = memories[:req.Limit]
	}

	return &recall.ListResponse{
		Memories: memories,
		Backend:  recall.BackendLocalDatabase,
	}, nil
}

// Delete removes a record from the list view and masks it from future
// search results. chromem-go does not expose delete-by-ID, so the vector
// itself stays behind but can never surface again.
func (s *Store) Delete(ctx context.Context, userID, memoryID string) (*recall.DeleteResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.records[userID]
	for i, rec := range recs {
		if rec.ID == memoryID {
			s.records[userID] = append(recs[:i:i], recs[i+1:]...)
			s.deleted[memoryID] = true
			return &recall.DeleteResponse{Success: true, ID: memoryID, Deleted: 1}, nil
		}
	}
	return nil, fmt.Errorf("localdb: memory %s not found for user %s", memoryID, userID)
}

// DeleteAll removes every record for an identity.
func (s *Store) DeleteAll(ctx context.Context, userID string) (*recall.DeleteResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.records[userID]
	for _, rec := range recs {
		s.deleted[rec.ID] = true
	}
	delete(s.records, userID)

	return &recall.DeleteResponse{Success: true, Deleted: len(recs)}, nil
}

// Close releases the embedding cache. chromem-go keeps everything in
// process memory, so there is nothing else to release.
func (s *Store) Close() error {
	s.embedCache.Close()
	return nil
}

// docMetadata flattens a record into chromem's string-keyed metadata.
func docMetadata(rec recall.Record) map[string]string {
	metadata := map[string]string{
		"user_id":    rec.UserID,
		"created_at": rec.CreatedAt.Format(time.RFC3339),
	}
	if len(rec.Tags) > 0 {
		if raw, err := json.Marshal(rec.Tags); err == nil {
			metadata["tags"] = string(raw)
		}
	}
	for k, v := range rec.Metadata {
		if str, ok := v.(string); ok {
			metadata[k] = str
			continue
		}
		if raw, err := json.Marshal(v); err == nil {
			metadata[k] = string(raw)
		}
	}
	return metadata
}

// recordFromResult rebuilds a record from a chromem query result.
func recordFromResult(result chromem.Result, userID string) recall.Record {
	rec := recall.Record{
		ID:      result.ID,
		Content: result.Content,
		UserID:  userID,
	}
	if raw, ok := result.Metadata["tags"]; ok {
		_ = json.Unmarshal([]byte(raw), &rec.Tags)
	}
	if ts, ok := result.Metadata["created_at"]; ok {
		rec.CreatedAt, _ = time.Parse(time.RFC3339, ts)
	}

	metadata := make(map[string]any)
	for k, v := range result.Metadata {
		switch k {
		case "user_id", "created_at", "tags":
		default:
			metadata[k] = v
		}
	}
	if len(metadata) > 0 {
		rec.Metadata = metadata
	}
	return rec
}

// summaryContext derives the short context string the store envelope
// carries, mirroring the remote API's behavior.
func summaryContext(rec recall.Record) string {
	content := rec.Content
	if len(content) > 80 {
		content = content[:80] + "..."
	}
	return fmt.Sprintf("Stored memory for %s: %s", rec.UserID, content)
}

// isTooManyResultsError checks whether chromem rejected the query because
// nResults exceeded the collection size.
func isTooManyResultsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}
