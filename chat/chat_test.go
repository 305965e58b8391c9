package chat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallai/recall-go/chat"
	"github.com/recallai/recall-go/recall"
)

// stubBackend serves canned search results and records stores.
type stubBackend struct {
	results  []recall.Record
	stored   []recall.StoreRequest
	storeErr error
}

func (s *stubBackend) Store(ctx context.Context, req recall.StoreRequest) (*recall.StoreResponse, error) {
	if s.storeErr != nil {
		return nil, s.storeErr
	}
	s.stored = append(s.stored, req)
	return &recall.StoreResponse{Success: true, ID: "mem_test", Backend: recall.BackendLocalDatabase}, nil
}

func (s *stubBackend) Search(ctx context.Context, req recall.SearchRequest) (*recall.SearchResponse, error) {
	return &recall.SearchResponse{Query: req.Query, Results: s.results, Backend: recall.BackendLocalDatabase}, nil
}

func (s *stubBackend) List(ctx context.Context, req recall.ListRequest) (*recall.ListResponse, error) {
	return &recall.ListResponse{Memories: s.results, Backend: recall.BackendLocalDatabase}, nil
}

func (s *stubBackend) Delete(ctx context.Context, userID, memoryID string) (*recall.DeleteResponse, error) {
	return &recall.DeleteResponse{Success: true, ID: memoryID}, nil
}

func (s *stubBackend) DeleteAll(ctx context.Context, userID string) (*recall.DeleteResponse, error) {
	return &recall.DeleteResponse{Success: true}, nil
}

func (s *stubBackend) Close() error { return nil }

// stubModel echoes a fixed answer and captures the prompt it saw.
type stubModel struct {
	answer     string
	lastSystem string
	lastUser   string
}

func (m *stubModel) Generate(ctx context.Context, req chat.GenerateRequest) (string, error) {
	m.lastSystem = req.System
	m.lastUser = req.User
	return m.answer, nil
}

func (m *stubModel) GenerateStream(ctx context.Context, req chat.GenerateRequest, callback func(string)) (string, error) {
	m.lastSystem = req.System
	m.lastUser = req.User
	for _, r := range m.answer {
		callback(string(r))
	}
	return m.answer, nil
}

func newAssistant(t *testing.T, backend *stubBackend, model chat.Model, cfg chat.Config) *chat.Assistant {
	t.Helper()
	client, err := recall.New(recall.Config{Backend: backend})
	require.NoError(t, err)
	return chat.NewAssistant(client, model, cfg)
}

func TestContextBlockEmpty(t *testing.T) {
	assert.Equal(t, "", chat.ContextBlock(nil))
	assert.Equal(t, "", chat.ContextBlock([]recall.Record{}))
}

func TestContextBlockPreservesOrder(t *testing.T) {
	// Assembly keeps the search order exactly: no sorting, no dedup.
	records := []recall.Record{
		{Content: "zebra"},
		{Content: "apple"},
		{Content: "zebra"},
	}
	assert.Equal(t, "- zebra\n- apple\n- zebra", chat.ContextBlock(records))
}

func TestContextBlockMissingContentFallback(t *testing.T) {
	records := []recall.Record{
		{Content: "has content"},
		{ID: "mem_42"}, // no content field
	}
	block := chat.ContextBlock(records)
	assert.Contains(t, block, "- has content")
	assert.Contains(t, block, "mem_42", "content-less record falls back to its representation")
}

func TestChatWithEmptyMemory(t *testing.T) {
	// No stored records yet: generation must still proceed with the bare
	// system prompt.
	backend := &stubBackend{}
	model := &stubModel{answer: "Hello! How can I help?"}
	assistant := newAssistant(t, backend, model, chat.Config{SystemPrompt: "Be helpful."})

	resp, err := assistant.Chat(context.Background(), "new_user", "Hi there")
	require.NoError(t, err)
	assert.Equal(t, "Hello! How can I help?", resp)
	assert.Equal(t, "Be helpful.", model.lastSystem)
	assert.Equal(t, "Hi there", model.lastUser)
}

func TestChatInjectsContext(t *testing.T) {
	backend := &stubBackend{results: []recall.Record{
		{Content: "User works in healthcare"},
		{Content: "User speaks Spanish"},
	}}
	model := &stubModel{answer: "ok"}
	assistant := newAssistant(t, backend, model, chat.Config{})

	_, err := assistant.Chat(context.Background(), "sarah_123", "Help me with HIPAA compliance")
	require.NoError(t, err)

	assert.Contains(t, model.lastSystem, chat.DefaultSystemPrompt)
	assert.Contains(t, model.lastSystem, "- User works in healthcare\n- User speaks Spanish")
}

func TestChatStoresInteraction(t *testing.T) {
	backend := &stubBackend{}
	model := &stubModel{answer: "noted"}
	assistant := newAssistant(t, backend, model, chat.Config{StoreInteractions: true})

	_, err := assistant.Chat(context.Background(), "u1", "My name is Alex")
	require.NoError(t, err)

	require.Len(t, backend.stored, 1)
	assert.Equal(t, "u1", backend.stored[0].UserID)
	assert.Contains(t, backend.stored[0].Content, "User: My name is Alex")
	assert.Contains(t, backend.stored[0].Content, "Assistant: noted")
	assert.Equal(t, []string{"conversation"}, backend.stored[0].Tags)
}

func TestChatStoreFailureIsNotFatal(t *testing.T) {
	// The trailing store is fire-and-forget; its failure must not break the
	// response the user already has.
	backend := &stubBackend{storeErr: errors.New("service unavailable")}
	model := &stubModel{answer: "still fine"}
	assistant := newAssistant(t, backend, model, chat.Config{StoreInteractions: true})

	resp, err := assistant.Chat(context.Background(), "u1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "still fine", resp)
}

func TestChatStreamAccumulates(t *testing.T) {
	backend := &stubBackend{}
	model := &stubModel{answer: "chunked"}
	assistant := newAssistant(t, backend, model, chat.Config{StoreInteractions: true})

	var streamed string
	resp, err := assistant.ChatStream(context.Background(), "u1", "stream please", func(chunk string) {
		streamed += chunk
	})
	require.NoError(t, err)
	assert.Equal(t, "chunked", resp)
	assert.Equal(t, "chunked", streamed)

	// Stored only after the stream completed.
	require.Len(t, backend.stored, 1)
	assert.Contains(t, backend.stored[0].Content, "Assistant: chunked")
}
