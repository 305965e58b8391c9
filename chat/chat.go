// Package chat implements the context-augmented request pattern: retrieve
// prior records for an identity, flatten them into a text block, inject the
// block into a generation prompt, and surface the generated text.
//
// The pattern is deliberately thin. Retrieval order is preserved exactly,
// nothing is re-ranked or deduplicated locally, and an empty result set is
// a normal outcome that still produces a response.
package chat

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/recallai/recall-go/recall"
)

// DefaultSystemPrompt is used when an Assistant is configured without one.
const DefaultSystemPrompt = "You are a helpful assistant with memory of past conversations."

// Model is a synchronous chat-completion backend.
// Implementations: chat/anthropic (Claude), chat/openai (GPT).
type Model interface {
	// Generate returns the model's text response for a system instruction
	// and a user message.
	Generate(ctx context.Context, req GenerateRequest) (string, error)

	// GenerateStream streams the response through callback and returns the
	// full accumulated text once the stream completes.
	GenerateStream(ctx context.Context, req GenerateRequest, callback func(chunk string)) (string, error)
}

// GenerateRequest carries one prompt exchange.
type GenerateRequest struct {
	// System is the system-level instruction, including any memory context.
	System string

	// User is the raw user message.
	User string

	// MaxTokens caps the response length. Zero means the model default.
	MaxTokens int

	// Temperature controls sampling. Zero means the model default.
	Temperature float32
}

// ContextBlock flattens records into a newline-joined text block for prompt
// injection. Order is preserved exactly as returned by the search call.
// Records without content fall back to their string representation. Zero
// records produce an empty string.
func ContextBlock(records []recall.Record) string {
	if len(records) == 0 {
		return ""
	}

	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, "- "+rec.Text())
	}
	return strings.Join(lines, "\n")
}

// Config configures an Assistant.
type Config struct {
	// SystemPrompt is the base instruction. Defaults to DefaultSystemPrompt.
	SystemPrompt string

	// Limit is the number of records retrieved per message. Defaults to
	// recall.DefaultLimit.
	Limit int

	// StoreInteractions controls whether each exchange is stored back to
	// memory after the response is generated.
	StoreInteractions bool
}

// Assistant combines a memory client with a chat model.
type Assistant struct {
	client *recall.Client
	model  Model
	config Config
}

// NewAssistant creates a memory-augmented assistant.
func NewAssistant(client *recall.Client, model Model, config Config) *Assistant {
	if config.SystemPrompt == "" {
		config.SystemPrompt = DefaultSystemPrompt
	}
	if config.Limit <= 0 {
		config.Limit = recall.DefaultLimit
	}
	return &Assistant{client: client, model: model, config: config}
}

// Chat answers a user message with memory context.
//
// Flow: search memory for the message, build the context block, generate a
// response with the block embedded in the system prompt, then optionally
// store the exchange for future retrieval. Search and generation errors
// propagate unchanged; the trailing store is fire-and-forget.
func (a *Assistant) Chat(ctx context.Context, userID, message string) (string, error) {
	system, err := a.retrieveSystemPrompt(ctx, userID, message)
	if err != nil {
		return "", err
	}

	response, err := a.model.Generate(ctx, GenerateRequest{
		System: system,
		User:   message,
	})
	if err != nil {
		return "", err
	}

	a.storeInteraction(ctx, userID, message, response)
	return response, nil
}

// ChatStream is Chat with a streaming response. The exchange is stored only
// after the stream completes.
func (a *Assistant) ChatStream(ctx context.Context, userID, message string, callback func(chunk string)) (string, error) {
	system, err := a.retrieveSystemPrompt(ctx, userID, message)
	if err != nil {
		return "", err
	}

	response, err := a.model.GenerateStream(ctx, GenerateRequest{
		System: system,
		User:   message,
	}, callback)
	if err != nil {
		return "", err
	}

	a.storeInteraction(ctx, userID, message, response)
	return response, nil
}

// retrieveSystemPrompt searches memory and embeds the context block into the
// system prompt. An empty result set leaves the base prompt untouched.
func (a *Assistant) retrieveSystemPrompt(ctx context.Context, userID, message string) (string, error) {
	resp, err := a.client.Search(ctx, recall.SearchRequest{
		Query:  message,
		UserID: userID,
		Limit:  a.config.Limit,
	})
	if err != nil {
		return "", fmt.Errorf("retrieve memories: %w", err)
	}

	block := ContextBlock(resp.Results)
	if block == "" {
		return a.config.SystemPrompt, nil
	}
	return a.config.SystemPrompt + "\n\nRelevant context from past conversations:\n" + block, nil
}

// storeInteraction records the exchange under the same identity. Failures
// are logged, never returned: memory storage must not break the response.
func (a *Assistant) storeInteraction(ctx context.Context, userID, message, response string) {
	if !a.config.StoreInteractions {
		return
	}

	_, err := a.client.Store(ctx, recall.StoreRequest{
		Content: fmt.Sprintf("User: %s\nAssistant: %s", message, response),
		UserID:  userID,
		Tags:    []string{"conversation"},
	})
	if err != nil {
		log.Printf("[CHAT] Failed to store interaction for user=%s: %v", userID, err)
	}
}
