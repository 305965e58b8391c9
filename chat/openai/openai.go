// Package openai implements chat.Model on the OpenAI chat completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/recallai/recall-go/chat"
)

// DefaultModel is the GPT model used when none is configured.
const DefaultModel = openai.GPT4o

// Model calls the OpenAI API for chat completions.
type Model struct {
	client *openai.Client
	model  string
}

// New creates a GPT-backed model. An empty apiKey falls back to
// OPENAI_API_KEY, an empty model to DefaultModel.
func New(apiKey, model string) (*Model, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai model: missing API key")
	}
	if model == "" {
		model = DefaultModel
	}
	return &Model{client: openai.NewClient(apiKey), model: model}, nil
}

// Generate returns the model's text response for one exchange.
func (m *Model) Generate(ctx context.Context, req chat.GenerateRequest) (string, error) {
	resp, err := m.client.CreateChatCompletion(ctx, m.request(req))
	if err != nil {
		return "", fmt.Errorf("openai api: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai api: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateStream streams the response through callback and returns the
// accumulated text.
func (m *Model) GenerateStream(ctx context.Context, req chat.GenerateRequest, callback func(chunk string)) (string, error) {
	stream, err := m.client.CreateChatCompletionStream(ctx, m.request(req))
	if err != nil {
		return "", fmt.Errorf("openai api: %w", err)
	}
	defer stream.Close()

	var full string
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("openai stream: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta.Content
		if delta != "" {
			full += delta
			callback(delta)
		}
	}
	return full, nil
}

func (m *Model) request(req chat.GenerateRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.User,
	})

	return openai.ChatCompletionRequest{
		Model:       m.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
}
