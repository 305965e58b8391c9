// Package anthropic implements chat.Model on the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/recallai/recall-go/chat"
)

// DefaultModel is the Claude model used when none is configured.
const DefaultModel = "claude-sonnet-4-20250514"

const defaultMaxTokens = 1024

// Model calls Claude for chat completions.
type Model struct {
	client anthropic.Client
	model  string
}

// New creates a Claude-backed model. An empty apiKey falls back to
// ANTHROPIC_API_KEY, an empty model to DefaultModel.
func New(apiKey, model string) (*Model, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic model: missing API key")
	}
	if model == "" {
		model = DefaultModel
	}
	return &Model{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

// Generate returns Claude's text response for one exchange.
func (m *Model) Generate(ctx context.Context, req chat.GenerateRequest) (string, error) {
	resp, err := m.client.Messages.New(ctx, m.params(req))
	if err != nil {
		return "", fmt.Errorf("claude api: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}

// GenerateStream streams Claude's response through callback and returns the
// accumulated text.
func (m *Model) GenerateStream(ctx context.Context, req chat.GenerateRequest, callback func(chunk string)) (string, error) {
	stream := m.client.Messages.NewStreaming(ctx, m.params(req))
	defer stream.Close()

	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			continue
		}

		switch evt := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch delta := evt.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				callback(delta.Text)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("claude api: %w", err)
	}

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}

func (m *Model) params(req chat.GenerateRequest) anthropic.MessageNewParams {
	maxTokens := int64(req.MaxTokens)
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = param.NewOpt(float64(req.Temperature))
	}
	return params
}
