// Package openai provides an API-based embedder for the local backend.
package openai

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel is a good small embedding model default.
const DefaultModel = "text-embedding-3-small"

// modelDimensions maps known embedding models to their vector sizes.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Embedder generates embeddings through the OpenAI embeddings API.
type Embedder struct {
	client *openai.Client
	model  string
}

// New creates an embedder. An empty apiKey falls back to OPENAI_API_KEY,
// an empty model to DefaultModel.
func New(apiKey, model string) (*Embedder, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai embedder: missing API key")
	}
	if model == "" {
		model = DefaultModel
	}
	return &Embedder{client: openai.NewClient(apiKey), model: model}, nil
}

// Embed converts a single text to an embedding vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("openai embedder: empty embedding response")
	}
	return resp.Data[0].Embedding, nil
}

// Dimensions returns the embedding vector size for the configured model.
func (e *Embedder) Dimensions() int {
	if dims, ok := modelDimensions[e.model]; ok {
		return dims
	}
	return modelDimensions[DefaultModel]
}
