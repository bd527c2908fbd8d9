package ai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

// ollamaEmbedder adapts the langchaingo Ollama client to the Embedder
// interface. The local server has no quota and no rate limits, so its
// errors pass through unclassified.
type ollamaEmbedder struct {
	impl *embeddings.EmbedderImpl
}

func newOllamaEmbedder(host, model string) (*ollamaEmbedder, error) {
	client, err := ollama.New(
		ollama.WithServerURL(host),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ollama client: %w", err)
	}

	impl, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("creating ollama embedder: %w", err)
	}

	return &ollamaEmbedder{impl: impl}, nil
}

func (e *ollamaEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := e.impl.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ollama embedding failed: %w", err)
	}
	return vectors, nil
}

func (e *ollamaEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := e.impl.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("ollama embedding failed: %w", err)
	}
	return vector, nil
}
