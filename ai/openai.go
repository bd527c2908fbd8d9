package ai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// openAIEmbedder adapts the langchaingo OpenAI client to the Embedder
// interface and classifies API failures into the package error taxonomy.
type openAIEmbedder struct {
	impl *embeddings.EmbedderImpl
}

func newOpenAIEmbedder(apiKey, model string) (*openAIEmbedder, error) {
	client, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("creating openai client: %w", err)
	}

	impl, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("creating openai embedder: %w", err)
	}

	return &openAIEmbedder{impl: impl}, nil
}

func (e *openAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := e.impl.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, classifyBackendError(err)
	}
	return vectors, nil
}

func (e *openAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := e.impl.EmbedQuery(ctx, text)
	if err != nil {
		return nil, classifyBackendError(err)
	}
	return vector, nil
}
