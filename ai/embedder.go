package ai

import "context"

// Embedder maps text to fixed-length numeric vectors. Implementations must
// be safe for concurrent use.
type Embedder interface {
	// EmbedDocuments generates one vector per input text, in input order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates a vector for a single query text.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
