// Package provider wraps the model backends used for embedding and text
// generation. Callers depend on the narrow interfaces here, never on a
// concrete backend.
package provider

import "context"

// EmbeddingProvider generates dense embeddings for text.
type EmbeddingProvider interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// TextGenerationProvider produces a completion for a prompt.
type TextGenerationProvider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// HealthChecker reports whether a backend is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
