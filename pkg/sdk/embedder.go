package flyerdex

import "context"

// Embedder converts query text to a vector.
// Offer vectors come precomputed from the OfferEmbeddings artifact and must
// share the embedder's dimension.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}
