package diff

import "context"

// Embedder produces a vector embedding for text. It is the optional
// collaborator behind EmbeddingSimilarity.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
