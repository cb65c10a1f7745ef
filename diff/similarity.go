package diff

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/promptdiff/promptdiff/core"
)

// SemanticSimilarity scores two texts by word-set overlap (Jaccard index):
// case-folded, whitespace-split, duplicates collapsed. Both texts empty
// scores 1.0; exactly one empty scores 0.0.
func (e *Engine) SemanticSimilarity(textA, textB string) float64 {
	wordsA := tokenSet(textA)
	wordsB := tokenSet(textB)

	if len(wordsA) == 0 && len(wordsB) == 0 {
		return 1.0
	}
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0.0
	}

	intersection := 0
	for w := range wordsA {
		if wordsB[w] {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = true
	}
	return set
}

// EmbeddingSimilarity scores two texts by cosine similarity of their
// embeddings. It requires an Embedder (see WithEmbedder); without one it
// fails with core.ErrFeatureUnavailable.
func (e *Engine) EmbeddingSimilarity(ctx context.Context, textA, textB string) (float64, error) {
	if e.embedder == nil {
		return 0, fmt.Errorf("%w: embedding similarity needs an embedder", core.ErrFeatureUnavailable)
	}
	vecA, err := e.embedder.Embed(ctx, textA)
	if err != nil {
		return 0, fmt.Errorf("embed old text: %w", err)
	}
	vecB, err := e.embedder.Embed(ctx, textB)
	if err != nil {
		return 0, fmt.Errorf("embed new text: %w", err)
	}
	return cosineSimilarity(vecA, vecB), nil
}

// cosineSimilarity returns the cosine similarity between two vectors
// (0 when either is empty or lengths differ).
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
