package grouping

import (
	"context"
	"fmt"

	"github.com/viterin/vek/vek32"

	"github.com/jdthorpe/embedmap/internal/embeddings"
)

// nearestQueryLabels embeds each (instruction, query) pair once and labels
// every item with the index of its highest-cosine-similarity query. Ties
// resolve to the lowest query index.
func nearestQueryLabels(ctx context.Context, matrix [][]float32, queries []string, instruction string, embedder embeddings.Embedder, batchSize int) ([]int, error) {
	if len(queries) == 0 {
		return nil, fmt.Errorf("nearest-query grouping requires at least one query")
	}

	queryVecs, err := embedder.EmbedPairs(ctx, embeddings.MakePairs(instruction, queries), batchSize)
	if err != nil {
		return nil, fmt.Errorf("embedding queries: %w", err)
	}
	if len(queryVecs) != len(queries) {
		return nil, fmt.Errorf("expected %d query embeddings, got %d", len(queries), len(queryVecs))
	}

	labels := make([]int, len(matrix))
	for i, emb := range matrix {
		best := 0
		bestSim := vek32.CosineSimilarity(emb, queryVecs[0])
		for q := 1; q < len(queryVecs); q++ {
			if sim := vek32.CosineSimilarity(emb, queryVecs[q]); sim > bestSim {
				bestSim = sim
				best = q
			}
		}
		labels[i] = best
	}

	return labels, nil
}
