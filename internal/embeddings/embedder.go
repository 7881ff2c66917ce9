// Package embeddings provides instruction-conditioned text embedding with a
// durable on-disk cache.
package embeddings

import "context"

// Pair is one (instruction, text) unit submitted to the model. Instructor
// models condition the embedding on both parts jointly.
type Pair struct {
	Instruction string
	Text        string
}

// Embedder generates vector embeddings for instruction/text pairs.
type Embedder interface {
	// EmbedPairs returns one vector per pair, in input order. The batch size
	// controls how many pairs are encoded per model invocation; it must not
	// affect the results.
	EmbedPairs(ctx context.Context, pairs []Pair, batchSize int) ([][]float32, error)

	// ModelName returns a stable identifier for the underlying model,
	// suitable for cache keying.
	ModelName() string
}

// MakePairs pairs every text with the same instruction, preserving order.
func MakePairs(instruction string, texts []string) []Pair {
	pairs := make([]Pair, len(texts))
	for i, t := range texts {
		pairs[i] = Pair{Instruction: instruction, Text: t}
	}
	return pairs
}
