// Package neighbors provides an in-memory nearest-neighbor index over the
// embedded corpus.
package neighbors

import (
	"fmt"

	"github.com/coder/hnsw"
)

// Index is an HNSW graph over embedding vectors, keyed by dataset row index.
// It is rebuilt per run from (cached) embeddings and never persisted.
type Index struct {
	graph *hnsw.Graph[int]
}

// Match is one nearest-neighbor result.
type Match struct {
	Row        int     // dataset row index
	Similarity float64 // cosine similarity in [0, 1]
}

// Build creates an index over the rows of matrix.
func Build(matrix [][]float32) (*Index, error) {
	if len(matrix) == 0 {
		return nil, fmt.Errorf("cannot index an empty embedding matrix")
	}

	g := hnsw.NewGraph[int]()
	g.Distance = hnsw.CosineDistance

	nodes := make([]hnsw.Node[int], len(matrix))
	for i, vec := range matrix {
		nodes[i] = hnsw.MakeNode(i, vec)
	}
	g.Add(nodes...)

	return &Index{graph: g}, nil
}

// Nearest returns the k rows most similar to the query vector, most similar
// first.
func (ix *Index) Nearest(query []float32, k int) []Match {
	if k <= 0 {
		return nil
	}

	found := ix.graph.Search(query, k)
	matches := make([]Match, len(found))
	for i, n := range found {
		// CosineDistance returns 0 for identical, 2 for opposite vectors.
		dist := ix.graph.Distance(query, n.Value)
		matches[i] = Match{
			Row:        n.Key,
			Similarity: 1.0 - float64(dist)/2.0,
		}
	}
	return matches
}

// Len returns the number of indexed rows.
func (ix *Index) Len() int {
	return ix.graph.Len()
}
