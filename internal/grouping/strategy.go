// Package grouping assigns every embedded item to exactly one labeled group,
// either by unsupervised clustering or by nearest-query classification.
package grouping

import (
	"context"
	"fmt"

	"github.com/jdthorpe/embedmap/internal/embeddings"
)

// Strategy selects how items are grouped. Exactly one concrete strategy is
// active per run; the union is constructed at configuration-parse time so
// downstream code cannot observe an invalid combination.
type Strategy interface {
	isStrategy()
}

// Clustering partitions the embeddings into K groups with seeded k-means.
type Clustering struct {
	K int
}

// NearestQuery labels each item with the index of its most similar query.
type NearestQuery struct {
	Queries     []string
	Instruction string
}

func (Clustering) isStrategy()   {}
func (NearestQuery) isStrategy() {}

// Result is a complete label assignment over the embedded items.
type Result struct {
	// Labels[i] is the group of dataset row i, in [0, Groups).
	Labels []int
	// Groups is the number of distinct groups.
	Groups int
	// LegendNames[g] is the human-readable name of group g: "Cluster N" for
	// clustering, the literal query string for nearest-query.
	LegendNames []string
}

// Assign labels every row of matrix according to the strategy. The embedder
// is used only by NearestQuery, to embed the query strings (never cached;
// their cost scales with the query count, not the dataset size). Both
// strategies fail hard if the labels do not densely cover [0, n).
func Assign(ctx context.Context, matrix [][]float32, strategy Strategy, embedder embeddings.Embedder, batchSize int, seed int64) (*Result, error) {
	switch s := strategy.(type) {
	case Clustering:
		labels, err := kmeansLabels(matrix, s.K, seed)
		if err != nil {
			return nil, err
		}
		if err := validateLabels(labels, s.K); err != nil {
			return nil, err
		}
		names := make([]string, s.K)
		for g := range names {
			names[g] = fmt.Sprintf("Cluster %d", g+1)
		}
		return &Result{Labels: labels, Groups: s.K, LegendNames: names}, nil

	case NearestQuery:
		labels, err := nearestQueryLabels(ctx, matrix, s.Queries, s.Instruction, embedder, batchSize)
		if err != nil {
			return nil, err
		}
		if err := validateLabels(labels, len(s.Queries)); err != nil {
			return nil, err
		}
		names := append([]string(nil), s.Queries...)
		return &Result{Labels: labels, Groups: len(s.Queries), LegendNames: names}, nil

	default:
		return nil, fmt.Errorf("unknown grouping strategy %T", strategy)
	}
}

// validateLabels checks that the observed labels are exactly {0, ..., n-1}.
// A gap means a degenerate run (e.g. clustering collapsed below the requested
// group count); downstream rendering indexes groups by range and would
// silently drop or misrender them.
func validateLabels(labels []int, n int) error {
	if n <= 0 {
		return fmt.Errorf("group count must be positive, got %d", n)
	}
	seen := make([]bool, n)
	for i, l := range labels {
		if l < 0 || l >= n {
			return fmt.Errorf("item %d has label %d outside [0, %d)", i, l, n)
		}
		seen[l] = true
	}
	for g, ok := range seen {
		if !ok {
			return fmt.Errorf("degenerate grouping: no item carries label %d of %d groups", g, n)
		}
	}
	return nil
}
