// Package viz projects embeddings to 2D and renders the labeled scatter plot.
package viz

import (
	"fmt"
	"math/rand"

	"github.com/danaugrs/go-tsne/tsne"
	"gonum.org/v1/gonum/mat"
)

// Point is one projected (x, y) coordinate.
type Point struct {
	X, Y float64
}

// Projector reduces an embedding matrix to one 2D point per row.
type Projector interface {
	Project(matrix [][]float32) ([]Point, error)
}

// TSNEProjector projects embeddings with t-SNE. Perplexity and learning rate
// are tunable throughput/quality knobs, not semantic invariants, but are
// fixed per run for reproducibility.
type TSNEProjector struct {
	Perplexity   float64
	LearningRate float64
	Iterations   int
	Seed         int64
}

// Project implements Projector.
func (p *TSNEProjector) Project(matrix [][]float32) ([]Point, error) {
	if len(matrix) == 0 {
		return nil, fmt.Errorf("cannot project an empty embedding matrix")
	}

	rows := len(matrix)
	dims := len(matrix[0])
	data := make([]float64, 0, rows*dims)
	for i, row := range matrix {
		if len(row) != dims {
			return nil, fmt.Errorf("ragged embedding matrix: row %d has %d dims, want %d", i, len(row), dims)
		}
		for _, v := range row {
			data = append(data, float64(v))
		}
	}
	x := mat.NewDense(rows, dims, data)

	// go-tsne initializes its embedding from the global math/rand source;
	// seeding here is the only handle it exposes for reproducible layouts.
	rand.Seed(p.Seed)

	t := tsne.NewTSNE(2, p.Perplexity, p.LearningRate, p.Iterations, false)
	y := t.EmbedData(x, nil)

	yr, yc := y.Dims()
	if yr != rows || yc != 2 {
		return nil, fmt.Errorf("t-SNE returned a %dx%d embedding for %d items", yr, yc, rows)
	}

	points := make([]Point, rows)
	for i := range points {
		points[i] = Point{X: y.At(i, 0), Y: y.At(i, 1)}
	}
	return points, nil
}
