// Package pipeline orchestrates dataset loading and cached embedding.
package pipeline

import (
	"context"
	"fmt"

	"github.com/jdthorpe/embedmap/internal/dataset"
	"github.com/jdthorpe/embedmap/internal/embeddings"
)

// ProgressReporter receives progress updates while datasets are embedded.
type ProgressReporter interface {
	OnFileStart(path string, items int)
	OnFileDone(path string, items int, cached bool)
}

// Pipeline loads datasets and produces their embedding matrix, consulting
// the cache before calling the model.
type Pipeline struct {
	store    embeddings.Store
	embedder embeddings.Embedder
	progress ProgressReporter
}

// New creates a pipeline using the given cache store and embedder.
func New(store embeddings.Store, embedder embeddings.Embedder) *Pipeline {
	return &Pipeline{store: store, embedder: embedder}
}

// SetProgressReporter sets the progress reporter.
func (p *Pipeline) SetProgressReporter(pr ProgressReporter) {
	p.progress = pr
}

// EmbedDatasets loads every file, embeds its items under mode and
// instruction, and returns the concatenated dataset and embedding matrix.
// Row i of the matrix always corresponds to row i of the dataset; the
// alignment is re-verified after every stage.
func (p *Pipeline) EmbedDatasets(ctx context.Context, files []string, mode dataset.Mode, instruction string, batchSize int) ([]dataset.Item, [][]float32, error) {
	var allItems [][]dataset.Item
	var allMatrices [][][]float32

	for _, file := range files {
		items, err := dataset.Load(file)
		if err != nil {
			return nil, nil, err
		}
		if p.progress != nil {
			p.progress.OnFileStart(file, len(items))
		}

		matrix, cached, err := p.embedFile(ctx, items, mode, instruction, batchSize)
		if err != nil {
			return nil, nil, fmt.Errorf("embedding %s: %w", file, err)
		}
		if len(matrix) != len(items) {
			return nil, nil, fmt.Errorf("embedding %s: matrix has %d rows for %d items", file, len(matrix), len(items))
		}
		if p.progress != nil {
			p.progress.OnFileDone(file, len(items), cached)
		}

		allItems = append(allItems, items)
		allMatrices = append(allMatrices, matrix)
	}

	items := dataset.Concat(allItems)
	matrix := concatMatrices(allMatrices)
	if len(matrix) != len(items) {
		return nil, nil, fmt.Errorf("concatenated matrix has %d rows for %d items", len(matrix), len(items))
	}

	return items, matrix, nil
}

// embedFile embeds one file's items through the cache. The reported cached
// flag is true when the model was not invoked.
func (p *Pipeline) embedFile(ctx context.Context, items []dataset.Item, mode dataset.Mode, instruction string, batchSize int) ([][]float32, bool, error) {
	texts, err := dataset.DeriveTexts(items, mode)
	if err != nil {
		return nil, false, err
	}

	key := embeddings.NewRequestKey(p.embedder.ModelName(), mode, instruction, texts)
	fingerprint, err := key.Fingerprint()
	if err != nil {
		return nil, false, err
	}

	computed := false
	matrix, err := p.store.GetOrCompute(fingerprint, func() ([][]float32, error) {
		computed = true
		return p.embedder.EmbedPairs(ctx, embeddings.MakePairs(instruction, texts), batchSize)
	})
	if err != nil {
		return nil, false, err
	}
	return matrix, !computed, nil
}

func concatMatrices(parts [][][]float32) [][]float32 {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	combined := make([][]float32, 0, total)
	for _, p := range parts {
		combined = append(combined, p...)
	}
	return combined
}
