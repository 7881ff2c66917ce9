package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jdthorpe/embedmap/internal/dataset"
	"github.com/jdthorpe/embedmap/internal/embeddings"
	"github.com/jdthorpe/embedmap/internal/grouping"
	"github.com/jdthorpe/embedmap/internal/pipeline"
	"github.com/jdthorpe/embedmap/internal/viz"
)

// tableEmbedder returns a fixed vector per text.
type tableEmbedder struct {
	vectors map[string][]float32
}

func (e *tableEmbedder) EmbedPairs(ctx context.Context, pairs []embeddings.Pair, batchSize int) ([][]float32, error) {
	results := make([][]float32, len(pairs))
	for i, p := range pairs {
		results[i] = e.vectors[p.Text]
	}
	return results, nil
}

func (e *tableEmbedder) ModelName() string { return "table-mock" }

// gridProjector spreads rows on a diagonal, standing in for t-SNE on inputs
// far too small for a perplexity of 100.
type gridProjector struct{}

func (gridProjector) Project(matrix [][]float32) ([]viz.Point, error) {
	points := make([]viz.Point, len(matrix))
	for i := range matrix {
		points[i] = viz.Point{X: float64(i), Y: float64(i)}
	}
	return points, nil
}

// End-to-end: one file with 4 items, problem mode, 2 clusters. The pipeline
// must produce a 4-row matrix, grouping must cover {0, 1}, and the adapter
// must save the artifact.
func TestPlotPipelineEndToEnd(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "items.jsonl")
	data := `{"problem": "sort a list"}
{"problem": "sort an array"}
{"problem": "walk a graph"}
{"problem": "walk a tree"}
`
	if err := os.WriteFile(dataPath, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	embedder := &tableEmbedder{vectors: map[string][]float32{
		"sort a list":   {10, 10, 0},
		"sort an array": {10.5, 9.5, 0},
		"walk a graph":  {-10, -10, 0},
		"walk a tree":   {-9.5, -10.5, 0},
	}}

	ctx := context.Background()
	pipe := pipeline.New(embeddings.NewMemStore(), embedder)
	items, matrix, err := pipe.EmbedDatasets(ctx, []string{dataPath}, dataset.ModeProblem, "Represent:", 32)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 4 || len(matrix) != 4 {
		t.Fatalf("expected 4 items and 4 rows, got %d and %d", len(items), len(matrix))
	}
	if len(matrix[0]) != 3 {
		t.Fatalf("expected 3-dim embeddings, got %d", len(matrix[0]))
	}

	result, err := grouping.Assign(ctx, matrix, grouping.Clustering{K: 2}, embedder, 32, 42)
	if err != nil {
		t.Fatal(err)
	}
	seen := map[int]bool{}
	for _, l := range result.Labels {
		seen[l] = true
	}
	if !seen[0] || !seen[1] {
		t.Fatalf("labels do not cover {0, 1}: %v", result.Labels)
	}
	if result.Labels[0] != result.Labels[1] || result.Labels[2] != result.Labels[3] {
		t.Errorf("similar problems split across clusters: %v", result.Labels)
	}

	out := filepath.Join(dir, "clusters.png")
	adapter := &viz.Adapter{Projector: gridProjector{}}
	if err := adapter.Visualize(matrix, result.Labels, result.Groups, result.LegendNames, out); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("saved artifact is empty")
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		sep  string
		want []string
	}{
		{"", ",", nil},
		{"a.jsonl", ",", []string{"a.jsonl"}},
		{"a.jsonl, b.jsonl", ",", []string{"a.jsonl", "b.jsonl"}},
		{"sorting; graphs;", ";", []string{"sorting", "graphs"}},
	}
	for _, tt := range tests {
		got := splitList(tt.in, tt.sep)
		if len(got) != len(tt.want) {
			t.Errorf("splitList(%q): got %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitList(%q)[%d]: got %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

func TestPreview(t *testing.T) {
	if got := preview("short", 10); got != "short" {
		t.Errorf("unexpected preview: %q", got)
	}
	if got := preview("line\nbreak", 20); got != "line break" {
		t.Errorf("newlines should be flattened: %q", got)
	}
	long := preview("abcdefghij", 4)
	if long != "abcd..." {
		t.Errorf("unexpected truncation: %q", long)
	}
}
