package viz

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGroupSeries(t *testing.T) {
	points := []Point{{0, 0}, {1, 1}, {2, 2}, {3, 3}}
	labels := []int{0, 1, 0, 1}

	series := groupSeries(points, labels, 0)
	if len(series) != 2 {
		t.Fatalf("expected 2 points in group 0, got %d", len(series))
	}
	if series[0].X != 0 || series[1].X != 2 {
		t.Errorf("wrong points selected: %v", series)
	}
}

// The centroid marker sits at the mean of the ENTIRE point set, not the
// per-group subset. This pins the current behavior; changing it to per-group
// centroids must be a deliberate, visible change.
func TestRenderGlobalCentroid(t *testing.T) {
	points := []Point{{0, 0}, {0, 2}, {10, 0}, {10, 2}}

	c := globalCentroid(points)
	if c.X != 5 || c.Y != 1 {
		t.Fatalf("expected global centroid (5, 1), got (%v, %v)", c.X, c.Y)
	}

	// Per-group means would be (0, 1) and (10, 1); the marker position is
	// independent of any grouping.
	groupA := globalCentroid(points[:2])
	if groupA == c {
		t.Fatal("test points cannot distinguish global from per-group centroid")
	}
}

func TestRenderWritesArtifact(t *testing.T) {
	points := []Point{{-1, -1}, {-1.2, -0.8}, {1, 1}, {1.1, 0.9}}
	labels := []int{0, 0, 1, 1}
	out := filepath.Join(t.TempDir(), "clusters.png")

	if err := Render(points, labels, 2, []string{"Cluster 1", "Cluster 2"}, out); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("rendered artifact is empty")
	}
}

func TestRenderMismatchedInputs(t *testing.T) {
	out := filepath.Join(t.TempDir(), "clusters.png")

	if err := Render([]Point{{0, 0}}, []int{0, 1}, 2, []string{"a", "b"}, out); err == nil {
		t.Error("expected error for point/label length mismatch")
	}
	if err := Render([]Point{{0, 0}, {1, 1}}, []int{0, 1}, 2, []string{"only one"}, out); err == nil {
		t.Error("expected error for legend/group count mismatch")
	}
	if err := Render([]Point{{0, 0}, {1, 1}}, []int{0, 0}, 2, []string{"a", "b"}, out); err == nil {
		t.Error("expected error for a group with no points")
	}
}

// stubProjector returns fixed coordinates, bypassing t-SNE for small inputs.
type stubProjector struct {
	points []Point
}

func (s *stubProjector) Project(matrix [][]float32) ([]Point, error) {
	return s.points, nil
}

func TestAdapterVisualize(t *testing.T) {
	matrix := [][]float32{{1, 0}, {0, 1}}
	out := filepath.Join(t.TempDir(), "out.png")

	a := &Adapter{Projector: &stubProjector{points: []Point{{0, 0}, {1, 1}}}}
	if err := a.Visualize(matrix, []int{0, 1}, 2, []string{"a", "b"}, out); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatal(err)
	}
}

func TestTSNEProjectorRejectsEmpty(t *testing.T) {
	p := &TSNEProjector{Perplexity: 100, LearningRate: 200, Iterations: 10, Seed: 42}
	if _, err := p.Project(nil); err == nil {
		t.Fatal("expected error for empty matrix")
	}
}
