package neighbors

import "testing"

func TestBuildAndNearest(t *testing.T) {
	matrix := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.9, 0.1, 0},
		{0, 0, 1},
	}

	index, err := Build(matrix)
	if err != nil {
		t.Fatal(err)
	}
	if index.Len() != 4 {
		t.Fatalf("expected 4 indexed rows, got %d", index.Len())
	}

	matches := index.Nearest([]float32{1, 0, 0}, 2)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Row != 0 {
		t.Errorf("expected row 0 as closest match, got %d", matches[0].Row)
	}
	if matches[1].Row != 2 {
		t.Errorf("expected row 2 as second match, got %d", matches[1].Row)
	}
	if matches[0].Similarity < matches[1].Similarity {
		t.Errorf("matches not ordered by similarity: %v", matches)
	}
	if matches[0].Similarity < 0.99 {
		t.Errorf("identical vector should have similarity ~1, got %f", matches[0].Similarity)
	}
}

func TestBuildEmpty(t *testing.T) {
	if _, err := Build(nil); err == nil {
		t.Fatal("expected error for empty matrix")
	}
}

func TestNearestInvalidK(t *testing.T) {
	index, err := Build([][]float32{{1, 0}})
	if err != nil {
		t.Fatal(err)
	}
	if got := index.Nearest([]float32{1, 0}, 0); got != nil {
		t.Errorf("expected nil for k=0, got %v", got)
	}
}
