package embeddings

import (
	"strings"
	"testing"

	"github.com/jdthorpe/embedmap/internal/dataset"
)

func fingerprintOf(t *testing.T, key RequestKey) string {
	t.Helper()
	fp, err := key.Fingerprint()
	if err != nil {
		t.Fatal(err)
	}
	return fp
}

func TestFingerprintStable(t *testing.T) {
	texts := []string{"one", "two"}
	a := NewRequestKey("hkunlp/instructor-large", dataset.ModeProblem, "Represent:", texts)
	b := NewRequestKey("hkunlp/instructor-large", dataset.ModeProblem, "Represent:", texts)

	if fingerprintOf(t, a) != fingerprintOf(t, b) {
		t.Error("identical requests produced different fingerprints")
	}
}

func TestFingerprintVariesPerField(t *testing.T) {
	texts := []string{"one", "two"}
	base := NewRequestKey("hkunlp/instructor-large", dataset.ModeProblem, "Represent:", texts)
	baseFP := fingerprintOf(t, base)

	variants := []RequestKey{
		NewRequestKey("hkunlp/instructor-base", dataset.ModeProblem, "Represent:", texts),
		NewRequestKey("hkunlp/instructor-large", dataset.ModeSeed, "Represent:", texts),
		NewRequestKey("hkunlp/instructor-large", dataset.ModeProblem, "Other:", texts),
		NewRequestKey("hkunlp/instructor-large", dataset.ModeProblem, "Represent:", []string{"one"}),
	}
	for i, v := range variants {
		if fingerprintOf(t, v) == baseFP {
			t.Errorf("variant %d collided with base fingerprint", i)
		}
	}
}

// The dataset digest is length-prefixed, so record boundaries matter even
// when the concatenated bytes are identical.
func TestFingerprintRecordBoundaries(t *testing.T) {
	a := NewRequestKey("m", dataset.ModeSeed, "i", []string{"ab", "c"})
	b := NewRequestKey("m", dataset.ModeSeed, "i", []string{"a", "bc"})

	if fingerprintOf(t, a) == fingerprintOf(t, b) {
		t.Error("different record boundaries produced the same fingerprint")
	}
}

// The request key has no batch-size component at all; this pins the shape so
// one cannot be added by accident.
func TestFingerprintIgnoresBatchSize(t *testing.T) {
	key := NewRequestKey("m", dataset.ModeSeed, "i", []string{"x"})
	canonical, err := json.Marshal(key)
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{"batch", "Batch"} {
		if strings.Contains(string(canonical), field) {
			t.Errorf("cache key encodes %q: %s", field, canonical)
		}
	}
}
