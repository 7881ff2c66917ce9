package embeddings

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/jdthorpe/embedmap/internal/dataset"
)

// RequestKey identifies an embedding computation. It covers everything that
// affects the output: model identity, embedding mode, instruction, and the
// dataset content (as a digest of the derived texts). The batch size and the
// client handle are deliberately excluded; they affect throughput only.
type RequestKey struct {
	Model         string       `json:"model"`
	Mode          dataset.Mode `json:"mode"`
	Instruction   string       `json:"instruction"`
	DatasetDigest string       `json:"dataset_digest"`
}

// NewRequestKey builds a RequestKey for embedding texts under the given
// model, mode, and instruction.
func NewRequestKey(model string, mode dataset.Mode, instruction string, texts []string) RequestKey {
	return RequestKey{
		Model:         model,
		Mode:          mode,
		Instruction:   instruction,
		DatasetDigest: digestTexts(texts),
	}
}

// Fingerprint returns a stable hex digest of the key. Two requests with equal
// fingerprints must yield bit-identical cached output. An encoding failure is
// returned as an error; it must never degrade to a silent cache bypass.
func (k RequestKey) Fingerprint() (string, error) {
	canonical, err := json.Marshal(k)
	if err != nil {
		return "", fmt.Errorf("encoding cache key: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return fmt.Sprintf("%x", sum), nil
}

// digestTexts hashes texts with length prefixes so that record boundaries
// cannot be confused (["ab","c"] vs ["a","bc"]).
func digestTexts(texts []string) string {
	h := sha256.New()
	var lenBuf [8]byte
	for _, t := range texts {
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(t)))
		h.Write(lenBuf[:])
		h.Write([]byte(t))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
