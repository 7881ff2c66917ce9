package embeddings

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// InstructorEmbedder generates embeddings by calling an instructor-style
// embedding server (e.g. a local service hosting hkunlp/instructor-*).
type InstructorEmbedder struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewInstructorEmbedder creates an embedder that connects to an embedding
// server at baseURL serving the named model.
func NewInstructorEmbedder(baseURL, model string) *InstructorEmbedder {
	return &InstructorEmbedder{
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: 300 * time.Second,
		},
	}
}

// instructorEmbedRequest is the request body for /embed.
type instructorEmbedRequest struct {
	Model  string      `json:"model"`
	Inputs [][2]string `json:"inputs"` // [instruction, text] pairs
}

// instructorEmbedResponse is the response from /embed.
type instructorEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// instructorErrorResponse is the error response from the server.
type instructorErrorResponse struct {
	Error string `json:"error"`
}

// ModelName returns the served model identifier.
func (e *InstructorEmbedder) ModelName() string {
	return e.model
}

// EmbedPairs embeds all pairs in batches of batchSize, preserving input order.
func (e *InstructorEmbedder) EmbedPairs(ctx context.Context, pairs []Pair, batchSize int) ([][]float32, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	results := make([][]float32, 0, len(pairs))
	for start := 0; start < len(pairs); start += batchSize {
		end := start + batchSize
		if end > len(pairs) {
			end = len(pairs)
		}
		batch, err := e.embedBatch(ctx, pairs[start:end])
		if err != nil {
			return nil, err
		}
		results = append(results, batch...)
	}
	return results, nil
}

func (e *InstructorEmbedder) embedBatch(ctx context.Context, pairs []Pair) ([][]float32, error) {
	reqBody := instructorEmbedRequest{
		Model:  e.model,
		Inputs: make([][2]string, len(pairs)),
	}
	for i, p := range pairs {
		reqBody.Inputs[i] = [2]string{p.Instruction, p.Text}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed (is the embedding server running at %s?): %w", e.baseURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp instructorErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return nil, fmt.Errorf("embedding server error: %s", errResp.Error)
		}
		return nil, fmt.Errorf("embedding server returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var embedResp instructorEmbedResponse
	if err := json.Unmarshal(respBody, &embedResp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	if len(embedResp.Embeddings) != len(pairs) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(pairs), len(embedResp.Embeddings))
	}

	return embedResp.Embeddings, nil
}
