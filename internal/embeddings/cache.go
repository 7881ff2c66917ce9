package embeddings

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists embedding matrices keyed by request fingerprint. The
// SQLite-backed Cache is the production implementation; MemStore is an
// in-process fake for tests.
type Store interface {
	// GetOrCompute returns the matrix stored under fingerprint, invoking
	// compute and storing its result on a miss.
	GetOrCompute(fingerprint string, compute func() ([][]float32, error)) ([][]float32, error)
	Close() error
}

// Cache is a durable embedding cache backed by SQLite. It is created with an
// explicit open/close lifecycle and injected into the pipeline.
type Cache struct {
	db *sql.DB
}

// OpenCache opens or creates the cache database at path.
func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	// SQLite supports only one writer; the pipeline is single-threaded anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS embedding_cache (
			fingerprint TEXT PRIMARY KEY,
			rows INTEGER NOT NULL,
			dims INTEGER NOT NULL,
			matrix BLOB NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache table: %w", err)
	}

	return &Cache{db: db}, nil
}

// GetOrCompute returns the cached matrix for fingerprint, or invokes compute,
// stores the result, and returns it. A hit never invokes compute.
func (c *Cache) GetOrCompute(fingerprint string, compute func() ([][]float32, error)) ([][]float32, error) {
	if matrix, err := c.get(fingerprint); err == nil {
		return matrix, nil
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}

	matrix, err := compute()
	if err != nil {
		return nil, err
	}

	if err := c.put(fingerprint, matrix); err != nil {
		return nil, fmt.Errorf("storing cache entry: %w", err)
	}
	return matrix, nil
}

// Len returns the number of cached matrices.
func (c *Cache) Len() (int, error) {
	var n int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM embedding_cache").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}

// Clear removes all cached matrices.
func (c *Cache) Clear() error {
	if _, err := c.db.Exec("DELETE FROM embedding_cache"); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) get(fingerprint string) ([][]float32, error) {
	var rows, dims int
	var blob []byte
	err := c.db.QueryRow(
		"SELECT rows, dims, matrix FROM embedding_cache WHERE fingerprint = ?",
		fingerprint,
	).Scan(&rows, &dims, &blob)
	if err != nil {
		return nil, err
	}
	return decodeMatrix(blob, rows, dims)
}

func (c *Cache) put(fingerprint string, matrix [][]float32) error {
	rows, dims, blob, err := encodeMatrix(matrix)
	if err != nil {
		return err
	}
	_, err = c.db.Exec(
		"INSERT OR REPLACE INTO embedding_cache (fingerprint, rows, dims, matrix) VALUES (?, ?, ?, ?)",
		fingerprint, rows, dims, blob,
	)
	return err
}

// encodeMatrix converts a row-aligned matrix to a compact binary blob. All
// rows must share one dimension.
func encodeMatrix(matrix [][]float32) (rows, dims int, blob []byte, err error) {
	rows = len(matrix)
	if rows > 0 {
		dims = len(matrix[0])
	}
	blob = make([]byte, 0, rows*dims*4)
	buf := make([]byte, 4)
	for i, row := range matrix {
		if len(row) != dims {
			return 0, 0, nil, fmt.Errorf("ragged matrix: row %d has %d dims, want %d", i, len(row), dims)
		}
		for _, v := range row {
			binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
			blob = append(blob, buf...)
		}
	}
	return rows, dims, blob, nil
}

// decodeMatrix converts a binary blob back to a matrix.
func decodeMatrix(blob []byte, rows, dims int) ([][]float32, error) {
	if len(blob) != rows*dims*4 {
		return nil, fmt.Errorf("corrupt cache blob: %d bytes for %dx%d matrix", len(blob), rows, dims)
	}
	matrix := make([][]float32, rows)
	for i := range matrix {
		row := make([]float32, dims)
		for j := range row {
			off := (i*dims + j) * 4
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(blob[off:]))
		}
		matrix[i] = row
	}
	return matrix, nil
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	entries map[string][][]float32
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string][][]float32)}
}

// GetOrCompute implements Store.
func (m *MemStore) GetOrCompute(fingerprint string, compute func() ([][]float32, error)) ([][]float32, error) {
	if matrix, ok := m.entries[fingerprint]; ok {
		return matrix, nil
	}
	matrix, err := compute()
	if err != nil {
		return nil, err
	}
	m.entries[fingerprint] = matrix
	return matrix, nil
}

// Len returns the number of stored matrices.
func (m *MemStore) Len() int { return len(m.entries) }

// Close implements Store.
func (m *MemStore) Close() error { return nil }
