// Package dataset provides loading and text derivation for JSONL datasets.
package dataset

import (
	"bufio"
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Item is one record from an input dataset. Which fields are populated
// depends on how the dataset was generated; the active embedding mode
// decides which of them are required.
type Item struct {
	Seed     string `json:"seed"`
	Problem  string `json:"problem"`
	Solution string `json:"solution"`
}

// Load reads a newline-delimited JSON dataset from path. Blank lines are
// skipped; a malformed record is a fatal error naming the file and line.
func Load(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	var items []Item
	scanner := bufio.NewScanner(f)
	// Allow long records; solutions routinely exceed bufio's default line size.
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var item Item
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("%s:%d: decoding record: %w", path, line, err)
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return items, nil
}

// Concat combines per-file datasets into one, preserving file order and
// within-file order.
func Concat(parts [][]Item) []Item {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	combined := make([]Item, 0, total)
	for _, p := range parts {
		combined = append(combined, p...)
	}
	return combined
}
