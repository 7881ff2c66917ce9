package config

import (
	"errors"
	"fmt"

	"github.com/jdthorpe/embedmap/internal/dataset"
	"github.com/jdthorpe/embedmap/internal/grouping"
)

// ModelKey names one of the supported instructor embedding model variants.
type ModelKey string

const (
	ModelInstructorBase  ModelKey = "instructor-base"
	ModelInstructorLarge ModelKey = "instructor-large"
	ModelInstructorXL    ModelKey = "instructor-xl"
)

// AllModelKeys lists every supported model variant.
var AllModelKeys = []ModelKey{ModelInstructorBase, ModelInstructorLarge, ModelInstructorXL}

// ParseModelKey validates a model key string.
func ParseModelKey(s string) (ModelKey, error) {
	k := ModelKey(s)
	for _, valid := range AllModelKeys {
		if k == valid {
			return k, nil
		}
	}
	return "", fmt.Errorf("unrecognized model %q (valid: instructor-base, instructor-large, instructor-xl)", s)
}

// ServedName returns the model path as published on the hub and served by
// the embedding server.
func (k ModelKey) ServedName() string {
	return "hkunlp/" + string(k)
}

// DefaultBatchSize is the embedding batch size used when none is configured.
const DefaultBatchSize = 32

// DefaultOutput is the artifact path used when none is configured.
const DefaultOutput = "clusters.png"

// RunOptions are the per-run inputs for embedding and grouping.
type RunOptions struct {
	DataFiles        []string
	Instruction      string
	Model            ModelKey
	Mode             dataset.Mode
	Queries          []string
	QueryInstruction string
	BatchSize        int
	Clusters         int
	Output           string
}

// ValidateEmbedding reports configuration errors in the embedding inputs.
// It must pass before any model call is made.
func (o *RunOptions) ValidateEmbedding() error {
	if len(o.DataFiles) == 0 {
		return errors.New("at least one data file is required")
	}
	if o.Instruction == "" {
		return errors.New("instruction must not be empty")
	}
	if _, err := ParseModelKey(string(o.Model)); err != nil {
		return err
	}
	if _, err := dataset.ParseMode(string(o.Mode)); err != nil {
		return err
	}
	if o.BatchSize < 1 {
		return errors.New("batch size must be at least 1")
	}
	return nil
}

// Validate reports configuration errors for a full plot run.
func (o *RunOptions) Validate() error {
	if err := o.ValidateEmbedding(); err != nil {
		return err
	}
	if o.Output == "" {
		return errors.New("output path must not be empty")
	}
	_, err := o.Strategy()
	return err
}

// Strategy constructs the grouping strategy from the options. Supplying both
// queries and a cluster count, or neither, is a configuration error, as is
// supplying queries without a query instruction. The returned union is the
// only strategy value downstream code ever sees.
func (o *RunOptions) Strategy() (grouping.Strategy, error) {
	hasQueries := len(o.Queries) > 0
	hasClusters := o.Clusters != 0

	switch {
	case hasQueries && hasClusters:
		return nil, errors.New("queries and cluster count are mutually exclusive")
	case hasQueries:
		if o.QueryInstruction == "" {
			return nil, errors.New("query instruction is required when queries are supplied")
		}
		return grouping.NearestQuery{Queries: o.Queries, Instruction: o.QueryInstruction}, nil
	case hasClusters:
		if o.Clusters < 1 {
			return nil, fmt.Errorf("cluster count must be at least 1, got %d", o.Clusters)
		}
		return grouping.Clustering{K: o.Clusters}, nil
	default:
		return nil, errors.New("either queries or a cluster count must be supplied")
	}
}
