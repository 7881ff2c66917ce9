package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jdthorpe/embedmap/internal/config"
	"github.com/jdthorpe/embedmap/internal/dataset"
	"github.com/jdthorpe/embedmap/internal/embeddings"
	"github.com/jdthorpe/embedmap/internal/grouping"
	"github.com/jdthorpe/embedmap/internal/neighbors"
	"github.com/jdthorpe/embedmap/internal/pipeline"
	"github.com/jdthorpe/embedmap/internal/viz"
)

// Build-time variables set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "plot":
			return runPlot(os.Args[2:])
		case "nearest":
			return runNearest(os.Args[2:])
		case "cache":
			return runCache(os.Args[2:])
		case "config":
			return runConfigInit()
		case "version", "-v", "--version":
			fmt.Printf("embedmap %s (commit: %s, built: %s)\n", version, commit, date)
			return nil
		case "help", "-h", "--help":
			printUsage()
			return nil
		default:
			printUsage()
			return fmt.Errorf("unknown command %q", os.Args[1])
		}
	}

	printUsage()
	return nil
}

func printUsage() {
	fmt.Println(`embedmap - embed datasets and map them to a labeled 2D scatter

Usage:
  embedmap plot     Embed, group, and render the scatter plot
  embedmap nearest  Print the items most similar to a query
  embedmap cache    Manage the embedding cache (stats, clear)
  embedmap config   Initialize config file
  embedmap version  Show version info
  embedmap help     Show this help

Plot options:
  -data string               Comma-separated JSONL dataset files (required)
  -instruction string        Embedding instruction for every item (required)
  -model string              Model variant: instructor-base, instructor-large, instructor-xl
  -mode string               Embedding mode: seed, problem, solution, problem-solution
  -queries string            Semicolon-separated query strings (nearest-query grouping)
  -query-instruction string  Instruction for embedding queries (required with -queries)
  -clusters int              Cluster count (k-means grouping; exclusive with -queries)
  -batch-size int            Embedding batch size (default 32)
  -out string                Output image path (default clusters.png)

Examples:
  embedmap plot -data seeds.jsonl -instruction "Represent the code problem:" \
      -model instructor-large -mode problem -clusters 5
  embedmap plot -data a.jsonl,b.jsonl -instruction "..." -model instructor-base \
      -mode problem-solution -queries "sorting;graphs" -query-instruction "..."
  embedmap nearest -data seeds.jsonl -instruction "..." -model instructor-base \
      -mode seed -query "binary search" -query-instruction "..." -k 5`)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// parseRunFlags registers the flags shared by plot and nearest on fs and
// returns a closure assembling RunOptions after parsing.
func parseRunFlags(fs *flag.FlagSet) func() config.RunOptions {
	data := fs.String("data", "", "Comma-separated JSONL dataset files")
	instruction := fs.String("instruction", "", "Embedding instruction for every item")
	model := fs.String("model", string(config.ModelInstructorLarge), "Model variant")
	mode := fs.String("mode", "", "Embedding mode")
	batchSize := fs.Int("batch-size", config.DefaultBatchSize, "Embedding batch size")

	return func() config.RunOptions {
		return config.RunOptions{
			DataFiles:   splitList(*data, ","),
			Instruction: *instruction,
			Model:       config.ModelKey(*model),
			Mode:        dataset.Mode(*mode),
			BatchSize:   *batchSize,
		}
	}
}

func runPlot(args []string) error {
	fs := flag.NewFlagSet("plot", flag.ExitOnError)
	baseOpts := parseRunFlags(fs)
	queries := fs.String("queries", "", "Semicolon-separated query strings")
	queryInstruction := fs.String("query-instruction", "", "Instruction for embedding queries")
	clusters := fs.Int("clusters", 0, "Cluster count")
	out := fs.String("out", config.DefaultOutput, "Output image path")
	fs.Parse(args)

	opts := baseOpts()
	opts.Queries = splitList(*queries, ";")
	opts.QueryInstruction = *queryInstruction
	opts.Clusters = *clusters
	opts.Output = *out

	// All configuration errors surface here, before any model call.
	if err := opts.Validate(); err != nil {
		return err
	}
	strategy, err := opts.Strategy()
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	embedder := embeddings.NewInstructorEmbedder(cfg.Server.URL, opts.Model.ServedName())

	items, matrix, err := embedDatasets(ctx, cfg, embedder, opts)
	if err != nil {
		return err
	}
	fmt.Printf("Embedded %d items from %d files\n", len(items), len(opts.DataFiles))

	result, err := grouping.Assign(ctx, matrix, strategy, embedder, opts.BatchSize, cfg.Projection.Seed)
	if err != nil {
		return err
	}
	fmt.Printf("Assigned %d items to %d groups\n", len(result.Labels), result.Groups)

	adapter := &viz.Adapter{
		Projector: &viz.TSNEProjector{
			Perplexity:   cfg.Projection.Perplexity,
			LearningRate: cfg.Projection.LearningRate,
			Iterations:   cfg.Projection.Iterations,
			Seed:         cfg.Projection.Seed,
		},
	}
	if err := adapter.Visualize(matrix, result.Labels, result.Groups, result.LegendNames, opts.Output); err != nil {
		return err
	}

	fmt.Printf("Saved %s\n", opts.Output)
	return nil
}

func runNearest(args []string) error {
	fs := flag.NewFlagSet("nearest", flag.ExitOnError)
	baseOpts := parseRunFlags(fs)
	query := fs.String("query", "", "Query string")
	queryInstruction := fs.String("query-instruction", "", "Instruction for embedding the query")
	k := fs.Int("k", 5, "Number of neighbors to print")
	fs.Parse(args)

	opts := baseOpts()
	if err := opts.ValidateEmbedding(); err != nil {
		return err
	}
	if *query == "" {
		return fmt.Errorf("-query is required")
	}
	if *queryInstruction == "" {
		return fmt.Errorf("-query-instruction is required")
	}
	if *k < 1 {
		return fmt.Errorf("-k must be at least 1")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	embedder := embeddings.NewInstructorEmbedder(cfg.Server.URL, opts.Model.ServedName())

	items, matrix, err := embedDatasets(ctx, cfg, embedder, opts)
	if err != nil {
		return err
	}

	index, err := neighbors.Build(matrix)
	if err != nil {
		return err
	}

	queryVecs, err := embedder.EmbedPairs(ctx, embeddings.MakePairs(*queryInstruction, []string{*query}), opts.BatchSize)
	if err != nil {
		return fmt.Errorf("embedding query: %w", err)
	}

	matches := index.Nearest(queryVecs[0], *k)
	for i, m := range matches {
		text, err := dataset.DeriveText(items[m.Row], opts.Mode)
		if err != nil {
			return err
		}
		fmt.Printf("%d. row %d (similarity: %.4f)\n   %s\n\n", i+1, m.Row, m.Similarity, preview(text, 120))
	}

	return nil
}

// embedDatasets opens the cache and runs the embedding pipeline.
func embedDatasets(ctx context.Context, cfg *config.Config, embedder embeddings.Embedder, opts config.RunOptions) ([]dataset.Item, [][]float32, error) {
	cachePath, err := cfg.CachePath()
	if err != nil {
		return nil, nil, fmt.Errorf("resolving cache path: %w", err)
	}
	cache, err := embeddings.OpenCache(cachePath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening embedding cache: %w", err)
	}
	defer cache.Close()

	pipe := pipeline.New(cache, embedder)
	pipe.SetProgressReporter(&consoleProgressReporter{})
	return pipe.EmbedDatasets(ctx, opts.DataFiles, opts.Mode, opts.Instruction, opts.BatchSize)
}

func runCache(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: embedmap cache <stats|clear>")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cachePath, err := cfg.CachePath()
	if err != nil {
		return fmt.Errorf("resolving cache path: %w", err)
	}
	cache, err := embeddings.OpenCache(cachePath)
	if err != nil {
		return fmt.Errorf("opening embedding cache: %w", err)
	}
	defer cache.Close()

	switch args[0] {
	case "stats":
		n, err := cache.Len()
		if err != nil {
			return err
		}
		fmt.Printf("Cache: %s\n", cachePath)
		fmt.Printf("Cached matrices: %d\n", n)

	case "clear":
		if err := cache.Clear(); err != nil {
			return err
		}
		fmt.Println("Cache cleared.")

	default:
		return fmt.Errorf("unknown cache subcommand %q: use stats or clear", args[0])
	}

	return nil
}

func runConfigInit() error {
	cfg := config.Default()
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	configPath, _ := config.ConfigPath()
	fmt.Printf("Config written to: %s\n", configPath)
	return nil
}

// consoleProgressReporter prints pipeline progress to the console.
type consoleProgressReporter struct{}

func (r *consoleProgressReporter) OnFileStart(path string, items int) {
	fmt.Printf("Embedding %s: %d items\n", path, items)
}

func (r *consoleProgressReporter) OnFileDone(path string, items int, cached bool) {
	if cached {
		fmt.Printf("  %s: %d embeddings (cached)\n", path, items)
	} else {
		fmt.Printf("  %s: %d embeddings computed\n", path, items)
	}
}

func splitList(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func preview(text string, maxLen int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}
