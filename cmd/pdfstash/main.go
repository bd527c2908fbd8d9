// Copyright 2025 The pdfstash authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"pdfstash/ai"
	"pdfstash/core"
	"pdfstash/corpus"
	"pdfstash/ingestion"
	"pdfstash/storage"
	"pdfstash/storage/badger"
)

func main() {
	// Optional; a missing .env file is not an error.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "pdfstash",
		Usage: "Ingest a directory of PDFs into a local vector store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "populate",
				Usage:  "Load, chunk, embed and store every PDF in the data directory",
				Action: populateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "Directory containing the PDF corpus",
						Value:   "data",
					},
					&cli.StringFlag{
						Name:  "db",
						Usage: "Path to the vector store directory",
						Value: "vectordb",
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Target chunk length in characters",
						Value: corpus.DefaultChunkSize,
					},
					&cli.IntFlag{
						Name:  "chunk-overlap",
						Usage: "Characters shared between adjacent chunks",
						Value: corpus.DefaultChunkOverlap,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to embed and store per batch",
						Value: 100,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Wait between attempts on a rate-limited batch",
						Value: ingestion.DefaultConfig().RetryDelay,
					},
					&cli.BoolFlag{
						Name:    "local",
						Usage:   "Use the local embedding model even when an API key is set",
						EnvVars: []string{"USE_LOCAL_EMBEDDINGS"},
					},
					&cli.BoolFlag{
						Name:  "reset",
						Usage: "Delete the vector store directory before ingesting",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func populateCommand(c *cli.Context) error {
	ctx := context.Background()

	dbPath := c.String("db")
	if dbPath == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Int("batch-size") <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if c.Int("chunk-size") <= 0 {
		return fmt.Errorf("chunk-size must be greater than 0")
	}

	if c.Bool("reset") {
		slog.Info("resetting vector store", "path", dbPath)
		if err := os.RemoveAll(dbPath); err != nil {
			return fmt.Errorf("failed to reset store: %w", err)
		}
	}

	aiConfig := ai.FromEnv()
	if c.Bool("local") {
		aiConfig.ForceLocal = true
	}
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid embedding configuration: %w", err)
	}

	provider, err := ai.NewProvider(ctx, aiConfig)
	if err != nil {
		return err
	}
	slog.Info("embedding provider selected", "namespace", provider.Namespace())

	backend, err := badger.OpenBackend(dbPath, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	store, err := badger.NewStore(backend, provider)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}

	loader := corpus.NewDirectoryLoader(c.String("data"))
	docs, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading corpus: %w", err)
	}

	splitter := corpus.NewSplitter(
		corpus.WithChunkSize(c.Int("chunk-size")),
		corpus.WithChunkOverlap(c.Int("chunk-overlap")),
	)
	chunks, err := splitter.Split(docs)
	if err != nil {
		return fmt.Errorf("splitting corpus: %w", err)
	}
	core.AssignIDs(chunks)

	reconcilerConfig := ingestion.DefaultConfig()
	reconcilerConfig.BatchSize = c.Int("batch-size")
	reconcilerConfig.RetryDelay = c.Duration("retry-delay")

	reconciler := ingestion.NewReconciler(provider, store, reconcilerConfig,
		ingestion.WithProgressWriter(os.Stderr),
		ingestion.WithLocalFallback(func(ctx context.Context) (*ai.Provider, error) {
			return ai.NewLocalProvider(ctx, aiConfig)
		}),
		ingestion.WithStoreFactory(func(ctx context.Context, p *ai.Provider) (storage.VectorStore, error) {
			return badger.NewStore(backend, p)
		}),
	)

	fmt.Fprintf(os.Stderr, "Data directory: %s\n", c.String("data"))
	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
	fmt.Fprintf(os.Stderr, "Provider: %s\n", provider.Namespace())
	fmt.Fprintln(os.Stderr)

	result, err := reconciler.Run(ctx, chunks)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Documents: %d pages\n", len(docs))
	fmt.Fprintf(os.Stderr, "Chunks: %d total, %d new, %d already stored\n",
		result.TotalChunks, result.NewChunks, result.Skipped)
	fmt.Fprintf(os.Stderr, "Added: %d chunks in %d batches\n", result.Added, result.Batches)
	if result.ProviderSwitched {
		fmt.Fprintf(os.Stderr, "Provider switched to: %s\n", reconciler.Provider().Namespace())
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
