// Command indexer runs one batch build: load the content tree, build the
// document graph and inverted index, and write the snapshot to disk. Any
// validation or duplicate-id error aborts the build with the offending
// source path.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/contentgraph/docsearch/internal/content"
	"github.com/contentgraph/docsearch/internal/graph"
	"github.com/contentgraph/docsearch/internal/index"
	"github.com/contentgraph/docsearch/pkg/config"
	"github.com/contentgraph/docsearch/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	contentDir := flag.String("content", "", "content directory (overrides config)")
	out := flag.String("out", "", "snapshot output path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *contentDir != "" {
		cfg.Content.Dir = *contentDir
	}
	if *out != "" {
		cfg.Index.SnapshotPath = *out
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	start := time.Now()
	loader := content.NewLoader(cfg.Content.Extensions)
	docs, err := loader.Load(os.DirFS(cfg.Content.Dir), ".")
	if err != nil {
		slog.Error("content load failed", "error", err)
		os.Exit(1)
	}
	g, err := graph.Build(docs)
	if err != nil {
		slog.Error("graph build failed", "error", err)
		os.Exit(1)
	}
	snap, err := index.NewBuilder(cfg.Index).Build(context.Background(), docs, g)
	if err != nil {
		slog.Error("index build failed", "error", err)
		os.Exit(1)
	}
	if err := snap.WriteFile(cfg.Index.SnapshotPath); err != nil {
		slog.Error("snapshot write failed", "path", cfg.Index.SnapshotPath, "error", err)
		os.Exit(1)
	}

	slog.Info("snapshot written",
		"path", cfg.Index.SnapshotPath,
		"documents", snap.TotalDocuments(),
		"tokens", len(snap.Tokens),
		"duration", time.Since(start),
	)
}
