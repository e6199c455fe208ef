// Package server wires the load→graph→index pipeline behind the search
// HTTP API.
package server

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/contentgraph/docsearch/internal/content"
	"github.com/contentgraph/docsearch/internal/graph"
	"github.com/contentgraph/docsearch/internal/index"
	"github.com/contentgraph/docsearch/pkg/config"
	"github.com/contentgraph/docsearch/pkg/metrics"
)

// Service owns the content pipeline and the active snapshot holder. Rebuild
// runs the whole batch (load, graph, index) and atomically swaps the new
// snapshot in; in-flight queries keep reading the old one.
type Service struct {
	loader     *content.Loader
	builder    *index.Builder
	holder     *index.Holder
	contentDir string
	snapPath   string
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewService creates a Service over the configured content directory.
func NewService(cfg *config.Config, holder *index.Holder, m *metrics.Metrics) *Service {
	return &Service{
		loader:     content.NewLoader(cfg.Content.Extensions),
		builder:    index.NewBuilder(cfg.Index),
		holder:     holder,
		contentDir: cfg.Content.Dir,
		snapPath:   cfg.Index.SnapshotPath,
		metrics:    m,
		logger:     slog.Default().With("component", "index-service"),
	}
}

// Rebuild loads the content tree from scratch and swaps in a fresh
// snapshot. Any load or validation error aborts the rebuild and leaves the
// previous snapshot serving.
func (s *Service) Rebuild(ctx context.Context) (*index.Snapshot, error) {
	start := time.Now()

	docs, err := s.loader.Load(os.DirFS(s.contentDir), ".")
	if err != nil {
		s.observeRebuild("error", 0)
		return nil, err
	}
	g, err := graph.Build(docs)
	if err != nil {
		s.observeRebuild("error", 0)
		return nil, err
	}
	snap, err := s.builder.Build(ctx, docs, g)
	if err != nil {
		s.observeRebuild("error", 0)
		return nil, err
	}

	s.holder.Swap(snap)
	s.observeRebuild("ok", time.Since(start).Seconds())
	if s.metrics != nil {
		s.metrics.DocsLoadedTotal.Add(float64(len(docs)))
		s.metrics.IndexedDocuments.Set(float64(snap.TotalDocuments()))
		s.metrics.IndexedTokens.Set(float64(len(snap.Tokens)))
	}
	s.logger.Info("snapshot rebuilt",
		"documents", snap.TotalDocuments(),
		"tokens", len(snap.Tokens),
		"duration", time.Since(start),
	)
	return snap, nil
}

// Persist writes the active snapshot to the configured snapshot path.
func (s *Service) Persist() error {
	snap, ok := s.holder.Current()
	if !ok {
		return nil
	}
	return snap.WriteFile(s.snapPath)
}

func (s *Service) observeRebuild(status string, seconds float64) {
	if s.metrics == nil {
		return
	}
	s.metrics.IndexRebuildsTotal.WithLabelValues(status).Inc()
	if status == "ok" {
		s.metrics.IndexBuildDuration.Observe(seconds)
	}
}
