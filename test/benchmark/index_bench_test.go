package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/contentgraph/docsearch/internal/content"
	"github.com/contentgraph/docsearch/internal/graph"
	"github.com/contentgraph/docsearch/internal/index"
	"github.com/contentgraph/docsearch/pkg/config"
)

var benchTerms = []string{"content", "search", "hierarchy", "frontmatter", "indexing", "query", "snapshot", "ranking"}

// benchCorpus builds a synthetic document set whose ids form a two-level
// section hierarchy.
func benchCorpus(n int) []*content.Document {
	docs := make([]*content.Document, 0, n)
	for i := 0; i < n; i++ {
		section := benchTerms[i%len(benchTerms)]
		id := fmt.Sprintf("%s/page-%d", section, i)
		docs = append(docs, &content.Document{
			ID:          id,
			Title:       fmt.Sprintf("Page about %s and %s", benchTerms[i%len(benchTerms)], benchTerms[(i+1)%len(benchTerms)]),
			Description: fmt.Sprintf("Covers %s in depth", benchTerms[(i+2)%len(benchTerms)]),
			Body: fmt.Sprintf("This page covers %s %s %s in documentation systems.",
				benchTerms[i%len(benchTerms)], benchTerms[(i+2)%len(benchTerms)], benchTerms[(i+3)%len(benchTerms)]),
			Path:       []string{section, fmt.Sprintf("page-%d", i)},
			SourcePath: id + ".md",
		})
	}
	return docs
}

// BenchmarkIndexBuild measures full build throughput at various corpus sizes.
func BenchmarkIndexBuild(b *testing.B) {
	sizes := []int{100, 1000, 5000}
	for _, size := range sizes {
		b.Run(fmt.Sprintf("docs_%d", size), func(b *testing.B) {
			docs := benchCorpus(size)
			g, err := graph.Build(docs)
			if err != nil {
				b.Fatal(err)
			}
			builder := index.NewBuilder(config.IndexConfig{Workers: 1})

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				snap, err := builder.Build(context.Background(), docs, g)
				if err != nil {
					b.Fatal(err)
				}
				_ = snap
			}
		})
	}
}

// BenchmarkIndexBuildWorkers compares sharded builds at different worker
// counts over a fixed corpus.
func BenchmarkIndexBuildWorkers(b *testing.B) {
	docs := benchCorpus(2000)
	g, err := graph.Build(docs)
	if err != nil {
		b.Fatal(err)
	}

	for _, workers := range []int{1, 2, 4, 8} {
		b.Run(fmt.Sprintf("workers_%d", workers), func(b *testing.B) {
			builder := index.NewBuilder(config.IndexConfig{Workers: workers})
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				snap, err := builder.Build(context.Background(), docs, g)
				if err != nil {
					b.Fatal(err)
				}
				_ = snap
			}
		})
	}
}

// BenchmarkGraphBuild measures hierarchy derivation cost on its own.
func BenchmarkGraphBuild(b *testing.B) {
	docs := benchCorpus(2000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g, err := graph.Build(docs)
		if err != nil {
			b.Fatal(err)
		}
		_ = g
	}
}

// BenchmarkSnapshotEncode measures canonical JSON serialisation of a built
// snapshot.
func BenchmarkSnapshotEncode(b *testing.B) {
	docs := benchCorpus(2000)
	g, err := graph.Build(docs)
	if err != nil {
		b.Fatal(err)
	}
	snap, err := index.NewBuilder(config.IndexConfig{}).Build(context.Background(), docs, g)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		data, err := snap.Encode()
		if err != nil {
			b.Fatal(err)
		}
		_ = data
	}
}
