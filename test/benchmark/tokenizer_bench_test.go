// Package benchmark contains Go benchmarks for tokenization, index
// construction, and query execution, measuring throughput and allocation
// behaviour.
package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/contentgraph/docsearch/internal/index"
)

var sampleTexts = map[string]string{
	"short": "The quick brown fox jumps over the lazy dog",
	"medium": `Documentation search works over a static content collection. Every page
        carries frontmatter with a title and description, and the body is indexed with
        lower field weight. The inverted index maps each normalized term to the
        documents containing it along with positional information, and a rebuild always
        produces identical snapshot bytes for an unchanged content tree.`,
	"long": strings.Repeat(`Content collections organise markdown pages into a hierarchy derived
        from their file paths. Missing intermediate sections become synthetic placeholder
        nodes so navigation stays complete. Tokenization lowercases text, splits on
        non-alphanumeric runs, drops single-character tokens and removes stop words,
        with no stemming applied so queries reproduce indexing exactly. Scoring sums
        term frequency times inverse document frequency with a small positive floor. `, 20),
}

func BenchmarkTokenize(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				tokens := index.Tokenize(text, 0)
				_ = tokens
			}
		})
	}
}

func BenchmarkTokenizeParallel(b *testing.B) {
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			tokens := index.Tokenize(text, 0)
			_ = tokens
		}
	})
}

func BenchmarkTokenizeVaryingSize(b *testing.B) {
	sizes := []int{10, 100, 500, 1000, 5000}
	baseWord := "content collection search indexing hierarchy "
	for _, size := range sizes {
		text := strings.Repeat(baseWord, size/len(baseWord)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				tokens := index.Tokenize(text, 0)
				_ = tokens
			}
		})
	}
}
