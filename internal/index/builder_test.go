package index

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentgraph/docsearch/internal/content"
	"github.com/contentgraph/docsearch/internal/graph"
	"github.com/contentgraph/docsearch/pkg/config"
)

func testDoc(id, title, description, body string) *content.Document {
	return &content.Document{
		ID:          id,
		Title:       title,
		Description: description,
		Body:        body,
		Path:        strings.Split(id, "/"),
		SourcePath:  id + ".md",
	}
}

func buildSnapshot(t *testing.T, cfg config.IndexConfig, docs []*content.Document) *Snapshot {
	t.Helper()
	g, err := graph.Build(docs)
	require.NoError(t, err)
	snap, err := NewBuilder(cfg).Build(context.Background(), docs, g)
	require.NoError(t, err)
	return snap
}

func TestBuildFieldWeights(t *testing.T) {
	docs := []*content.Document{
		testDoc("git", "Git", "Git overview", "Git is everywhere."),
	}
	snap := buildSnapshot(t, config.IndexConfig{}, docs)

	postings := snap.Postings("git")
	require.Len(t, postings, 1)
	// One occurrence per field: title 3 + description 2 + body 1.
	assert.Equal(t, 6, postings[0].Frequency)
	assert.Equal(t, []int{0, 1, 3}, postings[0].Positions)
}

func TestBuildSharedPositionSpace(t *testing.T) {
	docs := []*content.Document{
		testDoc("git/basics", "Git Basics", "Staging explained", "Commit early, commit often."),
	}
	snap := buildSnapshot(t, config.IndexConfig{}, docs)

	// Title tokens [git basics] then description [staging explained] then
	// body [commit early commit often], one strictly increasing sequence.
	assert.Equal(t, []int{0}, snap.Postings("git")[0].Positions)
	assert.Equal(t, []int{1}, snap.Postings("basics")[0].Positions)
	assert.Equal(t, []int{2}, snap.Postings("staging")[0].Positions)
	assert.Equal(t, []int{4, 6}, snap.Postings("commit")[0].Positions)
	assert.Equal(t, 2, snap.Postings("commit")[0].Frequency)
}

func TestBuildPositionsStrictlyIncreasing(t *testing.T) {
	docs := []*content.Document{
		testDoc("git", "Git Guide", "Branching and merging", "Rebase rewrites history. Merge preserves it."),
	}
	snap := buildSnapshot(t, config.IndexConfig{}, docs)

	var all []int
	for term := range snap.Tokens {
		for _, p := range snap.Tokens[term] {
			all = append(all, p.Positions...)
		}
	}
	sort.Ints(all)
	for i := 1; i < len(all); i++ {
		assert.NotEqual(t, all[i-1], all[i], "positions must be unique per document")
	}
}

func TestBuildPostingsSortedByDocID(t *testing.T) {
	docs := []*content.Document{
		testDoc("zsh", "Zsh", "", "git integration"),
		testDoc("git", "Git", "", ""),
		testDoc("make", "Make", "", "works with git"),
	}
	snap := buildSnapshot(t, config.IndexConfig{Workers: 3}, docs)

	postings := snap.Postings("git")
	require.Len(t, postings, 3)
	assert.Equal(t, "git", postings[0].DocID)
	assert.Equal(t, "make", postings[1].DocID)
	assert.Equal(t, "zsh", postings[2].DocID)
}

func TestBuildParallelMatchesSequential(t *testing.T) {
	var docs []*content.Document
	for i := 0; i < 20; i++ {
		docs = append(docs, testDoc(
			fmt.Sprintf("topic%02d", i),
			fmt.Sprintf("Topic %d", i),
			"Shared description terms",
			fmt.Sprintf("Body text number %d mentions git and rebase workflows.", i),
		))
	}

	sequential := buildSnapshot(t, config.IndexConfig{Workers: 1}, docs)
	parallel := buildSnapshot(t, config.IndexConfig{Workers: 4}, docs)

	seqBytes, err := sequential.Encode()
	require.NoError(t, err)
	parBytes, err := parallel.Encode()
	require.NoError(t, err)
	assert.Equal(t, seqBytes, parBytes)
}

func TestBuildDeterministic(t *testing.T) {
	docs := []*content.Document{
		testDoc("git", "Git", "Version control", "Distributed version control system."),
		testDoc("git/basics", "Git Basics", "Getting started", "Clone, add, commit, push."),
		testDoc("sql", "SQL", "Queries", "Select, join, group by."),
	}

	first, err := buildSnapshot(t, config.IndexConfig{Workers: 4}, docs).Encode()
	require.NoError(t, err)
	second, err := buildSnapshot(t, config.IndexConfig{Workers: 4}, docs).Encode()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildEmptyBodyStillIndexed(t *testing.T) {
	docs := []*content.Document{
		testDoc("stub", "Placeholder Page", "", ""),
	}
	snap := buildSnapshot(t, config.IndexConfig{}, docs)

	require.Contains(t, snap.Documents, "stub")
	postings := snap.Postings("placeholder")
	require.Len(t, postings, 1)
	assert.Equal(t, 3, postings[0].Frequency)
	assert.Equal(t, 2, snap.Documents["stub"].TokenCount)
}

func TestBuildEmptyCorpus(t *testing.T) {
	snap := buildSnapshot(t, config.IndexConfig{}, nil)

	assert.Equal(t, 0, snap.TotalDocuments())
	assert.Empty(t, snap.Tokens)
	assert.Equal(t, SnapshotVersion, snap.Version)
}

func TestBuildCustomWeights(t *testing.T) {
	docs := []*content.Document{
		testDoc("git", "Git", "Git", "Git"),
	}
	cfg := config.IndexConfig{TitleWeight: 10, DescriptionWeight: 5, BodyWeight: 2}
	snap := buildSnapshot(t, cfg, docs)

	postings := snap.Postings("git")
	require.Len(t, postings, 1)
	assert.Equal(t, 17, postings[0].Frequency)
}

func TestBuildStopWordsExcluded(t *testing.T) {
	docs := []*content.Document{
		testDoc("git", "The Git Guide", "An overview of the basics", "This is the body."),
	}
	snap := buildSnapshot(t, config.IndexConfig{}, docs)

	assert.Nil(t, snap.Postings("the"))
	assert.Nil(t, snap.Postings("an"))
	assert.Nil(t, snap.Postings("is"))
	assert.NotNil(t, snap.Postings("guide"))
}
