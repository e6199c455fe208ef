package index

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentgraph/docsearch/internal/content"
	"github.com/contentgraph/docsearch/internal/graph"
	"github.com/contentgraph/docsearch/pkg/config"
	apperrors "github.com/contentgraph/docsearch/pkg/errors"
)

func TestSnapshotFileRoundTrip(t *testing.T) {
	docs := []*content.Document{
		testDoc("git", "Git", "Version control", "Branching and merging."),
		testDoc("git/basics", "Git Basics", "", "Staging area."),
	}
	snap := buildSnapshot(t, config.IndexConfig{}, docs)

	path := filepath.Join(t.TempDir(), "snapshots", "index.json")
	require.NoError(t, snap.WriteFile(path))

	loaded, err := ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, snap.Version, loaded.Version)
	assert.Equal(t, snap.Tokens, loaded.Tokens)
	assert.Equal(t, snap.Documents, loaded.Documents)
	assert.Equal(t, snap.Tree, loaded.Tree)
	assert.Equal(t, snap.IDFFloor, loaded.IDFFloor)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestDecodeCorrupt(t *testing.T) {
	_, err := Decode([]byte("{not json"))
	assert.ErrorIs(t, err, apperrors.ErrSnapshotCorrupt)
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	_, err := Decode([]byte(`{"version": 99}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrSnapshotCorrupt)
	assert.Contains(t, err.Error(), "version 99")
}

func TestDecodeInitialisesMaps(t *testing.T) {
	snap, err := Decode([]byte(`{"version": 1}`))
	require.NoError(t, err)
	assert.NotNil(t, snap.Tokens)
	assert.NotNil(t, snap.Documents)
}

func TestHolder(t *testing.T) {
	var holder Holder

	_, ok := holder.Current()
	assert.False(t, ok)

	g, err := graph.Build(nil)
	require.NoError(t, err)
	first, err := NewBuilder(config.IndexConfig{}).Build(context.Background(), nil, g)
	require.NoError(t, err)

	holder.Swap(first)
	got, ok := holder.Current()
	require.True(t, ok)
	assert.Same(t, first, got)

	docs := []*content.Document{testDoc("git", "Git", "", "")}
	g2, err := graph.Build(docs)
	require.NoError(t, err)
	second, err := NewBuilder(config.IndexConfig{}).Build(context.Background(), docs, g2)
	require.NoError(t, err)

	holder.Swap(second)
	got, ok = holder.Current()
	require.True(t, ok)
	assert.Same(t, second, got)
}
