package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentgraph/docsearch/internal/index"
	"github.com/contentgraph/docsearch/internal/search"
	"github.com/contentgraph/docsearch/pkg/config"
)

func writeContent(t *testing.T, dir, rel, body string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func newTestHandler(t *testing.T, rebuild bool) (*Handler, *Service) {
	t.Helper()

	contentDir := t.TempDir()
	writeContent(t, contentDir, "git/basics.md", `---
title: Git Basics
description: An introduction to Git
---
Git tracks changes. The staging area holds changes before commit.
`)
	writeContent(t, contentDir, "git/advanced.md", `---
title: Git Advanced
description: Rebase and history rewriting
---
Interactive rebase lets you rewrite Git history safely.
`)

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Content.Dir = contentDir
	cfg.Index.SnapshotPath = filepath.Join(t.TempDir(), "index.json")

	holder := &index.Holder{}
	service := NewService(cfg, holder, nil)
	if rebuild {
		_, err := service.Rebuild(context.Background())
		require.NoError(t, err)
	}

	engine := search.New(holder)
	handler := NewHandler(engine, service, nil, nil, nil,
		cfg.Search.DefaultLimit, cfg.Search.MaxResults)
	return handler, service
}

func TestSearchHandler(t *testing.T) {
	handler, _ := newTestHandler(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=git", nil)
	rec := httptest.NewRecorder()
	handler.Search(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp search.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "git", resp.Query)
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Results, 2)
}

func TestSearchHandlerMissingQuery(t *testing.T) {
	handler, _ := newTestHandler(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search", nil)
	rec := httptest.NewRecorder()
	handler.Search(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "required")
}

func TestSearchHandlerInvalidPagination(t *testing.T) {
	handler, _ := newTestHandler(t, true)

	for _, target := range []string{
		"/api/v1/search?q=git&limit=abc",
		"/api/v1/search?q=git&limit=-1",
		"/api/v1/search?q=git&offset=abc",
		"/api/v1/search?q=git&offset=-1",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		handler.Search(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestSearchHandlerOffsetPastEnd(t *testing.T) {
	handler, _ := newTestHandler(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=git&offset=50", nil)
	rec := httptest.NewRecorder()
	handler.Search(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp search.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Empty(t, resp.Results)
}

func TestSearchHandlerLimitClamped(t *testing.T) {
	handler, _ := newTestHandler(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=git&limit=100000", nil)
	rec := httptest.NewRecorder()
	handler.Search(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSearchHandlerBeforeFirstBuild(t *testing.T) {
	handler, _ := newTestHandler(t, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=git", nil)
	rec := httptest.NewRecorder()
	handler.Search(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReindexHandler(t *testing.T) {
	handler, _ := newTestHandler(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reindex", nil)
	rec := httptest.NewRecorder()
	handler.Reindex(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rebuilt", body["status"])
	assert.Equal(t, float64(2), body["documents"])

	// The swapped snapshot serves immediately.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/search?q=rebase", nil)
	rec = httptest.NewRecorder()
	handler.Search(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReindexHandlerInvalidContent(t *testing.T) {
	contentDir := t.TempDir()
	writeContent(t, contentDir, "bad.md", "---\ndescription: no title here\n---\nBody.\n")

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Content.Dir = contentDir
	cfg.Index.SnapshotPath = filepath.Join(t.TempDir(), "index.json")

	holder := &index.Holder{}
	service := NewService(cfg, holder, nil)
	handler := NewHandler(search.New(holder), service, nil, nil, nil,
		cfg.Search.DefaultLimit, cfg.Search.MaxResults)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reindex", nil)
	rec := httptest.NewRecorder()
	handler.Reindex(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	// A failed rebuild must not publish a snapshot.
	_, ok := holder.Current()
	assert.False(t, ok)
}

func TestCacheEndpointsDisabled(t *testing.T) {
	handler, _ := newTestHandler(t, true)

	rec := httptest.NewRecorder()
	handler.CacheStats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "disabled")

	rec = httptest.NewRecorder()
	handler.CacheInvalidate(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServicePersist(t *testing.T) {
	handler, service := newTestHandler(t, true)
	_ = handler

	require.NoError(t, service.Persist())
	snap, err := index.ReadFile(service.snapPath)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.TotalDocuments())
}
