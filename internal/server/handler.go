package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/contentgraph/docsearch/internal/analytics"
	"github.com/contentgraph/docsearch/internal/search"
	"github.com/contentgraph/docsearch/internal/search/cache"
	apperrors "github.com/contentgraph/docsearch/pkg/errors"
	"github.com/contentgraph/docsearch/pkg/logger"
	"github.com/contentgraph/docsearch/pkg/metrics"
)

// Handler serves the search API. The engine is read-only over the active
// snapshot; reindexing swaps a new snapshot in through the Service.
type Handler struct {
	engine       *search.Engine
	service      *Service
	cache        *cache.QueryCache
	collector    *analytics.Collector
	metrics      *metrics.Metrics
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

func NewHandler(
	engine *search.Engine,
	service *Service,
	queryCache *cache.QueryCache,
	collector *analytics.Collector,
	m *metrics.Metrics,
	defaultLimit, maxResults int,
) *Handler {
	return &Handler{
		engine:       engine,
		service:      service,
		cache:        queryCache,
		collector:    collector,
		metrics:      m,
		defaultLimit: defaultLimit,
		maxResults:   maxResults,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

// Search handles GET /api/v1/search?q=&limit=&offset=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	limit, err := h.parsePositive(r, "limit", h.defaultLimit)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	if limit > h.maxResults {
		limit = h.maxResults
	}
	offset, err := h.parsePositive(r, "offset", 0)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	var resp *search.Response
	cacheHit := false
	if h.cache != nil {
		resp, cacheHit, err = h.cache.GetOrCompute(ctx, query, limit, offset, func() (*search.Response, error) {
			return h.engine.Search(ctx, query, limit, offset)
		})
	} else {
		resp, err = h.engine.Search(ctx, query, limit, offset)
	}
	if err != nil {
		log.Error("search execution failed", "query", query, "error", err)
		h.observeQuery("error", cacheHit, start, 0)
		h.writeError(w, apperrors.HTTPStatusCode(err), "search failed")
		return
	}

	latency := time.Since(start)
	resultType := "hit"
	eventType := analytics.EventSearch
	if resp.Total == 0 {
		resultType = "zero_result"
		eventType = analytics.EventZeroResult
	}
	h.observeQuery(resultType, cacheHit, start, len(resp.Results))

	log.Info("search completed",
		"query", query,
		"total", resp.Total,
		"returned", len(resp.Results),
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	if h.collector != nil {
		h.collector.Track(analytics.SearchEvent{
			Type:      eventType,
			Query:     query,
			Total:     resp.Total,
			Returned:  len(resp.Results),
			LatencyMs: latency.Milliseconds(),
			CacheHit:  cacheHit,
			Timestamp: time.Now().UTC(),
			RequestID: logger.RequestIDFromContext(ctx),
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// Reindex handles POST /api/v1/reindex: full rebuild from the content tree
// plus query-cache invalidation.
func (h *Handler) Reindex(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Rebuild(r.Context())
	if err != nil {
		h.logger.Error("reindex failed", "error", err)
		h.writeJSON(w, apperrors.HTTPStatusCode(err), map[string]string{"error": err.Error()})
		return
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(r.Context()); err != nil {
			h.logger.Error("cache invalidation after reindex failed", "error", err)
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "rebuilt",
		"documents": snap.TotalDocuments(),
		"tokens":    len(snap.Tokens),
	})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": strconv.FormatFloat(hitRate, 'f', 1, 64) + "%",
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) observeQuery(resultType string, cacheHit bool, start time.Time, returned int) {
	if h.metrics == nil {
		return
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	cacheStatus := "miss"
	if cacheHit {
		cacheStatus = "hit"
		h.metrics.CacheHitsTotal.Inc()
	} else {
		h.metrics.CacheMissesTotal.Inc()
	}
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
	h.metrics.SearchResultsCount.Observe(float64(returned))
}

func (h *Handler) parsePositive(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return 0, apperrors.ErrInvalidInput
	}
	return parsed, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
