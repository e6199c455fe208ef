package analytics

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Handler exposes aggregated stats over HTTP.
type Handler struct {
	agg    *Aggregator
	logger *slog.Logger
}

func NewHandler(agg *Aggregator) *Handler {
	return &Handler{
		agg:    agg,
		logger: slog.Default().With("component", "analytics-handler"),
	}
}

// Stats handles GET /api/v1/analytics.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.agg.Stats()); err != nil {
		h.logger.Error("failed to write stats response", "error", err)
	}
}
