package analytics

import (
	"encoding/json"
	"net/http"
)

// Handler serves the aggregated query statistics.
type Handler struct {
	aggregator *Aggregator
}

// NewHandler creates a Handler over the given aggregator.
func NewHandler(a *Aggregator) *Handler {
	return &Handler{aggregator: a}
}

// Stats writes the current aggregate as JSON.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.aggregator.Snapshot())
}
