package handlers

import (
	"fmt"
	"net/http"

	"qrpack/internal/engine/session"
)

// MetricsHandler exports generation counters in the Prometheus text format.
type MetricsHandler struct {
	manager *session.Manager
}

func NewMetricsHandler(manager *session.Manager) *MetricsHandler {
	return &MetricsHandler{manager: manager}
}

func (h *MetricsHandler) Export(w http.ResponseWriter, r *http.Request) {
	stats := h.manager.Generator().Stats()
	store := h.manager.Generator().Store()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	fmt.Fprintf(w, "# HELP qrpack_up Is the server up\n")
	fmt.Fprintf(w, "# TYPE qrpack_up gauge\n")
	fmt.Fprintf(w, "qrpack_up 1\n")

	fmt.Fprintf(w, "# HELP qrpack_generations_total Generations by outcome\n")
	fmt.Fprintf(w, "# TYPE qrpack_generations_total counter\n")
	fmt.Fprintf(w, "qrpack_generations_total{outcome=\"started\"} %d\n", stats.Started.Load())
	fmt.Fprintf(w, "qrpack_generations_total{outcome=\"succeeded\"} %d\n", stats.Succeeded.Load())
	fmt.Fprintf(w, "qrpack_generations_total{outcome=\"rejected\"} %d\n", stats.Rejected.Load())
	fmt.Fprintf(w, "qrpack_generations_total{outcome=\"failed\"} %d\n", stats.Failed.Load())

	fmt.Fprintf(w, "# HELP qrpack_artifacts Live in-memory artifacts\n")
	fmt.Fprintf(w, "# TYPE qrpack_artifacts gauge\n")
	fmt.Fprintf(w, "qrpack_artifacts %d\n", store.Len())
	fmt.Fprintf(w, "qrpack_artifact_bytes %d\n", store.Bytes())

	fmt.Fprintf(w, "# HELP qrpack_sessions Live sessions\n")
	fmt.Fprintf(w, "# TYPE qrpack_sessions gauge\n")
	fmt.Fprintf(w, "qrpack_sessions %d\n", h.manager.Len())
}
