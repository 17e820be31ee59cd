package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"qrpack/internal/engine/session"
	"qrpack/internal/engine/symbol"
	"qrpack/internal/pkg/errors"
)

type HealthHandler struct {
	manager *session.Manager
	started time.Time
}

func NewHealthHandler(manager *session.Manager) *HealthHandler {
	return &HealthHandler{manager: manager, started: time.Now()}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)

	// Encoder self-test
	if _, err := symbol.GenerateQRCode("healthz", symbol.MinSize); err != nil {
		checks["encoder"] = "unhealthy: " + err.Error()
	} else {
		checks["encoder"] = "healthy"
	}

	store := h.manager.Generator().Store()
	checks["artifacts"] = fmt.Sprintf("%d live, %d bytes", store.Len(), store.Bytes())
	checks["sessions"] = fmt.Sprintf("%d live", h.manager.Len())

	status := "healthy"
	for _, check := range checks {
		if strings.HasPrefix(check, "unhealthy") {
			status = "degraded"
			break
		}
	}

	response := struct {
		Status    string            `json:"status"`
		Timestamp int64             `json:"timestamp"`
		Uptime    string            `json:"uptime"`
		Checks    map[string]string `json:"checks"`
	}{
		Status:    status,
		Timestamp: time.Now().Unix(),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Checks:    checks,
	}

	statusCode := http.StatusOK
	if status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	errors.WriteJSON(w, statusCode, response)
}
