package handler

import (
	"context"
	"net/http"
	"time"

	"pcbank/transport/http/response"
)

// readyTimeout bounds a single readiness probe
const readyTimeout = 2 * time.Second

// Check is one readiness dependency
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse represents the readiness check response
type ReadyResponse struct {
	Ready     bool          `json:"ready"`
	Timestamp time.Time     `json:"timestamp"`
	Checks    []CheckStatus `json:"checks"`
}

// CheckStatus is the outcome of one readiness probe
type CheckStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	response.OK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	})
}

// Ready handles GET /ready
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	resp := ReadyResponse{
		Ready:     true,
		Timestamp: time.Now().UTC(),
		Checks:    make([]CheckStatus, 0, len(h.checks)),
	}

	for _, check := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		err := check.Probe(ctx)
		cancel()

		status := CheckStatus{Name: check.Name, Status: "ok"}
		if err != nil {
			resp.Ready = false
			status.Status = "failing"
			status.Error = err.Error()
		}
		resp.Checks = append(resp.Checks, status)
	}

	if !resp.Ready {
		response.JSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	response.OK(w, resp)
}
