package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fieldops/companion/internal/core/ports"
)

// HealthHandler handles GET /health — liveness probe.
// Returns 200 immediately; confirms the daemon is alive.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// ReadinessHandler handles GET /health/ready — readiness probe.
// Checks backend reachability and the credential store before declaring the
// daemon ready.
type ReadinessHandler struct {
	apiBaseURL string
	creds      ports.CredentialStore
	http       *http.Client
}

func NewReadinessHandler(apiBaseURL string, creds ports.CredentialStore) *ReadinessHandler {
	return &ReadinessHandler{
		apiBaseURL: apiBaseURL,
		creds:      creds,
		http:       &http.Client{Timeout: 3 * time.Second},
	}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *ReadinessHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	deps := make(map[string]dependencyStatus)
	healthy := true

	// --- Backend reachability (any HTTP response counts) ---
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.apiBaseURL, nil)
	if err == nil {
		var resp *http.Response
		if resp, err = h.http.Do(req); err == nil {
			resp.Body.Close()
		}
	}
	if err != nil {
		deps["backend"] = dependencyStatus{Status: "unreachable", Error: err.Error()}
		healthy = false
	} else {
		deps["backend"] = dependencyStatus{Status: "ok"}
	}

	// --- Credential store readable ---
	if _, err := h.creds.AccessToken(); err != nil {
		deps["credential_store"] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
		healthy = false
	} else {
		deps["credential_store"] = dependencyStatus{Status: "ok"}
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		Dependencies: deps,
	})
}
