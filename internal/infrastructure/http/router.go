// Package http serves the local observability surface for the long-running
// watch daemon: liveness, readiness, and Prometheus metrics. Nothing else is
// exposed; the application itself is a pure API consumer.
package http

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/fieldops/companion/internal/core/ports"
	"github.com/fieldops/companion/internal/infrastructure/http/handlers"
)

// NewRouter builds the Echo instance with all routes registered.
func NewRouter(apiBaseURL string, creds ports.CredentialStore) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.Recover())
	e.Use(echoprometheus.NewMiddleware("fieldops_obs"))

	healthHandler := handlers.NewHealthHandler()
	readyHandler := handlers.NewReadinessHandler(apiBaseURL, creds)

	e.GET("/health", healthHandler.Liveness)       // liveness  – is the daemon alive?
	e.GET("/health/ready", readyHandler.Readiness) // readiness – backend reachable, store readable?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
