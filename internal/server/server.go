// Package server exposes the alert store and analysis snapshots over HTTP
// for the dashboard UI. It is a thin layer; all business logic lives in
// the alert store.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/jkamya/pesaflow/internal/alert"
)

// New assembles the echo server with routes and middleware.
func New(store *alert.Store, logger *slog.Logger) *echo.Echo {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))

	h := NewHandler(store)
	registerRoutes(e, h)

	return e
}

func registerRoutes(e *echo.Echo, h *Handler) {
	e.GET("/healthz", h.Health)

	api := e.Group("/api/v1")
	api.GET("/analysis", h.Analysis)
	api.POST("/analysis/refresh", h.Refresh)

	alerts := api.Group("/alerts")
	alerts.GET("", h.ListAlerts)
	alerts.POST("", h.CreateAlert)
	alerts.POST("/:id/dismiss", h.DismissAlert)
	alerts.POST("/:id/resolve", h.ResolveAlert)
	alerts.DELETE("", h.ClearAlerts)

	api.GET("/settings", h.GetSettings)
	api.PATCH("/settings", h.UpdateSettings)
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			logger.Info("request",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", status,
				"duration", time.Since(start),
			)
			return err
		}
	}
}
