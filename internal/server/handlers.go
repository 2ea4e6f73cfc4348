package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jkamya/pesaflow/internal/alert"
	"github.com/jkamya/pesaflow/internal/analysis"
	"github.com/jkamya/pesaflow/internal/common"
	"github.com/jkamya/pesaflow/internal/model"
)

// Handler serves the dashboard API from the alert store.
type Handler struct {
	store *alert.Store
}

// NewHandler creates the API handler.
func NewHandler(store *alert.Store) *Handler {
	return &Handler{store: store}
}

// Health reports process liveness.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// AnalysisResponse wraps the snapshot with the store's refresh state.
type AnalysisResponse struct {
	Snapshot    *analysis.Snapshot `json:"snapshot"`
	IsLoading   bool               `json:"is_loading"`
	LastUpdated time.Time          `json:"last_updated"`
	LastError   string             `json:"last_error,omitempty"`
}

// Analysis returns the last-computed snapshot without triggering a new run.
func (h *Handler) Analysis(c echo.Context) error {
	resp := AnalysisResponse{
		Snapshot:    h.store.Snapshot(),
		IsLoading:   h.store.IsLoading(),
		LastUpdated: h.store.LastUpdated(),
	}
	if err := h.store.LastError(); err != nil {
		resp.LastError = err.Error()
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh runs the analytics pipeline and returns the fresh snapshot.
// Concurrent calls are coalesced by the store.
func (h *Handler) Refresh(c echo.Context) error {
	if err := h.store.RefreshAnalysis(c.Request().Context()); err != nil {
		// The prior snapshot is retained; surface the error indicator.
		return c.JSON(http.StatusBadGateway, AnalysisResponse{
			Snapshot:    h.store.Snapshot(),
			IsLoading:   false,
			LastUpdated: h.store.LastUpdated(),
			LastError:   err.Error(),
		})
	}
	return h.Analysis(c)
}

// ListAlerts returns alerts, by default only active ones. Pass ?all=true
// to include alerts dismissed or resolved this session.
func (h *Handler) ListAlerts(c echo.Context) error {
	if c.QueryParam("all") == "true" {
		return c.JSON(http.StatusOK, h.store.Alerts())
	}
	return c.JSON(http.StatusOK, h.store.ActiveAlerts())
}

// CreateAlertRequest is the payload for a manually created alert.
type CreateAlertRequest struct {
	Type        model.AlertType     `json:"type"`
	Priority    model.AlertPriority `json:"priority"`
	Title       string              `json:"title"`
	Message     string              `json:"message"`
	Details     string              `json:"details,omitempty"`
	ActionLabel string              `json:"action_label,omitempty"`
	ActionURL   string              `json:"action_url,omitempty"`
	ExpiresAt   *time.Time          `json:"expires_at,omitempty"`
}

// CreateAlert adds a caller-supplied alert.
func (h *Handler) CreateAlert(c echo.Context) error {
	var req CreateAlertRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	created, err := h.store.AddAlert(c.Request().Context(), alert.NewAlertInput{
		Type:        req.Type,
		Priority:    req.Priority,
		Title:       req.Title,
		Message:     req.Message,
		Details:     req.Details,
		ActionLabel: req.ActionLabel,
		ActionURL:   req.ActionURL,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, created)
}

// DismissAlert marks an alert dismissed. Unknown or already-terminal
// alerts are a no-op.
func (h *Handler) DismissAlert(c echo.Context) error {
	if err := h.store.DismissAlert(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// ResolveAlert marks an alert resolved. Unknown or already-terminal
// alerts are a no-op.
func (h *Handler) ResolveAlert(c echo.Context) error {
	if err := h.store.ResolveAlert(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// ClearAlerts empties the alert list.
func (h *Handler) ClearAlerts(c echo.Context) error {
	if err := h.store.ClearAllAlerts(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// GetSettings returns the current alert settings.
func (h *Handler) GetSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.Settings())
}

// UpdateSettings shallow-merges a partial settings update. Invalid values
// are rejected and the prior settings retained.
func (h *Handler) UpdateSettings(c echo.Context) error {
	var patch model.SettingsPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	updated, err := h.store.UpdateSettings(c.Request().Context(), patch)
	if err != nil {
		if errors.Is(err, common.ErrInvalidSettings) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, updated)
}
