package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"example.com/uxwriter/internal/storage"
)

const healthProbeKey = "health_probe"

type HealthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

type HealthHandler struct {
	Store storage.Store
}

// NewHealthHandler создает проверку доступности сервиса и хранилища.
func NewHealthHandler(store storage.Store) *HealthHandler {
	return &HealthHandler{Store: store}
}

// Health возвращает статус сервиса; недоступное хранилище дает 503.
func (h *HealthHandler) Health(c echo.Context) error {
	_, err := h.Store.Get(c.Request().Context(), healthProbeKey)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		slog.Warn("storage health probe failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Storage: "unavailable"})
	}

	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Storage: "ok"})
}
