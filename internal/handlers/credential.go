package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"example.com/uxwriter/internal/auth"
	"example.com/uxwriter/internal/secrets"
)

type CredentialHandler struct {
	Devices *Devices
}

// NewCredentialHandler создает обработчик ключа провайдера.
func NewCredentialHandler(devices *Devices) *CredentialHandler {
	return &CredentialHandler{Devices: devices}
}

type CredentialRequest struct {
	APIKey string `json:"api_key" validate:"required"`
}

// CredentialResponse never carries the key itself.
type CredentialResponse struct {
	Configured  bool   `json:"configured"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Source      string `json:"source,omitempty"`
}

// Put сохраняет ключ провайдера для устройства.
func (h *CredentialHandler) Put(c echo.Context) error {
	deviceID, ok := auth.DeviceIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req CredentialRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	if err := h.Devices.credentialStore(deviceID).Save(c.Request().Context(), req.APIKey); err != nil {
		if errors.Is(err, secrets.ErrNoCredential) {
			return badRequest(c, "api_key must not be blank")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, CredentialResponse{
		Configured:  true,
		Fingerprint: secrets.Fingerprint(req.APIKey),
		Source:      "device",
	})
}

// Get сообщает, настроен ли ключ, и возвращает только его отпечаток.
func (h *CredentialHandler) Get(c echo.Context) error {
	deviceID, ok := auth.DeviceIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	ctx := c.Request().Context()
	value, err := h.Devices.credentialStore(deviceID).Credential(ctx)
	if err == nil {
		return c.JSON(http.StatusOK, CredentialResponse{Configured: true, Fingerprint: secrets.Fingerprint(value), Source: "device"})
	}
	if !errors.Is(err, secrets.ErrNoCredential) {
		return serverError(c)
	}

	if h.Devices.Fallback != nil {
		if value, err := h.Devices.Fallback.Credential(ctx); err == nil {
			return c.JSON(http.StatusOK, CredentialResponse{Configured: true, Fingerprint: secrets.Fingerprint(value), Source: "server"})
		}
	}

	return c.JSON(http.StatusOK, CredentialResponse{Configured: false})
}

// Delete удаляет ключ устройства.
func (h *CredentialHandler) Delete(c echo.Context) error {
	deviceID, ok := auth.DeviceIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.Devices.credentialStore(deviceID).Clear(c.Request().Context()); err != nil {
		return serverError(c)
	}

	return c.NoContent(http.StatusNoContent)
}
