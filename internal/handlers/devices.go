package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/uxwriter/internal/auth"
	"example.com/uxwriter/internal/ledger"
	"example.com/uxwriter/internal/secrets"
	"example.com/uxwriter/internal/storage"
)

// Devices resolves the per-device ledger and credential scope.
type Devices struct {
	Registry *ledger.Registry
	Store    storage.Store
	Fallback secrets.Source
}

// NewDevices создает доступ к данным устройств; fallback может быть nil.
func NewDevices(registry *ledger.Registry, store storage.Store, fallback secrets.Source) *Devices {
	return &Devices{Registry: registry, Store: store, Fallback: fallback}
}

var errNoDevice = errors.New("device id missing from context")

func (d *Devices) ledger(c echo.Context) (uuid.UUID, *ledger.Ledger, error) {
	deviceID, ok := auth.DeviceIDFromContext(c)
	if !ok {
		return uuid.Nil, nil, errNoDevice
	}

	account, err := d.Registry.ForDevice(c.Request().Context(), deviceID)
	if err != nil {
		slog.Error("failed to load ledger", slog.String("device_id", deviceID.String()), slog.String("error", err.Error()))
		return deviceID, nil, err
	}

	return deviceID, account, nil
}

func scopeError(c echo.Context, err error) error {
	if errors.Is(err, errNoDevice) {
		return unauthorized(c)
	}
	return serverError(c)
}

func (d *Devices) credentialStore(deviceID uuid.UUID) *secrets.StoreSource {
	return secrets.NewStoreSource(storage.ForDevice(d.Store, deviceID))
}

func (d *Devices) credentials(deviceID uuid.UUID) secrets.Source {
	return secrets.Chain{d.credentialStore(deviceID), d.Fallback}
}

type DeviceHandler struct {
	Tokens  *auth.TokenManager
	Devices *Devices
}

// NewDeviceHandler создает обработчик регистрации устройств.
func NewDeviceHandler(tokens *auth.TokenManager, devices *Devices) *DeviceHandler {
	return &DeviceHandler{Tokens: tokens, Devices: devices}
}

type DeviceResponse struct {
	DeviceID  string    `json:"device_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Balance   int64     `json:"balance"`
}

// Register выдает анонимный токен устройства и начальный баланс.
func (h *DeviceHandler) Register(c echo.Context) error {
	token, err := h.Tokens.NewDeviceToken()
	if err != nil {
		return serverError(c)
	}

	account, err := h.Devices.Registry.ForDevice(c.Request().Context(), token.DeviceID)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusCreated, DeviceResponse{
		DeviceID:  token.DeviceID.String(),
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
		Balance:   account.Balance(),
	})
}
