package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"example.com/uxwriter/internal/auth"
	"example.com/uxwriter/internal/billing"
	"example.com/uxwriter/internal/metrics"
	"example.com/uxwriter/internal/models"
	"example.com/uxwriter/internal/notifications"
)

type CreditHandler struct {
	Devices  *Devices
	Checkout *billing.Checkout
	Metrics  *metrics.Metrics
	Hub      *notifications.Hub
}

// NewCreditHandler создает обработчик баланса и покупок.
func NewCreditHandler(devices *Devices, checkout *billing.Checkout, m *metrics.Metrics, hub *notifications.Hub) *CreditHandler {
	return &CreditHandler{Devices: devices, Checkout: checkout, Metrics: m, Hub: hub}
}

type CreditsResponse struct {
	Balance int64                      `json:"balance"`
	History []models.CreditTransaction `json:"history"`
}

type PurchaseRequest struct {
	PlanID int `json:"plan_id" validate:"required,gt=0"`
}

type PurchaseResponse struct {
	Balance     int64                    `json:"balance"`
	Plan        models.CreditPlan        `json:"plan"`
	Transaction models.CreditTransaction `json:"transaction"`
}

// Get возвращает баланс и историю транзакций устройства.
func (h *CreditHandler) Get(c echo.Context) error {
	_, account, err := h.Devices.ledger(c)
	if err != nil {
		return scopeError(c, err)
	}

	balance, history := account.Snapshot()
	return c.JSON(http.StatusOK, CreditsResponse{Balance: balance, History: history})
}

// Purchase симулирует оплату пакета и начисляет кредиты.
func (h *CreditHandler) Purchase(c echo.Context) error {
	var req PurchaseRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	deviceID, account, err := h.Devices.ledger(c)
	if err != nil {
		return scopeError(c, err)
	}

	plan, err := h.Checkout.Purchase(c.Request().Context(), account, req.PlanID)
	if err != nil {
		if errors.Is(err, billing.ErrUnknownPlan) {
			return domainError(c, err)
		}
		slog.Warn("credit purchase failed", slog.String("device_id", deviceID.String()), slog.String("error", err.Error()))
		return serverError(c)
	}
	h.Metrics.ObservePurchase(plan.ID, plan.Amount)

	balance, history := account.Snapshot()
	return c.JSON(http.StatusOK, PurchaseResponse{
		Balance:     balance,
		Plan:        plan,
		Transaction: history[len(history)-1],
	})
}

// Stream открывает SSE-поток изменений баланса устройства.
func (h *CreditHandler) Stream(c echo.Context) error {
	deviceID, ok := auth.DeviceIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return serverError(c)
	}

	ch, unsubscribe := h.Hub.Subscribe(deviceID)
	defer unsubscribe()

	_ = writeSSE(c, notifications.Event{Type: notifications.EventConnected, Data: map[string]string{"device_id": deviceID.String()}})
	flusher.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			if err := writeSSE(c, event); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}

func writeSSE(c echo.Context, event notifications.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if _, err := c.Response().Write([]byte("event: " + event.Type + "\n")); err != nil {
		return err
	}
	if _, err := c.Response().Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
		return err
	}

	return nil
}
