package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"example.com/uxwriter/internal/auth"
	"example.com/uxwriter/internal/models"
	"example.com/uxwriter/internal/studio"
)

type GenerateHandler struct {
	Devices *Devices
	Studio  *studio.Studio
}

// NewGenerateHandler создает обработчик генерации контента.
func NewGenerateHandler(devices *Devices, s *studio.Studio) *GenerateHandler {
	return &GenerateHandler{Devices: devices, Studio: s}
}

// Prompt emptiness is checked by the studio so that it maps to its own error code.
type GenerateRequest struct {
	Category string `json:"category" validate:"required,oneof=microcopy errors onboarding tooltips"`
	Prompt   string `json:"prompt"`
}

type GenerateResponse struct {
	Category models.Category `json:"category"`
	Content  string          `json:"content"`
	Balance  int64           `json:"balance"`
}

type SelectCategoryRequest struct {
	Category string `json:"category" validate:"required,oneof=microcopy errors onboarding tooltips"`
}

type SelectCategoryResponse struct {
	Category      models.Category `json:"category"`
	ExamplePrompt string          `json:"example_prompt"`
}

// Generate списывает кредит и запрашивает текст у провайдера.
func (h *GenerateHandler) Generate(c echo.Context) error {
	var req GenerateRequest
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

	outcome, err := h.Studio.Generate(c.Request().Context(), account, h.Devices.credentials(deviceID), studio.Request{
		DeviceID: deviceID,
		Category: models.Category(req.Category),
		Prompt:   req.Prompt,
	})
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusOK, GenerateResponse{
		Category: outcome.Result.Category,
		Content:  outcome.Result.Content,
		Balance:  outcome.Balance,
	})
}

// SelectCategory переключает категорию: сбрасывает результат и возвращает пример описания.
func (h *GenerateHandler) SelectCategory(c echo.Context) error {
	deviceID, ok := auth.DeviceIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req SelectCategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	category := models.Category(req.Category)
	example, err := h.Studio.SelectCategory(deviceID, category)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusOK, SelectCategoryResponse{Category: category, ExamplePrompt: example})
}

// Result возвращает последний сгенерированный текст.
func (h *GenerateHandler) Result(c echo.Context) error {
	deviceID, ok := auth.DeviceIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	result, ok := h.Studio.LastResult(deviceID)
	if !ok {
		return notFound(c, "no generated content")
	}

	return c.JSON(http.StatusOK, result)
}

// ClearResult очищает последний результат.
func (h *GenerateHandler) ClearResult(c echo.Context) error {
	deviceID, ok := auth.DeviceIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	h.Studio.ClearResult(deviceID)
	return c.NoContent(http.StatusNoContent)
}
