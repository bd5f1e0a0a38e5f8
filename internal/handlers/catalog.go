package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"example.com/uxwriter/internal/billing"
	"example.com/uxwriter/internal/models"
)

type CatalogHandler struct {
	Catalog *billing.Catalog
}

// NewCatalogHandler создает обработчик справочников.
func NewCatalogHandler(catalog *billing.Catalog) *CatalogHandler {
	return &CatalogHandler{Catalog: catalog}
}

type CategoryResponse struct {
	ID            models.Category `json:"id"`
	Label         string          `json:"label"`
	ExamplePrompt string          `json:"example_prompt"`
}

type PlanResponse struct {
	models.CreditPlan
	PricePerCredit string `json:"price_per_credit"`
}

// Categories возвращает категории контента с примерами описаний.
func (h *CatalogHandler) Categories(c echo.Context) error {
	categories := models.Categories()
	response := make([]CategoryResponse, 0, len(categories))
	for _, category := range categories {
		response = append(response, CategoryResponse{
			ID:            category,
			Label:         category.Label(),
			ExamplePrompt: category.ExamplePrompt(),
		})
	}

	return c.JSON(http.StatusOK, response)
}

// Plans возвращает пакеты кредитов.
func (h *CatalogHandler) Plans(c echo.Context) error {
	plans := h.Catalog.Plans()
	response := make([]PlanResponse, 0, len(plans))
	for _, plan := range plans {
		response = append(response, PlanResponse{
			CreditPlan:     plan,
			PricePerCredit: plan.PricePerCredit().StringFixed(2),
		})
	}

	return c.JSON(http.StatusOK, response)
}
