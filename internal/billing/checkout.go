package billing

import (
	"context"
	"time"

	"example.com/uxwriter/internal/models"
)

// Account is the part of the ledger a purchase needs.
type Account interface {
	Credit(ctx context.Context, amount int64, reason string) (bool, error)
}

// Checkout simulates payment processing and credits the purchased plan.
type Checkout struct {
	catalog *Catalog
	delay   time.Duration
}

// NewCheckout создает симулированную оплату с задержкой обработки.
func NewCheckout(catalog *Catalog, delay time.Duration) *Checkout {
	return &Checkout{catalog: catalog, delay: delay}
}

// Catalog возвращает каталог пакетов.
func (c *Checkout) Catalog() *Catalog {
	return c.catalog
}

// Purchase "оплачивает" пакет и начисляет кредиты с причиной "purchase".
func (c *Checkout) Purchase(ctx context.Context, account Account, planID int) (models.CreditPlan, error) {
	plan, err := c.catalog.Find(planID)
	if err != nil {
		return models.CreditPlan{}, err
	}

	if c.delay > 0 {
		timer := time.NewTimer(c.delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return models.CreditPlan{}, ctx.Err()
		case <-timer.C:
		}
	}

	if _, err := account.Credit(ctx, plan.Amount, models.ReasonPurchase); err != nil {
		return models.CreditPlan{}, err
	}

	return plan, nil
}
