package billing

import (
	"errors"
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"example.com/uxwriter/internal/models"
)

var ErrUnknownPlan = errors.New("unknown credit plan")

// DefaultPlans возвращает стандартные пакеты кредитов.
func DefaultPlans() []models.CreditPlan {
	return []models.CreditPlan{
		{ID: 1, Amount: 10, Price: decimal.NewFromInt(5)},
		{ID: 2, Amount: 50, Price: decimal.NewFromInt(20), Popular: true, Savings: "20% off"},
		{ID: 3, Amount: 100, Price: decimal.NewFromInt(35), Savings: "30% off"},
	}
}

type Catalog struct {
	plans []models.CreditPlan
}

type catalogFile struct {
	Plans []models.CreditPlan `toml:"plans"`
}

// NewCatalog проверяет и упорядочивает список пакетов.
func NewCatalog(plans []models.CreditPlan) (*Catalog, error) {
	if len(plans) == 0 {
		return nil, errors.New("credit plan catalog is empty")
	}

	seen := make(map[int]bool, len(plans))
	sorted := make([]models.CreditPlan, 0, len(plans))
	for _, plan := range plans {
		if plan.ID <= 0 {
			return nil, fmt.Errorf("credit plan id must be positive: %d", plan.ID)
		}
		if seen[plan.ID] {
			return nil, fmt.Errorf("duplicate credit plan id %d", plan.ID)
		}
		if plan.Amount <= 0 {
			return nil, fmt.Errorf("credit plan %d: amount must be positive", plan.ID)
		}
		if plan.Price.IsNegative() {
			return nil, fmt.Errorf("credit plan %d: price must not be negative", plan.ID)
		}

		seen[plan.ID] = true
		sorted = append(sorted, plan)
	}

	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return &Catalog{plans: sorted}, nil
}

// LoadCatalog читает пакеты из TOML-файла; пустой путь дает стандартный каталог.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return NewCatalog(DefaultPlans())
	}

	var file catalogFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("decode credit plans %s: %w", path, err)
	}

	return NewCatalog(file.Plans)
}

// Plans возвращает копию списка пакетов.
func (c *Catalog) Plans() []models.CreditPlan {
	return append([]models.CreditPlan(nil), c.plans...)
}

// Find возвращает пакет по идентификатору.
func (c *Catalog) Find(id int) (models.CreditPlan, error) {
	for _, plan := range c.plans {
		if plan.ID == id {
			return plan, nil
		}
	}

	return models.CreditPlan{}, ErrUnknownPlan
}
