package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryMicrocopy  Category = "microcopy"
	CategoryErrors     Category = "errors"
	CategoryOnboarding Category = "onboarding"
	CategoryTooltips   Category = "tooltips"
)

const (
	ReasonPurchase   = "purchase"
	ReasonGeneration = "generation"
)

var ErrUnknownCategory = errors.New("unknown content category")

// Categories возвращает все категории в порядке отображения.
func Categories() []Category {
	return []Category{CategoryMicrocopy, CategoryErrors, CategoryOnboarding, CategoryTooltips}
}

// ParseCategory разбирает категорию из пользовательского ввода.
func ParseCategory(value string) (Category, error) {
	category := Category(strings.ToLower(strings.TrimSpace(value)))
	if !category.Valid() {
		return "", ErrUnknownCategory
	}

	return category, nil
}

// Valid сообщает, входит ли значение в фиксированный список категорий.
func (c Category) Valid() bool {
	switch c {
	case CategoryMicrocopy, CategoryErrors, CategoryOnboarding, CategoryTooltips:
		return true
	default:
		return false
	}
}

// Label возвращает название категории для интерфейса.
func (c Category) Label() string {
	switch c {
	case CategoryMicrocopy:
		return "Microcopy"
	case CategoryErrors:
		return "Error Messages"
	case CategoryOnboarding:
		return "Onboarding"
	case CategoryTooltips:
		return "Tooltips"
	default:
		return ""
	}
}

// ExamplePrompt возвращает пример описания, которым заполняется форма.
func (c Category) ExamplePrompt() string {
	switch c {
	case CategoryMicrocopy:
		return "Create clear and concise button text for a checkout process"
	case CategoryErrors:
		return "Write a friendly error message for a failed payment"
	case CategoryOnboarding:
		return "Create welcome message text for new app users"
	case CategoryTooltips:
		return "Write tooltip text explaining how to use the filter function"
	default:
		return ""
	}
}

// Instruction возвращает системную инструкцию для провайдера.
func (c Category) Instruction() string {
	switch c {
	case CategoryMicrocopy:
		return "You are an expert UX writer specializing in concise, user-friendly microcopy. Create clear button text, labels, or short interface copy that's engaging and aligns with best UX practices. Be direct and use active voice."
	case CategoryErrors:
		return "You are an expert UX writer specializing in friendly error messages. Create error messages that clearly explain what went wrong, why it happened, and how to fix it, without being technical or blaming the user."
	case CategoryOnboarding:
		return "You are an expert UX writer specializing in onboarding experiences. Create welcoming, clear, and concise onboarding text that orients new users and highlights key features without overwhelming them."
	case CategoryTooltips:
		return "You are an expert UX writer specializing in tooltips and helper text. Create concise, helpful tooltips that provide just the right amount of context or instruction without stating the obvious."
	default:
		return ""
	}
}

// CreditTransaction is immutable once appended to the history.
type CreditTransaction struct {
	Date   time.Time `json:"date"`
	Amount int64     `json:"amount"`
	Reason string    `json:"reason"`
}

// UnmarshalJSON принимает дату как строку RFC 3339 или как метку времени в миллисекундах.
func (t *CreditTransaction) UnmarshalJSON(data []byte) error {
	var raw struct {
		Date   json.RawMessage `json:"date"`
		Amount int64           `json:"amount"`
		Reason string          `json:"reason"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	date, err := parseTransactionDate(raw.Date)
	if err != nil {
		return err
	}

	t.Date = date
	t.Amount = raw.Amount
	t.Reason = raw.Reason
	return nil
}

func parseTransactionDate(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, errors.New("transaction date is required")
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		parsed, err := time.Parse(time.RFC3339Nano, text)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid transaction date %q: %w", text, err)
		}
		return parsed, nil
	}

	var millis int64
	if err := json.Unmarshal(raw, &millis); err != nil {
		return time.Time{}, fmt.Errorf("invalid transaction date %s", string(raw))
	}

	return time.UnixMilli(millis).UTC(), nil
}

type CreditPlan struct {
	ID      int             `json:"id" toml:"id"`
	Amount  int64           `json:"amount" toml:"amount"`
	Price   decimal.Decimal `json:"price" toml:"price"`
	Popular bool            `json:"popular,omitempty" toml:"popular"`
	Savings string          `json:"savings,omitempty" toml:"savings"`
}

// PricePerCredit возвращает цену одного кредита в плане.
func (p CreditPlan) PricePerCredit() decimal.Decimal {
	if p.Amount <= 0 {
		return decimal.Zero
	}

	return p.Price.Div(decimal.NewFromInt(p.Amount)).Round(2)
}

type GenerationResult struct {
	Category    Category  `json:"category"`
	Prompt      string    `json:"prompt"`
	Content     string    `json:"content"`
	GeneratedAt time.Time `json:"generated_at"`
}
