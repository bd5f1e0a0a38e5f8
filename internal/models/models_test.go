package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// TestParseCategory проверяет разбор категорий.
func TestParseCategory(t *testing.T) {
	value, err := ParseCategory(" Errors ")
	if err != nil || value != CategoryErrors {
		t.Fatalf("expected errors, got %v (err=%v)", value, err)
	}

	if _, err := ParseCategory("headlines"); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

// TestCategoryTables проверяет, что у каждой категории есть все статические тексты.
func TestCategoryTables(t *testing.T) {
	categories := Categories()
	if len(categories) != 4 {
		t.Fatalf("expected 4 categories, got %d", len(categories))
	}

	seen := make(map[string]bool)
	for _, category := range categories {
		if category.Label() == "" || category.ExamplePrompt() == "" || category.Instruction() == "" {
			t.Fatalf("category %s has an empty table entry", category)
		}
		if seen[category.Instruction()] {
			t.Fatalf("category %s shares an instruction", category)
		}
		seen[category.Instruction()] = true
	}

	if Category("other").Instruction() != "" {
		t.Fatal("expected empty instruction for unknown category")
	}
}

// TestCreditTransactionDates проверяет оба формата даты в сохраненной истории.
func TestCreditTransactionDates(t *testing.T) {
	payload := `[
		{"date":"2024-03-01T10:00:00.000Z","amount":-1,"reason":"generation"},
		{"date":1709287200000,"amount":50,"reason":"purchase"}
	]`

	var history []CreditTransaction
	if err := json.Unmarshal([]byte(payload), &history); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, tx := range history {
		if !tx.Date.Equal(want) {
			t.Fatalf("entry %d: expected %v, got %v", i, want, tx.Date)
		}
	}
	if history[0].Amount != -1 || history[1].Reason != ReasonPurchase {
		t.Fatalf("unexpected history: %+v", history)
	}

	var broken []CreditTransaction
	if err := json.Unmarshal([]byte(`[{"date":"yesterday","amount":1}]`), &broken); err == nil {
		t.Fatal("expected error for invalid date")
	}
}

// TestPricePerCredit проверяет расчет цены кредита.
func TestPricePerCredit(t *testing.T) {
	plan := CreditPlan{ID: 2, Amount: 50, Price: decimal.NewFromInt(20)}
	if got := plan.PricePerCredit(); !got.Equal(decimal.RequireFromString("0.4")) {
		t.Fatalf("expected 0.4, got %s", got)
	}

	empty := CreditPlan{}
	if !empty.PricePerCredit().IsZero() {
		t.Fatal("expected zero price for empty plan")
	}
}
