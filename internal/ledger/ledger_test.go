package ledger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"example.com/uxwriter/internal/models"
	"example.com/uxwriter/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newLedger(t *testing.T, store storage.Store, balance int64) *Ledger {
	t.Helper()

	l, err := Initialize(context.Background(), store, balance)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return l
}

type failingStore struct {
	storage.Store
}

func (failingStore) Set(context.Context, string, string) error {
	return errors.New("disk full")
}

// TestInitializeSeedsDefault проверяет начальный баланс пустого хранилища.
func TestInitializeSeedsDefault(t *testing.T) {
	l := newLedger(t, storage.NewMemoryStore(), 5)

	if l.Balance() != 5 {
		t.Fatalf("expected balance 5, got %d", l.Balance())
	}
	if len(l.History()) != 0 {
		t.Fatalf("expected empty history, got %d entries", len(l.History()))
	}
}

// TestInitializeCorruptHistory проверяет откат к пустой истории при битых данных.
func TestInitializeCorruptHistory(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	_ = store.Set(ctx, storage.KeyCredits, "12")
	_ = store.Set(ctx, storage.KeyHistory, "{not json")

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	l, err := Initialize(ctx, store, 5, WithLogger(logger))
	if err != nil {
		t.Fatalf("expected corrupt history to be tolerated, got %v", err)
	}

	if l.Balance() != 12 {
		t.Fatalf("expected persisted balance 12, got %d", l.Balance())
	}
	if len(l.History()) != 0 {
		t.Fatalf("expected empty history, got %v", l.History())
	}
	if !strings.Contains(logs.String(), "failed to parse credit history") {
		t.Fatalf("expected warning to be logged, got %q", logs.String())
	}
}

// TestInitializeCorruptBalance проверяет откат к начальному балансу при битом значении.
func TestInitializeCorruptBalance(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	_ = store.Set(ctx, storage.KeyCredits, "NaN")

	l := newLedger(t, store, 5)
	if l.Balance() != 5 {
		t.Fatalf("expected default balance 5, got %d", l.Balance())
	}

	_ = store.Set(ctx, storage.KeyCredits, "-3")
	l = newLedger(t, store, 5)
	if l.Balance() != 5 {
		t.Fatalf("expected negative balance to be rejected, got %d", l.Balance())
	}
}

// TestDebitWithinBalance проверяет списание при достаточном балансе.
func TestDebitWithinBalance(t *testing.T) {
	for b := int64(0); b <= 6; b++ {
		for a := int64(1); a <= b; a++ {
			l := newLedger(t, storage.NewMemoryStore(), b)

			ok, err := l.Debit(context.Background(), a, "")
			if err != nil || !ok {
				t.Fatalf("debit(%d) on %d: expected success, got ok=%v err=%v", a, b, ok, err)
			}
			if l.Balance() != b-a {
				t.Fatalf("debit(%d) on %d: expected %d, got %d", a, b, b-a, l.Balance())
			}

			history := l.History()
			if len(history) != 1 || history[0].Amount != -a || history[0].Reason != models.ReasonGeneration {
				t.Fatalf("debit(%d) on %d: unexpected history %+v", a, b, history)
			}
		}
	}
}

// TestDebitInsufficient проверяет отказ без изменений при нехватке баланса.
func TestDebitInsufficient(t *testing.T) {
	for b := int64(0); b <= 4; b++ {
		l := newLedger(t, storage.NewMemoryStore(), b)

		ok, err := l.Debit(context.Background(), b+1, "generation")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ok {
			t.Fatalf("debit(%d) on %d: expected rejection", b+1, b)
		}
		if l.Balance() != b {
			t.Fatalf("expected balance %d, got %d", b, l.Balance())
		}
		if len(l.History()) != 0 {
			t.Fatalf("expected no transaction, got %v", l.History())
		}
	}
}

// TestCredit проверяет начисление кредитов.
func TestCredit(t *testing.T) {
	for _, c := range []int64{1, 10, 50, 100} {
		l := newLedger(t, storage.NewMemoryStore(), 3)

		ok, err := l.Credit(context.Background(), c, "")
		if err != nil || !ok {
			t.Fatalf("credit(%d): expected success, got ok=%v err=%v", c, ok, err)
		}
		if l.Balance() != 3+c {
			t.Fatalf("credit(%d): expected %d, got %d", c, 3+c, l.Balance())
		}

		history := l.History()
		if len(history) != 1 || history[0].Amount != c || history[0].Reason != models.ReasonPurchase {
			t.Fatalf("credit(%d): unexpected history %+v", c, history)
		}
	}
}

// TestInvalidAmount проверяет отказ для неположительных сумм.
func TestInvalidAmount(t *testing.T) {
	l := newLedger(t, storage.NewMemoryStore(), 3)

	if _, err := l.Credit(context.Background(), 0, ""); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := l.Debit(context.Background(), -1, ""); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if l.Balance() != 3 || len(l.History()) != 0 {
		t.Fatal("expected ledger to be untouched")
	}
}

// TestHasSufficientBalanceIsPure проверяет отсутствие побочных эффектов у проверки.
func TestHasSufficientBalanceIsPure(t *testing.T) {
	l := newLedger(t, storage.NewMemoryStore(), 2)
	_, _ = l.Debit(context.Background(), 1, "")

	beforeBalance, beforeHistory := l.Snapshot()
	for i := int64(0); i < 5; i++ {
		_ = l.HasSufficientBalance(i)
	}
	afterBalance, afterHistory := l.Snapshot()

	if beforeBalance != afterBalance {
		t.Fatalf("balance changed from %d to %d", beforeBalance, afterBalance)
	}
	if diff := cmp.Diff(beforeHistory, afterHistory); diff != "" {
		t.Fatalf("history changed (-before +after):\n%s", diff)
	}
	if !l.HasSufficientBalance(1) || l.HasSufficientBalance(2) {
		t.Fatal("unexpected sufficiency result")
	}
}

// TestRoundTrip проверяет сохранение и повторную загрузку баланса и истории.
func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	clock := time.Date(2024, 5, 1, 9, 30, 0, 123456789, time.UTC)

	l, err := Initialize(ctx, store, 5, WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	_, _ = l.Debit(ctx, 1, "")
	_, _ = l.Credit(ctx, 50, "")
	_, _ = l.Debit(ctx, 3, "bulk")

	reloaded := newLedger(t, store, 0)

	if reloaded.Balance() != l.Balance() {
		t.Fatalf("expected balance %d, got %d", l.Balance(), reloaded.Balance())
	}
	if diff := cmp.Diff(l.History(), reloaded.History()); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
}

// TestDebitScenario проверяет сценарий из пяти списаний с балансом 5.
func TestDebitScenario(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, storage.NewMemoryStore(), 5)

	for i := 0; i < 4; i++ {
		if ok, _ := l.Debit(ctx, 1, ""); !ok {
			t.Fatalf("debit %d: expected success", i+1)
		}
	}
	if l.Balance() != 1 {
		t.Fatalf("expected balance 1, got %d", l.Balance())
	}
	history := l.History()
	if len(history) != 4 {
		t.Fatalf("expected 4 transactions, got %d", len(history))
	}
	for _, tx := range history {
		if tx.Amount != -1 {
			t.Fatalf("expected amount -1, got %d", tx.Amount)
		}
	}

	if ok, _ := l.Debit(ctx, 1, ""); !ok || l.Balance() != 0 {
		t.Fatalf("fifth debit: expected success and balance 0, got ok=%v balance=%d", ok, l.Balance())
	}
	if ok, _ := l.Debit(ctx, 1, ""); ok || l.Balance() != 0 {
		t.Fatalf("sixth debit: expected rejection and balance 0, got ok=%v balance=%d", ok, l.Balance())
	}
}

// TestPurchaseScenario проверяет покупку 50 кредитов при балансе 2.
func TestPurchaseScenario(t *testing.T) {
	l := newLedger(t, storage.NewMemoryStore(), 2)

	if _, err := l.Credit(context.Background(), 50, models.ReasonPurchase); err != nil {
		t.Fatalf("credit: %v", err)
	}

	if l.Balance() != 52 {
		t.Fatalf("expected 52, got %d", l.Balance())
	}
	history := l.History()
	if len(history) != 1 || history[0].Amount != 50 || history[0].Reason != "purchase" {
		t.Fatalf("unexpected history %+v", history)
	}
}

// TestConcurrentDebits проверяет отсутствие потерянных обновлений при гонке списаний.
func TestConcurrentDebits(t *testing.T) {
	const balance = 20
	l := newLedger(t, storage.NewMemoryStore(), balance)

	results := make(chan bool, 50)
	var g errgroup.Group
	for i := 0; i < 50; i++ {
		g.Go(func() error {
			ok, err := l.Debit(context.Background(), 1, "")
			results <- ok
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	close(results)

	succeeded := 0
	for ok := range results {
		if ok {
			succeeded++
		}
	}

	if succeeded != balance {
		t.Fatalf("expected %d successful debits, got %d", balance, succeeded)
	}
	if l.Balance() != 0 {
		t.Fatalf("expected balance 0, got %d", l.Balance())
	}
	if len(l.History()) != balance {
		t.Fatalf("expected %d transactions, got %d", balance, len(l.History()))
	}
}

// TestPersistFailureKeepsMemoryState проверяет, что ошибка записи не откатывает операцию.
func TestPersistFailureKeepsMemoryState(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	l, err := Initialize(context.Background(), failingStore{Store: storage.NewMemoryStore()}, 3, WithLogger(logger))
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if ok, err := l.Debit(context.Background(), 1, ""); !ok || err != nil {
		t.Fatalf("expected debit to succeed, got ok=%v err=%v", ok, err)
	}
	if l.Balance() != 2 {
		t.Fatalf("expected balance 2, got %d", l.Balance())
	}
	if !strings.Contains(logs.String(), "failed to persist credit balance") {
		t.Fatalf("expected persistence error to be logged, got %q", logs.String())
	}
}

// TestListener проверяет уведомление о каждом изменении.
func TestListener(t *testing.T) {
	var changes []Change
	l, err := Initialize(context.Background(), storage.NewMemoryStore(), 1, WithListener(func(c Change) {
		changes = append(changes, c)
	}))
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	_, _ = l.Debit(context.Background(), 1, "")
	_, _ = l.Debit(context.Background(), 1, "")
	_, _ = l.Credit(context.Background(), 10, "")

	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}
	if changes[0].Balance != 0 || changes[1].Balance != 10 || changes[1].Transaction.Amount != 10 {
		t.Fatalf("unexpected changes %+v", changes)
	}
}

// TestRegistry проверяет кэширование и изоляцию леджеров по устройствам.
func TestRegistry(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	var notified []uuid.UUID
	registry := NewRegistry(store, 5, func(deviceID uuid.UUID, _ Change) {
		notified = append(notified, deviceID)
	})

	first := uuid.New()
	second := uuid.New()

	a, err := registry.ForDevice(ctx, first)
	if err != nil {
		t.Fatalf("for device: %v", err)
	}
	again, _ := registry.ForDevice(ctx, first)
	if a != again {
		t.Fatal("expected the same ledger instance for one device")
	}

	_, _ = a.Debit(ctx, 2, "")

	b, _ := registry.ForDevice(ctx, second)
	if b.Balance() != 5 {
		t.Fatalf("expected untouched balance for second device, got %d", b.Balance())
	}

	if len(notified) != 1 || notified[0] != first {
		t.Fatalf("expected one notification for first device, got %v", notified)
	}

	persisted, err := storage.ForDevice(store, first).Get(ctx, storage.KeyCredits)
	if err != nil || persisted != "3" {
		t.Fatalf("expected persisted balance 3, got %q (err=%v)", persisted, err)
	}
}
