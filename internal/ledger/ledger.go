package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"example.com/uxwriter/internal/models"
	"example.com/uxwriter/internal/storage"
)

// DefaultDebitAmount is the cost of one generation.
const DefaultDebitAmount int64 = 1

var ErrInvalidAmount = errors.New("amount must be positive")

// Change describes one applied mutation.
type Change struct {
	Balance     int64
	Transaction models.CreditTransaction
}

type Option func(*Ledger)

// WithLogger задает логгер леджера.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithClock подменяет источник времени для транзакций.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithListener подписывает функцию на каждое изменение баланса.
// Listener is invoked while the ledger lock is held and must not call back into the ledger.
func WithListener(listener func(Change)) Option {
	return func(l *Ledger) {
		l.listener = listener
	}
}

// Ledger owns the credit balance and its append-only history.
type Ledger struct {
	mu       sync.Mutex
	store    storage.Store
	logger   *slog.Logger
	now      func() time.Time
	listener func(Change)
	balance  int64
	history  []models.CreditTransaction
}

// Initialize загружает баланс и историю из хранилища или создает их с начальным балансом.
func Initialize(ctx context.Context, store storage.Store, defaultBalance int64, opts ...Option) (*Ledger, error) {
	if defaultBalance < 0 {
		return nil, fmt.Errorf("default balance must not be negative: %d", defaultBalance)
	}

	l := &Ledger{
		store:   store,
		logger:  slog.Default(),
		now:     time.Now,
		balance: defaultBalance,
		history: []models.CreditTransaction{},
	}
	for _, opt := range opts {
		opt(l)
	}

	rawBalance, err := store.Get(ctx, storage.KeyCredits)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("load %s: %w", storage.KeyCredits, err)
	default:
		balance, parseErr := strconv.ParseInt(strings.TrimSpace(rawBalance), 10, 64)
		if parseErr != nil || balance < 0 {
			l.logger.Warn("persisted credit balance is unreadable, using default",
				slog.String("value", rawBalance),
				slog.Int64("default", defaultBalance),
			)
		} else {
			l.balance = balance
		}
	}

	rawHistory, err := store.Get(ctx, storage.KeyHistory)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("load %s: %w", storage.KeyHistory, err)
	default:
		history, parseErr := decodeHistory(rawHistory)
		if parseErr != nil {
			l.logger.Warn("failed to parse credit history, starting empty", slog.String("error", parseErr.Error()))
		} else {
			l.history = history
		}
	}

	return l, nil
}

// Credit начисляет кредиты; пустая причина заменяется на "purchase".
func (l *Ledger) Credit(ctx context.Context, amount int64, reason string) (bool, error) {
	if amount <= 0 {
		return false, ErrInvalidAmount
	}
	if strings.TrimSpace(reason) == "" {
		reason = models.ReasonPurchase
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.apply(ctx, amount, reason)
	return true, nil
}

// Debit списывает кредиты, если их достаточно; пустая причина заменяется на "generation".
// Insufficient balance is reported as false without an error and leaves the ledger untouched.
func (l *Ledger) Debit(ctx context.Context, amount int64, reason string) (bool, error) {
	if amount <= 0 {
		return false, ErrInvalidAmount
	}
	if strings.TrimSpace(reason) == "" {
		reason = models.ReasonGeneration
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balance < amount {
		return false, nil
	}

	l.apply(ctx, -amount, reason)
	return true, nil
}

// HasSufficientBalance сообщает, хватит ли баланса на списание.
func (l *Ledger) HasSufficientBalance(amount int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.balance >= amount
}

// Balance возвращает текущий баланс.
func (l *Ledger) Balance() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.balance
}

// History возвращает копию истории транзакций в порядке создания.
func (l *Ledger) History() []models.CreditTransaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]models.CreditTransaction(nil), l.history...)
}

// Snapshot возвращает согласованные баланс и историю.
func (l *Ledger) Snapshot() (int64, []models.CreditTransaction) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.balance, append([]models.CreditTransaction(nil), l.history...)
}

// apply must be called with l.mu held.
func (l *Ledger) apply(ctx context.Context, amount int64, reason string) {
	tx := models.CreditTransaction{
		Date:   l.now().UTC(),
		Amount: amount,
		Reason: reason,
	}

	l.balance += amount
	l.history = append(l.history, tx)
	l.persist(ctx)

	if l.listener != nil {
		l.listener(Change{Balance: l.balance, Transaction: tx})
	}
}

// persist is fire-and-forget: a failed write is logged and the in-memory state stays authoritative.
func (l *Ledger) persist(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	if err := l.store.Set(ctx, storage.KeyCredits, strconv.FormatInt(l.balance, 10)); err != nil {
		l.logger.Error("failed to persist credit balance", slog.String("error", err.Error()))
	}

	payload, err := json.Marshal(l.history)
	if err != nil {
		l.logger.Error("failed to encode credit history", slog.String("error", err.Error()))
		return
	}

	if err := l.store.Set(ctx, storage.KeyHistory, string(payload)); err != nil {
		l.logger.Error("failed to persist credit history", slog.String("error", err.Error()))
	}
}

func decodeHistory(raw string) ([]models.CreditTransaction, error) {
	var history []models.CreditTransaction
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return nil, err
	}

	if history == nil {
		history = []models.CreditTransaction{}
	}

	return history, nil
}
