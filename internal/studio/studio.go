// Package studio composes the ledger and the generator the way the writing form does.
package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/uxwriter/internal/ai"
	"example.com/uxwriter/internal/ledger"
	"example.com/uxwriter/internal/metrics"
	"example.com/uxwriter/internal/models"
	"example.com/uxwriter/internal/secrets"
)

var (
	ErrEmptyPrompt         = errors.New("prompt is empty")
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// Account is the ledger surface a generation needs.
type Account interface {
	Debit(ctx context.Context, amount int64, reason string) (bool, error)
	Balance() int64
}

type Generator interface {
	Generate(ctx context.Context, category models.Category, prompt, credential string) (string, error)
}

// Request is one generation attempt for a device.
type Request struct {
	DeviceID uuid.UUID
	Category models.Category
	Prompt   string
}

type Outcome struct {
	Result  models.GenerationResult
	Balance int64
}

// Studio keeps the last result per device and enforces the order of checks.
type Studio struct {
	generator Generator
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	results map[uuid.UUID]models.GenerationResult
}

// New создает студию генерации; metrics может быть nil.
func New(generator Generator, m *metrics.Metrics, logger *slog.Logger) *Studio {
	if logger == nil {
		logger = slog.Default()
	}

	return &Studio{
		generator: generator,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
		results:   make(map[uuid.UUID]models.GenerationResult),
	}
}

// Generate проверяет описание, списывает кредит, получает ключ и запрашивает текст.
// The credit is not refunded when the credential or the provider fails afterwards.
func (s *Studio) Generate(ctx context.Context, account Account, credentials secrets.Source, req Request) (Outcome, error) {
	s.ClearResult(req.DeviceID)

	if !req.Category.Valid() {
		return Outcome{}, models.ErrUnknownCategory
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		s.record(req, metrics.OutcomeEmptyPrompt, "")
		return Outcome{}, ErrEmptyPrompt
	}

	ok, err := account.Debit(ctx, ledger.DefaultDebitAmount, models.ReasonGeneration)
	if err != nil {
		s.record(req, metrics.OutcomeFailed, "")
		return Outcome{}, fmt.Errorf("debit credits: %w", err)
	}
	if !ok {
		s.record(req, metrics.OutcomeInsufficientCredit, "")
		return Outcome{}, ErrInsufficientCredits
	}
	s.metrics.ObserveDebit(ledger.DefaultDebitAmount)

	credential, err := credentials.Credential(ctx)
	if err != nil {
		if errors.Is(err, secrets.ErrNoCredential) {
			s.record(req, metrics.OutcomeMissingCredential, "")
			return Outcome{}, ai.ErrMissingCredential
		}
		s.record(req, metrics.OutcomeFailed, "")
		return Outcome{}, fmt.Errorf("load credential: %w", err)
	}

	content, err := s.generator.Generate(ctx, req.Category, prompt, credential)
	if err != nil {
		s.record(req, classify(err), secrets.Fingerprint(credential))
		return Outcome{}, err
	}

	result := models.GenerationResult{
		Category:    req.Category,
		Prompt:      prompt,
		Content:     content,
		GeneratedAt: s.now().UTC(),
	}

	s.mu.Lock()
	s.results[req.DeviceID] = result
	s.mu.Unlock()

	s.record(req, metrics.OutcomeSuccess, secrets.Fingerprint(credential))
	return Outcome{Result: result, Balance: account.Balance()}, nil
}

// LastResult возвращает последний успешный результат устройства.
func (s *Studio) LastResult(deviceID uuid.UUID) (models.GenerationResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, ok := s.results[deviceID]
	return result, ok
}

// ClearResult удаляет последний результат устройства.
func (s *Studio) ClearResult(deviceID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.results, deviceID)
}

// SelectCategory сбрасывает результат и возвращает пример описания для категории.
func (s *Studio) SelectCategory(deviceID uuid.UUID, category models.Category) (string, error) {
	if !category.Valid() {
		return "", models.ErrUnknownCategory
	}

	s.ClearResult(deviceID)
	return category.ExamplePrompt(), nil
}

func (s *Studio) record(req Request, outcome, fingerprint string) {
	s.metrics.ObserveGeneration(string(req.Category), outcome)

	attrs := []any{
		slog.String("device_id", req.DeviceID.String()),
		slog.String("category", string(req.Category)),
		slog.String("outcome", outcome),
	}
	if fingerprint != "" {
		attrs = append(attrs, slog.String("credential", fingerprint))
	}

	if outcome == metrics.OutcomeSuccess {
		s.logger.Info("content generated", attrs...)
		return
	}
	s.logger.Warn("content generation rejected", attrs...)
}

func classify(err error) string {
	var providerErr *ai.ProviderError
	var transportErr *ai.TransportError

	switch {
	case errors.Is(err, ai.ErrMissingCredential):
		return metrics.OutcomeMissingCredential
	case errors.As(err, &providerErr):
		return metrics.OutcomeProviderError
	case errors.As(err, &transportErr):
		return metrics.OutcomeTransportError
	default:
		return metrics.OutcomeFailed
	}
}
