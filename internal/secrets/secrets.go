// Package secrets isolates where the provider credential comes from.
package secrets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"example.com/uxwriter/internal/storage"
)

// ErrNoCredential is returned when no source holds a credential.
var ErrNoCredential = errors.New("no credential stored")

// Source returns the credential used to authorize completion requests.
type Source interface {
	Credential(ctx context.Context) (string, error)
}

// StoreSource keeps the credential in the local key-value store.
type StoreSource struct {
	store storage.Store
}

// NewStoreSource создает источник учетных данных поверх хранилища.
func NewStoreSource(store storage.Store) *StoreSource {
	return &StoreSource{store: store}
}

// Credential возвращает сохраненный ключ или ErrNoCredential.
func (s *StoreSource) Credential(ctx context.Context) (string, error) {
	value, err := s.store.Get(ctx, storage.KeyCredential)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrNoCredential
		}
		return "", err
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return "", ErrNoCredential
	}

	return value, nil
}

// Save сохраняет ключ провайдера.
func (s *StoreSource) Save(ctx context.Context, credential string) error {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return ErrNoCredential
	}

	return s.store.Set(ctx, storage.KeyCredential, credential)
}

// Clear удаляет сохраненный ключ.
func (s *StoreSource) Clear(ctx context.Context) error {
	return s.store.Delete(ctx, storage.KeyCredential)
}

// Static is a fixed credential, typically from configuration.
type Static string

func (s Static) Credential(context.Context) (string, error) {
	value := strings.TrimSpace(string(s))
	if value == "" {
		return "", ErrNoCredential
	}
	return value, nil
}

// Chain returns the first credential found among its sources.
type Chain []Source

func (c Chain) Credential(ctx context.Context) (string, error) {
	for _, source := range c {
		if source == nil {
			continue
		}

		value, err := source.Credential(ctx)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, ErrNoCredential) {
			return "", err
		}
	}

	return "", ErrNoCredential
}

// Fingerprint возвращает короткий SHA-256 отпечаток ключа для логов и ответов API.
func Fingerprint(credential string) string {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return ""
	}

	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])[:12]
}
