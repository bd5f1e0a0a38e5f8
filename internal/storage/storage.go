package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"example.com/uxwriter/internal/config"
)

const (
	KeyCredits    = "user_credits"
	KeyHistory    = "credit_history"
	KeyCredential = "openai_api_key"
)

var ErrNotFound = errors.New("not found")

// Store is a string key-value store standing in for browser local storage.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open открывает хранилище согласно настройкам.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case config.StorageMemory:
		return NewMemoryStore(), nil
	case config.StorageSQLite:
		store, err := OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoragePostgres:
		store, err := OpenPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

type scopedStore struct {
	prefix string
	inner  Store
}

// ForDevice возвращает представление хранилища с ключами одного устройства.
func ForDevice(store Store, deviceID uuid.UUID) Store {
	return &scopedStore{prefix: "device:" + deviceID.String() + ":", inner: store}
}

func (s *scopedStore) Get(ctx context.Context, key string) (string, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *scopedStore) Set(ctx context.Context, key, value string) error {
	return s.inner.Set(ctx, s.prefix+key, value)
}

func (s *scopedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}

// Close is a no-op: the shared store is owned by whoever opened it.
func (s *scopedStore) Close() error {
	return nil
}
