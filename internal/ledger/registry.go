package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"example.com/uxwriter/internal/storage"
)

// Registry keeps one ledger per device over a shared store.
type Registry struct {
	mu             sync.Mutex
	store          storage.Store
	defaultBalance int64
	opts           []Option
	listener       func(uuid.UUID, Change)
	ledgers        map[uuid.UUID]*Ledger
}

// NewRegistry создает реестр леджеров устройств.
func NewRegistry(store storage.Store, defaultBalance int64, listener func(uuid.UUID, Change), opts ...Option) *Registry {
	return &Registry{
		store:          store,
		defaultBalance: defaultBalance,
		opts:           opts,
		listener:       listener,
		ledgers:        make(map[uuid.UUID]*Ledger),
	}
}

// ForDevice возвращает леджер устройства, загружая его при первом обращении.
func (r *Registry) ForDevice(ctx context.Context, deviceID uuid.UUID) (*Ledger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.ledgers[deviceID]; ok {
		return l, nil
	}

	opts := append([]Option(nil), r.opts...)
	if r.listener != nil {
		opts = append(opts, WithListener(func(change Change) {
			r.listener(deviceID, change)
		}))
	}

	l, err := Initialize(ctx, storage.ForDevice(r.store, deviceID), r.defaultBalance, opts...)
	if err != nil {
		return nil, err
	}

	r.ledgers[deviceID] = l
	return l, nil
}
