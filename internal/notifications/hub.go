package notifications

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/uxwriter/internal/ledger"
)

const (
	EventConnected      = "connected"
	EventCreditsUpdated = "credits_updated"
)

type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// CreditsUpdated is the payload of a credits_updated event.
type CreditsUpdated struct {
	Balance int64  `json:"balance"`
	Amount  int64  `json:"amount"`
	Reason  string `json:"reason"`
}

type Hub struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]map[chan Event]struct{}
}

// NewHub создает хаб для SSE-подписок.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[uuid.UUID]map[chan Event]struct{}),
	}
}

// Subscribe подписывает устройство на события и возвращает канал и функцию отписки.
func (h *Hub) Subscribe(deviceID uuid.UUID) (<-chan Event, func()) {
	ch := make(chan Event, 10)

	h.mu.Lock()
	defer h.mu.Unlock()

	deviceSubs, ok := h.subscribers[deviceID]
	if !ok {
		deviceSubs = make(map[chan Event]struct{})
		h.subscribers[deviceID] = deviceSubs
	}
	deviceSubs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()

			if subs, exists := h.subscribers[deviceID]; exists {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(h.subscribers, deviceID)
				}
			}
			close(ch)
		})
	}
}

// Publish отправляет событие всем подписчикам устройства; медленные подписчики пропускают событие.
func (h *Hub) Publish(deviceID uuid.UUID, event Event) {
	event.Timestamp = time.Now().UTC()

	h.mu.RLock()
	defer h.mu.RUnlock()

	subs, ok := h.subscribers[deviceID]
	if !ok {
		return
	}

	for ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribers возвращает число активных подписок устройства.
func (h *Hub) Subscribers(deviceID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers[deviceID])
}

// CreditsListener возвращает слушателя реестра, публикующего изменения баланса.
func (h *Hub) CreditsListener() func(uuid.UUID, ledger.Change) {
	return func(deviceID uuid.UUID, change ledger.Change) {
		h.Publish(deviceID, Event{
			Type: EventCreditsUpdated,
			Data: CreditsUpdated{
				Balance: change.Balance,
				Amount:  change.Transaction.Amount,
				Reason:  change.Transaction.Reason,
			},
		})
	}
}
