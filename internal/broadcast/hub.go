package broadcast

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shenikar/feuerwehr_melder/internal/metrics"
	"github.com/sirupsen/logrus"
)

// Subscriber - живое подключение, которому рассылаются сообщения
type Subscriber interface {
	ID() uuid.UUID
	Send(ctx context.Context, payload []byte) error
	// Close разрывает подключение. Повторный вызов допустим.
	Close() error
}

// Hub хранит множество подписчиков и рассылает им сообщения.
// Подписчик, которому не удалось доставить сообщение, удаляется после прохода рассылки.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]Subscriber
	logger      *logrus.Logger
}

// NewHub создает новый Hub
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		subscribers: make(map[uuid.UUID]Subscriber),
		logger:      logger,
	}
}

// Connect регистрирует подписчика
func (h *Hub) Connect(sub Subscriber) {
	h.mu.Lock()
	h.subscribers[sub.ID()] = sub
	count := len(h.subscribers)
	h.mu.Unlock()

	metrics.Subscribers.Set(float64(count))
	h.logger.WithField("subscriber_id", sub.ID()).WithField("subscribers", count).Info("Subscriber connected")
}

// Disconnect удаляет подписчика. Повторный вызов не является ошибкой.
func (h *Hub) Disconnect(sub Subscriber) {
	h.mu.Lock()
	_, ok := h.subscribers[sub.ID()]
	delete(h.subscribers, sub.ID())
	count := len(h.subscribers)
	h.mu.Unlock()

	if ok {
		metrics.Subscribers.Set(float64(count))
		h.logger.WithField("subscriber_id", sub.ID()).WithField("subscribers", count).Info("Subscriber disconnected")
	}
}

// Count возвращает число подключенных подписчиков
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Broadcast доставляет payload всем текущим подписчикам
func (h *Hub) Broadcast(ctx context.Context, payload []byte) {
	h.mu.RLock()
	snapshot := make([]Subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		snapshot = append(snapshot, sub)
	}
	h.mu.RUnlock()

	var stale []Subscriber
	for _, sub := range snapshot {
		if err := h.deliver(ctx, sub, payload); err != nil {
			h.logger.WithError(err).WithField("subscriber_id", sub.ID()).Warn("Failed to deliver message, pruning subscriber")
			stale = append(stale, sub)
			continue
		}
		metrics.BroadcastDeliveries.Inc()
	}

	if len(stale) == 0 {
		return
	}

	h.mu.Lock()
	for _, sub := range stale {
		delete(h.subscribers, sub.ID())
	}
	count := len(h.subscribers)
	h.mu.Unlock()

	metrics.BroadcastPruned.Add(float64(len(stale)))
	metrics.Subscribers.Set(float64(count))

	for _, sub := range stale {
		if err := sub.Close(); err != nil {
			h.logger.WithError(err).WithField("subscriber_id", sub.ID()).Debug("Failed to close pruned subscriber")
		}
	}
}

// deliver изолирует панику одного подписчика от остальных
func (h *Hub) deliver(ctx context.Context, sub Subscriber, payload []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &deliveryPanic{value: r}
		}
	}()
	return sub.Send(ctx, payload)
}

type deliveryPanic struct {
	value any
}

func (p *deliveryPanic) Error() string {
	return fmt.Sprintf("subscriber panicked during send: %v", p.value)
}
