package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/shenikar/feuerwehr_melder/internal/metrics"
	"github.com/sirupsen/logrus"
)

// ErrQueueFull возвращается, когда очередь исходящих сообщений переполнена
var ErrQueueFull = errors.New("event queue is full")

// Publisher - интерфейс для публикации сообщений.
// Publish не должен блокировать вызывающего и ждать доставки.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Sink получает готовые к отправке сообщения
type Sink interface {
	Broadcast(ctx context.Context, payload []byte)
}

// Dispatcher - очередь исходящих сообщений в памяти процесса.
// Мутации кладут сообщение в буферизированный канал, воркер передает его в Sink.
type Dispatcher struct {
	queue  chan Message
	sink   Sink
	logger *logrus.Logger
}

// NewDispatcher создает новый Dispatcher
func NewDispatcher(sink Sink, size int, logger *logrus.Logger) *Dispatcher {
	if size < 1 {
		size = 1
	}
	return &Dispatcher{
		queue:  make(chan Message, size),
		sink:   sink,
		logger: logger,
	}
}

// Publish ставит сообщение в очередь без блокировки
func (d *Dispatcher) Publish(_ context.Context, msg Message) error {
	select {
	case d.queue <- msg:
		metrics.EventsPublished.WithLabelValues(string(msg.Type)).Inc()
		return nil
	default:
		metrics.EventsDropped.Inc()
		return ErrQueueFull
	}
}

// Start запускает горутину, которая разбирает очередь
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("Starting event dispatcher...")
	go func() {
		for {
			select {
			case <-ctx.Done():
				d.logger.Info("Stopping event dispatcher.")
				return
			case msg := <-d.queue:
				d.dispatch(ctx, msg)
			}
		}
	}()
}

func (d *Dispatcher) dispatch(ctx context.Context, msg Message) {
	log := d.logger.WithField("event_type", msg.Type)

	payload, err := json.Marshal(msg)
	if err != nil {
		log.WithError(err).Error("Failed to marshal event")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Event sink panicked")
		}
	}()
	d.sink.Broadcast(ctx, payload)
	log.Debug("Event dispatched")
}
