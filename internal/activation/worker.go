package activation

import (
	"context"
	"fmt"
	"time"

	"github.com/shenikar/feuerwehr_melder/internal/config"
	"github.com/shenikar/feuerwehr_melder/internal/events"
	"github.com/shenikar/feuerwehr_melder/internal/metrics"
	"github.com/shenikar/feuerwehr_melder/internal/models"
	"github.com/sirupsen/logrus"
)

// Store - доступ к инцидентам, ожидающим активации
type Store interface {
	ListPendingActivation(ctx context.Context) ([]*models.Incident, error)
	Activate(ctx context.Context, ids []int64) ([]int64, error)
}

// Reader перечитывает инцидент после активации вместе с машинами
type Reader interface {
	GetIncident(ctx context.Context, id int64) (*models.Incident, error)
}

// Worker периодически переводит запланированные инциденты из new в active
type Worker struct {
	store        Store
	reader       Reader
	publisher    events.Publisher
	logger       *logrus.Logger
	interval     time.Duration
	initialDelay time.Duration
	now          func() time.Time
}

// NewWorker создает новый Worker
func NewWorker(store Store, reader Reader, publisher events.Publisher, logger *logrus.Logger, cfg *config.Config) *Worker {
	return &Worker{
		store:        store,
		reader:       reader,
		publisher:    publisher,
		logger:       logger,
		interval:     cfg.ActivationInterval,
		initialDelay: cfg.ActivationInitialDelay,
		now:          time.Now,
	}
}

// Start запускает горутину цикла активации. Цикл останавливается только отменой ctx.
func (w *Worker) Start(ctx context.Context) {
	w.logger.WithField("interval", w.interval).Info("Starting activation worker...")
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.initialDelay):
		}

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			w.safeTick(ctx)
			select {
			case <-ctx.Done():
				w.logger.Info("Stopping activation worker.")
				return
			case <-ticker.C:
			}
		}
	}()
}

func (w *Worker) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			metrics.ActivationErrors.Inc()
			w.logger.WithField("panic", r).Error("Activation tick panicked")
		}
	}()
	metrics.ActivationTicks.Inc()
	if err := w.Tick(ctx); err != nil {
		metrics.ActivationErrors.Inc()
		w.logger.WithError(err).Error("Activation tick failed")
	}
}

// Tick активирует все инциденты, чье scheduled_at уже наступило,
// и отправляет по одному incident_updated на каждый измененный инцидент.
func (w *Worker) Tick(ctx context.Context) error {
	now := w.now().UTC()

	pending, err := w.store.ListPendingActivation(ctx)
	if err != nil {
		return fmt.Errorf("activation: could not list pending incidents: %w", err)
	}

	due := make([]int64, 0, len(pending))
	for _, incident := range pending {
		if incident.ScheduledAt == nil {
			continue
		}
		if !incident.ScheduledAt.UTC().After(now) {
			due = append(due, incident.ID)
		}
	}
	if len(due) == 0 {
		return nil
	}

	activated, err := w.store.Activate(ctx, due)
	if err != nil {
		return fmt.Errorf("activation: could not activate incidents: %w", err)
	}
	metrics.IncidentsActivated.Add(float64(len(activated)))

	for _, id := range activated {
		log := w.logger.WithFields(logrus.Fields{
			"worker":      "activation",
			"incident_id": id,
		})
		incident, err := w.reader.GetIncident(ctx, id)
		if err != nil {
			log.WithError(err).Warn("Failed to refresh activated incident")
			continue
		}
		if err := w.publisher.Publish(ctx, events.NewIncidentMessage(events.IncidentUpdated, incident)); err != nil {
			log.WithError(err).Warn("Failed to enqueue activation event")
			continue
		}
		log.Info("Incident activated")
	}
	return nil
}
