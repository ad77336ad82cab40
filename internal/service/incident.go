package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shenikar/feuerwehr_melder/internal/events"
	"github.com/shenikar/feuerwehr_melder/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// IncidentRepository определяет контракт для работы с бд инцидентов.
// Create и Update выполняются в одной транзакции вместе с заменой набора машин
// и заполняют incident.Vehicles разрешенным списком.
type IncidentRepository interface {
	Create(ctx context.Context, incident *models.Incident, vehicleIDs []int64) error
	Update(ctx context.Context, incident *models.Incident, replaceVehicles bool, vehicleIDs []int64) error
	GetByID(ctx context.Context, id int64) (*models.Incident, error)
	List(ctx context.Context, offset, limit int) ([]*models.Incident, error)
	Delete(ctx context.Context, id int64) (*models.Incident, error)
	FindByTitleAndSchedule(ctx context.Context, title string, scheduledAt time.Time) (*models.Incident, error)
	FindByTitleAndAddress(ctx context.Context, title, address string) (*models.Incident, error)
	SetCreatedAt(ctx context.Context, id int64, createdAt time.Time) error
}

// Geocoder переводит адрес в координаты. Ошибки не возвращаются, вместо них (nil, nil).
type Geocoder interface {
	Resolve(ctx context.Context, address string) (lat, lon *float64)
}

// IncidentService определяет контракт для бизнес-логики управления инцидентами
type IncidentService interface {
	CreateIncident(ctx context.Context, in models.IncidentInput) (*models.Incident, error)
	GetIncident(ctx context.Context, id int64) (*models.Incident, error)
	ListIncidents(ctx context.Context, offset, limit int) ([]*models.Incident, error)
	UpdateIncident(ctx context.Context, id int64, patch models.IncidentPatch) (*models.Incident, error)
	DeleteIncident(ctx context.Context, id int64) (*models.Incident, error)
}

type incidentService struct {
	repo      IncidentRepository
	geocoder  Geocoder
	publisher events.Publisher
	logger    *logrus.Logger
	now       func() time.Time
}

func NewIncidentService(repo IncidentRepository, geocoder Geocoder, publisher events.Publisher, logger *logrus.Logger) IncidentService {
	return &incidentService{
		repo:      repo,
		geocoder:  geocoder,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateIncident создает инцидент или сливает его с уже существующим
func (s *incidentService) CreateIncident(ctx context.Context, in models.IncidentInput) (*models.Incident, error) {
	normalizeIncidentInput(&in)
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "CreateIncident",
		"title":   in.Title,
	})
	log.Info("Attempting to create a new incident")

	if err := validateIncidentInput(in); err != nil {
		log.WithError(err).Warn("Invalid incident input")
		return nil, err
	}

	existing, err := s.findMatch(ctx, in)
	if err != nil {
		log.WithError(err).Error("Failed to look up matching incident")
		return nil, fmt.Errorf("service: could not match incident: %w", err)
	}
	if existing != nil {
		log = log.WithField("incident_id", existing.ID)
		log.Info("Incident matches an existing one, merging")

		incident, err := s.applyPatch(ctx, existing, in.AsPatch())
		if err != nil {
			log.WithError(err).Error("Failed to merge incident")
			return nil, fmt.Errorf("service: could not merge incident: %w", err)
		}
		s.emit(ctx, log, events.NewIncidentMessage(events.IncidentUpdated, incident))
		log.Info("Incident merged successfully")
		return incident, nil
	}

	incident := &models.Incident{
		Title:       in.Title,
		Description: in.Description,
		Address:     valueOr(in.Address, ""),
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		ScheduledAt: in.ScheduledAt,
		Status:      in.Status,
	}
	if in.Address != nil && (in.Latitude == nil || in.Longitude == nil) {
		incident.Latitude, incident.Longitude = s.geocoder.Resolve(ctx, *in.Address)
	}

	if err := s.repo.Create(ctx, incident, in.VehicleIDs); err != nil {
		log.WithError(err).Error("Failed to create incident in repository")
		return nil, fmt.Errorf("service: could not create incident: %w", err)
	}
	s.ensureCreatedAt(ctx, incident)

	s.emit(ctx, log, events.NewIncidentMessage(events.IncidentCreated, incident))
	log.WithField("incident_id", incident.ID).Info("Incident created successfully")
	return incident, nil
}

// GetIncident получает инцидент по ID
func (s *incidentService) GetIncident(ctx context.Context, id int64) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "GetIncident",
		"incident_id": id,
	})
	log.Debug("Fetching incident by ID")

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Info("Incident not found")
		} else {
			log.WithError(err).Error("Failed to get incident in repository")
		}
		return nil, fmt.Errorf("service: could not get incident %d: %w", id, err)
	}
	s.ensureCreatedAt(ctx, incident)
	return incident, nil
}

// ListIncidents возвращает страницу инцидентов в порядке добавления
func (s *incidentService) ListIncidents(ctx context.Context, offset, limit int) ([]*models.Incident, error) {
	offset, limit = clampPage(offset, limit)
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "ListIncidents",
		"offset":  offset,
		"limit":   limit,
	})
	log.Debug("Listing incidents")

	incidents, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		log.WithError(err).Error("Failed to list incidents from repository")
		return nil, fmt.Errorf("service: could not list incidents: %w", err)
	}
	for _, incident := range incidents {
		s.ensureCreatedAt(ctx, incident)
	}

	log.WithField("count", len(incidents)).Debug("Incidents listed successfully")
	return incidents, nil
}

// UpdateIncident применяет только переданные поля. Если инцидента нет, он создается.
func (s *incidentService) UpdateIncident(ctx context.Context, id int64, patch models.IncidentPatch) (*models.Incident, error) {
	normalizeIncidentPatch(&patch)
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "UpdateIncident",
		"incident_id": id,
	})
	log.Info("Attempting to update incident")

	if err := validateIncidentPatch(patch); err != nil {
		log.WithError(err).Warn("Invalid incident patch")
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		log.Info("Incident not found, creating it from the update")
		return s.createFromPatch(ctx, log, patch)
	}
	if err != nil {
		log.WithError(err).Error("Failed to get incident for update")
		return nil, fmt.Errorf("service: could not get incident %d: %w", id, err)
	}

	incident, err := s.applyPatch(ctx, existing, patch)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			log.WithError(err).Warn("Invalid incident patch")
			return nil, err
		}
		log.WithError(err).Error("Failed to update incident in repository")
		return nil, fmt.Errorf("service: could not update incident: %w", err)
	}

	s.emit(ctx, log, events.NewIncidentMessage(events.IncidentUpdated, incident))
	log.Info("Incident updated successfully")
	return incident, nil
}

// DeleteIncident удаляет инцидент вместе с назначениями машин
func (s *incidentService) DeleteIncident(ctx context.Context, id int64) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "DeleteIncident",
		"incident_id": id,
	})
	log.Info("Attempting to delete incident")

	incident, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Info("Attempted to delete a non-existent incident")
		} else {
			log.WithError(err).Error("Failed to delete incident in repository")
		}
		return nil, fmt.Errorf("service: could not delete incident %d: %w", id, err)
	}

	s.emit(ctx, log, events.NewIncidentDeletedMessage(id))
	log.Info("Incident deleted successfully")
	return incident, nil
}

// findMatch ищет существующий инцидент сначала по (title, scheduled_at), затем по (title, address)
func (s *incidentService) findMatch(ctx context.Context, in models.IncidentInput) (*models.Incident, error) {
	if in.ScheduledAt != nil {
		match, err := s.repo.FindByTitleAndSchedule(ctx, in.Title, *in.ScheduledAt)
		if err != nil {
			return nil, err
		}
		if match != nil {
			return match, nil
		}
	}
	if in.Address != nil {
		return s.repo.FindByTitleAndAddress(ctx, in.Title, *in.Address)
	}
	return nil, nil
}

// applyPatch сливает патч с существующим инцидентом и сохраняет результат
func (s *incidentService) applyPatch(ctx context.Context, existing *models.Incident, patch models.IncidentPatch) (*models.Incident, error) {
	merged := *existing
	mergeIncident(&merged, patch)

	if patch.TouchesLocation() && !merged.HasLocation() {
		return nil, newValidationError("address", "either address or both latitude and longitude are required")
	}
	if patch.Address.Present() && *patch.Address.Value != "" && !patch.HasCoordinates() {
		merged.Latitude, merged.Longitude = s.geocoder.Resolve(ctx, *patch.Address.Value)
	}

	var vehicleIDs []int64
	if patch.VehicleIDs.Present() {
		vehicleIDs = *patch.VehicleIDs.Value
	}
	if err := s.repo.Update(ctx, &merged, patch.VehicleIDs.Set, vehicleIDs); err != nil {
		return nil, err
	}
	s.ensureCreatedAt(ctx, &merged)
	return &merged, nil
}

// createFromPatch - upsert-ветка update: новый инцидент из переданных полей
func (s *incidentService) createFromPatch(ctx context.Context, log *logrus.Entry, patch models.IncidentPatch) (*models.Incident, error) {
	incident := &models.Incident{
		Title:  models.DefaultIncidentTitle,
		Status: models.IncidentStatusNew,
	}
	mergeIncident(incident, patch)
	if incident.Address != "" && !patch.HasCoordinates() {
		incident.Latitude, incident.Longitude = s.geocoder.Resolve(ctx, incident.Address)
	}

	var vehicleIDs []int64
	if patch.VehicleIDs.Present() {
		vehicleIDs = *patch.VehicleIDs.Value
	}
	if err := s.repo.Create(ctx, incident, vehicleIDs); err != nil {
		log.WithError(err).Error("Failed to create incident in repository")
		return nil, fmt.Errorf("service: could not create incident: %w", err)
	}
	s.ensureCreatedAt(ctx, incident)

	s.emit(ctx, log, events.NewIncidentMessage(events.IncidentCreated, incident))
	log.WithField("new_incident_id", incident.ID).Info("Incident created from update")
	return incident, nil
}

// ensureCreatedAt проставляет created_at, если хранилище его не вернуло
func (s *incidentService) ensureCreatedAt(ctx context.Context, incident *models.Incident) {
	if !incident.CreatedAt.IsZero() {
		return
	}
	incident.CreatedAt = s.now().UTC().Truncate(time.Second)
	if err := s.repo.SetCreatedAt(ctx, incident.ID, incident.CreatedAt); err != nil {
		s.logger.WithFields(logrus.Fields{
			"service":     "incident",
			"incident_id": incident.ID,
		}).WithError(err).Warn("Failed to backfill created_at")
	}
}

func (s *incidentService) emit(ctx context.Context, log *logrus.Entry, msg events.Message) {
	if err := s.publisher.Publish(ctx, msg); err != nil {
		log.WithError(err).WithField("event_type", msg.Type).Warn("Failed to enqueue event")
	}
}

func mergeIncident(incident *models.Incident, patch models.IncidentPatch) {
	if patch.Title.Present() {
		incident.Title = *patch.Title.Value
	}
	if patch.Description.Set {
		incident.Description = valueOr(patch.Description.Value, "")
	}
	if patch.Address.Set {
		incident.Address = valueOr(patch.Address.Value, "")
	}
	if patch.Latitude.Set {
		incident.Latitude = patch.Latitude.Value
	}
	if patch.Longitude.Set {
		incident.Longitude = patch.Longitude.Value
	}
	if patch.ScheduledAt.Set {
		incident.ScheduledAt = patch.ScheduledAt.Value
	}
	if patch.Status.Present() {
		incident.Status = *patch.Status.Value
	}
}

func valueOr[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}

func clampPage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return offset, limit
}
