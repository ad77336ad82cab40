package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shenikar/feuerwehr_melder/internal/events"
	"github.com/shenikar/feuerwehr_melder/internal/models"
	"github.com/sirupsen/logrus"
)

// VehicleRepository определяет контракт для работы с бд машин.
// Удаление машины каскадно снимает ее со всех инцидентов.
type VehicleRepository interface {
	Create(ctx context.Context, vehicle *models.Vehicle) error
	GetByID(ctx context.Context, id int64) (*models.Vehicle, error)
	List(ctx context.Context, offset, limit int) ([]*models.Vehicle, error)
	Update(ctx context.Context, vehicle *models.Vehicle) error
	Delete(ctx context.Context, id int64) (*models.Vehicle, error)
}

type VehicleService interface {
	CreateVehicle(ctx context.Context, in models.VehicleInput) (*models.Vehicle, error)
	GetVehicle(ctx context.Context, id int64) (*models.Vehicle, error)
	ListVehicles(ctx context.Context, offset, limit int) ([]*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, id int64, patch models.VehiclePatch) (*models.Vehicle, error)
	DeleteVehicle(ctx context.Context, id int64) (*models.Vehicle, error)
}

type vehicleService struct {
	repo      VehicleRepository
	publisher events.Publisher
	logger    *logrus.Logger
}

func NewVehicleService(repo VehicleRepository, publisher events.Publisher, logger *logrus.Logger) VehicleService {
	return &vehicleService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *vehicleService) CreateVehicle(ctx context.Context, in models.VehicleInput) (*models.Vehicle, error) {
	vehicle := &models.Vehicle{
		Name:   strings.TrimSpace(in.Name),
		Status: models.DefaultVehicleStatus,
	}
	if in.Status != nil {
		vehicle.Status = *in.Status
	}
	log := s.logger.WithFields(logrus.Fields{
		"service": "vehicle",
		"method":  "CreateVehicle",
		"name":    vehicle.Name,
	})
	log.Info("Attempting to create a new vehicle")

	if err := validateVehicle(vehicle); err != nil {
		log.WithError(err).Warn("Invalid vehicle input")
		return nil, err
	}

	if err := s.repo.Create(ctx, vehicle); err != nil {
		log.WithError(err).Error("Failed to create vehicle in repository")
		return nil, fmt.Errorf("service: could not create vehicle: %w", err)
	}

	s.emit(ctx, log, events.NewVehicleMessage(events.VehicleCreated, vehicle))
	log.WithField("vehicle_id", vehicle.ID).Info("Vehicle created successfully")
	return vehicle, nil
}

func (s *vehicleService) GetVehicle(ctx context.Context, id int64) (*models.Vehicle, error) {
	vehicle, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.WithFields(logrus.Fields{
				"service":    "vehicle",
				"method":     "GetVehicle",
				"vehicle_id": id,
			}).WithError(err).Error("Failed to get vehicle in repository")
		}
		return nil, fmt.Errorf("service: could not get vehicle %d: %w", id, err)
	}
	return vehicle, nil
}

func (s *vehicleService) ListVehicles(ctx context.Context, offset, limit int) ([]*models.Vehicle, error) {
	offset, limit = clampPage(offset, limit)
	vehicles, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"service": "vehicle",
			"method":  "ListVehicles",
		}).WithError(err).Error("Failed to list vehicles from repository")
		return nil, fmt.Errorf("service: could not list vehicles: %w", err)
	}
	return vehicles, nil
}

// UpdateVehicle применяет только переданные поля
func (s *vehicleService) UpdateVehicle(ctx context.Context, id int64, patch models.VehiclePatch) (*models.Vehicle, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":    "vehicle",
		"method":     "UpdateVehicle",
		"vehicle_id": id,
	})
	log.Info("Attempting to update vehicle")

	if (patch.Name.Set && patch.Name.Value == nil) || (patch.Status.Set && patch.Status.Value == nil) {
		err := newValidationError("", "name and status must not be null")
		log.WithError(err).Warn("Invalid vehicle patch")
		return nil, err
	}

	vehicle, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Attempted to update a non-existent vehicle")
		return nil, fmt.Errorf("service: could not get vehicle %d: %w", id, err)
	}

	if patch.Name.Present() {
		vehicle.Name = strings.TrimSpace(*patch.Name.Value)
	}
	if patch.Status.Present() {
		vehicle.Status = *patch.Status.Value
	}
	if err := validateVehicle(vehicle); err != nil {
		log.WithError(err).Warn("Invalid vehicle patch")
		return nil, err
	}

	if err := s.repo.Update(ctx, vehicle); err != nil {
		log.WithError(err).Error("Failed to update vehicle in repository")
		return nil, fmt.Errorf("service: could not update vehicle: %w", err)
	}

	s.emit(ctx, log, events.NewVehicleMessage(events.VehicleUpdated, vehicle))
	log.Info("Vehicle updated successfully")
	return vehicle, nil
}

func (s *vehicleService) DeleteVehicle(ctx context.Context, id int64) (*models.Vehicle, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":    "vehicle",
		"method":     "DeleteVehicle",
		"vehicle_id": id,
	})
	log.Info("Attempting to delete vehicle")

	vehicle, err := s.repo.Delete(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to delete vehicle")
		return nil, fmt.Errorf("service: could not delete vehicle %d: %w", id, err)
	}

	s.emit(ctx, log, events.NewVehicleDeletedMessage(id))
	log.Info("Vehicle deleted successfully")
	return vehicle, nil
}

func (s *vehicleService) emit(ctx context.Context, log *logrus.Entry, msg events.Message) {
	if err := s.publisher.Publish(ctx, msg); err != nil {
		log.WithError(err).WithField("event_type", msg.Type).Warn("Failed to enqueue event")
	}
}

func validateVehicle(v *models.Vehicle) error {
	if err := validateVehicleName(v.Name); err != nil {
		return err
	}
	return validateVehicleStatus(v.Status)
}
