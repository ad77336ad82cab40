package service

import (
	"context"
	"fmt"

	"github.com/shenikar/feuerwehr_melder/internal/models"
	"github.com/sirupsen/logrus"
)

// OptionsRepository хранит единственную строку настроек
type OptionsRepository interface {
	GetOrCreate(ctx context.Context) (*models.Options, error)
	Update(ctx context.Context, options *models.Options) error
}

type OptionsService interface {
	GetOptions(ctx context.Context) (*models.Options, error)
	UpdateOptions(ctx context.Context, patch models.OptionsPatch) (*models.Options, error)
}

type optionsService struct {
	repo   OptionsRepository
	logger *logrus.Logger
}

func NewOptionsService(repo OptionsRepository, logger *logrus.Logger) OptionsService {
	return &optionsService{repo: repo, logger: logger}
}

// GetOptions возвращает настройки, создавая строку по умолчанию при первом обращении
func (s *optionsService) GetOptions(ctx context.Context) (*models.Options, error) {
	options, err := s.repo.GetOrCreate(ctx)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"service": "options",
			"method":  "GetOptions",
		}).WithError(err).Error("Failed to load options")
		return nil, fmt.Errorf("service: could not get options: %w", err)
	}
	return options, nil
}

func (s *optionsService) UpdateOptions(ctx context.Context, patch models.OptionsPatch) (*models.Options, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "options",
		"method":  "UpdateOptions",
	})

	if err := validateOptionsPatch(patch); err != nil {
		log.WithError(err).Warn("Invalid options patch")
		return nil, err
	}

	options, err := s.repo.GetOrCreate(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to load options")
		return nil, fmt.Errorf("service: could not get options: %w", err)
	}

	if patch.AudioEnabled.Present() {
		options.AudioEnabled = *patch.AudioEnabled.Value
	}
	if patch.SpeechEnabled.Present() {
		options.SpeechEnabled = *patch.SpeechEnabled.Value
	}
	if patch.AlarmSound.Present() {
		options.AlarmSound = *patch.AlarmSound.Value
	}
	if patch.SpeechLanguage.Present() {
		options.SpeechLanguage = *patch.SpeechLanguage.Value
	}
	if patch.WeatherLocation.Present() {
		options.WeatherLocation = *patch.WeatherLocation.Value
	}

	if err := s.repo.Update(ctx, options); err != nil {
		log.WithError(err).Error("Failed to update options in repository")
		return nil, fmt.Errorf("service: could not update options: %w", err)
	}
	log.Info("Options updated successfully")
	return options, nil
}
