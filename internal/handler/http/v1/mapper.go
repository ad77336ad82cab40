package v1

import (
	"fmt"
	"time"

	"github.com/shenikar/feuerwehr_melder/internal/events"
	"github.com/shenikar/feuerwehr_melder/internal/models"
)

// DTOToIncidentInput преобразует DTO создания в доменную модель
func DTOToIncidentInput(dto CreateIncidentRequest) (models.IncidentInput, error) {
	in := models.IncidentInput{
		Title:      dto.Title,
		Address:    dto.Address,
		Latitude:   dto.Latitude,
		Longitude:  dto.Longitude,
		VehicleIDs: dto.VehicleIDs,
	}
	if dto.Description != nil {
		in.Description = *dto.Description
	}
	if dto.Status != nil {
		in.Status = models.IncidentStatus(*dto.Status)
	}
	if dto.ScheduledAt != nil {
		at, err := models.ParseTimestamp(*dto.ScheduledAt)
		if err != nil {
			return models.IncidentInput{}, fmt.Errorf("scheduled_at: %w", err)
		}
		in.ScheduledAt = &at
	}
	return in, nil
}

// DTOToIncidentPatch сохраняет различие между отсутствующим полем и null
func DTOToIncidentPatch(dto UpdateIncidentRequest) (models.IncidentPatch, error) {
	patch := models.IncidentPatch{
		Title:       dto.Title,
		Description: dto.Description,
		Address:     dto.Address,
		Latitude:    dto.Latitude,
		Longitude:   dto.Longitude,
		VehicleIDs:  dto.VehicleIDs,
	}
	if dto.Status.Set {
		patch.Status = models.Null[models.IncidentStatus]()
		if dto.Status.Value != nil {
			patch.Status = models.Some(models.IncidentStatus(*dto.Status.Value))
		}
	}
	if dto.ScheduledAt.Set {
		patch.ScheduledAt = models.Null[time.Time]()
		if dto.ScheduledAt.Value != nil {
			at, err := models.ParseTimestamp(*dto.ScheduledAt.Value)
			if err != nil {
				return models.IncidentPatch{}, fmt.Errorf("scheduled_at: %w", err)
			}
			patch.ScheduledAt = models.Some(at)
		}
	}
	return patch, nil
}

func DTOToVehicleInput(dto CreateVehicleRequest) models.VehicleInput {
	in := models.VehicleInput{Name: dto.Name}
	if dto.Status != nil {
		status := models.VehicleStatus(*dto.Status)
		in.Status = &status
	}
	return in
}

func DTOToVehiclePatch(dto UpdateVehicleRequest) models.VehiclePatch {
	patch := models.VehiclePatch{Name: dto.Name}
	if dto.Status.Set {
		patch.Status = models.Null[models.VehicleStatus]()
		if dto.Status.Value != nil {
			patch.Status = models.Some(models.VehicleStatus(*dto.Status.Value))
		}
	}
	return patch
}

func DTOToOptionsPatch(dto UpdateOptionsRequest) models.OptionsPatch {
	return models.OptionsPatch{
		AudioEnabled:    dto.AudioEnabled,
		SpeechEnabled:   dto.SpeechEnabled,
		AlarmSound:      dto.AlarmSound,
		SpeechLanguage:  dto.SpeechLanguage,
		WeatherLocation: dto.WeatherLocation,
	}
}

// ModelToIncidentResponse преобразует доменную модель в DTO для ответа
func ModelToIncidentResponse(model *models.Incident) *IncidentResponse {
	return events.NewIncidentPayload(model)
}

// ModelsToIncidentResponses преобразует слайс моделей в слайс DTO
func ModelsToIncidentResponses(incidents []*models.Incident) []*IncidentResponse {
	responses := make([]*IncidentResponse, len(incidents))
	for i, model := range incidents {
		responses[i] = ModelToIncidentResponse(model)
	}
	return responses
}

func ModelToVehicleResponse(model *models.Vehicle) *VehicleResponse {
	return events.NewVehiclePayload(model)
}

func ModelsToVehicleResponses(vehicles []*models.Vehicle) []*VehicleResponse {
	responses := make([]*VehicleResponse, len(vehicles))
	for i, model := range vehicles {
		responses[i] = ModelToVehicleResponse(model)
	}
	return responses
}

func ModelToOptionsResponse(model *models.Options) *OptionsResponse {
	return &OptionsResponse{
		ID:              model.ID,
		AudioEnabled:    model.AudioEnabled,
		SpeechEnabled:   model.SpeechEnabled,
		AlarmSound:      model.AlarmSound,
		SpeechLanguage:  model.SpeechLanguage,
		WeatherLocation: model.WeatherLocation,
	}
}
