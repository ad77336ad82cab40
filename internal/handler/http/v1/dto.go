package v1

import (
	"github.com/shenikar/feuerwehr_melder/internal/events"
	"github.com/shenikar/feuerwehr_melder/internal/models"
)

// CreateIncidentRequest DTO для создания инцидента
// @Description DTO для создания инцидента. Нужен адрес или обе координаты.
type CreateIncidentRequest struct {
	Title       string   `json:"title" validate:"required,max=200" example:"Brand Lagerhalle"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Address     *string  `json:"address,omitempty" validate:"omitempty,max=400" example:"Hafenstraße 4, Hamburg"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	ScheduledAt *string  `json:"scheduled_at,omitempty" example:"2025-06-01T08:00:00Z"`
	Status      *string  `json:"status,omitempty" enums:"new,active,closed"`
	VehicleIDs  []int64  `json:"vehicle_ids,omitempty"`
}

// UpdateIncidentRequest DTO для частичного обновления инцидента.
// Отсутствующее поле не меняется, null очищает значение.
// @Description DTO для частичного обновления инцидента
type UpdateIncidentRequest struct {
	Title       models.Optional[string]  `json:"title" swaggertype:"string"`
	Description models.Optional[string]  `json:"description" swaggertype:"string"`
	Address     models.Optional[string]  `json:"address" swaggertype:"string"`
	Latitude    models.Optional[float64] `json:"latitude" swaggertype:"number"`
	Longitude   models.Optional[float64] `json:"longitude" swaggertype:"number"`
	ScheduledAt models.Optional[string]  `json:"scheduled_at" swaggertype:"string"`
	Status      models.Optional[string]  `json:"status" swaggertype:"string" enums:"new,active,closed"`
	VehicleIDs  models.Optional[[]int64] `json:"vehicle_ids" swaggertype:"array,integer"`
}

// IncidentResponse DTO для ответа с информацией об инциденте
type IncidentResponse = events.IncidentPayload

// CreateVehicleRequest DTO для создания машины
// @Description DTO для создания машины
type CreateVehicleRequest struct {
	Name   string `json:"name" validate:"required,max=100" example:"HLF 20"`
	Status *int   `json:"status,omitempty" enums:"1,2,3,4,6"`
}

// UpdateVehicleRequest DTO для частичного обновления машины
// @Description DTO для частичного обновления машины
type UpdateVehicleRequest struct {
	Name   models.Optional[string] `json:"name" swaggertype:"string"`
	Status models.Optional[int]    `json:"status" swaggertype:"integer"`
}

// VehicleResponse DTO для ответа с информацией о машине
type VehicleResponse = events.VehiclePayload

// OptionsResponse DTO настроек дашборда
// @Description DTO настроек дашборда
type OptionsResponse struct {
	ID              int64  `json:"id"`
	AudioEnabled    bool   `json:"audio_enabled"`
	SpeechEnabled   bool   `json:"speech_enabled"`
	AlarmSound      string `json:"alarm_sound"`
	SpeechLanguage  string `json:"speech_language"`
	WeatherLocation string `json:"weather_location"`
}

// UpdateOptionsRequest DTO для частичного обновления настроек
// @Description DTO для частичного обновления настроек
type UpdateOptionsRequest struct {
	AudioEnabled    models.Optional[bool]   `json:"audio_enabled" swaggertype:"boolean"`
	SpeechEnabled   models.Optional[bool]   `json:"speech_enabled" swaggertype:"boolean"`
	AlarmSound      models.Optional[string] `json:"alarm_sound" swaggertype:"string"`
	SpeechLanguage  models.Optional[string] `json:"speech_language" swaggertype:"string"`
	WeatherLocation models.Optional[string] `json:"weather_location" swaggertype:"string"`
}

// TriggerAlarmRequest DTO для ручной тревоги
// @Description DTO для ручной тревоги
type TriggerAlarmRequest struct {
	Message *string `json:"message,omitempty" example:"Alarm!"`
}

// HealthResponse DTO для health-check
type HealthResponse struct {
	Status      string `json:"status"`
	Subscribers int    `json:"subscribers"`
}
