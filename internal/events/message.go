package events

import (
	"github.com/shenikar/feuerwehr_melder/internal/models"
)

// MessageType - тип сообщения для дашбордов
type MessageType string

const (
	IncidentCreated MessageType = "incident_created"
	IncidentUpdated MessageType = "incident_updated"
	IncidentDeleted MessageType = "incident_deleted"
	VehicleCreated  MessageType = "vehicle_created"
	VehicleUpdated  MessageType = "vehicle_updated"
	VehicleDeleted  MessageType = "vehicle_deleted"
	Alarm           MessageType = "alarm"
)

// DefaultAlarmMessage используется, если сообщение тревоги не передано
const DefaultAlarmMessage = "Alarm!"

// Message - сообщение, рассылаемое всем подписчикам
type Message struct {
	Type       MessageType      `json:"type"`
	Incident   *IncidentPayload `json:"incident,omitempty"`
	IncidentID *int64           `json:"incident_id,omitempty"`
	Vehicle    *VehiclePayload  `json:"vehicle,omitempty"`
	VehicleID  *int64           `json:"vehicle_id,omitempty"`
	Text       *string          `json:"message,omitempty"`
}

// IncidentPayload - представление инцидента в сообщениях и ответах API
type IncidentPayload struct {
	ID          int64                 `json:"id"`
	Title       string                `json:"title"`
	Description *string               `json:"description"`
	Status      models.IncidentStatus `json:"status"`
	CreatedAt   string                `json:"created_at"`
	Address     *string               `json:"address"`
	Latitude    *float64              `json:"latitude"`
	Longitude   *float64              `json:"longitude"`
	ScheduledAt *string               `json:"scheduled_at"`
	Vehicles    []VehiclePayload      `json:"vehicles"`
}

// VehiclePayload - представление транспортного средства
type VehiclePayload struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Status int    `json:"status"`
}

func NewIncidentPayload(incident *models.Incident) *IncidentPayload {
	p := &IncidentPayload{
		ID:          incident.ID,
		Title:       incident.Title,
		Description: nonEmpty(incident.Description),
		Status:      incident.Status,
		CreatedAt:   models.FormatTimestamp(incident.CreatedAt),
		Address:     nonEmpty(incident.Address),
		Latitude:    incident.Latitude,
		Longitude:   incident.Longitude,
		Vehicles:    make([]VehiclePayload, 0, len(incident.Vehicles)),
	}
	if incident.ScheduledAt != nil {
		s := models.FormatTimestamp(*incident.ScheduledAt)
		p.ScheduledAt = &s
	}
	for i := range incident.Vehicles {
		p.Vehicles = append(p.Vehicles, *NewVehiclePayload(&incident.Vehicles[i]))
	}
	return p
}

func NewVehiclePayload(vehicle *models.Vehicle) *VehiclePayload {
	return &VehiclePayload{
		ID:     vehicle.ID,
		Name:   vehicle.Name,
		Status: int(vehicle.Status),
	}
}

// NewIncidentMessage строит сообщение incident_created или incident_updated
func NewIncidentMessage(t MessageType, incident *models.Incident) Message {
	return Message{Type: t, Incident: NewIncidentPayload(incident)}
}

func NewIncidentDeletedMessage(id int64) Message {
	return Message{Type: IncidentDeleted, IncidentID: &id}
}

// NewVehicleMessage строит сообщение vehicle_created или vehicle_updated
func NewVehicleMessage(t MessageType, vehicle *models.Vehicle) Message {
	return Message{Type: t, Vehicle: NewVehiclePayload(vehicle)}
}

func NewVehicleDeletedMessage(id int64) Message {
	return Message{Type: VehicleDeleted, VehicleID: &id}
}

func NewAlarmMessage(text string) Message {
	return Message{Type: Alarm, Text: &text}
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
