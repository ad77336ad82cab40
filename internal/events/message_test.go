package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shenikar/feuerwehr_melder/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIncidentMessage_JSONShape(t *testing.T) {
	lat, lon := 52.52, 13.405
	scheduled := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	incident := &models.Incident{
		ID:          3,
		Title:       "Übung",
		Address:     "Hauptstraße 1",
		Latitude:    &lat,
		Longitude:   &lon,
		ScheduledAt: &scheduled,
		Status:      models.IncidentStatusNew,
		CreatedAt:   time.Date(2025, 4, 30, 17, 45, 12, 123456, time.FixedZone("CEST", 2*3600)),
		Vehicles:    []models.Vehicle{{ID: 9, Name: "HLF 20", Status: 2}},
	}

	data, err := json.Marshal(NewIncidentMessage(IncidentCreated, incident))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"type": "incident_created",
		"incident": {
			"id": 3,
			"title": "Übung",
			"description": null,
			"status": "new",
			"created_at": "2025-04-30T15:45:12Z",
			"address": "Hauptstraße 1",
			"latitude": 52.52,
			"longitude": 13.405,
			"scheduled_at": "2025-05-01T08:00:00Z",
			"vehicles": [{"id": 9, "name": "HLF 20", "status": 2}]
		}
	}`, string(data))
}

func TestNewVehicleMessages_JSONShape(t *testing.T) {
	data, err := json.Marshal(NewVehicleMessage(VehicleUpdated, &models.Vehicle{ID: 4, Name: "DLK 23", Status: 6}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"vehicle_updated","vehicle":{"id":4,"name":"DLK 23","status":6}}`, string(data))

	data, err = json.Marshal(NewVehicleDeletedMessage(4))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"vehicle_deleted","vehicle_id":4}`, string(data))
}

func TestNewIncidentPayload_EmptyVehiclesIsArray(t *testing.T) {
	data, err := json.Marshal(NewIncidentPayload(&models.Incident{ID: 1, Title: "Brand", Status: models.IncidentStatusActive}))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"vehicles":[]`)
}
