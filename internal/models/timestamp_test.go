package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"rfc3339 utc", "2025-03-01T10:00:00Z", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"rfc3339 offset", "2025-03-01T12:00:00+02:00", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"naive assumed utc", "2025-03-01T10:00:00", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"naive with space", "2025-03-01 10:00", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	_, err := ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 30, 15, 999, time.FixedZone("CET", 3600))
	assert.Equal(t, "2025-03-01T11:30:15Z", FormatTimestamp(ts))
}

func TestOptional_UnmarshalJSON(t *testing.T) {
	var body struct {
		Title      Optional[string]  `json:"title"`
		VehicleIDs Optional[[]int64] `json:"vehicle_ids"`
		Latitude   Optional[float64] `json:"latitude"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Brand","vehicle_ids":null}`), &body))

	assert.True(t, body.Title.Present())
	assert.Equal(t, "Brand", *body.Title.Value)
	assert.True(t, body.VehicleIDs.Set)
	assert.Nil(t, body.VehicleIDs.Value)
	assert.False(t, body.Latitude.Set)
}

func TestIncidentInput_AsPatch(t *testing.T) {
	address := "Hauptstr. 1"
	in := IncidentInput{Title: "Brand", Address: &address, Status: IncidentStatusNew}
	p := in.AsPatch()

	assert.True(t, p.Title.Present())
	assert.True(t, p.Latitude.Set)
	assert.False(t, p.Latitude.Present())
	assert.False(t, p.HasCoordinates())
	require.True(t, p.VehicleIDs.Present())
	assert.Empty(t, *p.VehicleIDs.Value)
}

func TestVehicleStatus_Valid(t *testing.T) {
	for _, s := range []VehicleStatus{1, 2, 3, 4, 6} {
		assert.True(t, s.Valid(), "status %d", s)
	}
	for _, s := range []VehicleStatus{0, 5, 7, -1} {
		assert.False(t, s.Valid(), "status %d", s)
	}
}

func TestParseIncidentStatus(t *testing.T) {
	s, err := ParseIncidentStatus(" Active ")
	require.NoError(t, err)
	assert.Equal(t, IncidentStatusActive, s)

	_, err = ParseIncidentStatus("inactive")
	assert.Error(t, err)
}
