package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/feuerwehr_melder/internal/broadcast"
	"github.com/shenikar/feuerwehr_melder/internal/config"
	"github.com/shenikar/feuerwehr_melder/internal/events"
	events_mocks "github.com/shenikar/feuerwehr_melder/internal/events/mocks"
	"github.com/shenikar/feuerwehr_melder/internal/models"
	"github.com/shenikar/feuerwehr_melder/internal/service"
	"github.com/shenikar/feuerwehr_melder/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testAPIKey = "test-api-key"

type testDeps struct {
	incidents *mocks.MockIncidentService
	vehicles  *mocks.MockVehicleService
	options   *mocks.MockOptionsService
	publisher *events_mocks.MockPublisher
	hub       *broadcast.Hub
	router    *gin.Engine
}

// newTestHandler создает новый экземпляр Handler с мокированными сервисами
func newTestHandler(t *testing.T) *testDeps {
	ctrl := gomock.NewController(t)
	deps := &testDeps{
		incidents: mocks.NewMockIncidentService(ctrl),
		vehicles:  mocks.NewMockVehicleService(ctrl),
		options:   mocks.NewMockOptionsService(ctrl),
		publisher: events_mocks.NewMockPublisher(ctrl),
	}

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах
	deps.hub = broadcast.NewHub(logger)

	cfg := &config.Config{
		APIKeys:        []string{testAPIKey},
		WSWriteTimeout: time.Second,
	}

	handler := NewHandler(deps.incidents, deps.vehicles, deps.options, deps.publisher, deps.hub, logger, cfg)

	// Настройка Gin роутера для тестов
	gin.SetMode(gin.TestMode)
	deps.router = gin.New()
	api := deps.router.Group("/api/v1")
	handler.RegisterRoutes(api)
	handler.RegisterWebSocketRoute(deps.router)
	return deps
}

var authHeader = map[string]string{"X-API-Key": testAPIKey}

// makeRequest - вспомогательная функция для выполнения HTTP-запросов
func makeRequest(router *gin.Engine, method, url string, body io.Reader, headers ...map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		for key, value := range h {
			req.Header.Set(key, value)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sampleIncident() *models.Incident {
	lat, lon := 53.55, 9.99
	scheduled := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	return &models.Incident{
		ID:          42,
		Title:       "Brand Lagerhalle",
		Address:     "Hafenstraße 4",
		Latitude:    &lat,
		Longitude:   &lon,
		ScheduledAt: &scheduled,
		Status:      models.IncidentStatusNew,
		CreatedAt:   time.Date(2025, 5, 31, 22, 15, 3, 0, time.UTC),
		Vehicles:    []models.Vehicle{{ID: 1, Name: "HLF 20", Status: 2}},
	}
}

func TestCreateIncident_Success(t *testing.T) {
	deps := newTestHandler(t)
	body := `{"title":"Brand Lagerhalle","address":"Hafenstraße 4","scheduled_at":"2025-06-01T10:00:00+02:00","vehicle_ids":[1,7]}`

	deps.incidents.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in models.IncidentInput) (*models.Incident, error) {
			assert.Equal(t, "Brand Lagerhalle", in.Title)
			assert.Equal(t, "Hafenstraße 4", *in.Address)
			assert.Equal(t, time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC), *in.ScheduledAt)
			assert.Equal(t, []int64{1, 7}, in.VehicleIDs)
			return sampleIncident(), nil
		}).
		Times(1)

	w := makeRequest(deps.router, http.MethodPost, "/api/v1/incidents", bytes.NewBufferString(body), authHeader)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp IncidentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(42), resp.ID)
	assert.Equal(t, "2025-05-31T22:15:03Z", resp.CreatedAt)
	assert.Equal(t, "2025-06-01T08:00:00Z", *resp.ScheduledAt)
	assert.Nil(t, resp.Description)
	require.Len(t, resp.Vehicles, 1)
}

func TestCreateIncident_RequiresAPIKey(t *testing.T) {
	deps := newTestHandler(t)

	deps.incidents.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	w := makeRequest(deps.router, http.MethodPost, "/api/v1/incidents", bytes.NewBufferString(`{"title":"Brand"}`))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = makeRequest(deps.router, http.MethodPost, "/api/v1/incidents", bytes.NewBufferString(`{"title":"Brand"}`), map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid API key")
}

func TestCreateIncident_InvalidJSON(t *testing.T) {
	deps := newTestHandler(t)

	deps.incidents.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(deps.router, http.MethodPost, "/api/v1/incidents", bytes.NewBufferString(`{"title": "test"`), authHeader)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestCreateIncident_DTOValidationError(t *testing.T) {
	deps := newTestHandler(t)

	deps.incidents.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(deps.router, http.MethodPost, "/api/v1/incidents", bytes.NewBufferString(`{"address":"Markt 1","latitude":120}`), authHeader)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Error:Field validation for 'Title' failed on the 'required' tag")
}

func TestCreateIncident_InvalidScheduledAt(t *testing.T) {
	deps := newTestHandler(t)

	deps.incidents.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(deps.router, http.MethodPost, "/api/v1/incidents", bytes.NewBufferString(`{"title":"Brand","address":"Markt 1","scheduled_at":"tomorrow"}`), authHeader)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "scheduled_at")
}

func TestCreateIncident_ServiceErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &service.ValidationError{Field: "address", Message: "required"}, http.StatusBadRequest},
		{"conflict", fmt.Errorf("wrapped: %w", service.ErrConflict), http.StatusConflict},
		{"internal", errors.New("database down"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deps := newTestHandler(t)
			deps.incidents.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Return(nil, tc.err).Times(1)

			w := makeRequest(deps.router, http.MethodPost, "/api/v1/incidents", bytes.NewBufferString(`{"title":"Brand"}`), authHeader)

			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestListIncidents_PassesPaging(t *testing.T) {
	deps := newTestHandler(t)

	deps.incidents.EXPECT().ListIncidents(gomock.Any(), 20, 10).Return([]*models.Incident{sampleIncident()}, nil).Times(1)

	w := makeRequest(deps.router, http.MethodGet, "/api/v1/incidents?skip=20&limit=10", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []IncidentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp, 1)
}

func TestListIncidents_Defaults(t *testing.T) {
	deps := newTestHandler(t)

	deps.incidents.EXPECT().ListIncidents(gomock.Any(), 0, service.DefaultListLimit).Return([]*models.Incident{}, nil).Times(1)

	w := makeRequest(deps.router, http.MethodGet, "/api/v1/incidents", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestListIncidents_InvalidPaging(t *testing.T) {
	deps := newTestHandler(t)

	deps.incidents.EXPECT().ListIncidents(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(deps.router, http.MethodGet, "/api/v1/incidents?skip=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetIncident_NotFound(t *testing.T) {
	deps := newTestHandler(t)

	deps.incidents.EXPECT().GetIncident(gomock.Any(), int64(5)).Return(nil, fmt.Errorf("service: %w", service.ErrNotFound)).Times(1)

	w := makeRequest(deps.router, http.MethodGet, "/api/v1/incidents/5", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "incident not found")
}

func TestGetIncident_InvalidID(t *testing.T) {
	deps := newTestHandler(t)

	deps.incidents.EXPECT().GetIncident(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(deps.router, http.MethodGet, "/api/v1/incidents/abc", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid id")
}

func TestUpdateIncident_DistinguishesAbsentAndNull(t *testing.T) {
	deps := newTestHandler(t)
	body := `{"status":"closed","vehicle_ids":null,"scheduled_at":null}`

	deps.incidents.EXPECT().
		UpdateIncident(gomock.Any(), int64(42), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, patch models.IncidentPatch) (*models.Incident, error) {
			assert.False(t, patch.Title.Set)
			assert.False(t, patch.Address.Set)
			assert.Equal(t, models.IncidentStatusClosed, *patch.Status.Value)
			assert.True(t, patch.VehicleIDs.Set)
			assert.Nil(t, patch.VehicleIDs.Value)
			assert.True(t, patch.ScheduledAt.Set)
			assert.Nil(t, patch.ScheduledAt.Value)
			incident := sampleIncident()
			incident.Status = models.IncidentStatusClosed
			return incident, nil
		}).
		Times(1)

	w := makeRequest(deps.router, http.MethodPut, "/api/v1/incidents/42", bytes.NewBufferString(body), authHeader)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"closed"`)
}

func TestDeleteIncident_NoContent(t *testing.T) {
	deps := newTestHandler(t)

	deps.incidents.EXPECT().DeleteIncident(gomock.Any(), int64(42)).Return(sampleIncident(), nil).Times(1)

	w := makeRequest(deps.router, http.MethodDelete, "/api/v1/incidents/42", nil, authHeader)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestCreateVehicle_Success(t *testing.T) {
	deps := newTestHandler(t)
	status := models.VehicleStatus(3)

	deps.vehicles.EXPECT().
		CreateVehicle(gomock.Any(), models.VehicleInput{Name: "DLK 23", Status: &status}).
		Return(&models.Vehicle{ID: 2, Name: "DLK 23", Status: 3}, nil).
		Times(1)

	w := makeRequest(deps.router, http.MethodPost, "/api/v1/vehicles", bytes.NewBufferString(`{"name":"DLK 23","status":3}`), authHeader)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":2,"name":"DLK 23","status":3}`, w.Body.String())
}

func TestCreateVehicle_DuplicateName(t *testing.T) {
	deps := newTestHandler(t)

	deps.vehicles.EXPECT().CreateVehicle(gomock.Any(), gomock.Any()).Return(nil, service.ErrConflict).Times(1)

	w := makeRequest(deps.router, http.MethodPost, "/api/v1/vehicles", bytes.NewBufferString(`{"name":"DLK 23"}`), authHeader)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "vehicle already exists")
}

func TestDeleteVehicle_ReturnsDeleted(t *testing.T) {
	deps := newTestHandler(t)

	deps.vehicles.EXPECT().DeleteVehicle(gomock.Any(), int64(2)).Return(&models.Vehicle{ID: 2, Name: "DLK 23", Status: 1}, nil).Times(1)

	w := makeRequest(deps.router, http.MethodDelete, "/api/v1/vehicles/2", nil, authHeader)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":2,"name":"DLK 23","status":1}`, w.Body.String())
}

func TestUpdateVehicle_NullStatusPassedThrough(t *testing.T) {
	deps := newTestHandler(t)

	deps.vehicles.EXPECT().
		UpdateVehicle(gomock.Any(), int64(2), models.VehiclePatch{Status: models.Null[models.VehicleStatus]()}).
		Return(nil, &service.ValidationError{Message: "name and status must not be null"}).
		Times(1)

	w := makeRequest(deps.router, http.MethodPut, "/api/v1/vehicles/2", bytes.NewBufferString(`{"status":null}`), authHeader)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOptions_GetAndUpdate(t *testing.T) {
	deps := newTestHandler(t)
	updated := models.DefaultOptions()
	updated.AudioEnabled = false

	deps.options.EXPECT().GetOptions(gomock.Any()).Return(models.DefaultOptions(), nil).Times(1)
	deps.options.EXPECT().
		UpdateOptions(gomock.Any(), models.OptionsPatch{AudioEnabled: models.Some(false)}).
		Return(updated, nil).
		Times(1)

	w := makeRequest(deps.router, http.MethodGet, "/api/v1/options", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"audio_enabled":true,"speech_enabled":true,"alarm_sound":"gong1.mp3","speech_language":"de-DE","weather_location":""}`, w.Body.String())

	w = makeRequest(deps.router, http.MethodPut, "/api/v1/options", bytes.NewBufferString(`{"audio_enabled":false}`), authHeader)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"audio_enabled":false`)
}

func TestTriggerAlarm_DefaultMessage(t *testing.T) {
	deps := newTestHandler(t)

	deps.publisher.EXPECT().Publish(gomock.Any(), events.NewAlarmMessage("Alarm!")).Return(nil).Times(1)

	w := makeRequest(deps.router, http.MethodPost, "/api/v1/system/trigger-alarm", nil, authHeader)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"alarm triggered"}`, w.Body.String())
}

func TestTriggerAlarm_CustomMessageAndFullQueue(t *testing.T) {
	deps := newTestHandler(t)

	deps.publisher.EXPECT().Publish(gomock.Any(), events.NewAlarmMessage("Probealarm")).Return(events.ErrQueueFull).Times(1)

	w := makeRequest(deps.router, http.MethodPost, "/api/v1/system/trigger-alarm", bytes.NewBufferString(`{"message":"Probealarm"}`), authHeader)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthCheck(t *testing.T) {
	deps := newTestHandler(t)

	w := makeRequest(deps.router, http.MethodGet, "/api/v1/system/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","subscribers":0}`, w.Body.String())
}
