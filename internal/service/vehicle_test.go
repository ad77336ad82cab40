package service

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/shenikar/feuerwehr_melder/internal/events"
	events_mocks "github.com/shenikar/feuerwehr_melder/internal/events/mocks"
	"github.com/shenikar/feuerwehr_melder/internal/models"
	"github.com/shenikar/feuerwehr_melder/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestVehicleService(t *testing.T) (*vehicleService, *mocks.MockVehicleRepository, *events_mocks.MockPublisher) {
	ctrl := gomock.NewController(t)
	repoMock := mocks.NewMockVehicleRepository(ctrl)
	publisherMock := events_mocks.NewMockPublisher(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	return NewVehicleService(repoMock, publisherMock, logger).(*vehicleService), repoMock, publisherMock
}

func TestCreateVehicle_DefaultStatus(t *testing.T) {
	// Подготовка
	service, repoMock, publisherMock := newTestVehicleService(t)
	ctx := context.Background()
	published := capturePublished(publisherMock)

	// Ожидания
	repoMock.EXPECT().
		Create(ctx, &models.Vehicle{Name: "HLF 20", Status: models.DefaultVehicleStatus}).
		DoAndReturn(func(_ context.Context, v *models.Vehicle) error {
			v.ID = 1
			return nil
		}).
		Times(1)

	// Действие
	vehicle, err := service.CreateVehicle(ctx, models.VehicleInput{Name: " HLF 20 "})

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, int64(1), vehicle.ID)
	require.Len(t, *published, 1)
	assert.Equal(t, events.VehicleCreated, (*published)[0].Type)
	assert.Equal(t, 1, (*published)[0].Vehicle.Status)
}

func TestCreateVehicle_Invalid(t *testing.T) {
	status5 := models.VehicleStatus(5)
	cases := []struct {
		name  string
		input models.VehicleInput
		field string
	}{
		{"blank name", models.VehicleInput{Name: "  "}, "name"},
		{"short name", models.VehicleInput{Name: "A"}, "name"},
		{"status outside allowed set", models.VehicleInput{Name: "DLK", Status: &status5}, "status"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service, _, _ := newTestVehicleService(t)

			vehicle, err := service.CreateVehicle(context.Background(), tc.input)

			assert.Nil(t, vehicle)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestCreateVehicle_DuplicateName(t *testing.T) {
	// Подготовка
	service, repoMock, _ := newTestVehicleService(t)
	ctx := context.Background()

	// Ожидания
	repoMock.EXPECT().Create(ctx, gomock.Any()).Return(fmt.Errorf("repository: vehicle name taken: %w", ErrConflict)).Times(1)

	// Действие
	_, err := service.CreateVehicle(ctx, models.VehicleInput{Name: "ELW 1"})

	// Проверки
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUpdateVehicle_Partial(t *testing.T) {
	// Подготовка
	service, repoMock, publisherMock := newTestVehicleService(t)
	ctx := context.Background()
	published := capturePublished(publisherMock)

	// Ожидания
	repoMock.EXPECT().GetByID(ctx, int64(4)).Return(&models.Vehicle{ID: 4, Name: "RW", Status: 1}, nil).Times(1)
	repoMock.EXPECT().Update(ctx, &models.Vehicle{ID: 4, Name: "RW", Status: 3}).Return(nil).Times(1)

	// Действие
	vehicle, err := service.UpdateVehicle(ctx, 4, models.VehiclePatch{Status: models.Some(models.VehicleStatus(3))})

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, models.VehicleStatus(3), vehicle.Status)
	assert.Equal(t, events.VehicleUpdated, (*published)[0].Type)
}

func TestUpdateVehicle_NotFound(t *testing.T) {
	// Подготовка
	service, repoMock, _ := newTestVehicleService(t)
	ctx := context.Background()

	// Ожидания
	repoMock.EXPECT().GetByID(ctx, int64(4)).Return(nil, ErrNotFound).Times(1)

	// Действие
	_, err := service.UpdateVehicle(ctx, 4, models.VehiclePatch{Name: models.Some("RW 2")})

	// Проверки
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateVehicle_InvalidStatus(t *testing.T) {
	// Подготовка
	service, repoMock, _ := newTestVehicleService(t)
	ctx := context.Background()

	// Ожидания
	repoMock.EXPECT().GetByID(ctx, int64(4)).Return(&models.Vehicle{ID: 4, Name: "RW", Status: 1}, nil).Times(1)

	// Действие
	_, err := service.UpdateVehicle(ctx, 4, models.VehiclePatch{Status: models.Some(models.VehicleStatus(7))})

	// Проверки
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestDeleteVehicle_EmitsDeleted(t *testing.T) {
	// Подготовка
	service, repoMock, publisherMock := newTestVehicleService(t)
	ctx := context.Background()
	published := capturePublished(publisherMock)
	deleted := &models.Vehicle{ID: 8, Name: "GW-L", Status: 6}

	// Ожидания
	repoMock.EXPECT().Delete(ctx, int64(8)).Return(deleted, nil).Times(1)

	// Действие
	vehicle, err := service.DeleteVehicle(ctx, 8)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, deleted, vehicle)
	assert.Equal(t, events.VehicleDeleted, (*published)[0].Type)
	assert.Equal(t, int64(8), *(*published)[0].VehicleID)
}
