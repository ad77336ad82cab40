package repository

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/feuerwehr_melder/internal/models"
	"github.com/shenikar/feuerwehr_melder/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestPool подключается к TEST_DATABASE_URL, применяет миграции и очищает таблицы.
// Без переменной окружения тесты пропускаются.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	m, err := migrate.New("file://../../migrations", strings.Replace(dsn, "postgres://", "pgx5://", 1))
	require.NoError(t, err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		require.NoError(t, err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE incident_vehicles, incidents, vehicles, options RESTART IDENTITY CASCADE;`)
	require.NoError(t, err)
	return pool
}

func createVehicle(t *testing.T, repo *VehicleRepository, name string) *models.Vehicle {
	t.Helper()
	v := &models.Vehicle{Name: name, Status: models.DefaultVehicleStatus}
	require.NoError(t, repo.Create(context.Background(), v))
	return v
}

func TestIncidentRepository_CreateAndGetRoundTrip(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	incidents := NewIncidentRepository(pool)
	vehicles := NewVehicleRepository(pool)
	hlf := createVehicle(t, vehicles, "HLF 20")

	lat, lon := 52.52, 13.405
	scheduled := time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC)
	incident := &models.Incident{
		Title:       "Brand Lagerhalle",
		Description: "Rauch aus dem Dach",
		Address:     "Hafenstraße 4",
		Latitude:    &lat,
		Longitude:   &lon,
		ScheduledAt: &scheduled,
		Status:      models.IncidentStatusNew,
	}

	require.NoError(t, incidents.Create(ctx, incident, []int64{hlf.ID, 999}))
	assert.NotZero(t, incident.ID)
	assert.False(t, incident.CreatedAt.IsZero())
	require.Len(t, incident.Vehicles, 1)

	got, err := incidents.GetByID(ctx, incident.ID)
	require.NoError(t, err)
	assert.Equal(t, incident.Title, got.Title)
	assert.Equal(t, incident.Description, got.Description)
	assert.Equal(t, incident.Address, got.Address)
	assert.Equal(t, lat, *got.Latitude)
	assert.True(t, scheduled.Equal(*got.ScheduledAt))
	assert.Equal(t, []models.Vehicle{*hlf}, got.Vehicles)
}

func TestIncidentRepository_MatchQueries(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	incidents := NewIncidentRepository(pool)

	scheduled := time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC)
	incident := &models.Incident{Title: "Uebung", Address: "  Altes Depot ", ScheduledAt: &scheduled, Status: models.IncidentStatusNew}
	require.NoError(t, incidents.Create(ctx, incident, nil))

	bySchedule, err := incidents.FindByTitleAndSchedule(ctx, "Uebung", scheduled.In(time.FixedZone("CEST", 2*3600)))
	require.NoError(t, err)
	require.NotNil(t, bySchedule)
	assert.Equal(t, incident.ID, bySchedule.ID)

	byAddress, err := incidents.FindByTitleAndAddress(ctx, " uebung", "altes depot")
	require.NoError(t, err)
	require.NotNil(t, byAddress)
	assert.Equal(t, incident.ID, byAddress.ID)

	none, err := incidents.FindByTitleAndAddress(ctx, "Uebung", "Neues Depot")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestIncidentRepository_UpdateReplacesVehicles(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	incidents := NewIncidentRepository(pool)
	vehicles := NewVehicleRepository(pool)
	a := createVehicle(t, vehicles, "TLF 3000")
	b := createVehicle(t, vehicles, "DLK 23")

	incident := &models.Incident{Title: "Brand", Address: "Markt 1", Status: models.IncidentStatusNew}
	require.NoError(t, incidents.Create(ctx, incident, []int64{a.ID}))

	incident.Status = models.IncidentStatusActive
	require.NoError(t, incidents.Update(ctx, incident, true, []int64{b.ID}))
	assert.Equal(t, []models.Vehicle{*b}, incident.Vehicles)

	require.NoError(t, incidents.Update(ctx, incident, true, nil))
	got, err := incidents.GetByID(ctx, incident.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IncidentStatusActive, got.Status)
	assert.Empty(t, got.Vehicles)
}

func TestVehicleRepository_DeleteRemovesAssignmentOnly(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	incidents := NewIncidentRepository(pool)
	vehicles := NewVehicleRepository(pool)
	a := createVehicle(t, vehicles, "MTW")
	b := createVehicle(t, vehicles, "RW")

	incident := &models.Incident{Title: "Verkehrsunfall", Address: "B27", Status: models.IncidentStatusNew}
	require.NoError(t, incidents.Create(ctx, incident, []int64{a.ID, b.ID}))

	deleted, err := vehicles.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, deleted)

	got, err := incidents.GetByID(ctx, incident.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Vehicle{*b}, got.Vehicles)

	_, err = vehicles.Delete(ctx, a.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestVehicleRepository_DuplicateNameConflict(t *testing.T) {
	pool := newTestPool(t)
	vehicles := NewVehicleRepository(pool)
	createVehicle(t, vehicles, "ELW 1")

	err := vehicles.Create(context.Background(), &models.Vehicle{Name: "ELW 1", Status: 2})
	assert.ErrorIs(t, err, service.ErrConflict)
}

func TestIncidentRepository_DeleteCascades(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	incidents := NewIncidentRepository(pool)
	vehicles := NewVehicleRepository(pool)
	v := createVehicle(t, vehicles, "LF 10")

	incident := &models.Incident{Title: "Brand", Address: "Markt 1", Status: models.IncidentStatusNew}
	require.NoError(t, incidents.Create(ctx, incident, []int64{v.ID}))

	deleted, err := incidents.Delete(ctx, incident.ID)
	require.NoError(t, err)
	assert.Equal(t, incident.ID, deleted.ID)
	assert.Len(t, deleted.Vehicles, 1)

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM incident_vehicles`).Scan(&count))
	assert.Zero(t, count)

	_, err = vehicles.GetByID(ctx, v.ID)
	assert.NoError(t, err)

	_, err = incidents.Delete(ctx, incident.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestIncidentRepository_ActivateOnlyFlipsNew(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	incidents := NewIncidentRepository(pool)

	past := time.Now().UTC().Add(-time.Minute)
	pending := &models.Incident{Title: "Geplant", Address: "Markt 1", ScheduledAt: &past, Status: models.IncidentStatusNew}
	closed := &models.Incident{Title: "Erledigt", Address: "Markt 2", ScheduledAt: &past, Status: models.IncidentStatusClosed}
	require.NoError(t, incidents.Create(ctx, pending, nil))
	require.NoError(t, incidents.Create(ctx, closed, nil))

	list, err := incidents.ListPendingActivation(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, pending.ID, list[0].ID)

	activated, err := incidents.Activate(ctx, []int64{pending.ID, closed.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{pending.ID}, activated)

	activated, err = incidents.Activate(ctx, []int64{pending.ID})
	require.NoError(t, err)
	assert.Empty(t, activated)
}

func TestOptionsRepository_GetOrCreateIsIdempotent(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	options := NewOptionsRepository(pool)

	first, err := options.GetOrCreate(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultOptions(), first)

	first.AlarmSound = "sirene.mp3"
	require.NoError(t, options.Update(ctx, first))

	second, err := options.GetOrCreate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sirene.mp3", second.AlarmSound)
}
