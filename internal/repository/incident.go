package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/feuerwehr_melder/internal/models"
	"github.com/shenikar/feuerwehr_melder/internal/service"
)

const incidentColumns = `id, title, description, address, latitude, longitude, scheduled_at, status, created_at`

type IncidentRepository struct {
	db *pgxpool.Pool
}

func NewIncidentRepository(db *pgxpool.Pool) *IncidentRepository {
	return &IncidentRepository{db: db}
}

// Create вставляет инцидент и назначает ему существующие машины из vehicleIDs
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident, vehicleIDs []int64) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO incidents (title, description, address, latitude, longitude, scheduled_at, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at;
		`
		var createdAt *time.Time
		err := tx.QueryRow(ctx, query,
			incident.Title,
			incident.Description,
			incident.Address,
			incident.Latitude,
			incident.Longitude,
			incident.ScheduledAt,
			incident.Status,
		).Scan(&incident.ID, &createdAt)
		if err != nil {
			return fmt.Errorf("failed to create incident: %w", err)
		}
		if createdAt != nil {
			incident.CreatedAt = createdAt.UTC()
		}

		vehicles, err := replaceVehicles(ctx, tx, incident.ID, vehicleIDs)
		if err != nil {
			return err
		}
		incident.Vehicles = vehicles
		return nil
	})
}

// Update перезаписывает изменяемые колонки инцидента.
// При replaceVehicles набор назначенных машин заменяется целиком.
func (r *IncidentRepository) Update(ctx context.Context, incident *models.Incident, replace bool, vehicleIDs []int64) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			UPDATE incidents SET
				title = $1,
				description = $2,
				address = $3,
				latitude = $4,
				longitude = $5,
				scheduled_at = $6,
				status = $7
			WHERE id = $8;
		`
		cmdTag, err := tx.Exec(ctx, query,
			incident.Title,
			incident.Description,
			incident.Address,
			incident.Latitude,
			incident.Longitude,
			incident.ScheduledAt,
			incident.Status,
			incident.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update incident: %w", err)
		}
		// RowsAffected() == 0 значит, что инцидент удалили параллельно
		if cmdTag.RowsAffected() == 0 {
			return fmt.Errorf("incident with id %d not found for update: %w", incident.ID, service.ErrNotFound)
		}

		if !replace {
			return nil
		}
		vehicles, err := replaceVehicles(ctx, tx, incident.ID, vehicleIDs)
		if err != nil {
			return err
		}
		incident.Vehicles = vehicles
		return nil
	})
}

// GetByID возвращает инцидент вместе с назначенными машинами
func (r *IncidentRepository) GetByID(ctx context.Context, id int64) (*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1;`
	incident, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident with id %d: %w", id, service.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get incident by id: %w", err)
	}
	if err := loadVehicles(ctx, r.db, []*models.Incident{incident}); err != nil {
		return nil, err
	}
	return incident, nil
}

// List возвращает страницу инцидентов в порядке добавления
func (r *IncidentRepository) List(ctx context.Context, offset, limit int) ([]*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents ORDER BY id LIMIT $1 OFFSET $2;`
	incidents, err := queryIncidents(ctx, r.db, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	if err := loadVehicles(ctx, r.db, incidents); err != nil {
		return nil, err
	}
	return incidents, nil
}

// Delete удаляет инцидент, строки incident_vehicles удаляются каскадно
func (r *IncidentRepository) Delete(ctx context.Context, id int64) (*models.Incident, error) {
	var deleted *models.Incident
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1 FOR UPDATE;`
		incident, err := scanIncident(tx.QueryRow(ctx, query, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("incident with id %d: %w", id, service.ErrNotFound)
			}
			return fmt.Errorf("failed to get incident for delete: %w", err)
		}
		if err := loadVehicles(ctx, tx, []*models.Incident{incident}); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM incidents WHERE id = $1;`, id); err != nil {
			return fmt.Errorf("failed to delete incident: %w", err)
		}
		deleted = incident
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// FindByTitleAndSchedule ищет инцидент с тем же заголовком и временем. Если совпадения нет, возвращает nil, nil.
func (r *IncidentRepository) FindByTitleAndSchedule(ctx context.Context, title string, scheduledAt time.Time) (*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE title = $1 AND scheduled_at = $2 ORDER BY id LIMIT 1;`
	return r.findOne(ctx, query, title, scheduledAt)
}

// FindByTitleAndAddress сравнивает заголовок и адрес без учета регистра и пробелов по краям
func (r *IncidentRepository) FindByTitleAndAddress(ctx context.Context, title, address string) (*models.Incident, error) {
	query := `
		SELECT ` + incidentColumns + ` FROM incidents
		WHERE lower(trim(title)) = lower(trim($1))
			AND lower(trim(address)) = lower(trim($2))
		ORDER BY id
		LIMIT 1;
	`
	return r.findOne(ctx, query, title, address)
}

func (r *IncidentRepository) findOne(ctx context.Context, query string, args ...any) (*models.Incident, error) {
	incident, err := scanIncident(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find matching incident: %w", err)
	}
	if err := loadVehicles(ctx, r.db, []*models.Incident{incident}); err != nil {
		return nil, err
	}
	return incident, nil
}

// SetCreatedAt заполняет created_at, только если он еще пуст
func (r *IncidentRepository) SetCreatedAt(ctx context.Context, id int64, createdAt time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE incidents SET created_at = $1 WHERE id = $2 AND created_at IS NULL;`, createdAt, id)
	if err != nil {
		return fmt.Errorf("failed to set created_at: %w", err)
	}
	return nil
}

// ListPendingActivation возвращает новые инциденты с заданным scheduled_at
func (r *IncidentRepository) ListPendingActivation(ctx context.Context) ([]*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE status = 'new' AND scheduled_at IS NOT NULL ORDER BY id;`
	incidents, err := queryIncidents(ctx, r.db, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending incidents: %w", err)
	}
	return incidents, nil
}

// Activate переводит инциденты из new в active одной транзакцией и возвращает id измененных
func (r *IncidentRepository) Activate(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var activated []int64
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			UPDATE incidents SET status = 'active'
			WHERE id = ANY($1) AND status = 'new'
			RETURNING id;
		`, ids)
		if err != nil {
			return fmt.Errorf("failed to activate incidents: %w", err)
		}
		activated, err = pgx.CollectRows(rows, pgx.RowTo[int64])
		if err != nil {
			return fmt.Errorf("failed to collect activated ids: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return activated, nil
}

func scanIncident(row pgx.Row) (*models.Incident, error) {
	incident := &models.Incident{}
	var createdAt, scheduledAt *time.Time
	err := row.Scan(
		&incident.ID,
		&incident.Title,
		&incident.Description,
		&incident.Address,
		&incident.Latitude,
		&incident.Longitude,
		&scheduledAt,
		&incident.Status,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	if scheduledAt != nil {
		at := scheduledAt.UTC()
		incident.ScheduledAt = &at
	}
	if createdAt != nil {
		incident.CreatedAt = createdAt.UTC()
	}
	incident.Vehicles = []models.Vehicle{}
	return incident, nil
}

func queryIncidents(ctx context.Context, q querier, query string, args ...any) ([]*models.Incident, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident row: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return incidents, nil
}

// loadVehicles подгружает машины для всех инцидентов одним запросом
func loadVehicles(ctx context.Context, q querier, incidents []*models.Incident) error {
	if len(incidents) == 0 {
		return nil
	}
	byID := make(map[int64]*models.Incident, len(incidents))
	ids := make([]int64, 0, len(incidents))
	for _, incident := range incidents {
		byID[incident.ID] = incident
		ids = append(ids, incident.ID)
	}

	rows, err := q.Query(ctx, `
		SELECT iv.incident_id, v.id, v.name, v.status
		FROM incident_vehicles iv
		JOIN vehicles v ON v.id = iv.vehicle_id
		WHERE iv.incident_id = ANY($1)
		ORDER BY v.id;
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to load incident vehicles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var incidentID int64
		var v models.Vehicle
		if err := rows.Scan(&incidentID, &v.ID, &v.Name, &v.Status); err != nil {
			return fmt.Errorf("failed to scan incident vehicle row: %w", err)
		}
		if incident, ok := byID[incidentID]; ok {
			incident.Vehicles = append(incident.Vehicles, v)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error incident vehicles iteration: %w", err)
	}
	return nil
}

// replaceVehicles заменяет набор машин инцидента. Несуществующие id молча отбрасываются.
func replaceVehicles(ctx context.Context, tx pgx.Tx, incidentID int64, vehicleIDs []int64) ([]models.Vehicle, error) {
	if _, err := tx.Exec(ctx, `DELETE FROM incident_vehicles WHERE incident_id = $1;`, incidentID); err != nil {
		return nil, fmt.Errorf("failed to clear incident vehicles: %w", err)
	}
	if len(vehicleIDs) > 0 {
		_, err := tx.Exec(ctx, `
			INSERT INTO incident_vehicles (incident_id, vehicle_id)
			SELECT $1, id FROM vehicles WHERE id = ANY($2)
			ON CONFLICT DO NOTHING;
		`, incidentID, vehicleIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to assign incident vehicles: %w", err)
		}
	}

	incident := &models.Incident{ID: incidentID, Vehicles: []models.Vehicle{}}
	if err := loadVehicles(ctx, tx, []*models.Incident{incident}); err != nil {
		return nil, err
	}
	return incident.Vehicles, nil
}
