package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/feuerwehr_melder/internal/models"
	"github.com/shenikar/feuerwehr_melder/internal/service"
)

type VehicleRepository struct {
	db *pgxpool.Pool
}

func NewVehicleRepository(db *pgxpool.Pool) *VehicleRepository {
	return &VehicleRepository{db: db}
}

func (r *VehicleRepository) Create(ctx context.Context, vehicle *models.Vehicle) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO vehicles (name, status) VALUES ($1, $2) RETURNING id;`,
		vehicle.Name, vehicle.Status,
	).Scan(&vehicle.ID)
	if err != nil {
		return fmt.Errorf("failed to create vehicle: %w", mapConstraintError(err, "vehicle "+vehicle.Name))
	}
	return nil
}

func (r *VehicleRepository) GetByID(ctx context.Context, id int64) (*models.Vehicle, error) {
	vehicle := &models.Vehicle{}
	err := r.db.QueryRow(ctx, `SELECT id, name, status FROM vehicles WHERE id = $1;`, id).
		Scan(&vehicle.ID, &vehicle.Name, &vehicle.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("vehicle with id %d: %w", id, service.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get vehicle by id: %w", err)
	}
	return vehicle, nil
}

func (r *VehicleRepository) List(ctx context.Context, offset, limit int) ([]*models.Vehicle, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, status FROM vehicles ORDER BY id LIMIT $1 OFFSET $2;`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	defer rows.Close()

	vehicles := make([]*models.Vehicle, 0)
	for rows.Next() {
		vehicle := &models.Vehicle{}
		if err := rows.Scan(&vehicle.ID, &vehicle.Name, &vehicle.Status); err != nil {
			return nil, fmt.Errorf("failed to scan vehicle row: %w", err)
		}
		vehicles = append(vehicles, vehicle)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return vehicles, nil
}

func (r *VehicleRepository) Update(ctx context.Context, vehicle *models.Vehicle) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE vehicles SET name = $1, status = $2 WHERE id = $3;`,
		vehicle.Name, vehicle.Status, vehicle.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update vehicle: %w", mapConstraintError(err, "vehicle "+vehicle.Name))
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("vehicle with id %d not found for update: %w", vehicle.ID, service.ErrNotFound)
	}
	return nil
}

// Delete удаляет машину, назначения на инциденты удаляются каскадно
func (r *VehicleRepository) Delete(ctx context.Context, id int64) (*models.Vehicle, error) {
	vehicle := &models.Vehicle{}
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `DELETE FROM vehicles WHERE id = $1 RETURNING id, name, status;`, id).
			Scan(&vehicle.ID, &vehicle.Name, &vehicle.Status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("vehicle with id %d: %w", id, service.ErrNotFound)
			}
			return fmt.Errorf("failed to delete vehicle: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vehicle, nil
}
