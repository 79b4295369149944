package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/FuatYavas/ParkVision/internal/domain"
	"github.com/FuatYavas/ParkVision/internal/repository"
)

type pgVehicleRepository struct {
	db *sql.DB
}

func NewPgVehicleRepository(db *sql.DB) repository.VehicleRepository {
	return &pgVehicleRepository{db: db}
}

func (r *pgVehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error) {
	query := `INSERT INTO vehicles (plate_number, brand, model, color, vehicle_type, owner_id)
	           VALUES ($1, $2, $3, $4, $5, $6)
	           RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		vehicle.PlateNumber, vehicle.Brand, vehicle.Model, vehicle.Color, vehicle.VehicleType, vehicle.OwnerID,
	).Scan(&vehicle.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return nil, fmt.Errorf("%w: plate number '%s' is already registered", repository.ErrDuplicateEntry, vehicle.PlateNumber)
		}
		return nil, fmt.Errorf("VehicleRepository.Create: %w", err)
	}
	return vehicle, nil
}

func (r *pgVehicleRepository) FindByID(ctx context.Context, id int) (*domain.Vehicle, error) {
	vehicle := &domain.Vehicle{}
	query := `SELECT id, plate_number, brand, model, color, vehicle_type, owner_id
	           FROM vehicles WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&vehicle.ID, &vehicle.PlateNumber, &vehicle.Brand, &vehicle.Model, &vehicle.Color, &vehicle.VehicleType, &vehicle.OwnerID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("VehicleRepository.FindByID: %w", err)
	}
	return vehicle, nil
}

func (r *pgVehicleRepository) FindByOwnerID(ctx context.Context, ownerID int) ([]domain.Vehicle, error) {
	query := `SELECT id, plate_number, brand, model, color, vehicle_type, owner_id
	           FROM vehicles WHERE owner_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("VehicleRepository.FindByOwnerID: %w", err)
	}
	defer rows.Close()

	vehicles := []domain.Vehicle{}
	for rows.Next() {
		var v domain.Vehicle
		if err := rows.Scan(&v.ID, &v.PlateNumber, &v.Brand, &v.Model, &v.Color, &v.VehicleType, &v.OwnerID); err != nil {
			return nil, fmt.Errorf("VehicleRepository.FindByOwnerID (scanning row): %w", err)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("VehicleRepository.FindByOwnerID (iterating rows): %w", err)
	}
	return vehicles, nil
}

func (r *pgVehicleRepository) FindByPlateNumber(ctx context.Context, plate string) (*domain.Vehicle, error) {
	vehicle := &domain.Vehicle{}
	query := `SELECT id, plate_number, brand, model, color, vehicle_type, owner_id
	           FROM vehicles WHERE plate_number = $1`
	err := r.db.QueryRowContext(ctx, query, plate).Scan(
		&vehicle.ID, &vehicle.PlateNumber, &vehicle.Brand, &vehicle.Model, &vehicle.Color, &vehicle.VehicleType, &vehicle.OwnerID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("VehicleRepository.FindByPlateNumber: %w", err)
	}
	return vehicle, nil
}

func (r *pgVehicleRepository) Update(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error) {
	query := `UPDATE vehicles SET plate_number = $1, brand = $2, model = $3, color = $4, vehicle_type = $5
	           WHERE id = $6`
	result, err := r.db.ExecContext(ctx, query,
		vehicle.PlateNumber, vehicle.Brand, vehicle.Model, vehicle.Color, vehicle.VehicleType, vehicle.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return nil, fmt.Errorf("%w: plate number '%s' is already registered", repository.ErrDuplicateEntry, vehicle.PlateNumber)
		}
		return nil, fmt.Errorf("VehicleRepository.Update: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("VehicleRepository.Update (checking rows affected): %w", err)
	}
	if rows == 0 {
		return nil, repository.ErrNotFound
	}
	return vehicle, nil
}

func (r *pgVehicleRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("VehicleRepository.Delete: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("VehicleRepository.Delete (checking rows affected): %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
