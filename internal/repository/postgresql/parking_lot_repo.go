package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/FuatYavas/ParkVision/internal/domain"
	"github.com/FuatYavas/ParkVision/internal/repository"
)

type pgParkingLotRepository struct {
	db *sql.DB
}

func NewPgParkingLotRepository(db *sql.DB) repository.ParkingLotRepository {
	return &pgParkingLotRepository{db: db}
}

func (r *pgParkingLotRepository) Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	query := `INSERT INTO parking_lots (name, address, latitude, longitude, capacity, hourly_rate, is_active)
	           VALUES ($1, $2, $3, $4, $5, $6, TRUE)
	           RETURNING id, is_active, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		lot.Name, lot.Address, lot.Latitude, lot.Longitude, lot.Capacity, lot.HourlyRate,
	).Scan(&lot.ID, &lot.IsActive, &lot.CreatedAt, &lot.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.Create: %w", err)
	}
	lot.CreatedAt = lot.CreatedAt.In(time.UTC)
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return lot, nil
}

func (r *pgParkingLotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	lot := &domain.ParkingLot{}
	query := `SELECT id, name, address, latitude, longitude, capacity, hourly_rate, is_active, created_at, updated_at
	           FROM parking_lots WHERE id = $1`
	var address sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&lot.ID, &lot.Name, &address, &lot.Latitude, &lot.Longitude,
		&lot.Capacity, &lot.HourlyRate, &lot.IsActive, &lot.CreatedAt, &lot.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingLotRepository.FindByID: %w", err)
	}
	lot.Address = address.String
	lot.CreatedAt = lot.CreatedAt.In(time.UTC)
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return lot, nil
}

func (r *pgParkingLotRepository) FindAll(ctx context.Context) ([]domain.ParkingLot, error) {
	query := `SELECT id, name, address, latitude, longitude, capacity, hourly_rate, is_active, created_at, updated_at
	           FROM parking_lots ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.FindAll: %w", err)
	}
	defer rows.Close()

	lots := []domain.ParkingLot{}
	for rows.Next() {
		var lot domain.ParkingLot
		var address sql.NullString
		if err := rows.Scan(
			&lot.ID, &lot.Name, &address, &lot.Latitude, &lot.Longitude,
			&lot.Capacity, &lot.HourlyRate, &lot.IsActive, &lot.CreatedAt, &lot.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ParkingLotRepository.FindAll (scanning row): %w", err)
		}
		lot.Address = address.String
		lot.CreatedAt = lot.CreatedAt.In(time.UTC)
		lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
		lots = append(lots, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.FindAll (iterating rows): %w", err)
	}
	return lots, nil
}

func (r *pgParkingLotRepository) Update(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	query := `UPDATE parking_lots
	           SET name = $1, address = $2, latitude = $3, longitude = $4, capacity = $5, hourly_rate = $6,
	               is_active = $7, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $8
	           RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		lot.Name, lot.Address, lot.Latitude, lot.Longitude, lot.Capacity, lot.HourlyRate, lot.IsActive, lot.ID,
	).Scan(&lot.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingLotRepository.Update: %w", err)
	}
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return lot, nil
}

func (r *pgParkingLotRepository) UpdateCapacity(ctx context.Context, id int, capacity int) error {
	query := `UPDATE parking_lots SET capacity = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, capacity, id)
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.UpdateCapacity: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.UpdateCapacity (checking rows affected): %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgParkingLotRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM parking_lots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.Delete: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.Delete (checking rows affected): %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgParkingLotRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM parking_lots`).Scan(&count); err != nil {
		return 0, fmt.Errorf("ParkingLotRepository.Count: %w", err)
	}
	return count, nil
}
