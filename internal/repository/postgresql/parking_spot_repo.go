package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/FuatYavas/ParkVision/internal/domain"
	"github.com/FuatYavas/ParkVision/internal/repository"
)

type pgParkingSpotRepository struct {
	db *sql.DB
}

func NewPgParkingSpotRepository(db *sql.DB) repository.ParkingSpotRepository {
	return &pgParkingSpotRepository{db: db}
}

func scanSpot(row interface{ Scan(...any) error }) (*domain.ParkingSpot, error) {
	spot := &domain.ParkingSpot{}
	var lat, lng sql.NullFloat64
	err := row.Scan(
		&spot.ID, &spot.LotID, &spot.SpotNumber, &lat, &lng, &spot.Status, &spot.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	if lat.Valid {
		spot.Latitude = &lat.Float64
	}
	if lng.Valid {
		spot.Longitude = &lng.Float64
	}
	spot.LastUpdated = spot.LastUpdated.In(time.UTC)
	return spot, nil
}

func (r *pgParkingSpotRepository) Create(ctx context.Context, spot *domain.ParkingSpot) (*domain.ParkingSpot, error) {
	query := `INSERT INTO parking_spots (parking_lot_id, spot_number, latitude, longitude, status, last_updated)
	           VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
	           RETURNING id, last_updated`
	err := r.db.QueryRowContext(ctx, query,
		spot.LotID, spot.SpotNumber, spot.Latitude, spot.Longitude, spot.Status,
	).Scan(&spot.ID, &spot.LastUpdated)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return nil, fmt.Errorf("%w: spot '%s' already exists in lot %d", repository.ErrDuplicateEntry, spot.SpotNumber, spot.LotID)
		}
		return nil, fmt.Errorf("ParkingSpotRepository.Create: %w", err)
	}
	spot.LastUpdated = spot.LastUpdated.In(time.UTC)
	return spot, nil
}

func (r *pgParkingSpotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingSpot, error) {
	query := `SELECT id, parking_lot_id, spot_number, latitude, longitude, status, last_updated
	           FROM parking_spots WHERE id = $1`
	spot, err := scanSpot(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSpotRepository.FindByID: %w", err)
	}
	return spot, nil
}

func (r *pgParkingSpotRepository) FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpot, error) {
	query := `SELECT id, parking_lot_id, spot_number, latitude, longitude, status, last_updated
	           FROM parking_spots WHERE parking_lot_id = $1 ORDER BY spot_number`
	return r.findMany(ctx, "FindByLotID", query, lotID)
}

func (r *pgParkingSpotRepository) FindAll(ctx context.Context) ([]domain.ParkingSpot, error) {
	query := `SELECT id, parking_lot_id, spot_number, latitude, longitude, status, last_updated
	           FROM parking_spots ORDER BY parking_lot_id, spot_number`
	return r.findMany(ctx, "FindAll", query)
}

func (r *pgParkingSpotRepository) findMany(ctx context.Context, op, query string, args ...any) ([]domain.ParkingSpot, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ParkingSpotRepository.%s: %w", op, err)
	}
	defer rows.Close()

	spots := []domain.ParkingSpot{}
	for rows.Next() {
		spot, err := scanSpot(rows)
		if err != nil {
			return nil, fmt.Errorf("ParkingSpotRepository.%s (scanning row): %w", op, err)
		}
		spots = append(spots, *spot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingSpotRepository.%s (iterating rows): %w", op, err)
	}
	return spots, nil
}

func (r *pgParkingSpotRepository) UpdateStatus(ctx context.Context, id int, status domain.SpotStatus, at time.Time) error {
	query := `UPDATE parking_spots SET status = $1, last_updated = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.UpdateStatus: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.UpdateStatus (checking rows affected): %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgParkingSpotRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM parking_spots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.Delete: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.Delete (checking rows affected): %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgParkingSpotRepository) DeleteByLotID(ctx context.Context, lotID int) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM parking_spots WHERE parking_lot_id = $1`, lotID); err != nil {
		return fmt.Errorf("ParkingSpotRepository.DeleteByLotID: %w", err)
	}
	return nil
}
