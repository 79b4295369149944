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

type pgReservationRepository struct {
	db *sql.DB
}

func NewPgReservationRepository(db *sql.DB) repository.ReservationRepository {
	return &pgReservationRepository{db: db}
}

const reservationColumns = `id, user_id, spot_id, start_time, end_time, reservation_code, status, created_at`

func scanReservation(row interface{ Scan(...any) error }) (*domain.Reservation, error) {
	res := &domain.Reservation{}
	err := row.Scan(
		&res.ID, &res.UserID, &res.SpotID, &res.StartTime, &res.EndTime, &res.Code, &res.Status, &res.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	res.StartTime = res.StartTime.In(time.UTC)
	res.EndTime = res.EndTime.In(time.UTC)
	res.CreatedAt = res.CreatedAt.In(time.UTC)
	return res, nil
}

func (r *pgReservationRepository) Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	query := `INSERT INTO reservations (user_id, spot_id, start_time, end_time, reservation_code, status)
	           VALUES ($1, $2, $3, $4, $5, $6)
	           RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		res.UserID, res.SpotID, res.StartTime.UTC(), res.EndTime.UTC(), res.Code, res.Status,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return nil, fmt.Errorf("%w: reservation code '%s' is already in use", repository.ErrDuplicateEntry, res.Code)
		}
		return nil, fmt.Errorf("ReservationRepository.Create: %w", err)
	}
	res.CreatedAt = res.CreatedAt.In(time.UTC)
	return res, nil
}

func (r *pgReservationRepository) FindByID(ctx context.Context, id int) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	res, err := scanReservation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ReservationRepository.FindByID: %w", err)
	}
	return res, nil
}

func (r *pgReservationRepository) FindByCode(ctx context.Context, code string) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE reservation_code = $1`
	res, err := scanReservation(r.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ReservationRepository.FindByCode: %w", err)
	}
	return res, nil
}

func (r *pgReservationRepository) FindByUserID(ctx context.Context, userID int) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = $1 ORDER BY created_at DESC`
	return r.findMany(ctx, "FindByUserID", query, userID)
}

func (r *pgReservationRepository) FindAll(ctx context.Context) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations ORDER BY created_at DESC`
	return r.findMany(ctx, "FindAll", query)
}

func (r *pgReservationRepository) FindExpiredActive(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE status = $1 AND end_time < $2`
	return r.findMany(ctx, "FindExpiredActive", query, domain.ReservationActive, now.UTC())
}

func (r *pgReservationRepository) findMany(ctx context.Context, op, query string, args ...any) ([]domain.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.%s: %w", op, err)
	}
	defer rows.Close()

	reservations := []domain.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("ReservationRepository.%s (scanning row): %w", op, err)
		}
		reservations = append(reservations, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ReservationRepository.%s (iterating rows): %w", op, err)
	}
	return reservations, nil
}

// UpdateStatus transitions an ACTIVE reservation. The status guard in the
// WHERE clause makes the transition atomic: of two racing writers (a cancel
// and the expiry sweep, or two cancels) exactly one sees a row affected, and
// the loser gets ErrInvalidState. Terminal states are never overwritten.
func (r *pgReservationRepository) UpdateStatus(ctx context.Context, id int, status domain.ReservationStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET status = $1 WHERE id = $2 AND status = $3`,
		status, id, domain.ReservationActive,
	)
	if err != nil {
		return fmt.Errorf("ReservationRepository.UpdateStatus: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ReservationRepository.UpdateStatus (checking rows affected): %w", err)
	}
	if rows == 1 {
		return nil
	}
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: reservation %d is already %s", domain.ErrInvalidState, id, current.Status)
}

func (r *pgReservationRepository) CountByStatus(ctx context.Context, status domain.ReservationStatus) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE status = $1`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ReservationRepository.CountByStatus: %w", err)
	}
	return count, nil
}

func (r *pgReservationRepository) CountStartedSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE start_time >= $1`, since.UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ReservationRepository.CountStartedSince: %w", err)
	}
	return count, nil
}
