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

type pgReportRepository struct {
	db *sql.DB
}

func NewPgReportRepository(db *sql.DB) repository.ReportRepository {
	return &pgReportRepository{db: db}
}

func (r *pgReportRepository) Create(ctx context.Context, report *domain.Report) (*domain.Report, error) {
	query := `INSERT INTO reports (user_id, parking_lot_id, spot_id, report_type, timestamp)
	           VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
	           RETURNING id, timestamp, is_verified`
	err := r.db.QueryRowContext(ctx, query,
		report.UserID, report.LotID, report.SpotID, report.ReportType,
	).Scan(&report.ID, &report.Timestamp, &report.IsVerified)
	if err != nil {
		return nil, fmt.Errorf("ReportRepository.Create: %w", err)
	}
	report.Timestamp = report.Timestamp.In(time.UTC)
	return report, nil
}

func (r *pgReportRepository) FindByID(ctx context.Context, id int) (*domain.Report, error) {
	report := &domain.Report{}
	query := `SELECT id, user_id, parking_lot_id, spot_id, report_type, timestamp, is_verified
	           FROM reports WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&report.ID, &report.UserID, &report.LotID, &report.SpotID, &report.ReportType, &report.Timestamp, &report.IsVerified,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ReportRepository.FindByID: %w", err)
	}
	report.Timestamp = report.Timestamp.In(time.UTC)
	return report, nil
}

func (r *pgReportRepository) FindAll(ctx context.Context, offset, limit int) ([]domain.Report, error) {
	query := `SELECT id, user_id, parking_lot_id, spot_id, report_type, timestamp, is_verified
	           FROM reports ORDER BY timestamp DESC OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("ReportRepository.FindAll: %w", err)
	}
	defer rows.Close()

	reports := []domain.Report{}
	for rows.Next() {
		var report domain.Report
		if err := rows.Scan(
			&report.ID, &report.UserID, &report.LotID, &report.SpotID, &report.ReportType, &report.Timestamp, &report.IsVerified,
		); err != nil {
			return nil, fmt.Errorf("ReportRepository.FindAll (scanning row): %w", err)
		}
		report.Timestamp = report.Timestamp.In(time.UTC)
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ReportRepository.FindAll (iterating rows): %w", err)
	}
	return reports, nil
}

func (r *pgReportRepository) MarkVerified(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE reports SET is_verified = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ReportRepository.MarkVerified: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ReportRepository.MarkVerified (checking rows affected): %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
