package service

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/guregu/null.v4"

	"github.com/FuatYavas/ParkVision/internal/domain"
	"github.com/FuatYavas/ParkVision/internal/repository"
	"github.com/FuatYavas/ParkVision/internal/state"
)

// ReportService records crowd-sourced spot observations and verifies them
// against the live state.
type ReportService struct {
	reportRepo repository.ReportRepository
	lotRepo    repository.ParkingLotRepository
	store      *state.Store
}

func NewReportService(reportRepo repository.ReportRepository, lotRepo repository.ParkingLotRepository, store *state.Store) *ReportService {
	return &ReportService{reportRepo: reportRepo, lotRepo: lotRepo, store: store}
}

func (s *ReportService) Submit(ctx context.Context, userID int, dto domain.ReportDTO) (*domain.Report, error) {
	reportType, err := domain.ParseReportType(dto.ReportType)
	if err != nil {
		return nil, err
	}
	if _, err := s.lotRepo.FindByID(ctx, dto.LotID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: parking lot %d does not exist", repository.ErrNotFound, dto.LotID)
		}
		return nil, err
	}

	report := &domain.Report{
		UserID:     userID,
		LotID:      dto.LotID,
		ReportType: reportType,
	}
	if dto.SpotID != nil {
		spot, err := s.store.Get(*dto.SpotID)
		if err != nil {
			return nil, fmt.Errorf("%w: spot %d does not exist", repository.ErrNotFound, *dto.SpotID)
		}
		if spot.LotID != dto.LotID {
			return nil, fmt.Errorf("%w: spot %d is not in lot %d", domain.ErrInvalidInput, *dto.SpotID, dto.LotID)
		}
		report.SpotID = null.IntFrom(int64(*dto.SpotID))
	}

	created, err := s.reportRepo.Create(ctx, report)
	if err != nil {
		return nil, err
	}

	// A report naming a spot whose live state already agrees is self-verifying.
	if created.SpotID.Valid {
		if spot, err := s.store.Get(int(created.SpotID.Int64)); err == nil && s.agrees(reportType, spot.Status) {
			if err := s.reportRepo.MarkVerified(ctx, created.ID); err == nil {
				created.IsVerified = true
			}
		}
	}
	return created, nil
}

func (s *ReportService) agrees(reportType domain.ReportType, status domain.SpotStatus) bool {
	switch reportType {
	case domain.ReportVacant:
		return status == domain.SpotEmpty
	case domain.ReportOccupied:
		return status == domain.SpotOccupied
	}
	return false
}

func (s *ReportService) List(ctx context.Context, offset, limit int) ([]domain.Report, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.reportRepo.FindAll(ctx, offset, limit)
}

func (s *ReportService) Verify(ctx context.Context, reportID int) error {
	return s.reportRepo.MarkVerified(ctx, reportID)
}
