package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/FuatYavas/ParkVision/internal/domain"
	"github.com/FuatYavas/ParkVision/internal/repository"
	"github.com/FuatYavas/ParkVision/internal/state"
)

// DashboardService aggregates system-wide numbers for the operator view.
type DashboardService struct {
	lotRepo         repository.ParkingLotRepository
	userRepo        repository.UserRepository
	reservationRepo repository.ReservationRepository
	store           *state.Store
}

func NewDashboardService(
	lotRepo repository.ParkingLotRepository,
	userRepo repository.UserRepository,
	reservationRepo repository.ReservationRepository,
	store *state.Store,
) *DashboardService {
	return &DashboardService{
		lotRepo:         lotRepo,
		userRepo:        userRepo,
		reservationRepo: reservationRepo,
		store:           store,
	}
}

type DashboardStats struct {
	TotalLots           int     `json:"total_lots"`
	TotalUsers          int     `json:"total_users"`
	ActiveReservations  int     `json:"active_reservations"`
	ReservationsLast24h int     `json:"reservations_last_24h"`
	TotalSpots          int     `json:"total_spots"`
	OccupiedSpots       int     `json:"occupied_spots"`
	OverallOccupancy    float64 `json:"overall_occupancy"`
}

type LotLiveStatus struct {
	Lot       domain.ParkingLot       `json:"lot"`
	Occupancy domain.OccupancySummary `json:"occupancy"`
}

func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	lots, err := s.lotRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.reservationRepo.CountByStatus(ctx, domain.ReservationActive)
	if err != nil {
		return nil, err
	}
	recent, err := s.reservationRepo.CountStartedSince(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		TotalLots:           len(lots),
		TotalUsers:          users,
		ActiveReservations:  active,
		ReservationsLast24h: recent,
	}
	for _, lot := range lots {
		sum := s.store.Summary(lot.ID)
		stats.TotalSpots += sum.Total
		stats.OccupiedSpots += sum.Occupied
	}
	if stats.TotalSpots > 0 {
		stats.OverallOccupancy = float64(stats.OccupiedSpots) / float64(stats.TotalSpots)
	}
	return stats, nil
}

func (s *DashboardService) LiveLotStatuses(ctx context.Context) ([]LotLiveStatus, error) {
	lots, err := s.lotRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	statuses := make([]LotLiveStatus, 0, len(lots))
	for _, lot := range lots {
		statuses = append(statuses, LotLiveStatus{Lot: lot, Occupancy: s.store.Summary(lot.ID)})
	}
	return statuses, nil
}

// ExportOccupancyReport renders the current occupancy of every lot into an
// xlsx workbook, one row per lot plus a per-spot detail sheet.
func (s *DashboardService) ExportOccupancyReport(ctx context.Context) (*bytes.Buffer, error) {
	lots, err := s.lotRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Occupancy"
	f.SetSheetName(f.GetSheetName(0), summarySheet)
	headers := []string{"Lot ID", "Name", "Capacity", "Total Spots", "Empty", "Occupied", "Reserved", "Occupancy Rate"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(summarySheet, cell, h)
	}
	for row, lot := range lots {
		sum := s.store.Summary(lot.ID)
		values := []any{lot.ID, lot.Name, lot.Capacity, sum.Total, sum.Empty, sum.Occupied, sum.Reserved, sum.OccupancyRate}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(summarySheet, cell, v)
		}
	}

	const detailSheet = "Spots"
	if _, err := f.NewSheet(detailSheet); err != nil {
		return nil, fmt.Errorf("creating detail sheet: %w", err)
	}
	detailHeaders := []string{"Lot ID", "Spot ID", "Spot Number", "Status", "Last Updated"}
	for i, h := range detailHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(detailSheet, cell, h)
	}
	row := 2
	for _, lot := range lots {
		for _, spot := range s.store.ListByLot(lot.ID) {
			values := []any{lot.ID, spot.ID, spot.SpotNumber, string(spot.Status), spot.LastUpdated.Format(time.RFC3339)}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				f.SetCellValue(detailSheet, cell, v)
			}
			row++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf, nil
}
