package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/FuatYavas/ParkVision/internal/domain"
	"github.com/FuatYavas/ParkVision/internal/realtime"
	"github.com/FuatYavas/ParkVision/internal/repository"
	"github.com/FuatYavas/ParkVision/internal/state"
)

// ParkingService manages lots and spots. Spot status lives in the state
// store; the repository mirrors it for durability and restart hydration.
type ParkingService struct {
	lotRepo  repository.ParkingLotRepository
	spotRepo repository.ParkingSpotRepository
	store    *state.Store
	detector *state.Detector
	hub      *realtime.Hub
}

func NewParkingService(
	lotRepo repository.ParkingLotRepository,
	spotRepo repository.ParkingSpotRepository,
	store *state.Store,
	detector *state.Detector,
	hub *realtime.Hub,
) *ParkingService {
	return &ParkingService{
		lotRepo:  lotRepo,
		spotRepo: spotRepo,
		store:    store,
		detector: detector,
		hub:      hub,
	}
}

// Hydrate loads every persisted spot into the state store. Called once at
// startup before the HTTP server accepts traffic.
func (s *ParkingService) Hydrate(ctx context.Context) error {
	spots, err := s.spotRepo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("loading spots: %w", err)
	}
	s.store.Load(spots)
	log.Printf("parking: hydrated %d spots into state store", len(spots))
	return nil
}

// --- Parking lots ---

func (s *ParkingService) CreateLot(ctx context.Context, dto domain.ParkingLotDTO) (*domain.ParkingLot, error) {
	lot := &domain.ParkingLot{
		Name:       dto.Name,
		Address:    dto.Address,
		Latitude:   dto.Latitude,
		Longitude:  dto.Longitude,
		Capacity:   dto.Capacity,
		HourlyRate: dto.HourlyRate,
	}
	return s.lotRepo.Create(ctx, lot)
}

func (s *ParkingService) GetLotByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	return s.lotRepo.FindByID(ctx, id)
}

func (s *ParkingService) GetAllLots(ctx context.Context) ([]domain.ParkingLot, error) {
	return s.lotRepo.FindAll(ctx)
}

func (s *ParkingService) UpdateLot(ctx context.Context, id int, dto domain.ParkingLotDTO) (*domain.ParkingLot, error) {
	lot, err := s.lotRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	lot.Name = dto.Name
	lot.Address = dto.Address
	lot.Latitude = dto.Latitude
	lot.Longitude = dto.Longitude
	lot.Capacity = dto.Capacity
	lot.HourlyRate = dto.HourlyRate
	return s.lotRepo.Update(ctx, lot)
}

func (s *ParkingService) DeleteLot(ctx context.Context, id int) error {
	if _, err := s.lotRepo.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.spotRepo.DeleteByLotID(ctx, id); err != nil {
		return fmt.Errorf("deleting spots of lot %d: %w", id, err)
	}
	if err := s.lotRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.store.RemoveLot(id)
	s.detector.Forget(id)
	return nil
}

// LotOccupancy aggregates a lot's live state.
func (s *ParkingService) LotOccupancy(ctx context.Context, lotID int) (domain.OccupancySummary, error) {
	if _, err := s.lotRepo.FindByID(ctx, lotID); err != nil {
		return domain.OccupancySummary{}, err
	}
	return s.store.Summary(lotID), nil
}

// --- Parking spots ---

func (s *ParkingService) CreateSpot(ctx context.Context, lotID int, dto domain.ParkingSpotDTO) (*domain.ParkingSpot, error) {
	if _, err := s.lotRepo.FindByID(ctx, lotID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: parking lot %d does not exist", repository.ErrNotFound, lotID)
		}
		return nil, err
	}

	spot := &domain.ParkingSpot{
		LotID:      lotID,
		SpotNumber: dto.SpotNumber,
		Latitude:   dto.Latitude,
		Longitude:  dto.Longitude,
		Status:     domain.SpotEmpty,
	}
	created, err := s.spotRepo.Create(ctx, spot)
	if err != nil {
		return nil, err
	}
	s.store.Add(*created)
	return created, nil
}

// ProvisionSpots creates a numbered batch of spots for a lot in one call and
// raises the lot capacity to cover them.
func (s *ParkingService) ProvisionSpots(ctx context.Context, lotID int, dto domain.ProvisionSpotsDTO) ([]domain.ParkingSpot, error) {
	lot, err := s.lotRepo.FindByID(ctx, lotID)
	if err != nil {
		return nil, err
	}

	prefix := dto.Prefix
	if prefix == "" {
		prefix = "S"
	}

	existing := s.store.SpotCount(lotID)
	created := make([]domain.ParkingSpot, 0, dto.Count)
	for i := 1; i <= dto.Count; i++ {
		spot := &domain.ParkingSpot{
			LotID:      lotID,
			SpotNumber: fmt.Sprintf("%s-%03d", prefix, existing+i),
			Status:     domain.SpotEmpty,
		}
		saved, err := s.spotRepo.Create(ctx, spot)
		if err != nil {
			return created, fmt.Errorf("provisioning spot %d of %d: %w", i, dto.Count, err)
		}
		s.store.Add(*saved)
		created = append(created, *saved)
	}

	if total := s.store.SpotCount(lotID); total > lot.Capacity {
		if err := s.lotRepo.UpdateCapacity(ctx, lotID, total); err != nil {
			log.Printf("parking: updating capacity of lot %d: %v", lotID, err)
		}
	}
	return created, nil
}

func (s *ParkingService) GetSpotByID(ctx context.Context, spotID int) (*domain.ParkingSpot, error) {
	spot, err := s.store.Get(spotID)
	if err != nil {
		return nil, err
	}
	return &spot, nil
}

func (s *ParkingService) GetSpotsByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpot, error) {
	if _, err := s.lotRepo.FindByID(ctx, lotID); err != nil {
		return nil, err
	}
	return s.store.ListByLot(lotID), nil
}

func (s *ParkingService) DeleteSpot(ctx context.Context, spotID int) error {
	if err := s.spotRepo.Delete(ctx, spotID); err != nil {
		return err
	}
	s.store.Remove(spotID)
	return nil
}

// SetSpotStatus is the administrative override path. The transition is
// unconditional and broadcast to the spot's lot subscribers.
func (s *ParkingService) SetSpotStatus(ctx context.Context, spotID int, status domain.SpotStatus) (*domain.ParkingSpot, error) {
	now := time.Now().UTC()
	if _, err := s.store.SetStatus(spotID, status, now); err != nil {
		return nil, err
	}
	if err := s.spotRepo.UpdateStatus(ctx, spotID, status, now); err != nil {
		log.Printf("parking: persisting status of spot %d: %v", spotID, err)
	}
	spot, err := s.store.Get(spotID)
	if err != nil {
		return nil, err
	}
	s.hub.BroadcastToLot(spot.LotID, realtime.NewSpotUpdate(spot.ID, spot.LotID, spot.Status, 1.0, now))
	return &spot, nil
}
