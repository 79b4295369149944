package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/FuatYavas/ParkVision/internal/domain"
	"github.com/FuatYavas/ParkVision/internal/metrics"
	"github.com/FuatYavas/ParkVision/internal/realtime"
	"github.com/FuatYavas/ParkVision/internal/repository"
	"github.com/FuatYavas/ParkVision/internal/state"
)

// DetectionService ingests results from the vision pipeline: whole-lot
// occupancy reports, single-spot overrides and passthrough events. Lot
// reports go through the change detector so steady-state frames do not
// reach viewers.
type DetectionService struct {
	lotRepo  repository.ParkingLotRepository
	spotRepo repository.ParkingSpotRepository
	store    *state.Store
	detector *state.Detector
	hub      *realtime.Hub

	mu             sync.RWMutex
	lastDetections map[int][]domain.Detection
}

func NewDetectionService(
	lotRepo repository.ParkingLotRepository,
	spotRepo repository.ParkingSpotRepository,
	store *state.Store,
	detector *state.Detector,
	hub *realtime.Hub,
) *DetectionService {
	return &DetectionService{
		lotRepo:        lotRepo,
		spotRepo:       spotRepo,
		store:          store,
		detector:       detector,
		hub:            hub,
		lastDetections: make(map[int][]domain.Detection),
	}
}

// IngestLotReport processes one detection cycle for a lot. Returns whether
// the report propagated to subscribers. Malformed reports are rejected
// before any state changes.
func (s *DetectionService) IngestLotReport(ctx context.Context, lotID int, report domain.LotStatusReport) (bool, error) {
	lot, err := s.lotRepo.FindByID(ctx, lotID)
	if err != nil {
		return false, err
	}

	propagate, err := s.detector.Ingest(lotID, report.Summary())
	if err != nil {
		metrics.DetectionReports.WithLabelValues("rejected").Inc()
		return false, err
	}

	s.mu.Lock()
	s.lastDetections[lotID] = report.Detections
	s.mu.Unlock()

	if !propagate {
		metrics.DetectionReports.WithLabelValues("suppressed").Inc()
		return false, nil
	}
	metrics.DetectionReports.WithLabelValues("propagated").Inc()

	// The pipeline's spot count is the ground truth for lot capacity.
	if report.TotalSpots > 0 && report.TotalSpots != lot.Capacity {
		if err := s.lotRepo.UpdateCapacity(ctx, lotID, report.TotalSpots); err != nil {
			log.Printf("detection: reconciling capacity of lot %d: %v", lotID, err)
		}
	}

	now := time.Now().UTC()
	summary := report.Summary()
	summary.OccupancyRate = summary.Rate()
	s.hub.BroadcastToLot(lotID, realtime.NewLotUpdate(lotID, summary, now))
	return true, nil
}

// IngestSpotReport applies a single-spot status override from the pipeline.
// Unknown status strings are rejected, never coerced.
func (s *DetectionService) IngestSpotReport(ctx context.Context, spotID int, report domain.SpotStatusReport) (*domain.ParkingSpot, error) {
	status, err := domain.ParseSpotStatus(report.Status)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	prev, err := s.store.SetStatus(spotID, status, now)
	if err != nil {
		return nil, err
	}
	if err := s.spotRepo.UpdateStatus(ctx, spotID, status, now); err != nil {
		log.Printf("detection: persisting status of spot %d: %v", spotID, err)
	}

	spot, err := s.store.Get(spotID)
	if err != nil {
		return nil, err
	}
	if prev != status {
		s.hub.BroadcastToLot(spot.LotID, realtime.NewSpotUpdate(spot.ID, spot.LotID, spot.Status, report.Confidence, now))
	}
	return &spot, nil
}

// PublishEvent forwards an uninterpreted pipeline event to viewers. Events
// scoped to a lot reach that lot's subscribers; unscoped events reach all.
func (s *DetectionService) PublishEvent(ctx context.Context, event domain.CVEvent) error {
	if event.EventType == "" {
		return errors.New("event_type is required")
	}
	payload := realtime.NewPassthrough(event.EventType, event.LotID, event.Data, time.Now().UTC())
	if event.LotID > 0 {
		if _, err := s.lotRepo.FindByID(ctx, event.LotID); err != nil {
			return err
		}
		s.hub.BroadcastToLot(event.LotID, payload)
		return nil
	}
	s.hub.BroadcastAll(payload)
	return nil
}

// LatestDetections returns the bounding boxes from the lot's most recent
// report, whether or not that report propagated.
func (s *DetectionService) LatestDetections(ctx context.Context, lotID int) ([]domain.Detection, error) {
	if _, err := s.lotRepo.FindByID(ctx, lotID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	detections := s.lastDetections[lotID]
	if detections == nil {
		return []domain.Detection{}, nil
	}
	return detections, nil
}
