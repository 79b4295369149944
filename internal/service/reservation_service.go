package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/FuatYavas/ParkVision/internal/domain"
	"github.com/FuatYavas/ParkVision/internal/realtime"
	"github.com/FuatYavas/ParkVision/internal/repository"
	"github.com/FuatYavas/ParkVision/internal/state"
)

const (
	codeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength      = 8
	codeMaxAttempts = 5
)

// GateOpener raises the entry barrier after a successful code validation.
// Nil-safe implementations make the gate optional in deployments without
// IoT hardware.
type GateOpener interface {
	OpenGate(ctx context.Context, lotID int, reservationCode string) error
}

type ReservationService struct {
	reservationRepo repository.ReservationRepository
	spotRepo        repository.ParkingSpotRepository
	store           *state.Store
	hub             *realtime.Hub
	gate            GateOpener
	ttl             time.Duration
}

func NewReservationService(
	reservationRepo repository.ReservationRepository,
	spotRepo repository.ParkingSpotRepository,
	store *state.Store,
	hub *realtime.Hub,
	gate GateOpener,
	ttl time.Duration,
) *ReservationService {
	return &ReservationService{
		reservationRepo: reservationRepo,
		spotRepo:        spotRepo,
		store:           store,
		hub:             hub,
		gate:            gate,
		ttl:             ttl,
	}
}

// Create claims the spot for the user. The in-memory compare-and-set is the
// arbiter: exactly one of any number of concurrent requests for the same
// empty spot wins, the rest fail with ErrSpotUnavailable without touching
// the database.
func (s *ReservationService) Create(ctx context.Context, userID int, dto domain.ReservationCreateDTO) (*domain.Reservation, error) {
	now := time.Now().UTC()

	prev, ok, err := s.store.CompareAndSet(dto.SpotID, domain.SpotEmpty, domain.SpotReserved, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: spot %d is %s", domain.ErrSpotUnavailable, dto.SpotID, prev)
	}

	duration := time.Duration(dto.DurationMinutes) * time.Minute
	if duration <= 0 {
		duration = s.ttl
	}

	reservation, err := s.persistReservation(ctx, userID, dto.SpotID, now, now.Add(duration))
	if err != nil {
		// Release the claim; the spot was empty a moment ago and nothing
		// else can have transitioned it away from reserved.
		if _, ok, rbErr := s.store.CompareAndSet(dto.SpotID, domain.SpotReserved, domain.SpotEmpty, time.Now().UTC()); rbErr != nil || !ok {
			log.Printf("reservation: rollback of spot %d claim failed (applied=%t): %v", dto.SpotID, ok, rbErr)
		}
		return nil, err
	}

	if err := s.spotRepo.UpdateStatus(ctx, dto.SpotID, domain.SpotReserved, now); err != nil {
		log.Printf("reservation: persisting reserved status of spot %d: %v", dto.SpotID, err)
	}

	if spot, err := s.store.Get(dto.SpotID); err == nil {
		s.hub.BroadcastToLot(spot.LotID, realtime.NewSpotUpdate(spot.ID, spot.LotID, spot.Status, 1.0, now))
	}
	return reservation, nil
}

func (s *ReservationService) persistReservation(ctx context.Context, userID, spotID int, start, end time.Time) (*domain.Reservation, error) {
	for attempt := 0; attempt < codeMaxAttempts; attempt++ {
		code, err := gonanoid.Generate(codeAlphabet, codeLength)
		if err != nil {
			return nil, fmt.Errorf("generating reservation code: %w", err)
		}
		reservation := &domain.Reservation{
			UserID:    userID,
			SpotID:    spotID,
			StartTime: start,
			EndTime:   end,
			Code:      code,
			Status:    domain.ReservationActive,
		}
		created, err := s.reservationRepo.Create(ctx, reservation)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, fmt.Errorf("creating reservation: %w", err)
		}
	}
	return nil, fmt.Errorf("could not generate a unique reservation code after %d attempts", codeMaxAttempts)
}

// Cancel transitions an active reservation to cancelled. The spot is freed
// only if it is still reserved; a detection that marked it occupied in the
// meantime wins, and no spot event is emitted in that case. The repository
// only transitions ACTIVE rows, so a cancel racing another cancel or the
// expiry sweep loses with ErrInvalidState instead of overwriting a terminal
// status.
func (s *ReservationService) Cancel(ctx context.Context, userID int, reservationID int, isAdmin bool) (*domain.Reservation, error) {
	reservation, err := s.reservationRepo.FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation.UserID != userID && !isAdmin {
		return nil, fmt.Errorf("%w: reservation %d belongs to another user", domain.ErrForbidden, reservationID)
	}
	if reservation.Status.Terminal() {
		return nil, fmt.Errorf("%w: reservation %d is already %s", domain.ErrInvalidState, reservationID, reservation.Status)
	}

	if err := s.reservationRepo.UpdateStatus(ctx, reservationID, domain.ReservationCancelled); err != nil {
		if errors.Is(err, domain.ErrInvalidState) || errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("cancelling reservation %d: %w", reservationID, err)
	}
	reservation.Status = domain.ReservationCancelled

	s.releaseSpot(ctx, reservation.SpotID)
	return reservation, nil
}

// releaseSpot reverts reserved back to empty and broadcasts the change.
// A no-op when the spot has since been overwritten by detection.
func (s *ReservationService) releaseSpot(ctx context.Context, spotID int) {
	now := time.Now().UTC()
	_, ok, err := s.store.CompareAndSet(spotID, domain.SpotReserved, domain.SpotEmpty, now)
	if err != nil || !ok {
		return
	}
	if err := s.spotRepo.UpdateStatus(ctx, spotID, domain.SpotEmpty, now); err != nil {
		log.Printf("reservation: persisting empty status of spot %d: %v", spotID, err)
	}
	if spot, err := s.store.Get(spotID); err == nil {
		s.hub.BroadcastToLot(spot.LotID, realtime.NewSpotUpdate(spot.ID, spot.LotID, spot.Status, 1.0, now))
	}
}

// ValidateCode checks a reservation code at the gate. Valid means active and
// inside the reservation window; a valid code also triggers the entry gate.
func (s *ReservationService) ValidateCode(ctx context.Context, code string) (*domain.ReservationValidationResult, error) {
	reservation, err := s.reservationRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if reservation.Status != domain.ReservationActive {
		return nil, fmt.Errorf("%w: reservation is %s", domain.ErrInvalidState, reservation.Status)
	}
	if time.Now().UTC().After(reservation.EndTime) {
		return nil, fmt.Errorf("%w: reservation expired at %s", domain.ErrInvalidState, reservation.EndTime.Format(time.RFC3339))
	}

	if s.gate != nil {
		spot, err := s.store.Get(reservation.SpotID)
		if err == nil {
			if err := s.gate.OpenGate(ctx, spot.LotID, code); err != nil {
				log.Printf("reservation: opening gate for code %s: %v", code, err)
			}
		}
	}

	return &domain.ReservationValidationResult{Status: "valid", ReservationID: reservation.ID}, nil
}

func (s *ReservationService) GetByID(ctx context.Context, userID, reservationID int, isAdmin bool) (*domain.Reservation, error) {
	reservation, err := s.reservationRepo.FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation.UserID != userID && !isAdmin {
		return nil, fmt.Errorf("%w: reservation %d belongs to another user", domain.ErrForbidden, reservationID)
	}
	return reservation, nil
}

func (s *ReservationService) ListByUser(ctx context.Context, userID int) ([]domain.Reservation, error) {
	return s.reservationRepo.FindByUserID(ctx, userID)
}

func (s *ReservationService) ListAll(ctx context.Context) ([]domain.Reservation, error) {
	return s.reservationRepo.FindAll(ctx)
}

// CompleteExpired sweeps active reservations past their end time, marking
// them completed and freeing still-reserved spots. Run periodically.
func (s *ReservationService) CompleteExpired(ctx context.Context) (int, error) {
	expired, err := s.reservationRepo.FindExpiredActive(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("finding expired reservations: %w", err)
	}
	completed := 0
	for _, reservation := range expired {
		if err := s.reservationRepo.UpdateStatus(ctx, reservation.ID, domain.ReservationCompleted); err != nil {
			// Lost the race to a concurrent cancel; that path freed the spot.
			if !errors.Is(err, domain.ErrInvalidState) {
				log.Printf("reservation: completing expired reservation %d: %v", reservation.ID, err)
			}
			continue
		}
		s.releaseSpot(ctx, reservation.SpotID)
		completed++
	}
	if completed > 0 {
		log.Printf("reservation: completed %d expired reservations", completed)
	}
	return completed, nil
}
