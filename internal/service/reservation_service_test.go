package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/FuatYavas/ParkVision/internal/domain"
	"github.com/FuatYavas/ParkVision/internal/realtime"
	"github.com/FuatYavas/ParkVision/internal/repository"
	"github.com/FuatYavas/ParkVision/internal/state"
)

func newReservationFixture(t *testing.T) (*ReservationService, *state.Store, *fakeReservationRepo, *fakeGate) {
	t.Helper()
	store := state.NewStore()
	store.Load([]domain.ParkingSpot{
		{ID: 1, LotID: 10, SpotNumber: "A-001", Status: domain.SpotEmpty},
		{ID: 2, LotID: 10, SpotNumber: "A-002", Status: domain.SpotOccupied},
	})
	spotRepo := newFakeSpotRepo()
	spotRepo.spots[1] = domain.ParkingSpot{ID: 1, LotID: 10, SpotNumber: "A-001", Status: domain.SpotEmpty}
	spotRepo.spots[2] = domain.ParkingSpot{ID: 2, LotID: 10, SpotNumber: "A-002", Status: domain.SpotOccupied}

	reservationRepo := newFakeReservationRepo()
	gate := &fakeGate{}
	svc := NewReservationService(reservationRepo, spotRepo, store, realtime.NewHub(), gate, 30*time.Minute)
	return svc, store, reservationRepo, gate
}

func TestReservationCreate(t *testing.T) {
	svc, store, _, _ := newReservationFixture(t)

	res, err := svc.Create(context.Background(), 42, domain.ReservationCreateDTO{SpotID: 1, DurationMinutes: 30})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.Status != domain.ReservationActive {
		t.Errorf("status = %s, want active", res.Status)
	}
	if len(res.Code) != codeLength {
		t.Errorf("code %q has length %d, want %d", res.Code, len(res.Code), codeLength)
	}
	if got := res.EndTime.Sub(res.StartTime); got != 30*time.Minute {
		t.Errorf("reservation window = %s, want 30m", got)
	}
	spot, _ := store.Get(1)
	if spot.Status != domain.SpotReserved {
		t.Errorf("spot status = %s, want reserved", spot.Status)
	}
}

func TestReservationCreateOccupiedSpot(t *testing.T) {
	svc, _, _, _ := newReservationFixture(t)

	_, err := svc.Create(context.Background(), 42, domain.ReservationCreateDTO{SpotID: 2, DurationMinutes: 30})
	if !errors.Is(err, domain.ErrSpotUnavailable) {
		t.Fatalf("expected ErrSpotUnavailable, got %v", err)
	}
}

func TestReservationCreateUnknownSpot(t *testing.T) {
	svc, _, _, _ := newReservationFixture(t)

	_, err := svc.Create(context.Background(), 42, domain.ReservationCreateDTO{SpotID: 99, DurationMinutes: 30})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReservationConcurrentCreateSingleWinner(t *testing.T) {
	svc, _, reservationRepo, _ := newReservationFixture(t)

	const requests = 16
	var wg sync.WaitGroup
	var successes, conflicts int
	var mu sync.Mutex
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			_, err := svc.Create(context.Background(), userID, domain.ReservationCreateDTO{SpotID: 1, DurationMinutes: 30})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrSpotUnavailable):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("successes = %d, want 1", successes)
	}
	if conflicts != requests-1 {
		t.Errorf("conflicts = %d, want %d", conflicts, requests-1)
	}
	if len(reservationRepo.reservations) != 1 {
		t.Errorf("%d reservations persisted, want 1", len(reservationRepo.reservations))
	}
}

func TestReservationCreateRollsBackOnPersistFailure(t *testing.T) {
	svc, store, reservationRepo, _ := newReservationFixture(t)
	reservationRepo.failCreate = true

	if _, err := svc.Create(context.Background(), 42, domain.ReservationCreateDTO{SpotID: 1, DurationMinutes: 30}); err == nil {
		t.Fatal("expected error from failing repository")
	}
	spot, _ := store.Get(1)
	if spot.Status != domain.SpotEmpty {
		t.Errorf("spot status = %s after failed create, want empty", spot.Status)
	}
}

func TestReservationCancel(t *testing.T) {
	svc, store, _, _ := newReservationFixture(t)
	res, err := svc.Create(context.Background(), 42, domain.ReservationCreateDTO{SpotID: 1, DurationMinutes: 30})
	if err != nil {
		t.Fatal(err)
	}

	cancelled, err := svc.Cancel(context.Background(), 42, res.ID, false)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != domain.ReservationCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
	spot, _ := store.Get(1)
	if spot.Status != domain.SpotEmpty {
		t.Errorf("spot status = %s after cancel, want empty", spot.Status)
	}
}

func TestReservationCancelTwice(t *testing.T) {
	svc, _, _, _ := newReservationFixture(t)
	res, _ := svc.Create(context.Background(), 42, domain.ReservationCreateDTO{SpotID: 1, DurationMinutes: 30})

	if _, err := svc.Cancel(context.Background(), 42, res.ID, false); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Cancel(context.Background(), 42, res.ID, false); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on second cancel, got %v", err)
	}
}

func TestReservationConcurrentCancelSingleWinner(t *testing.T) {
	svc, store, _, _ := newReservationFixture(t)
	res, err := svc.Create(context.Background(), 42, domain.ReservationCreateDTO{SpotID: 1, DurationMinutes: 30})
	if err != nil {
		t.Fatal(err)
	}

	const cancellers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	var successes, invalid int
	for i := 0; i < cancellers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Cancel(context.Background(), 42, res.ID, false)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrInvalidState):
				invalid++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("successes = %d, want 1", successes)
	}
	if invalid != cancellers-1 {
		t.Errorf("invalid-state losers = %d, want %d", invalid, cancellers-1)
	}
	spot, _ := store.Get(1)
	if spot.Status != domain.SpotEmpty {
		t.Errorf("spot status = %s, want empty", spot.Status)
	}
}

// staleReservationReader serves a fixed snapshot for one reservation,
// emulating a reader whose record moved on after the lookup.
type staleReservationReader struct {
	*fakeReservationRepo
	stale domain.Reservation
}

func (r *staleReservationReader) FindByID(ctx context.Context, id int) (*domain.Reservation, error) {
	if id == r.stale.ID {
		snapshot := r.stale
		return &snapshot, nil
	}
	return r.fakeReservationRepo.FindByID(ctx, id)
}

func TestReservationCancelLosesRaceWithExpirySweep(t *testing.T) {
	svc, store, reservationRepo, _ := newReservationFixture(t)
	res, err := svc.Create(context.Background(), 42, domain.ReservationCreateDTO{SpotID: 1, DurationMinutes: 30})
	if err != nil {
		t.Fatal(err)
	}

	// The expiry sweep finishes the reservation after the cancel path read
	// its ACTIVE snapshot.
	stored := reservationRepo.reservations[res.ID]
	stored.Status = domain.ReservationCompleted
	reservationRepo.reservations[res.ID] = stored
	if _, err := store.SetStatus(1, domain.SpotEmpty, time.Now().UTC()); err != nil {
		t.Fatal(err)
	}

	staleRepo := &staleReservationReader{fakeReservationRepo: reservationRepo, stale: *res}
	raceSvc := NewReservationService(staleRepo, newFakeSpotRepo(), store, realtime.NewHub(), &fakeGate{}, 30*time.Minute)

	if _, err := raceSvc.Cancel(context.Background(), 42, res.ID, false); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if got := reservationRepo.reservations[res.ID].Status; got != domain.ReservationCompleted {
		t.Errorf("status = %s, terminal state was overwritten", got)
	}
}

func TestReservationCancelForeignReservation(t *testing.T) {
	svc, _, _, _ := newReservationFixture(t)
	res, _ := svc.Create(context.Background(), 42, domain.ReservationCreateDTO{SpotID: 1, DurationMinutes: 30})

	if _, err := svc.Cancel(context.Background(), 7, res.ID, false); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	// Admins may cancel on behalf of the owner.
	if _, err := svc.Cancel(context.Background(), 7, res.ID, true); err != nil {
		t.Fatalf("admin cancel: %v", err)
	}
}

func TestReservationCancelAfterDetectionOverwrite(t *testing.T) {
	svc, store, _, _ := newReservationFixture(t)
	res, _ := svc.Create(context.Background(), 42, domain.ReservationCreateDTO{SpotID: 1, DurationMinutes: 30})

	// The detection pipeline saw a car on the reserved spot.
	if _, err := store.SetStatus(1, domain.SpotOccupied, time.Now().UTC()); err != nil {
		t.Fatal(err)
	}

	cancelled, err := svc.Cancel(context.Background(), 42, res.ID, false)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != domain.ReservationCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
	// The detection result wins; cancelling must not free the spot.
	spot, _ := store.Get(1)
	if spot.Status != domain.SpotOccupied {
		t.Errorf("spot status = %s, want occupied", spot.Status)
	}
}

func TestReservationValidateCode(t *testing.T) {
	svc, _, _, gate := newReservationFixture(t)
	res, _ := svc.Create(context.Background(), 42, domain.ReservationCreateDTO{SpotID: 1, DurationMinutes: 30})

	result, err := svc.ValidateCode(context.Background(), res.Code)
	if err != nil {
		t.Fatalf("ValidateCode: %v", err)
	}
	if result.Status != "valid" || result.ReservationID != res.ID {
		t.Errorf("result = %+v", result)
	}
	if len(gate.opens) != 1 || gate.opens[0] != res.Code {
		t.Errorf("gate opens = %v, want one open with code %s", gate.opens, res.Code)
	}
}

func TestReservationValidateUnknownCode(t *testing.T) {
	svc, _, _, _ := newReservationFixture(t)
	if _, err := svc.ValidateCode(context.Background(), "NOPE1234"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReservationValidateCancelledCode(t *testing.T) {
	svc, _, _, _ := newReservationFixture(t)
	res, _ := svc.Create(context.Background(), 42, domain.ReservationCreateDTO{SpotID: 1, DurationMinutes: 30})
	svc.Cancel(context.Background(), 42, res.ID, false)

	if _, err := svc.ValidateCode(context.Background(), res.Code); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestReservationCompleteExpired(t *testing.T) {
	svc, store, reservationRepo, _ := newReservationFixture(t)
	res, _ := svc.Create(context.Background(), 42, domain.ReservationCreateDTO{SpotID: 1, DurationMinutes: 30})

	// Force the reservation into the past.
	stored := reservationRepo.reservations[res.ID]
	stored.StartTime = time.Now().UTC().Add(-2 * time.Hour)
	stored.EndTime = time.Now().UTC().Add(-90 * time.Minute)
	reservationRepo.reservations[res.ID] = stored

	completed, err := svc.CompleteExpired(context.Background())
	if err != nil {
		t.Fatalf("CompleteExpired: %v", err)
	}
	if completed != 1 {
		t.Errorf("completed = %d, want 1", completed)
	}
	if got := reservationRepo.reservations[res.ID].Status; got != domain.ReservationCompleted {
		t.Errorf("status = %s, want completed", got)
	}
	spot, _ := store.Get(1)
	if spot.Status != domain.SpotEmpty {
		t.Errorf("spot status = %s, want empty", spot.Status)
	}
}
