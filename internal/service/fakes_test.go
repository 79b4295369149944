package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/FuatYavas/ParkVision/internal/domain"
	"github.com/FuatYavas/ParkVision/internal/repository"
)

// In-memory repositories for service tests.

type fakeLotRepo struct {
	mu     sync.Mutex
	nextID int
	lots   map[int]domain.ParkingLot
}

func newFakeLotRepo() *fakeLotRepo {
	return &fakeLotRepo{nextID: 1, lots: make(map[int]domain.ParkingLot)}
}

func (r *fakeLotRepo) Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lot.ID = r.nextID
	r.nextID++
	lot.IsActive = true
	lot.CreatedAt = time.Now().UTC()
	lot.UpdatedAt = lot.CreatedAt
	r.lots[lot.ID] = *lot
	return lot, nil
}

func (r *fakeLotRepo) FindByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lot, ok := r.lots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &lot, nil
}

func (r *fakeLotRepo) FindAll(ctx context.Context) ([]domain.ParkingLot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lots := make([]domain.ParkingLot, 0, len(r.lots))
	for _, lot := range r.lots {
		lots = append(lots, lot)
	}
	return lots, nil
}

func (r *fakeLotRepo) Update(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lots[lot.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	lot.UpdatedAt = time.Now().UTC()
	r.lots[lot.ID] = *lot
	return lot, nil
}

func (r *fakeLotRepo) UpdateCapacity(ctx context.Context, id int, capacity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	lot, ok := r.lots[id]
	if !ok {
		return repository.ErrNotFound
	}
	lot.Capacity = capacity
	r.lots[id] = lot
	return nil
}

func (r *fakeLotRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lots[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.lots, id)
	return nil
}

func (r *fakeLotRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lots), nil
}

type fakeSpotRepo struct {
	mu     sync.Mutex
	nextID int
	spots  map[int]domain.ParkingSpot
}

func newFakeSpotRepo() *fakeSpotRepo {
	return &fakeSpotRepo{nextID: 1, spots: make(map[int]domain.ParkingSpot)}
}

func (r *fakeSpotRepo) Create(ctx context.Context, spot *domain.ParkingSpot) (*domain.ParkingSpot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.spots {
		if existing.LotID == spot.LotID && existing.SpotNumber == spot.SpotNumber {
			return nil, repository.ErrDuplicateEntry
		}
	}
	spot.ID = r.nextID
	r.nextID++
	spot.LastUpdated = time.Now().UTC()
	r.spots[spot.ID] = *spot
	return spot, nil
}

func (r *fakeSpotRepo) FindByID(ctx context.Context, id int) (*domain.ParkingSpot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	spot, ok := r.spots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &spot, nil
}

func (r *fakeSpotRepo) FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	spots := []domain.ParkingSpot{}
	for _, spot := range r.spots {
		if spot.LotID == lotID {
			spots = append(spots, spot)
		}
	}
	return spots, nil
}

func (r *fakeSpotRepo) FindAll(ctx context.Context) ([]domain.ParkingSpot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	spots := make([]domain.ParkingSpot, 0, len(r.spots))
	for _, spot := range r.spots {
		spots = append(spots, spot)
	}
	return spots, nil
}

func (r *fakeSpotRepo) UpdateStatus(ctx context.Context, id int, status domain.SpotStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	spot, ok := r.spots[id]
	if !ok {
		return repository.ErrNotFound
	}
	spot.Status = status
	spot.LastUpdated = at
	r.spots[id] = spot
	return nil
}

func (r *fakeSpotRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.spots[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.spots, id)
	return nil
}

func (r *fakeSpotRepo) DeleteByLotID(ctx context.Context, lotID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, spot := range r.spots {
		if spot.LotID == lotID {
			delete(r.spots, id)
		}
	}
	return nil
}

type fakeReservationRepo struct {
	mu           sync.Mutex
	nextID       int
	reservations map[int]domain.Reservation
	failCreate   bool
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{nextID: 1, reservations: make(map[int]domain.Reservation)}
}

func (r *fakeReservationRepo) Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return nil, context.DeadlineExceeded
	}
	for _, existing := range r.reservations {
		if existing.Code == res.Code {
			return nil, repository.ErrDuplicateEntry
		}
	}
	res.ID = r.nextID
	r.nextID++
	res.CreatedAt = time.Now().UTC()
	r.reservations[res.ID] = *res
	return res, nil
}

func (r *fakeReservationRepo) FindByID(ctx context.Context, id int) (*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &res, nil
}

func (r *fakeReservationRepo) FindByCode(ctx context.Context, code string) (*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.reservations {
		if res.Code == code {
			return &res, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeReservationRepo) FindByUserID(ctx context.Context, userID int) ([]domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Reservation{}
	for _, res := range r.reservations {
		if res.UserID == userID {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *fakeReservationRepo) FindAll(ctx context.Context) ([]domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Reservation, 0, len(r.reservations))
	for _, res := range r.reservations {
		out = append(out, res)
	}
	return out, nil
}

func (r *fakeReservationRepo) UpdateStatus(ctx context.Context, id int, status domain.ReservationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[id]
	if !ok {
		return repository.ErrNotFound
	}
	if res.Status != domain.ReservationActive {
		return fmt.Errorf("%w: reservation %d is already %s", domain.ErrInvalidState, id, res.Status)
	}
	res.Status = status
	r.reservations[id] = res
	return nil
}

func (r *fakeReservationRepo) FindExpiredActive(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Reservation{}
	for _, res := range r.reservations {
		if res.Status == domain.ReservationActive && res.EndTime.Before(now) {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *fakeReservationRepo) CountByStatus(ctx context.Context, status domain.ReservationStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, res := range r.reservations {
		if res.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *fakeReservationRepo) CountStartedSince(ctx context.Context, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, res := range r.reservations {
		if !res.StartTime.Before(since) {
			count++
		}
	}
	return count, nil
}

// fakeGate records open commands.
type fakeGate struct {
	mu    sync.Mutex
	opens []string
}

func (g *fakeGate) OpenGate(ctx context.Context, lotID int, reservationCode string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.opens = append(g.opens, reservationCode)
	return nil
}
