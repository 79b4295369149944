// Package state holds the authoritative live spot state and the detection
// change detector. All writers — reservation operations and detection
// ingestion alike — mutate spot status through the Store; repositories are
// persistence behind it, never a second mutation path.
package state

import (
	"sort"
	"sync"
	"time"

	"github.com/FuatYavas/ParkVision/internal/domain"
	"github.com/FuatYavas/ParkVision/internal/repository"
)

// Store is an in-memory registry of parking spots with per-spot mutual
// exclusion. The registry maps are guarded by an RWMutex taken only for
// lookup and membership changes; status transitions lock a single spot's
// entry, so concurrent transitions on unrelated spots (or lots) never
// serialize against each other.
type Store struct {
	mu    sync.RWMutex
	spots map[int]*spotEntry
	lots  map[int]map[int]struct{} // lot id -> set of spot ids
}

type spotEntry struct {
	mu   sync.Mutex
	spot domain.ParkingSpot
}

func NewStore() *Store {
	return &Store{
		spots: make(map[int]*spotEntry),
		lots:  make(map[int]map[int]struct{}),
	}
}

// Load replaces the registry contents, used to hydrate from the database at
// startup.
func (s *Store) Load(spots []domain.ParkingSpot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spots = make(map[int]*spotEntry, len(spots))
	s.lots = make(map[int]map[int]struct{})
	for _, spot := range spots {
		s.addLocked(spot)
	}
}

// Add registers one spot. Existing entries are overwritten.
func (s *Store) Add(spot domain.ParkingSpot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addLocked(spot)
}

func (s *Store) addLocked(spot domain.ParkingSpot) {
	if old, ok := s.spots[spot.ID]; ok {
		delete(s.lots[old.spot.LotID], spot.ID)
	}
	s.spots[spot.ID] = &spotEntry{spot: spot}
	if s.lots[spot.LotID] == nil {
		s.lots[spot.LotID] = make(map[int]struct{})
	}
	s.lots[spot.LotID][spot.ID] = struct{}{}
}

// Remove drops one spot from the registry.
func (s *Store) Remove(spotID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.spots[spotID]; ok {
		delete(s.lots[e.spot.LotID], spotID)
		delete(s.spots, spotID)
	}
}

// RemoveLot drops a lot and all of its spots.
func (s *Store) RemoveLot(lotID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.lots[lotID] {
		delete(s.spots, id)
	}
	delete(s.lots, lotID)
}

func (s *Store) entry(spotID int) (*spotEntry, error) {
	s.mu.RLock()
	e, ok := s.spots[spotID]
	s.mu.RUnlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	return e, nil
}

// Get returns a copy of the spot's current record.
func (s *Store) Get(spotID int) (domain.ParkingSpot, error) {
	e, err := s.entry(spotID)
	if err != nil {
		return domain.ParkingSpot{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.spot, nil
}

// SetStatus unconditionally transitions one spot, returning the previous
// status. Serialized per spot: the loser of two concurrent calls observes
// the winner's result as its previous status.
func (s *Store) SetStatus(spotID int, status domain.SpotStatus, at time.Time) (domain.SpotStatus, error) {
	e, err := s.entry(spotID)
	if err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	prev := e.spot.Status
	e.spot.Status = status
	e.spot.LastUpdated = at
	return prev, nil
}

// CompareAndSet transitions the spot only if it currently has status `from`.
// Returns the status observed before the attempt and whether the transition
// was applied. This is the single-winner primitive behind reservation
// claiming and cancellation rollback.
func (s *Store) CompareAndSet(spotID int, from, to domain.SpotStatus, at time.Time) (domain.SpotStatus, bool, error) {
	e, err := s.entry(spotID)
	if err != nil {
		return "", false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	prev := e.spot.Status
	if prev != from {
		return prev, false, nil
	}
	e.spot.Status = to
	e.spot.LastUpdated = at
	return prev, true, nil
}

// ListByLot returns copies of a lot's spots ordered by spot number.
func (s *Store) ListByLot(lotID int) []domain.ParkingSpot {
	s.mu.RLock()
	ids := make([]int, 0, len(s.lots[lotID]))
	for id := range s.lots[lotID] {
		ids = append(ids, id)
	}
	entries := make([]*spotEntry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, s.spots[id])
	}
	s.mu.RUnlock()

	spots := make([]domain.ParkingSpot, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		spots = append(spots, e.spot)
		e.mu.Unlock()
	}
	sort.Slice(spots, func(i, j int) bool { return spots[i].SpotNumber < spots[j].SpotNumber })
	return spots
}

// SpotCount returns the number of spots currently registered for a lot.
func (s *Store) SpotCount(lotID int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lots[lotID])
}

// Summary aggregates one lot's spots at a single logical instant. The total
// is the count of currently stored spots; no cross-spot atomicity is
// promised beyond that.
func (s *Store) Summary(lotID int) domain.OccupancySummary {
	spots := s.ListByLot(lotID)
	sum := domain.OccupancySummary{Total: len(spots)}
	for _, spot := range spots {
		switch spot.Status {
		case domain.SpotEmpty:
			sum.Empty++
		case domain.SpotOccupied:
			sum.Occupied++
		case domain.SpotReserved:
			sum.Reserved++
		}
	}
	sum.OccupancyRate = sum.Rate()
	return sum
}
