package state

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/FuatYavas/ParkVision/internal/domain"
	"github.com/FuatYavas/ParkVision/internal/repository"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	s.Load([]domain.ParkingSpot{
		{ID: 1, LotID: 10, SpotNumber: "A-001", Status: domain.SpotEmpty},
		{ID: 2, LotID: 10, SpotNumber: "A-002", Status: domain.SpotOccupied},
		{ID: 3, LotID: 20, SpotNumber: "B-001", Status: domain.SpotEmpty},
	})
	return s
}

func TestStoreGetUnknownSpot(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get(99); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreSetStatusReturnsPrevious(t *testing.T) {
	s := newTestStore(t)
	prev, err := s.SetStatus(1, domain.SpotOccupied, time.Now())
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if prev != domain.SpotEmpty {
		t.Errorf("previous status = %s, want empty", prev)
	}
	spot, _ := s.Get(1)
	if spot.Status != domain.SpotOccupied {
		t.Errorf("status after set = %s, want occupied", spot.Status)
	}
}

func TestStoreCompareAndSet(t *testing.T) {
	s := newTestStore(t)

	prev, ok, err := s.CompareAndSet(1, domain.SpotEmpty, domain.SpotReserved, time.Now())
	if err != nil || !ok {
		t.Fatalf("CAS empty->reserved: ok=%t err=%v", ok, err)
	}
	if prev != domain.SpotEmpty {
		t.Errorf("prev = %s, want empty", prev)
	}

	prev, ok, err = s.CompareAndSet(1, domain.SpotEmpty, domain.SpotReserved, time.Now())
	if err != nil {
		t.Fatalf("second CAS: %v", err)
	}
	if ok {
		t.Error("second CAS applied, want rejected")
	}
	if prev != domain.SpotReserved {
		t.Errorf("prev = %s, want reserved", prev)
	}
}

func TestStoreConcurrentClaimSingleWinner(t *testing.T) {
	s := newTestStore(t)

	const claimers = 32
	var wg sync.WaitGroup
	wins := make(chan int, claimers)
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, ok, err := s.CompareAndSet(3, domain.SpotEmpty, domain.SpotReserved, time.Now())
			if err != nil {
				t.Errorf("claimer %d: %v", id, err)
				return
			}
			if ok {
				wins <- id
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	var winners []int
	for id := range wins {
		winners = append(winners, id)
	}
	if len(winners) != 1 {
		t.Fatalf("got %d winners, want exactly 1", len(winners))
	}
	spot, _ := s.Get(3)
	if spot.Status != domain.SpotReserved {
		t.Errorf("final status = %s, want reserved", spot.Status)
	}
}

func TestStoreListByLotSorted(t *testing.T) {
	s := newTestStore(t)
	s.Add(domain.ParkingSpot{ID: 4, LotID: 10, SpotNumber: "A-000", Status: domain.SpotEmpty})

	spots := s.ListByLot(10)
	if len(spots) != 3 {
		t.Fatalf("got %d spots, want 3", len(spots))
	}
	for i := 1; i < len(spots); i++ {
		if spots[i-1].SpotNumber > spots[i].SpotNumber {
			t.Errorf("spots not sorted: %s before %s", spots[i-1].SpotNumber, spots[i].SpotNumber)
		}
	}
}

func TestStoreSummary(t *testing.T) {
	s := newTestStore(t)
	if _, _, err := s.CompareAndSet(1, domain.SpotEmpty, domain.SpotReserved, time.Now()); err != nil {
		t.Fatal(err)
	}

	sum := s.Summary(10)
	if sum.Total != 2 || sum.Empty != 0 || sum.Occupied != 1 || sum.Reserved != 1 {
		t.Errorf("summary = %+v, want total=2 empty=0 occupied=1 reserved=1", sum)
	}
	if sum.OccupancyRate != 0.5 {
		t.Errorf("occupancy rate = %f, want 0.5", sum.OccupancyRate)
	}
}

func TestStoreRemoveLot(t *testing.T) {
	s := newTestStore(t)
	s.RemoveLot(10)

	if s.SpotCount(10) != 0 {
		t.Errorf("lot 10 still has %d spots", s.SpotCount(10))
	}
	if _, err := s.Get(1); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("spot 1 still present after lot removal")
	}
	if _, err := s.Get(3); err != nil {
		t.Errorf("spot of other lot removed: %v", err)
	}
}
