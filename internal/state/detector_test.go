package state

import (
	"errors"
	"testing"

	"github.com/FuatYavas/ParkVision/internal/domain"
)

func TestDetectorFirstReportPropagates(t *testing.T) {
	d := NewDetector()
	propagate, err := d.Ingest(1, domain.OccupancySummary{Total: 10, Empty: 10})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !propagate {
		t.Error("first report suppressed, want propagated")
	}
}

func TestDetectorDecisions(t *testing.T) {
	baseline := domain.OccupancySummary{Total: 10, Empty: 6, Occupied: 4, OccupancyRate: 0.4}

	tests := []struct {
		name      string
		next      domain.OccupancySummary
		propagate bool
	}{
		{"identical report", domain.OccupancySummary{Total: 10, Empty: 6, Occupied: 4, OccupancyRate: 0.4}, false},
		{"rate-only change", domain.OccupancySummary{Total: 10, Empty: 6, Occupied: 4, OccupancyRate: 0.41}, false},
		{"reserved-only change", domain.OccupancySummary{Total: 10, Empty: 6, Occupied: 4, Reserved: 2}, false},
		{"occupied change", domain.OccupancySummary{Total: 10, Empty: 5, Occupied: 5}, true},
		{"empty change", domain.OccupancySummary{Total: 10, Empty: 7, Occupied: 4}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector()
			if _, err := d.Ingest(1, baseline); err != nil {
				t.Fatalf("baseline ingest: %v", err)
			}
			propagate, err := d.Ingest(1, tt.next)
			if err != nil {
				t.Fatalf("Ingest: %v", err)
			}
			if propagate != tt.propagate {
				t.Errorf("propagate = %t, want %t", propagate, tt.propagate)
			}
		})
	}
}

func TestDetectorBaselineAdvancesOnPropagate(t *testing.T) {
	d := NewDetector()
	d.Ingest(1, domain.OccupancySummary{Total: 10, Empty: 6, Occupied: 4})

	changed := domain.OccupancySummary{Total: 10, Empty: 5, Occupied: 5}
	if propagate, _ := d.Ingest(1, changed); !propagate {
		t.Fatal("changed report suppressed")
	}
	// The same report again now matches the advanced baseline.
	if propagate, _ := d.Ingest(1, changed); propagate {
		t.Error("repeat of propagated report propagated again")
	}
}

func TestDetectorRejectsInvalidSummary(t *testing.T) {
	d := NewDetector()
	d.Ingest(1, domain.OccupancySummary{Total: 10, Empty: 6, Occupied: 4})

	invalid := []domain.OccupancySummary{
		{Total: 10, Empty: -1, Occupied: 4},
		{Total: 10, Empty: 8, Occupied: 4},
	}
	for _, summary := range invalid {
		if _, err := d.Ingest(1, summary); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("summary %+v: expected ErrInvalidInput, got %v", summary, err)
		}
	}

	// Rejection must not disturb the baseline.
	if propagate, _ := d.Ingest(1, domain.OccupancySummary{Total: 10, Empty: 6, Occupied: 4}); propagate {
		t.Error("baseline changed by rejected report")
	}
}

func TestDetectorLotsAreIndependent(t *testing.T) {
	d := NewDetector()
	d.Ingest(1, domain.OccupancySummary{Total: 10, Empty: 6, Occupied: 4})

	if propagate, _ := d.Ingest(2, domain.OccupancySummary{Total: 10, Empty: 6, Occupied: 4}); !propagate {
		t.Error("first report for another lot suppressed")
	}
}

func TestDetectorForget(t *testing.T) {
	d := NewDetector()
	summary := domain.OccupancySummary{Total: 10, Empty: 6, Occupied: 4}
	d.Ingest(1, summary)
	d.Forget(1)

	if propagate, _ := d.Ingest(1, summary); !propagate {
		t.Error("report after Forget suppressed, want treated as first")
	}
}
