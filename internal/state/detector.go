package state

import (
	"sync"

	"github.com/FuatYavas/ParkVision/internal/domain"
)

// Detector decides whether a freshly reported occupancy summary is a
// meaningful change for a lot. Only a shift of the empty/occupied partition
// propagates; confidence and reserved-count fluctuations are noise. The
// first report for a lot always propagates.
type Detector struct {
	mu   sync.Mutex
	lots map[int]*lotBaseline
}

type lotBaseline struct {
	mu   sync.Mutex
	seen bool
	last domain.OccupancySummary
}

func NewDetector() *Detector {
	return &Detector{lots: make(map[int]*lotBaseline)}
}

func (d *Detector) baseline(lotID int) *lotBaseline {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.lots[lotID]
	if !ok {
		b = &lotBaseline{}
		d.lots[lotID] = b
	}
	return b
}

// Ingest validates the summary and returns whether it should propagate.
// On propagate the lot's baseline is advanced before returning, so a
// concurrent second ingestion for the same lot compares against the new
// baseline. Exclusion is per lot; reports for different lots never contend.
func (d *Detector) Ingest(lotID int, summary domain.OccupancySummary) (bool, error) {
	if err := summary.Validate(); err != nil {
		return false, err
	}

	b := d.baseline(lotID)
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.seen && b.last.Empty == summary.Empty && b.last.Occupied == summary.Occupied {
		return false, nil
	}
	b.seen = true
	b.last = summary
	return true, nil
}

// Last returns the lot's last accepted summary, if any.
func (d *Detector) Last(lotID int) (domain.OccupancySummary, bool) {
	b := d.baseline(lotID)
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last, b.seen
}

// Forget clears a lot's baseline (used when a lot is deleted).
func (d *Detector) Forget(lotID int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.lots, lotID)
}
