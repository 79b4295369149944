package domain

import "fmt"

// OccupancySummary is the point-in-time empty/occupied partition of one lot.
// It is a transient value: aggregated from live spot state, or reported
// directly by the detection pipeline.
type OccupancySummary struct {
	Total         int     `json:"total_spots"`
	Empty         int     `json:"empty_spots"`
	Occupied      int     `json:"occupied_spots"`
	Reserved      int     `json:"reserved_spots"`
	OccupancyRate float64 `json:"occupancy_rate"`
}

// Validate rejects malformed summaries before any store mutation.
func (s OccupancySummary) Validate() error {
	if s.Total < 0 || s.Empty < 0 || s.Occupied < 0 || s.Reserved < 0 {
		return fmt.Errorf("%w: occupancy counts must not be negative", ErrInvalidInput)
	}
	if s.Empty+s.Occupied > s.Total {
		return fmt.Errorf("%w: empty (%d) + occupied (%d) exceeds total (%d)", ErrInvalidInput, s.Empty, s.Occupied, s.Total)
	}
	return nil
}

// Rate computes occupied/total, zero for an empty lot.
func (s OccupancySummary) Rate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Occupied) / float64(s.Total)
}

// DetectionGeometry is the bounding box of one detection, in pixels of the
// processed frame. Opaque to this service; logged for audit only.
type DetectionGeometry struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Detection struct {
	Label      string            `json:"label"`
	Confidence float64           `json:"confidence"`
	Geometry   DetectionGeometry `json:"geometry"`
}

// LotStatusReport is one detection cycle's result for a lot, as PUT by the
// vision pipeline (cv module) or consumed from the report queue.
type LotStatusReport struct {
	TotalSpots    int         `json:"total_spots"`
	EmptySpots    int         `json:"empty_spots"`
	OccupiedSpots int         `json:"occupied_spots"`
	OccupancyRate float64     `json:"occupancy_rate"`
	Detections    []Detection `json:"detections"`
}

func (r LotStatusReport) Summary() OccupancySummary {
	return OccupancySummary{
		Total:         r.TotalSpots,
		Empty:         r.EmptySpots,
		Occupied:      r.OccupiedSpots,
		OccupancyRate: r.OccupancyRate,
	}
}

// SpotStatusReport is the single-spot override path.
type SpotStatusReport struct {
	Status     string  `json:"status" binding:"required"`
	Confidence float64 `json:"confidence"`
}

// CVEvent is an arbitrary detection-pipeline event broadcast to viewers
// without interpretation.
type CVEvent struct {
	EventType string         `json:"event_type" binding:"required"`
	LotID     int            `json:"parking_lot_id"`
	Data      map[string]any `json:"data"`
}
