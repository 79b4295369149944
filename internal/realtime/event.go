package realtime

import (
	"time"

	"github.com/FuatYavas/ParkVision/internal/domain"
)

// Outbound event envelopes. The hub serializes these once per broadcast;
// clients discriminate on the "type" field.

type SpotUpdateEvent struct {
	Type   string         `json:"type"`
	SpotID int            `json:"spot_id"`
	LotID  int            `json:"parking_lot_id"`
	Data   SpotUpdateData `json:"data"`
}

type SpotUpdateData struct {
	Status     domain.SpotStatus `json:"status"`
	Confidence float64           `json:"confidence"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

func NewSpotUpdate(spotID, lotID int, status domain.SpotStatus, confidence float64, at time.Time) SpotUpdateEvent {
	return SpotUpdateEvent{
		Type:   "spot_update",
		SpotID: spotID,
		LotID:  lotID,
		Data:   SpotUpdateData{Status: status, Confidence: confidence, UpdatedAt: at},
	}
}

type LotUpdateEvent struct {
	Type  string        `json:"type"`
	LotID int           `json:"parking_lot_id"`
	Data  LotUpdateData `json:"data"`
}

type LotUpdateData struct {
	TotalSpots    int       `json:"total_spots"`
	EmptySpots    int       `json:"empty_spots"`
	OccupiedSpots int       `json:"occupied_spots"`
	OccupancyRate float64   `json:"occupancy_rate"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewLotUpdate(lotID int, s domain.OccupancySummary, at time.Time) LotUpdateEvent {
	return LotUpdateEvent{
		Type:  "parking_lot_update",
		LotID: lotID,
		Data: LotUpdateData{
			TotalSpots:    s.Total,
			EmptySpots:    s.Empty,
			OccupiedSpots: s.Occupied,
			OccupancyRate: s.OccupancyRate,
			UpdatedAt:     at,
		},
	}
}

// PassthroughEvent carries detection-pipeline events that are not otherwise
// modeled; the payload is forwarded untouched.
type PassthroughEvent struct {
	Type      string         `json:"type"`
	LotID     int            `json:"parking_lot_id"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewPassthrough(eventType string, lotID int, data map[string]any, at time.Time) PassthroughEvent {
	return PassthroughEvent{Type: eventType, LotID: lotID, Data: data, Timestamp: at}
}
