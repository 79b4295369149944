package domain

import (
	"fmt"
	"time"
)

type SpotStatus string

const (
	SpotEmpty    SpotStatus = "empty"
	SpotOccupied SpotStatus = "occupied"
	SpotReserved SpotStatus = "reserved"
)

// ParseSpotStatus maps a wire status string to the closed enum. Unknown
// values fail with ErrInvalidInput instead of defaulting.
func ParseSpotStatus(s string) (SpotStatus, error) {
	switch SpotStatus(s) {
	case SpotEmpty, SpotOccupied, SpotReserved:
		return SpotStatus(s), nil
	default:
		return "", fmt.Errorf("%w: unknown spot status %q (must be one of: empty, occupied, reserved)", ErrInvalidInput, s)
	}
}

type ParkingSpot struct {
	ID          int        `json:"id"`
	LotID       int        `json:"parking_lot_id"`
	SpotNumber  string     `json:"spot_number"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	Status      SpotStatus `json:"status"`
	LastUpdated time.Time  `json:"last_updated"`
}

type ParkingSpotDTO struct {
	SpotNumber string   `json:"spot_number" binding:"required"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
}

// ProvisionSpotsDTO creates N numbered spots for a lot in one call.
type ProvisionSpotsDTO struct {
	Count  int    `json:"count" binding:"required,min=1"`
	Prefix string `json:"prefix"`
}
