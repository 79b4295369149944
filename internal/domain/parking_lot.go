package domain

import "time"

type ParkingLot struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	Address    string    `json:"address,omitempty"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Capacity   int       `json:"capacity"`
	HourlyRate float64   `json:"hourly_rate"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ParkingLotDTO struct {
	Name       string  `json:"name" binding:"required"`
	Address    string  `json:"address"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Capacity   int     `json:"capacity"`
	HourlyRate float64 `json:"hourly_rate"`
}
