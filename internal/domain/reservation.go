package domain

import "time"

type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationCompleted ReservationStatus = "completed"
)

// Terminal reports whether the status can never change again.
func (s ReservationStatus) Terminal() bool {
	return s == ReservationCancelled || s == ReservationCompleted
}

type Reservation struct {
	ID        int               `json:"id"`
	UserID    int               `json:"user_id"`
	SpotID    int               `json:"spot_id"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time"`
	Code      string            `json:"reservation_code"`
	Status    ReservationStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

type ReservationCreateDTO struct {
	SpotID          int `json:"spot_id" binding:"required"`
	DurationMinutes int `json:"duration_minutes" binding:"required,min=1"`
}

type ReservationValidationResult struct {
	Status        string `json:"status"`
	ReservationID int    `json:"reservation_id"`
}
