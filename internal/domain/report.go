package domain

import (
	"fmt"
	"time"

	"gopkg.in/guregu/null.v4"
)

// Report is a crowd-sourced spot observation submitted by a user, kept for
// verification against the detection pipeline.
type ReportType string

const (
	ReportVacant   ReportType = "vacant"
	ReportOccupied ReportType = "occupied"
)

func ParseReportType(s string) (ReportType, error) {
	switch ReportType(s) {
	case ReportVacant, ReportOccupied:
		return ReportType(s), nil
	default:
		return "", fmt.Errorf("%w: unknown report type %q", ErrInvalidInput, s)
	}
}

type Report struct {
	ID         int        `json:"id"`
	UserID     int        `json:"user_id"`
	LotID      int        `json:"parking_lot_id"`
	SpotID     null.Int   `json:"spot_id,omitempty"`
	ReportType ReportType `json:"report_type"`
	Timestamp  time.Time  `json:"timestamp"`
	IsVerified bool       `json:"is_verified"`
}

type ReportDTO struct {
	LotID      int    `json:"parking_lot_id" binding:"required"`
	SpotID     *int   `json:"spot_id"`
	ReportType string `json:"report_type" binding:"required"`
}
