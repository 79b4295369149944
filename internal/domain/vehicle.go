package domain

import "fmt"

type VehicleType string

const (
	VehicleSedan      VehicleType = "sedan"
	VehicleSUV        VehicleType = "suv"
	VehicleHatchback  VehicleType = "hatchback"
	VehicleMinivan    VehicleType = "minivan"
	VehicleMotorcycle VehicleType = "motorcycle"
)

func ParseVehicleType(s string) (VehicleType, error) {
	switch VehicleType(s) {
	case VehicleSedan, VehicleSUV, VehicleHatchback, VehicleMinivan, VehicleMotorcycle:
		return VehicleType(s), nil
	default:
		return "", fmt.Errorf("%w: unknown vehicle type %q", ErrInvalidInput, s)
	}
}

type Vehicle struct {
	ID          int         `json:"id"`
	PlateNumber string      `json:"plate_number"`
	Brand       string      `json:"brand"`
	Model       string      `json:"model"`
	Color       string      `json:"color"`
	VehicleType VehicleType `json:"vehicle_type"`
	OwnerID     int         `json:"owner_id"`
}

type VehicleDTO struct {
	PlateNumber string `json:"plate_number" binding:"required"`
	Brand       string `json:"brand" binding:"required"`
	Model       string `json:"model" binding:"required"`
	Color       string `json:"color" binding:"required"`
	VehicleType string `json:"vehicle_type" binding:"required"`
}
