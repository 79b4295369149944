package repository

import (
	"context"
	"errors"
	"time"

	"github.com/FuatYavas/ParkVision/internal/domain"
)

var ErrNotFound = errors.New("record not found")
var ErrDuplicateEntry = errors.New("record already exists")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
	Count(ctx context.Context) (int, error)
}

type VehicleRepository interface {
	Create(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error)
	FindByID(ctx context.Context, id int) (*domain.Vehicle, error)
	FindByOwnerID(ctx context.Context, ownerID int) ([]domain.Vehicle, error)
	FindByPlateNumber(ctx context.Context, plate string) (*domain.Vehicle, error)
	Update(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error)
	Delete(ctx context.Context, id int) error
}

type ParkingLotRepository interface {
	Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error)
	FindByID(ctx context.Context, id int) (*domain.ParkingLot, error)
	FindAll(ctx context.Context) ([]domain.ParkingLot, error)
	Update(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error)
	UpdateCapacity(ctx context.Context, id int, capacity int) error
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
}

type ParkingSpotRepository interface {
	Create(ctx context.Context, spot *domain.ParkingSpot) (*domain.ParkingSpot, error)
	FindByID(ctx context.Context, id int) (*domain.ParkingSpot, error)
	FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpot, error)
	FindAll(ctx context.Context) ([]domain.ParkingSpot, error)
	UpdateStatus(ctx context.Context, id int, status domain.SpotStatus, at time.Time) error
	Delete(ctx context.Context, id int) error
	DeleteByLotID(ctx context.Context, lotID int) error
}

type ReservationRepository interface {
	Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error)
	FindByID(ctx context.Context, id int) (*domain.Reservation, error)
	FindByCode(ctx context.Context, code string) (*domain.Reservation, error)
	FindByUserID(ctx context.Context, userID int) ([]domain.Reservation, error)
	FindAll(ctx context.Context) ([]domain.Reservation, error)
	// UpdateStatus transitions an ACTIVE reservation to the given status.
	// Returns ErrNotFound for an unknown id and domain.ErrInvalidState when
	// the reservation is already terminal; terminal states never re-open.
	UpdateStatus(ctx context.Context, id int, status domain.ReservationStatus) error
	// FindExpiredActive returns ACTIVE reservations whose end time has passed.
	FindExpiredActive(ctx context.Context, now time.Time) ([]domain.Reservation, error)
	CountByStatus(ctx context.Context, status domain.ReservationStatus) (int, error)
	CountStartedSince(ctx context.Context, since time.Time) (int, error)
}

type ReportRepository interface {
	Create(ctx context.Context, report *domain.Report) (*domain.Report, error)
	FindByID(ctx context.Context, id int) (*domain.Report, error)
	FindAll(ctx context.Context, offset, limit int) ([]domain.Report, error)
	MarkVerified(ctx context.Context, id int) error
}
