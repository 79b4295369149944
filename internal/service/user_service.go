package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/guregu/null.v4"

	"github.com/FuatYavas/ParkVision/internal/domain"
	"github.com/FuatYavas/ParkVision/internal/repository"
)

type UserService struct {
	userRepo    repository.UserRepository
	vehicleRepo repository.VehicleRepository
}

func NewUserService(userRepo repository.UserRepository, vehicleRepo repository.VehicleRepository) *UserService {
	return &UserService{userRepo: userRepo, vehicleRepo: vehicleRepo}
}

func (s *UserService) GetProfile(ctx context.Context, userID int) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int, dto domain.UserUpdateDTO) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if dto.Email != "" {
		user.Email = dto.Email
	}
	if dto.FullName != "" {
		user.FullName = dto.FullName
	}
	if dto.PhoneNumber != "" {
		user.PhoneNumber = null.StringFrom(dto.PhoneNumber)
	}
	updated, err := s.userRepo.Update(ctx, user)
	if err != nil {
		return nil, err
	}
	updated.PasswordHash = ""
	return updated, nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID int, dto domain.PasswordChangeDTO) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(dto.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(dto.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.userRepo.UpdatePassword(ctx, userID, string(hashed))
}

// --- Vehicles ---

func (s *UserService) RegisterVehicle(ctx context.Context, ownerID int, dto domain.VehicleDTO) (*domain.Vehicle, error) {
	vehicleType, err := domain.ParseVehicleType(dto.VehicleType)
	if err != nil {
		return nil, err
	}
	vehicle := &domain.Vehicle{
		PlateNumber: dto.PlateNumber,
		Brand:       dto.Brand,
		Model:       dto.Model,
		Color:       dto.Color,
		VehicleType: vehicleType,
		OwnerID:     ownerID,
	}
	return s.vehicleRepo.Create(ctx, vehicle)
}

func (s *UserService) ListVehicles(ctx context.Context, ownerID int) ([]domain.Vehicle, error) {
	return s.vehicleRepo.FindByOwnerID(ctx, ownerID)
}

func (s *UserService) UpdateVehicle(ctx context.Context, ownerID, vehicleID int, dto domain.VehicleDTO) (*domain.Vehicle, error) {
	vehicle, err := s.vehicleRepo.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}
	if dto.PlateNumber != "" {
		vehicle.PlateNumber = dto.PlateNumber
	}
	if dto.Brand != "" {
		vehicle.Brand = dto.Brand
	}
	if dto.Model != "" {
		vehicle.Model = dto.Model
	}
	if dto.Color != "" {
		vehicle.Color = dto.Color
	}
	if dto.VehicleType != "" {
		vehicleType, err := domain.ParseVehicleType(dto.VehicleType)
		if err != nil {
			return nil, err
		}
		vehicle.VehicleType = vehicleType
	}
	return s.vehicleRepo.Update(ctx, vehicle)
}

func (s *UserService) DeleteVehicle(ctx context.Context, ownerID, vehicleID int) error {
	vehicle, err := s.vehicleRepo.FindByID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.ErrNotFound
		}
		return err
	}
	if vehicle.OwnerID != ownerID {
		return domain.ErrForbidden
	}
	return s.vehicleRepo.Delete(ctx, vehicleID)
}
