package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"filehub/internal/models"
	"filehub/internal/repositories"
	"filehub/internal/storage"
	"filehub/internal/validation"
)

// ProfileUpdate is a partial update of the caller's profile. Nil fields are
// left unchanged.
type ProfileUpdate struct {
	Username    *string `json:"username" validate:"omitnil,min=3,max=150"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=15"`
}

// UserService manages the caller's own account.
type UserService struct {
	userRepo    repositories.UserRepository
	addressRepo repositories.AddressRepository
	fileRepo    repositories.FileRepository
	store       storage.Store
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repositories.UserRepository, addressRepo repositories.AddressRepository, fileRepo repositories.FileRepository, store storage.Store) *UserService {
	return &UserService{
		userRepo:    userRepo,
		addressRepo: addressRepo,
		fileRepo:    fileRepo,
		store:       store,
	}
}

// GetProfile returns the caller's account with its addresses.
func (s *UserService) GetProfile(caller Caller) (*models.User, error) {
	user, err := s.userRepo.GetByID(caller.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	addresses, err := s.addressRepo.ListByUser(user.ID)
	if err != nil {
		return nil, err
	}
	if addresses == nil {
		addresses = []models.Address{}
	}
	user.Addresses = addresses
	return user, nil
}

// UpdateProfile applies a partial update to the caller's username and phone number.
func (s *UserService) UpdateProfile(caller Caller, update ProfileUpdate) (*models.User, error) {
	if err := validation.Struct(update); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(caller.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if update.Username != nil && *update.Username != user.Username {
		existing, err := s.userRepo.GetByUsername(*update.Username)
		switch {
		case err == nil && existing.ID != user.ID:
			return nil, validation.FieldError("username", "A user with this username already exists.")
		case err != nil && !errors.Is(err, repositories.ErrNotFound):
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
		user.Username = *update.Username
	}
	if update.PhoneNumber != nil {
		user.PhoneNumber = *update.PhoneNumber
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return s.GetProfile(caller)
}

// DeleteAccount removes the caller with all addresses, files and payloads.
// Payloads are removed after the records; a payload that cannot be removed
// is logged and left behind.
func (s *UserService) DeleteAccount(ctx context.Context, caller Caller) error {
	files, err := s.fileRepo.ListByUser(caller.UserID)
	if err != nil {
		return err
	}

	if err := s.userRepo.Delete(caller.UserID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	for _, f := range files {
		if err := s.store.Delete(ctx, f.StorageKey); err != nil {
			log.Printf("Error removing payload %s of deleted user %s: %v", f.StorageKey, caller.UserID, err)
		}
	}
	return nil
}
