package services

import (
	"errors"
	"fmt"

	"filehub/internal/models"
	"filehub/internal/repositories"
	"filehub/internal/validation"

	"github.com/google/uuid"
)

// AddressInput is the full set of writable address fields.
type AddressInput struct {
	Street     string `json:"street" validate:"required,max=255"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"required,max=100"`
	Country    string `json:"country" validate:"required,max=100"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	IsDefault  bool   `json:"is_default"`
}

// AddressPatch is a partial address update. Nil fields are left unchanged.
type AddressPatch struct {
	Street     *string `json:"street"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	Country    *string `json:"country"`
	PostalCode *string `json:"postal_code"`
	IsDefault  *bool   `json:"is_default"`
}

// AddressService manages the caller's addresses and keeps at most one of
// them flagged as default.
type AddressService struct {
	repo repositories.AddressRepository
}

// NewAddressService creates a new AddressService.
func NewAddressService(repo repositories.AddressRepository) *AddressService {
	return &AddressService{repo: repo}
}

// List returns the caller's addresses.
func (s *AddressService) List(caller Caller) ([]models.Address, error) {
	addresses, err := s.repo.ListByUser(caller.UserID)
	if err != nil {
		return nil, err
	}
	if addresses == nil {
		addresses = []models.Address{}
	}
	return addresses, nil
}

// Get returns one of the caller's addresses.
func (s *AddressService) Get(caller Caller, id string) (*models.Address, error) {
	address, err := s.repo.GetByIDForUser(id, caller.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	return address, nil
}

// Create stores a new address for the caller. A new default address clears
// the flag on the caller's other addresses in the same transaction.
func (s *AddressService) Create(caller Caller, in AddressInput) (*models.Address, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	address := &models.Address{ID: uuid.New().String(), UserID: caller.UserID}
	applyInput(address, in)

	err := s.repo.WithTx(func(tx repositories.AddressRepository) error {
		if address.IsDefault {
			if err := tx.ClearDefault(caller.UserID, address.ID); err != nil {
				return err
			}
		}
		return tx.Create(address)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create address: %w", err)
	}
	return address, nil
}

// Update replaces every writable field of one of the caller's addresses.
func (s *AddressService) Update(caller Caller, id string, in AddressInput) (*models.Address, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	address, err := s.Get(caller, id)
	if err != nil {
		return nil, err
	}
	applyInput(address, in)
	return s.save(caller, address)
}

// Patch updates the given fields of one of the caller's addresses.
func (s *AddressService) Patch(caller Caller, id string, patch AddressPatch) (*models.Address, error) {
	address, err := s.Get(caller, id)
	if err != nil {
		return nil, err
	}

	in := AddressInput{
		Street:     address.Street,
		City:       address.City,
		State:      address.State,
		Country:    address.Country,
		PostalCode: address.PostalCode,
		IsDefault:  address.IsDefault,
	}
	if patch.Street != nil {
		in.Street = *patch.Street
	}
	if patch.City != nil {
		in.City = *patch.City
	}
	if patch.State != nil {
		in.State = *patch.State
	}
	if patch.Country != nil {
		in.Country = *patch.Country
	}
	if patch.PostalCode != nil {
		in.PostalCode = *patch.PostalCode
	}
	if patch.IsDefault != nil {
		in.IsDefault = *patch.IsDefault
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	applyInput(address, in)
	return s.save(caller, address)
}

func (s *AddressService) save(caller Caller, address *models.Address) (*models.Address, error) {
	err := s.repo.WithTx(func(tx repositories.AddressRepository) error {
		if address.IsDefault {
			if err := tx.ClearDefault(caller.UserID, address.ID); err != nil {
				return err
			}
		}
		return tx.Update(address)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update address: %w", err)
	}
	return address, nil
}

// Delete removes one of the caller's addresses. Deleting the default
// address promotes the caller's first remaining address, if any.
func (s *AddressService) Delete(caller Caller, id string) error {
	address, err := s.Get(caller, id)
	if err != nil {
		return err
	}

	err = s.repo.WithTx(func(tx repositories.AddressRepository) error {
		if address.IsDefault {
			other, err := tx.FirstOther(caller.UserID, address.ID)
			switch {
			case err == nil:
				other.IsDefault = true
				if err := tx.Update(other); err != nil {
					return err
				}
			case !errors.Is(err, repositories.ErrNotFound):
				return err
			}
		}
		return tx.Delete(address.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}
	return nil
}

func applyInput(address *models.Address, in AddressInput) {
	address.Street = in.Street
	address.City = in.City
	address.State = in.State
	address.Country = in.Country
	address.PostalCode = in.PostalCode
	address.IsDefault = in.IsDefault
}
