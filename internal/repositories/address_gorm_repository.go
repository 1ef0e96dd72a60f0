package repositories

import (
	"errors"
	"fmt"

	"filehub/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMAddressRepository is a GORM implementation of AddressRepository.
type GORMAddressRepository struct {
	db *gorm.DB
}

// NewGORMAddressRepository creates a new instance of GORMAddressRepository.
func NewGORMAddressRepository(db *gorm.DB) *GORMAddressRepository {
	return &GORMAddressRepository{
		db: db,
	}
}

// ListByUser returns the addresses of a user, oldest first.
func (r *GORMAddressRepository) ListByUser(userID string) ([]models.Address, error) {
	var addresses []models.Address
	if err := r.db.Where("user_id = ?", userID).Order("created_at, id").Find(&addresses).Error; err != nil {
		return nil, fmt.Errorf("failed to list addresses of user %s: %w", userID, err)
	}
	return addresses, nil
}

// GetByIDForUser retrieves an address only if it belongs to userID.
func (r *GORMAddressRepository) GetByIDForUser(id, userID string) (*models.Address, error) {
	var address models.Address
	if err := r.db.First(&address, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("address with ID %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get address by ID %s: %w", id, err)
	}
	return &address, nil
}

// Create creates a new address in the database.
func (r *GORMAddressRepository) Create(address *models.Address) error {
	if address.ID == "" {
		address.ID = uuid.New().String()
	}
	if err := r.db.Create(address).Error; err != nil {
		return fmt.Errorf("failed to create address: %w", err)
	}
	return nil
}

// Update updates an existing address in the database.
func (r *GORMAddressRepository) Update(address *models.Address) error {
	res := r.db.Save(address)
	if res.Error != nil {
		return fmt.Errorf("failed to update address: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("address with ID %s not found for update: %w", address.ID, ErrNotFound)
	}
	return nil
}

// Delete deletes an address by its ID.
func (r *GORMAddressRepository) Delete(id string) error {
	res := r.db.Delete(&models.Address{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete address: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("address with ID %s not found for deletion: %w", id, ErrNotFound)
	}
	return nil
}

// ClearDefault unsets the default flag on every other address of the user.
func (r *GORMAddressRepository) ClearDefault(userID, exceptID string) error {
	err := r.db.Model(&models.Address{}).
		Where("user_id = ? AND is_default = ? AND id <> ?", userID, true, exceptID).
		Update("is_default", false).Error
	if err != nil {
		return fmt.Errorf("failed to clear default address of user %s: %w", userID, err)
	}
	return nil
}

// FirstOther returns the first remaining address of the user in lookup order.
func (r *GORMAddressRepository) FirstOther(userID, exceptID string) (*models.Address, error) {
	var address models.Address
	err := r.db.Where("user_id = ? AND id <> ?", userID, exceptID).
		Order("created_at, id").
		First(&address).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no other address for user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up other address of user %s: %w", userID, err)
	}
	return &address, nil
}

// WithTx runs fn inside a database transaction.
func (r *GORMAddressRepository) WithTx(fn func(repo AddressRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GORMAddressRepository{db: tx})
	})
}
