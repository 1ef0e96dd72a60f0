package repositories

import "filehub/internal/models"

// AddressRepository defines the interface for address data access. Every
// lookup is scoped to the owning user.
type AddressRepository interface {
	ListByUser(userID string) ([]models.Address, error)
	GetByIDForUser(id, userID string) (*models.Address, error)
	Create(address *models.Address) error
	Update(address *models.Address) error
	Delete(id string) error
	// ClearDefault unsets IsDefault on every address of userID except exceptID.
	ClearDefault(userID, exceptID string) error
	// FirstOther returns the oldest address of userID other than exceptID.
	FirstOther(userID, exceptID string) (*models.Address, error)
	// WithTx runs fn against a repository bound to a single transaction.
	WithTx(fn func(repo AddressRepository) error) error
}
