package repositories

import (
	"time"

	"filehub/internal/models"
)

// FileRepository defines the interface for file metadata access.
type FileRepository interface {
	Create(file *models.File) error
	GetByID(id string) (*models.File, error)
	ListAll() ([]models.File, error)
	ListByUser(userID string) ([]models.File, error)
	Update(file *models.File) error
	Delete(id string) error

	CountAll() (int64, error)
	CountSince(since time.Time) (int64, error)
	CountByUser(since time.Time) ([]models.UserFileCount, error)
	CountByType() ([]models.FileTypeCount, error)
}
