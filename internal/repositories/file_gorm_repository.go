package repositories

import (
	"errors"
	"fmt"
	"time"

	"filehub/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMFileRepository is a GORM implementation of FileRepository.
type GORMFileRepository struct {
	db *gorm.DB
}

// NewGORMFileRepository creates a new instance of GORMFileRepository.
func NewGORMFileRepository(db *gorm.DB) *GORMFileRepository {
	return &GORMFileRepository{
		db: db,
	}
}

// Create creates a new file record in the database.
func (r *GORMFileRepository) Create(file *models.File) error {
	if file.ID == "" {
		file.ID = uuid.New().String()
	}
	if err := r.db.Create(file).Error; err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	return nil
}

// GetByID retrieves a single file record by its ID.
func (r *GORMFileRepository) GetByID(id string) (*models.File, error) {
	var file models.File
	if err := r.db.First(&file, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("file with ID %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get file by ID %s: %w", id, err)
	}
	return &file, nil
}

// ListAll returns every file, newest first.
func (r *GORMFileRepository) ListAll() ([]models.File, error) {
	var files []models.File
	if err := r.db.Order("upload_date DESC, id").Find(&files).Error; err != nil {
		return nil, fmt.Errorf("failed to get all files: %w", err)
	}
	return files, nil
}

// ListByUser returns the files owned by userID, newest first.
func (r *GORMFileRepository) ListByUser(userID string) ([]models.File, error) {
	var files []models.File
	if err := r.db.Where("user_id = ?", userID).Order("upload_date DESC, id").Find(&files).Error; err != nil {
		return nil, fmt.Errorf("failed to get files of user %s: %w", userID, err)
	}
	return files, nil
}

// Update saves the editable metadata of a file. Size, owner and upload date
// are left untouched.
func (r *GORMFileRepository) Update(file *models.File) error {
	res := r.db.Model(file).Select("filename", "file_type").Updates(file)
	if res.Error != nil {
		return fmt.Errorf("failed to update file: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("file with ID %s not found for update: %w", file.ID, ErrNotFound)
	}
	return nil
}

// Delete deletes a file record by its ID.
func (r *GORMFileRepository) Delete(id string) error {
	res := r.db.Delete(&models.File{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete file: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("file with ID %s not found for deletion: %w", id, ErrNotFound)
	}
	return nil
}

// CountAll returns the number of stored files.
func (r *GORMFileRepository) CountAll() (int64, error) {
	var n int64
	if err := r.db.Model(&models.File{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}
	return n, nil
}

// CountSince returns the number of files uploaded at or after since.
func (r *GORMFileRepository) CountSince(since time.Time) (int64, error) {
	var n int64
	if err := r.db.Model(&models.File{}).Where("upload_date >= ?", since).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count recent files: %w", err)
	}
	return n, nil
}

// CountByUser returns per-owner totals, largest first.
func (r *GORMFileRepository) CountByUser(since time.Time) ([]models.UserFileCount, error) {
	var rows []models.UserFileCount
	err := r.db.Model(&models.File{}).
		Select("users.username AS username, users.email AS email, "+
			"COUNT(files.id) AS file_count, "+
			"SUM(CASE WHEN files.upload_date >= ? THEN 1 ELSE 0 END) AS recent_uploads", since).
		Joins("JOIN users ON users.id = files.user_id").
		Group("users.id, users.username, users.email").
		Order("file_count DESC, users.username").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count files by user: %w", err)
	}
	return rows, nil
}

// CountByType returns the number of files per stored file type.
func (r *GORMFileRepository) CountByType() ([]models.FileTypeCount, error) {
	var rows []models.FileTypeCount
	err := r.db.Model(&models.File{}).
		Select("file_type, COUNT(id) AS count").
		Group("file_type").
		Order("count DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count files by type: %w", err)
	}
	return rows, nil
}
