package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"filehub/internal/models"
	"filehub/internal/repositories"
	"filehub/internal/storage"
	"filehub/internal/validation"
	"filehub/pkg/rabbitmq"
)

// maxFileTypeLen is the width of the file_type column in characters.
const maxFileTypeLen = 10

// EventPublisher sends file lifecycle events.
type EventPublisher interface {
	PublishFileEvent(event rabbitmq.FileEvent) error
}

// Upload is an incoming payload together with the metadata the client sent.
type Upload struct {
	// NativeName is the name the payload was uploaded with.
	NativeName string
	// Filename is the display name; NativeName is used when empty.
	Filename string
	// Size is the number of bytes in Content.
	Size int64
	// DeclaredSize overrides Size when positive.
	DeclaredSize int64
	Content      io.Reader
}

// FilePatch is a partial metadata update. Nothing is re-derived from it.
type FilePatch struct {
	Filename *string `json:"filename" validate:"omitnil,min=1,max=255"`
	FileType *string `json:"file_type" validate:"omitnil,max=10"`
}

// FileService records uploaded files and serves them back to their owners.
type FileService struct {
	repo      repositories.FileRepository
	store     storage.Store
	publisher EventPublisher
	now       func() time.Time
}

// NewFileService creates a new FileService. publisher may be nil.
func NewFileService(repo repositories.FileRepository, store storage.Store, publisher EventPublisher) *FileService {
	return &FileService{
		repo:      repo,
		store:     store,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// FileTypeOf returns the uppercased text after the last dot of filename, or
// "" when there is no dot.
func FileTypeOf(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	fileType := []rune(strings.ToUpper(filename[idx+1:]))
	if len(fileType) > maxFileTypeLen {
		fileType = fileType[:maxFileTypeLen]
	}
	return string(fileType)
}

// Upload stores the payload and records its metadata for the caller.
func (s *FileService) Upload(ctx context.Context, caller *Caller, up Upload) (*models.File, error) {
	if caller == nil || caller.UserID == "" {
		return nil, ErrNoOwner
	}

	filename := strings.TrimSpace(up.Filename)
	if filename == "" {
		filename = path.Base(strings.ReplaceAll(up.NativeName, "\\", "/"))
	}
	if err := validation.Struct(struct {
		Filename string `json:"filename" validate:"required,max=255"`
	}{filename}); err != nil {
		return nil, err
	}

	size := up.DeclaredSize
	if size <= 0 {
		size = up.Size
	}

	key, err := s.store.Save(ctx, up.NativeName, up.Content, up.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to store payload: %w", err)
	}

	file := &models.File{
		UserID:     caller.UserID,
		StorageKey: key,
		Filename:   filename,
		FileType:   FileTypeOf(filename),
		UploadDate: s.now(),
		FileSize:   size,
	}
	if err := s.repo.Create(file); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			log.Printf("Error removing orphaned payload %s: %v", key, delErr)
		}
		return nil, err
	}

	s.publish(rabbitmq.EventFileUploaded, file)
	return file, nil
}

// List returns the caller's files, or every file for staff.
func (s *FileService) List(caller Caller) ([]models.File, error) {
	var (
		files []models.File
		err   error
	)
	if caller.IsStaff {
		files, err = s.repo.ListAll()
	} else {
		files, err = s.repo.ListByUser(caller.UserID)
	}
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []models.File{}
	}
	return files, nil
}

// Get returns a file visible to the caller. Files of other users are
// reported as missing unless the caller is staff.
func (s *FileService) Get(caller Caller, id string) (*models.File, error) {
	file, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	if !caller.IsStaff && file.UserID != caller.UserID {
		return nil, ErrFileNotFound
	}
	return file, nil
}

// Update edits the display metadata of a file.
func (s *FileService) Update(caller Caller, id string, patch FilePatch) (*models.File, error) {
	if err := validation.Struct(patch); err != nil {
		return nil, err
	}
	file, err := s.Get(caller, id)
	if err != nil {
		return nil, err
	}
	if patch.Filename != nil {
		file.Filename = *patch.Filename
	}
	if patch.FileType != nil {
		file.FileType = *patch.FileType
	}
	if err := s.repo.Update(file); err != nil {
		return nil, err
	}
	return file, nil
}

// Delete removes the file record and then its payload.
func (s *FileService) Delete(ctx context.Context, caller Caller, id string) error {
	file, err := s.Get(caller, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(file.ID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, file.StorageKey); err != nil {
		log.Printf("Error removing payload %s of file %s: %v", file.StorageKey, file.ID, err)
	}
	s.publish(rabbitmq.EventFileDeleted, file)
	return nil
}

// Open returns the file record and a reader over its payload. The caller
// must close the reader.
func (s *FileService) Open(ctx context.Context, caller Caller, id string) (*models.File, io.ReadCloser, error) {
	file, err := s.Get(caller, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(ctx, file.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open payload of file %s: %w", file.ID, err)
	}
	return file, rc, nil
}

func (s *FileService) publish(name string, file *models.File) {
	if s.publisher == nil {
		return
	}
	event := rabbitmq.FileEvent{
		Event:      name,
		FileID:     file.ID,
		UserID:     file.UserID,
		Filename:   file.Filename,
		FileType:   file.FileType,
		FileSize:   file.FileSize,
		OccurredAt: s.now(),
	}
	if err := s.publisher.PublishFileEvent(event); err != nil {
		log.Printf("Warning: failed to publish %s event for file %s: %v", name, file.ID, err)
	}
}
