package services_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"
	"unicode/utf8"

	"filehub/internal/models"
	"filehub/internal/services"
	"filehub/pkg/rabbitmq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFileTypeOf(t *testing.T) {
	tests := map[string]string{
		"report.PDF":         "PDF",
		"noext":              "",
		"archive.tar.gz":     "GZ",
		"photo.jpeg":         "JPEG",
		".bashrc":            "BASHRC",
		"trailing.":          "",
		"long.extension1234": "EXTENSION1",
		"x.aéééééé":          "AÉÉÉÉÉÉ",
		"x.éééééééééééé":     "ÉÉÉÉÉÉÉÉÉÉ",
	}
	for filename, want := range tests {
		got := services.FileTypeOf(filename)
		assert.Equal(t, want, got, filename)
		assert.True(t, utf8.ValidString(got), filename)
	}
}

func TestFileService_UploadDerivesMetadata(t *testing.T) {
	repo := new(MockFileRepository)
	store := newMemoryStore()
	publisher := new(MockPublisher)
	service := services.NewFileService(repo, store, publisher)
	caller := &services.Caller{UserID: "user-1"}

	repo.On("Create", mock.AnythingOfType("*models.File")).Return(nil).Once()
	publisher.On("PublishFileEvent", mock.MatchedBy(func(e rabbitmq.FileEvent) bool {
		return e.Event == rabbitmq.EventFileUploaded && e.Filename == "report.PDF"
	})).Return(nil).Once()

	before := time.Now().UTC()
	file, err := service.Upload(context.Background(), caller, services.Upload{
		NativeName: "report.PDF",
		Size:       5,
		Content:    bytes.NewBufferString("hello"),
	})
	require.NoError(t, err)

	assert.Equal(t, "report.PDF", file.Filename)
	assert.Equal(t, "PDF", file.FileType)
	assert.Equal(t, int64(5), file.FileSize)
	assert.Equal(t, "user-1", file.UserID)
	assert.Equal(t, "user_files/report.PDF", file.StorageKey)
	assert.False(t, file.UploadDate.Before(before))
	assert.True(t, store.has(file.StorageKey))
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestFileService_UploadExplicitNameAndSize(t *testing.T) {
	repo := new(MockFileRepository)
	service := services.NewFileService(repo, newMemoryStore(), nil)

	repo.On("Create", mock.AnythingOfType("*models.File")).Return(nil).Once()

	file, err := service.Upload(context.Background(), &services.Caller{UserID: "user-1"}, services.Upload{
		NativeName:   "scan.png",
		Filename:     "noext",
		Size:         3,
		DeclaredSize: 1024,
		Content:      bytes.NewBufferString("abc"),
	})
	require.NoError(t, err)
	assert.Equal(t, "noext", file.Filename)
	assert.Equal(t, "", file.FileType)
	assert.Equal(t, int64(1024), file.FileSize)
}

func TestFileService_UploadRequiresOwner(t *testing.T) {
	repo := new(MockFileRepository)
	service := services.NewFileService(repo, newMemoryStore(), nil)

	_, err := service.Upload(context.Background(), nil, services.Upload{NativeName: "a.txt", Content: bytes.NewBufferString("a")})
	assert.ErrorIs(t, err, services.ErrNoOwner)
	repo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestFileService_UploadRemovesPayloadWhenRecordFails(t *testing.T) {
	repo := new(MockFileRepository)
	store := newMemoryStore()
	service := services.NewFileService(repo, store, nil)

	repo.On("Create", mock.AnythingOfType("*models.File")).Return(errors.New("disk full")).Once()

	_, err := service.Upload(context.Background(), &services.Caller{UserID: "user-1"}, services.Upload{
		NativeName: "a.txt", Size: 1, Content: bytes.NewBufferString("a"),
	})
	require.Error(t, err)
	assert.False(t, store.has("user_files/a.txt"))
}

func TestFileService_ListScoping(t *testing.T) {
	repo := new(MockFileRepository)
	service := services.NewFileService(repo, newMemoryStore(), nil)

	own := []models.File{{ID: "f-1", UserID: "user-1"}}
	all := []models.File{{ID: "f-1", UserID: "user-1"}, {ID: "f-2", UserID: "user-2"}}
	repo.On("ListByUser", "user-1").Return(own, nil).Once()
	repo.On("ListAll").Return(all, nil).Once()

	files, err := service.List(services.Caller{UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, own, files)

	files, err = service.List(services.Caller{UserID: "admin", IsStaff: true})
	require.NoError(t, err)
	assert.Equal(t, all, files)
	repo.AssertExpectations(t)
}

func TestFileService_GetHidesForeignFiles(t *testing.T) {
	repo := new(MockFileRepository)
	service := services.NewFileService(repo, newMemoryStore(), nil)

	foreign := &models.File{ID: "f-2", UserID: "user-2"}
	repo.On("GetByID", "f-2").Return(foreign, nil).Twice()
	repo.On("GetByID", "missing").Return(nil, notFound("file")).Once()

	_, err := service.Get(services.Caller{UserID: "user-1"}, "f-2")
	assert.ErrorIs(t, err, services.ErrFileNotFound)

	file, err := service.Get(services.Caller{UserID: "admin", IsStaff: true}, "f-2")
	require.NoError(t, err)
	assert.Equal(t, foreign, file)

	_, err = service.Get(services.Caller{UserID: "user-1"}, "missing")
	assert.ErrorIs(t, err, services.ErrFileNotFound)
}

func TestFileService_UpdateDoesNotRederive(t *testing.T) {
	repo := new(MockFileRepository)
	service := services.NewFileService(repo, newMemoryStore(), nil)

	file := &models.File{ID: "f-1", UserID: "user-1", Filename: "report.pdf", FileType: "PDF", FileSize: 10}
	repo.On("GetByID", "f-1").Return(file, nil).Once()
	repo.On("Update", file).Return(nil).Once()

	name := "renamed.xlsx"
	updated, err := service.Update(services.Caller{UserID: "user-1"}, "f-1", services.FilePatch{Filename: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed.xlsx", updated.Filename)
	assert.Equal(t, "PDF", updated.FileType)
	assert.Equal(t, int64(10), updated.FileSize)
}

func TestFileService_DeleteAndOpen(t *testing.T) {
	repo := new(MockFileRepository)
	store := newMemoryStore()
	publisher := new(MockPublisher)
	service := services.NewFileService(repo, store, publisher)
	ctx := context.Background()

	key, err := store.Save(ctx, "a.txt", bytes.NewBufferString("payload"), 7)
	require.NoError(t, err)
	file := &models.File{ID: "f-1", UserID: "user-1", StorageKey: key, Filename: "a.txt"}
	caller := services.Caller{UserID: "user-1"}

	repo.On("GetByID", "f-1").Return(file, nil).Twice()
	repo.On("Delete", "f-1").Return(nil).Once()
	publisher.On("PublishFileEvent", mock.MatchedBy(func(e rabbitmq.FileEvent) bool {
		return e.Event == rabbitmq.EventFileDeleted && e.FileID == "f-1"
	})).Return(errors.New("broker down")).Once()

	got, rc, err := service.Open(ctx, caller, "f-1")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	assert.Equal(t, "payload", string(body))
	assert.Equal(t, file, got)

	require.NoError(t, service.Delete(ctx, caller, "f-1"), "publish failures do not fail the delete")
	assert.False(t, store.has(key))
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}
