package services_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"filehub/internal/models"
	"filehub/internal/repositories"
	"filehub/internal/storage"
	"filehub/pkg/rabbitmq"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockAddressRepository is a mock implementation of repositories.AddressRepository.
// WithTx runs the callback against the mock itself.
type MockAddressRepository struct {
	mock.Mock
}

func (m *MockAddressRepository) ListByUser(userID string) ([]models.Address, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Address), args.Error(1)
}

func (m *MockAddressRepository) GetByIDForUser(id, userID string) (*models.Address, error) {
	args := m.Called(id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Address), args.Error(1)
}

func (m *MockAddressRepository) Create(address *models.Address) error {
	args := m.Called(address)
	return args.Error(0)
}

func (m *MockAddressRepository) Update(address *models.Address) error {
	args := m.Called(address)
	return args.Error(0)
}

func (m *MockAddressRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockAddressRepository) ClearDefault(userID, exceptID string) error {
	args := m.Called(userID, exceptID)
	return args.Error(0)
}

func (m *MockAddressRepository) FirstOther(userID, exceptID string) (*models.Address, error) {
	args := m.Called(userID, exceptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Address), args.Error(1)
}

func (m *MockAddressRepository) WithTx(fn func(repo repositories.AddressRepository) error) error {
	return fn(m)
}

// MockFileRepository is a mock implementation of repositories.FileRepository
type MockFileRepository struct {
	mock.Mock
}

func (m *MockFileRepository) Create(file *models.File) error {
	args := m.Called(file)
	return args.Error(0)
}

func (m *MockFileRepository) GetByID(id string) (*models.File, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.File), args.Error(1)
}

func (m *MockFileRepository) ListAll() ([]models.File, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.File), args.Error(1)
}

func (m *MockFileRepository) ListByUser(userID string) ([]models.File, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.File), args.Error(1)
}

func (m *MockFileRepository) Update(file *models.File) error {
	args := m.Called(file)
	return args.Error(0)
}

func (m *MockFileRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockFileRepository) CountAll() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFileRepository) CountSince(since time.Time) (int64, error) {
	args := m.Called(since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFileRepository) CountByUser(since time.Time) ([]models.UserFileCount, error) {
	args := m.Called(since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserFileCount), args.Error(1)
}

func (m *MockFileRepository) CountByType() ([]models.FileTypeCount, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FileTypeCount), args.Error(1)
}

// MockPublisher records published events.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishFileEvent(event rabbitmq.FileEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

// memoryStore is an in-memory storage.Store.
type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (s *memoryStore) Save(_ context.Context, name string, r io.Reader, _ int64) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := storage.Namespace + "/" + name
	for i := 1; ; i++ {
		if _, taken := s.objects[key]; !taken {
			break
		}
		key = fmt.Sprintf("%s/%d_%s", storage.Namespace, i, name)
	}
	s.objects[key] = data
	return key, nil
}

func (s *memoryStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("payload %s: %w", key, storage.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memoryStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}
