package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// maxKeyAttempts bounds the search for a free key.
const maxKeyAttempts = 10

// LocalStore keeps payloads on the local filesystem below a root directory.
type LocalStore struct {
	root string
}

// NewLocalStore creates the namespace directory below root.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Join(root, Namespace), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Save writes r to a new file. O_EXCL makes the existence check and the
// creation a single step.
func (s *LocalStore) Save(_ context.Context, name string, r io.Reader, _ int64) (string, error) {
	key := keyFor(name)
	for attempt := 0; attempt < maxKeyAttempts; attempt++ {
		dst, err := os.OpenFile(s.path(key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			key = alternateKey(keyFor(name))
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create payload %s: %w", key, err)
		}

		if _, err := io.Copy(dst, r); err != nil {
			dst.Close()
			_ = os.Remove(s.path(key))
			return "", fmt.Errorf("failed to write payload %s: %w", key, err)
		}
		if err := dst.Close(); err != nil {
			_ = os.Remove(s.path(key))
			return "", fmt.Errorf("failed to close payload %s: %w", key, err)
		}
		return key, nil
	}
	return "", fmt.Errorf("no free storage key for %q", name)
}

// Open returns the payload stored under key.
func (s *LocalStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("payload %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open payload %s: %w", key, err)
	}
	return f, nil
}

// Delete removes the payload. A missing payload is not an error.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete payload %s: %w", key, err)
	}
	return nil
}
