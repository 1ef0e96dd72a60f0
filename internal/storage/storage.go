// Package storage keeps uploaded payloads. Records in the database refer to a
// payload by the key returned from Save.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Namespace is the key prefix every payload is stored under.
const Namespace = "user_files"

// ErrNotFound is returned when a key has no payload.
var ErrNotFound = errors.New("payload not found")

// Store saves and serves file payloads.
type Store interface {
	// Save writes the payload under a key derived from name and returns the
	// key actually used. An existing key is never overwritten.
	Save(ctx context.Context, name string, r io.Reader, size int64) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// keyFor builds the namespaced key for an original filename.
func keyFor(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}
	return Namespace + "/" + base
}

// alternateKey inserts a short random suffix before the extension.
func alternateKey(key string) string {
	ext := path.Ext(key)
	stem := strings.TrimSuffix(key, ext)
	return stem + "_" + uuid.NewString()[:7] + ext
}
