// Package blob provides path-addressed byte storage for the task store.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested path does not exist in the backend.
var ErrNotFound = errors.New("not found")

// ErrExists is returned by Create when the path is already taken.
var ErrExists = errors.New("already exists")

// Backend abstracts over key-value style file storage.
type Backend interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	// Create writes data only if path does not exist yet. The check and the
	// write are a single atomic step; a lost race returns ErrExists.
	Create(ctx context.Context, path string, data []byte) error
	Delete(ctx context.Context, path string) error
	// List returns the paths directly under prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, path string) (bool, error)
}
