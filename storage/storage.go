package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// ErrNotFound the object does not exist.
var ErrNotFound = errors.New("file not found")

// Provider is the file store behind photos and profile pictures. Paths are
// slash separated keys such as "42/3f2a.jpg".
type Provider interface {
	SaveWithContext(ctx context.Context, storagePath string, file io.Reader) error

	// GetWithContext opens the object; the caller closes it.
	GetWithContext(ctx context.Context, storagePath string) (io.ReadCloser, error)

	// DeleteWithContext removes the object; ErrNotFound when it is absent.
	DeleteWithContext(ctx context.Context, storagePath string) error

	Exists(ctx context.Context, storagePath string) (bool, error)

	// List returns every key under prefix ("" for all).
	List(ctx context.Context, prefix string) ([]string, error)

	Health(ctx context.Context) error

	Name() string
}

// IsValidStoragePath 校验存储路径是否合法
func IsValidStoragePath(path string) bool {
	if path == "" {
		return false
	}

	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return false
	}

	if strings.Contains(path, "..") {
		return false
	}

	for _, seg := range strings.Split(path, "/") {
		if seg == "" || seg == "." {
			return false
		}
	}

	for _, r := range path {
		if (r < 'a' || r > 'z') &&
			(r < 'A' || r > 'Z') &&
			(r < '0' || r > '9') &&
			r != '-' && r != '_' && r != '.' && r != '/' {
			return false
		}
	}

	return true
}

// IgnoreNotFound treats a missing object as already deleted.
func IgnoreNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
