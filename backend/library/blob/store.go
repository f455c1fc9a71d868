// Package blob stores file artifacts under slash-separated keys such as
// "storage/user-<id>/photo.jpg".
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"filebox/backend/common"
)

var (
	ErrNotExist   = errors.New("blob: object does not exist")
	ErrExist      = errors.New("blob: object already exists")
	ErrInvalidKey = errors.New("blob: invalid key")
)

// Store is the artifact side of a file record.
type Store interface {
	// Put writes r under key. An existing object is never replaced; Put
	// returns ErrExist instead.
	Put(ctx context.Context, key string, r io.Reader, size int64) error
	// Open returns the content and its size. Missing keys yield ErrNotExist.
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)
	// Move renames from to to. ErrNotExist if from is missing, ErrExist if
	// to is taken.
	Move(ctx context.Context, from, to string) error
	// Remove deletes one object. Missing keys yield ErrNotExist.
	Remove(ctx context.Context, key string) error
	// RemoveAll deletes everything under prefix. Missing prefixes are fine.
	RemoveAll(ctx context.Context, prefix string) error
	// MkdirAll provisions an empty prefix where the backend has directories.
	MkdirAll(ctx context.Context, prefix string) error
}

// New builds the store selected by cfg.BlobDriver.
func New(ctx context.Context, cfg common.Config) (Store, error) {
	switch cfg.BlobDriver {
	case common.BlobDriverLocal, "":
		return NewLocalStore(cfg.DataDir)
	case common.BlobDriverS3:
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.BlobDriver)
	}
}

// CleanKey validates a key and returns its canonical form. Keys are
// relative, slash separated and may not escape the root.
func CleanKey(key string) (string, error) {
	if key == "" || strings.ContainsRune(key, '\\') || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}
