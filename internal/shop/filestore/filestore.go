// Package filestore keeps user-uploaded files (avatars) in a local directory
// or an S3-compatible bucket.
package filestore

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
)

// ErrInvalidKey is returned for object keys that are empty or would escape
// the store's namespace.
var ErrInvalidKey = errors.New("filestore: invalid key")

//go:embed assets/default.png
var defaultAvatar []byte

// FileStore is the object storage the avatar flow writes to.
type FileStore interface {
	// Put stores body under key, replacing any existing object.
	Put(ctx context.Context, key string, body []byte, contentType string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Exists(ctx context.Context, key string) (bool, error)

	// URL is the absolute URL clients fetch key from.
	URL(key string) string
}

// EnsureObject uploads data under key unless an object is already there.
func EnsureObject(ctx context.Context, fs FileStore, key string, data []byte, contentType string) error {
	ok, err := fs.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check %s: %w", key, err)
	}
	if ok {
		return nil
	}
	return fs.Put(ctx, key, data, contentType)
}

// EnsureDefaultAvatar seeds the bundled default avatar under key.
func EnsureDefaultAvatar(ctx context.Context, fs FileStore, key string) error {
	return EnsureObject(ctx, fs, key, bytes.Clone(defaultAvatar), "image/png")
}
