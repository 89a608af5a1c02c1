// Package storage persists uploaded product images.
package storage

import (
	"context"
	"errors"
	"io"
	"mime"
	"path/filepath"
	"strings"
)

// Storage errors.
var (
	ErrNotFound    = errors.New("image not found")
	ErrInvalidName = errors.New("invalid image name")
)

// Object is an opened image. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// ImageStore saves and serves images by flat file name. The content type
// is always derived from the name's extension, never from the uploader.
type ImageStore interface {
	Save(ctx context.Context, name string, r io.Reader) error
	Open(ctx context.Context, name string) (*Object, error)
	// Ping reports whether the backing directory or bucket is reachable.
	Ping(ctx context.Context) error
}

// ValidateName rejects names that could escape the image namespace.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.HasPrefix(name, ".") ||
		strings.ContainsAny(name, `/\`) ||
		strings.Contains(name, "..") ||
		strings.ContainsRune(name, 0) {
		return ErrInvalidName
	}
	return nil
}

// contentTypeFor guesses a MIME type from the file extension.
func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
