// Package storage holds the local filesystem backend for uploaded file
// contents and the helpers shared with the object-storage backend.
package storage

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"tempfiles-api/internal/domain/resource"
)

const (
	dataDir   = "data"
	probeName = ".probe"
)

var (
	ErrNotFound    = errors.New("stored file not found")
	ErrInvalidName = errors.New("invalid stored file name")
	ErrProbeFailed = errors.New("storage probe failed")
)

// ValidateName rejects names that could escape the resource directory.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// ObjectPrefix is the key prefix of every object that belongs to id.
func ObjectPrefix(id resource.ID) string {
	return id.String() + "/"
}

// ObjectKey is "<id>/data/<name>", the same layout the local backend uses on disk.
func ObjectKey(id resource.ID, name string) string {
	return path.Join(id.String(), dataDir, name)
}

// DataPrefix is the key prefix of the file contents of id.
func DataPrefix(id resource.ID) string {
	return path.Join(id.String(), dataDir) + "/"
}
