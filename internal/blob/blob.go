// Package blob stores video assets in a flat, publicly readable namespace.
package blob

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrExists is returned by Upload when the name is already taken.
	ErrExists = errors.New("blob already exists")
	// ErrInvalidName is returned for names that are empty or contain path elements.
	ErrInvalidName = errors.New("invalid blob name")
)

// Object describes a blob that was just written.
type Object struct {
	Name     string
	Location string
	Size     int64
	// Digest is the hex BLAKE3 hash of the content.
	Digest string
}

// Descriptor describes a stored blob.
type Descriptor struct {
	Name     string    `json:"name"`
	Location string    `json:"location"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"modTime"`
}

// Error wraps a failure from the blob backend.
type Error struct {
	Op   string
	Name string
	Err  error
}

func (e *Error) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("blob %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("blob %s %q: %v", e.Op, e.Name, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
