// Package storage publishes and fetches request documents on content-addressed storage.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no document exists for an id
	ErrNotFound = errors.New("document not found")

	// ErrUnavailable is returned when the storage backend cannot be reached
	ErrUnavailable = errors.New("storage unavailable")
)

// Store is a content-addressed document store. Publishing returns the id the
// document can later be fetched by.
type Store interface {
	Publish(ctx context.Context, data []byte) (string, error)
	Fetch(ctx context.Context, id string) ([]byte, error)
}
