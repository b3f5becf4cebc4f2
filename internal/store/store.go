// Package store implements the three-tier memory store and its durable
// blob backends.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrBlobNotFound is returned by LoadBlob when nothing was saved under a name.
var ErrBlobNotFound = errors.New("blob not found")

// Blob is one named, versioned persisted document.
type Blob struct {
	Name      string    `json:"name"`
	Version   int       `json:"version"`
	Data      []byte    `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Backend defines durable blob storage.
type Backend interface {
	// SaveBlob replaces the blob stored under b.Name.
	SaveBlob(ctx context.Context, b Blob) error

	// LoadBlob returns the blob stored under name, or ErrBlobNotFound.
	LoadBlob(ctx context.Context, name string) (*Blob, error)

	// ListBlobs returns every stored blob ordered by name.
	ListBlobs(ctx context.Context) ([]Blob, error)

	// Close closes the backend.
	Close() error
}

// RetrieveParams holds parameters for retrieving tier records.
type RetrieveParams struct {
	Kind   string // empty means all tiers
	Limit  int    // 0 means unlimited
	FromMS int64  // 0 means unbounded
	ToMS   int64  // 0 means unbounded
}

// SearchParams holds parameters for searching the persistent tier.
type SearchParams struct {
	Query string
	Kind  string // preference | pattern | learning, empty for all
	Limit int
}
