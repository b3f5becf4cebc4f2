// Package ident generates opaque identifiers for memory records and messages.
package ident

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/rcliao/desk-memory/internal/clock"
)

// Generator produces collision-resistant identifiers.
type Generator interface {
	NewID() string
}

// ULID generates lexically sortable identifiers from the injected clock.
type ULID struct {
	mu      sync.Mutex
	clock   clock.Clock
	entropy *ulid.MonotonicEntropy
}

// NewULID returns a ULID generator. A nil clock uses the system clock.
func NewULID(c clock.Clock) *ULID {
	c = clock.OrReal(c)
	return &ULID{
		clock:   c,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(c.Now().UnixNano())), 0),
	}
}

func (g *ULID) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.clock.Now()), g.entropy).String()
}

// UUID generates random (v4) identifiers.
type UUID struct{}

func (UUID) NewID() string { return uuid.NewString() }

// ForScheme returns the generator named by scheme ("ulid" or "uuid").
func ForScheme(scheme string, c clock.Clock) (Generator, error) {
	switch scheme {
	case "", "ulid":
		return NewULID(c), nil
	case "uuid":
		return UUID{}, nil
	default:
		return nil, fmt.Errorf("unknown id scheme %q (valid: ulid, uuid)", scheme)
	}
}
