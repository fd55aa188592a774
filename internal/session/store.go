// Package session persists dialogue snapshots between HTTP requests so a
// clarification dialogue can resume across calls (and, with the Redis
// backend, across restarts). It stores opaque bytes; the dialogue package
// owns the snapshot shape.
package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no snapshot exists for a session id.
var ErrNotFound = errors.New("session: not found")

// Store persists one serialized snapshot per session id.
type Store interface {
	Put(ctx context.Context, id string, data []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}
