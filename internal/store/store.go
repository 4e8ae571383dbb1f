package store

import "context"

// Store is the durable slot holding the serialized queue snapshot.
type Store interface {
	// Load returns the last saved snapshot. The boolean reports whether a
	// snapshot exists; a missing snapshot is not an error.
	Load(ctx context.Context) ([]byte, bool, error)
	// Save durably replaces the snapshot.
	Save(ctx context.Context, snapshot []byte) error
	Close() error
}
