// Package store persists index snapshots. The snapshot bytes themselves
// come from the index package's codec; stores only move opaque blobs.
package store

import "context"

// SnapshotStore saves and loads one snapshot blob.
type SnapshotStore interface {
	Save(ctx context.Context, data []byte) error
	Load(ctx context.Context) ([]byte, error)
}
