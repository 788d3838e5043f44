package ports

import "go.trai.ch/kiln/internal/core/domain"

// SnapshotStore defines the interface for persisting node cache snapshots.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type SnapshotStore interface {
	// Get retrieves the snapshot of a node from the store at dir.
	// Returns nil, nil if not found.
	Get(dir, node string) (*domain.NodeSnapshot, error)

	// Put stores the snapshot in the store at dir.
	Put(dir string, snap domain.NodeSnapshot) error
}
