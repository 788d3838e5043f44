// Package cas stores node snapshots as one JSON file per node.
package cas

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// Store implements ports.SnapshotStore using a file-per-node strategy.
// Files are named by the xxhash of the node id, so any id maps to a safe file name.
type Store struct{}

// NewStore creates a new Store.
func NewStore() *Store {
	return &Store{}
}

// Get retrieves the snapshot of node from the store at dir.
func (s *Store) Get(dir, node string) (*domain.NodeSnapshot, error) {
	filename := s.getFilename(dir, node)
	//nolint:gosec // Path is constructed from the configured store directory and a hashed file name
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "node", node)
	}

	var snap domain.NodeSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreUnmarshalFailed.Error()), "node", node)
	}
	return &snap, nil
}

// Put stores the snapshot in the store at dir.
func (s *Store) Put(dir string, snap domain.NodeSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error()), "node", snap.Node)
	}

	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreCreateFailed.Error()), "dir", dir)
	}

	// Write then rename so readers never see a partial snapshot.
	filename := s.getFilename(dir, snap.Node)
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "node", snap.Node)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "node", snap.Node)
	}
	if err := tmp.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "node", snap.Node)
	}
	if err := os.Chmod(tmp.Name(), domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "node", snap.Node)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "node", snap.Node)
	}
	return nil
}

func (s *Store) getFilename(dir, node string) string {
	return filepath.Join(dir, fmt.Sprintf("%016x.json", xxhash.Sum64String(node)))
}
