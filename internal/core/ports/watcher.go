package ports

import (
	"context"
	"iter"
)

// WatchOp is a file system operation observed by a Watcher.
type WatchOp int

const (
	// OpWrite indicates the file was written.
	OpWrite WatchOp = iota
	// OpCreate indicates the file was created, which includes editors that save by rename.
	OpCreate
	// OpRemove indicates the file was removed.
	OpRemove
	// OpRename indicates the file was renamed.
	OpRename
)

// WatchEvent is a change to a watched file.
type WatchEvent struct {
	Path      string
	Operation WatchOp
}

// Watcher observes a project file for changes.
//
//go:generate mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Start begins watching path until ctx is done.
	Start(ctx context.Context, path string) error
	// Stop releases the watcher.
	Stop() error
	// Events yields events for the watched path.
	Events() iter.Seq[WatchEvent]
}
