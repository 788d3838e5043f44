package domain

import "path/filepath"

const (
	// KilnDirName is the name of the internal project directory.
	KilnDirName = ".kiln"

	// StoreDirName is the name of the snapshot store directory.
	StoreDirName = "store"

	// ProjectFileName is the name of the project configuration file.
	ProjectFileName = "kiln.yaml"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultStorePath returns the default path for the snapshot store.
// It joins .kiln and store.
func DefaultStorePath() string {
	return filepath.Join(KilnDirName, StoreDirName)
}
