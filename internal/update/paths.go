// Package update holds the on-disk plumbing for the safe self-update
// protocol: backup and restore of the running binary, a stale-aware lock
// file, and the persisted update state used for post-mortem observability.
package update

import "path/filepath"

const (
	// DefaultBaseDir is where update artifacts live on the device.
	DefaultBaseDir = "/var/lib/posguard/updates"

	// DirPermissions restricts update directories to the owner.
	DirPermissions = 0o700

	// BinaryPermissions is the mode for installed binaries.
	BinaryPermissions = 0o755
)

// Paths resolves every file the update system touches under one base dir.
type Paths struct {
	BaseDir    string
	BackupFile string
	StagingDir string
	LockFile   string
	StateFile  string
}

func DefaultPaths() Paths {
	return NewPaths(DefaultBaseDir)
}

func NewPaths(baseDir string) Paths {
	return Paths{
		BaseDir:    baseDir,
		BackupFile: filepath.Join(baseDir, "backup", "posguard"),
		StagingDir: filepath.Join(baseDir, "staging"),
		LockFile:   filepath.Join(baseDir, "update.lock"),
		StateFile:  filepath.Join(baseDir, "state.json"),
	}
}
