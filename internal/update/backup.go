package update

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyFile copies src to dst atomically: write a temp file next to dst, then
// rename. The destination is never observable half-written, so a crash during
// backup or restore cannot corrupt either binary.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), DirPermissions); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	suffix, err := randomHex(8)
	if err != nil {
		return err
	}
	tmpPath := dst + ".tmp." + suffix
	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	out, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy: %w", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("failed to finalize copy: %w", err)
	}
	tmpPath = ""
	return nil
}

// BackupBinary snapshots the running executable into the backup slot.
func BackupBinary(execPath string, paths Paths) error {
	return CopyFile(execPath, paths.BackupFile)
}

// RestoreBackup puts the backed-up binary back over the install path.
func RestoreBackup(execPath string, paths Paths) error {
	return CopyFile(paths.BackupFile, execPath)
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random suffix: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
