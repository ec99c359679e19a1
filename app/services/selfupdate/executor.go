package selfupdate

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	shellwords "github.com/mattn/go-shellwords"
	"golang.org/x/sys/unix"

	"posguard/internal/cmdexec"
	"posguard/internal/controlplane"
	"posguard/internal/update"
	"posguard/version"
)

const (
	// diskSpaceBuffer is required beyond the artifact size itself.
	diskSpaceBuffer = 10 * 1024 * 1024

	stagedBinaryName = "posguard.new"
)

var (
	ErrNoUpdate         = errors.New("no update available")
	ErrChecksumMismatch = errors.New("SHA256 checksum mismatch")
	ErrInsufficientDisk = errors.New("not enough free disk space for update")
	ErrNotExecutable    = errors.New("installed binary is not a valid executable")
)

var elfMagic = []byte{0x7f, 'E', 'L', 'F'}

// StatFunc returns available bytes for a path.
type StatFunc func(path string) (uint64, error)

// ShellExecutor is the production Executor: it backs up the running binary,
// downloads the published build, installs it over the exec path and verifies
// the result before the orchestrator commits.
type ShellExecutor struct {
	controlplane controlplane.UpdateOperations
	client       *http.Client
	runner       cmdexec.Runner
	paths        update.Paths
	execPath     string
	agentID      string
	restartCmd   string
	statFn       StatFunc

	staged *controlplane.UpdateInfo
}

type ExecutorConfig struct {
	ControlPlane controlplane.UpdateOperations
	Client       *http.Client
	Runner       cmdexec.Runner
	Paths        update.Paths
	ExecPath     string
	AgentID      string
	RestartCmd   string
	StatFn       StatFunc
}

func NewExecutor(cfg ExecutorConfig) *ShellExecutor {
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	if cfg.StatFn == nil {
		cfg.StatFn = availableBytes
	}
	if cfg.RestartCmd == "" {
		cfg.RestartCmd = "sudo systemctl restart posguard"
	}
	return &ShellExecutor{
		controlplane: cfg.ControlPlane,
		client:       cfg.Client,
		runner:       cfg.Runner,
		paths:        cfg.Paths,
		execPath:     cfg.ExecPath,
		agentID:      cfg.AgentID,
		restartCmd:   cfg.RestartCmd,
		statFn:       cfg.StatFn,
	}
}

func availableBytes(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

func (e *ShellExecutor) stagedPath() string {
	return filepath.Join(e.paths.StagingDir, stagedBinaryName)
}

func (e *ShellExecutor) Backup(ctx context.Context) error {
	return update.BackupBinary(e.execPath, e.paths)
}

// FetchLatest resolves the published build, checks disk headroom, then
// downloads into staging with the checksum computed on the way through.
func (e *ShellExecutor) FetchLatest(ctx context.Context) error {
	info, err := e.controlplane.CheckUpdate(ctx, e.agentID, version.Version)
	if err != nil {
		return fmt.Errorf("update check failed: %w", err)
	}
	if !info.UpdateAvailable {
		return ErrNoUpdate
	}

	if err := os.MkdirAll(e.paths.StagingDir, update.DirPermissions); err != nil {
		return fmt.Errorf("failed to create staging dir: %w", err)
	}

	avail, err := e.statFn(e.paths.BaseDir)
	if err != nil {
		return fmt.Errorf("failed to stat update dir: %w", err)
	}
	if need := uint64(info.AgentSize) + diskSpaceBuffer; avail < need {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrInsufficientDisk, need, avail)
	}

	sum, err := e.download(ctx, info.AgentURL, e.stagedPath())
	if err != nil {
		return err
	}
	if info.AgentSHA256 != "" && sum != info.AgentSHA256 {
		os.Remove(e.stagedPath())
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, info.AgentSHA256, sum)
	}

	e.staged = info
	return nil
}

func (e *ShellExecutor) download(ctx context.Context, url, dest string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed: status %d", resp.StatusCode)
	}

	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, update.BinaryPermissions)
	if err != nil {
		return "", fmt.Errorf("failed to create staging file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(f, h), resp.Body); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("download interrupted: %w", err)
	}
	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("failed to sync staging file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// InstallDependencies places the staged build over the exec path. The agent
// ships as a single static binary, so installing the artifact is the whole
// dependency set.
func (e *ShellExecutor) InstallDependencies(ctx context.Context) error {
	staged := e.stagedPath()
	if _, err := os.Stat(staged); err != nil {
		return fmt.Errorf("no staged binary to install: %w", err)
	}
	if err := update.CopyFile(staged, e.execPath); err != nil {
		return fmt.Errorf("failed to install staged binary: %w", err)
	}
	if err := os.Chmod(e.execPath, update.BinaryPermissions); err != nil {
		return fmt.Errorf("failed to mark binary executable: %w", err)
	}
	return nil
}

// Verify statically checks the installed file without executing it: right
// magic bytes and, when the control plane stated one, the exact size.
func (e *ShellExecutor) Verify(ctx context.Context) error {
	f, err := os.Open(e.execPath)
	if err != nil {
		return fmt.Errorf("failed to open installed binary: %w", err)
	}
	defer f.Close()

	magic := make([]byte, len(elfMagic))
	if _, err := io.ReadFull(f, magic); err != nil {
		return fmt.Errorf("%w: %v", ErrNotExecutable, err)
	}
	if !bytes.Equal(magic, elfMagic) {
		return fmt.Errorf("%w: bad magic bytes", ErrNotExecutable)
	}

	if e.staged != nil && e.staged.AgentSize > 0 {
		fi, err := f.Stat()
		if err != nil {
			return fmt.Errorf("failed to stat installed binary: %w", err)
		}
		if fi.Size() != e.staged.AgentSize {
			return fmt.Errorf("%w: size %d, expected %d", ErrNotExecutable, fi.Size(), e.staged.AgentSize)
		}
	}
	return nil
}

// Restart hands the process over to the supervisor.
func (e *ShellExecutor) Restart(ctx context.Context) error {
	argv, err := shellwords.Parse(e.restartCmd)
	if err != nil || len(argv) == 0 {
		return fmt.Errorf("invalid restart command %q: %v", e.restartCmd, err)
	}
	if _, err := e.runner.Run(ctx, argv[0], argv[1:]...); err != nil {
		return fmt.Errorf("restart command failed: %w", err)
	}
	return nil
}

func (e *ShellExecutor) Rollback(ctx context.Context) error {
	if err := update.RestoreBackup(e.execPath, e.paths); err != nil {
		return fmt.Errorf("failed to restore backup: %w", err)
	}
	return nil
}
