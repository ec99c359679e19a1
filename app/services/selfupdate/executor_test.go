package selfupdate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"posguard/internal/controlplane"
	"posguard/internal/update"
)

type MockUpdateOps struct {
	mock.Mock
}

func (m *MockUpdateOps) CheckUpdate(ctx context.Context, agentID, currentVersion string) (*controlplane.UpdateInfo, error) {
	args := m.Called(ctx, agentID, currentVersion)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*controlplane.UpdateInfo), args.Error(1)
}

type recordingRunner struct {
	cmds [][]string
	err  error
}

func (r *recordingRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	r.cmds = append(r.cmds, append([]string{name}, args...))
	return "", r.err
}

func elfBinary(pad int) []byte {
	return append([]byte{0x7f, 'E', 'L', 'F'}, make([]byte, pad)...)
}

func setupExecutor(t *testing.T, ops controlplane.UpdateOperations, runner *recordingRunner) (*ShellExecutor, string) {
	t.Helper()
	base := t.TempDir()
	execPath := filepath.Join(base, "bin", "posguard")
	if err := os.MkdirAll(filepath.Dir(execPath), 0o755); err != nil {
		t.Fatalf("failed to create bin dir: %v", err)
	}
	if err := os.WriteFile(execPath, elfBinary(64), 0o755); err != nil {
		t.Fatalf("failed to write running binary: %v", err)
	}
	exec := NewExecutor(ExecutorConfig{
		ControlPlane: ops,
		Runner:       runner,
		Paths:        update.NewPaths(filepath.Join(base, "updates")),
		ExecPath:     execPath,
		AgentID:      "b8:27:eb:00:00:01",
		RestartCmd:   "sudo systemctl restart posguard",
		StatFn:       func(string) (uint64, error) { return 1 << 30, nil },
	})
	return exec, execPath
}

func serveArtifact(t *testing.T, body []byte) (*httptest.Server, string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	sum := sha256.Sum256(body)
	return srv, hex.EncodeToString(sum[:])
}

// TestFetchLatest_DownloadsAndChecksums - a clean artifact lands in staging
func TestFetchLatest_DownloadsAndChecksums(t *testing.T) {
	body := elfBinary(128)
	srv, sum := serveArtifact(t, body)
	ops := new(MockUpdateOps)
	exec, _ := setupExecutor(t, ops, &recordingRunner{})
	ops.On("CheckUpdate", mock.Anything, "b8:27:eb:00:00:01", mock.Anything).Return(&controlplane.UpdateInfo{
		UpdateAvailable: true, TargetVersion: "1.2.0",
		AgentURL: srv.URL, AgentSHA256: sum, AgentSize: int64(len(body)),
	}, nil)

	err := exec.FetchLatest(context.Background())

	assert.NoError(t, err)
	staged, readErr := os.ReadFile(exec.stagedPath())
	assert.NoError(t, readErr)
	assert.Equal(t, body, staged)
}

// TestFetchLatest_ChecksumMismatch_RemovesArtifact - a corrupt download never survives staging
func TestFetchLatest_ChecksumMismatch_RemovesArtifact(t *testing.T) {
	srv, _ := serveArtifact(t, elfBinary(128))
	ops := new(MockUpdateOps)
	exec, _ := setupExecutor(t, ops, &recordingRunner{})
	ops.On("CheckUpdate", mock.Anything, mock.Anything, mock.Anything).Return(&controlplane.UpdateInfo{
		UpdateAvailable: true, AgentURL: srv.URL, AgentSHA256: "deadbeef", AgentSize: 132,
	}, nil)

	err := exec.FetchLatest(context.Background())

	assert.ErrorIs(t, err, ErrChecksumMismatch)
	_, statErr := os.Stat(exec.stagedPath())
	assert.True(t, os.IsNotExist(statErr))
}

// TestFetchLatest_NoUpdatePublished - the control plane saying no is an error, not a no-op
func TestFetchLatest_NoUpdatePublished(t *testing.T) {
	ops := new(MockUpdateOps)
	exec, _ := setupExecutor(t, ops, &recordingRunner{})
	ops.On("CheckUpdate", mock.Anything, mock.Anything, mock.Anything).Return(&controlplane.UpdateInfo{
		UpdateAvailable: false,
	}, nil)

	err := exec.FetchLatest(context.Background())

	assert.ErrorIs(t, err, ErrNoUpdate)
}

// TestFetchLatest_InsufficientDisk - the preflight rejects before downloading
func TestFetchLatest_InsufficientDisk(t *testing.T) {
	ops := new(MockUpdateOps)
	exec, _ := setupExecutor(t, ops, &recordingRunner{})
	exec.statFn = func(string) (uint64, error) { return 1024, nil }
	ops.On("CheckUpdate", mock.Anything, mock.Anything, mock.Anything).Return(&controlplane.UpdateInfo{
		UpdateAvailable: true, AgentURL: "http://unused", AgentSize: 1 << 20,
	}, nil)

	err := exec.FetchLatest(context.Background())

	assert.ErrorIs(t, err, ErrInsufficientDisk)
}

// TestBackupAndRollback_RoundTrip - rollback restores the exact pre-update binary
func TestBackupAndRollback_RoundTrip(t *testing.T) {
	exec, execPath := setupExecutor(t, new(MockUpdateOps), &recordingRunner{})
	original, _ := os.ReadFile(execPath)

	assert.NoError(t, exec.Backup(context.Background()))
	assert.NoError(t, os.WriteFile(execPath, []byte("broken"), 0o755))
	assert.NoError(t, exec.Rollback(context.Background()))

	restored, _ := os.ReadFile(execPath)
	assert.Equal(t, original, restored)
}

// TestInstallThenVerify_AcceptsValidBinary - a staged ELF of the stated size passes the gate
func TestInstallThenVerify_AcceptsValidBinary(t *testing.T) {
	exec, execPath := setupExecutor(t, new(MockUpdateOps), &recordingRunner{})
	body := elfBinary(256)
	assert.NoError(t, os.MkdirAll(exec.paths.StagingDir, 0o700))
	assert.NoError(t, os.WriteFile(exec.stagedPath(), body, 0o755))
	exec.staged = &controlplane.UpdateInfo{AgentSize: int64(len(body))}

	assert.NoError(t, exec.InstallDependencies(context.Background()))
	assert.NoError(t, exec.Verify(context.Background()))

	installed, _ := os.ReadFile(execPath)
	assert.Equal(t, body, installed)
}

// TestVerify_RejectsNonExecutable - wrong magic bytes fail the safety gate
func TestVerify_RejectsNonExecutable(t *testing.T) {
	exec, execPath := setupExecutor(t, new(MockUpdateOps), &recordingRunner{})
	assert.NoError(t, os.WriteFile(execPath, []byte("#!/bin/sh\necho hi\n"), 0o755))

	err := exec.Verify(context.Background())

	assert.ErrorIs(t, err, ErrNotExecutable)
}

// TestVerify_RejectsSizeMismatch - a truncated install fails the safety gate
func TestVerify_RejectsSizeMismatch(t *testing.T) {
	exec, _ := setupExecutor(t, new(MockUpdateOps), &recordingRunner{})
	exec.staged = &controlplane.UpdateInfo{AgentSize: 9999}

	err := exec.Verify(context.Background())

	assert.ErrorIs(t, err, ErrNotExecutable)
}

// TestRestart_ParsesSupervisorCommand - the restart command is tokenized, not shelled
func TestRestart_ParsesSupervisorCommand(t *testing.T) {
	runner := &recordingRunner{}
	exec, _ := setupExecutor(t, new(MockUpdateOps), runner)

	err := exec.Restart(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, [][]string{{"sudo", "systemctl", "restart", "posguard"}}, runner.cmds)
}
