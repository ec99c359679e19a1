package update

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var (
	// ErrLockBusy means another update run holds the lock and it has not expired.
	ErrLockBusy = errors.New("update lock held by another run")
)

// LockData is the JSON stored inside the lock file.
type LockData struct {
	PID      int   `json:"pid"`
	ExpireAt int64 `json:"expire_at"`
}

// LockManager coordinates at-most-one update run via an exclusively-created
// lock file. A lock whose expiry has passed is treated as stale and stolen;
// expiry rather than PID liveness keeps this correct across reboots.
type LockManager struct {
	lockPath string
	nowFn    func() time.Time
}

type LockConfig struct {
	LockPath string
	NowFn    func() time.Time
}

func NewLockManager(cfg LockConfig) *LockManager {
	nowFn := cfg.NowFn
	if nowFn == nil {
		nowFn = time.Now
	}
	return &LockManager{lockPath: cfg.LockPath, nowFn: nowFn}
}

// TryLock acquires the lock with the given expiry. Returns ErrLockBusy when a
// live lock exists.
func (l *LockManager) TryLock(expiration time.Duration) error {
	if err := os.MkdirAll(filepath.Dir(l.lockPath), DirPermissions); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	data := LockData{
		PID:      os.Getpid(),
		ExpireAt: l.nowFn().Add(expiration).Unix(),
	}
	content, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal lock data: %w", err)
	}

	f, err := os.OpenFile(l.lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err == nil {
		_, werr := f.Write(content)
		f.Close()
		if werr != nil {
			os.Remove(l.lockPath)
			return fmt.Errorf("failed to write lock file: %w", werr)
		}
		return nil
	}
	if !os.IsExist(err) {
		return fmt.Errorf("failed to create lock: %w", err)
	}

	stale, err := l.isStale()
	if err != nil {
		stale = true // corrupt lock files are treated as stale
	}
	if !stale {
		return ErrLockBusy
	}

	if err := os.Remove(l.lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale lock: %w", err)
	}
	return l.TryLock(expiration)
}

// Unlock releases the lock. Missing lock files are not an error.
func (l *LockManager) Unlock() error {
	if err := os.Remove(l.lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock: %w", err)
	}
	return nil
}

func (l *LockManager) isStale() (bool, error) {
	content, err := os.ReadFile(l.lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}
	var data LockData
	if err := json.Unmarshal(content, &data); err != nil {
		return false, err
	}
	return l.nowFn().Unix() > data.ExpireAt, nil
}
