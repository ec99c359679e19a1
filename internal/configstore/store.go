// Package configstore persists the agent's config and device inventory as a
// single JSON file with crash-safe writes: marshal to a temp file, fsync, then
// atomically rename over the real file. The rename is the only operation that
// changes what a reader can observe.
package configstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"posguard/domain/device"
)

const (
	configFilename = "config.json"
	legacyFilename = "devices.json"
)

// Store owns the in-memory Config and its on-disk representation. All
// mutation goes through Mutate so reads always see a consistent snapshot.
type Store struct {
	mu      sync.RWMutex
	dataDir string
	cfg     Config
	nowFn   func() time.Time
}

func New(dataDir string) *Store {
	return &Store{
		dataDir: dataDir,
		cfg:     Defaults(),
		nowFn:   time.Now,
	}
}

func (s *Store) configPath() string {
	return filepath.Join(s.dataDir, configFilename)
}

func (s *Store) legacyPath() string {
	return filepath.Join(s.dataDir, legacyFilename)
}

// Load reads the config file, overlaying it field-by-field on defaults. A
// corrupt file is quarantined with a timestamped suffix and replaced with a
// fresh default config. When only the legacy flat device list exists it is
// migrated into the new schema and removed.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	data, err := os.ReadFile(s.configPath())
	switch {
	case err == nil:
		cfg := Defaults()
		if jsonErr := json.Unmarshal(data, &cfg); jsonErr != nil {
			log.Errorf("config file corrupt, quarantining and reinitializing: %v", jsonErr)
			quarantine := fmt.Sprintf("%s.corrupt.%d", s.configPath(), s.nowFn().Unix())
			if renameErr := os.Rename(s.configPath(), quarantine); renameErr != nil {
				log.Errorf("failed to quarantine corrupt config: %v", renameErr)
			}
			s.cfg = Defaults()
			return s.saveLocked()
		}
		cfg.Meta.Version = SchemaVersion
		cfg.normalize()
		s.cfg = cfg
		log.Infof("loaded config with %d devices", len(s.cfg.Devices))
		return nil

	case os.IsNotExist(err):
		if _, statErr := os.Stat(s.legacyPath()); statErr == nil {
			return s.migrateLegacyLocked()
		}
		s.cfg = Defaults()
		return s.saveLocked()

	default:
		return fmt.Errorf("failed to read config: %w", err)
	}
}

// Snapshot returns a deep copy of the current config.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

func (s *Store) copyLocked() Config {
	cp := s.cfg
	cp.Devices = make([]device.Device, len(s.cfg.Devices))
	copy(cp.Devices, s.cfg.Devices)
	return cp
}

// Mutate applies fn under the write lock. When fn reports a change the config
// is saved once, atomically. This is the batched-write path every component
// uses: one pass, at most one write.
func (s *Store) Mutate(fn func(*Config) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !fn(&s.cfg) {
		return nil
	}
	return s.saveLocked()
}

// Save forces a write of the current state.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpPath := s.configPath() + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open temp config: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp config: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp config: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp config: %w", err)
	}

	if err := os.Rename(tmpPath, s.configPath()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to publish config: %w", err)
	}
	return nil
}
