package update

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Step names the phase an update run is in; the state file records the last
// step reached so a failure is diagnosable after the fact.
type Step string

const (
	StepBackup  Step = "Backup"
	StepFetch   Step = "Fetch"
	StepInstall Step = "InstallDependencies"
	StepVerify  Step = "Verify"
	StepCommit  Step = "Commit"

	StepRolledBack     Step = "RolledBack"
	StepRollbackFailed Step = "RollbackFailed"
)

// StateData is the update state persisted to disk.
type StateData struct {
	CommandID     string     `json:"command_id"`
	Step          Step       `json:"step"`
	SourceVersion string     `json:"source_version"`
	TargetVersion string     `json:"target_version"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Error         *string    `json:"error,omitempty"`
}

// StateWriter persists update progress atomically.
type StateWriter struct {
	statePath string
}

func NewStateWriter(statePath string) *StateWriter {
	return &StateWriter{statePath: statePath}
}

// Write persists the state via temp file + rename.
func (s *StateWriter) Write(data StateData) error {
	if err := os.MkdirAll(filepath.Dir(s.statePath), DirPermissions); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state data: %w", err)
	}

	suffix, err := randomHex(8)
	if err != nil {
		return err
	}
	tmpPath := s.statePath + ".tmp." + suffix
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := os.Rename(tmpPath, s.statePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename state file: %w", err)
	}
	return nil
}

// Read loads persisted state. A missing file yields zero-value state.
func (s *StateWriter) Read() (StateData, error) {
	content, err := os.ReadFile(s.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return StateData{}, nil
		}
		return StateData{}, fmt.Errorf("failed to read state file: %w", err)
	}

	var data StateData
	if err := json.Unmarshal(content, &data); err != nil {
		return StateData{}, fmt.Errorf("failed to parse state file: %w", err)
	}
	return data, nil
}
