// Package selfupdate orchestrates the five-step safe update protocol:
// Backup, Fetch, InstallDependencies, Verify, Commit. A failure in steps 2-4
// rolls the binary back; a failed update always leaves the previous binary
// running. The process only ever restarts through step 5's explicit path.
package selfupdate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"posguard/domain/command"
	"posguard/domain/statuslog"
	"posguard/internal/update"
	"posguard/version"
)

const (
	lockExpiry   = 30 * time.Minute
	restartDelay = 2 * time.Second
)

// ErrDisabled is returned when the operator has switched self-update off.
var ErrDisabled = errors.New("self-update disabled by operator")

// Executor is the OS-level collaborator performing each update step.
type Executor interface {
	Backup(ctx context.Context) error
	FetchLatest(ctx context.Context) error
	InstallDependencies(ctx context.Context) error
	Verify(ctx context.Context) error
	Restart(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// StatusReporter ships interim and terminal command status upstream.
type StatusReporter interface {
	UpdateCommandStatus(ctx context.Context, id string, status command.Status, result string) error
}

type Locker interface {
	TryLock(expiration time.Duration) error
	Unlock() error
}

type StateRecorder interface {
	Write(data update.StateData) error
}

type Service interface {
	Run(ctx context.Context, commandID string) error
}

type updateService struct {
	executor  Executor
	reporter  StatusReporter
	lock      Locker
	state     StateRecorder
	journal   statuslog.Repository
	enabledFn func() bool
	sleepFn   func(time.Duration)
	nowFn     func() time.Time
}

func NewWithDependencies(
	executor Executor,
	reporter StatusReporter,
	lock Locker,
	state StateRecorder,
	journal statuslog.Repository,
	enabled func() bool,
) *updateService {
	if enabled == nil {
		enabled = func() bool { return true }
	}
	return &updateService{
		executor:  executor,
		reporter:  reporter,
		lock:      lock,
		state:     state,
		journal:   journal,
		enabledFn: enabled,
		sleepFn:   time.Sleep,
		nowFn:     time.Now,
	}
}

// Run executes the protocol for one UPDATE_AGENT command and owns its
// terminal status.
func (s *updateService) Run(ctx context.Context, commandID string) error {
	if !s.enabledFn() {
		logrus.Warn("update requested but self-update is disabled")
		s.finish(ctx, commandID, command.StatusFailed, ErrDisabled.Error())
		return ErrDisabled
	}

	if err := s.lock.TryLock(lockExpiry); err != nil {
		s.reportStatus(ctx, commandID, command.StatusFailed, "update already in progress")
		return err
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			logrus.WithError(err).Warn("failed to release update lock")
		}
	}()

	started := s.nowFn()

	steps := []struct {
		n    int
		step update.Step
		fn   func(context.Context) error
	}{
		{1, update.StepBackup, s.executor.Backup},
		{2, update.StepFetch, s.executor.FetchLatest},
		{3, update.StepInstall, s.executor.InstallDependencies},
		{4, update.StepVerify, s.executor.Verify},
	}

	for _, st := range steps {
		s.reportStatus(ctx, commandID, command.StatusProcessing, fmt.Sprintf("Step %d/5: %s", st.n, st.step))
		s.recordState(commandID, st.step, started, nil)

		err := st.fn(ctx)
		if err == nil {
			continue
		}

		stepErr := fmt.Errorf("%s failed: %w", st.step, err)
		if st.step == update.StepBackup {
			// nothing was touched yet, no rollback needed
			s.recordState(commandID, st.step, started, stepErr)
			s.finish(ctx, commandID, command.StatusFailed, stepErr.Error())
			return stepErr
		}
		return s.rollback(ctx, commandID, started, stepErr)
	}

	s.reportStatus(ctx, commandID, command.StatusProcessing, "Step 5/5: Commit")
	s.recordState(commandID, update.StepCommit, started, nil)

	// report success before restarting so the terminal status is durably
	// observed even though this process is about to exit
	s.finish(ctx, commandID, command.StatusSuccess, fmt.Sprintf("updated from %s, restarting", version.Version))
	s.sleepFn(restartDelay)

	if err := s.executor.Restart(ctx); err != nil {
		logrus.WithError(err).Error("restart after committed update failed")
		return fmt.Errorf("restart failed: %w", err)
	}
	return nil
}

func (s *updateService) rollback(ctx context.Context, commandID string, started time.Time, stepErr error) error {
	logrus.WithError(stepErr).Warn("update step failed, rolling back")

	if rbErr := s.executor.Rollback(ctx); rbErr != nil {
		s.recordState(commandID, update.StepRollbackFailed, started, rbErr)
		logrus.WithFields(logrus.Fields{
			"step_error":     stepErr.Error(),
			"rollback_error": rbErr.Error(),
		}).Error("CRITICAL: rollback failed, binary state unresolved, operator intervention required")
		s.finish(ctx, commandID, command.StatusFailed,
			fmt.Sprintf("%s; rollback also failed: %s", stepErr.Error(), rbErr.Error()))
		return fmt.Errorf("rollback failed after %w: %v", stepErr, rbErr)
	}

	s.recordState(commandID, update.StepRolledBack, started, stepErr)
	s.finish(ctx, commandID, command.StatusFailed, stepErr.Error())
	return stepErr
}

// finish reports the terminal status and journals the outcome.
func (s *updateService) finish(ctx context.Context, commandID string, status command.Status, result string) {
	s.reportStatus(ctx, commandID, status, result)
	if s.journal != nil {
		raw, _ := json.Marshal(map[string]string{
			"command_id": commandID,
			"status":     string(status),
			"result":     result,
		})
		if err := s.journal.Append(ctx, &statuslog.Entry{EventType: statuslog.EventUpdate, Details: string(raw)}); err != nil {
			logrus.WithError(err).Warn("failed to journal update outcome")
		}
	}
}

// reportStatus is best-effort; a dead uplink never aborts an update step.
// Scheduled runs carry no command id and report nothing upstream.
func (s *updateService) reportStatus(ctx context.Context, commandID string, status command.Status, result string) {
	if commandID == "" {
		return
	}
	if err := s.reporter.UpdateCommandStatus(ctx, commandID, status, result); err != nil {
		logrus.WithError(err).WithField("command", commandID).Warn("failed to report update progress")
	}
}

func (s *updateService) recordState(commandID string, step update.Step, started time.Time, stepErr error) {
	data := update.StateData{
		CommandID:     commandID,
		Step:          step,
		SourceVersion: version.Version,
		StartedAt:     started,
	}
	if stepErr != nil {
		msg := stepErr.Error()
		data.Error = &msg
		now := s.nowFn()
		data.CompletedAt = &now
	}
	if err := s.state.Write(data); err != nil {
		logrus.WithError(err).Warn("failed to persist update state")
	}
}
