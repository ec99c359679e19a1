// Package updatejob periodically asks the control plane whether a newer
// agent build is published and runs the self-update protocol when one is.
// The whole job is only registered when self-update is enabled; command-driven
// updates do not go through here.
package updatejob

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"posguard/internal/controlplane"
	"posguard/version"
)

// Checker asks the control plane for the latest published build
type Checker interface {
	CheckUpdate(ctx context.Context, agentID, currentVersion string) (*controlplane.UpdateInfo, error)
}

// Updater runs the update protocol. Scheduled runs pass an empty command id.
type Updater interface {
	Run(ctx context.Context, commandID string) error
}

// TriggerFunc defines the interface for the trigger function
type TriggerFunc func(context.Context, func() error)

// UpdateJobConfig contains the configurations for the update check job
type UpdateJobConfig struct {
	Trigger TriggerFunc
}

type updateJob struct {
	config  UpdateJobConfig
	agentID string
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates an update check job running at the given interval
func New(agentID string, interval time.Duration) *updateJob {
	return NewWithConfig(agentID, UpdateJobConfig{
		Trigger: func(ctx context.Context, fn func() error) {
			TriggerWithConfig(ctx, fn, TriggerConfig{
				Interval: interval,
			})
		},
	})
}

// NewWithConfig creates an update check job with the given config
func NewWithConfig(agentID string, config UpdateJobConfig) *updateJob {
	return &updateJob{
		config:  config,
		agentID: agentID,
	}
}

// Register starts the update check job against the given dependencies
func (uj *updateJob) Register(ctx context.Context, checker Checker, updater Updater) context.CancelFunc {
	ctx, cancel := context.WithCancel(ctx)
	uj.cancel = cancel

	uj.wg.Add(1)
	go func() {
		defer uj.wg.Done()
		uj.config.Trigger(ctx, func() error {
			return uj.check(ctx, checker, updater)
		})
	}()

	return cancel
}

// Shutdown stops the update check job and waits for it to finish
func (uj *updateJob) Shutdown() {
	if uj.cancel != nil {
		uj.cancel()
	}
	uj.wg.Wait()
}

func (uj *updateJob) check(ctx context.Context, checker Checker, updater Updater) error {
	info, err := checker.CheckUpdate(ctx, uj.agentID, version.Version)
	if err != nil {
		return err
	}
	if !info.UpdateAvailable {
		return nil
	}

	logrus.WithField("target_version", info.TargetVersion).Info("newer build published, starting self-update")
	return updater.Run(ctx, "")
}
