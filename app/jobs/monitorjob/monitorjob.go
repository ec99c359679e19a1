// Package monitorjob drives the recurring health pass over the device
// inventory. The delay between passes is read from the config store on
// every iteration so operator changes take effect without a restart.
package monitorjob

import (
	"context"
	"sync"
)

// MonitorService defines the interface for a single monitoring pass
type MonitorService interface {
	Pass(ctx context.Context) error
}

// TriggerFunc defines the interface for the trigger function
type TriggerFunc func(context.Context, func() error)

// MonitorJobConfig contains the configurations for the monitor job
type MonitorJobConfig struct {
	Trigger TriggerFunc
}

type monitorJob struct {
	config MonitorJobConfig
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a monitor job whose interval is supplied by intervalFn
func New(intervalFn IntervalFunc) *monitorJob {
	return NewWithConfig(MonitorJobConfig{
		Trigger: func(ctx context.Context, fn func() error) {
			TriggerWithConfig(ctx, fn, TriggerConfig{
				Interval: intervalFn,
			})
		},
	})
}

// NewWithConfig creates a monitor job with the given config
func NewWithConfig(config MonitorJobConfig) *monitorJob {
	return &monitorJob{
		config: config,
	}
}

// Register starts the monitor job for the given service
func (mj *monitorJob) Register(ctx context.Context, svc MonitorService) context.CancelFunc {
	ctx, cancel := context.WithCancel(ctx)
	mj.cancel = cancel

	mj.wg.Add(1)
	go func() {
		defer mj.wg.Done()
		mj.config.Trigger(ctx, func() error {
			return svc.Pass(ctx)
		})
	}()

	return cancel
}

// Shutdown stops the monitor job and waits for it to finish
func (mj *monitorJob) Shutdown() {
	if mj.cancel != nil {
		mj.cancel()
	}
	mj.wg.Wait()
}
