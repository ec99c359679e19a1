package heartbeatjob

import (
	"context"
	"sync"
	"time"
)

// HeartbeatService defines the interface for the heartbeat operation
type HeartbeatService interface {
	Send() error
}

// TriggerFunc defines the interface for the trigger function
type TriggerFunc func(context.Context, func() error)

// HeartbeatJobConfig contains the configurations for the heartbeat job
type HeartbeatJobConfig struct {
	Trigger TriggerFunc
}

type heartbeatJob struct {
	config HeartbeatJobConfig
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a heartbeat job with the default trigger interval
func New() *heartbeatJob {
	return NewWithConfig(HeartbeatJobConfig{
		Trigger: func(ctx context.Context, fn func() error) {
			TriggerWithConfig(ctx, fn, TriggerConfig{
				Interval: 3 * time.Minute,
			})
		},
	})
}

// NewWithConfig creates a heartbeat job with the given config
func NewWithConfig(config HeartbeatJobConfig) *heartbeatJob {
	return &heartbeatJob{
		config: config,
	}
}

// Register starts the heartbeat job for the given service
func (hj *heartbeatJob) Register(ctx context.Context, svc HeartbeatService) context.CancelFunc {
	ctx, cancel := context.WithCancel(ctx)
	hj.cancel = cancel

	hj.wg.Add(1)
	go func() {
		defer hj.wg.Done()
		hj.config.Trigger(ctx, func() error {
			return svc.Send()
		})
	}()

	return cancel
}

// Shutdown stops the heartbeat job and waits for it to finish
func (hj *heartbeatJob) Shutdown() {
	if hj.cancel != nil {
		hj.cancel()
	}
	hj.wg.Wait()
}
