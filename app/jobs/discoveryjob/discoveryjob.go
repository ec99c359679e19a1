// Package discoveryjob schedules periodic subnet sweeps.
package discoveryjob

import (
	"context"
	"sync"
	"time"
)

// DiscoveryService defines the interface for a subnet sweep
type DiscoveryService interface {
	Run(ctx context.Context) error
}

// TriggerFunc defines the interface for the trigger function
type TriggerFunc func(context.Context, func() error)

// DiscoveryJobConfig contains the configurations for the discovery job
type DiscoveryJobConfig struct {
	Trigger TriggerFunc
}

type discoveryJob struct {
	config DiscoveryJobConfig
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a discovery job with the default sweep interval
func New() *discoveryJob {
	return NewWithConfig(DiscoveryJobConfig{
		Trigger: func(ctx context.Context, fn func() error) {
			TriggerWithConfig(ctx, fn, TriggerConfig{
				Interval: 5 * time.Minute,
			})
		},
	})
}

// NewWithConfig creates a discovery job with the given config
func NewWithConfig(config DiscoveryJobConfig) *discoveryJob {
	return &discoveryJob{
		config: config,
	}
}

// Register starts the discovery job for the given service
func (dj *discoveryJob) Register(ctx context.Context, svc DiscoveryService) context.CancelFunc {
	ctx, cancel := context.WithCancel(ctx)
	dj.cancel = cancel

	dj.wg.Add(1)
	go func() {
		defer dj.wg.Done()
		dj.config.Trigger(ctx, func() error {
			return svc.Run(ctx)
		})
	}()

	return cancel
}

// Shutdown stops the discovery job and waits for it to finish
func (dj *discoveryJob) Shutdown() {
	if dj.cancel != nil {
		dj.cancel()
	}
	dj.wg.Wait()
}
