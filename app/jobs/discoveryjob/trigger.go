package discoveryjob

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/gommon/log"

	"posguard/internal/netguard"
)

// TriggerConfig contains the configurations for the trigger
type TriggerConfig struct {
	Interval time.Duration
}

// TriggerWithConfig runs the given function on every tick until the
// context is cancelled. A sweep that loses the guard to another network
// operation is not an error, the next tick will try again.
func TriggerWithConfig(ctx context.Context, fn func() error, config TriggerConfig) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(config.Interval):
			if err := fn(); err != nil {
				if errors.Is(err, netguard.ErrBusy) {
					log.Debugf("discovery sweep skipped: %v", err)
					continue
				}
				log.Errorf("discovery sweep failed: %v", err)
			}
		}
	}
}
