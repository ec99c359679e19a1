package heartbeatjob

import (
	"context"
	"time"

	"github.com/labstack/gommon/log"
)

// TriggerConfig contains the configurations for the trigger
type TriggerConfig struct {
	Interval time.Duration
}

// TriggerWithConfig runs the given function on every tick until the
// context is cancelled
func TriggerWithConfig(ctx context.Context, fn func() error, config TriggerConfig) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(config.Interval):
			if err := fn(); err != nil {
				log.Errorf("heartbeat failed: %v", err)
			}
		}
	}
}
