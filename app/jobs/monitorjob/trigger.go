package monitorjob

import (
	"context"
	"time"

	"github.com/labstack/gommon/log"
)

// IntervalFunc returns the delay before the next pass. It is consulted
// after every pass, not once at startup.
type IntervalFunc func() time.Duration

// TriggerConfig contains the configurations for the trigger
type TriggerConfig struct {
	Interval IntervalFunc
}

// TriggerWithConfig runs fn with a fixed delay between completions. A
// slow pass pushes the next one out rather than stacking passes.
func TriggerWithConfig(ctx context.Context, fn func() error, config TriggerConfig) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(config.Interval()):
			if err := fn(); err != nil {
				log.Errorf("monitor pass failed: %v", err)
			}
		}
	}
}
