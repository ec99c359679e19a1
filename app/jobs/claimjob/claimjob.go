// Package claimjob runs the static address claim once at boot, retrying
// with backoff until a slot is secured. ARP probing is unreliable while
// the link is still coming up, so early failures are expected.
package claimjob

import (
	"context"

	"github.com/labstack/gommon/log"
)

// TriggerFunc defines the interface for the retry strategy
type TriggerFunc func(func() error)

// Claimer secures a static address for this agent
type Claimer interface {
	Claim(ctx context.Context) (string, error)
}

// Job is the boot-time address claim job
type Job struct {
	trigger TriggerFunc
	claimer Claimer
}

// Config contains the configurations for the claim job
type Config struct {
	Claimer Claimer
	Trigger TriggerFunc
}

// New creates a claim job with the default retry strategy
func New(claimer Claimer) *Job {
	return NewWithConfig(&Config{
		Claimer: claimer,
		Trigger: Trigger,
	})
}

// NewWithConfig creates a claim job with the given config
func NewWithConfig(cfg *Config) *Job {
	if cfg.Trigger == nil {
		cfg.Trigger = Trigger
	}

	return &Job{
		trigger: cfg.Trigger,
		claimer: cfg.Claimer,
	}
}

// Register starts the claim attempt in the background
func (j *Job) Register(ctx context.Context) {
	go j.trigger(func() error {
		ip, err := j.claimer.Claim(ctx)
		if err != nil {
			log.Errorf("Address claim failed: %v", err)
			return err
		}

		log.Infof("Static address secured: %s", ip)
		return nil
	})
}
