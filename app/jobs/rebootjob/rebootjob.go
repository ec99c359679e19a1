// Package rebootjob fires the scheduled daily reboot. The schedule is
// evaluated once a minute in its own timezone, and a due reboot is
// refused while the device is still settling after boot or while a
// dashboard session is watching it.
package rebootjob

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"posguard/domain/statuslog"
	"posguard/internal/cmdexec"
	"posguard/internal/configstore"
)

// minUptime is how long the device must have been up before a scheduled
// reboot is honored. Guards against reboot loops when the schedule time
// lands just after boot.
const minUptime = time.Hour

// ConfigReader exposes the current reboot schedule
type ConfigReader interface {
	Snapshot() configstore.Config
}

// ClientCounter reports connected dashboard sessions
type ClientCounter interface {
	ClientCount() int
}

// UptimeFunc reports how long the host has been up
type UptimeFunc func() (time.Duration, error)

// TriggerFunc defines the interface for the trigger function
type TriggerFunc func(context.Context, func() error)

// RebootJobConfig contains the configurations for the reboot job
type RebootJobConfig struct {
	Trigger TriggerFunc
	Uptime  UptimeFunc
	NowFunc func() time.Time
}

type rebootJob struct {
	config    RebootJobConfig
	store     ConfigReader
	clients   ClientCounter
	journal   statuslog.Repository
	runner    cmdexec.Runner
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	lastFired string
}

// New creates a reboot job that checks the schedule once a minute
func New(uptime UptimeFunc) *rebootJob {
	return NewWithConfig(RebootJobConfig{
		Trigger: func(ctx context.Context, fn func() error) {
			TriggerWithConfig(ctx, fn, TriggerConfig{
				Interval: time.Minute,
			})
		},
		Uptime:  uptime,
		NowFunc: time.Now,
	})
}

// NewWithConfig creates a reboot job with the given config
func NewWithConfig(config RebootJobConfig) *rebootJob {
	if config.NowFunc == nil {
		config.NowFunc = time.Now
	}
	return &rebootJob{
		config: config,
	}
}

// Register starts the reboot job against the given dependencies
func (rj *rebootJob) Register(ctx context.Context, store ConfigReader, clients ClientCounter, journal statuslog.Repository, runner cmdexec.Runner) context.CancelFunc {
	rj.store = store
	rj.clients = clients
	rj.journal = journal
	rj.runner = runner

	ctx, cancel := context.WithCancel(ctx)
	rj.cancel = cancel

	rj.wg.Add(1)
	go func() {
		defer rj.wg.Done()
		rj.config.Trigger(ctx, func() error {
			return rj.evaluate(ctx)
		})
	}()

	return cancel
}

// Shutdown stops the reboot job and waits for it to finish
func (rj *rebootJob) Shutdown() {
	if rj.cancel != nil {
		rj.cancel()
	}
	rj.wg.Wait()
}

func (rj *rebootJob) evaluate(ctx context.Context) error {
	sched := rj.store.Snapshot().Settings.RebootSchedule
	if !sched.Enabled {
		return nil
	}

	loc, err := time.LoadLocation(sched.Timezone)
	if err != nil {
		log.WithError(err).WithField("timezone", sched.Timezone).Warn("invalid reboot timezone, using UTC")
		loc = time.UTC
	}

	local := rj.config.NowFunc().In(loc)
	if local.Format("15:04") != sched.Time {
		return nil
	}

	// One decision per scheduled minute, whichever way it goes.
	key := local.Format("2006-01-02 15:04")
	if key == rj.lastFired {
		return nil
	}
	rj.lastFired = key

	up, err := rj.config.Uptime()
	if err != nil {
		log.WithError(err).Warn("could not read system uptime")
		rj.skip(ctx, sched, "uptime unreadable")
		return nil
	}
	if up < minUptime {
		rj.skip(ctx, sched, "uptime below one hour")
		return nil
	}

	if rj.clients.ClientCount() > 0 {
		rj.skip(ctx, sched, "dashboard session active")
		return nil
	}

	log.WithField("scheduled_time", sched.Time).Info("executing scheduled reboot")
	if _, err := rj.runner.Run(ctx, "sudo", "reboot"); err != nil {
		log.WithError(err).Error("scheduled reboot command failed")
	}
	return nil
}

func (rj *rebootJob) skip(ctx context.Context, sched configstore.RebootSchedule, reason string) {
	log.WithField("reason", reason).Warn("scheduled reboot skipped")
	raw, _ := json.Marshal(map[string]string{
		"scheduled_time": sched.Time,
		"reason":         reason,
	})
	if err := rj.journal.Append(ctx, &statuslog.Entry{EventType: statuslog.EventRebootSkip, Details: string(raw)}); err != nil {
		log.WithError(err).Warn("failed to journal reboot skip")
	}
}
