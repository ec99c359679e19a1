// Package commandjob feeds remote commands to the processor. Commands
// arrive on two paths, a periodic poll of the pending queue and a
// push-style stream, and both converge on the same Process call. The
// control plane owns command status, so duplicate delivery across the
// two paths is resolved there rather than deduplicated locally.
package commandjob

import (
	"context"
	"sync"
	"time"

	"posguard/domain/command"
)

// Fetcher pulls the pending command queue for this agent
type Fetcher interface {
	FetchPendingCommands(ctx context.Context, agentID string) ([]command.Command, error)
}

// Notifier delivers pushed commands until its context is cancelled
type Notifier interface {
	StreamCommands(ctx context.Context, agentID string) <-chan command.Command
}

// Processor runs a single command to a terminal status
type Processor interface {
	Process(ctx context.Context, cmd command.Command)
}

// TriggerFunc defines the interface for the trigger function
type TriggerFunc func(context.Context, func() error)

// CommandJobConfig contains the configurations for the command job
type CommandJobConfig struct {
	Trigger TriggerFunc
	AgentID string
}

type commandJob struct {
	config CommandJobConfig
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a command job with the default poll interval
func New(agentID string) *commandJob {
	return NewWithConfig(CommandJobConfig{
		Trigger: func(ctx context.Context, fn func() error) {
			TriggerWithConfig(ctx, fn, TriggerConfig{
				Interval: 10 * time.Second,
			})
		},
		AgentID: agentID,
	})
}

// NewWithConfig creates a command job with the given config
func NewWithConfig(config CommandJobConfig) *commandJob {
	return &commandJob{
		config: config,
	}
}

// Register starts the poll loop and the stream drain for the given
// fetcher, notifier and processor
func (cj *commandJob) Register(ctx context.Context, fetcher Fetcher, notifier Notifier, proc Processor) context.CancelFunc {
	ctx, cancel := context.WithCancel(ctx)
	cj.cancel = cancel

	cj.wg.Add(1)
	go func() {
		defer cj.wg.Done()
		cj.config.Trigger(ctx, func() error {
			cmds, err := fetcher.FetchPendingCommands(ctx, cj.config.AgentID)
			if err != nil {
				return err
			}
			for _, cmd := range cmds {
				proc.Process(ctx, cmd)
			}
			return nil
		})
	}()

	cj.wg.Add(1)
	go func() {
		defer cj.wg.Done()
		for cmd := range notifier.StreamCommands(ctx, cj.config.AgentID) {
			proc.Process(ctx, cmd)
		}
	}()

	return cancel
}

// Shutdown stops the command job and waits for both feeds to finish
func (cj *commandJob) Shutdown() {
	if cj.cancel != nil {
		cj.cancel()
	}
	cj.wg.Wait()
}
