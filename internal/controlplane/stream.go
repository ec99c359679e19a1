package controlplane

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"posguard/domain/command"
)

// streamRetryDelay spaces reconnects after a failed long-poll.
const streamRetryDelay = 5 * time.Second

// CommandNotifier is the push-style delivery channel. It is independent of
// the periodic poller; both may surface the same pending command, and the
// control plane's single-writer claim on the status field decides who runs it.
type CommandNotifier interface {
	StreamCommands(ctx context.Context, agentID string) <-chan command.Command
}

// StreamCommands long-polls the notification endpoint and feeds received
// commands into the returned channel until ctx is cancelled. Errors are
// logged and retried; the channel is closed on cancellation.
func (c *Client) StreamCommands(ctx context.Context, agentID string) <-chan command.Command {
	out := make(chan command.Command)

	go func() {
		defer close(out)
		for {
			if ctx.Err() != nil {
				return
			}

			var cmds []command.Command
			err := c.get(ctx, fmt.Sprintf("/api/v1/agents/%s/commands/watch", agentID), &cmds)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Debugf("command stream poll failed: %v", err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(streamRetryDelay):
				}
				continue
			}

			for _, cmd := range cmds {
				select {
				case out <- cmd:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
