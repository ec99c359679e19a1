// Package cmdexec runs shell commands with a bounded timeout. Network probes
// and privileged system actions go through here so the rest of the agent never
// spawns processes directly and can be tested with fakes.
package cmdexec

import (
	"context"
	"os/exec"
	"time"
)

// Runner executes a command and returns its combined output. A non-nil error
// with output still present means the command ran but exited non-zero.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

type Executor struct {
	timeout time.Duration
}

func New(timeout time.Duration) *Executor {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Executor{timeout: timeout}
}

func (e *Executor) Run(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// RunShell executes a full command line through /bin/sh. Used for operator
// supplied override commands that were already validated with shellwords.
func (e *Executor) RunShell(ctx context.Context, commandLine string) (string, error) {
	return e.Run(ctx, "/bin/sh", "-c", commandLine)
}
