// Package commandproc executes control-plane commands. Status moves one way,
// pending to processing to a terminal state; whatever happens during dispatch,
// a command is never left parked in processing.
package commandproc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"posguard/domain/command"
	"posguard/domain/statuslog"
	"posguard/internal/cmdexec"
	"posguard/internal/netprobe"
)

const (
	rebootDelay = 3 * time.Second

	// defaultDiagTarget is probed when a RUN_DIAGNOSTICS command names no
	// target of its own.
	defaultDiagTarget = "8.8.8.8"
)

// StatusReporter is the single writer of command status upstream.
type StatusReporter interface {
	UpdateCommandStatus(ctx context.Context, id string, status command.Status, result string) error
}

type DiscoveryRunner interface {
	Run(ctx context.Context) error
}

type DiagnosticsRunner interface {
	Run(ctx context.Context, target string) (netprobe.BurstResult, error)
}

type UpdateRunner interface {
	Run(ctx context.Context, commandID string) error
}

type Service interface {
	Process(ctx context.Context, cmd command.Command)
}

type processor struct {
	reporter    StatusReporter
	discovery   DiscoveryRunner
	diagnostics DiagnosticsRunner
	updater     UpdateRunner
	runner      cmdexec.Runner
	journal     statuslog.Repository
	sleepFn     func(time.Duration)
}

func NewWithDependencies(
	reporter StatusReporter,
	discovery DiscoveryRunner,
	diagnostics DiagnosticsRunner,
	updater UpdateRunner,
	runner cmdexec.Runner,
	journal statuslog.Repository,
) *processor {
	return &processor{
		reporter:    reporter,
		discovery:   discovery,
		diagnostics: diagnostics,
		updater:     updater,
		runner:      runner,
		journal:     journal,
		sleepFn:     time.Sleep,
	}
}

// Process runs one command to a terminal state. Both the poll trigger and the
// push stream feed this; a command both channels saw races on the upstream
// processing claim, not on anything local.
func (p *processor) Process(ctx context.Context, cmd command.Command) {
	if cmd.Status.IsTerminal() {
		logrus.WithField("command", cmd.ID).Debug("skipping already terminal command")
		return
	}

	log := logrus.WithFields(logrus.Fields{"command": cmd.ID, "type": cmd.Type})
	log.Info("processing command")

	// best-effort claim; the upstream store arbitrates double delivery
	if err := p.reporter.UpdateCommandStatus(ctx, cmd.ID, command.StatusProcessing, ""); err != nil {
		log.WithError(err).Warn("failed to mark command processing")
	}

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("command dispatch panicked")
			p.finish(ctx, cmd, command.StatusFailed, fmt.Sprintf("internal error: %v", r))
		}
	}()

	switch cmd.Type {
	case command.TypeReboot:
		p.handleReboot(ctx, cmd)
	case command.TypeScanNetwork:
		p.handleScan(ctx, cmd)
	case command.TypeRunDiagnostics:
		p.handleDiagnostics(ctx, cmd)
	case command.TypeUpdateAgent:
		// the update protocol owns terminal status for its command
		if err := p.updater.Run(ctx, cmd.ID); err != nil {
			log.WithError(err).Warn("self-update run failed")
		}
	default:
		log.Warn("unknown command type, ignoring")
	}
}

// handleReboot reports success first, then reboots after a short delay so the
// terminal status is durably observed before the device goes down.
func (p *processor) handleReboot(ctx context.Context, cmd command.Command) {
	p.finish(ctx, cmd, command.StatusSuccess, "rebooting")
	p.sleepFn(rebootDelay)
	if _, err := p.runner.Run(ctx, "sudo", "reboot"); err != nil {
		logrus.WithError(err).Error("reboot command failed")
	}
}

func (p *processor) handleScan(ctx context.Context, cmd command.Command) {
	if err := p.discovery.Run(ctx); err != nil {
		p.finish(ctx, cmd, command.StatusFailed, err.Error())
		return
	}
	p.finish(ctx, cmd, command.StatusSuccess, "scan complete")
}

// handleDiagnostics always produces a result document; any failure yields a
// synthetic total-loss result instead of a stuck command.
func (p *processor) handleDiagnostics(ctx context.Context, cmd command.Command) {
	var payload command.DiagnosticsPayload
	if len(cmd.Payload) > 0 {
		if err := json.Unmarshal(cmd.Payload, &payload); err != nil {
			p.finishDiagnostics(ctx, cmd, command.StatusFailed, command.DiagnosticsResult{
				Loss: 100, Error: fmt.Sprintf("bad payload: %v", err),
			})
			return
		}
	}
	if payload.TargetIP == "" {
		payload.TargetIP = defaultDiagTarget
	}

	burst, err := p.diagnostics.Run(ctx, payload.TargetIP)
	if err != nil {
		p.finishDiagnostics(ctx, cmd, command.StatusFailed, command.DiagnosticsResult{
			Loss: 100, Error: err.Error(),
		})
		return
	}

	p.finishDiagnostics(ctx, cmd, command.StatusCompleted, command.DiagnosticsResult{
		Latency: int(burst.AvgLatencyMs + 0.5),
		Jitter:  int(burst.JitterMs + 0.5),
		Loss:    int(burst.PacketLossPct + 0.5),
	})
}

func (p *processor) finishDiagnostics(ctx context.Context, cmd command.Command, status command.Status, res command.DiagnosticsResult) {
	raw, _ := json.Marshal(res)
	p.finish(ctx, cmd, status, string(raw))
}

func (p *processor) finish(ctx context.Context, cmd command.Command, status command.Status, result string) {
	if err := p.reporter.UpdateCommandStatus(ctx, cmd.ID, status, result); err != nil {
		logrus.WithError(err).WithField("command", cmd.ID).Error("failed to report terminal command status")
	}
	if p.journal == nil {
		return
	}
	raw, _ := json.Marshal(map[string]string{
		"command_id": cmd.ID,
		"type":       string(cmd.Type),
		"status":     string(status),
	})
	if err := p.journal.Append(ctx, &statuslog.Entry{EventType: statuslog.EventCommand, Details: string(raw)}); err != nil {
		logrus.WithError(err).Warn("failed to journal command outcome")
	}
}
