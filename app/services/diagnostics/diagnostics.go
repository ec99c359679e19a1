// Package diagnostics runs on-demand ping bursts against a single target and
// streams progress to connected dashboards. Targets are validated against a
// conservative hostname/IP shape before anything touches the wire.
package diagnostics

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"posguard/internal/hub"
	"posguard/internal/netguard"
	"posguard/internal/netprobe"
)

const burstCount = 5

// ErrInvalidTarget rejects anything that is not a plain hostname or IP.
var ErrInvalidTarget = errors.New("invalid diagnostics target")

type Burster interface {
	PingBurst(ctx context.Context, target string, count int) (netprobe.BurstResult, error)
}

type Broadcaster interface {
	Broadcast(ev hub.Event)
}

type Guard interface {
	Acquire() error
	Release()
}

type Service interface {
	Run(ctx context.Context, target string) (netprobe.BurstResult, error)
}

type diagService struct {
	prober   Burster
	hub      Broadcaster
	guard    Guard
	agentID  string
	validate *validator.Validate
}

func NewWithDependencies(prober Burster, broadcaster Broadcaster, guard Guard, agentID string) *diagService {
	return &diagService{
		prober:   prober,
		hub:      broadcaster,
		guard:    guard,
		agentID:  agentID,
		validate: validator.New(),
	}
}

// Run executes one burst. Every outcome is broadcast: STARTED on acceptance,
// then exactly one of RESULT or ERROR.
func (s *diagService) Run(ctx context.Context, target string) (netprobe.BurstResult, error) {
	if err := s.validate.Var(target, "required,max=253,ip|hostname_rfc1123"); err != nil {
		s.hub.Broadcast(hub.DiagnosticsError(s.agentID, fmt.Sprintf("invalid target %q", target)))
		return netprobe.BurstResult{}, ErrInvalidTarget
	}

	if err := s.guard.Acquire(); err != nil {
		s.hub.Broadcast(hub.DiagnosticsError(s.agentID, "Busy"))
		return netprobe.BurstResult{}, netguard.ErrBusy
	}
	defer s.guard.Release()

	s.hub.Broadcast(hub.DiagnosticsStarted(s.agentID, target))

	res, err := s.prober.PingBurst(ctx, target, burstCount)
	if err != nil {
		logrus.WithError(err).WithField("target", target).Warn("diagnostics burst failed")
		s.hub.Broadcast(hub.DiagnosticsError(s.agentID, err.Error()))
		return netprobe.BurstResult{}, err
	}

	s.hub.Broadcast(hub.DiagnosticsResult(s.agentID, res))
	return res, nil
}
