package heartbeat

import (
	"context"
	"fmt"

	"posguard/domain/netstatus"
	"posguard/internal/controlplane"
)

type Service interface {
	Send() error
}

type LinkReader interface {
	Links() (eth, wifi netstatus.LinkState)
}

type heartbeatService struct {
	controlplane controlplane.HeartbeatOperations
	links        LinkReader
	agentID      string
}

func NewWithDependencies(
	cp controlplane.HeartbeatOperations,
	links LinkReader,
	agentID string,
) *heartbeatService {
	return &heartbeatService{
		controlplane: cp,
		links:        links,
		agentID:      agentID,
	}
}

// Send reports liveness and the agent's current address, wired preferred.
func (s *heartbeatService) Send() error {
	if s.agentID == "" {
		return fmt.Errorf("missing agent identity: no interface MAC available")
	}

	eth, wifi := s.links.Links()
	status := netstatus.NetworkStatus{Eth: eth, Wifi: wifi}

	return s.controlplane.Heartbeat(context.Background(), s.agentID, status.CurrentIP())
}
