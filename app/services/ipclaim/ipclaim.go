// Package ipclaim gives the agent a stable address on the wired subnet.
// Claims live in the high 250..200 host range, away from the low-numbered
// addresses DHCP servers conventionally hand out.
package ipclaim

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"posguard/domain/netstatus"
	"posguard/internal/configstore"
	"posguard/internal/netif"
	"posguard/internal/netprobe"
)

const (
	claimRangeHigh = 250
	claimRangeLow  = 200
	defaultPrefix  = "192.168.1"
)

// ErrNoFreeSlot means the whole claim range answered ARP; the caller runs
// without a stable address and retries later.
var ErrNoFreeSlot = errors.New("no free address in claim range")

type Prober interface {
	ArpOccupant(ctx context.Context, ip string) *netprobe.Occupant
}

type ConfigStore interface {
	Snapshot() configstore.Config
	Mutate(fn func(*configstore.Config) bool) error
}

type LinkReader interface {
	Links() (eth, wifi netstatus.LinkState)
}

type Guard interface {
	Acquire() error
	Release()
}

type Service interface {
	Claim(ctx context.Context) (string, error)
}

type claimService struct {
	store  ConfigStore
	prober Prober
	links  LinkReader
	guard  Guard
}

func NewWithDependencies(store ConfigStore, prober Prober, links LinkReader, guard Guard) *claimService {
	return &claimService{store: store, prober: prober, links: links, guard: guard}
}

// Claim re-verifies any prior claim on the current subnet, else scans the
// range top down and persists the first free address immediately.
func (s *claimService) Claim(ctx context.Context) (string, error) {
	if err := s.guard.Acquire(); err != nil {
		return "", err
	}
	defer s.guard.Release()

	eth, _ := s.links.Links()
	prefix := netif.SubnetPrefix(eth.IP)
	if prefix == "" {
		prefix = defaultPrefix
	}

	cfg := s.store.Snapshot()
	if prior := cfg.Settings.Network.ClaimedStaticIP; prior != "" && netif.SubnetPrefix(prior) == prefix {
		if s.prober.ArpOccupant(ctx, prior) == nil {
			logrus.WithField("ip", prior).Info("prior static claim still free, keeping it")
			return prior, nil
		}
		logrus.WithField("ip", prior).Warn("prior static claim is occupied, rescanning")
	}

	for host := claimRangeHigh; host >= claimRangeLow; host-- {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate := fmt.Sprintf("%s.%d", prefix, host)
		if s.prober.ArpOccupant(ctx, candidate) != nil {
			continue
		}
		err := s.store.Mutate(func(c *configstore.Config) bool {
			c.Settings.Network.ClaimedStaticIP = candidate
			return true
		})
		if err != nil {
			return "", fmt.Errorf("failed to persist claim of %s: %w", candidate, err)
		}
		logrus.WithField("ip", candidate).Info("claimed static address")
		return candidate, nil
	}

	return "", ErrNoFreeSlot
}
