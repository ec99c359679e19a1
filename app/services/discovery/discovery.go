// Package discovery sweeps the local subnets for stations and merges what it
// finds into the device inventory. The merge is idempotent: re-running with an
// identical scan result produces zero writes and zero events.
package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"posguard/domain/device"
	"posguard/domain/netstatus"
	"posguard/internal/configstore"
	"posguard/internal/hub"
	"posguard/internal/netif"
	"posguard/internal/vendorlookup"
)

// Station is one scan result row.
type Station struct {
	IP           string
	MAC          string
	Name         string
	Manufacturer string
}

// Scanner produces stations for one subnet in CIDR form.
type Scanner interface {
	Scan(ctx context.Context, subnet string) ([]Station, error)
}

type ConfigStore interface {
	Snapshot() configstore.Config
	Mutate(fn func(*configstore.Config) bool) error
}

type LinkReader interface {
	Links() (eth, wifi netstatus.LinkState)
	LocalSubnets() []string
}

type Broadcaster interface {
	Broadcast(ev hub.Event)
}

// Guard is the exclusive-network-operation flag shared with the monitor loop
// and diagnostics.
type Guard interface {
	Acquire() error
	Release()
}

// InventoryPusher ships the merged inventory upstream after a sweep.
type InventoryPusher interface {
	Push(ctx context.Context) error
}

type Service interface {
	Run(ctx context.Context) error
}

type discoveryService struct {
	store     ConfigStore
	scanner   Scanner
	links     LinkReader
	hub       Broadcaster
	guard     Guard
	inventory InventoryPusher
	agentID   string
	nowFn     func() time.Time
}

func NewWithDependencies(
	store ConfigStore,
	scanner Scanner,
	links LinkReader,
	broadcaster Broadcaster,
	guard Guard,
	inventory InventoryPusher,
	agentID string,
) *discoveryService {
	return &discoveryService{
		store:     store,
		scanner:   scanner,
		links:     links,
		hub:       broadcaster,
		guard:     guard,
		inventory: inventory,
		agentID:   agentID,
		nowFn:     time.Now,
	}
}

// Run sweeps the configured subnet, or every local one, and merges the result.
// Returns netguard.ErrBusy without scanning when another exclusive network
// operation holds the wire.
func (s *discoveryService) Run(ctx context.Context) error {
	if err := s.guard.Acquire(); err != nil {
		return err
	}
	defer s.guard.Release()

	cfg := s.store.Snapshot()
	subnets := s.targetSubnets(cfg)
	if len(subnets) == 0 {
		return fmt.Errorf("no subnets to scan")
	}

	var stations []Station
	for _, subnet := range subnets {
		found, err := s.scanner.Scan(ctx, subnet)
		if err != nil {
			logrus.WithError(err).WithField("subnet", subnet).Warn("subnet scan failed")
			continue
		}
		stations = append(stations, found...)
	}

	newDevices, updated := s.merge(stations)

	for _, d := range newDevices {
		s.hub.Broadcast(hub.NewDevice(s.agentID, d))
	}
	for _, d := range updated {
		s.hub.Broadcast(hub.UpdateDevice(s.agentID, d))
	}

	logrus.WithFields(logrus.Fields{
		"stations": len(stations),
		"new":      len(newDevices),
		"updated":  len(updated),
	}).Info("discovery sweep finished")

	if s.inventory != nil && (len(newDevices) > 0 || len(updated) > 0) {
		if err := s.inventory.Push(ctx); err != nil {
			logrus.WithError(err).Warn("inventory push after discovery failed")
		}
	}
	return nil
}

func (s *discoveryService) targetSubnets(cfg configstore.Config) []string {
	if cfg.Settings.Network.ScanSubnet != "" {
		return []string{cfg.Settings.Network.ScanSubnet}
	}
	return s.links.LocalSubnets()
}

// merge folds scan results into the inventory under a single batched save.
func (s *discoveryService) merge(stations []Station) (newDevices, updated []device.Device) {
	eth, wifi := s.links.Links()
	now := s.nowFn()

	err := s.store.Mutate(func(c *configstore.Config) bool {
		dirty := false
		for _, st := range stations {
			mac := device.CanonicalMAC(st.MAC)
			if mac == "" || st.IP == "" {
				continue
			}
			iface := netif.Classify(st.IP, eth, wifi)
			manufacturer := st.Manufacturer
			if manufacturer == "" {
				manufacturer = vendorlookup.Guess(mac)
			}

			if existing := c.FindDevice(mac); existing != nil {
				changed := false
				if c.Settings.TrackIPChanges && existing.IP != st.IP {
					existing.IP = st.IP
					changed = true
				}
				if existing.Manufacturer == "" && manufacturer != "" {
					existing.Manufacturer = manufacturer
					changed = true
				}
				if existing.Iface != iface {
					existing.Iface = iface
					changed = true
				}
				if changed {
					updated = append(updated, *existing)
					dirty = true
				}
				continue
			}

			// New stations are observed, not alerted on, until an operator
			// promotes them.
			d := device.Device{
				MAC:          mac,
				IP:           st.IP,
				Name:         st.Name,
				Type:         "unknown",
				Manufacturer: manufacturer,
				Iface:        iface,
				IsMonitored:  false,
				IsIdentified: false,
				LastSeen:     now.UnixMilli(),
				Status:       device.StatusOnline,
			}
			c.Devices = append(c.Devices, d)
			newDevices = append(newDevices, d)
			dirty = true
		}
		return dirty
	})
	if err != nil {
		logrus.WithError(err).Error("failed to persist discovery merge")
	}
	return newDevices, updated
}
