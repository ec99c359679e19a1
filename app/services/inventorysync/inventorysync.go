// Package inventorysync keeps the local device inventory and the control
// plane's view of it converged. Operator edits flow down as metadata; the
// agent's observations flow up as snapshots.
package inventorysync

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"posguard/domain/device"
	"posguard/internal/configstore"
	"posguard/internal/controlplane"
)

type ConfigStore interface {
	Snapshot() configstore.Config
	Mutate(fn func(*configstore.Config) bool) error
}

type Service interface {
	Sync(ctx context.Context) error
	Push(ctx context.Context) error
}

type syncService struct {
	store        ConfigStore
	controlplane controlplane.InventoryOperations
	agentID      string
	nowFn        func() time.Time
}

func NewWithDependencies(store ConfigStore, cp controlplane.InventoryOperations, agentID string) *syncService {
	return &syncService{
		store:        store,
		controlplane: cp,
		agentID:      agentID,
		nowFn:        time.Now,
	}
}

// Sync adopts upstream metadata into the inventory, then pushes the merged
// state back so both sides settle on the same picture.
func (s *syncService) Sync(ctx context.Context) error {
	metadata, err := s.controlplane.FetchInventoryMetadata(ctx, s.agentID)
	if err != nil {
		return fmt.Errorf("failed to fetch device metadata: %w", err)
	}

	adopted := 0
	err = s.store.Mutate(func(c *configstore.Config) bool {
		dirty := false
		for _, m := range metadata {
			d := c.FindDevice(device.CanonicalMAC(m.MAC))
			if d == nil {
				continue
			}
			if m.Name != "" && d.Name != m.Name {
				d.Name = m.Name
				// an operator naming a device is what promotes it
				d.IsIdentified = true
				dirty = true
			}
			if m.Location != "" && d.Location != m.Location {
				d.Location = m.Location
				dirty = true
			}
			if m.IsMonitored != nil && d.IsMonitored != *m.IsMonitored {
				d.IsMonitored = *m.IsMonitored
				dirty = true
			}
		}
		if dirty {
			adopted++
			c.Meta.LastSync = s.nowFn().UnixMilli()
		}
		return dirty
	})
	if err != nil {
		return fmt.Errorf("failed to adopt device metadata: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"metadata": len(metadata),
		"changed":  adopted > 0,
	}).Debug("inventory metadata sync complete")

	return s.Push(ctx)
}

// Push ships the full inventory upstream.
func (s *syncService) Push(ctx context.Context) error {
	cfg := s.store.Snapshot()
	snapshots := make([]controlplane.DeviceSnapshot, 0, len(cfg.Devices))
	for _, d := range cfg.Devices {
		snapshots = append(snapshots, controlplane.SnapshotFromDevice(s.agentID, d))
	}

	if err := s.controlplane.PushInventory(ctx, s.agentID, snapshots); err != nil {
		return fmt.Errorf("failed to push inventory: %w", err)
	}
	return nil
}
