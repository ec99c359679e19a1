package configstore

import (
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"posguard/domain/device"
)

// legacyDevice is the flat devices.json entry shape written by pre-v1 agents.
// Fields the old format never had get explicit defaults during migration.
type legacyDevice struct {
	MAC          string `json:"mac"`
	IP           string `json:"ip"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Iface        string `json:"iface"`
	IsMonitored  *bool  `json:"is_monitored"`
	IsIdentified *bool  `json:"is_identified"`
	LastSeen     int64  `json:"last_seen"`
}

// migrateLegacyLocked upgrades devices.json into the versioned schema. The
// legacy file is removed only after the migrated config has been written, so
// a crash mid-migration leaves the legacy file for the next attempt.
func (s *Store) migrateLegacyLocked() error {
	log.Info("migrating legacy devices.json to config.json")

	raw, err := os.ReadFile(s.legacyPath())
	if err != nil {
		return fmt.Errorf("failed to read legacy device list: %w", err)
	}

	var legacy []legacyDevice
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return fmt.Errorf("failed to parse legacy device list: %w", err)
	}

	cfg := Defaults()
	cfg.Devices = make([]device.Device, 0, len(legacy))
	for _, ld := range legacy {
		d := device.Device{
			MAC:              device.CanonicalMAC(ld.MAC),
			IP:               ld.IP,
			Name:             ld.Name,
			Type:             ld.Type,
			Manufacturer:     "",
			Iface:            device.IfaceUnknown,
			IsMonitored:      true,
			IsIdentified:     false,
			LastSeen:         ld.LastSeen,
			ParentDependency: nil,
			Status:           device.StatusOffline,
			FailureCount:     0,
		}
		if ld.Iface != "" {
			d.Iface = device.Iface(ld.Iface)
		}
		if ld.Type == "" {
			d.Type = "unknown"
		}
		if ld.IsMonitored != nil {
			d.IsMonitored = *ld.IsMonitored
		}
		if ld.IsIdentified != nil {
			d.IsIdentified = *ld.IsIdentified
		}
		cfg.Devices = append(cfg.Devices, d)
	}

	s.cfg = cfg
	if err := s.saveLocked(); err != nil {
		return fmt.Errorf("migration write failed: %w", err)
	}

	if err := os.Remove(s.legacyPath()); err != nil {
		log.Errorf("failed to remove legacy device list: %v", err)
	}
	log.Infof("migrated %d legacy devices", len(cfg.Devices))
	return nil
}
