// Package appconf contains app related configurations
package appconf

import (
	"os"
	"strconv"
	"time"

	"posguard/config"
	devconf "posguard/config/environments/development"
	prodconf "posguard/config/environments/production"
)

var appconf config.AppConfiger

func Port() string {
	return appconf.GetPort()
}

func DBURL() string {
	return appconf.GetDBURL()
}

func ControlPlaneURL() string {
	return appconf.GetControlPlaneURL()
}

func DataDir() string {
	return appconf.GetDataDir()
}

// AgentKey is the static key sent on every control-plane request.
func AgentKey() string {
	return os.Getenv("POSGUARD_AGENT_KEY")
}

// RestartCommand is what the updater runs after committing a new binary.
func RestartCommand() string {
	if cmd := os.Getenv("POSGUARD_RESTART_CMD"); cmd != "" {
		return cmd
	}
	return "sudo systemctl restart posguard"
}

// NetInterface optionally pins the wired interface name instead of
// letting link classification pick one.
func NetInterface() string {
	return os.Getenv("POSGUARD_NET_IFACE")
}

// SelfUpdateEnabled gates the whole update protocol.
func SelfUpdateEnabled() bool {
	raw := os.Getenv("POSGUARD_SELF_UPDATE_ENABLED")
	if raw == "" {
		return true
	}
	enabled, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return enabled
}

// UpdateCheckInterval controls how often the agent asks for a new
// binary. Clamped to 5 minutes so a typo cannot hammer the control plane.
func UpdateCheckInterval() time.Duration {
	raw := os.Getenv("POSGUARD_UPDATE_CHECK_INTERVAL")
	if raw == "" {
		return 1 * time.Hour
	}
	interval, err := time.ParseDuration(raw)
	if err != nil {
		return 1 * time.Hour
	}
	if interval < 5*time.Minute {
		return 5 * time.Minute
	}
	return interval
}

func init() {
	env := os.Getenv("APP_ENV")

	switch env {
	case "production":
		appconf = prodconf.New()
	case "development":
		appconf = devconf.New()
	default:
		appconf = devconf.New()
	}
}
