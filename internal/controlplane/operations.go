package controlplane

import (
	"context"
	"fmt"
	"time"

	"posguard/domain/command"
	"posguard/domain/device"
)

// DeviceMetadata is the cloud's editable view of a device: operators rename,
// group, and promote devices from the control plane, and the agent adopts
// those fields during inventory sync.
type DeviceMetadata struct {
	MAC         string `json:"mac"`
	Name        string `json:"name"`
	Location    string `json:"location"`
	IsMonitored *bool  `json:"is_monitored"`
}

// DeviceSnapshot is what the agent pushes upstream per device.
type DeviceSnapshot struct {
	AgentID      string `json:"agent_id"`
	MAC          string `json:"mac"`
	IPAddress    string `json:"ip_address"`
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer"`
	Status       string `json:"status"`
	LastSeen     string `json:"last_seen"`
	Location     string `json:"location,omitempty"`
	IsMonitored  bool   `json:"is_monitored"`
}

// HeartbeatOperations is consumed by the heartbeat service.
type HeartbeatOperations interface {
	Heartbeat(ctx context.Context, agentID, currentIP string) error
}

// InventoryOperations is consumed by the inventory sync service.
type InventoryOperations interface {
	FetchInventoryMetadata(ctx context.Context, agentID string) ([]DeviceMetadata, error)
	PushInventory(ctx context.Context, agentID string, snapshots []DeviceSnapshot) error
}

// CommandOperations is consumed by the command intake and processor.
type CommandOperations interface {
	FetchPendingCommands(ctx context.Context, agentID string) ([]command.Command, error)
	UpdateCommandStatus(ctx context.Context, id string, status command.Status, result string) error
}

// StatusLogOperations is consumed by anything reporting notable events.
type StatusLogOperations interface {
	AppendStatusLog(ctx context.Context, agentID, eventType string, details any) error
}

func (c *Client) Heartbeat(ctx context.Context, agentID, currentIP string) error {
	body := map[string]string{"current_ip": currentIP}
	return c.post(ctx, fmt.Sprintf("/api/v1/agents/%s/heartbeat", agentID), body, nil)
}

func (c *Client) FetchInventoryMetadata(ctx context.Context, agentID string) ([]DeviceMetadata, error) {
	var result []DeviceMetadata
	err := c.get(ctx, fmt.Sprintf("/api/v1/agents/%s/devices", agentID), &result)
	return result, err
}

func (c *Client) PushInventory(ctx context.Context, agentID string, snapshots []DeviceSnapshot) error {
	return c.put(ctx, fmt.Sprintf("/api/v1/agents/%s/devices", agentID), snapshots, nil)
}

func (c *Client) FetchPendingCommands(ctx context.Context, agentID string) ([]command.Command, error) {
	var result []command.Command
	err := c.get(ctx, fmt.Sprintf("/api/v1/agents/%s/commands?status=pending", agentID), &result)
	return result, err
}

func (c *Client) UpdateCommandStatus(ctx context.Context, id string, status command.Status, result string) error {
	body := map[string]string{
		"status": string(status),
		"result": result,
	}
	return c.put(ctx, fmt.Sprintf("/api/v1/commands/%s", id), body, nil)
}

func (c *Client) AppendStatusLog(ctx context.Context, agentID, eventType string, details any) error {
	body := map[string]any{
		"event_type": eventType,
		"details":    details,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}
	return c.post(ctx, fmt.Sprintf("/api/v1/agents/%s/status-logs", agentID), body, nil)
}

// SnapshotFromDevice builds the upstream representation of a device.
func SnapshotFromDevice(agentID string, d device.Device) DeviceSnapshot {
	name := d.Name
	if name == "" {
		name = "Unknown Device"
	}
	lastSeen := ""
	if d.LastSeen > 0 {
		lastSeen = time.UnixMilli(d.LastSeen).UTC().Format(time.RFC3339)
	}
	return DeviceSnapshot{
		AgentID:      agentID,
		MAC:          d.MAC,
		IPAddress:    d.IP,
		Name:         name,
		Manufacturer: d.Manufacturer,
		Status:       string(d.Status),
		LastSeen:     lastSeen,
		Location:     d.Location,
		IsMonitored:  d.IsMonitored,
	}
}
