package controlplane

import (
	"context"
	"fmt"
)

// UpdateInfo describes the latest published agent build.
type UpdateInfo struct {
	UpdateAvailable bool   `json:"update_available"`
	TargetVersion   string `json:"target_version"`
	AgentURL        string `json:"agent_url"`
	AgentSHA256     string `json:"agent_sha256"`
	AgentSize       int64  `json:"agent_size"`
}

// UpdateOperations is consumed by the self-update protocol.
type UpdateOperations interface {
	CheckUpdate(ctx context.Context, agentID, currentVersion string) (*UpdateInfo, error)
}

func (c *Client) CheckUpdate(ctx context.Context, agentID, currentVersion string) (*UpdateInfo, error) {
	var info UpdateInfo
	path := fmt.Sprintf("/api/v1/agents/%s/update?current=%s", agentID, currentVersion)
	if err := c.get(ctx, path, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
