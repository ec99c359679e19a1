// Package command models control-plane commands executed by the agent.
package command

import "encoding/json"

// Type identifies what the control plane is asking the agent to do.
type Type string

const (
	TypeReboot         Type = "REBOOT"
	TypeScanNetwork    Type = "SCAN_NETWORK"
	TypeUpdateAgent    Type = "UPDATE_AGENT"
	TypeRunDiagnostics Type = "RUN_DIAGNOSTICS"
)

// Status values form a one-way state machine: pending -> processing ->
// {completed|success|failed}. The agent only ever moves a command forward.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether no further transition is permitted.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusSuccess || s == StatusFailed
}

// Command is owned by the control plane; the agent treats Status as a
// single-writer claim token it updates monotonically.
type Command struct {
	ID            string          `json:"id"`
	TargetAgentID string          `json:"target_agent_id"`
	Type          Type            `json:"command_type"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Status        Status          `json:"status"`
	Result        string          `json:"result,omitempty"`
}

// DiagnosticsPayload is the payload shape for RUN_DIAGNOSTICS.
type DiagnosticsPayload struct {
	TargetIP string `json:"target_ip"`
}

// DiagnosticsResult is the result shape reported for RUN_DIAGNOSTICS.
type DiagnosticsResult struct {
	Latency int    `json:"latency"`
	Jitter  int    `json:"jitter"`
	Loss    int    `json:"loss"`
	Error   string `json:"error,omitempty"`
}
