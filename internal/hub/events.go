package hub

import (
	"encoding/json"

	"posguard/domain/device"
	"posguard/domain/netstatus"
	"posguard/internal/netprobe"
)

// Event kinds form a closed set; each kind has one fixed payload shape.
const (
	KindDeviceList         = "device_list"
	KindVitalsUpdate       = "VITALS_UPDATE"
	KindNetworkStatus      = "NETWORK_STATUS"
	KindUpdateDevice       = "UPDATE_DEVICE"
	KindNewDevice          = "NEW_DEVICE"
	KindIPConflictAlert    = "IP_CONFLICT_ALERT"
	KindDiagnosticsStarted = "DIAGNOSTICS_STARTED"
	KindDiagnosticsResult  = "DIAGNOSTICS_RESULT"
	KindDiagnosticsError   = "DIAGNOSTICS_ERROR"
)

// Event is the broadcast envelope consumed by dashboard clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
	AgentID string `json:"agentId,omitempty"`
}

// Marshal renders the event for the wire.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// DeviceListPayload is sent once on dashboard connect.
type DeviceListPayload struct {
	Devices []device.Device `json:"devices"`
}

// IPConflictPayload reports another station answering for the agent's own
// address.
type IPConflictPayload struct {
	Type     string `json:"type"` // always "IP_STOLEN"
	StolenIP string `json:"stolen_ip"`
	Thief    string `json:"thief"`
}

// DiagnosticsStartedPayload acknowledges an inbound diagnostics request.
type DiagnosticsStartedPayload struct {
	Target string `json:"target"`
}

// DiagnosticsErrorPayload reports a rejected or failed diagnostics request.
type DiagnosticsErrorPayload struct {
	Message string `json:"message"`
}

func DeviceList(agentID string, devices []device.Device) Event {
	return Event{Type: KindDeviceList, AgentID: agentID, Payload: DeviceListPayload{Devices: devices}}
}

func VitalsUpdate(agentID string, v netstatus.Vitals) Event {
	return Event{Type: KindVitalsUpdate, AgentID: agentID, Payload: v}
}

func NetworkStatus(agentID string, s netstatus.NetworkStatus) Event {
	return Event{Type: KindNetworkStatus, AgentID: agentID, Payload: s}
}

func UpdateDevice(agentID string, d device.Device) Event {
	return Event{Type: KindUpdateDevice, AgentID: agentID, Payload: d}
}

func NewDevice(agentID string, d device.Device) Event {
	return Event{Type: KindNewDevice, AgentID: agentID, Payload: d}
}

func IPConflictAlert(agentID, stolenIP, thief string) Event {
	return Event{Type: KindIPConflictAlert, AgentID: agentID, Payload: IPConflictPayload{
		Type:     "IP_STOLEN",
		StolenIP: stolenIP,
		Thief:    thief,
	}}
}

func DiagnosticsStarted(agentID, target string) Event {
	return Event{Type: KindDiagnosticsStarted, AgentID: agentID, Payload: DiagnosticsStartedPayload{Target: target}}
}

func DiagnosticsResult(agentID string, res netprobe.BurstResult) Event {
	return Event{Type: KindDiagnosticsResult, AgentID: agentID, Payload: res}
}

func DiagnosticsError(agentID, message string) Event {
	return Event{Type: KindDiagnosticsError, AgentID: agentID, Payload: DiagnosticsErrorPayload{Message: message}}
}
