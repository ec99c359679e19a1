package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"posguard/domain/device"
	"posguard/domain/netstatus"
	"posguard/internal/netprobe"
)

// Client interface for interacting with the local agent API
type Client interface {
	GetStatus() (*StatusResponse, error)
	ListDevices() ([]device.Device, error)
	SetMonitored(mac string, monitored bool) (*device.Device, error)
	Diagnose(target string) (*netprobe.BurstResult, error)
}

// HTTPClient implements the Client interface
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a new HTTP client
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// StatusResponse mirrors the agent's /api/v1/status payload
type StatusResponse struct {
	Network netstatus.NetworkStatus `json:"network"`
	Vitals  netstatus.Vitals        `json:"vitals"`
}

// MonitorRequest is the device promotion payload
type MonitorRequest struct {
	IsMonitored bool `json:"is_monitored"`
}

// DiagnoseRequest is the ping burst request payload
type DiagnoseRequest struct {
	Target string `json:"target"`
}

// GetStatus fetches the latest network status and vitals
func (c *HTTPClient) GetStatus() (*StatusResponse, error) {
	var status StatusResponse
	if err := c.getJSON("/api/v1/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ListDevices fetches the device inventory
func (c *HTTPClient) ListDevices() ([]device.Device, error) {
	var devices []device.Device
	if err := c.getJSON("/api/v1/devices", &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// SetMonitored toggles monitoring for one device
func (c *HTTPClient) SetMonitored(mac string, monitored bool) (*device.Device, error) {
	var updated device.Device
	path := fmt.Sprintf("/api/v1/devices/%s/monitor", url.PathEscape(mac))
	if err := c.postJSON(path, MonitorRequest{IsMonitored: monitored}, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Diagnose runs a ping burst against target via the agent
func (c *HTTPClient) Diagnose(target string) (*netprobe.BurstResult, error) {
	var result netprobe.BurstResult
	if err := c.postJSON("/api/v1/diagnostics", DiagnoseRequest{Target: target}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) getJSON(path string, result any) error {
	resp, err := c.client.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, result)
}

func (c *HTTPClient) postJSON(path string, body any, result any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.client.Post(c.baseURL+path, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, result)
}

func decodeResponse(resp *http.Response, result any) error {
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
