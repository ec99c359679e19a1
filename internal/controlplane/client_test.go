package controlplane

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posguard/domain/command"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, AgentKey: "test-key", Timeout: 5 * time.Second})
	require.NoError(t, err)
	return client, server
}

// TestHeartbeat_PostsCurrentIP
func TestHeartbeat_PostsCurrentIP(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))

	err := client.Heartbeat(context.Background(), "agent-1", "192.168.1.250")

	require.NoError(t, err)
	assert.Equal(t, "/api/v1/agents/agent-1/heartbeat", gotPath)
	assert.Equal(t, "192.168.1.250", gotBody["current_ip"])
}

// TestFetchPendingCommands_DecodesList
func TestFetchPendingCommands_DecodesList(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]command.Command{
			{ID: "cmd-1", Type: command.TypeReboot, Status: command.StatusPending},
		})
	}))

	cmds, err := client.FetchPendingCommands(context.Background(), "agent-1")

	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, command.TypeReboot, cmds[0].Type)
}

// TestUpdateCommandStatus_PutsStatusAndResult
func TestUpdateCommandStatus_PutsStatusAndResult(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))

	err := client.UpdateCommandStatus(context.Background(), "cmd-1", command.StatusFailed, "boom")

	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/api/v1/commands/cmd-1", gotPath)
	assert.Equal(t, "failed", gotBody["status"])
	assert.Equal(t, "boom", gotBody["result"])
}

// TestDo_4xx_ReturnsAPIErrorWithoutRetry
func TestDo_4xx_ReturnsAPIErrorWithoutRetry(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "nope", http.StatusNotFound)
	}))

	err := client.Heartbeat(context.Background(), "agent-1", "1.2.3.4")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
	assert.Equal(t, 1, calls)
}

// TestDo_5xx_RetriesThenFails
func TestDo_5xx_RetriesThenFails(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "flaky", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, Timeout: 5 * time.Second, MaxRetries: 2})
	require.NoError(t, err)

	err = client.Heartbeat(context.Background(), "agent-1", "1.2.3.4")

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

// TestNewClient_RequiresBaseURL
func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

// TestStreamCommands_DeliversAndClosesOnCancel
func TestStreamCommands_DeliversAndClosesOnCancel(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]command.Command{{ID: "cmd-7", Type: command.TypeScanNetwork}})
	}))

	ctx, cancel := context.WithCancel(context.Background())
	ch := client.StreamCommands(ctx, "agent-1")

	cmd := <-ch
	assert.Equal(t, "cmd-7", cmd.ID)

	cancel()
	for range ch {
		// drain until closed
	}
}
