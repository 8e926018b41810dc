package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cosmedcli/pkg/contracts/events"
)

func newTestClient(hub *Hub, id string, bufferSize int) *Client {
	return &Client{
		id:          id,
		hub:         hub,
		send:        make(chan []byte, bufferSize),
		connectedAt: time.Now(),
		remoteAddr:  "127.0.0.1:8080",
	}
}

func receiveMessage(t *testing.T, client *Client) map[string]interface{} {
	t.Helper()
	select {
	case raw := <-client.send:
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for message")
		return nil
	}
}

func TestNewHub(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	hub := NewHub(logger)

	assert.NotNil(t, hub)
	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.broadcast)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
	assert.NotNil(t, hub.logger)
	assert.NotNil(t, hub.quit)
	assert.NotNil(t, hub.metricsQuit)
	assert.Equal(t, 0, hub.ClientCount())
	assert.False(t, hub.running)
}

func TestHubStartStop(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	hub := NewHub(logger)

	hub.Start()
	assert.True(t, hub.running)

	// Starting again should be idempotent
	hub.Start()
	assert.True(t, hub.running)

	time.Sleep(10 * time.Millisecond)

	hub.Stop()
	assert.False(t, hub.running)

	// Stopping again should be idempotent
	hub.Stop()
	assert.False(t, hub.running)
}

func TestHubClientRegistration(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	hub := NewHub(logger)
	hub.Start()
	defer hub.Stop()

	client := newTestClient(hub, "test-client-1", 256)
	client.traceID = "test-trace-1"

	hub.Register(client)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, hub.ClientCount())

	// The newly registered client receives a connection handshake
	msg := receiveMessage(t, client)
	assert.Equal(t, string(events.MessageTypeConnect), msg["type"])
	data := msg["data"].(map[string]interface{})
	assert.Equal(t, "connected", data["status"])
	assert.Equal(t, "test-client-1", data["client_id"])
	assert.Equal(t, events.ProtocolVersion, data["protocol"])
	assert.Contains(t, data["message"], "COSMED")

	hub.unregister <- client
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 0, hub.ClientCount())
}

func TestHubBroadcastFanOut(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	hub := NewHub(logger)
	hub.Start()
	defer hub.Stop()

	clients := make([]*Client, 3)
	for i := 0; i < 3; i++ {
		clients[i] = newTestClient(hub, fmt.Sprintf("test-client-%d", i), 256)
		hub.Register(clients[i])
	}
	time.Sleep(100 * time.Millisecond)

	// Clear connection messages
	for _, client := range clients {
		<-client.send
	}

	jsonData, err := json.Marshal(map[string]interface{}{"type": "test", "data": "fan out"})
	require.NoError(t, err)
	hub.broadcast <- jsonData

	var wg sync.WaitGroup
	wg.Add(len(clients))
	for i, client := range clients {
		go func(idx int, c *Client) {
			defer wg.Done()
			select {
			case msg := <-c.send:
				assert.Equal(t, jsonData, msg)
			case <-time.After(1 * time.Second):
				t.Errorf("client %d: timeout waiting for broadcast", idx)
			}
		}(i, client)
	}
	wg.Wait()
}

func TestHubBroadcastEnvelope(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	hub := NewHub(logger)
	hub.Start()
	defer hub.Stop()

	client := newTestClient(hub, "test-client", 256)
	hub.Register(client)
	time.Sleep(50 * time.Millisecond)
	<-client.send // Clear connection message

	hub.Broadcast(string(events.MessageTypeConversionSnapshot), events.ConversionSnapshot{
		ConversionID: "conv-123",
		Status:       events.ConversionStatusRunning,
		Progress:     40,
		FilesDone:    2,
		FilesTotal:   5,
		UpdatedAt:    time.Now(),
	})

	msg := receiveMessage(t, client)
	assert.Equal(t, "conversion:snapshot", msg["type"])
	assert.NotEmpty(t, msg["timestamp"])
	_, hasTrace := msg["trace_id"]
	assert.False(t, hasTrace)

	data := msg["data"].(map[string]interface{})
	assert.Equal(t, "conv-123", data["conversion_id"])
	assert.Equal(t, "running", data["status"])
	assert.Equal(t, float64(40), data["progress"])
	assert.Equal(t, float64(5), data["files_total"])
}

func TestHubBroadcastWithTrace(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	hub := NewHub(logger)
	hub.Start()
	defer hub.Stop()

	client := newTestClient(hub, "test-client", 256)
	hub.Register(client)
	time.Sleep(50 * time.Millisecond)
	<-client.send

	hub.BroadcastWithTrace("log", map[string]interface{}{"message": "parsing session"}, "trace-abc")

	msg := receiveMessage(t, client)
	assert.Equal(t, "log", msg["type"])
	assert.Equal(t, "trace-abc", msg["trace_id"])
}

func TestHubBroadcastError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	hub := NewHub(logger)
	hub.Start()
	defer hub.Stop()

	client := newTestClient(hub, "test-client", 256)
	hub.Register(client)
	time.Sleep(50 * time.Millisecond)
	<-client.send

	tests := []struct {
		name         string
		code         string
		message      string
		fatal        bool
		expectedHint string
	}{
		{
			name:         "known code uses its hint",
			code:         "parse_failed",
			message:      "session.xml could not be parsed",
			fatal:        false,
			expectedHint: ErrorRecoveryHints["parse_failed"],
		},
		{
			name:         "unknown code falls back to default hint",
			code:         "mystery",
			message:      "something odd happened",
			fatal:        true,
			expectedHint: ErrorRecoveryHints["default"],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub.BroadcastError(tt.code, tt.message, tt.fatal)

			msg := receiveMessage(t, client)
			assert.Equal(t, string(events.MessageTypeError), msg["type"])
			data := msg["data"].(map[string]interface{})
			assert.Equal(t, tt.code, data["code"])
			assert.Equal(t, tt.message, data["message"])
			assert.Equal(t, tt.fatal, data["fatal"])
			assert.Equal(t, tt.expectedHint, data["hint"])
		})
	}
}

func TestHubDisconnectsClientWithFullBuffer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	hub := NewHub(logger)
	hub.Start()
	defer hub.Stop()

	// Buffer of one fills up with the connection handshake
	stuck := newTestClient(hub, "stuck-client", 1)
	hub.Register(stuck)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, hub.ClientCount())

	hub.Broadcast("log", map[string]interface{}{"message": "overflow"})
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 0, hub.ClientCount())

	metrics := hub.GetHubMetrics()
	assert.Equal(t, int64(1), metrics["dropped_clients"])
}

func TestHubGetHubMetrics(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	hub := NewHub(logger)
	hub.Start()
	defer hub.Stop()

	client := newTestClient(hub, "test-client", 256)
	hub.Register(client)
	time.Sleep(50 * time.Millisecond)
	<-client.send

	hub.Broadcast("log", map[string]interface{}{"message": "one"})
	time.Sleep(50 * time.Millisecond)

	metrics := hub.GetHubMetrics()
	assert.Equal(t, 1, metrics["active_clients"])
	assert.Equal(t, int64(1), metrics["total_connections"])
	assert.Equal(t, int64(1), metrics["messages_sent"])
	assert.Equal(t, int64(0), metrics["dropped_clients"])
}

func TestHubBroadcastAfterStop(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	hub := NewHub(logger)
	hub.Start()
	hub.Stop()

	// Must not block once the hub is stopped
	done := make(chan struct{})
	go func() {
		hub.Broadcast("log", map[string]interface{}{"message": "late"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("broadcast blocked after hub stop")
	}
}

func TestHubWithNilLogger(t *testing.T) {
	hub := NewHub(nil)
	assert.NotNil(t, hub)
	assert.NotNil(t, hub.logger)
}

func TestHubConcurrentBroadcasts(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	hub := NewHub(logger)
	hub.Start()
	defer hub.Stop()

	client := newTestClient(hub, "test-client", 256)
	hub.Register(client)
	time.Sleep(50 * time.Millisecond)
	<-client.send

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			hub.Broadcast("log", map[string]interface{}{"n": n})
		}(i)
	}
	wg.Wait()

	received := 0
	timeout := time.After(2 * time.Second)
	for received < 10 {
		select {
		case <-client.send:
			received++
		case <-timeout:
			t.Fatalf("received %d of 10 broadcasts", received)
		}
	}
}
