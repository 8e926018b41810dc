package websocket

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOTelMetrics(t *testing.T) {
	metrics, err := NewOTelMetrics()

	require.NoError(t, err)
	require.NotNil(t, metrics)
	assert.NotNil(t, metrics.connectionsTotal)
	assert.NotNil(t, metrics.messagesTotal)
	assert.NotNil(t, metrics.broadcastOperations)
	assert.NotNil(t, metrics.clientCount)
}

func TestInitOTelMetrics(t *testing.T) {
	require.NoError(t, InitOTelMetrics())
	assert.NotNil(t, GetOTelMetrics())
}

func TestOTelMetrics_RecordersDoNotPanic(t *testing.T) {
	metrics, err := NewOTelMetrics()
	require.NoError(t, err)

	ctx := context.Background()

	assert.NotPanics(t, func() {
		metrics.RecordConnection(ctx, "client-1", "127.0.0.1:8080")
		metrics.RecordDisconnection(ctx, "client-1", 5*time.Second, "normal")
		metrics.RecordConnectionError(ctx, "client-2", "upgrade_failed", errors.New("bad handshake"))
		metrics.RecordMessageSent(ctx, "conversion:snapshot", "client-1", 256)
		metrics.RecordMessageReceived(ctx, "client_message", "client-1", 18)
		metrics.RecordMessageError(ctx, "server_message", "client-1", "write_failed", errors.New("broken pipe"))
		metrics.RecordQueueDepth(ctx, 3, "broadcast")
		metrics.RecordDroppedMessage(ctx, "broadcast", "client_buffer_full")
		metrics.RecordBroadcast(ctx, "broadcast", 4, 3, 1)
		metrics.RecordClientCount(ctx, 4)
	})
}
