package services

import (
	"time"

	api "cosmedcli/pkg/contracts/api/v1"
	"cosmedcli/pkg/contracts/events"
)

// ConversionProgress receives conversion lifecycle updates
type ConversionProgress interface {
	SendProgress(conversionID string, processed, total int, message string)
	SendComplete(conversionID string, result *api.ConversionResult)
	SendError(conversionID string, err error)
}

// WebSocketHub interface for WebSocket communication
type WebSocketHub interface {
	Broadcast(messageType string, data interface{})
}

// WebSocketConversionAdapter adapts WebSocket communication for conversion runs

type WebSocketConversionAdapter struct {
	hub WebSocketHub
}

// NewWebSocketConversionAdapter creates a new WebSocket conversion adapter
func NewWebSocketConversionAdapter(hub WebSocketHub) *WebSocketConversionAdapter {
	return &WebSocketConversionAdapter{hub: hub}
}

// SendProgress broadcasts a running snapshot after each processed file
func (w *WebSocketConversionAdapter) SendProgress(conversionID string, processed, total int, message string) {
	progress := 0
	if total > 0 {
		progress = processed * 100 / total
	}
	w.hub.Broadcast(string(events.MessageTypeConversionSnapshot), events.ConversionSnapshot{
		ConversionID: conversionID,
		Status:       events.ConversionStatusRunning,
		Progress:     progress,
		FilesDone:    processed,
		FilesTotal:   total,
		Message:      message,
		UpdatedAt:    time.Now(),
	})
}

// SendComplete broadcasts the final snapshot for a successful run
func (w *WebSocketConversionAdapter) SendComplete(conversionID string, result *api.ConversionResult) {
	snapshot := events.ConversionSnapshot{
		ConversionID: conversionID,
		Status:       events.ConversionStatusCompleted,
		Progress:     100,
		UpdatedAt:    time.Now(),
	}
	if result != nil {
		snapshot.OutputPath = result.OutputPath
		snapshot.Rows = result.Rows
		snapshot.Columns = result.Columns
		snapshot.FilesDone = result.Summary.FilesFound
		snapshot.FilesTotal = result.Summary.FilesFound
	}
	w.hub.Broadcast(string(events.MessageTypeConversionSnapshot), snapshot)
}

// SendError broadcasts a failed snapshot
func (w *WebSocketConversionAdapter) SendError(conversionID string, err error) {
	w.hub.Broadcast(string(events.MessageTypeConversionSnapshot), events.ConversionSnapshot{
		ConversionID: conversionID,
		Status:       events.ConversionStatusFailed,
		Error:        err.Error(),
		UpdatedAt:    time.Now(),
	})
}
