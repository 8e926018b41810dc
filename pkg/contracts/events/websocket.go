// Package events contains event contract definitions for WebSocket
// communication in the COSMED Data Converter.
package events

import (
	"time"
)

// Protocol identity, echoed in connection handshakes
const (
	ProtocolVersion = "1.0"
	ProtocolName    = "cosmed-websocket-protocol"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Core conversion message - the primary event type
	MessageTypeConversionSnapshot MessageType = "conversion:snapshot"

	// Connection messages
	MessageTypeConnect    MessageType = "connect"
	MessageTypeDisconnect MessageType = "disconnect"
	MessageTypeError      MessageType = "error"
)

// Conversion statuses carried in ConversionSnapshot.Status
const (
	ConversionStatusRunning   = "running"
	ConversionStatusCompleted = "completed"
	ConversionStatusFailed    = "failed"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`        // Unique message ID
	Type      MessageType `json:"type"`                // Message type
	Timestamp time.Time   `json:"timestamp"`           // Message timestamp
	TraceID   string      `json:"trace_id,omitempty"`  // Request trace ID
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"` // Message payload
}

// ConversionSnapshot is the primary message type for conversion
// progress. One snapshot is broadcast per processed file and a final
// one on completion or failure.
type ConversionSnapshot struct {
	ConversionID string    `json:"conversion_id"`
	Status       string    `json:"status"`   // running|completed|failed
	Progress     int       `json:"progress"` // 0-100
	FilesDone    int       `json:"files_done"`
	FilesTotal   int       `json:"files_total"`
	Message      string    `json:"message,omitempty"`
	OutputPath   string    `json:"output_path,omitempty"`
	Rows         int       `json:"rows,omitempty"`
	Columns      int       `json:"columns,omitempty"`
	Error        string    `json:"error,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ErrorEvent represents a processing error surfaced to connected
// clients
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Fatal   bool   `json:"fatal"`
}
