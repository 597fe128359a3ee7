package websocket

import (
	"encoding/json"
	"time"

	"github.com/rc-medicall/backend/internal/storage/models"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeSyncStatusChanged MessageType = "sync.status_changed"
	TypeCalendarChanged   MessageType = "calendar.changed"
	TypeEventRejected     MessageType = "event.rejected"
	TypeNotification      MessageType = "notification"

	// Client -> Server command types
	TypeVisibility MessageType = "visibility"
	TypePing       MessageType = "ping"

	// Server -> Client response types
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"
)

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// ClientMessage is a command sent by a client. Payload is decoded per type.
type ClientMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// VisibilityPayload is the payload of a client visibility message.
type VisibilityPayload struct {
	Visible bool `json:"visible"`
}

// SyncStatusPayload is the payload for sync.status_changed events.
type SyncStatusPayload = models.SyncStatus

// CalendarChangedPayload is the payload for calendar.changed events. Clients
// refetch the views they show when the revision moves past theirs.
type CalendarChangedPayload struct {
	Revision uint64 `json:"revision"`
	Entity   string `json:"entity"`
	ID       string `json:"id,omitempty"`
}

// EventRejectedPayload is the payload for event.rejected events.
type EventRejectedPayload struct {
	Kind   string `json:"kind"`
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// NotificationPayload is the payload for notification events.
type NotificationPayload struct {
	Level       string `json:"level"` // info, warning, error, success
	Title       string `json:"title"`
	Message     string `json:"message"`
	Dismissible bool   `json:"dismissible"`
}

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	OriginalType string `json:"original_type,omitempty"`
}
