package websocket

import (
	"go.uber.org/zap"

	"github.com/rc-medicall/backend/internal/storage/models"
)

// EventBroadcaster handles broadcasting WebSocket events. It is the sync
// service's notifier.
type EventBroadcaster struct {
	hub    *Hub
	logger *zap.Logger
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub, logger *zap.Logger) *EventBroadcaster {
	return &EventBroadcaster{hub: hub, logger: logger.Named("events")}
}

// BroadcastSyncStatus sends the sync layer's connection state.
func (b *EventBroadcaster) BroadcastSyncStatus(status models.SyncStatus) {
	b.broadcast(NewMessage(TypeSyncStatusChanged, status))
}

// BroadcastCalendarChanged tells clients that entity id changed at revision.
func (b *EventBroadcaster) BroadcastCalendarChanged(revision uint64, entity, id string) {
	b.broadcast(NewMessage(TypeCalendarChanged, CalendarChangedPayload{
		Revision: revision,
		Entity:   entity,
		ID:       id,
	}))
}

// BroadcastEventRejected reports an operation refused on a locked event.
func (b *EventBroadcaster) BroadcastEventRejected(kind, id, reason string) {
	b.broadcast(NewMessage(TypeEventRejected, EventRejectedPayload{
		Kind:   kind,
		ID:     id,
		Reason: reason,
	}))
}

// BroadcastNotification sends a notification to all connected clients.
func (b *EventBroadcaster) BroadcastNotification(level, title, message string) {
	b.broadcast(NewMessage(TypeNotification, NotificationPayload{
		Level:       level,
		Title:       title,
		Message:     message,
		Dismissible: true,
	}))
}

// broadcast sends a message to all connected clients.
func (b *EventBroadcaster) broadcast(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		b.logger.Error("encoding websocket message", zap.String("type", string(msg.Type)), zap.Error(err))
		return
	}

	b.hub.Broadcast(data)
}
