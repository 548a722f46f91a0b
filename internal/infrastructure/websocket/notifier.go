package websocket

import (
	"log/slog"

	"github.com/insightloop/backend/internal/domain/events"
	"github.com/insightloop/backend/internal/infrastructure/log"
)

// Notifier 订阅领域事件并推送给组织内的 WebSocket 客户端
type Notifier struct {
	hub    *Hub
	bus    events.EventBus
	logger *slog.Logger
}

// NoteIndexedNotification 推送给客户端的知识库变更通知
type NoteIndexedNotification struct {
	Type   string `json:"type"`
	NoteID string `json:"note_id"`
	Title  string `json:"title"`
}

// NewNotifier 创建通知器并订阅事件
func NewNotifier(hub *Hub, bus events.EventBus) *Notifier {
	n := &Notifier{
		hub:    hub,
		bus:    bus,
		logger: log.NewModuleLogger("websocket", "notifier"),
	}

	bus.Subscribe(events.NoteIndexed, events.HandlerFunc(n.handleNoteIndexed))

	return n
}

// handleNoteIndexed 将笔记索引事件广播给对应组织
func (n *Notifier) handleNoteIndexed(event events.Event) error {
	indexed, ok := event.(*events.NoteIndexedEvent)
	if !ok {
		return nil
	}

	notification := NoteIndexedNotification{
		Type:   "note_indexed",
		NoteID: indexed.NoteID,
		Title:  indexed.Title,
	}

	if err := n.hub.BroadcastToOrg(indexed.OrgID, notification); err != nil {
		n.logger.Error("failed to broadcast note indexed event",
			"note_id", indexed.NoteID,
			"error", err,
		)
		return err
	}

	return nil
}
