package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightloop/backend/internal/domain/events"
	"github.com/insightloop/backend/internal/infrastructure/watcher"
)

func newRunningHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	hub.Start()
	return hub
}

func TestHub_BroadcastReachesOwnOrgOnly(t *testing.T) {
	hub := newRunningHub(t)

	acme := &Connection{OrgID: "acme", Send: make(chan []byte, 4)}
	other := &Connection{OrgID: "globex", Send: make(chan []byte, 4)}
	hub.Register(acme)
	hub.Register(other)

	require.NoError(t, hub.BroadcastToOrg("acme", map[string]string{"type": "ping"}))

	select {
	case data := <-acme.Send:
		assert.JSONEq(t, `{"type":"ping"}`, string(data))
	case <-time.After(time.Second):
		t.Fatal("expected broadcast to reach acme connection")
	}

	select {
	case data := <-other.Send:
		t.Fatalf("unexpected message for other org: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnregisterClosesSendChannel(t *testing.T) {
	hub := newRunningHub(t)

	conn := &Connection{OrgID: "acme", Send: make(chan []byte, 4)}
	hub.Register(conn)
	hub.Unregister(conn)

	select {
	case _, ok := <-conn.Send:
		assert.False(t, ok, "send channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed")
	}
}

func TestNotifier_BroadcastsNoteIndexedEvent(t *testing.T) {
	hub := newRunningHub(t)
	bus := watcher.NewEventBus()
	defer bus.Close()

	NewNotifier(hub, bus)

	conn := &Connection{OrgID: "acme", Send: make(chan []byte, 4)}
	hub.Register(conn)

	bus.Publish(&events.NoteIndexedEvent{
		NoteID:    "doc-acme-roadmap",
		OrgID:     "acme",
		Title:     "Roadmap",
		EventTime: time.Now(),
	})

	select {
	case data := <-conn.Send:
		assert.JSONEq(t, `{"type":"note_indexed","note_id":"doc-acme-roadmap","title":"Roadmap"}`, string(data))
	case <-time.After(time.Second):
		t.Fatal("expected note indexed notification")
	}
}
