package realtime

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHub_JoinAndPublish(t *testing.T) {
	hub := testHub()
	client := &Client{ID: "conn-1", Send: make(chan []byte, 256)}

	hub.Register(client)
	hub.Join(client, "patient-1")

	if hub.RoomSize("patient-1") != 1 {
		t.Fatalf("expected 1 connection in room, got %d", hub.RoomSize("patient-1"))
	}

	hub.Publish("patient-1", EventQueueUpdated, map[string]any{"position": 2})

	select {
	case msg := <-client.Send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal event: %v", err)
		}
		if received.Type != EventQueueUpdated {
			t.Fatalf("expected event type %s, got %s", EventQueueUpdated, received.Type)
		}
		if received.UserID != "patient-1" {
			t.Fatalf("expected userId patient-1, got %s", received.UserID)
		}
	case <-time.After(time.Second):
		t.Fatal("client did not receive event")
	}
}

func TestHub_PublishOnlyToRecipient(t *testing.T) {
	hub := testHub()
	recipient := &Client{ID: "conn-1", Send: make(chan []byte, 256)}
	other := &Client{ID: "conn-2", Send: make(chan []byte, 256)}

	hub.Register(recipient)
	hub.Register(other)
	hub.Join(recipient, "patient-1")
	hub.Join(other, "patient-2")

	hub.Publish("patient-1", EventAppointmentUpdated, nil)

	select {
	case <-recipient.Send:
		// expected
	case <-time.After(time.Second):
		t.Fatal("recipient did not receive event")
	}

	select {
	case <-other.Send:
		t.Fatal("other user should not have received event")
	default:
		// expected
	}
}

func TestHub_MultipleConnectionsPerUser(t *testing.T) {
	hub := testHub()
	tab1 := &Client{ID: "conn-1", Send: make(chan []byte, 256)}
	tab2 := &Client{ID: "conn-2", Send: make(chan []byte, 256)}

	hub.Register(tab1)
	hub.Register(tab2)
	hub.Join(tab1, "patient-1")
	hub.Join(tab2, "patient-1")

	if hub.RoomSize("patient-1") != 2 {
		t.Fatalf("expected 2 connections in room, got %d", hub.RoomSize("patient-1"))
	}

	hub.Publish("patient-1", EventNotification, nil)

	for _, tab := range []*Client{tab1, tab2} {
		select {
		case <-tab.Send:
		case <-time.After(time.Second):
			t.Fatalf("connection %s did not receive event", tab.ID)
		}
	}
}

func TestHub_UnregisterLeavesRoom(t *testing.T) {
	hub := testHub()
	client := &Client{ID: "conn-1", Send: make(chan []byte, 256)}

	hub.Register(client)
	hub.Join(client, "patient-1")
	hub.Unregister(client)

	if hub.ConnectionCount() != 0 {
		t.Fatalf("expected 0 connections, got %d", hub.ConnectionCount())
	}
	if hub.RoomSize("patient-1") != 0 {
		t.Fatalf("expected empty room, got %d", hub.RoomSize("patient-1"))
	}

	// Publishing to an empty room must not panic or block.
	hub.Publish("patient-1", EventQueueUpdated, nil)
}

func TestHub_RejoinSwitchesRoom(t *testing.T) {
	hub := testHub()
	client := &Client{ID: "conn-1", Send: make(chan []byte, 256)}

	hub.Register(client)
	hub.Join(client, "patient-1")
	hub.Join(client, "patient-2")

	if hub.RoomSize("patient-1") != 0 {
		t.Fatalf("expected client to have left patient-1, room size %d", hub.RoomSize("patient-1"))
	}
	if hub.RoomSize("patient-2") != 1 {
		t.Fatalf("expected client in patient-2, room size %d", hub.RoomSize("patient-2"))
	}
}
