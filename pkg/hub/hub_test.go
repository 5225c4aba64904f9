package hub

import (
	"encoding/json"
	"testing"
	"time"
)

func TestPublishFanOut(t *testing.T) {
	h := New(nil)
	go h.Run()

	client := &Client{hub: h, send: make(chan []byte, 4)}
	h.register <- client

	if err := h.PublishEvent(EventStatus, map[string]string{"status": "processing"}); err != nil {
		t.Fatalf("PublishEvent failed: %v", err)
	}

	select {
	case data := <-client.send:
		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if event.Type != EventStatus {
			t.Errorf("expected status event, got %q", event.Type)
		}
		var payload map[string]string
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload["status"] != "processing" {
			t.Errorf("unexpected payload %v", payload)
		}
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestSlowClientDropped(t *testing.T) {
	h := New(nil)
	go h.Run()

	// Unbuffered send channel with no reader: first broadcast drops it.
	client := &Client{hub: h, send: make(chan []byte)}
	h.register <- client

	h.PublishEvent(EventWarning, "slow turn")

	deadline := time.After(time.Second)
	for h.ClientCount() != 0 {
		select {
		case <-deadline:
			t.Fatal("slow client was not dropped")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestPublishWithoutClients(t *testing.T) {
	h := New(nil)
	go h.Run()

	// Must not block or error with nobody listening.
	if err := h.PublishEvent(EventTurn, map[string]int{"n": 1}); err != nil {
		t.Fatalf("PublishEvent failed: %v", err)
	}
	if h.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", h.ClientCount())
	}
}
