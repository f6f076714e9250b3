package websocket

import (
	"encoding/json"
	"testing"

	"github.com/pdtechteam/quiz-generator/internal/session"
)

func TestClient_SendEnqueuesMarshaledEvent(t *testing.T) {
	c := NewClient(nil, "1234", nil)

	c.Send(session.NewEvent("pong", nil))

	select {
	case payload := <-c.send:
		var decoded map[string]interface{}
		if err := json.Unmarshal(payload, &decoded); err != nil {
			t.Fatalf("failed to unmarshal sent payload: %v", err)
		}
		if decoded["type"] != "pong" {
			t.Fatalf("expected type pong, got %+v", decoded)
		}
	default:
		t.Fatal("expected an event on the send channel")
	}
}

func TestClient_SendAfterCloseIsNoop(t *testing.T) {
	c := NewClient(nil, "1234", nil)
	c.RemoteClose()

	// Send must not panic or write to a closed channel after RemoteClose.
	c.Send(session.NewEvent("pong", nil))
}

func TestClient_RemoteCloseIsIdempotent(t *testing.T) {
	c := NewClient(nil, "1234", nil)
	c.RemoteClose()
	c.RemoteClose()
}

func TestClient_SendDropsClientWhenBufferFull(t *testing.T) {
	c := NewClient(nil, "1234", nil)

	for i := 0; i < sendBufferSize; i++ {
		c.Send(session.NewEvent("pong", nil))
	}
	if c.closed.Load() {
		t.Fatal("client should not be closed while buffer has room")
	}

	// One more send overflows the buffer and self-closes the client.
	c.Send(session.NewEvent("pong", nil))
	if !c.closed.Load() {
		t.Fatal("expected client to be closed after buffer overflow")
	}
}
