package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newHubServer(t *testing.T, inbound InboundFunc) (*Hub, string) {
	t.Helper()
	b := New([]string{"http://localhost:3001"}, nil)
	hub := NewHub(b.Allowed)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, r.URL.Query().Get("channel"), inbound)
	}))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	return websocket.DefaultDialer.Dial(url, http.Header{"Origin": {origin}})
}

func waitForListeners(t *testing.T, hub *Hub, channel string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Listeners(channel) != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d listeners on %s, got %d", n, channel, hub.Listeners(channel))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubRejectsUntrustedOrigin(t *testing.T) {
	t.Parallel()

	_, url := newHubServer(t, nil)
	_, resp, err := dial(t, url+"?channel=acme", "https://evil.example")
	if err == nil {
		t.Fatalf("expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %+v", resp)
	}
}

func TestHubDeliversByChannelAndOrigin(t *testing.T) {
	t.Parallel()

	hub, url := newHubServer(t, nil)
	conn, _, err := dial(t, url+"?channel=acme/home", "http://localhost:3001")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitForListeners(t, hub, "acme/home", 1)

	if err := hub.Channel("acme/other").Post(context.Background(), "http://localhost:3001", Message{Type: Ready}); err != ErrNoListeners {
		t.Fatalf("expected ErrNoListeners for another channel, got %v", err)
	}
	if err := hub.Channel("acme/home").Post(context.Background(), "http://localhost:8080", Message{Type: Ready}); err != ErrNoListeners {
		t.Fatalf("expected ErrNoListeners for another origin, got %v", err)
	}
	if err := hub.Channel("acme/home").Post(context.Background(), "http://localhost:3001", Message{Type: SectionClicked, SectionID: "a"}); err != nil {
		t.Fatalf("post: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != SectionClicked || msg.SectionID != "a" {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestHubPassesInboundMessages(t *testing.T) {
	t.Parallel()

	type inboundMessage struct {
		origin string
		data   string
	}
	received := make(chan inboundMessage, 1)
	hub, url := newHubServer(t, func(_ context.Context, origin string, data []byte) {
		received <- inboundMessage{origin: origin, data: string(data)}
	})
	conn, _, err := dial(t, url+"?channel=acme/home", "http://localhost:3001")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	waitForListeners(t, hub, "acme/home", 1)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"PREVIEW_MODE_ON"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case got := <-received:
		if got.origin != "http://localhost:3001" || got.data != `{"type":"PREVIEW_MODE_ON"}` {
			t.Fatalf("unexpected inbound %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for inbound message")
	}

	_ = conn.Close()
	waitForListeners(t, hub, "acme/home", 0)
}

func TestHubRunsJoinHandler(t *testing.T) {
	t.Parallel()

	joined := make(chan string, 1)
	b := New([]string{"http://localhost:3001"}, nil)
	hub := NewHub(b.Allowed, WithJoinHandler(func(_ context.Context, channel, origin string) {
		joined <- channel + " " + origin
	}))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, "acme/home", nil)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := dial(t, "ws"+strings.TrimPrefix(srv.URL, "http"), "http://localhost:3001")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	select {
	case got := <-joined:
		if got != "acme/home http://localhost:3001" {
			t.Fatalf("unexpected join %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("join handler not called")
	}
}
