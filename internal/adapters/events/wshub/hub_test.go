package wshub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chocolab/ai-gateway/internal/domain"
)

func newTestServer(hub *Hub) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("topic"))
	}))
}

func dial(t *testing.T, server *httptest.Server, topic string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "?topic=" + topic
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForSubscribers(t *testing.T, hub *Hub, topic string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Subscribers(topic) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("topic %q never reached %d subscribers", topic, want)
}

func TestHubDeliversToSubscriber(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()
	server := newTestServer(hub)
	defer server.Close()

	conn := dial(t, server, "user:u1")
	waitForSubscribers(t, hub, "user:u1", 1)

	want := &domain.Event{
		Topic:     "user:u1",
		Name:      "ai:chat",
		Payload:   map[string]string{"ai_response": "hello"},
		Timestamp: time.Now().UTC(),
	}
	if err := hub.Publish(context.Background(), want); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}

	var got domain.Event
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("bad event payload: %v", err)
	}
	if got.Name != "ai:chat" || got.Payload["ai_response"] != "hello" {
		t.Errorf("got %+v", got)
	}
}

func TestHubIsolatesTopics(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()
	server := newTestServer(hub)
	defer server.Close()

	other := dial(t, server, "user:u2")
	waitForSubscribers(t, hub, "user:u2", 1)

	hub.Publish(context.Background(), &domain.Event{Topic: "user:u1", Name: "ai:chat"})

	other.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := other.ReadMessage(); err == nil {
		t.Error("subscriber received an event for another topic")
	}
}

func TestHubPublishWithoutSubscribers(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	err := hub.Publish(context.Background(), &domain.Event{Topic: "user:ghost", Name: "ai:chat"})
	if err != nil {
		t.Errorf("publish without subscribers should succeed, got %v", err)
	}
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()
	server := newTestServer(hub)
	defer server.Close()

	conn := dial(t, server, "user:u1")
	waitForSubscribers(t, hub, "user:u1", 1)

	conn.Close()
	waitForSubscribers(t, hub, "user:u1", 0)
}

func TestHubCloseRejectsNewClients(t *testing.T) {
	hub := NewHub(nil)
	server := newTestServer(hub)
	defer server.Close()

	hub.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "?topic=user:u1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		// The upgrade may still succeed; the server must drop it right away.
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, _, err := conn.ReadMessage(); err == nil {
			t.Error("closed hub kept the connection alive")
		}
		conn.Close()
	}
}
