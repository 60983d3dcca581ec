package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-skin-inspector/internal/observer"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *testAPI, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	api := newTestAPI(t, hub)
	server := httptest.NewServer(api.handler)
	t.Cleanup(server.Close)
	return hub, api, server
}

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) observer.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var e observer.Event
	require.NoError(t, json.Unmarshal(msg, &e))
	return e
}

func TestHub_DeliversSessionEvents(t *testing.T) {
	hub, api, server := startHub(t)
	conn := dial(t, server, "")
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	w := api.do(t, http.MethodPost, "/api/v1/sessions", map[string]interface{}{"kind": "camera", "activate": true})
	require.Equal(t, http.StatusCreated, w.Code)

	created := readEvent(t, conn)
	assert.Equal(t, observer.SessionCreated, created.Type)
	assert.Equal(t, "camera", created.Kind)

	activated := readEvent(t, conn)
	assert.Equal(t, observer.StreamActivated, activated.Type)
	assert.Equal(t, created.SessionID, activated.SessionID)
	assert.Equal(t, "live_active", activated.State)
}

func TestHub_SessionFilter(t *testing.T) {
	hub, _, server := startHub(t)
	conn := dial(t, server, "?session_id=wanted")
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	ctx := context.Background()
	hub.OnEvent(ctx, observer.Event{Type: observer.ImageCaptured, SessionID: "other"})
	hub.OnEvent(ctx, observer.Event{Type: observer.ImageAccepted, SessionID: "wanted"})

	e := readEvent(t, conn)
	assert.Equal(t, observer.ImageAccepted, e.Type)
	assert.Equal(t, "wanted", e.SessionID)
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	hub, _, server := startHub(t)
	conn := dial(t, server, "")
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_OnEventNeverBlocks(t *testing.T) {
	hub := NewHub() // not running

	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastQueue+10; i++ {
			hub.OnEvent(context.Background(), observer.Event{Type: observer.SessionCreated})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("OnEvent blocked on a full queue")
	}
}
