package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"go-skin-inspector/internal/logger"
	"go-skin-inspector/internal/observer"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	clientBuffer   = 32
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	broadcastQueue = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type wsClient struct {
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

// wants reports whether the client subscribed to the event's session.
func (c *wsClient) wants(e observer.Event) bool {
	return c.sessionID == "" || c.sessionID == e.SessionID
}

// Hub fans session events out to WebSocket clients. It is an observer:
// OnEvent never blocks, slow clients are dropped.
type Hub struct {
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan observer.Event
	done       chan struct{}
	clients    atomic.Int64
}

// NewHub creates a hub. Run must be started before clients connect.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan observer.Event, broadcastQueue),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is done, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	clients := make(map[*wsClient]struct{})
	defer func() {
		close(h.done)
		for c := range clients {
			close(c.send)
		}
		h.clients.Store(0)
	}()

	drop := func(c *wsClient) {
		if _, ok := clients[c]; ok {
			delete(clients, c)
			close(c.send)
			h.clients.Store(int64(len(clients)))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			clients[c] = struct{}{}
			h.clients.Store(int64(len(clients)))
			logger.WithField("clients", len(clients)).Debug("WebSocket client connected")

		case c := <-h.unregister:
			drop(c)
			logger.WithField("clients", len(clients)).Debug("WebSocket client disconnected")

		case e := <-h.broadcast:
			msg, err := json.Marshal(e)
			if err != nil {
				logger.WithError(err).Error("Failed to marshal session event")
				continue
			}
			for c := range clients {
				if !c.wants(e) {
					continue
				}
				select {
				case c.send <- msg:
				default:
					logger.WithField("session_id", c.sessionID).Warn("WebSocket client too slow, disconnecting")
					drop(c)
				}
			}
		}
	}
}

// OnEvent queues the event for broadcast
func (h *Hub) OnEvent(_ context.Context, e observer.Event) {
	select {
	case h.broadcast <- e:
	default:
		logger.WithField("event_type", e.Type).Warn("Broadcast queue is full, dropping event")
	}
}

// GetObserverName returns the observer name
func (h *Hub) GetObserverName() string {
	return "websocket_hub"
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	return int(h.clients.Load())
}

// ServeWS upgrades the request. The optional session_id query parameter
// limits the feed to one session.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"ip": c.ClientIP(),
		}).Warn("Failed to upgrade to WebSocket")
		return
	}

	client := &wsClient{
		conn:      conn,
		send:      make(chan []byte, clientBuffer),
		sessionID: c.Query("session_id"),
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go h.writePump(client)
	go h.readPump(client)
}

// readPump discards client messages and notices disconnects.
func (h *Hub) readPump(c *wsClient) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.WithError(err).Debug("WebSocket read error")
			}
			return
		}
	}
}

func (h *Hub) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
