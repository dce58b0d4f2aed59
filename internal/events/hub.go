// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     events
// Description: Websocket broadcast of updates and results
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package events

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	coreerr "github.com/msto63/livescribe/pkg/core/errors"
	"github.com/msto63/livescribe/pkg/core/logging"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 120 * time.Second
	clientSendSize = 64
)

// WebSocket upgrader with permissive settings for local use
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage is the JSON frame sent to clients
type WSMessage struct {
	Type    string      `json:"type"` // "update", "result"
	Payload interface{} `json:"payload"`
}

// WSUpdatePayload is the payload of an "update" frame
type WSUpdatePayload struct {
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	SessionID string    `json:"session_id,omitempty"`
	Error     string    `json:"error,omitempty"`
	Code      string    `json:"code,omitempty"`
	Severity  string    `json:"severity,omitempty"`
	Time      time.Time `json:"time"`
}

// WSResultPayload is the payload of a "result" frame
type WSResultPayload struct {
	SessionID string    `json:"session_id,omitempty"`
	Seq       uint64    `json:"seq"`
	Text      string    `json:"text"`
	Source    string    `json:"source"`
	Time      time.Time `json:"time"`
}

type hubClient struct {
	conn *websocket.Conn
	send chan WSMessage
}

// Hub is a Listener that broadcasts to websocket clients. Slow clients
// lose messages instead of blocking the publishing goroutine.
type Hub struct {
	mu      sync.Mutex
	clients map[*hubClient]struct{}
	closed  bool
	logger  *logging.Logger
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*hubClient]struct{}),
		logger:  logging.New("events-hub"),
	}
}

// ServeHTTP handles the websocket upgrade
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}

	c := &hubClient{conn: conn, send: make(chan WSMessage, clientSendSize)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Info("WebSocket client connected", "remote", conn.RemoteAddr().String())

	go h.writeLoop(c)
	h.readLoop(c)
}

// readLoop discards client frames and detects disconnects
func (h *Hub) readLoop(c *hubClient) {
	defer h.remove(c)

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("WebSocket read error", "error", err)
			}
			return
		}
	}
}

func (h *Hub) writeLoop(c *hubClient) {
	defer c.conn.Close()

	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			h.logger.Debug("WebSocket write failed", "error", err)
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

func (h *Hub) remove(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcast(msg WSMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("WebSocket client too slow, dropping message", "type", msg.Type)
		}
	}
}

// OnUpdate implements Listener
func (h *Hub) OnUpdate(u Update) {
	p := WSUpdatePayload{
		Kind:      u.Kind.String(),
		Message:   u.Message,
		SessionID: u.SessionID,
		Time:      u.Time,
	}
	if u.Err != nil {
		code := coreerr.CodeOf(u.Err)
		p.Error = u.Err.Error()
		p.Code = string(code)
		p.Severity = coreerr.SeverityOf(code).String()
	}
	h.broadcast(WSMessage{Type: "update", Payload: p})
}

// OnResult implements Listener
func (h *Hub) OnResult(r Result) {
	h.broadcast(WSMessage{Type: "result", Payload: WSResultPayload{
		SessionID: r.SessionID,
		Seq:       r.Seq,
		Text:      r.Text,
		Source:    r.Source,
		Time:      r.Time,
	}})
}

// Close disconnects all clients
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
