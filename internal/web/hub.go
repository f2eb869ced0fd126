package web

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/sweeney/lutron-bridge/internal/logic"
	"github.com/sweeney/lutron-bridge/internal/status"
)

const (
	wsSendBuffer   = 16
	wsWriteTimeout = 5 * time.Second
	wsPingPeriod   = 30 * time.Second
)

// ActivityMessage is the websocket frame sent for every button event.
type ActivityMessage struct {
	Event string `json:"event"`
	status.ActivityJSON
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans button activity out to websocket clients. A client that cannot
// keep up is disconnected.
type Hub struct {
	upgrader websocket.Upgrader
	log      zerolog.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
	closed  bool
}

// NewHub creates an empty Hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log:     log,
		clients: make(map[*wsClient]struct{}),
	}
}

// ServeWS upgrades the request and registers the client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade")
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, wsSendBuffer)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)
	go h.readPump(c)
}

// Broadcast sends one event to every connected client.
func (h *Hub) Broadcast(event string, data map[string]string, at time.Time) {
	msg, err := json.Marshal(ActivityMessage{
		Event: event,
		ActivityJSON: status.ActivityToJSON(status.Activity{
			Action:     data[logic.AttrAction],
			ID:         data[logic.AttrID],
			FullID:     data[logic.AttrFullID],
			AreaName:   data[logic.AttrAreaName],
			ButtonName: data[logic.AttrButtonName],
			At:         at,
		}),
	})
	if err != nil {
		h.log.Error().Err(err).Msg("marshal websocket message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.removeLocked(c)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
}

func (h *Hub) removeLocked(c *wsClient) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) writePump(c *wsClient) {
	ping := time.NewTicker(wsPingPeriod)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.remove(c)
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		}
	}
}

// readPump discards client messages and notices disconnects.
func (h *Hub) readPump(c *wsClient) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Msg("websocket closed")
			}
			return
		}
	}
}
