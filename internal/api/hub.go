package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"layerctl/pkg/control"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 16
	maxMessageSize = 4096
)

// ViewMessage is pushed to websocket clients on every control render.
type ViewMessage struct {
	Type string       `json:"type"` // "view"
	View control.View `json:"view"`
}

// ErrorMessage reports a rejected command back to the client that sent it.
type ErrorMessage struct {
	Type  string `json:"type"` // "error"
	Error string `json:"error"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans control views out to websocket clients. It implements
// control.Renderer; Render never blocks, a client whose buffer is full misses
// the update and gets the next one.
type Hub struct {
	mu         sync.Mutex
	clients    map[*wsClient]struct{}
	last       []byte
	pingPeriod time.Duration
	upgrader   websocket.Upgrader
}

// NewHub creates a hub pinging clients every pingPeriod.
func NewHub(pingPeriod time.Duration) *Hub {
	if pingPeriod <= 0 {
		pingPeriod = 30 * time.Second
	}
	return &Hub{
		clients:    make(map[*wsClient]struct{}),
		pingPeriod: pingPeriod,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

var _ control.Renderer = (*Hub)(nil)

// Render implements control.Renderer.
func (h *Hub) Render(v control.View) {
	data, err := json.Marshal(ViewMessage{Type: "view", View: v})
	if err != nil {
		slog.Error("Failed to encode view", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = data
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slog.Warn("Websocket client too slow, view update dropped", "remote", c.conn.RemoteAddr().String())
		}
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Serve upgrades the request, sends the latest view and then relays commands
// read from the client to apply until the connection closes.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, apply func(Command) error) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Websocket upgrade failed", "error", err)
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, sendBufferSize)}
	h.register(c)
	slog.Debug("Websocket client connected", "remote", conn.RemoteAddr().String(), "clients", h.Len())

	go h.writePump(c)
	h.readPump(c, apply)
}

func (h *Hub) readPump(c *wsClient, apply func(Command) error) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
		slog.Debug("Websocket client disconnected", "remote", c.conn.RemoteAddr().String())
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * h.pingPeriod))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * h.pingPeriod))
	})

	for {
		var cmd Command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				h.reject(c, err)
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("Websocket read failed", "error", err)
			}
			return
		}
		if err := apply(cmd); err != nil {
			h.reject(c, err)
		}
	}
}

func (h *Hub) reject(c *wsClient, err error) {
	data, _ := json.Marshal(ErrorMessage{Type: "error", Error: err.Error()})
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (h *Hub) writePump(c *wsClient) {
	ticker := time.NewTicker(h.pingPeriod)
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
				slog.Warn("Websocket write failed", "error", err)
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
