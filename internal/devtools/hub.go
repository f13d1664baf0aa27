package devtools

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/reactor/pkg/reactive"
)

// MessageType identifies a message sent to WebSocket clients.
type MessageType string

const (
	MessageHello MessageType = "hello"
	MessageEvent MessageType = "event"
)

// Message is the JSON frame sent to WebSocket clients.
type Message struct {
	Type      MessageType `json:"type"`
	Client    string      `json:"client,omitempty"`
	Kind      string      `json:"kind,omitempty"`
	Runtime   string      `json:"runtime,omitempty"`
	Pass      uint64      `json:"pass,omitempty"`
	Node      string      `json:"node,omitempty"`
	DirtySize int         `json:"dirty_size,omitempty"`
	Changed   bool        `json:"changed,omitempty"`
	Duration  int64       `json:"duration_ns,omitempty"`
	Reason    string      `json:"reason,omitempty"`
	Error     string      `json:"error,omitempty"`
}

func messageFor(e reactive.Event) Message {
	msg := Message{
		Type:      MessageEvent,
		Kind:      e.Kind.String(),
		Runtime:   e.Runtime,
		Pass:      e.Pass,
		DirtySize: e.DirtySize,
		Changed:   e.Changed,
		Duration:  int64(e.Duration),
		Reason:    e.Reason,
	}
	if !e.Node.Handle.IsZero() {
		msg.Node = e.Node.String()
	}
	if e.Err != nil {
		msg.Error = e.Err.Error()
	}
	return msg
}

const defaultHubBuffer = 256

// Hub fans runtime events out to WebSocket clients.
//
// Observe never blocks the runtime: events are queued on a buffered channel
// and dropped when it is full. Run drains the queue and broadcasts.
type Hub struct {
	events   chan Message
	dropped  atomic.Uint64
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*websocket.Conn
}

// NewHub creates a hub whose queue holds buffer events. A non-positive
// buffer selects the default.
func NewHub(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultHubBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		events:  make(chan Message, buffer),
		logger:  logger,
		clients: make(map[string]*websocket.Conn),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // local inspector
			},
		},
	}
}

// Observe implements reactive.Observer.
func (h *Hub) Observe(e reactive.Event) {
	select {
	case h.events <- messageFor(e):
	default:
		h.dropped.Add(1)
	}
}

// Dropped returns how many events were discarded because the queue was full.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Run broadcasts queued events until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer h.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-h.events:
			h.broadcast(msg)
		}
	}
}

// HandleWebSocket upgrades the request and registers the connection until
// the client goes away.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("devtools: upgrade failed", "error", err)
		return
	}

	id := uuid.NewString()
	if err := conn.WriteJSON(Message{Type: MessageHello, Client: id}); err != nil {
		conn.Close()
		return
	}

	h.mu.Lock()
	h.clients[id] = conn
	h.mu.Unlock()
	h.logger.Debug("devtools: client connected", "client", id)

	// Keep the connection until the client disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(id, conn)
	h.logger.Debug("devtools: client disconnected", "client", id)
}

func (h *Hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := make(map[string]*websocket.Conn, len(h.clients))
	for id, conn := range h.clients {
		clients[id] = conn
	}
	h.mu.RUnlock()

	for id, conn := range clients {
		conn.SetWriteDeadline(time.Now().Add(time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.remove(id, conn)
		}
	}
}

func (h *Hub) remove(id string, conn *websocket.Conn) {
	h.mu.Lock()
	if h.clients[id] == conn {
		delete(h.clients, id)
	}
	h.mu.Unlock()
	conn.Close()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close closes all client connections.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, conn := range h.clients {
		conn.Close()
		delete(h.clients, id)
	}
}
