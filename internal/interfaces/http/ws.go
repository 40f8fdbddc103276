package http

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/arcticwatch/reescan/internal/score"
)

// Hub broadcasts ranking snapshots to connected websocket clients. Clients
// receive the current snapshot on connect and every snapshot after that;
// they send nothing meaningful back.
type Hub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]bool
	upgrader websocket.Upgrader
	metrics  *MetricsRegistry
}

// NewHub creates a hub reporting client counts to the given metrics.
func NewHub(metrics *MetricsRegistry) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		metrics: metrics,
	}
}

// ServeWS upgrades the connection and registers the client.
func (h *Hub) ServeWS(state *State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		// Send the current snapshot before joining the broadcast set.
		// Once registered, Broadcast owns writes to this conn; a second
		// writer here would trip gorilla's one-writer rule.
		if snap, ok := state.Snapshot(); ok {
			if data, err := json.Marshal(snap); err == nil {
				_ = conn.WriteMessage(websocket.TextMessage, data)
			}
		}

		h.register(conn)

		// Reader loop: the client sends nothing we act on, but reading
		// is how close frames get processed.
		go func() {
			defer h.unregister(conn)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}

// Broadcast pushes a snapshot to every connected client, dropping clients
// whose writes fail.
func (h *Hub) Broadcast(snap score.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal snapshot for broadcast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			delete(h.clients, conn)
			conn.Close()
		}
	}
	h.metrics.WSClients.Set(float64(len(h.clients)))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	h.metrics.WSClients.Set(float64(len(h.clients)))
	h.mu.Unlock()
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if h.clients[conn] {
		delete(h.clients, conn)
		conn.Close()
	}
	h.metrics.WSClients.Set(float64(len(h.clients)))
	h.mu.Unlock()
}
