package gateway

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"reconviewer/internal/reportapi"
)

// Observer receives hub events for metrics. *metrics.Metrics implements it.
type Observer interface {
	ClientsConnected(n int)
	ViewPushed()
}

type nopObserver struct{}

func (nopObserver) ClientsConnected(int) {}
func (nopObserver) ViewPushed()          {}

// BackendStats exposes report backend client health. *reportapi.Client
// implements it.
type BackendStats interface {
	Latency(endpoint string) (p50, p95, p99 float64)
	BreakerState() reportapi.BreakerState
}

// Hub manages WebSocket clients and pushes every new session view to them.
type Hub struct {
	session ViewSession
	obs     Observer

	mu      sync.RWMutex
	clients map[*Client]bool

	Broadcaster *Broadcaster
}

// NewHub creates a hub for session. obs may be nil.
func NewHub(session ViewSession, obs Observer) *Hub {
	if obs == nil {
		obs = nopObserver{}
	}
	h := &Hub{
		session: session,
		obs:     obs,
		clients: make(map[*Client]bool),
	}
	h.Broadcaster = NewBroadcaster(h)
	return h
}

// Run forwards session views to clients. Blocks until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	views, cancel := h.session.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case v := <-views:
			h.Broadcaster.Broadcast(v)
		}
	}
}

// HandleWSRequest registers an upgraded connection and sends it the current
// view.
func (h *Hub) HandleWSRequest(conn *websocket.Conn) {
	client := &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, 64),
		view: make(chan []byte, 1),
		hub:  h,
	}

	conn.EnableWriteCompression(true)

	if v := h.session.Snapshot(); v != nil {
		if env, err := viewEnvelope(v, time.Now().UTC()); err == nil {
			client.offerView(env)
		}
	}

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()
	h.clientsChanged(count)

	log.Printf("[api_gateway] ws client %s connected (%d total)", client.id, count)

	go client.writePump()
	go client.readPump()
}

// RemoveClient removes a client from the hub.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()
	close(c.send)
	h.clientsChanged(count)
}

// CloseAll closes every client connection. Used on shutdown, since
// http.Server.Shutdown does not touch hijacked connections.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.conn.Close()
	}
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) clientsChanged(n int) {
	h.obs.ClientsConnected(n)
}

// StartMetricsBroadcast sends process and backend metrics to all WS clients
// every interval.
func (h *Hub) StartMetricsBroadcast(ctx context.Context, start time.Time, stats BackendStats, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			envelope, err := json.Marshal(map[string]interface{}{
				"type":    "metrics",
				"metrics": NewMetricsFrame(start, time.Now(), stats),
			})
			if err != nil {
				continue
			}
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- envelope:
				default:
				}
			}
			h.mu.RUnlock()
		}
	}
}
