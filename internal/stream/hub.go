// Package stream broadcasts freshly computed classifications to
// WebSocket subscribers.
package stream

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/observability"
)

// HubConfig configures subscriber connection behavior.
type HubConfig struct {
	// WriteTimeout is timeout for writing a frame to a subscriber.
	WriteTimeout time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// SendBuffer is the per-subscriber outbound queue size. Slow
	// subscribers that overflow the queue are disconnected.
	SendBuffer int
}

// DefaultHubConfig returns default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		WriteTimeout: 10 * time.Second,
		PingInterval: 30 * time.Second,
		SendBuffer:   16,
	}
}

// Hub fans classification events out to connected subscribers.
type Hub struct {
	config  HubConfig
	metrics *observability.Metrics

	subs   map[*subscriber]struct{}
	subsMu sync.Mutex

	closed atomic.Bool
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a new Hub. Metrics may be nil.
func NewHub(config *HubConfig, metrics *observability.Metrics) *Hub {
	cfg := DefaultHubConfig()
	if config != nil {
		cfg = *config
	}
	return &Hub{
		config:  cfg,
		metrics: metrics,
		subs:    make(map[*subscriber]struct{}),
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// ServeHTTP upgrades the request to a WebSocket connection and
// registers it as a subscriber until the peer disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.closed.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[stream] upgrade failed: %v", err)
		return
	}

	sub := &subscriber{
		conn: conn,
		send: make(chan []byte, h.config.SendBuffer),
	}

	h.subsMu.Lock()
	h.subs[sub] = struct{}{}
	n := len(h.subs)
	h.subsMu.Unlock()
	if h.metrics != nil {
		h.metrics.StreamSubscribers.Set(float64(n))
	}

	go h.writeLoop(sub)
	go h.readLoop(sub)
}

// Broadcast sends a classification to every connected subscriber.
// Subscribers whose queues are full are dropped rather than blocking
// the caller.
func (h *Hub) Broadcast(c *domain.Classification) {
	payload, err := json.Marshal(c)
	if err != nil {
		log.Printf("[stream] marshal classification: %v", err)
		return
	}

	h.subsMu.Lock()
	for sub := range h.subs {
		select {
		case sub.send <- payload:
		default:
			delete(h.subs, sub)
			close(sub.send)
		}
	}
	n := len(h.subs)
	h.subsMu.Unlock()

	if h.metrics != nil {
		h.metrics.StreamBroadcasts.Inc()
		h.metrics.StreamSubscribers.Set(float64(n))
	}
}

// Close disconnects all subscribers. The hub cannot be reused.
func (h *Hub) Close() {
	if !h.closed.CompareAndSwap(false, true) {
		return
	}

	h.subsMu.Lock()
	for sub := range h.subs {
		delete(h.subs, sub)
		close(sub.send)
	}
	h.subsMu.Unlock()

	if h.metrics != nil {
		h.metrics.StreamSubscribers.Set(0)
	}
}

// writeLoop drains the subscriber queue and keeps the connection
// alive with pings. It exits when the queue is closed.
func (h *Hub) writeLoop(sub *subscriber) {
	ticker := time.NewTicker(h.config.PingInterval)
	defer func() {
		ticker.Stop()
		sub.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-sub.send:
			if !ok {
				sub.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					time.Now().Add(h.config.WriteTimeout))
				return
			}
			sub.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := sub.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.remove(sub)
				return
			}
		case <-ticker.C:
			sub.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(sub)
				return
			}
		}
	}
}

// readLoop discards inbound frames so control messages are processed
// and disconnects are noticed promptly.
func (h *Hub) readLoop(sub *subscriber) {
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			h.remove(sub)
			return
		}
	}
}

func (h *Hub) remove(sub *subscriber) {
	h.subsMu.Lock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.send)
	}
	n := len(h.subs)
	h.subsMu.Unlock()

	if h.metrics != nil {
		h.metrics.StreamSubscribers.Set(float64(n))
	}
	sub.conn.Close()
}
