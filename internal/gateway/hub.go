// Package gateway fans freshly published analysis reports out to WebSocket
// subscribers. Reports arrive on the per-symbol Redis pub/sub channels; each
// is wrapped in a light envelope carrying the symbol, a timestamp and a
// per-symbol sequence number so clients can spot gaps and re-fetch over REST.
package gateway

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"

	"ta-enginev1/internal/metrics"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// Hub manages WebSocket clients and the Redis subscription feeding them.
type Hub struct {
	rdb *goredis.Client
	m   *metrics.Metrics // optional

	mu      sync.RWMutex
	clients map[*Client]bool
	latest  map[string]latestEntry // symbol -> newest report
	seqs    map[string]int64       // symbol -> envelope sequence

	router *Router
}

type latestEntry struct {
	Data json.RawMessage
	TS   time.Time
	Seq  int64
}

// NewHub creates a hub. The metrics handle may be nil.
func NewHub(rdb *goredis.Client, m *metrics.Metrics) *Hub {
	h := &Hub{
		rdb:     rdb,
		m:       m,
		clients: make(map[*Client]bool),
		latest:  make(map[string]latestEntry),
		seqs:    make(map[string]int64),
	}
	h.router = NewRouter(h)
	return h
}

// Run consumes the report subscription until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	h.router.Run(ctx)
}

// ServeWS upgrades an HTTP request and registers the client. New clients
// receive every symbol until they narrow it with a SUBSCRIBE message; the
// optional last_ts query parameter suppresses replay of reports the client
// already holds.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[gateway] ws upgrade error: %v", err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
		subs: make(map[string]bool),
	}

	conn.EnableWriteCompression(true)

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()
	h.gaugeClients(count)

	log.Printf("[gateway] ws client connected (%d total)", count)

	go client.sendInitialState(r.URL.Query().Get("last_ts"))
	go client.writePump()
	go client.readPump()
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()
	h.gaugeClients(count)
	close(c.send)
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) gaugeClients(n int) {
	if h.m != nil {
		h.m.WSClients.Set(float64(n))
	}
}

// broadcast wraps one report and fans it out to interested clients. The
// envelope is assembled by hand to keep allocation off this path.
func (h *Hub) broadcast(symbol string, data []byte) {
	now := time.Now().UTC()

	h.mu.Lock()
	h.seqs[symbol]++
	seq := h.seqs[symbol]
	h.latest[symbol] = latestEntry{Data: data, TS: now, Seq: seq}
	h.mu.Unlock()

	env := envelope(symbol, data, now, seq, false)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if !client.wantsSymbol(symbol) {
			continue
		}
		select {
		case client.send <- env:
			if h.m != nil {
				h.m.WSMessagesSent.Inc()
			}
		default:
		}
	}
}

// latestFor returns the newest stored envelope entry for a symbol.
func (h *Hub) latestFor(symbol string) (latestEntry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	e, ok := h.latest[symbol]
	return e, ok
}

// envelope builds the wire frame around one report payload.
func envelope(symbol string, data []byte, ts time.Time, seq int64, initial bool) []byte {
	buf := make([]byte, 0, len(symbol)+len(data)+96)
	buf = append(buf, `{"type":"report","symbol":"`...)
	buf = append(buf, symbol...)
	buf = append(buf, `","data":`...)
	buf = append(buf, data...)
	buf = append(buf, `,"ts":"`...)
	buf = ts.AppendFormat(buf, time.RFC3339Nano)
	buf = append(buf, `","seq":`...)
	buf = strconv.AppendInt(buf, seq, 10)
	if initial {
		buf = append(buf, `,"initial":true`...)
	}
	buf = append(buf, '}')
	return buf
}
