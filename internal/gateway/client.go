package gateway

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	readLimit  = 4096
)

// Client is a single WebSocket peer. With no subscriptions it receives every
// symbol; after a SUBSCRIBE it receives only the named ones.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub

	subMu sync.RWMutex
	subs  map[string]bool
}

// subscribeMsg is the client control message for narrowing the stream.
type subscribeMsg struct {
	Type    string   `json:"type"`
	Symbols []string `json:"symbols"`
	ReqID   string   `json:"req_id,omitempty"`
}

func (c *Client) wantsSymbol(symbol string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	if len(c.subs) == 0 {
		return true
	}
	return c.subs[symbol]
}

// sendInitialState replays the newest report per symbol to a fresh client.
// Reports at or before the lastTS cutoff are skipped.
func (c *Client) sendInitialState(lastTS string) {
	var cutoff time.Time
	if lastTS != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, lastTS); err == nil {
			cutoff = parsed
		}
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	for symbol, entry := range c.hub.latest {
		if !cutoff.IsZero() && !entry.TS.After(cutoff) {
			continue
		}
		select {
		case c.send <- envelope(symbol, entry.Data, entry.TS, entry.Seq, true):
		default:
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			// Batch queued messages into one frame, newline separated.
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(msg)
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.removeClient(c)
		c.conn.Close()
		log.Println("[gateway] ws client disconnected")
	}()

	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var base struct {
			Type string `json:"type"`
			Ping int64  `json:"ping"`
		}
		if json.Unmarshal(msg, &base) != nil {
			continue
		}

		switch base.Type {
		case "SUBSCRIBE":
			var sub subscribeMsg
			if err := json.Unmarshal(msg, &sub); err != nil {
				c.sendError(sub.ReqID, "invalid SUBSCRIBE: "+err.Error())
				continue
			}
			c.handleSubscribe(sub)

		case "UNSUBSCRIBE":
			var unsub subscribeMsg
			if err := json.Unmarshal(msg, &unsub); err != nil {
				continue
			}
			c.handleUnsubscribe(unsub)

		default:
			if base.Ping > 0 {
				pong, _ := json.Marshal(map[string]any{
					"type":      "pong",
					"ping":      base.Ping,
					"server_ts": time.Now().UnixMilli(),
				})
				select {
				case c.send <- pong:
				default:
				}
			}
		}
	}
}

// handleSubscribe narrows the stream to the named symbols and replays the
// newest report for each so the client renders immediately.
func (c *Client) handleSubscribe(msg subscribeMsg) {
	if len(msg.Symbols) == 0 {
		c.sendError(msg.ReqID, "symbols are required")
		return
	}

	c.subMu.Lock()
	for _, s := range msg.Symbols {
		c.subs[s] = true
	}
	c.subMu.Unlock()

	log.Printf("[gateway] client subscribed: symbols=%v", msg.Symbols)

	ack, _ := json.Marshal(map[string]any{
		"type":    "subscribed",
		"symbols": msg.Symbols,
		"req_id":  msg.ReqID,
	})
	select {
	case c.send <- ack:
	default:
	}

	for _, s := range msg.Symbols {
		if entry, ok := c.hub.latestFor(s); ok {
			select {
			case c.send <- envelope(s, entry.Data, entry.TS, entry.Seq, true):
			default:
			}
		}
	}
}

func (c *Client) handleUnsubscribe(msg subscribeMsg) {
	c.subMu.Lock()
	for _, s := range msg.Symbols {
		delete(c.subs, s)
	}
	c.subMu.Unlock()
	log.Printf("[gateway] client unsubscribed: symbols=%v", msg.Symbols)
}

func (c *Client) sendError(reqID, text string) {
	out, _ := json.Marshal(map[string]any{
		"type":   "error",
		"req_id": reqID,
		"error":  text,
	})
	select {
	case c.send <- out:
	default:
	}
}
