package gateway

import (
	"context"
	"log"

	redisstore "ta-enginev1/internal/store/redis"
)

// Router consumes the report channel pattern and hands payloads to the hub.
type Router struct {
	hub *Hub
}

// NewRouter creates a Router backed by the given Hub.
func NewRouter(hub *Hub) *Router {
	return &Router{hub: hub}
}

// Run subscribes to every report channel and routes messages until ctx is
// cancelled.
func (r *Router) Run(ctx context.Context) {
	pubsub := r.hub.rdb.PSubscribe(ctx, redisstore.ReportChannelPattern)
	defer pubsub.Close()

	log.Printf("[gateway] subscribed to %s", redisstore.ReportChannelPattern)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			symbol, ok := redisstore.SymbolFromReportChannel(msg.Channel)
			if !ok {
				continue
			}
			r.hub.broadcast(symbol, []byte(msg.Payload))
		}
	}
}
