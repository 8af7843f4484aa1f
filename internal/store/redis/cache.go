// Package redis caches the latest analysis report per symbol and fans fresh
// reports out to pub/sub subscribers. Writes run through a circuit breaker;
// while the breaker is open, reports are buffered locally (newest per
// symbol) and replayed when it closes.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"ta-enginev1/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const (
	defaultTTL        = time.Hour
	defaultMaxPending = 1000

	breakerFailures = 5
	breakerCoolOff  = 10 * time.Second
)

// LatestKey is the key holding the newest report JSON for a symbol.
func LatestKey(symbol string) string { return "analysis:latest:" + symbol }

// ReportChannel is the pub/sub channel fresh reports are published on.
func ReportChannel(symbol string) string { return reportChannelPrefix + symbol }

// ReportChannelPattern matches every report channel, for PSUBSCRIBE.
const ReportChannelPattern = reportChannelPrefix + "*"

const reportChannelPrefix = "pub:analysis:"

// SymbolFromReportChannel extracts the symbol from a report channel name.
func SymbolFromReportChannel(ch string) (string, bool) {
	if len(ch) <= len(reportChannelPrefix) || ch[:len(reportChannelPrefix)] != reportChannelPrefix {
		return "", false
	}
	return ch[len(reportChannelPrefix):], true
}

// CacheConfig configures the report cache.
type CacheConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration // latest-report lifetime; 0 means one hour
}

// Cache is the Redis-backed report cache. It satisfies the
// model.ReportCache port.
type Cache struct {
	client *goredis.Client
	ttl    time.Duration
	br     *Breaker

	mu         sync.Mutex
	pending    map[string][]byte // symbol -> report JSON buffered while open
	maxPending int

	// OnBuffer, OnFlush and OnBreakerChange, when set, observe outage
	// buffering and breaker transitions (metrics).
	OnBuffer        func()
	OnFlush         func(count int)
	OnBreakerChange func(from, to State)
}

// BreakerState returns the current circuit breaker state.
func (c *Cache) BreakerState() State { return c.br.CurrentState() }

// Client returns the underlying Redis client for health checks and pub/sub.
func (c *Cache) Client() *goredis.Client { return c.client }

// NewCache connects to Redis and pings the server.
func NewCache(cfg CacheConfig) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	c := &Cache{
		client:     client,
		ttl:        ttl,
		br:         NewBreaker(breakerFailures, breakerCoolOff),
		pending:    make(map[string][]byte),
		maxPending: defaultMaxPending,
	}
	c.br.OnStateChange = func(from, to State) {
		log.Printf("[redis] breaker %s -> %s", from, to)
		if c.OnBreakerChange != nil {
			c.OnBreakerChange(from, to)
		}
		if to == Closed {
			go c.flush(context.Background())
		}
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return c, nil
}

// CacheReport stores the report under its symbol with the cache TTL and
// publishes it on the symbol's channel. While the breaker is open the report
// is buffered and replayed later; buffered reports are not an error.
func (c *Cache) CacheReport(ctx context.Context, rep *model.Report) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	err = c.br.Execute(func() error {
		return c.write(ctx, rep.Symbol, data)
	})
	if err == ErrOpen {
		c.buffer(rep.Symbol, data)
		return nil
	}
	return err
}

// CachedReport returns the cached report for a symbol, or nil, nil on a
// cache miss.
func (c *Cache) CachedReport(ctx context.Context, symbol string) (*model.Report, error) {
	data, err := c.client.Get(ctx, LatestKey(symbol)).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", LatestKey(symbol), err)
	}

	var rep model.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("unmarshal cached report: %w", err)
	}
	return &rep, nil
}

// PendingCount returns the number of reports buffered during an outage.
func (c *Cache) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// write performs the SET + PUBLISH pipeline for one report.
func (c *Cache) write(ctx context.Context, symbol string, data []byte) error {
	pipe := c.client.Pipeline()
	pipe.Set(ctx, LatestKey(symbol), data, c.ttl)
	pipe.Publish(ctx, ReportChannel(symbol), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis cache pipeline for %s: %w", symbol, err)
	}
	return nil
}

// buffer keeps the newest report per symbol while the breaker is open.
func (c *Cache) buffer(symbol string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.pending[symbol]; !exists && len(c.pending) >= c.maxPending {
		log.Printf("[redis] pending buffer full, dropping report for %s", symbol)
		return
	}
	c.pending[symbol] = data

	if c.OnBuffer != nil {
		c.OnBuffer()
	}
}

// flush replays buffered reports after the breaker closes.
func (c *Cache) flush(ctx context.Context) {
	c.mu.Lock()
	if len(c.pending) == 0 {
		c.mu.Unlock()
		return
	}
	toFlush := c.pending
	c.pending = make(map[string][]byte)
	c.mu.Unlock()

	flushed := 0
	for symbol, data := range toFlush {
		if err := c.write(ctx, symbol, data); err != nil {
			log.Printf("[redis] replay for %s failed: %v", symbol, err)
			continue
		}
		flushed++
	}

	log.Printf("[redis] replayed %d buffered reports", flushed)
	if c.OnFlush != nil {
		c.OnFlush(flushed)
	}
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
