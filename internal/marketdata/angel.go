// Package marketdata converts external bar data into the engine's input
// types: provider candle arrays into Bars, and CSV/JSON files into raw
// Records for the series validator.
package marketdata

import (
	"fmt"
	"log"
	"sync"
	"time"

	"ta-enginev1/internal/model"
	"ta-enginev1/pkg/smartconnect"
)

// BarsFromCandles converts provider candle rows into Bars. Each row is
// [timestamp, open, high, low, close, volume] with an RFC 3339 timestamp.
func BarsFromCandles(rows [][]any) ([]model.Bar, error) {
	bars := make([]model.Bar, 0, len(rows))
	for i, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("candle row %d: want 6 fields, got %d", i, len(row))
		}
		ts, ok := row[0].(string)
		if !ok {
			return nil, fmt.Errorf("candle row %d: timestamp is %T, want string", i, row[0])
		}
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("candle row %d: bad timestamp %q: %w", i, ts, err)
		}

		var vals [5]float64
		for j := 1; j < 6; j++ {
			f, ok := row[j].(float64)
			if !ok {
				return nil, fmt.Errorf("candle row %d: field %d is %T, want number", i, j, row[j])
			}
			vals[j-1] = f
		}

		bars = append(bars, model.Bar{
			Timestamp: t,
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
			Volume:    vals[4],
		})
	}
	return bars, nil
}

// intervalAliases maps short interval names to the provider's constants.
var intervalAliases = map[string]string{
	"1m":  "ONE_MINUTE",
	"3m":  "THREE_MINUTE",
	"5m":  "FIVE_MINUTE",
	"10m": "TEN_MINUTE",
	"15m": "FIFTEEN_MINUTE",
	"30m": "THIRTY_MINUTE",
	"1h":  "ONE_HOUR",
	"1d":  "ONE_DAY",
}

// NormalizeInterval maps short interval names ("1d", "5m") to the provider's
// native constants. Unrecognized values pass through unchanged.
func NormalizeInterval(s string) string {
	if native, ok := intervalAliases[s]; ok {
		return native
	}
	return s
}

// intervalSpans gives the bar span per provider interval, used for staleness
// checks against the newest stored bar.
var intervalSpans = map[string]time.Duration{
	"ONE_MINUTE":     time.Minute,
	"THREE_MINUTE":   3 * time.Minute,
	"FIVE_MINUTE":    5 * time.Minute,
	"TEN_MINUTE":     10 * time.Minute,
	"FIFTEEN_MINUTE": 15 * time.Minute,
	"THIRTY_MINUTE":  30 * time.Minute,
	"ONE_HOUR":       time.Hour,
	"ONE_DAY":        24 * time.Hour,
}

// IntervalDuration returns the bar span for an interval name, defaulting to
// one day for unknown values.
func IntervalDuration(interval string) time.Duration {
	if d, ok := intervalSpans[NormalizeInterval(interval)]; ok {
		return d
	}
	return 24 * time.Hour
}

// ProviderConfig holds the credentials and candle interval for one session.
type ProviderConfig struct {
	ClientCode string
	Password   string
	TOTPSecret string
	Interval   string // provider-native, e.g. ONE_DAY
}

// Provider wraps a SmartConnect session for candle backfill and quotes.
// A fresh TOTP login happens lazily on first use; when the API reports an
// expired session the next call renews or re-logs-in before retrying once.
type Provider struct {
	sc  *smartconnect.SmartConnect
	cfg ProviderConfig

	mu         sync.Mutex
	sessionOK  bool
	everLogged bool
}

// NewProvider wires a provider around an existing SmartConnect client.
func NewProvider(sc *smartconnect.SmartConnect, cfg ProviderConfig) *Provider {
	if cfg.Interval == "" {
		cfg.Interval = "ONE_DAY"
	}
	p := &Provider{sc: sc, cfg: cfg}
	sc.SessionExpiryHook = func() {
		p.mu.Lock()
		p.sessionOK = false
		p.mu.Unlock()
		log.Printf("[provider] session expired, will renew on next call")
	}
	return p
}

// EnsureSession makes sure the client holds a live session. After an expiry
// it first tries the cheap token renew and falls back to a fresh TOTP login.
func (p *Provider) EnsureSession() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sessionOK {
		return nil
	}

	if p.everLogged {
		err := p.sc.RenewAccessToken()
		if err == nil {
			p.sessionOK = true
			log.Printf("[provider] session renewed")
			return nil
		}
		log.Printf("[provider] token renew failed: %v, falling back to login", err)
	}

	if _, err := p.sc.GenerateSessionWithTOTP(p.cfg.ClientCode, p.cfg.Password, p.cfg.TOTPSecret); err != nil {
		return fmt.Errorf("provider login: %w", err)
	}
	p.sessionOK = true
	p.everLogged = true
	log.Printf("[provider] session ready for %s", p.cfg.ClientCode)
	return nil
}

func (p *Provider) sessionLive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessionOK
}

// Bars fetches historical bars for one instrument token over [from, to].
func (p *Provider) Bars(exchange, token string, from, to time.Time) ([]model.Bar, error) {
	if err := p.EnsureSession(); err != nil {
		return nil, err
	}
	q := smartconnect.CandleQuery{
		Exchange:    exchange,
		SymbolToken: token,
		Interval:    p.cfg.Interval,
		From:        from,
		To:          to,
	}
	rows, err := p.sc.GetCandleData(q)
	if err != nil && !p.sessionLive() {
		// Session died mid-call; renew and retry once.
		if rerr := p.EnsureSession(); rerr == nil {
			rows, err = p.sc.GetCandleData(q)
		}
	}
	if err != nil {
		return nil, err
	}
	return BarsFromCandles(rows)
}

// Quote fetches the last traded price for one instrument.
func (p *Provider) Quote(exchange, tradingSymbol, token string) (*smartconnect.LTPQuote, error) {
	if err := p.EnsureSession(); err != nil {
		return nil, err
	}
	q, err := p.sc.GetLTP(exchange, tradingSymbol, token)
	if err != nil && !p.sessionLive() {
		if rerr := p.EnsureSession(); rerr == nil {
			q, err = p.sc.GetLTP(exchange, tradingSymbol, token)
		}
	}
	return q, err
}

// ResolveToken looks up the instrument token for a symbol, preferring the
// exact equity series match ("SYMBOL-EQ") over partial hits.
func (p *Provider) ResolveToken(exchange, symbol string) (string, error) {
	if err := p.EnsureSession(); err != nil {
		return "", err
	}
	matches, err := p.sc.SearchScrip(exchange, symbol)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no instrument found for %s on %s", symbol, exchange)
	}
	for _, m := range matches {
		if m.TradingSymbol == symbol+"-EQ" || m.TradingSymbol == symbol {
			return m.SymbolToken, nil
		}
	}
	return matches[0].SymbolToken, nil
}

// Close logs the session out if one was ever established.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.everLogged {
		return nil
	}
	p.sessionOK = false
	if _, err := p.sc.TerminateSession(p.cfg.ClientCode); err != nil {
		return err
	}
	return nil
}
