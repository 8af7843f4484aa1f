package taengine

import (
	"fmt"
	"time"

	"ta-enginev1/config"
	"ta-enginev1/internal/marketdata"
)

// Instrument is one watchlist entry to analyze.
type Instrument struct {
	Symbol   string
	Token    string
	Exchange string
}

// Config holds the assembled service configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	SQLitePath    string
	CacheTTL      time.Duration

	Instruments  []Instrument
	RefreshEvery time.Duration
	HistoryDays  int
	Interval     string // provider candle interval, e.g. "ONE_DAY"

	// Angel One credentials. All four present enables provider backfill;
	// otherwise the service runs store-only.
	AngelAPIKey     string
	AngelClientCode string
	AngelPassword   string
	AngelTOTPSecret string

	// Alerting.
	TelegramBotToken   string
	TelegramChatID     string
	AlertWebhookURL    string
	AlertMinConfidence float64
}

// ConfigFromApp maps the application config onto the service config and
// resolves the watchlist.
func ConfigFromApp(app *config.Config) (Config, error) {
	items, err := app.Watchlist()
	if err != nil {
		return Config{}, fmt.Errorf("resolve watchlist: %w", err)
	}
	if len(items) == 0 {
		return Config{}, fmt.Errorf("watchlist is empty")
	}
	instruments := make([]Instrument, len(items))
	for i, it := range items {
		instruments[i] = Instrument{Symbol: it.Symbol, Token: it.Token, Exchange: it.Exchange}
	}

	return Config{
		RedisAddr:     app.RedisAddr,
		RedisPassword: app.RedisPassword,
		SQLitePath:    app.SQLitePath,
		CacheTTL:      time.Duration(app.CacheTTLSecs) * time.Second,

		Instruments:  instruments,
		RefreshEvery: time.Duration(app.RefreshSeconds) * time.Second,
		HistoryDays:  app.HistoryDays,
		Interval:     marketdata.NormalizeInterval(app.BarInterval),

		AngelAPIKey:     app.AngelAPIKey,
		AngelClientCode: app.AngelClientCode,
		AngelPassword:   app.AngelPassword,
		AngelTOTPSecret: app.AngelTOTPSecret,

		TelegramBotToken:   app.TelegramBotToken,
		TelegramChatID:     app.TelegramChatID,
		AlertWebhookURL:    app.AlertWebhookURL,
		AlertMinConfidence: app.AlertMinConfidence,
	}, nil
}

// hasProviderCreds reports whether all Angel One credentials are present.
func (c *Config) hasProviderCreds() bool {
	return c.AngelAPIKey != "" && c.AngelClientCode != "" &&
		c.AngelPassword != "" && c.AngelTOTPSecret != ""
}
