package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Angel One credentials for the historical-data provider. All four must
	// be set for backfill; left empty the services run store-only.
	AngelAPIKey     string
	AngelClientCode string
	AngelPassword   string
	AngelTOTPSecret string

	// Infrastructure
	RedisAddr     string
	RedisPassword string
	SQLitePath    string
	MetricsAddr   string
	APIAddr       string

	// Watchlist sources: a YAML file when set, else the WATCHLIST
	// environment fallback ("SYMBOL:TOKEN[:EXCHANGE],...").
	WatchlistPath string
	WatchlistEnv  string

	// Analysis loop
	RefreshSeconds int    // seconds between watchlist sweeps
	HistoryDays    int    // days of bar history per analysis
	BarInterval    string // provider candle interval
	CacheTTLSecs   int    // report cache lifetime in Redis

	// Alerting. Telegram and webhook notifiers activate only when their
	// settings are present; log alerts are always on.
	TelegramBotToken   string
	TelegramChatID     string
	AlertWebhookURL    string
	AlertMinConfidence float64
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AngelAPIKey:     getEnv("ANGEL_API_KEY", ""),
		AngelClientCode: getEnv("ANGEL_CLIENT_CODE", ""),
		AngelPassword:   getEnv("ANGEL_PASSWORD", ""),
		AngelTOTPSecret: getEnv("ANGEL_TOTP_SECRET", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/analysis.db"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		APIAddr:       getEnv("API_ADDR", ":8080"),

		WatchlistPath: getEnv("WATCHLIST_FILE", ""),
		// Default: a small NSE large-cap set
		WatchlistEnv: getEnv("WATCHLIST", "RELIANCE:2885,TCS:11536,INFY:1594"),

		RefreshSeconds: getEnvInt("REFRESH_SECONDS", 300),
		HistoryDays:    getEnvInt("HISTORY_DAYS", 100),
		BarInterval:    getEnv("BAR_INTERVAL", "ONE_DAY"),
		CacheTTLSecs:   getEnvInt("CACHE_TTL_SECONDS", 3600),

		TelegramBotToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:     getEnv("TELEGRAM_CHAT_ID", ""),
		AlertWebhookURL:    getEnv("ALERT_WEBHOOK_URL", ""),
		AlertMinConfidence: getEnvFloat("ALERT_MIN_CONFIDENCE", 0.6),
	}
}

// HasProviderCreds reports whether every Angel One credential is present.
func (c *Config) HasProviderCreds() bool {
	return c.AngelAPIKey != "" && c.AngelClientCode != "" &&
		c.AngelPassword != "" && c.AngelTOTPSecret != ""
}

// WatchItem identifies one instrument to analyze.
type WatchItem struct {
	Symbol   string `yaml:"symbol"`
	Token    string `yaml:"token"`
	Exchange string `yaml:"exchange"`
}

type watchlistFile struct {
	Symbols []WatchItem `yaml:"symbols"`
}

// Watchlist resolves the instrument list: the YAML file when configured,
// otherwise the WATCHLIST environment value.
func (c *Config) Watchlist() ([]WatchItem, error) {
	if c.WatchlistPath != "" {
		return LoadWatchlistFile(c.WatchlistPath)
	}
	return ParseWatchlist(c.WatchlistEnv), nil
}

// LoadWatchlistFile reads a YAML watchlist. Items without an exchange
// default to NSE.
func LoadWatchlistFile(path string) ([]WatchItem, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read watchlist: %w", err)
	}
	var wf watchlistFile
	if err := yaml.Unmarshal(buf, &wf); err != nil {
		return nil, fmt.Errorf("parse watchlist %s: %w", path, err)
	}
	items := make([]WatchItem, 0, len(wf.Symbols))
	for _, it := range wf.Symbols {
		if it.Symbol == "" {
			log.Printf("[config] skipping watchlist entry without a symbol")
			continue
		}
		if it.Exchange == "" {
			it.Exchange = "NSE"
		}
		items = append(items, it)
	}
	return items, nil
}

// ParseWatchlist parses the "SYMBOL:TOKEN[:EXCHANGE]" comma list. Token and
// exchange may be omitted; the exchange defaults to NSE.
func ParseWatchlist(s string) []WatchItem {
	parts := strings.Split(s, ",")
	items := make([]WatchItem, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		fields := strings.SplitN(p, ":", 3)
		it := WatchItem{Symbol: fields[0], Exchange: "NSE"}
		if len(fields) > 1 {
			it.Token = fields[1]
		}
		if len(fields) > 2 && fields[2] != "" {
			it.Exchange = fields[2]
		}
		items = append(items, it)
	}
	return items
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 || f > 1 {
		log.Printf("[config] invalid %s=%q, using %g", key, v, fallback)
		return fallback
	}
	return f
}
