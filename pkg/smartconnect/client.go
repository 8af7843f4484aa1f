// Package smartconnect implements the slice of the Angel One SmartAPI that
// the analysis engine needs: password+TOTP session management, token refresh
// and market data reads (historical candles, LTP quotes, scrip search).
// Routes, headers and session handling follow the vendor's published HTTP
// contract.
//
// Usage:
//
//	sc := smartconnect.NewSmartConnect(smartconnect.Config{APIKey: "your_api_key"})
//	if _, err := sc.GenerateSessionWithTOTP("CLIENTCODE", "password", "TOTPSECRET"); err != nil {
//		log.Fatal(err)
//	}
//	rows, err := sc.GetCandleData(smartconnect.CandleQuery{
//		Exchange: "NSE", SymbolToken: "3045", Interval: "ONE_DAY",
//		From: time.Now().AddDate(0, 0, -100), To: time.Now(),
//	})
package smartconnect

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"
)

// ---- Config & client ----

type Config struct {
	APIKey       string
	AccessToken  string
	RefreshToken string
	FeedToken    string
	UserID       string

	RootURL    string        // default: https://apiconnect.angelone.in
	Debug      bool          // log request/response lines (never bodies or headers)
	Timeout    time.Duration // default: 7s
	ProxyURL   string        // optional HTTP proxy URL
	DisableSSL bool          // if true, InsecureSkipVerify
	Accept     string        // default: application/json
	UserType   string        // default: USER
	SourceID   string        // default: WEB

	// Identity headers the API requires on every call. Resolved from the
	// host when left empty.
	ClientPublicIP string
	ClientLocalIP  string
	ClientMAC      string
}

type SmartConnect struct {
	apiKey       string
	accessToken  string
	refreshToken string
	feedToken    string
	userID       string

	rootURL string
	debug   bool
	timeout time.Duration

	httpClient *http.Client

	accept   string
	userType string
	sourceID string

	clientPublicIP string
	clientLocalIP  string
	clientMAC      string

	// SessionExpiryHook is called when the API rejects a request with a
	// 403 TokenException, so callers can renew or re-login.
	SessionExpiryHook func()
}

const (
	defaultRoot    = "https://apiconnect.angelone.in"
	defaultTimeout = 7 * time.Second

	// Identity header fallbacks when host discovery fails.
	fallbackPublicIP = "106.193.147.98"
	fallbackLocalIP  = "127.0.0.1"
	fallbackMAC      = "00:11:22:33:44:55"
)

var routes = map[string]string{
	"api.login":        "/rest/auth/angelbroking/user/v1/loginByPassword",
	"api.logout":       "/rest/secure/angelbroking/user/v1/logout",
	"api.token":        "/rest/auth/angelbroking/jwt/v1/generateTokens",
	"api.user.profile": "/rest/secure/angelbroking/user/v1/getProfile",

	"api.candle.data":  "/rest/secure/angelbroking/historical/v1/getCandleData",
	"api.ltp.data":     "/rest/secure/angelbroking/order/v1/getLtpData",
	"api.search.scrip": "/rest/secure/angelbroking/order/v1/searchScrip",
}

// NewSmartConnect initializes the client and resolves the identity headers
// the API expects on every request.
func NewSmartConnect(cfg Config) *SmartConnect {
	if cfg.RootURL == "" {
		cfg.RootURL = defaultRoot
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Accept == "" {
		cfg.Accept = "application/json"
	}
	if cfg.UserType == "" {
		cfg.UserType = "USER"
	}
	if cfg.SourceID == "" {
		cfg.SourceID = "WEB"
	}
	if cfg.ClientLocalIP == "" {
		cfg.ClientLocalIP = firstNonEmpty(localIP(), fallbackLocalIP)
	}
	if cfg.ClientPublicIP == "" {
		cfg.ClientPublicIP = firstNonEmpty(publicIP(cfg.Timeout), fallbackPublicIP)
	}
	if cfg.ClientMAC == "" {
		cfg.ClientMAC = macAddress()
	}

	tr := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: cfg.DisableSSL,
		},
	}
	if cfg.ProxyURL != "" {
		if purl, err := url.Parse(cfg.ProxyURL); err == nil {
			tr.Proxy = http.ProxyURL(purl)
		}
	}

	return &SmartConnect{
		apiKey:         cfg.APIKey,
		accessToken:    cfg.AccessToken,
		refreshToken:   cfg.RefreshToken,
		feedToken:      cfg.FeedToken,
		userID:         cfg.UserID,
		rootURL:        strings.TrimRight(cfg.RootURL, "/"),
		debug:          cfg.Debug,
		timeout:        cfg.Timeout,
		httpClient:     &http.Client{Transport: tr, Timeout: cfg.Timeout},
		accept:         cfg.Accept,
		userType:       cfg.UserType,
		sourceID:       cfg.SourceID,
		clientPublicIP: cfg.ClientPublicIP,
		clientLocalIP:  cfg.ClientLocalIP,
		clientMAC:      cfg.ClientMAC,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// localIP returns the first non-loopback IPv4 address of the host.
func localIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok && !ipNet.IP.IsLoopback() && ipNet.IP.To4() != nil {
			return ipNet.IP.String()
		}
	}
	return ""
}

// publicIP asks an external echo service for the host's public address.
func publicIP(timeout time.Duration) string {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get("https://api.ipify.org?format=text")
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	ip, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(ip))
}

func macAddress() string {
	ifs, _ := net.Interfaces()
	for _, ifc := range ifs {
		if len(ifc.HardwareAddr) > 0 {
			return ifc.HardwareAddr.String()
		}
	}
	return fallbackMAC
}

// ---- Request plumbing ----

func (sc *SmartConnect) requestHeaders() http.Header {
	h := http.Header{}
	h.Set("Content-Type", sc.accept)
	h.Set("Accept", sc.accept)
	h.Set("X-ClientLocalIP", sc.clientLocalIP)
	h.Set("X-ClientPublicIP", sc.clientPublicIP)
	h.Set("X-MACAddress", sc.clientMAC)
	h.Set("X-PrivateKey", sc.apiKey)
	h.Set("X-UserType", sc.userType)
	h.Set("X-SourceID", sc.sourceID)
	if sc.accessToken != "" {
		h.Set("Authorization", "Bearer "+sc.accessToken)
	}
	return h
}

func (sc *SmartConnect) buildURL(route string) (string, error) {
	uri, ok := routes[route]
	if !ok {
		return "", fmt.Errorf("unknown route: %s", route)
	}
	return sc.rootURL + uri, nil
}

func (sc *SmartConnect) doRequest(method, route string, params map[string]any) (map[string]any, error) {
	fullURL, err := sc.buildURL(route)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	reqURL := fullURL

	if method == http.MethodGet {
		if len(params) > 0 {
			q := url.Values{}
			for k, v := range params {
				q.Set(k, toString(v))
			}
			reqURL += "?" + q.Encode()
		}
	} else {
		if params == nil {
			params = map[string]any{}
		}
		b, _ := json.Marshal(params)
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, reqURL, body)
	if err != nil {
		return nil, err
	}
	req.Header = sc.requestHeaders()

	if sc.debug {
		log.Printf("[smartconnect] %s %s", method, fullURL)
	}

	resp, err := sc.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if sc.debug {
		log.Printf("[smartconnect] %s %s -> %d (%d bytes)", method, fullURL, resp.StatusCode, len(raw))
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("couldn't parse JSON response (status %d): %w", resp.StatusCode, err)
	}

	// API errors come back as {"error_type": "TokenException", "message": "..."}.
	if et, ok := out["error_type"].(string); ok && et != "" {
		if sc.SessionExpiryHook != nil && resp.StatusCode == http.StatusForbidden && et == "TokenException" {
			sc.SessionExpiryHook()
		}
		msg, _ := out["message"].(string)
		return out, fmt.Errorf("%s: %s", et, msg)
	}
	return out, nil
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

func (sc *SmartConnect) get(route string, params map[string]any) (map[string]any, error) {
	return sc.doRequest(http.MethodGet, route, params)
}

func (sc *SmartConnect) post(route string, params map[string]any) (map[string]any, error) {
	return sc.doRequest(http.MethodPost, route, params)
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}

// ---- Session state ----

func (sc *SmartConnect) SetUserID(id string)      { sc.userID = id }
func (sc *SmartConnect) GetUserID() string        { return sc.userID }
func (sc *SmartConnect) SetAccessToken(t string)  { sc.accessToken = t }
func (sc *SmartConnect) SetRefreshToken(t string) { sc.refreshToken = t }
func (sc *SmartConnect) SetFeedToken(t string)    { sc.feedToken = t }
func (sc *SmartConnect) GetFeedToken() string     { return sc.feedToken }

// ---- Session methods ----

// GenerateSession logs in with client code, password and a one-time TOTP
// code, stores the returned tokens on the client and returns the user
// profile payload.
func (sc *SmartConnect) GenerateSession(clientCode, password, totpCode string) (map[string]any, error) {
	params := map[string]any{"clientcode": clientCode, "password": password, "totp": totpCode}
	res, err := sc.post("api.login", params)
	if err != nil {
		return res, err
	}

	st, _ := res["status"].(bool)
	if !st {
		msg, _ := res["message"].(string)
		return res, fmt.Errorf("login failed: %s", msg)
	}
	data, ok := res["data"].(map[string]any)
	if !ok {
		return res, errors.New("unexpected login response format")
	}

	jwtToken := asString(data["jwtToken"])
	refreshToken := asString(data["refreshToken"])
	feedToken := asString(data["feedToken"])

	sc.SetAccessToken(jwtToken)
	sc.SetRefreshToken(refreshToken)
	sc.SetFeedToken(feedToken)

	user, err := sc.GetProfile(refreshToken)
	if err != nil {
		return user, err
	}

	if udata, ok := user["data"].(map[string]any); ok {
		if cc := asString(udata["clientcode"]); cc != "" {
			sc.SetUserID(cc)
		}
		udata["jwtToken"] = "Bearer " + jwtToken
		udata["refreshToken"] = refreshToken
		udata["feedToken"] = feedToken
		user["data"] = udata
	}

	return user, nil
}

// GenerateSessionWithTOTP computes the current TOTP code from the shared
// secret and logs in with it.
func (sc *SmartConnect) GenerateSessionWithTOTP(clientCode, password, totpSecret string) (map[string]any, error) {
	code, err := totp.GenerateCode(totpSecret, time.Now())
	if err != nil {
		return nil, fmt.Errorf("totp generation failed: %w", err)
	}
	return sc.GenerateSession(clientCode, password, code)
}

func (sc *SmartConnect) TerminateSession(clientCode string) (map[string]any, error) {
	return sc.post("api.logout", map[string]any{"clientcode": clientCode})
}

// RenewAccessToken exchanges the refresh token for fresh session tokens and
// updates the client in place.
func (sc *SmartConnect) RenewAccessToken() error {
	res, err := sc.post("api.token", map[string]any{
		"jwtToken":     sc.accessToken,
		"refreshToken": sc.refreshToken,
	})
	if err != nil {
		return err
	}
	data, ok := res["data"].(map[string]any)
	if !ok {
		return errors.New("unexpected token response format")
	}
	if jwt := asString(data["jwtToken"]); jwt != "" {
		sc.SetAccessToken(jwt)
	}
	if rt := asString(data["refreshToken"]); rt != "" {
		sc.SetRefreshToken(rt)
	}
	if ft := asString(data["feedToken"]); ft != "" {
		sc.SetFeedToken(ft)
	}
	return nil
}

func (sc *SmartConnect) GetProfile(refreshToken string) (map[string]any, error) {
	return sc.get("api.user.profile", map[string]any{"refreshToken": refreshToken})
}

// ---- Market data methods ----

// candleTimeLayout is the timestamp format the historical API expects.
const candleTimeLayout = "2006-01-02 15:04"

// CandleQuery identifies one historical candle window.
type CandleQuery struct {
	Exchange    string
	SymbolToken string
	Interval    string // ONE_MINUTE, FIVE_MINUTE, ... ONE_DAY
	From        time.Time
	To          time.Time
}

// GetCandleData fetches historical OHLCV rows. Each row is
// [timestamp, open, high, low, close, volume] exactly as the API returns it.
func (sc *SmartConnect) GetCandleData(q CandleQuery) ([][]any, error) {
	res, err := sc.post("api.candle.data", map[string]any{
		"exchange":    q.Exchange,
		"symboltoken": q.SymbolToken,
		"interval":    q.Interval,
		"fromdate":    q.From.Format(candleTimeLayout),
		"todate":      q.To.Format(candleTimeLayout),
	})
	if err != nil {
		return nil, err
	}
	if st, _ := res["status"].(bool); !st {
		msg, _ := res["message"].(string)
		return nil, fmt.Errorf("candle data request failed: %s", msg)
	}
	if res["data"] == nil {
		return nil, nil
	}
	data, ok := res["data"].([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected candle data format: %T", res["data"])
	}
	rows := make([][]any, 0, len(data))
	for _, r := range data {
		row, ok := r.([]any)
		if !ok {
			return nil, fmt.Errorf("unexpected candle row format: %T", r)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LTPQuote is a last-traded-price snapshot for one instrument.
type LTPQuote struct {
	Exchange      string
	TradingSymbol string
	SymbolToken   string
	Open          float64
	High          float64
	Low           float64
	Close         float64
	LTP           float64
}

// GetLTP fetches the last traded price for one instrument.
func (sc *SmartConnect) GetLTP(exchange, tradingSymbol, symbolToken string) (*LTPQuote, error) {
	res, err := sc.post("api.ltp.data", map[string]any{
		"exchange":      exchange,
		"tradingsymbol": tradingSymbol,
		"symboltoken":   symbolToken,
	})
	if err != nil {
		return nil, err
	}
	if st, _ := res["status"].(bool); !st {
		msg, _ := res["message"].(string)
		return nil, fmt.Errorf("ltp request failed: %s", msg)
	}
	data, ok := res["data"].(map[string]any)
	if !ok {
		return nil, errors.New("unexpected ltp response format")
	}
	return &LTPQuote{
		Exchange:      asString(data["exchange"]),
		TradingSymbol: asString(data["tradingsymbol"]),
		SymbolToken:   asString(data["symboltoken"]),
		Open:          asFloat(data["open"]),
		High:          asFloat(data["high"]),
		Low:           asFloat(data["low"]),
		Close:         asFloat(data["close"]),
		LTP:           asFloat(data["ltp"]),
	}, nil
}

// ScripMatch is one instrument returned by scrip search.
type ScripMatch struct {
	Exchange      string
	TradingSymbol string
	SymbolToken   string
}

// SearchScrip looks up instruments matching a symbol fragment on one exchange.
func (sc *SmartConnect) SearchScrip(exchange, query string) ([]ScripMatch, error) {
	res, err := sc.post("api.search.scrip", map[string]any{
		"exchange":    exchange,
		"searchscrip": query,
	})
	if err != nil {
		return nil, err
	}
	if st, _ := res["status"].(bool); !st {
		msg, _ := res["message"].(string)
		return nil, fmt.Errorf("scrip search failed: %s", msg)
	}
	if res["data"] == nil {
		return nil, nil
	}
	data, ok := res["data"].([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected scrip search format: %T", res["data"])
	}
	matches := make([]ScripMatch, 0, len(data))
	for _, r := range data {
		row, ok := r.(map[string]any)
		if !ok {
			continue
		}
		matches = append(matches, ScripMatch{
			Exchange:      asString(row["exchange"]),
			TradingSymbol: asString(row["tradingsymbol"]),
			SymbolToken:   asString(row["symboltoken"]),
		})
	}
	return matches, nil
}
