package marketdata

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"

	"ta-enginev1/internal/series"
	"ta-enginev1/pkg/smartconnect"
)

// ──────────────────────────────────────────────
// Candle conversion
// ──────────────────────────────────────────────

func TestBarsFromCandles(t *testing.T) {
	rows := [][]any{
		{"2026-08-20T00:00:00+05:30", 100.0, 105.0, 99.0, 103.0, 1200000.0},
		{"2026-08-21T00:00:00+05:30", 103.0, 108.0, 102.0, 107.5, 900000.0},
	}

	bars, err := BarsFromCandles(rows)
	if err != nil {
		t.Fatalf("BarsFromCandles: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("bars = %d, want 2", len(bars))
	}

	ist := time.FixedZone("IST", 5*3600+30*60)
	want := time.Date(2026, 8, 20, 0, 0, 0, 0, ist)
	if !bars[0].Timestamp.Equal(want) {
		t.Errorf("first timestamp = %v, want %v", bars[0].Timestamp, want)
	}
	if bars[1].Close != 107.5 {
		t.Errorf("second close = %v, want 107.5", bars[1].Close)
	}
	if bars[0].Volume != 1200000 {
		t.Errorf("first volume = %v, want 1200000", bars[0].Volume)
	}
}

func TestBarsFromCandles_RejectsMalformedRows(t *testing.T) {
	if _, err := BarsFromCandles([][]any{{"2026-08-20T00:00:00+05:30", 100.0, 105.0}}); err == nil {
		t.Error("expected error for short row")
	}
	if _, err := BarsFromCandles([][]any{{"not-a-time", 100.0, 105.0, 99.0, 103.0, 1.0}}); err == nil {
		t.Error("expected error for bad timestamp")
	}
	if _, err := BarsFromCandles([][]any{{"2026-08-20T00:00:00+05:30", "100", 105.0, 99.0, 103.0, 1.0}}); err == nil {
		t.Error("expected error for non-numeric price")
	}
}

func TestNormalizeInterval(t *testing.T) {
	cases := map[string]string{
		"1d":      "ONE_DAY",
		"5m":      "FIVE_MINUTE",
		"1h":      "ONE_HOUR",
		"ONE_DAY": "ONE_DAY",
		"weird":   "weird",
	}
	for in, want := range cases {
		if got := NormalizeInterval(in); got != want {
			t.Errorf("NormalizeInterval(%q) = %q, want %q", in, got, want)
		}
	}
}

// ──────────────────────────────────────────────
// File loaders
// ──────────────────────────────────────────────

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeTemp(t, "bars.csv", strings.Join([]string{
		"Date,Open,High,Low,Close,Volume",
		"2026-08-19,100,104,99,103,1200000",
		"2026-08-20,103,108,102,107.5,900000",
		"2026-08-18,98,101,97,100,1500000",
	}, "\n"))

	recs, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("records = %d, want 3", len(recs))
	}
	if recs[0]["Date"] != "2026-08-19" {
		t.Errorf("Date = %v, want the raw string", recs[0]["Date"])
	}
	if recs[0]["Close"] != 103.0 {
		t.Errorf("Close = %v (%T), want float64 103", recs[0]["Close"], recs[0]["Close"])
	}

	// The validator should accept loader output directly and time-sort it.
	bars, err := series.FromRecords(recs)
	if err != nil {
		t.Fatalf("FromRecords on loader output: %v", err)
	}
	if bars[0].Close != 100 {
		t.Errorf("earliest bar close = %v, want 100 (2026-08-18 row)", bars[0].Close)
	}
}

func TestLoadCSV_HeaderOnly(t *testing.T) {
	path := writeTemp(t, "empty.csv", "Date,Open,High,Low,Close,Volume\n")
	recs, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("records = %d, want 0", len(recs))
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeTemp(t, "bars.json", `[
		{"date": "2026-08-19", "open": 100, "high": 104, "low": 99, "close": 103, "volume": 1200000},
		{"date": "2026-08-20", "open": 103, "high": 108, "low": 102, "close": 107.5, "volume": 900000}
	]`)

	recs, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	if recs[1]["close"] != 107.5 {
		t.Errorf("close = %v, want 107.5", recs[1]["close"])
	}
}

func TestLoadJSON_RejectsNonArray(t *testing.T) {
	path := writeTemp(t, "bad.json", `{"data": []}`)
	if _, err := LoadJSON(path); err == nil {
		t.Error("expected error for non-array JSON")
	}
}

func TestLoadFile_UnsupportedExtension(t *testing.T) {
	path := writeTemp(t, "bars.txt", "whatever")
	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

// ──────────────────────────────────────────────
// Provider session lifecycle
// ──────────────────────────────────────────────

const testTOTPSecret = "JBSWY3DPEHPK3PXP"

type fakeAngel struct {
	mu              sync.Mutex
	logins          int
	renews          int
	candleCalls     int
	failFirstCandle bool
}

func (f *fakeAngel) counts() (logins, renews, candles int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logins, f.renews, f.candleCalls
}

func (f *fakeAngel) handler(t *testing.T) http.Handler {
	t.Helper()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/rest/auth/angelbroking/user/v1/loginByPassword", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.logins++
		f.mu.Unlock()
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		code, _ := body["totp"].(string)
		if !totp.Validate(code, testTOTPSecret) {
			writeJSON(w, map[string]any{"status": false, "message": "invalid totp"})
			return
		}
		writeJSON(w, map[string]any{
			"status": true,
			"data":   map[string]any{"jwtToken": "jwt-1", "refreshToken": "refresh-1", "feedToken": "feed-1"},
		})
	})
	mux.HandleFunc("/rest/secure/angelbroking/user/v1/getProfile", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"status": true, "data": map[string]any{"clientcode": "A123"}})
	})
	mux.HandleFunc("/rest/auth/angelbroking/jwt/v1/generateTokens", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.renews++
		f.mu.Unlock()
		writeJSON(w, map[string]any{
			"status": true,
			"data":   map[string]any{"jwtToken": "jwt-2", "refreshToken": "refresh-2", "feedToken": "feed-2"},
		})
	})
	mux.HandleFunc("/rest/secure/angelbroking/historical/v1/getCandleData", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.candleCalls++
		n := f.candleCalls
		fail := f.failFirstCandle
		f.mu.Unlock()
		if fail && n == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]any{"error_type": "TokenException", "message": "Token expired"})
			return
		}
		writeJSON(w, map[string]any{
			"status": true,
			"data": []any{
				[]any{"2026-08-20T00:00:00+05:30", 100.0, 105.0, 99.0, 103.0, 1200000.0},
				[]any{"2026-08-21T00:00:00+05:30", 103.0, 108.0, 102.0, 107.5, 900000.0},
			},
		})
	})
	mux.HandleFunc("/rest/secure/angelbroking/order/v1/searchScrip", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"status": true,
			"data": []any{
				map[string]any{"exchange": "NSE", "tradingsymbol": "SBIN-BE", "symboltoken": "4884"},
				map[string]any{"exchange": "NSE", "tradingsymbol": "SBIN-EQ", "symboltoken": "3045"},
			},
		})
	})
	mux.HandleFunc("/rest/secure/angelbroking/user/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"status": true})
	})
	return mux
}

func newTestProvider(t *testing.T, fake *fakeAngel) *Provider {
	t.Helper()
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)
	sc := smartconnect.NewSmartConnect(smartconnect.Config{
		APIKey:         "test-key",
		RootURL:        srv.URL,
		ClientPublicIP: "1.2.3.4",
		ClientLocalIP:  "192.168.1.10",
		ClientMAC:      "aa:bb:cc:dd:ee:ff",
	})
	return NewProvider(sc, ProviderConfig{
		ClientCode: "A123",
		Password:   "pin",
		TOTPSecret: testTOTPSecret,
		Interval:   "ONE_DAY",
	})
}

func TestProvider_LazyLoginAndFetch(t *testing.T) {
	fake := &fakeAngel{}
	p := newTestProvider(t, fake)

	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)

	bars, err := p.Bars("NSE", "3045", from, to)
	if err != nil {
		t.Fatalf("Bars: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("bars = %d, want 2", len(bars))
	}
	if logins, _, _ := fake.counts(); logins != 1 {
		t.Errorf("logins = %d, want 1", logins)
	}

	// Second fetch reuses the session.
	if _, err := p.Bars("NSE", "3045", from, to); err != nil {
		t.Fatalf("second Bars: %v", err)
	}
	if logins, _, _ := fake.counts(); logins != 1 {
		t.Errorf("logins after reuse = %d, want 1", logins)
	}
}

func TestProvider_RenewsExpiredSession(t *testing.T) {
	fake := &fakeAngel{failFirstCandle: true}
	p := newTestProvider(t, fake)

	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)

	bars, err := p.Bars("NSE", "3045", from, to)
	if err != nil {
		t.Fatalf("Bars after expiry: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("bars = %d, want 2", len(bars))
	}
	logins, renews, candles := fake.counts()
	if candles != 2 {
		t.Errorf("candle calls = %d, want 2 (fail then retry)", candles)
	}
	if renews != 1 {
		t.Errorf("renews = %d, want 1", renews)
	}
	if logins != 1 {
		t.Errorf("logins = %d, want 1 (renew must not re-login)", logins)
	}
}

func TestProvider_ResolveTokenPrefersExactMatch(t *testing.T) {
	fake := &fakeAngel{}
	p := newTestProvider(t, fake)

	token, err := p.ResolveToken("NSE", "SBIN")
	if err != nil {
		t.Fatalf("ResolveToken: %v", err)
	}
	if token != "3045" {
		t.Errorf("token = %q, want 3045 (the -EQ series)", token)
	}
}
