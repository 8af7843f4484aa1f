// Package api serves the REST surface of the analysis engine: latest reports
// by symbol with cache-then-store lookup, and on-demand analysis of
// caller-supplied bars.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"ta-enginev1/internal/analysis"
	"ta-enginev1/internal/model"
	"ta-enginev1/internal/series"
)

// maxAnalyzeBars bounds the request body for the inline analyze endpoint.
const maxAnalyzeBars = 20000

// Deps wires the handlers to their collaborators. Engine must be set; Cache
// and Reports are optional and the corresponding lookup legs are skipped when
// nil.
type Deps struct {
	Engine  *analysis.Engine
	Cache   model.ReportCache
	Reports model.ReportReader
}

// analyzeRequest carries caller-supplied bars alongside the analysis request.
type analyzeRequest struct {
	model.Request
	Bars []series.Record `json:"bars"`
}

// NewRouter sets up the /api/v1 routes. The caller can mount additional
// handlers (the WebSocket endpoint) on the returned mux.
func NewRouter(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		setCORS(w)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// GET /api/v1/analysis/{symbol}: latest report, cache first, then the
	// report store.
	mux.HandleFunc("/api/v1/analysis/", func(w http.ResponseWriter, r *http.Request) {
		setCORS(w)
		w.Header().Set("Content-Type", "application/json")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method != http.MethodGet {
			jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		symbol := strings.TrimPrefix(r.URL.Path, "/api/v1/analysis/")
		symbol = strings.ToUpper(strings.Trim(symbol, "/"))
		if symbol == "" || strings.Contains(symbol, "/") {
			jsonError(w, http.StatusBadRequest, "symbol is required")
			return
		}

		if d.Cache != nil {
			rep, err := d.Cache.CachedReport(r.Context(), symbol)
			if err != nil {
				log.Printf("[api] cache lookup failed for %s: %v", symbol, err)
			} else if rep != nil {
				json.NewEncoder(w).Encode(rep)
				return
			}
		}

		if d.Reports != nil {
			rep, err := d.Reports.LatestReport(symbol)
			if err != nil {
				log.Printf("[api] report lookup failed for %s: %v", symbol, err)
				jsonError(w, http.StatusInternalServerError, "report lookup failed")
				return
			}
			if rep != nil {
				json.NewEncoder(w).Encode(rep)
				return
			}
		}

		jsonError(w, http.StatusNotFound, "no report for "+symbol)
	})

	// POST /api/v1/analyze: run the pipeline over bars supplied in the body.
	mux.HandleFunc("/api/v1/analyze", func(w http.ResponseWriter, r *http.Request) {
		setCORS(w)
		w.Header().Set("Content-Type", "application/json")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method != http.MethodPost {
			jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
		if req.Symbol == "" {
			jsonError(w, http.StatusBadRequest, "symbol is required")
			return
		}
		if len(req.Bars) == 0 {
			jsonError(w, http.StatusBadRequest, "bars are required")
			return
		}
		if len(req.Bars) > maxAnalyzeBars {
			jsonError(w, http.StatusBadRequest, "too many bars")
			return
		}

		bars, err := series.FromRecords(req.Bars)
		if err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}

		rep := d.Engine.Analyze(bars, req.Request)
		json.NewEncoder(w).Encode(&rep)
	})

	return mux
}

func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func jsonError(w http.ResponseWriter, code int, msg string) {
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
