// cmd/analyze runs the analysis pipeline once over a CSV or JSON bar file
// and prints the report JSON to stdout. Progress and errors go to stderr so
// the report can be piped.
//
// Usage:
//
//	go run ./cmd/analyze -file data/RELIANCE.csv -symbol RELIANCE
//	go run ./cmd/analyze -file bars.json -symbol TCS -indicators rsi,macd -pretty
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"ta-enginev1/config"
	"ta-enginev1/internal/analysis"
	"ta-enginev1/internal/marketdata"
	"ta-enginev1/internal/model"
	"ta-enginev1/internal/series"
	"ta-enginev1/pkg/smartconnect"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	file := flag.String("file", "", "Input bar file (.csv or .json)")
	symbol := flag.String("symbol", "", "Instrument symbol to stamp on the report")
	indicators := flag.String("indicators", "", "Comma-separated indicator selection (default: all)")
	fibPeriod := flag.Int("fib-period", 0, "Trailing swing window for fibonacci levels (default 120)")
	pretty := flag.Bool("pretty", false, "Indent the report JSON")
	quote := flag.Bool("quote", false, "Also log the live LTP (needs Angel One credentials in the env)")
	exchange := flag.String("exchange", "NSE", "Exchange for the -quote scrip lookup")
	flag.Parse()

	if *file == "" || *symbol == "" {
		flag.Usage()
		os.Exit(2)
	}

	recs, err := marketdata.LoadFile(*file)
	if err != nil {
		log.Fatalf("[analyze] %v", err)
	}
	bars, err := series.FromRecords(recs)
	if err != nil {
		log.Fatalf("[analyze] %v", err)
	}
	log.Printf("[analyze] %d bars loaded from %s", len(bars), *file)

	req := model.Request{Symbol: strings.ToUpper(*symbol)}
	for _, name := range strings.Split(*indicators, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			req.Indicators = append(req.Indicators, model.IndicatorName(name))
		}
	}

	opts := analysis.DefaultOptions()
	if *fibPeriod > 0 {
		opts.FibPeriod = *fibPeriod
	}
	rep := analysis.NewEngine(opts).Analyze(bars, req)

	if *quote {
		logQuote(*exchange, req.Symbol)
	}

	out := rep.JSON()
	if *pretty {
		var buf bytes.Buffer
		if err := json.Indent(&buf, out, "", "  "); err == nil {
			out = buf.Bytes()
		}
	}
	fmt.Println(string(out))
}

// logQuote logs the live last-traded price for the symbol when provider
// credentials are configured.
func logQuote(exchange, symbol string) {
	cfg := config.Load()
	if !cfg.HasProviderCreds() {
		log.Println("[analyze] -quote needs ANGEL_* credentials, skipping")
		return
	}

	sc := smartconnect.NewSmartConnect(smartconnect.Config{APIKey: cfg.AngelAPIKey})
	provider := marketdata.NewProvider(sc, marketdata.ProviderConfig{
		ClientCode: cfg.AngelClientCode,
		Password:   cfg.AngelPassword,
		TOTPSecret: cfg.AngelTOTPSecret,
	})
	defer provider.Close()

	token, err := provider.ResolveToken(exchange, symbol)
	if err != nil {
		log.Printf("[analyze] scrip lookup failed: %v", err)
		return
	}
	q, err := provider.Quote(exchange, symbol, token)
	if err != nil {
		log.Printf("[analyze] quote failed: %v", err)
		return
	}
	log.Printf("[analyze] %s (%s) LTP %.2f (o %.2f h %.2f l %.2f c %.2f)",
		q.TradingSymbol, exchange, q.LTP, q.Open, q.High, q.Low, q.Close)
}
