package indicator

import (
	"math"
	"testing"
)

// ────────────────────────────────────────────────────────────
// Helper
// ────────────────────────────────────────────────────────────

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

func assertNil(t *testing.T, label string, got *float64) {
	t.Helper()
	if got != nil {
		t.Errorf("%s: got %.6f, want nil", label, *got)
	}
}

// ────────────────────────────────────────────────────────────
// SMA Correctness
// ────────────────────────────────────────────────────────────

func TestSMA_Correctness(t *testing.T) {
	// Prices: 100, 102, 104, 103, 105
	// SMA(3) over the last three: (104+103+105)/3 = 104.0
	// SMA(5) over all five:       (100+102+104+103+105)/5 = 102.8
	prices := []float64{100, 102, 104, 103, 105}

	v, ok := SMA(prices, 3)
	if !ok {
		t.Fatal("SMA(3) should be available with 5 prices")
	}
	assertClose(t, "SMA(3)", v, 104.0, 0.0001)

	v, ok = SMA(prices, 5)
	if !ok {
		t.Fatal("SMA(5) should be available with 5 prices")
	}
	assertClose(t, "SMA(5)", v, 102.8, 0.0001)
}

func TestSMA_BelowWindow(t *testing.T) {
	if _, ok := SMA([]float64{100, 102, 104, 103}, 5); ok {
		t.Error("SMA(5) with 4 prices should be unavailable")
	}
	if _, ok := SMA(nil, 3); ok {
		t.Error("SMA of empty series should be unavailable")
	}
}

// ────────────────────────────────────────────────────────────
// EMA Correctness
// ────────────────────────────────────────────────────────────

func TestEMA_Correctness_Period3(t *testing.T) {
	// EMA(3): multiplier = 2/(3+1) = 0.5, seeded with the first price.
	// Prices: 100, 102, 104, 103, 105
	//
	// e0 = 100
	// e1 = 102*0.5 + 100*0.5   = 101.0
	// e2 = 104*0.5 + 101*0.5   = 102.5
	// e3 = 103*0.5 + 102.5*0.5 = 102.75
	// e4 = 105*0.5 + 102.75*0.5 = 103.875
	prices := []float64{100, 102, 104, 103, 105}

	v, ok := EMA(prices, 3)
	if !ok {
		t.Fatal("EMA(3) should be available with 5 prices")
	}
	assertClose(t, "EMA(3)", v, 103.875, 0.0001)
}

func TestEMA_BelowWindow(t *testing.T) {
	// The recursion is defined from the first bar, but the value is not
	// reported until the series covers the window.
	if _, ok := EMA([]float64{100, 102}, 3); ok {
		t.Error("EMA(3) with 2 prices should be unavailable")
	}
}

func TestEMA_MoreResponsiveThanSMA(t *testing.T) {
	// Flat at 100 for 20 bars then a jump to 120: the EMA should sit
	// closer to the jump than the SMA over the same window.
	prices := make([]float64, 0, 21)
	for i := 0; i < 20; i++ {
		prices = append(prices, 100)
	}
	prices = append(prices, 120)

	emaV, _ := EMA(prices, 10)
	smaV, _ := SMA(prices, 10)
	if emaV <= smaV {
		t.Errorf("EMA should react more than SMA to a sudden jump: EMA=%.4f, SMA=%.4f", emaV, smaV)
	}
}

// ────────────────────────────────────────────────────────────
// RSI Correctness (Wilder's Method)
// ────────────────────────────────────────────────────────────

func TestRSI_Correctness_Period5(t *testing.T) {
	// Prices: 44, 44.34, 44.09, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84
	//
	// Deltas over the first five: +0.34, -0.25, -0.48, +0.72, +0.50
	// avgGain = (0.34+0.72+0.50)/5 = 0.312
	// avgLoss = (0.25+0.48)/5      = 0.146
	// RS = 2.13699 → RSI = 100 - 100/(1+RS) = 68.112
	//
	// Wilder recursion from there:
	//   45.10: avgGain=(0.312*4+0.27)/5=0.3036, avgLoss=0.1168 → RSI=72.219
	//   45.42: avgGain=0.30688, avgLoss=0.09344 → RSI=76.658
	//   45.84: avgGain=0.329504, avgLoss=0.074752 → RSI=81.509
	prices := []float64{44, 44.34, 44.09, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84}

	v, ok := RSI(prices[:6], 5)
	if !ok {
		t.Fatal("RSI(5) should be available with 6 closes")
	}
	assertClose(t, "RSI(5) first value", v, 68.112, 0.1)

	v, _ = RSI(prices[:7], 5)
	assertClose(t, "RSI(5) +1 bar", v, 72.219, 0.1)

	v, _ = RSI(prices, 5)
	assertClose(t, "RSI(5) full series", v, 81.509, 0.2)
}

func TestRSI_AllUp_Is100(t *testing.T) {
	prices := make([]float64, 10)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	v, _ := RSI(prices, 5)
	assertClose(t, "RSI all up", v, 100.0, 0.001)
}

func TestRSI_AllDown_Is0(t *testing.T) {
	prices := make([]float64, 10)
	for i := range prices {
		prices[i] = 200 - float64(i)
	}
	v, _ := RSI(prices, 5)
	assertClose(t, "RSI all down", v, 0.0, 0.001)
}

func TestRSI_Flat_Is100(t *testing.T) {
	// All deltas zero: avgLoss==0 saturates the index at 100.
	prices := make([]float64, 10)
	for i := range prices {
		prices[i] = 100
	}
	v, _ := RSI(prices, 5)
	assertClose(t, "RSI flat", v, 100.0, 0.001)
}

func TestRSI_BelowWindow(t *testing.T) {
	// RSI(5) needs six closes (five deltas).
	if _, ok := RSI([]float64{44, 44.34, 44.09, 43.61, 44.33}, 5); ok {
		t.Error("RSI(5) with 5 closes should be unavailable")
	}
}

// ────────────────────────────────────────────────────────────
// MACD Correctness
// ────────────────────────────────────────────────────────────

func TestMACD_Correctness_SmallWindows(t *testing.T) {
	// MACD(2,4,2) on 100, 102, 104, 103, 105.
	//
	// EMA(2), mult=2/3: 100, 101.3333, 103.1111, 103.0370, 104.3457
	// EMA(4), mult=2/5: 100, 100.8,    102.08,   102.448,  103.4688
	// line:             0,   0.5333,   1.0311,   0.5890,   0.8769
	// signal = EMA(2) of line: 0, 0.3556, 0.8059, 0.6613, 0.8050
	// histogram = 0.8769 - 0.8050 = 0.0718
	prices := []float64{100, 102, 104, 103, 105}

	res := MACD(prices, 2, 4, 2)
	if res.MACDLine == nil || res.SignalLine == nil || res.Histogram == nil {
		t.Fatal("MACD(2,4,2) with 5 closes should be fully available")
	}
	assertClose(t, "MACD line", *res.MACDLine, 0.876879, 0.0001)
	assertClose(t, "MACD signal", *res.SignalLine, 0.805030, 0.0001)
	assertClose(t, "MACD histogram", *res.Histogram, 0.071849, 0.0001)
}

func TestMACD_Availability(t *testing.T) {
	prices := []float64{100, 102, 104, 103, 105}

	// 4 closes: line available (slow=4), signal needs slow+smooth-1=5.
	res := MACD(prices[:4], 2, 4, 2)
	if res.MACDLine == nil {
		t.Error("MACD line should be available with 4 closes")
	}
	assertNil(t, "MACD signal with 4 closes", res.SignalLine)
	assertNil(t, "MACD histogram with 4 closes", res.Histogram)

	// 3 closes: nothing available.
	res = MACD(prices[:3], 2, 4, 2)
	assertNil(t, "MACD line with 3 closes", res.MACDLine)
}

func TestMACD_UptrendPositive(t *testing.T) {
	// A sustained uptrend keeps the fast EMA above the slow one.
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	res := MACD(prices, 12, 26, 9)
	if res.MACDLine == nil || *res.MACDLine <= 0 {
		t.Errorf("MACD line should be positive in an uptrend, got %v", res.MACDLine)
	}
}

// ────────────────────────────────────────────────────────────
// Bollinger Correctness
// ────────────────────────────────────────────────────────────

func TestBollinger_Correctness_Period5(t *testing.T) {
	// Window: 100, 102, 104, 103, 105 → mid = 102.8
	// Population variance = (2.8²+0.8²+1.2²+0.2²+2.2²)/5 = 14.8/5 = 2.96
	// stddev = 1.720465
	// upper = 102.8 + 2*1.720465 = 106.240930
	// lower = 102.8 - 2*1.720465 =  99.359070
	// %B = (105-99.359070)/(106.240930-99.359070) = 0.819652
	// width = (upper-lower)/mid = 6.881860/102.8 = 0.066944
	prices := []float64{100, 102, 104, 103, 105}

	res := Bollinger(prices, 5, 2)
	if res.MiddleBand == nil {
		t.Fatal("Bollinger(5) with 5 closes should be available")
	}
	assertClose(t, "Bollinger middle", *res.MiddleBand, 102.8, 0.0001)
	assertClose(t, "Bollinger upper", *res.UpperBand, 106.240930, 0.0001)
	assertClose(t, "Bollinger lower", *res.LowerBand, 99.359070, 0.0001)
	assertClose(t, "Bollinger %B", *res.PercentB, 0.819652, 0.0001)
	assertClose(t, "Bollinger width", *res.Width, 0.066944, 0.0001)
}

func TestBollinger_ZeroRange(t *testing.T) {
	// Flat prices collapse the band; %B falls back to the midpoint reading.
	prices := []float64{100, 100, 100, 100, 100}
	res := Bollinger(prices, 5, 2)
	assertClose(t, "Bollinger %B flat", *res.PercentB, 0.5, 0.0001)
	assertClose(t, "Bollinger width flat", *res.Width, 0.0, 0.0001)
}

func TestBollinger_BelowWindow(t *testing.T) {
	res := Bollinger([]float64{100, 102}, 5, 2)
	assertNil(t, "Bollinger middle below window", res.MiddleBand)
	assertNil(t, "Bollinger upper below window", res.UpperBand)
}

// ────────────────────────────────────────────────────────────
// ATR Correctness (Wilder's Method)
// ────────────────────────────────────────────────────────────

func TestATR_Correctness_Period3(t *testing.T) {
	// Bars (H, L, C):
	//   (102, 99, 101), (104, 100, 103), (105, 102, 104), (106, 103, 105), (108, 104, 107)
	// True ranges from the second bar:
	//   TR2 = max(4, |104-101|, |100-101|) = 4
	//   TR3 = max(3, |105-103|, |102-103|) = 3
	//   TR4 = max(3, |106-104|, |103-104|) = 3
	//   TR5 = max(4, |108-105|, |104-105|) = 4
	// Seed ATR = (4+3+3)/3 = 3.3333
	// Next: (3.3333*2 + 4)/3 = 3.5556
	highs := []float64{102, 104, 105, 106, 108}
	lows := []float64{99, 100, 102, 103, 104}
	closes := []float64{101, 103, 104, 105, 107}

	v, ok := ATR(highs, lows, closes, 3)
	if !ok {
		t.Fatal("ATR(3) should be available with 5 bars")
	}
	assertClose(t, "ATR(3)", v, 3.5556, 0.001)
}

func TestATR_BelowWindow(t *testing.T) {
	// ATR(3) needs four bars: three true ranges, each using the prior close.
	highs := []float64{102, 104, 105}
	lows := []float64{99, 100, 102}
	closes := []float64{101, 103, 104}
	if _, ok := ATR(highs, lows, closes, 3); ok {
		t.Error("ATR(3) with 3 bars should be unavailable")
	}
}

// ────────────────────────────────────────────────────────────
// Stochastic Correctness
// ────────────────────────────────────────────────────────────

func TestStochastic_Correctness(t *testing.T) {
	// Bars (H, L, C):
	//   (102, 99, 101), (104, 100, 103), (105, 102, 104), (106, 103, 105), (108, 104, 106)
	// %K(3) series:
	//   bar 3: 100*(104-99)/(105-99)   = 83.3333
	//   bar 4: 100*(105-100)/(106-100) = 83.3333
	//   bar 5: 100*(106-102)/(108-102) = 66.6667
	// %D(2) = (83.3333+66.6667)/2 = 75.0
	highs := []float64{102, 104, 105, 106, 108}
	lows := []float64{99, 100, 102, 103, 104}
	closes := []float64{101, 103, 104, 105, 106}

	res := Stochastic(highs, lows, closes, 3, 2)
	if res.KValue == nil || res.DValue == nil {
		t.Fatal("Stochastic(3,2) with 5 bars should be fully available")
	}
	assertClose(t, "Stochastic %K", *res.KValue, 66.6667, 0.001)
	assertClose(t, "Stochastic %D", *res.DValue, 75.0, 0.001)
}

func TestStochastic_ZeroRange(t *testing.T) {
	highs := []float64{100, 100, 100}
	lows := []float64{100, 100, 100}
	closes := []float64{100, 100, 100}
	res := Stochastic(highs, lows, closes, 3, 3)
	assertClose(t, "Stochastic %K flat", *res.KValue, 50.0, 0.0001)
}

func TestStochastic_Availability(t *testing.T) {
	highs := []float64{102, 104, 105, 106}
	lows := []float64{99, 100, 102, 103}
	closes := []float64{101, 103, 104, 105}

	// 4 bars: %K(3) available, %D(3) needs kPeriod+dPeriod-1 = 5.
	res := Stochastic(highs, lows, closes, 3, 3)
	if res.KValue == nil {
		t.Error("%K should be available with 4 bars")
	}
	assertNil(t, "%D with 4 bars", res.DValue)

	// 2 bars: nothing available.
	res = Stochastic(highs[:2], lows[:2], closes[:2], 3, 3)
	assertNil(t, "%K with 2 bars", res.KValue)
}

// ────────────────────────────────────────────────────────────
// Parabolic SAR Correctness
// ────────────────────────────────────────────────────────────

func TestParabolicSAR_Correctness(t *testing.T) {
	// Bars (H, L, C):
	//   (10.5,  9.5, 10.0), (11.0, 10.0, 10.8), (11.5, 10.5, 11.2),
	//   (12.0, 11.0, 11.8), (12.5, 11.5, 12.3)
	//
	// sar[0..1] seed with closes. Bar 2 rides the up trend from
	// sar=10.8 toward the seed extreme 10.5, low 10.5 crosses it →
	// flip down with sar=10.5. Bar 3 makes a new high above 10.5 →
	// flip up with sar=downLow=10.5. Bar 4 accelerates toward 12.0 but
	// the prior-low clamp holds the SAR at 10.5; trend stays up.
	highs := []float64{10.5, 11.0, 11.5, 12.0, 12.5}
	lows := []float64{9.5, 10.0, 10.5, 11.0, 11.5}
	closes := []float64{10.0, 10.8, 11.2, 11.8, 12.3}

	res := ParabolicSAR(highs, lows, closes, 0.02, 0.2)
	if res.PSARValue == nil {
		t.Fatal("PSAR should be available with 5 bars")
	}
	assertClose(t, "PSAR value", *res.PSARValue, 10.5, 0.0001)
	if res.Trend != "Uptrend" {
		t.Errorf("PSAR trend: got %q, want Uptrend", res.Trend)
	}
}

func TestParabolicSAR_DowntrendFlip(t *testing.T) {
	// A steady slide after the seed bars should leave the SAR above
	// price and the trend down.
	highs := []float64{101, 100, 99, 98, 97, 96, 95, 94}
	lows := []float64{99, 98, 97, 96, 95, 94, 93, 92}
	closes := []float64{100, 99, 98, 97, 96, 95, 94, 93}

	res := ParabolicSAR(highs, lows, closes, 0.02, 0.2)
	if res.Trend != "Downtrend" {
		t.Errorf("PSAR trend: got %q, want Downtrend", res.Trend)
	}
	if *res.PSARValue <= closes[len(closes)-1] {
		t.Errorf("PSAR should sit above price in a downtrend: sar=%.4f close=%.4f",
			*res.PSARValue, closes[len(closes)-1])
	}
}

func TestParabolicSAR_Empty(t *testing.T) {
	res := ParabolicSAR(nil, nil, nil, 0.02, 0.2)
	assertNil(t, "PSAR of empty series", res.PSARValue)
}

// ────────────────────────────────────────────────────────────
// Ichimoku Correctness
// ────────────────────────────────────────────────────────────

func TestIchimoku_Correctness_SmallWindows(t *testing.T) {
	// conv=2, base=3, span=4 over 10 ramp bars: highs i+1, lows i,
	// closes i. last=9, shifted window end = 9-3 = 6.
	//
	// tenkan = (max(H[8:9]) + min(L[8:9]))/2 = (10+8)/2  = 9
	// kijun  = (max(H[7:9]) + min(L[7:9]))/2 = (10+7)/2  = 8.5
	// spanA  = (midpoint(conv@6) + midpoint(base@6))/2 = (6+5.5)/2 = 5.75
	// spanB  = midpoint(span@6) = (7+3)/2 = 5
	// chikou = close[10-3-1] = close[6] = 6
	n := 10
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i] = float64(i + 1)
		lows[i] = float64(i)
		closes[i] = float64(i)
	}

	res := Ichimoku(highs, lows, closes, 2, 3, 4)
	assertClose(t, "tenkan", *res.TenkanSen, 9.0, 0.0001)
	assertClose(t, "kijun", *res.KijunSen, 8.5, 0.0001)
	assertClose(t, "senkou A", *res.SenkouSpanA, 5.75, 0.0001)
	assertClose(t, "senkou B", *res.SenkouSpanB, 5.0, 0.0001)
	assertClose(t, "chikou", *res.ChikouSpan, 6.0, 0.0001)
}

func TestIchimoku_Availability(t *testing.T) {
	// Classic 9/26/52 windows: tenkan at 9 bars, kijun at 26, senkou A
	// at 52, senkou B at 78, chikou at 27.
	mk := func(n int) ([]float64, []float64, []float64) {
		h := make([]float64, n)
		l := make([]float64, n)
		c := make([]float64, n)
		for i := 0; i < n; i++ {
			h[i], l[i], c[i] = float64(i+1), float64(i), float64(i)
		}
		return h, l, c
	}

	h, l, c := mk(10)
	res := Ichimoku(h, l, c, 9, 26, 52)
	if res.TenkanSen == nil {
		t.Error("tenkan should be available with 10 bars")
	}
	assertNil(t, "kijun with 10 bars", res.KijunSen)
	assertNil(t, "senkou A with 10 bars", res.SenkouSpanA)
	assertNil(t, "chikou with 10 bars", res.ChikouSpan)

	h, l, c = mk(52)
	res = Ichimoku(h, l, c, 9, 26, 52)
	if res.SenkouSpanA == nil {
		t.Error("senkou A should be available with 52 bars")
	}
	assertNil(t, "senkou B with 52 bars", res.SenkouSpanB)

	h, l, c = mk(78)
	res = Ichimoku(h, l, c, 9, 26, 52)
	if res.SenkouSpanB == nil {
		t.Error("senkou B should be available with 78 bars")
	}
}

// ────────────────────────────────────────────────────────────
// Fibonacci Correctness
// ────────────────────────────────────────────────────────────

func TestFibonacci_Correctness(t *testing.T) {
	// Swing: high 15, low 8 → diff 7.
	// 23.6% = 8 + 0.236*7 = 9.652
	// 61.8% = 8 + 0.618*7 = 12.326
	highs := []float64{10, 12, 11, 15}
	lows := []float64{8, 9, 9.5, 12}

	res := Fibonacci(highs, lows, 120)
	if res == nil {
		t.Fatal("Fibonacci should be available with 4 bars")
	}
	assertClose(t, "fib 0%", res.P0, 8.0, 0.0001)
	assertClose(t, "fib 23.6%", res.P236, 9.652, 0.0001)
	assertClose(t, "fib 38.2%", res.P382, 10.674, 0.0001)
	assertClose(t, "fib 50%", res.P50, 11.5, 0.0001)
	assertClose(t, "fib 61.8%", res.P618, 12.326, 0.0001)
	assertClose(t, "fib 78.6%", res.P786, 13.502, 0.0001)
	assertClose(t, "fib 100%", res.P100, 15.0, 0.0001)
}

func TestFibonacci_TrailingWindow(t *testing.T) {
	// period=2 restricts the swing to the final two bars.
	highs := []float64{10, 12, 11, 15}
	lows := []float64{8, 9, 9.5, 12}

	res := Fibonacci(highs, lows, 2)
	assertClose(t, "fib trailing 0%", res.P0, 9.5, 0.0001)
	assertClose(t, "fib trailing 100%", res.P100, 15.0, 0.0001)
}

func TestFibonacci_Empty(t *testing.T) {
	if res := Fibonacci(nil, nil, 120); res != nil {
		t.Error("Fibonacci of empty series should be nil")
	}
}

// ────────────────────────────────────────────────────────────
// RollingMean
// ────────────────────────────────────────────────────────────

func TestRollingMean(t *testing.T) {
	out := RollingMean([]float64{1, 2, 3, 4, 5}, 3)
	want := []float64{2, 3, 4}
	if len(out) != len(want) {
		t.Fatalf("RollingMean length: got %d, want %d", len(out), len(want))
	}
	for i := range want {
		assertClose(t, "RollingMean", out[i], want[i], 0.0001)
	}

	if out := RollingMean([]float64{1, 2}, 3); out != nil {
		t.Error("RollingMean below window should be nil")
	}
}
