// Package markethours models the NSE equity session calendar: weekday
// trading from 9:15 to 15:30 IST, minus exchange holidays. The engine
// consults it to slow the sweep cadence outside trading hours.
package markethours

import (
	"fmt"
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30).
var IST = time.FixedZone("IST", (5*60+30)*60)

// Session bounds as minutes from midnight IST. Close is exclusive:
// 15:30:00 already counts as closed.
const (
	sessionOpenMin  = 9*60 + 15
	sessionCloseMin = 15*60 + 30
)

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// openOn returns the 9:15 session open on t's date.
func openOn(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), sessionOpenMin/60, sessionOpenMin%60, 0, 0, IST)
}

// closeOn returns the 15:30 session close on t's date.
func closeOn(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), sessionCloseMin/60, sessionCloseMin%60, 0, 0, IST)
}

// IsTradingDay reports whether t's date in IST is a weekday that is not
// an exchange holiday.
func IsTradingDay(t time.Time) bool {
	now := t.In(IST)
	switch now.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !IsHoliday(now)
}

// IsMarketOpen reports whether t falls inside the NSE session, evaluated
// in IST regardless of t's zone.
func IsMarketOpen(t time.Time) bool {
	now := t.In(IST)
	if !IsTradingDay(now) {
		return false
	}
	m := minuteOfDay(now)
	return m >= sessionOpenMin && m < sessionCloseMin
}

// NextOpen returns the first session open at or after t: today's bell when
// t is still before it on a trading day, otherwise the open of the next
// trading day. The forward scan is bounded; no holiday cluster on the NSE
// calendar spans anywhere near two weeks.
func NextOpen(t time.Time) time.Time {
	day := t.In(IST)
	if IsTradingDay(day) && day.Before(openOn(day)) {
		return openOn(day)
	}
	for i := 0; i < 14; i++ {
		day = day.AddDate(0, 0, 1)
		if IsTradingDay(day) {
			return openOn(day)
		}
	}
	return openOn(day)
}

// TimeUntilClose returns the time left in today's session, or zero once
// the close has passed.
func TimeUntilClose(t time.Time) time.Duration {
	now := t.In(IST)
	if left := closeOn(now).Sub(now); left > 0 {
		return left
	}
	return 0
}

// StatusString renders the session state for startup banners and sweep
// logs.
func StatusString(t time.Time) string {
	if IsMarketOpen(t) {
		return fmt.Sprintf("market OPEN, closes in %s", spanString(TimeUntilClose(t)))
	}
	next := NextOpen(t).In(IST)
	return fmt.Sprintf("market CLOSED, opens %s %s IST (in %s)",
		next.Format("Mon"), next.Format("15:04"), spanString(next.Sub(t)))
}

func spanString(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	if h > 0 {
		return fmt.Sprintf("%dh %02dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
