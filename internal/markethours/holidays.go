package markethours

import "time"

// holidayYear guards the table below; dates outside it fall through to
// the weekday rule.
const holidayYear = 2026

// NSE trading holidays for 2026, grouped by month. Dates follow the
// exchange's published calendar, tentative entries included.
var nseHolidays = map[time.Month][]int{
	time.January:   {26},           // Republic Day
	time.February:  {17},           // Mahashivratri
	time.March:     {14, 31},       // Holi, Id-ul-Fitr
	time.April:     {2, 6, 10, 14}, // Ram Navami, Mahavir Jayanti, Good Friday, Ambedkar Jayanti
	time.May:       {1},            // Maharashtra Day
	time.June:      {7},            // Bakrid
	time.July:      {6},            // Muharram
	time.August:    {15, 16},       // Independence Day, Janmashtami
	time.September: {5},            // Milad-un-Nabi
	time.October:   {2, 20, 21},    // Gandhi Jayanti, Dussehra
	time.November:  {5, 6, 7, 19},  // Diwali, Balipratipada, Bhai Dooj, Guru Nanak Jayanti
	time.December:  {25},           // Christmas
}

// IsHoliday reports whether the date, evaluated in IST, is an NSE trading
// holiday.
func IsHoliday(t time.Time) bool {
	ist := t.In(IST)
	if ist.Year() != holidayYear {
		return false
	}
	for _, day := range nseHolidays[ist.Month()] {
		if day == ist.Day() {
			return true
		}
	}
	return false
}
