package utils

import (
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// -----------------------------------------------------------------------------

// MarketHours answers whether the exchange backing an account is currently
// in session. MT server names sometimes carry a venue hint we can map to a
// MIC code (ISO 10383); everything else falls back to NYSE hours.
type MarketHours struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// -----------------------------------------------------------------------------

func GetMarketHours(server string) *MarketHours {
	mic := "xnys" // Default US NYSE
	s := strings.ToLower(server)
	switch {
	case strings.Contains(s, "london") || strings.Contains(s, "-uk"):
		mic = "xlon"
	case strings.Contains(s, "frankfurt") || strings.Contains(s, "-de"):
		mic = "xfra"
	case strings.Contains(s, "tokyo") || strings.Contains(s, "-jp"):
		mic = "xtks"
	case strings.Contains(s, "sydney") || strings.Contains(s, "-au"):
		mic = "xasx"
	case strings.Contains(s, "hongkong") || strings.Contains(s, "-hk"):
		mic = "xhkg"
	}

	cal := calendar.GetCalendar(mic)
	if cal == nil {
		// Fallback to xnys if not found
		cal = calendar.GetCalendar("xnys")
	}

	if cal == nil {
		nyLoc, _ := time.LoadLocation("America/New_York")
		if nyLoc == nil {
			nyLoc = time.UTC
		}
		return &MarketHours{Fallback: true, Timezone: nyLoc}
	}

	return &MarketHours{Calendar: cal, Fallback: false, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

// IsOpen checks if the market is in session at the given instant.
func (m *MarketHours) IsOpen(t time.Time) bool {
	if m.Timezone != nil {
		t = t.In(m.Timezone)
	}

	if m.Fallback {
		// Simple fallback: Mon-Fri 09:30-16:00
		weekday := t.Weekday()
		if weekday == time.Saturday || weekday == time.Sunday {
			return false
		}
		hour := t.Hour()
		minute := t.Minute()
		return (hour > 9 || (hour == 9 && minute >= 30)) && hour < 16
	}

	return m.Calendar.IsOpen(t)
}
