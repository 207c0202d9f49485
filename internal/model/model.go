package model

import (
	"strings"
	"time"
)

// Prayers lists the prayer names consumed from upstream timings, in the
// order events are emitted within a day.
var Prayers = []string{"Fajr", "Dhuhr", "Asr", "Maghrib", "Isha"}

// Location is the point prayer times are calculated for. City and Country
// are display labels only.
type Location struct {
	Latitude  float64
	Longitude float64
	City      string
	Country   string
}

// Label joins the non-empty City/Country labels with ", ".
func (l Location) Label() string {
	parts := make([]string, 0, 2)
	if l.City != "" {
		parts = append(parts, l.City)
	}
	if l.Country != "" {
		parts = append(parts, l.Country)
	}
	return strings.Join(parts, ", ")
}

// Options carries the calculation settings and feed shaping for one request.
type Options struct {
	Method                   string
	School                   string
	LatitudeAdjustmentMethod string
	// Tune is the upstream per-prayer offset string, passed through as-is.
	Tune string

	HorizonDays int

	// AlarmMinutes is nil when no reminder should be attached. A pointer to
	// zero is a valid zero-minute reminder.
	AlarmMinutes *int

	// Language is a BCP 47 tag for display strings ("fr", "en").
	Language string
}

// Request is the fully resolved input of a feed build.
type Request struct {
	Location Location
	Options  Options
}

// MonthToken identifies one upstream fetch unit.
type MonthToken struct {
	Year  int
	Month time.Month
}

// Alarm is a display reminder triggering Minutes before the event start.
type Alarm struct {
	Minutes int
	Message string
}

// Event is one prayer occurrence in the output calendar.
type Event struct {
	UID string

	// Start is in the timezone named by TZID.
	Start time.Time
	TZID  string

	Title       string
	Location    string
	Description string

	Alarm *Alarm
}
