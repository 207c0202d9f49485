package ics

import (
	"math"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"prayerics/internal/aladhan"
	appLog "prayerics/internal/log"
	"prayerics/internal/model"
)

const uidDomain = "prayer-ics"

var dateLayouts = []string{"2006-01-02", "02-01-2006"}

// zone is the document timezone. It starts at the configured default and
// is overwritten by each month that reports one.
type zone struct {
	name string
	loc  *time.Location
}

func newZone(name string) zone {
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("default timezone not loadable; using UTC", err, "timezone", name)
		return zone{name: "UTC", loc: time.UTC}
	}
	return zone{name: name, loc: loc}
}

// update switches to name if it is non-empty and loadable.
func (z *zone) update(name string) {
	if name == "" || name == z.name {
		return
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("upstream timezone not loadable; keeping current", err, "timezone", name, "current", z.name)
		return
	}
	z.name = name
	z.loc = loc
}

// dayEvents synthesizes the events of one upstream day in the fixed prayer
// order. Prayers whose timing does not parse are skipped; a day without a
// usable date yields nothing.
func dayEvents(day aladhan.Day, req model.Request, z zone) []model.Event {
	y, m, d, ok := parseDate(day.Date.Gregorian.Date)
	if !ok {
		appLog.Debug("skipping day without usable date", "date", day.Date.Gregorian.Date)
		return nil
	}

	p := printer(req.Options.Language)
	location := req.Location.Label()
	description := p.Sprintf(msgDescription, req.Options.Method, req.Options.School)

	out := make([]model.Event, 0, len(model.Prayers))
	for _, name := range model.Prayers {
		hh, mm, ok := parseTiming(day.Timings[name])
		if !ok {
			appLog.Debug("skipping unparseable timing", "prayer", name, "date", day.Date.Gregorian.Date, "timing", day.Timings[name])
			continue
		}

		start := time.Date(y, m, d, hh, mm, 0, 0, z.loc)
		ev := model.Event{
			UID:         eventUID(name, start, req.Location),
			Start:       start,
			TZID:        z.name,
			Title:       name,
			Location:    location,
			Description: description,
		}
		if req.Options.AlarmMinutes != nil {
			n := *req.Options.AlarmMinutes
			ev.Alarm = &model.Alarm{
				Minutes: n,
				Message: p.Sprintf(msgAlarm, name, strconv.Itoa(n)),
			}
		}
		out = append(out, ev)
	}
	return out
}

// eventUID is stable for a given prayer, instant and location, so calendar
// clients can deduplicate across fetches.
func eventUID(prayer string, start time.Time, loc model.Location) string {
	return prayer + "-" +
		strconv.FormatInt(start.UnixMilli(), 10) + "-" +
		strconv.FormatFloat(loc.Latitude, 'f', 2, 64) + "-" +
		strconv.FormatFloat(loc.Longitude, 'f', 2, 64) +
		"@" + uidDomain
}

func parseDate(s string) (int, time.Month, int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, 0, false
	}
	// Datetime forms carry a date prefix; only the calendar date matters.
	if len(s) > 10 && s[10] == 'T' {
		s = s[:10]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year(), t.Month(), t.Day(), true
		}
	}
	return 0, 0, 0, false
}

// parseTiming extracts hour and minute from "HH:mm (extra)". Only the text
// before the first space is considered. An empty component counts as zero;
// a missing minute component is invalid.
func parseTiming(s string) (int, int, bool) {
	prefix, _, _ := strings.Cut(s, " ")
	parts := strings.Split(prefix, ":")
	if len(parts) < 2 {
		return 0, 0, false
	}
	hh, ok := parseNumber(parts[0])
	if !ok || hh < 0 || hh > 23 {
		return 0, 0, false
	}
	mm, ok := parseNumber(parts[1])
	if !ok || mm < 0 || mm > 59 {
		return 0, 0, false
	}
	return hh, mm, true
}

func parseNumber(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
