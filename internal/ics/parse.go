package ics

import (
	"bytes"
	"errors"
	"time"

	ical "github.com/arran4/golang-ical"
)

// ParsedEvent is a VEVENT read back from an encoded feed.
type ParsedEvent struct {
	UID         string
	Summary     string
	Description string
	Location    string

	Start   time.Time
	StartTZ string

	// AlarmTriggers holds the raw TRIGGER values of nested VALARMs.
	AlarmTriggers []string
}

// ParsedFeed is the result of ParseFeed.
type ParsedFeed struct {
	Name     string
	Timezone string
	Events   []ParsedEvent
}

// ParseFeed parses an encoded feed. It is used to sanity-check exported
// files; generation itself never goes through the parser.
func ParseFeed(body []byte) (*ParsedFeed, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	out := &ParsedFeed{}
	for _, p := range cal.CalendarProperties {
		switch p.IANAToken {
		case "X-WR-CALNAME":
			out.Name = p.Value
		case "X-WR-TIMEZONE":
			out.Timezone = p.Value
		}
	}

	for _, ve := range cal.Events() {
		out.Events = append(out.Events, parseVEvent(ve))
	}
	return out, nil
}

func parseVEvent(ve *ical.VEvent) ParsedEvent {
	var out ParsedEvent

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}

	// GetStartAt resolves TZID through time.LoadLocation.
	out.Start, _ = ve.GetStartAt()
	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		if tzs, ok := p.ICalParameters["TZID"]; ok && len(tzs) > 0 {
			out.StartTZ = tzs[0]
		}
	}

	for _, c := range ve.Components {
		alarm, ok := c.(*ical.VAlarm)
		if !ok {
			continue
		}
		if p := alarm.GetProperty(ical.ComponentPropertyTrigger); p != nil {
			out.AlarmTriggers = append(out.AlarmTriggers, p.Value)
		}
	}

	return out
}
