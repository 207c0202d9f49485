package ics

import (
	"strconv"
	"strings"

	"prayerics/internal/model"
)

const (
	crlf       = "\r\n"
	foldWidth  = 73
	productID  = "-//Prayer ICS//aladhan.com//FR"
	localStamp = "20060102T150405"
	utcStamp   = "20060102T150405Z"
)

// Fold wraps line every foldWidth characters, inserting CRLF followed by a
// single space. Removing every "\r\n " restores the input.
func Fold(line string) string {
	r := []rune(line)
	if len(r) <= foldWidth {
		return line
	}
	var b strings.Builder
	b.Grow(len(line) + (len(r)/foldWidth)*3)
	for len(r) > foldWidth {
		b.WriteString(string(r[:foldWidth]))
		b.WriteString(crlf + " ")
		r = r[foldWidth:]
	}
	b.WriteString(string(r))
	return b.String()
}

// Unfold reverses Fold.
func Unfold(s string) string {
	return strings.ReplaceAll(s, crlf+" ", "")
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	";", `\;`,
	",", `\,`,
	"\r\n", `\n`,
	"\n", `\n`,
	"\r", `\n`,
)

// escapeText escapes an RFC 5545 TEXT value.
func escapeText(s string) string {
	return textEscaper.Replace(s)
}

// Encode renders the feed as a VCALENDAR document with CRLF separators.
func (f *Feed) Encode() string {
	lines := make([]string, 0, 8+len(f.Events)*13)
	lines = append(lines,
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:"+productID,
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		Fold("NAME:"+escapeText(f.Name)),
		Fold("X-WR-CALNAME:"+escapeText(f.Name)),
		"X-WR-TIMEZONE:"+f.Timezone,
	)

	stamp := f.GeneratedAt.UTC().Format(utcStamp)
	for _, ev := range f.Events {
		lines = appendEvent(lines, ev, stamp)
	}

	lines = append(lines, "END:VCALENDAR")
	return strings.Join(lines, crlf)
}

func appendEvent(lines []string, ev model.Event, stamp string) []string {
	start := ev.Start.Format(localStamp)
	lines = append(lines,
		"BEGIN:VEVENT",
		Fold("UID:"+ev.UID),
		"DTSTAMP:"+stamp,
		"DTSTART;TZID="+ev.TZID+":"+start,
		"DTEND;TZID="+ev.TZID+":"+start,
		Fold("SUMMARY:"+escapeText(ev.Title)),
	)
	if ev.Location != "" {
		lines = append(lines, Fold("LOCATION:"+escapeText(ev.Location)))
	}
	if ev.Description != "" {
		lines = append(lines, Fold("DESCRIPTION:"+escapeText(ev.Description)))
	}
	if ev.Alarm != nil {
		lines = append(lines,
			"BEGIN:VALARM",
			"TRIGGER:-PT"+strconv.Itoa(ev.Alarm.Minutes)+"M",
			"ACTION:DISPLAY",
			Fold("DESCRIPTION:"+escapeText(ev.Alarm.Message)),
			"END:VALARM",
		)
	}
	return append(lines, "END:VEVENT")
}

// displayName is the calendar name: the location label, or the coordinates
// with three decimals when no label was given.
func displayName(req model.Request) string {
	label := req.Location.Label()
	if label == "" {
		label = strconv.FormatFloat(req.Location.Latitude, 'f', 3, 64) + "," +
			strconv.FormatFloat(req.Location.Longitude, 'f', 3, 64)
	}
	return printer(req.Options.Language).Sprintf(msgCalendarName, label)
}
