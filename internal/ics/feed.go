package ics

import (
	"context"
	"time"

	"prayerics/internal/aladhan"
	appLog "prayerics/internal/log"
	"prayerics/internal/model"
)

// CalendarFetcher fetches one month of upstream timings.
type CalendarFetcher interface {
	Calendar(ctx context.Context, q aladhan.CalendarQuery) (*aladhan.CalendarResponse, error)
}

// Feed is a built calendar ready for encoding.
type Feed struct {
	Name string
	// Timezone is the document timezone after the last month that reported one.
	Timezone    string
	GeneratedAt time.Time
	Events      []model.Event

	// MonthsFetched / MonthsSkipped count upstream months for logging.
	MonthsFetched int
	MonthsSkipped int
}

// Builder runs the month enumeration, upstream fetch and event synthesis
// pipeline for one request.
type Builder struct {
	fetcher         CalendarFetcher
	defaultTimezone string
	now             func() time.Time
}

// NewBuilder creates a Builder. defaultTimezone is the document timezone
// until the upstream reports one.
func NewBuilder(fetcher CalendarFetcher, defaultTimezone string) *Builder {
	return &Builder{
		fetcher:         fetcher,
		defaultTimezone: defaultTimezone,
		now:             time.Now,
	}
}

// WithClock replaces the wall clock used for month enumeration and DTSTAMP.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build fetches every month covered by the request's horizon, one at a
// time and in order. Failed or empty months are skipped. The only error is
// ctx's, when it is cancelled mid-build.
func (b *Builder) Build(ctx context.Context, req model.Request) (*Feed, error) {
	now := b.now()
	months := Months(now, req.Options.HorizonDays)
	z := newZone(b.defaultTimezone)

	feed := &Feed{GeneratedAt: now}

	for _, m := range months {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := b.fetcher.Calendar(ctx, aladhan.NewCalendarQuery(req, m))
		if err != nil {
			feed.MonthsSkipped++
			appLog.Error("month fetch failed; skipping", err, "year", m.Year, "month", int(m.Month))
			continue
		}
		if len(resp.Data) == 0 {
			feed.MonthsSkipped++
			appLog.Info("month has no data; skipping", "year", m.Year, "month", int(m.Month))
			continue
		}

		z.update(resp.Timezone())
		feed.MonthsFetched++

		for _, day := range resp.Data {
			feed.Events = append(feed.Events, dayEvents(day, req, z)...)
		}
	}

	feed.Timezone = z.name
	feed.Name = displayName(req)

	appLog.Info("feed built",
		"latitude", req.Location.Latitude,
		"longitude", req.Location.Longitude,
		"horizon_days", req.Options.HorizonDays,
		"months", len(months),
		"months_fetched", feed.MonthsFetched,
		"months_skipped", feed.MonthsSkipped,
		"events", len(feed.Events),
		"timezone", feed.Timezone,
	)
	return feed, nil
}
