package ics

import (
	"time"

	"github.com/teambition/rrule-go"

	appLog "prayerics/internal/log"
	"prayerics/internal/model"
)

// Months returns the (year, month) tokens covering [now, now+horizonDays].
//
// The cursor starts at the first day of now's month (midnight, now's
// location) and advances one month at a time while it is not after the end
// instant; a cursor equal to the end is included.
func Months(now time.Time, horizonDays int) []model.MonthToken {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	until := now.AddDate(0, 0, horizonDays)
	if until.Before(first) {
		return nil
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.MONTHLY,
		Dtstart: first,
		Until:   until,
	})
	if err != nil {
		// Unreachable for a MONTHLY rule anchored on day 1; fall back to
		// stepping by hand.
		appLog.Error("months: rrule construction failed", err)
		return stepMonths(first, until)
	}

	starts := r.All()
	out := make([]model.MonthToken, 0, len(starts))
	for _, t := range starts {
		out = append(out, model.MonthToken{Year: t.Year(), Month: t.Month()})
	}
	return out
}

func stepMonths(first, until time.Time) []model.MonthToken {
	var out []model.MonthToken
	for c := first; !c.After(until); c = c.AddDate(0, 1, 0) {
		out = append(out, model.MonthToken{Year: c.Year(), Month: c.Month()})
	}
	return out
}
