package aladhan

// CalendarResponse is the AlAdhan /calendar payload: one Day per day of the
// requested month.
type CalendarResponse struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Data   []Day  `json:"data"`
}

// Day holds the timings, date info and metadata of a single day.
type Day struct {
	// Timings maps prayer names to "HH:mm (zone)" strings. Only the HH:mm
	// prefix is meaningful.
	Timings map[string]string `json:"timings"`
	Date    DateInfo          `json:"date"`
	Meta    *Meta             `json:"meta,omitempty"`
}

// DateInfo contains date representations.
type DateInfo struct {
	Readable  string        `json:"readable,omitempty"`
	Timestamp string        `json:"timestamp,omitempty"`
	Gregorian GregorianDate `json:"gregorian"`
}

// GregorianDate represents the Gregorian date from the API response.
type GregorianDate struct {
	Date string `json:"date"` // "2025-03-01" with iso8601=true, else "01-03-2025"
}

// Meta contains request metadata returned by the API.
type Meta struct {
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	Timezone  string  `json:"timezone,omitempty"`
}

// Timezone returns the IANA zone reported by the first day, or "".
func (r *CalendarResponse) Timezone() string {
	if r == nil || len(r.Data) == 0 || r.Data[0].Meta == nil {
		return ""
	}
	return r.Data[0].Meta.Timezone
}
