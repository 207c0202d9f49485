package params

import (
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"prayerics/internal/config"
	"prayerics/internal/model"
)

const (
	LatQueryArg      = "lat"
	LonQueryArg      = "lon"
	CityQueryArg     = "city"
	CountryQueryArg  = "country"
	MethodQueryArg   = "method"
	SchoolQueryArg   = "school"
	LatAdjQueryArg   = "latitudeAdjustmentMethod"
	TuneQueryArg     = "tune"
	AlarmQueryArg    = "alarm"
	HorizonQueryArg  = "horizon"
	LanguageQueryArg = "lang"
)

// Resolver turns raw query values and geolocation headers into a
// model.Request. It never fails: anything malformed falls back to a default.
type Resolver struct {
	defaults  config.DefaultsConfig
	geo       config.GeoHeadersConfig
	language  string
	supported []string
}

// NewResolver builds a Resolver from the normalized config.
func NewResolver(cfg *config.Config) *Resolver {
	return &Resolver{
		defaults:  cfg.Defaults,
		geo:       cfg.GeoHeaders,
		language:  cfg.Language,
		supported: []string{"fr", "en"},
	}
}

// Resolve reads q and, for coordinates only, h. h may be nil.
func (r *Resolver) Resolve(q url.Values, h http.Header) model.Request {
	var latHdr, lonHdr string
	if h != nil {
		latHdr = h.Get(r.geo.Latitude)
		lonHdr = h.Get(r.geo.Longitude)
	}

	loc := model.Location{
		Latitude:  firstFloat(r.defaults.Latitude, q.Get(LatQueryArg), latHdr),
		Longitude: firstFloat(r.defaults.Longitude, q.Get(LonQueryArg), lonHdr),
		City:      q.Get(CityQueryArg),
		Country:   q.Get(CountryQueryArg),
	}

	opts := model.Options{
		Method:                   stringOr(q.Get(MethodQueryArg), r.defaults.Method),
		School:                   stringOr(q.Get(SchoolQueryArg), r.defaults.School),
		LatitudeAdjustmentMethod: stringOr(q.Get(LatAdjQueryArg), r.defaults.LatitudeAdjustmentMethod),
		Tune:                     q.Get(TuneQueryArg),
		HorizonDays:              r.horizon(q.Get(HorizonQueryArg)),
		AlarmMinutes:             alarm(q.Get(AlarmQueryArg)),
		Language:                 r.lang(q.Get(LanguageQueryArg)),
	}

	return model.Request{Location: loc, Options: opts}
}

func (r *Resolver) horizon(raw string) int {
	n, ok := ParseIntPrefix(raw)
	if !ok || n <= 0 {
		n = r.defaults.HorizonDays
	}
	if n > r.defaults.MaxHorizonDays {
		n = r.defaults.MaxHorizonDays
	}
	return n
}

func (r *Resolver) lang(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for _, s := range r.supported {
		if raw == s || strings.HasPrefix(raw, s+"-") {
			return s
		}
	}
	return r.language
}

// alarm: an empty value means no reminder, but "0" is a zero-minute
// reminder. Negative values clamp to zero.
func alarm(raw string) *int {
	if raw == "" {
		return nil
	}
	n, ok := ParseIntPrefix(raw)
	if !ok {
		return nil
	}
	if n < 0 {
		n = 0
	}
	return &n
}

func firstFloat(def float64, candidates ...string) float64 {
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		v, err := strconv.ParseFloat(c, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		return v
	}
	return def
}

func stringOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// ParseIntPrefix parses the leading decimal integer of s: optional leading
// whitespace, an optional sign, then digits. Trailing garbage is ignored
// ("10min" is 10). It reports false when no digits are found or the value
// overflows int.
func ParseIntPrefix(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
