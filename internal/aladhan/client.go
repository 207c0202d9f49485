package aladhan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"prayerics/internal/config"
	appLog "prayerics/internal/log"
	"prayerics/internal/model"
)

const calendarPath = "/calendar"

// CalendarQuery is one month request.
type CalendarQuery struct {
	Latitude                 float64
	Longitude                float64
	Method                   string
	School                   string
	LatitudeAdjustmentMethod string
	Tune                     string
	Month                    model.MonthToken
}

// NewCalendarQuery combines a resolved request with a month token.
func NewCalendarQuery(req model.Request, month model.MonthToken) CalendarQuery {
	return CalendarQuery{
		Latitude:                 req.Location.Latitude,
		Longitude:                req.Location.Longitude,
		Method:                   req.Options.Method,
		School:                   req.Options.School,
		LatitudeAdjustmentMethod: req.Options.LatitudeAdjustmentMethod,
		Tune:                     req.Options.Tune,
		Month:                    month,
	}
}

// Values encodes the query the way the upstream expects it.
func (q CalendarQuery) Values() url.Values {
	v := url.Values{}
	v.Set("latitude", strconv.FormatFloat(q.Latitude, 'f', 6, 64))
	v.Set("longitude", strconv.FormatFloat(q.Longitude, 'f', 6, 64))
	v.Set("method", q.Method)
	v.Set("school", q.School)
	v.Set("latitudeAdjustmentMethod", q.LatitudeAdjustmentMethod)
	v.Set("month", strconv.Itoa(int(q.Month.Month)))
	v.Set("year", strconv.Itoa(q.Month.Year))
	v.Set("iso8601", "true")
	if q.Tune != "" {
		v.Set("tune", q.Tune)
	}
	return v
}

// Client talks to the AlAdhan calendar API.
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewClient creates a Client from the upstream config. A zero Timeout keeps
// the transport defaults.
func NewClient(cfg config.UpstreamConfig) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Calendar fetches one month of timings. Transport failures, non-2xx
// statuses and undecodable bodies are returned as errors.
func (c *Client) Calendar(ctx context.Context, q CalendarQuery) (*CalendarResponse, error) {
	u := c.baseURL + calendarPath + "?" + q.Values().Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calendar %04d-%02d: %w", q.Month.Year, q.Month.Month, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("calendar %04d-%02d: read body: %w", q.Month.Year, q.Month.Month, err)
	}

	appLog.Debug("aladhan calendar response",
		"year", q.Month.Year,
		"month", int(q.Month.Month),
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New("unexpected status code: " + resp.Status)
	}

	var out CalendarResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("calendar %04d-%02d: decode: %w", q.Month.Year, q.Month.Month, err)
	}
	return &out, nil
}
