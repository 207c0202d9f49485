package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prayerics/internal/config"
	"prayerics/internal/ics"
	"prayerics/internal/model"
	"prayerics/internal/params"
)

// fakeBuilder returns one event per request and records resolved requests.
type fakeBuilder struct {
	mu   sync.Mutex
	reqs []model.Request
	err  error
}

func (b *fakeBuilder) Build(_ context.Context, req model.Request) (*ics.Feed, error) {
	b.mu.Lock()
	b.reqs = append(b.reqs, req)
	b.mu.Unlock()

	if b.err != nil {
		return nil, b.err
	}
	start := time.Date(2026, time.October, 20, 5, 17, 0, 0, time.UTC)
	return &ics.Feed{
		Name:        "Horaires de prière – " + req.Location.Label(),
		Timezone:    "UTC",
		GeneratedAt: start,
		Events: []model.Event{{
			UID:         "Fajr-1792473420000-51.51--0.13@prayer-ics",
			Start:       start,
			TZID:        "UTC",
			Title:       "Fajr",
			Location:    req.Location.Label(),
			Description: "Calcul: AlAdhan (method=12, school=0).",
		}},
	}, nil
}

func (b *fakeBuilder) requests() []model.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Request(nil), b.reqs...)
}

func newTestExporter(exports []config.ExportConfig, b FeedBuilder) *Exporter {
	cfg := config.DefaultConfig()
	cfg.Exports = exports
	return NewExporter(cfg, params.NewResolver(cfg), b)
}

func TestRunOne_WritesParseableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds", "london.ics")
	b := &fakeBuilder{}
	e := newTestExporter(nil, b)

	res, err := e.RunOne(context.Background(), config.ExportConfig{
		Name:  "london",
		Path:  path,
		Query: "lat=51.5074&lon=-0.1278&city=London&alarm=10",
	})
	require.NoError(t, err)
	assert.Equal(t, Result{Name: "london", Path: path, Events: 1}, res)

	reqs := b.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, 51.5074, reqs[0].Location.Latitude)
	assert.Equal(t, "London", reqs[0].Location.City)
	require.NotNil(t, reqs[0].Options.AlarmMinutes)
	assert.Equal(t, 10, *reqs[0].Options.AlarmMinutes)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	parsed, err := ics.ParseFeed(data)
	require.NoError(t, err)
	assert.Equal(t, "Horaires de prière – London", parsed.Name)
	require.Len(t, parsed.Events, 1)
	assert.Equal(t, "Fajr", parsed.Events[0].Summary)
}

func TestRunOne_Errors(t *testing.T) {
	e := newTestExporter(nil, &fakeBuilder{})

	_, err := e.RunOne(context.Background(), config.ExportConfig{Name: "nopath", Query: "lat=1"})
	assert.ErrorContains(t, err, "path is empty")

	_, err = e.RunOne(context.Background(), config.ExportConfig{
		Name:  "badquery",
		Path:  filepath.Join(t.TempDir(), "x.ics"),
		Query: "lat=%zz",
	})
	assert.ErrorContains(t, err, "query")

	failing := newTestExporter(nil, &fakeBuilder{err: context.Canceled})
	_, err = failing.RunOne(context.Background(), config.ExportConfig{
		Name: "cancelled",
		Path: filepath.Join(t.TempDir(), "x.ics"),
	})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRunAll_ContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	exports := []config.ExportConfig{
		{Name: "broken", Path: ""},
		{Name: "paris", Path: filepath.Join(dir, "paris.ics")},
		{Name: "london", Path: filepath.Join(dir, "london.ics"), Query: "city=London"},
	}
	e := newTestExporter(exports, &fakeBuilder{})

	results, errs := e.RunAll(context.Background())
	require.Len(t, errs, 1)
	require.Len(t, results, 2)
	assert.Equal(t, "paris", results[0].Name)
	assert.Equal(t, "london", results[1].Name)

	_, err := os.Stat(filepath.Join(dir, "paris.ics"))
	assert.NoError(t, err)
}

func TestSchedule(t *testing.T) {
	e := newTestExporter(nil, &fakeBuilder{})
	_, err := e.Schedule(context.Background(), "@every 1h")
	assert.Error(t, err, "no exports")

	e = newTestExporter([]config.ExportConfig{{Name: "a", Path: filepath.Join(t.TempDir(), "a.ics")}}, &fakeBuilder{})
	_, err = e.Schedule(context.Background(), "not a cron spec")
	assert.Error(t, err)

	stop, err := e.Schedule(context.Background(), "@every 1h")
	require.NoError(t, err)
	stop()
}
