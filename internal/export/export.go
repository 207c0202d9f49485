package export

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"prayerics/internal/config"
	"prayerics/internal/ics"
	appLog "prayerics/internal/log"
	"prayerics/internal/model"
	"prayerics/internal/params"
)

// FeedBuilder builds a calendar feed for one resolved request.
type FeedBuilder interface {
	Build(ctx context.Context, req model.Request) (*ics.Feed, error)
}

// Result describes one written export.
type Result struct {
	Name   string
	Path   string
	Events int
}

// Exporter renders the configured exports to disk.
type Exporter struct {
	exports  []config.ExportConfig
	resolver *params.Resolver
	builder  FeedBuilder

	// runMu serializes runs so a slow run is never overlapped by the next tick.
	runMu sync.Mutex
}

// NewExporter creates an Exporter for cfg.Exports.
func NewExporter(cfg *config.Config, resolver *params.Resolver, builder FeedBuilder) *Exporter {
	return &Exporter{
		exports:  cfg.Exports,
		resolver: resolver,
		builder:  builder,
	}
}

// RunAll writes every export. Failures are logged and collected; other
// exports still run.
func (e *Exporter) RunAll(ctx context.Context) ([]Result, []error) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	results := make([]Result, 0, len(e.exports))
	errs := make([]error, 0)

	for _, exp := range e.exports {
		res, err := e.RunOne(ctx, exp)
		if err != nil {
			errs = append(errs, err)
			appLog.Error("export failed", err, "name", exp.Name, "path", exp.Path)
			continue
		}
		results = append(results, res)
	}
	return results, errs
}

// RunOne builds a single export, writes it atomically and parses the file
// back to verify it.
func (e *Exporter) RunOne(ctx context.Context, exp config.ExportConfig) (Result, error) {
	if exp.Path == "" {
		return Result{}, fmt.Errorf("export %q: path is empty", exp.Name)
	}
	q, err := url.ParseQuery(exp.Query)
	if err != nil {
		return Result{}, fmt.Errorf("export %q: query: %w", exp.Name, err)
	}

	feed, err := e.builder.Build(ctx, e.resolver.Resolve(q, nil))
	if err != nil {
		return Result{}, fmt.Errorf("export %q: build: %w", exp.Name, err)
	}
	body := []byte(feed.Encode())

	if err := config.WriteFileAtomic(exp.Path, body, 0o644); err != nil {
		return Result{}, fmt.Errorf("export %q: write: %w", exp.Name, err)
	}

	parsed, err := ics.ParseFeed(body)
	if err != nil {
		return Result{}, fmt.Errorf("export %q: verify: %w", exp.Name, err)
	}
	if len(parsed.Events) != len(feed.Events) {
		return Result{}, fmt.Errorf("export %q: verify: wrote %d events, parsed %d", exp.Name, len(feed.Events), len(parsed.Events))
	}

	appLog.Info("export written", "name", exp.Name, "path", exp.Path, "events", len(parsed.Events))
	return Result{Name: exp.Name, Path: exp.Path, Events: len(parsed.Events)}, nil
}

// Schedule registers RunAll on spec with a new cron scheduler and starts it.
// The returned stop function waits for a running export to finish.
func (e *Exporter) Schedule(ctx context.Context, spec string) (func(), error) {
	if len(e.exports) == 0 {
		return func() {}, errors.New("no exports configured")
	}

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		start := time.Now()
		results, errs := e.RunAll(ctx)
		appLog.Info("scheduled export run finished",
			"written", len(results),
			"failed", len(errs),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("refresh schedule %q: %w", spec, err)
	}

	c.Start()
	appLog.Info("export scheduler started", "refresh", spec, "exports", len(e.exports))

	return func() {
		<-c.Stop().Done()
	}, nil
}
