package web

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"prayerics/internal/config"
	"prayerics/internal/ics"
	appLog "prayerics/internal/log"
	"prayerics/internal/model"
	"prayerics/internal/params"
)

const (
	FeedPath       = "/prayers.ics"
	LegacyFeedPath = "/api/prayers"
	HealthPath     = "/health"

	calendarContentType = "text/calendar; charset=utf-8"
)

// FeedBuilder builds a calendar feed for one resolved request.
type FeedBuilder interface {
	Build(ctx context.Context, req model.Request) (*ics.Feed, error)
}

// Server serves the prayer-times feed.
type Server struct {
	cfg      *config.Config
	resolver *params.Resolver
	builder  FeedBuilder
	router   *mux.Router
}

// NewServer constructs a new Server and registers its routes.
func NewServer(cfg *config.Config, resolver *params.Resolver, builder FeedBuilder) *Server {
	s := &Server{
		cfg:      cfg,
		resolver: resolver,
		builder:  builder,
		router:   mux.NewRouter(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler for this server, wrapped in basic auth
// when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.router)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc(HealthPath, s.handleHealth).Methods(http.MethodGet, http.MethodHead)
	s.router.HandleFunc(FeedPath, s.handleFeed).Methods(http.MethodGet, http.MethodHead)
	s.router.HandleFunc(LegacyFeedPath, s.handleFeed).Methods(http.MethodGet, http.MethodHead)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleFeed always answers 200: upstream failures only remove events.
//
// GET /prayers.ics?lat=&lon=&city=&country=&method=&school=
//
//	&latitudeAdjustmentMethod=&tune=&alarm=&horizon=&lang=
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	req := s.resolver.Resolve(r.URL.Query(), r.Header)

	feed, err := s.builder.Build(r.Context(), req)
	if err != nil {
		// Only a cancelled request context gets here; the client is gone.
		appLog.Error("feed build aborted", err, "path", r.URL.Path)
		return
	}

	w.Header().Set("Content-Type", calendarContentType)
	w.Header().Set("Cache-Control", s.cfg.CacheControl)
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write([]byte(feed.Encode())); err != nil {
		appLog.Error("failed to write feed", err)
	}
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == HealthPath {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="prayerics", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
