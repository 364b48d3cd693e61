// Package web serves the SQL console over HTTP: it hosts the database
// image, renders the console page and executes each browser edit against
// a database owned by that browser's session.
package web

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/sqlrepl/internal/console"
	"github.com/leapstack-labs/sqlrepl/internal/engine"
	"github.com/leapstack-labs/sqlrepl/internal/metrics"
	"github.com/leapstack-labs/sqlrepl/internal/web/notifier"
	"github.com/leapstack-labs/sqlrepl/internal/web/resources"
)

const (
	shutdownTimeout = 5 * time.Second
	sessionTTL      = 30 * time.Minute
)

// OpenFunc brings a database online from source.
type OpenFunc func(ctx context.Context, source string) (*engine.Database, error)

// Config holds configuration for the web server.
type Config struct {
	// Addr is the listen address.
	Addr string
	// ImagePath is the image file served at /db.sqlite.
	ImagePath string
	// Source is the image each session loads. Empty means this server's
	// own /db.sqlite, addressed through the loopback side of the listener.
	Source string
	// Engine is shown on the console page.
	Engine string
	// SessionSecret signs the session cookie. Empty generates a random
	// key, so sessions do not survive a restart.
	SessionSecret string
	// SecureCookie marks the session cookie Secure. Leave it off when
	// serving plain HTTP or clients never send the cookie back.
	SecureCookie bool
	// RateLimit is executions per second per session; zero disables it.
	RateLimit float64
	RateBurst int
	// Watch reloads the image when the file changes.
	Watch bool
	// Splash shows the card splash before the console.
	Splash bool
	// Open runs the bootstrap for a new session.
	Open OpenFunc
	// Console configures every session's query loop.
	Console console.Config
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Server is the web console server.
type Server struct {
	cfg          Config
	logger       *slog.Logger
	image        *imageCache
	sessions     *sessionStore
	sessionStore *sessions.CookieStore
	notifier     *notifier.Notifier
	handler      http.Handler
	selfURL      atomic.Pointer[string]
}

// NewServer creates a server and loads the image, building the demo
// image when the file does not exist.
func NewServer(ctx context.Context, cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Open == nil {
		return nil, errors.New("web: Config.Open is required")
	}

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		logger.Warn("no session secret configured, sessions reset on restart")
	}

	cookies := sessions.NewCookieStore(secret)
	cookies.MaxAge(86400 * 30) // 30 days
	cookies.Options.Path = "/"
	cookies.Options.HttpOnly = true
	cookies.Options.Secure = cfg.SecureCookie
	cookies.Options.SameSite = http.SameSiteLaxMode

	s := &Server{
		cfg:          cfg,
		logger:       logger,
		image:        newImageCache(cfg.ImagePath, logger),
		sessions:     newSessionStore(cfg.RateLimit, cfg.RateBurst, logger),
		sessionStore: cookies,
		notifier:     notifier.New(),
	}

	if err := s.image.load(ctx); err != nil {
		return nil, err
	}

	s.handler = s.routes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Notifier returns the image-change notifier.
func (s *Server) Notifier() *notifier.Notifier { return s.notifier }

func (s *Server) routes() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		requestLogger(s.logger),
		metrics.Middleware,
	)

	r.Get("/healthz", s.Healthz)
	r.Handle("/metrics", metrics.Handler())
	r.Handle("/static/*", resources.Handler())

	r.Method(http.MethodGet, "/db.sqlite", s.image)
	r.Method(http.MethodHead, "/db.sqlite", s.image)

	r.With(middleware.Compress(5)).Get("/", s.ConsolePage)
	r.Route("/api", func(r chi.Router) {
		r.Post("/exec", s.Exec)
		r.Get("/updates", s.Updates)
	})

	return r
}

// Serve listens on the configured address and blocks until ctx is
// cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is cancelled, then shuts down
// gracefully and releases every session's database.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.bindListener(ln.Addr())
	s.logger.Info("starting web console", "addr", "http://"+ln.Addr().String())

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.Watch {
		eg.Go(func() error {
			return s.image.watch(egctx, s.imageChanged)
		})
	}

	eg.Go(func() error {
		return s.sessions.janitor(egctx, sessionTTL)
	})

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down web console...")
		return srv.Shutdown(shutdownCtx)
	})

	err := eg.Wait()
	s.sessions.closeAll()
	return err
}

// bindListener points sessions without a configured source at the image
// served on addr. Wildcard addresses resolve to loopback.
func (s *Server) bindListener(addr net.Addr) {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsUnspecified() {
		host = "127.0.0.1"
		if ip.To4() == nil {
			host = "::1"
		}
	}
	u := "http://" + net.JoinHostPort(host, port) + "/db.sqlite"
	s.selfURL.Store(&u)
}

// source is the image every session loads, or empty before the server
// listens when none is configured.
func (s *Server) source() string {
	if s.cfg.Source != "" {
		return s.cfg.Source
	}
	if u := s.selfURL.Load(); u != nil {
		return *u
	}
	return ""
}

// imageChanged drops every session database so the next edit runs
// against the new image, then tells connected pages.
func (s *Server) imageChanged(ev notifier.Event) {
	s.sessions.reset()
	s.notifier.Broadcast(ev)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
