// Package app wires all Lookout subsystems into a running application.
//
// The App struct owns the full lifecycle: New builds the orchestrator, engine
// cache and ops HTTP server, Run serves until the context is cancelled, and
// Shutdown tears everything down in order.
//
// For testing, inject doubles via the [Providers] struct and functional
// options (WithMetrics, WithSessionOptions, ...).
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/lookout/internal/command"
	"github.com/MrWong99/lookout/internal/config"
	"github.com/MrWong99/lookout/internal/health"
	"github.com/MrWong99/lookout/internal/observe"
	"github.com/MrWong99/lookout/internal/resilience"
	"github.com/MrWong99/lookout/internal/session"
	"github.com/MrWong99/lookout/pkg/provider/camera"
	"github.com/MrWong99/lookout/pkg/provider/detector"
	"github.com/MrWong99/lookout/pkg/provider/listener"
	"github.com/MrWong99/lookout/pkg/provider/narrator"
)

// Providers holds one interface value per collaborator. All four are
// required. Populated by main.go via the config registry.
type Providers struct {
	Listener listener.Provider
	Narrator narrator.Provider
	Camera   camera.Provider
	Detector detector.Loader
}

// App owns all subsystem lifetimes.
type App struct {
	cfg       *config.Config
	providers *Providers

	metrics        *observe.Metrics
	metricsHandler http.Handler
	sessionOpts    []session.Option

	breaker *resilience.CircuitBreaker
	engines *session.EngineCache
	orch    *session.Orchestrator
	server  *http.Server

	// closers are called in order during Shutdown.
	closers []func() error

	stopOnce sync.Once
}

// Option is a functional option for New.
type Option func(*App)

// WithMetrics sets the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithMetricsHandler mounts h at /metrics on the ops server.
func WithMetricsHandler(h http.Handler) Option {
	return func(a *App) { a.metricsHandler = h }
}

// WithSessionOptions passes extra options to the orchestrator.
func WithSessionOptions(opts ...session.Option) Option {
	return func(a *App) { a.sessionOpts = append(a.sessionOpts, opts...) }
}

// WithCloser registers fn to be called during Shutdown after the orchestrator
// has stopped.
func WithCloser(fn func() error) Option {
	return func(a *App) { a.closers = append(a.closers, fn) }
}

// New creates an App by wiring all subsystems together. cfg must have had
// defaults applied (as [config.Load] does).
func New(cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil {
		return nil, errors.New("app: providers are required")
	}
	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	// ── 1. Engine cache ──────────────────────────────────────────────────
	a.breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:        "detector-load",
		MaxFailures: cfg.Session.LoadBreaker.MaxFailures,
		Cooldown:    cfg.Session.LoadBreaker.Cooldown,
	})
	a.engines = session.NewEngineCache(providers.Detector, a.breaker, a.metrics)

	// ── 2. Orchestrator ──────────────────────────────────────────────────
	sopts := []session.Option{
		session.WithMetrics(a.metrics),
		session.WithEngineCache(a.engines),
		session.WithStatusFunc(logStatus),
	}
	if t := cfg.Session.PhoneticThreshold; t > 0 {
		sopts = append(sopts, session.WithInterpreter(command.New(command.WithPhonetic(t))))
	}
	sopts = append(sopts, a.sessionOpts...)
	orch, err := session.New(session.Deps{
		Listener: providers.Listener,
		Narrator: providers.Narrator,
		Camera:   providers.Camera,
		Detector: providers.Detector,
	}, cfg.SessionConfig(), sopts...)
	if err != nil {
		return nil, fmt.Errorf("app: init orchestrator: %w", err)
	}
	a.orch = orch

	// ── 3. Ops server ────────────────────────────────────────────────────
	a.server = &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return a, nil
}

// Orchestrator returns the session orchestrator.
func (a *App) Orchestrator() *session.Orchestrator { return a.orch }

// Handler returns the ops HTTP handler: health probes, metrics, and the
// trigger/status control endpoints, wrapped in the observability middleware.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	health.New(
		health.Checker{Name: "detector", Check: a.engines.Ready},
	).Register(mux)
	if a.metricsHandler != nil {
		mux.Handle("GET /metrics", a.metricsHandler)
	}
	mux.HandleFunc("POST /trigger", a.handleTrigger)
	mux.HandleFunc("GET /status", a.handleStatus)
	return observe.Middleware(a.metrics)(mux)
}

// Run serves the ops endpoint until ctx is cancelled or the listener fails.
// It does not stop the orchestrator; call Shutdown for that.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("app: listen %q: %w", a.server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	slog.Info("app: ops server listening", "addr", ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 5*time.Second)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Shutdown stops the orchestrator (releasing any open capture), closes the
// ops server and runs the registered closers. If ctx expires first the
// remaining closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("app: shutting down", "closers", len(a.closers))

		if err := a.orch.Close(ctx); err != nil {
			slog.Warn("app: orchestrator close", "err", err)
			shutdownErr = err
			return
		}
		if err := a.server.Shutdown(ctx); err != nil {
			slog.Warn("app: ops server close", "err", err)
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("app: shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("app: closer error", "index", i, "err", err)
			}
		}

		slog.Info("app: shutdown complete")
	})
	return shutdownErr
}

// logStatus is the default status surface: every status change is logged.
func logStatus(s session.Status) {
	slog.Info("status", "state", s.State, "text", s.Text, "busy", s.Busy)
}
