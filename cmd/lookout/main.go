// Command lookout is the entry point of the Lookout scene-description
// assistant.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/lookout/internal/app"
	"github.com/MrWong99/lookout/internal/config"
	"github.com/MrWong99/lookout/internal/observe"
	"github.com/MrWong99/lookout/pkg/provider/camera"
	"github.com/MrWong99/lookout/pkg/provider/camera/still"
	"github.com/MrWong99/lookout/pkg/provider/detector"
	"github.com/MrWong99/lookout/pkg/provider/detector/fixture"
	"github.com/MrWong99/lookout/pkg/provider/listener"
	listenerconsole "github.com/MrWong99/lookout/pkg/provider/listener/console"
	"github.com/MrWong99/lookout/pkg/provider/narrator"
	narratorconsole "github.com/MrWong99/lookout/pkg/provider/narrator/console"
	"github.com/MrWong99/lookout/pkg/types"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	loop := flag.Bool("loop", true, "start a new session whenever the orchestrator is idle (console mode)")
	watch := flag.Bool("watch", false, "reload server.log_level when the config file changes")
	traceOut := flag.Bool("trace", false, "write finished trace spans to stderr as JSON")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "lookout: config file %q not found; copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "lookout: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	level := new(slog.LevelVar)
	level.Set(slogLevel(cfg.Server.LogLevel))
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	slog.Info("lookout starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"flow", cfg.Session.Flow,
	)

	// ── Telemetry ─────────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telCfg := observe.ProviderConfig{ServiceVersion: version}
	if *traceOut {
		telCfg.TraceWriter = os.Stderr
	}
	tel, err := observe.InitProvider(ctx, telCfg)
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}

	// ── Providers ─────────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	providers, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	// ── Config watcher ────────────────────────────────────────────────────────
	var watcher *config.Watcher
	if *watch {
		watcher, err = config.NewWatcher(*configPath, func(r config.Reload) {
			if r.Diff.LogLevelChanged {
				level.Set(slogLevel(r.Diff.NewLogLevel))
				slog.Info("log level changed", "level", r.Diff.NewLogLevel)
			}
			if r.Diff.RequiresRestart() {
				slog.Warn("config change requires a restart to take effect",
					"providers", r.Diff.ProvidersChanged,
					"session", r.Diff.SessionChanged,
					"listen_addr", r.Diff.ListenAddrChanged,
				)
			}
		})
		if err != nil {
			slog.Error("failed to start config watcher", "err", err)
			return 1
		}
	}

	// ── Application ───────────────────────────────────────────────────────────
	application, err := app.New(cfg, providers, app.WithMetricsHandler(tel.MetricsHandler))
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	printStartupSummary(cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return application.Run(gctx) })
	if watcher != nil {
		g.Go(func() error { return watcher.Run(gctx) })
	}
	if *loop {
		g.Go(func() error {
			if err := application.TriggerLoop(gctx); err != nil {
				return err
			}
			// Input exhausted: nothing more to listen to.
			stop()
			return nil
		})
	}

	runErr := g.Wait()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutting down")
	code := 0
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		slog.Error("run error", "err", runErr)
		code = 1
	}
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		code = 1
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		slog.Warn("telemetry shutdown error", "err", err)
	}
	slog.Info("goodbye")
	return code
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires all built-in provider factories into reg.
func registerBuiltinProviders(reg *config.Registry) {
	reg.RegisterListener("console", func(entry config.ProviderEntry) (listener.Provider, error) {
		// Prompt only when a person is typing, unless configured explicitly.
		prompt := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		if v, ok := entry.Options["prompt"].(bool); ok {
			prompt = v
		}
		var opts []listenerconsole.Option
		if prompt {
			opts = append(opts, listenerconsole.WithPrompt(os.Stdout))
		}
		return listenerconsole.New(os.Stdin, opts...), nil
	})

	reg.RegisterNarrator("console", func(entry config.ProviderEntry) (narrator.Provider, error) {
		return narratorconsole.New(os.Stdout, entry.OptionString("prefix", "")), nil
	})

	reg.RegisterCamera("still", func(entry config.ProviderEntry) (camera.Provider, error) {
		path := entry.OptionString("path", "")
		if path == "" {
			return nil, errors.New("still: options.path is required")
		}
		facing := types.Facing(entry.OptionString("facing", string(types.FacingEnvironment)))
		return still.New(path, facing)
	})

	reg.RegisterDetector("fixture", func(entry config.ProviderEntry) (detector.Loader, error) {
		path := entry.OptionString("path", "")
		if path == "" {
			return nil, errors.New("fixture: options.path is required")
		}
		return fixture.New(path), nil
	})

	for kind, names := range config.ValidProviderNames {
		for _, name := range names {
			slog.Debug("registered provider", "kind", kind, "name", name)
		}
	}
}

// buildProviders instantiates all four collaborators named in cfg.
func buildProviders(cfg *config.Config, reg *config.Registry) (*app.Providers, error) {
	ps := &app.Providers{}
	var err error

	if ps.Listener, err = reg.CreateListener(cfg.Providers.Listener); err != nil {
		return nil, fmt.Errorf("create listener %q: %w", cfg.Providers.Listener.Name, err)
	}
	if ps.Narrator, err = reg.CreateNarrator(cfg.Providers.Narrator); err != nil {
		return nil, fmt.Errorf("create narrator %q: %w", cfg.Providers.Narrator.Name, err)
	}
	if ps.Camera, err = reg.CreateCamera(cfg.Providers.Camera); err != nil {
		return nil, fmt.Errorf("create camera %q: %w", cfg.Providers.Camera.Name, err)
	}
	if ps.Detector, err = reg.CreateDetector(cfg.Providers.Detector); err != nil {
		return nil, fmt.Errorf("create detector %q: %w", cfg.Providers.Detector.Name, err)
	}

	slog.Info("providers created",
		"listener", cfg.Providers.Listener.Name,
		"narrator", cfg.Providers.Narrator.Name,
		"camera", cfg.Providers.Camera.Name,
		"detector", cfg.Providers.Detector.Name,
	)
	return ps, nil
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	s := cfg.Session
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║         Lookout — startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printRow("Listener", cfg.Providers.Listener.Name)
	printRow("Narrator", cfg.Providers.Narrator.Name)
	printRow("Camera", cfg.Providers.Camera.Name)
	printRow("Detector", cfg.Providers.Detector.Name)
	printRow("Flow", string(s.Flow))
	printRow("Sampling", fmt.Sprintf("%d × %s > %.2f", s.Attempts, s.Interval, s.MinConfidence))
	printRow("Dwell", s.Dwell.String())
	printRow("Ops addr", cfg.Server.ListenAddr)
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printRow(label, value string) {
	if value == "" {
		value = "(not configured)"
	}
	if len([]rune(value)) > 19 {
		value = string([]rune(value)[:16]) + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", label, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
