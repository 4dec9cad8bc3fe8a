// Command sportz serves the sports REST API and the live WebSocket feed.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	sphttp "github.com/Strob0t/sportz/internal/adapter/http"
	spnats "github.com/Strob0t/sportz/internal/adapter/nats"
	"github.com/Strob0t/sportz/internal/adapter/natskv"
	spotel "github.com/Strob0t/sportz/internal/adapter/otel"
	"github.com/Strob0t/sportz/internal/adapter/postgres"
	"github.com/Strob0t/sportz/internal/adapter/ristretto"
	"github.com/Strob0t/sportz/internal/adapter/tiered"
	"github.com/Strob0t/sportz/internal/adapter/ws"
	"github.com/Strob0t/sportz/internal/config"
	"github.com/Strob0t/sportz/internal/hub"
	"github.com/Strob0t/sportz/internal/logger"
	"github.com/Strob0t/sportz/internal/middleware"
	"github.com/Strob0t/sportz/internal/port/cache"
	"github.com/Strob0t/sportz/internal/port/messagequeue"
	"github.com/Strob0t/sportz/internal/resilience"
	"github.com/Strob0t/sportz/internal/service"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags, err := config.ParseFlags(args)
	if err != nil {
		return err
	}
	cfg, cfgPath, err := config.LoadWithCLI(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	holder := config.NewHolder(cfg, cfgPath).WithCLI(flags)

	level := new(slog.LevelVar)
	logger.SetLevel(level, cfg.Logging.Level)
	log, closeLog := logger.Build(cfg.Logging, os.Stdout, level)
	defer closeLog.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"config_file", cfgPath,
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"nats_enabled", cfg.NATS.URL != "",
		"backpressure", cfg.Hub.Backpressure,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability ---

	shutdownOTel, err := spotel.Setup(ctx, cfg.OTel)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()
	hubMetrics, err := spotel.NewHubMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	migrator, err := postgres.NewMigrator(pool, slog.Default())
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	schemaVersion, err := migrator.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("schema ready", "version", schemaVersion)

	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB<<20, cfg.Cache.L1TTL)
	if err != nil {
		return fmt.Errorf("l1 cache: %w", err)
	}
	defer l1.Close()
	var matchCache cache.Cache = l1

	var queue messagequeue.Queue = messagequeue.Nop{}
	if cfg.NATS.URL != "" {
		nq, err := spnats.Connect(ctx, cfg.NATS.URL, cfg.NATS.Stream)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = nq.Close() }()
		queue = nq

		l2, err := natskv.Open(ctx, nq.JetStream(), cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
		if err != nil {
			return fmt.Errorf("l2 cache: %w", err)
		}
		matchCache = tiered.New(l1, l2, cfg.Cache.L1TTL)
	} else {
		slog.Info("nats disabled, event export and l2 cache are off")
	}

	// --- Live feed ---

	policy, err := hub.ParsePolicy(cfg.Hub.Backpressure)
	if err != nil {
		return fmt.Errorf("hub: %w", err)
	}
	liveHub := hub.New(hub.Options{
		QueueCapacity:          cfg.Hub.QueueCapacity,
		Policy:                 policy,
		WriteTimeout:           cfg.Hub.WriteTimeout,
		MaxTopicsPerConnection: cfg.Hub.MaxTopicsPerConnection,
		Logger:                 log,
		Metrics:                hubMetrics,
	})
	monitor := hub.NewMonitor(liveHub, hub.MonitorConfig{
		Interval:  cfg.Hub.HeartbeatInterval,
		Timeout:   cfg.Hub.HeartbeatTimeout,
		MaxMissed: cfg.Hub.MaxMissed,
	})
	liveFeed := service.NewLiveFeed(liveHub, log)

	// --- Services ---

	store := postgres.NewStore(pool)
	exporter := service.NewExporter(queue,
		resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout), log)
	matchSvc := service.NewMatchService(store, matchCache, liveFeed, exporter)
	commentarySvc := service.NewCommentaryService(store, matchSvc, liveFeed, exporter)

	// --- HTTP ---

	handlers := &sphttp.Handlers{
		Matches:    matchSvc,
		Commentary: commentarySvc,
		DB:         store,
		Live:       liveHub,
		Version:    version,
	}
	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	wsHandler := ws.NewHandler(liveHub, ws.Options{
		OriginPatterns: cfg.Hub.OriginPatterns,
		ReadLimit:      cfg.Hub.ReadLimit,
		MaxTopics:      cfg.Hub.MaxTopicsPerConnection,
		Logger:         log,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(sphttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(sphttp.SecurityHeaders)
	r.Use(sphttp.CORS(cfg.Server.CORSOrigin))
	r.Use(spotel.HTTPMiddleware(cfg.OTel.ServiceName))

	// The live feed is long-lived and must not inherit the REST timeout.
	r.Get("/ws", wsHandler.ServeHTTP)
	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
		sphttp.MountRoutes(r, handlers,
			limiter.Handler,
			middleware.Idempotency(matchCache, cfg.Server.IdempotencyTTL))
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// --- Lifecycle ---

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "addr", srv.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		monitor.Run(gctx)
		return nil
	})
	g.Go(func() error {
		limiter.Run(gctx, cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
		return nil
	})
	g.Go(func() error {
		err := config.Watch(gctx, holder, func(next *config.Config) {
			applyReload(level, liveHub, next)
		})
		if err != nil {
			slog.Warn("config hot reload unavailable", "path", holder.Path(), "error", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), holder.Get().Server.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(sctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := liveHub.Shutdown(sctx); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("shutdown complete")
	return nil
}

// applyReload pushes the hot-reloadable settings of next into the running
// process. Everything else needs a restart.
func applyReload(level *slog.LevelVar, h *hub.Hub, next *config.Config) {
	logger.SetLevel(level, next.Logging.Level)

	policy, err := hub.ParsePolicy(next.Hub.Backpressure)
	if err != nil {
		slog.Warn("config reload: keeping backpressure policy", "error", err)
		return
	}
	h.SetBackpressure(next.Hub.QueueCapacity, policy)
	slog.Info("config reloaded",
		"log_level", next.Logging.Level,
		"queue_capacity", next.Hub.QueueCapacity,
		"backpressure", policy)
}
