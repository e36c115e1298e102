package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/starter/internal/adapters/http/api"
	"github.com/okian/starter/internal/adapters/http/site"
	"github.com/okian/starter/internal/adapters/http/swagger"
	app "github.com/okian/starter/internal/app"
	"github.com/okian/starter/internal/config"
	"github.com/okian/starter/pkg/logger"
	"github.com/okian/starter/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	readHeaderTimeout         = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

// version is set at build time with -ldflags "-X main.version=...".
var version = app.DefaultVersion

func main() {
	// Default Go collectors live on the default registry; ours is custom.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log, nil); err != nil {
		log.Error(ctx, "server exited", logger.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

// run serves until ctx is cancelled. When ln is nil it listens on cfg.Addr.
func run(ctx context.Context, cfg *config.Config, log logger.Logger, ln net.Listener) error {
	svc := app.New(
		app.WithLogger(log.Named("service")),
		app.WithGreeting(cfg.Greeting),
		app.WithVersion(version),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	// Stop is idempotent; shutdown calls it first on the normal path.
	defer svc.Stop()

	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", cfg.Addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
		}
	}

	srv := &http.Server{
		Handler:           newHandler(ctx, cfg, svc, log),
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		startSystemMetricsUpdater(gctx, cfg.MetricsInterval)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down server...")
		return shutdown(svc, srv, cfg.ShutdownTimeout)
	})

	err := g.Wait()
	log.Info(context.Background(), "server stopped")
	return err
}

type stopper interface{ Stop() }

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// shutdown marks the service unhealthy before draining the server, so
// requests still in flight or arriving on open connections see
// /api/health report "error".
func shutdown(svc stopper, srv shutdowner, timeout time.Duration) error {
	svc.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// newHandler builds the routed mux wrapped in the global middleware chain.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) http.Handler {
	mux := http.NewServeMux()

	api.NewServer(svc, svc, api.WithLogger(log.Named("api"))).Register(ctx, mux)
	if cfg.ServeDocs {
		swagger.Register(ctx, mux)
	}
	if cfg.ServeSite {
		site.Register(ctx, mux)
	}

	return api.Chain(mux,
		api.RequestID(),
		api.AccessLog(log.Named("http")),
		api.CORS(api.CORSConfig{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: cfg.CORSAllowMethods,
			AllowedHeaders: cfg.CORSAllowHeaders,
			MaxAge:         cfg.CORSMaxAge,
		}),
	)
}

// startSystemMetricsUpdater refreshes system metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context, interval time.Duration) {
	updateSystemMetrics()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
