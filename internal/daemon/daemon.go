package daemon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/shadowlingo/shadow/internal/api"
	"github.com/shadowlingo/shadow/internal/app/presenter"
	"github.com/shadowlingo/shadow/internal/app/stats"
	"github.com/shadowlingo/shadow/internal/infra/analytics"
	"github.com/shadowlingo/shadow/internal/infra/docstore"
	_ "github.com/shadowlingo/shadow/internal/infra/metrics" // Register Prometheus metrics
	"github.com/shadowlingo/shadow/internal/infra/scheduler"
)

// Daemon is the core Shadow runtime. It wires together all services.
type Daemon struct {
	Config     Config
	Store      *docstore.DB
	Streak     *stats.StreakService
	Aggregator *stats.Aggregator
	Presenter  *presenter.Controller
	Server     *api.Server
	Scheduler  *scheduler.Scheduler
	Log        zerolog.Logger
	cancel     context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New(version string) (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg, version)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config, version string) (*Daemon, error) {
	log := newLogger(cfg.Logging.Level)

	store, err := docstore.Open(shadowHome())
	if err != nil {
		return nil, fmt.Errorf("open document store: %w", err)
	}

	sink := analytics.NewLogSink(log)
	streak := stats.NewStreakService(store, log)

	agg, err := stats.NewAggregator(stats.AggregatorConfig{
		UserID:        cfg.User.ID,
		Timezone:      cfg.User.Timezone,
		SyncThreshold: cfg.Stats.SyncThreshold,
	}, store, stats.DefaultRanks(), streak, sink, log)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("build aggregator: %w", err)
	}

	ctrl := presenter.NewControllerWithTimings(agg, sink, log,
		time.Duration(cfg.Presentation.SnackbarMS)*time.Millisecond,
		time.Duration(cfg.Presentation.MilestoneMS)*time.Millisecond)

	srv := api.NewServer(agg, streak, ctrl, cfg.User.ID, version)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	d := &Daemon{
		Config:     cfg,
		Store:      store,
		Streak:     streak,
		Aggregator: agg,
		Presenter:  ctrl,
		Server:     srv,
		Log:        log,
	}

	if cfg.Stats.RetentionDays > 0 {
		loc, err := time.LoadLocation(cfg.User.Timezone)
		if err != nil {
			loc = time.UTC
		}
		sched := scheduler.New(loc, log)
		err = sched.Daily("prune-daily-stats", cfg.Stats.PruneAt, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			pruned, err := agg.PruneDaily(ctx, cfg.Stats.RetentionDays)
			if err != nil {
				return err
			}
			sink.Publish(analytics.New("maintenance.prune", map[string]any{
				"pruned": pruned,
			}))
			return nil
		})
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("schedule pruning: %w", err)
		}
		d.Scheduler = sched
	}

	return d, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if d.Scheduler != nil {
		d.Scheduler.Start()
	}

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if d.Scheduler != nil {
			d.Scheduler.Stop()
		}
		d.Presenter.Close()
		d.Aggregator.ForceSync(shutdownCtx)
		_ = httpServer.Shutdown(shutdownCtx)
		_ = d.Store.Close()
	}()

	d.Log.Info().Str("addr", addr).Str("user", d.Config.User.ID).Msg("shadow serving")
	if d.Config.Telemetry.Prometheus {
		d.Log.Info().Msgf("metrics: http://%s/metrics", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.Scheduler != nil {
		d.Scheduler.Stop()
	}
	if d.Presenter != nil {
		d.Presenter.Close()
	}
	if d.Store != nil {
		_ = d.Store.Close()
	}
}

// newLogger builds the daemon's console logger at the configured level.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
