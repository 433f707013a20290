// Command simplexss runs a tick loop host with the pools and services
// declared in a YAML file. Services log each activation; the process is a
// bootstrap reference and a soak harness for the scheduler.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	simplexss "github.com/SimplexDevelopment/SimplexSS"
	"github.com/SimplexDevelopment/SimplexSS/internal/logging"
	"github.com/SimplexDevelopment/SimplexSS/pkg/config"
	"github.com/SimplexDevelopment/SimplexSS/pkg/host/tickloop"
	"github.com/SimplexDevelopment/SimplexSS/pkg/journal"
	"github.com/SimplexDevelopment/SimplexSS/pkg/metrics"
	"github.com/SimplexDevelopment/SimplexSS/pkg/scheduling/scheduler"
	"github.com/SimplexDevelopment/SimplexSS/pkg/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var (
		cfgPath string
		sample  bool
	)
	flag.StringVar(&cfgPath, "config", "", "path to config yaml (defaults when empty)")
	flag.BoolVar(&sample, "sample", false, "print a sample config and exit")
	flag.Parse()

	if sample {
		fmt.Print(config.Sample())
		return
	}

	cfg := config.Default()
	if cfgPath != "" {
		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			fmt.Fprintln(os.Stderr, "fatal:", err)
			os.Exit(1)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log := logging.New(cfg.Logging, os.Stderr)
	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("exit")
		os.Exit(1)
	}
}

// run blocks until ctx is done, then shuts everything down.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	loop := tickloop.New(tickloop.Config{TickInterval: cfg.Tick(), Logger: &log})

	opts := []simplexss.Option{
		simplexss.WithLogger(log),
		simplexss.WithSchedulerOptions(scheduler.WithTickInterval(cfg.Tick())),
	}

	var registry *metrics.Registry
	if cfg.Metrics.Enabled {
		registry = metrics.New(metrics.DefaultConfig())
		opts = append(opts, simplexss.WithMetrics(registry))
	}

	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn().Err(err).Msg("close")
			}
		}
	}()

	if cfg.Journal.Enabled() {
		w, closeJournal, err := openJournal(ctx, cfg.Journal, registry, log)
		if err != nil {
			return err
		}
		closers = append(closers, closeJournal)
		opts = append(opts, simplexss.WithObserver(w.Observe))
	}

	sys, err := simplexss.New(loop, opts...)
	if err != nil {
		return err
	}
	shutdown := func() error {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := sys.Shutdown(sctx).Err(sctx)
		loop.Stop()
		return err
	}

	if err := buildPools(ctx, sys, loop, cfg.Pools, log); err != nil {
		return errors.Join(err, shutdown())
	}

	if cfg.Metrics.Enabled {
		srv := serveMetrics(cfg.Metrics.Addr, log)
		closers = append(closers, func() error {
			sctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	loop.Start()
	queued, err := sys.QueueAll(ctx).Count(ctx)
	if err != nil {
		return errors.Join(err, shutdown())
	}
	log.Info().Int64("queued", queued).Dur("tick", cfg.Tick()).Msg("scheduler running")

	<-ctx.Done()
	log.Info().Msg("shutting down")
	return shutdown()
}

func buildPools(ctx context.Context, sys *simplexss.System, loop *tickloop.Loop, pools []config.PoolConfig, log zerolog.Logger) error {
	for _, pc := range pools {
		strategy, err := pc.StrategyFor(loop)
		if err != nil {
			return err
		}

		services := make([]service.Service, 0, len(pc.Services))
		for _, sc := range pc.Services {
			svc, err := demoService(sc, log.With().Str("pool", pc.Name).Logger())
			if err != nil {
				return err
			}
			services = append(services, svc)
		}

		p, err := sys.ServiceManager().CreatePool(pc.Name, strategy, services...).Await(ctx)
		if err != nil {
			return err
		}
		log.Info().Str("pool", p.Name()).Stringer("strategy", strategy).Int("services", len(services)).Msg("pool created")
	}
	return nil
}

// demoService logs its activations.
func demoService(sc config.ServiceConfig, log zerolog.Logger) (*service.Executable, error) {
	opts, err := sc.Options()
	if err != nil {
		return nil, err
	}
	log = log.With().Str("service", sc.Name).Logger()

	var runs atomic.Int64
	opts = append(opts,
		service.WithStart(func(context.Context) error {
			log.Info().Int64("run", runs.Add(1)).Msg("activation")
			return nil
		}),
		service.WithStop(func(context.Context) error {
			log.Info().Msg("stopped")
			return nil
		}),
	)
	return service.New(sc.Name, opts...)
}

func openJournal(ctx context.Context, cfg config.JournalConfig, registry *metrics.Registry, log zerolog.Logger) (*journal.Writer, func() error, error) {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("journal: redis %s: %w", cfg.RedisAddr, err)
	}

	j, err := journal.NewRedis(journal.RedisConfig{
		Redis:  rdb,
		Key:    cfg.Key,
		MaxLen: cfg.MaxLen,
	})
	if err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}

	w := journal.NewWriter(j, journal.WriterConfig{Metrics: registry, Logger: &log})
	log.Info().Str("redis", cfg.RedisAddr).Str("key", j.Key()).Msg("journal enabled")

	return w, func() error {
		return errors.Join(w.Close(), rdb.Close())
	}, nil
}

func serveMetrics(addr string, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server")
		}
	}()
	log.Info().Str("addr", addr).Msg("serving /metrics")
	return srv
}
