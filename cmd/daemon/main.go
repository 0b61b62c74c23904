// cmd/daemon/main.go
// Runs the aggregation cycle on a fixed interval: snapshot the result store,
// decide and collate every scope, and publish the bundle set.
//
// Usage:
//
//	go run ./cmd/daemon [-once]
package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/padraicbc/electioncalls/aggregate"
	"github.com/padraicbc/electioncalls/config"
	"github.com/padraicbc/electioncalls/db"
	applog "github.com/padraicbc/electioncalls/logger"
	"github.com/padraicbc/electioncalls/metrics"
	"github.com/padraicbc/electioncalls/publish"
)

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	cfg := config.Load()
	logger, err := applog.New(cfg.Debug, "daemon")
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	election, err := config.LoadElection(cfg.ElectionFile)
	if err != nil {
		logger.Fatal("load election failed", zap.Error(err))
	}

	bdb := db.Setup(cfg)
	defer bdb.Close()
	if err := db.CreateTables(context.Background(), bdb); err != nil {
		logger.Fatal("create tables failed", zap.Error(err))
	}

	r := &runner{
		store:   db.NewStore(bdb),
		driver:  aggregate.NewDriver(aggregate.ConfigFromElection(election, cfg.Workers), logger),
		sink:    publish.Dir{Path: cfg.OutputDir},
		metrics: metrics.New(prometheus.DefaultRegisterer),
		logger:  logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		if err := r.cycle(ctx); err != nil {
			logger.Fatal("cycle failed", zap.Error(err))
		}
		return
	}

	logger.Info("daemon started", zap.Duration("interval", cfg.CycleInterval), zap.String("output", cfg.OutputDir))
	r.loop(ctx, cfg.CycleInterval)
	logger.Info("daemon stopped")
}

// loop runs a cycle per tick. Cycles run on this goroutine, so a slow cycle
// delays the next tick instead of overlapping it.
func (r *runner) loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		_ = r.cycle(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
