package main

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/padraicbc/electioncalls/aggregate"
	"github.com/padraicbc/electioncalls/db"
	applog "github.com/padraicbc/electioncalls/logger"
	"github.com/padraicbc/electioncalls/metrics"
	"github.com/padraicbc/electioncalls/models"
	"github.com/padraicbc/electioncalls/publish"
)

type runner struct {
	store   *db.Store
	driver  *aggregate.Driver
	sink    publish.Dir
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func (r *runner) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

// cycle runs snapshot, aggregate and publish once. When the snapshot is
// unusable the cycle is skipped and the last published bundles stay in place.
func (r *runner) cycle(ctx context.Context) error {
	start := r.clock()

	snap, err := r.store.Snapshot(ctx)
	if err != nil {
		status := metrics.StatusFailed
		if errors.Is(err, models.ErrUpstreamFeed) {
			status = metrics.StatusSkipped
			r.logger.Error("cycle skipped", applog.Critical(), zap.Error(err))
		} else {
			r.logger.Error("snapshot failed", zap.Error(err))
		}
		r.metrics.ObserveCycle(status, r.clock().Sub(start))
		return err
	}

	set, err := r.driver.Run(ctx, snap)
	if err != nil {
		r.logger.Error("aggregate failed", zap.Error(err))
		r.metrics.ObserveCycle(metrics.StatusFailed, r.clock().Sub(start))
		return err
	}
	for _, f := range set.Failures {
		r.metrics.PartitionFailed(string(f.Kind))
	}

	n, err := r.sink.Publish(set)
	if err != nil {
		r.logger.Error("publish failed", zap.Error(err))
		r.metrics.ObserveCycle(metrics.StatusFailed, r.clock().Sub(start))
		return err
	}

	status := metrics.StatusOK
	if len(set.Failures) > 0 {
		status = metrics.StatusPartial
	}
	took := r.clock().Sub(start)
	r.metrics.ObserveCycle(status, took)
	r.metrics.Published(n, r.clock())
	r.logger.Info("cycle published",
		zap.Int("rows", len(snap)),
		zap.Int("bundles", n),
		zap.Int("failures", len(set.Failures)),
		zap.Duration("took", took),
	)
	return nil
}
