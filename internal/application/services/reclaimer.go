package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"tempfiles-api/internal/application/ports"
	"tempfiles-api/internal/domain/resource"
	"tempfiles-api/internal/infrastructure/metrics"
	"tempfiles-api/internal/infrastructure/mq"
	"tempfiles-api/internal/infrastructure/storage"
)

type ReclaimerService struct {
	logger    *zap.Logger
	resources resource.Repository
	storage   ports.Storage
	clock     ports.Clock
	interval  time.Duration
	mq        ports.EventPublisher
	mCounter  *prometheus.CounterVec
}

func NewReclaimerService(
	logger *zap.Logger,
	resources resource.Repository,
	storage ports.Storage,
	clock ports.Clock,
	interval time.Duration,
	publisher ports.EventPublisher,
	mCounter *prometheus.CounterVec,
) ports.Reclaimer {
	return &ReclaimerService{
		logger:    logger.Named("reclaimer"),
		resources: resources,
		storage:   storage,
		clock:     clock,
		interval:  interval,
		mq:        publisher,
		mCounter:  mCounter,
	}
}

// Run reclaims immediately and then once per interval until ctx is done.
func (rs *ReclaimerService) Run(ctx context.Context) {
	rs.logger.Info("starting reclaimer", zap.Duration("interval", rs.interval))

	defer func() {
		rs.logger.Info("reclaimer gracefully stopped")
	}()

	rs.RunCycle(ctx)

	ticker := time.NewTicker(rs.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rs.RunCycle(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// RunCycle removes every expired resource, storage first and the metadata row
// second. A row whose storage cannot be removed stays for the next cycle.
func (rs *ReclaimerService) RunCycle(ctx context.Context) (rep ports.ReclaimReport) {
	defer func() {
		if r := recover(); r != nil {
			rep.Recovered = true
			rs.mCounter.WithLabelValues(metrics.ReclaimCyclesRecovered).Inc()
			rs.logger.Error("reclaim cycle panicked", zap.Any("panic", r))
		}
	}()

	all, err := rs.resources.FetchResources(ctx)
	if err != nil {
		rs.logger.Error("list resources", zap.Error(err))
		return rep
	}

	now := rs.clock.Now()
	rep.Scanned = len(all)
	for _, r := range all {
		if !r.Expired(now) {
			continue
		}
		rep.Expired++

		if err = rs.reclaim(ctx, r); err != nil {
			rep.Failed++
			rs.mCounter.WithLabelValues(metrics.ResourcesReclaimFailed).Inc()
			rs.logger.Error("reclaim resource", zap.Stringer("id", r.ID), zap.Error(err))
			continue
		}
		rep.Reclaimed++
		rs.mCounter.WithLabelValues(metrics.ResourcesReclaimed).Inc()
	}

	if rep.Expired > 0 {
		rs.logger.Info("reclaim cycle done",
			zap.Int("scanned", rep.Scanned),
			zap.Int("reclaimed", rep.Reclaimed),
			zap.Int("failed", rep.Failed),
		)
	}

	return rep
}

func (rs *ReclaimerService) reclaim(ctx context.Context, r *resource.Resource) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	names, err := rs.storage.Names(ctx, r.ID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		names = nil
	case err != nil:
		return fmt.Errorf("list storage: %w", err)
	}
	for _, n := range names {
		if n != r.FileName {
			rs.logger.Warn("stray file under resource", zap.Stringer("id", r.ID), zap.String("name", n))
		}
	}

	if err = rs.storage.RemoveAll(ctx, r.ID); err != nil {
		return fmt.Errorf("remove storage: %w", err)
	}
	if err = rs.resources.DeleteResource(ctx, r.ID); err != nil {
		return fmt.Errorf("delete metadata: %w", err)
	}

	rs.mq.Emit(mq.NewEvent(mq.ActionResourceReclaimed, r.ID.String(), map[string]any{
		"file_name":  r.FileName,
		"files":      names,
		"expires_at": r.ExpiresAt,
	}))

	return nil
}
