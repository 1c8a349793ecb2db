package services

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"tempfiles-api/internal/application/ports"
	"tempfiles-api/internal/domain/resource"
	"tempfiles-api/internal/infrastructure/metrics"
)

// MaxAllocAttempts bounds the draws of one Allocate call.
const MaxAllocAttempts = 20

type AllocatorService struct {
	logger    *zap.Logger
	rng       ports.RandomSource
	storage   ports.Storage
	resources resource.Repository
	mCounter  *prometheus.CounterVec
}

func NewAllocatorService(
	logger *zap.Logger,
	rng ports.RandomSource,
	storage ports.Storage,
	resources resource.Repository,
	mCounter *prometheus.CounterVec,
) ports.Allocator {
	return &AllocatorService{
		logger:    logger,
		rng:       rng,
		storage:   storage,
		resources: resources,
		mCounter:  mCounter,
	}
}

// Allocate returns an identifier unused by both storage and metadata. A check
// that errors counts as a failed attempt. Running out of attempts panics with
// ErrIdentifierSpaceExhausted: it means the store is broken, not busy.
func (as *AllocatorService) Allocate(ctx context.Context) resource.ID {
	for attempt := 1; attempt <= MaxAllocAttempts; attempt++ {
		id := resource.ID(as.rng.Uint64())

		taken, err := as.taken(ctx, id)
		if err != nil {
			as.mCounter.WithLabelValues(metrics.IDCheckErrors).Inc()
			as.logger.Warn("identifier check failed",
				zap.Stringer("id", id),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}
		if taken {
			as.mCounter.WithLabelValues(metrics.IDCollisions).Inc()
			as.logger.Info("identifier collision", zap.Stringer("id", id), zap.Int("attempt", attempt))
			continue
		}

		as.mCounter.WithLabelValues(metrics.IDsAllocated).Inc()
		return id
	}

	as.logger.Error("identifier allocation exhausted", zap.Int("attempts", MaxAllocAttempts))
	panic(fmt.Errorf("%w after %d attempts", ErrIdentifierSpaceExhausted, MaxAllocAttempts))
}

func (as *AllocatorService) taken(ctx context.Context, id resource.ID) (bool, error) {
	onDisk, err := as.storage.Exists(ctx, id)
	if err != nil {
		return false, fmt.Errorf("storage: %w", err)
	}
	if onDisk {
		return true, nil
	}

	inDB, err := as.resources.Exists(ctx, id)
	if err != nil {
		return false, fmt.Errorf("metadata: %w", err)
	}
	return inDB, nil
}
