package statistics

import (
	"context"
	"time"

	"github.com/fekuna/chronostore/internal/inventory"
	"github.com/fekuna/chronostore/internal/logger"
	"go.uber.org/zap"
)

// ThresholdSource supplies the low-stock alert settings. May be nil.
type ThresholdSource interface {
	LowStockThreshold(ctx context.Context) (threshold int, enabled bool)
}

type Aggregator struct {
	repo       inventory.Repository
	thresholds ThresholdSource
	loc        *time.Location
	now        func() time.Time
	logger     logger.ZapLogger
}

func NewAggregator(repo inventory.Repository, thresholds ThresholdSource, loc *time.Location, log logger.ZapLogger) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{
		repo:       repo,
		thresholds: thresholds,
		loc:        loc,
		now:        time.Now,
		logger:     log,
	}
}

func (a *Aggregator) GetStatistics(ctx context.Context) (*Snapshot, error) {
	snap, err := a.repo.Snapshot(ctx)
	if err != nil {
		a.logger.Error("failed to read collections for statistics", zap.Error(err))
		return nil, err
	}
	s := Compute(snap.Active, snap.Archived, snap.Orders, a.now(), a.loc)
	if a.thresholds != nil {
		if threshold, enabled := a.thresholds.LowStockThreshold(ctx); enabled {
			s.LowStock = LowStock(snap.Active, threshold)
		}
	}
	return &s, nil
}
