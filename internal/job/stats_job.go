package job

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// statsTimeout bounds one refresh so a slow database cannot stack up runs
const statsTimeout = 30 * time.Second

// Collector refreshes gauges from the store
type Collector interface {
	Collect(ctx context.Context)
}

// StatsJob refreshes the users, boards, feedback and tags totals
type StatsJob struct {
	collector Collector
	logger    *zap.Logger
}

// NewStatsJob creates a new StatsJob instance
func NewStatsJob(collector Collector, logger *zap.Logger) *StatsJob {
	return &StatsJob{
		collector: collector,
		logger:    logger,
	}
}

// Run executes one refresh; it satisfies cron.Job
func (j *StatsJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
	defer cancel()

	start := time.Now()
	j.collector.Collect(ctx)

	j.logger.Debug("Stats job completed", zap.Duration("duration", time.Since(start)))
}
