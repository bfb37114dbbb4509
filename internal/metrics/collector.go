package metrics

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BusinessMetricsCollector refreshes the business gauges from row counts
type BusinessMetricsCollector struct {
	db      *gorm.DB
	metrics *Metrics
	logger  *zap.Logger
}

// NewBusinessMetricsCollector creates a new collector
func NewBusinessMetricsCollector(db *gorm.DB, metrics *Metrics, logger *zap.Logger) *BusinessMetricsCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BusinessMetricsCollector{
		db:      db,
		metrics: metrics,
		logger:  logger,
	}
}

// Collect counts users, boards, feedback and tags and publishes the totals.
// A failed count leaves the previous gauge value in place.
func (c *BusinessMetricsCollector) Collect(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Panic in business metrics collection",
				zap.Any("panic", r),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	gauges := []struct {
		table string
		set   func(int64)
	}{
		{"users", c.metrics.SetUsersTotal},
		{"boards", c.metrics.SetBoardsTotal},
		{"feedback", c.metrics.SetFeedbackTotal},
		{"tags", c.metrics.SetTagsTotal},
	}

	for _, g := range gauges {
		var count int64
		if err := c.db.WithContext(ctx).Table(g.table).Count(&count).Error; err != nil {
			c.logger.Error("Failed to count rows", zap.String("table", g.table), zap.Error(err))
			continue
		}
		g.set(count)
	}
}
