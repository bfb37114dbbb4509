package database

import (
	"time"

	"gorm.io/gorm"
)

const startTimeKey = "metrics:start_time"

// MetricsRecorder is an interface for recording database metrics
type MetricsRecorder interface {
	RecordDBQuery(operation, table string, duration time.Duration, err error)
	UpdateDBStats(stats interface{})
}

// RegisterMetricsCallbacks times every query, create, update, delete and raw exec statement
func RegisterMetricsCallbacks(db *gorm.DB, recorder MetricsRecorder) {
	cb := db.Callback()

	before, after := timers("select", recorder)
	cb.Query().Before("gorm:query").Register("metrics:query_before", before)
	cb.Query().After("gorm:query").Register("metrics:query_after", after)

	before, after = timers("insert", recorder)
	cb.Create().Before("gorm:create").Register("metrics:create_before", before)
	cb.Create().After("gorm:create").Register("metrics:create_after", after)

	before, after = timers("update", recorder)
	cb.Update().Before("gorm:update").Register("metrics:update_before", before)
	cb.Update().After("gorm:update").Register("metrics:update_after", after)

	before, after = timers("delete", recorder)
	cb.Delete().Before("gorm:delete").Register("metrics:delete_before", before)
	cb.Delete().After("gorm:delete").Register("metrics:delete_after", after)

	before, after = timers("raw", recorder)
	cb.Raw().Before("gorm:raw").Register("metrics:raw_before", before)
	cb.Raw().After("gorm:raw").Register("metrics:raw_after", after)
}

// timers returns a pair of callbacks that measure one statement and report it as operation
func timers(operation string, recorder MetricsRecorder) (func(*gorm.DB), func(*gorm.DB)) {
	before := func(db *gorm.DB) {
		db.InstanceSet(startTimeKey, time.Now())
	}
	after := func(db *gorm.DB) {
		startTime, ok := db.InstanceGet(startTimeKey)
		if !ok {
			return
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		recorder.RecordDBQuery(operation, table, time.Since(startTime.(time.Time)), db.Error)
	}
	return before, after
}

// StartDBStatsCollector publishes connection pool stats every interval until done is closed
func StartDBStatsCollector(db *gorm.DB, recorder MetricsRecorder, interval time.Duration) chan struct{} {
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					continue
				}
				recorder.UpdateDBStats(sqlDB.Stats())
			case <-done:
				return
			}
		}
	}()

	return done
}
