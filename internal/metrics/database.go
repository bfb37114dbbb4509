package metrics

import (
	"database/sql"
	"strings"
	"sync"
	"time"
)

// poolWaits remembers the last cumulative wait figures reported by sql.DBStats,
// so the wait counters only grow by the delta between two snapshots
type poolWaits struct {
	mu       sync.Mutex
	count    int64
	duration time.Duration
}

// UpdateDBStats updates database connection pool metrics from a sql.DBStats snapshot
func (m *Metrics) UpdateDBStats(statsInterface interface{}) {
	m.safeExecute("UpdateDBStats", func() {
		stats, ok := statsInterface.(sql.DBStats)
		if !ok {
			return
		}
		m.DBConnectionsOpen.Set(float64(stats.OpenConnections))
		m.DBConnectionsInUse.Set(float64(stats.InUse))
		m.DBConnectionsIdle.Set(float64(stats.Idle))
		m.DBConnectionsMax.Set(float64(stats.MaxOpenConnections))

		m.waits.mu.Lock()
		defer m.waits.mu.Unlock()
		if d := stats.WaitCount - m.waits.count; d > 0 {
			m.DBConnectionWaitTotal.Add(float64(d))
		}
		if d := stats.WaitDuration - m.waits.duration; d > 0 {
			m.DBConnectionWaitDuration.Add(d.Seconds())
		}
		m.waits.count = stats.WaitCount
		m.waits.duration = stats.WaitDuration
	})
}

// RecordDBQuery records database query metrics
func (m *Metrics) RecordDBQuery(operation, table string, duration time.Duration, err error) {
	m.safeExecute("RecordDBQuery", func() {
		operation = strings.ToLower(operation)
		m.DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())

		if err != nil {
			m.DBQueryErrors.WithLabelValues(operation, table).Inc()
		}
	})
}
