package metrics

import (
	"context"
	"errors"
	"strings"
	"time"
)

// RecordEventPublish records one broker write for an event type
func (m *Metrics) RecordEventPublish(eventType string, duration time.Duration, err error) {
	m.safeExecute("RecordEventPublish", func() {
		status := "success"
		if err != nil {
			status = "error"
			m.EventPublishErrors.WithLabelValues(eventType, getErrorType(err)).Inc()
		}
		m.EventsPublishedTotal.WithLabelValues(eventType, status).Inc()
		m.EventPublishDuration.WithLabelValues(eventType).Observe(duration.Seconds())
	})
}

// getErrorType categorizes broker write errors
func getErrorType(err error) string {
	if err == nil {
		return "unknown"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}

	errMsg := err.Error()
	switch {
	case strings.Contains(errMsg, "connection refused"):
		return "connection_refused"
	case strings.Contains(errMsg, "no such host"):
		return "dns_error"
	case strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "deadline exceeded"):
		return "timeout"
	case strings.Contains(errMsg, "EOF") || strings.Contains(errMsg, "connection reset"):
		return "connection_reset"
	case strings.Contains(errMsg, "TLS") || strings.Contains(errMsg, "certificate"):
		return "tls_error"
	case strings.Contains(errMsg, "Unknown Topic") || strings.Contains(errMsg, "Leader Not Available"):
		return "broker_error"
	}
	return "network_error"
}
