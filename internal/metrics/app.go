package metrics

import (
	"time"

	"github.com/devpulse/devpulse/internal/observability"
)

// Application-level metrics following Prometheus conventions
var (
	// Operations metrics
	OperationsTotal       = "app_operations_total"
	OperationsErrorsTotal = "app_operations_errors_total"

	// GitHub fetch metrics
	FetchRequestsTotal = "app_fetch_requests_total"
	FetchRetriesTotal  = "app_fetch_retries_total"
	FetchDuration      = "app_fetch_duration_ms"

	// Insight metrics
	InsightRequestsTotal = "app_insight_requests_total"
	InsightCacheHits     = "app_insight_cache_hits_total"

	// Health check metrics
	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"

	// Server lifecycle metrics
	ServerStartTime = "app_server_start_time_seconds"
	ServerUptime    = "app_server_uptime_seconds"
)

// RecordOperation records an application operation with status
func RecordOperation(operation string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			OperationsTotal,
			1,
			map[string]string{
				"operation": operation,
				"status":    status,
			},
		)
	}
}

// RecordOperationError records an application operation error
func RecordOperationError(operation string, errorType string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			OperationsErrorsTotal,
			1,
			map[string]string{
				"operation":  operation,
				"error_type": errorType,
			},
		)
	}
}

// RecordFetch records one upstream API request with its outcome.
func RecordFetch(endpoint string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			FetchRequestsTotal,
			1,
			map[string]string{
				"endpoint": endpoint,
				"status":   status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			FetchDuration,
			duration,
			map[string]string{
				"endpoint": endpoint,
			},
		)
	}
}

// RecordFetchRetry records a retried upstream request by cause.
func RecordFetchRetry(endpoint string, cause string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			FetchRetriesTotal,
			1,
			map[string]string{
				"endpoint": endpoint,
				"cause":    cause,
			},
		)
	}
}

// RecordInsightRequest records an AI insight request with cache outcome.
func RecordInsightRequest(promptSlug string, cached bool) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			InsightRequestsTotal,
			1,
			map[string]string{
				"prompt": promptSlug,
			},
		)
		if cached {
			_ = observability.TelemetrySystem.Counter(
				InsightCacheHits,
				1,
				map[string]string{
					"prompt": promptSlug,
				},
			)
		}
	}
}

// RecordHealthCheck records a health check execution
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			HealthCheckTotal,
			1,
			map[string]string{
				"check":  checkName,
				"status": status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			HealthCheckDuration,
			duration,
			map[string]string{
				"check": checkName,
			},
		)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTime,
			float64(timestamp),
			nil,
		)
	}
}

// SetServerUptime records the server uptime in seconds
func SetServerUptime(seconds int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerUptime,
			float64(seconds),
			nil,
		)
	}
}
