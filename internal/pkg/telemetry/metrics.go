package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricRoutesBuilt     = "business.routes_built"
	MetricRoutesExported  = "business.routes_exported"
	MetricGeocodeLatency  = "geocode.upstream_latency"
	MetricSessionDuration = "business.session_duration_seconds"
)
