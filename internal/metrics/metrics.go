package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bounded cardinality constants for metric labels.
// These ensure metrics don't have unbounded label values which can cause memory issues.
const (
	// Circuit breaker reasons (bounded set)
	ReasonMaxDrawdown    = "max_drawdown"
	ReasonHighVolatility = "high_volatility"
	ReasonRateLimit      = "rate_limit"
	ReasonManualHalt     = "manual_halt"
	ReasonOther          = "other"

	// Proposal validation failure reasons (bounded set)
	ValidationReasonSchemaInvalid   = "schema_invalid"
	ValidationReasonFieldMissing    = "field_missing"
	ValidationReasonValueOutOfRange = "value_out_of_range"
	ValidationReasonIncompatible    = "incompatible"
	ValidationReasonOther           = "other"

	// Venue API error categories (bounded set)
	VenueErrorTimeout     = "timeout"
	VenueErrorRateLimit   = "rate_limit"
	VenueErrorAuth        = "authentication"
	VenueErrorNetwork     = "network"
	VenueErrorInvalidReq  = "invalid_request"
	VenueErrorServerError = "server_error"
	VenueErrorOther       = "other"
)

// NormalizeCircuitBreakerReason maps arbitrary reasons to bounded set
func NormalizeCircuitBreakerReason(reason string) string {
	lower := strings.ToLower(reason)
	switch {
	case strings.Contains(lower, "drawdown"):
		return ReasonMaxDrawdown
	case strings.Contains(lower, "volatility"):
		return ReasonHighVolatility
	case strings.Contains(lower, "rate") || strings.Contains(lower, "limit"):
		return ReasonRateLimit
	case strings.Contains(lower, "manual") || strings.Contains(lower, "halt"):
		return ReasonManualHalt
	default:
		return ReasonOther
	}
}

// NormalizeValidationReason maps arbitrary validation failures to bounded set
func NormalizeValidationReason(reason string) string {
	lower := strings.ToLower(reason)
	switch {
	case strings.Contains(lower, "schema") || strings.Contains(lower, "version"):
		return ValidationReasonSchemaInvalid
	case strings.Contains(lower, "missing") || strings.Contains(lower, "required"):
		return ValidationReasonFieldMissing
	case strings.Contains(lower, "range") || strings.Contains(lower, "value") || strings.Contains(lower, "invalid"):
		return ValidationReasonValueOutOfRange
	case strings.Contains(lower, "compatible") || strings.Contains(lower, "migration"):
		return ValidationReasonIncompatible
	default:
		return ValidationReasonOther
	}
}

// NormalizeVenueError maps arbitrary error messages to bounded set
func NormalizeVenueError(err error) string {
	if err == nil {
		return ""
	}
	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline"):
		return VenueErrorTimeout
	case strings.Contains(errStr, "rate") || strings.Contains(errStr, "429"):
		return VenueErrorRateLimit
	case strings.Contains(errStr, "auth") || strings.Contains(errStr, "401") || strings.Contains(errStr, "403"):
		return VenueErrorAuth
	case strings.Contains(errStr, "network") || strings.Contains(errStr, "connection"):
		return VenueErrorNetwork
	case strings.Contains(errStr, "400") || strings.Contains(errStr, "invalid"):
		return VenueErrorInvalidReq
	case strings.Contains(errStr, "500") || strings.Contains(errStr, "502") || strings.Contains(errStr, "503"):
		return VenueErrorServerError
	default:
		return VenueErrorOther
	}
}

// Pool metrics
var (
	PoolValueUSD = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "poolmind_pool_value_usd",
		Help: "Current total pool value in USD",
	})

	PoolROI = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "poolmind_pool_roi",
		Help: "Pool return on investment since inception",
	})

	PoolDrawdownPct = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "poolmind_pool_drawdown_pct",
		Help: "Current drawdown from the pool's peak value, as a fraction",
	})

	PoolParticipants = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "poolmind_pool_participants",
		Help: "Number of participants currently in the pool",
	})

	PendingWithdrawals = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "poolmind_pending_withdrawals",
		Help: "Number of withdrawal requests awaiting processing",
	})

	WithdrawalsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poolmind_withdrawals_processed_total",
		Help: "Total withdrawals processed by outcome status",
	}, []string{"status"})
)

// Cycle metrics not already covered by the orchestrator's own per-cycle
// collectors (cycle duration, opportunity count, execution count, breaker
// state all live on orchestrator.Metrics instead, since they're only ever
// read by that one loop).
var (
	CycleRiskScore = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "poolmind_cycle_risk_score",
		Help: "Risk score (1-10) assigned to the most recent cycle's proposal",
	})

	FallbackProposalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poolmind_fallback_proposals_total",
		Help: "Total cycles where the fallback oracle was used instead of the LLM",
	})

	// StrategyValidationFailures has no caller outside this package's tests;
	// there is no internal/strategy package in this repository.
	StrategyValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poolmind_strategy_validation_failures_total",
		Help: "Total strategy validation failures by normalized reason",
	}, []string{"reason"})
)

// Venue and execution metrics
var (
	VenueAPILatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "poolmind_venue_api_latency_ms",
		Help:    "Venue API latency in milliseconds",
		Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"venue", "endpoint"})

	VenueAPIErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poolmind_venue_api_errors_total",
		Help: "Total venue API errors by normalized category",
	}, []string{"venue", "error_type"})

	FillLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "poolmind_fill_latency_ms",
		Help:    "Simulated fill execution latency in milliseconds",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
	})
)

// Case store metrics
var (
	CaseStoreWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poolmind_casestore_writes_total",
		Help: "Total cases recorded to the case store",
	})

	CaseStoreQueryLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "poolmind_casestore_query_latency_ms",
		Help:    "Case store nearest-neighbor query latency in milliseconds",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
	})
)

// Infrastructure metrics shared across components
var (
	DatabaseConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "poolmind_database_connections_active",
		Help: "Number of active database connections",
	})

	DatabaseConnectionsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "poolmind_database_connections_idle",
		Help: "Number of idle database connections",
	})

	DatabaseQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "poolmind_database_query_duration_ms",
		Help:    "Database query duration in milliseconds",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	}, []string{"query_type"})

	RedisCacheHitRate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "poolmind_redis_cache_hit_rate",
		Help: "Redis cache hit rate (0-1)",
	})

	RedisOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poolmind_redis_operations_total",
		Help: "Total Redis operations by type",
	}, []string{"operation"})

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "poolmind_api_request_duration_ms",
		Help:    "API request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	}, []string{"method", "path", "status"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poolmind_http_requests_total",
		Help: "Total HTTP requests by method, path, and status",
	}, []string{"method", "path", "status"})

	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poolmind_errors_total",
		Help: "Total errors by type and originating component",
	}, []string{"error_type", "component"})

	NATSMessagesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poolmind_nats_messages_published_total",
		Help: "Total NATS messages published",
	})

	NATSMessagesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poolmind_nats_messages_received_total",
		Help: "Total NATS messages received",
	})

	MCPToolCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "poolmind_mcp_tool_call_duration_ms",
		Help:    "MCP tool call duration in milliseconds",
		Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"tool", "server"})

	CircuitBreakerStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "poolmind_circuit_breaker_status",
		Help: "Circuit breaker status (0=closed, 1=open) by breaker",
	}, []string{"breaker"})

	CircuitBreakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poolmind_circuit_breaker_trips_total",
		Help: "Total circuit breaker trips by breaker and normalized reason",
	}, []string{"breaker", "reason"})

	AuditLogOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poolmind_audit_log_operations_total",
		Help: "Total number of audit log operations by event type and status",
	}, []string{"event_type", "status"})

	AuditLogFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poolmind_audit_log_failures_total",
		Help: "Total number of audit log failures by error type",
	}, []string{"error_type", "event_type"})

	AuditLogLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "poolmind_audit_log_latency_ms",
		Help:    "Audit log operation latency in milliseconds",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
	})

	VaultRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "poolmind_vault_request_duration_ms",
		Help:    "Vault secret request latency in milliseconds",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
	})

	VaultRequestErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poolmind_vault_request_errors_total",
		Help: "Total Vault secret requests that returned an error",
	})

	VaultCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poolmind_vault_cache_hits_total",
		Help: "Total Vault secret cache hits",
	})

	VaultCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poolmind_vault_cache_misses_total",
		Help: "Total Vault secret cache misses",
	})

	VaultCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "poolmind_vault_cache_size",
		Help: "Current number of entries in the Vault secret cache",
	})
)

// UpdateDatabaseConnections updates database connection metrics
func UpdateDatabaseConnections(active, idle int32) {
	DatabaseConnectionsActive.Set(float64(active))
	DatabaseConnectionsIdle.Set(float64(idle))
}

// RecordAPIRequest records an API request with duration
func RecordAPIRequest(method, path, statusCode string, durationMs float64) {
	APIRequestDuration.WithLabelValues(method, path, statusCode).Observe(durationMs)
	HTTPRequests.WithLabelValues(method, path, statusCode).Inc()
}

// RecordError records an error
func RecordError(errorType, component string) {
	Errors.WithLabelValues(errorType, component).Inc()
}

// RecordDatabaseQuery records a database query
func RecordDatabaseQuery(queryType string, durationMs float64) {
	DatabaseQueryDuration.WithLabelValues(queryType).Observe(durationMs)
}

// RecordMCPToolCall records an MCP tool call
func RecordMCPToolCall(toolName, server string, durationMs float64) {
	MCPToolCallDuration.WithLabelValues(toolName, server).Observe(durationMs)
}

// RecordRedisOperation records a Redis operation
func RecordRedisOperation(operation string) {
	RedisOperations.WithLabelValues(operation).Inc()
}

// UpdateCircuitBreaker updates circuit breaker status
func UpdateCircuitBreaker(breakerType string, active bool) {
	status := 0.0
	if active {
		status = 1.0
	}
	CircuitBreakerStatus.WithLabelValues(breakerType).Set(status)
}

// RecordCircuitBreakerTrip records a circuit breaker trip with normalized reason
func RecordCircuitBreakerTrip(breakerType, reason string) {
	normalizedReason := NormalizeCircuitBreakerReason(reason)
	CircuitBreakerTrips.WithLabelValues(breakerType, normalizedReason).Inc()
}

// RecordVenueAPICall records a venue API call with normalized error category
func RecordVenueAPICall(venue, endpoint string, durationMs float64, err error) {
	VenueAPILatency.WithLabelValues(venue, endpoint).Observe(durationMs)
	if err != nil {
		VenueAPIErrors.WithLabelValues(venue, NormalizeVenueError(err)).Inc()
	}
}

// RecordFill records simulated fill execution latency
func RecordFill(durationMs float64) {
	FillLatency.Observe(durationMs)
}

// RecordAuditLog records an audit log operation
func RecordAuditLog(eventType string, success bool, durationMs float64) {
	status := "success"
	if !success {
		status = "failure"
	}
	AuditLogOperations.WithLabelValues(eventType, status).Inc()
	AuditLogLatency.Observe(durationMs)
}

// RecordAuditLogFailure records an audit log failure with error type
func RecordAuditLogFailure(errorType, eventType string) {
	AuditLogFailures.WithLabelValues(errorType, eventType).Inc()
}

// RecordVaultRequest records a Vault secret request, categorizing by error presence
func RecordVaultRequest(durationMs float64, err error) {
	VaultRequestDuration.Observe(durationMs)
	if err != nil {
		VaultRequestErrors.Inc()
	}
}

// RecordVaultCacheHit records a Vault secret cache hit
func RecordVaultCacheHit() {
	VaultCacheHits.Inc()
}

// RecordVaultCacheMiss records a Vault secret cache miss
func RecordVaultCacheMiss() {
	VaultCacheMisses.Inc()
}

// UpdateVaultCacheSize sets the current Vault secret cache size
func UpdateVaultCacheSize(size int) {
	VaultCacheSize.Set(float64(size))
}

// RecordNATSPublish records a NATS message publish
func RecordNATSPublish() {
	NATSMessagesPublished.Inc()
}

// RecordNATSReceive records a NATS message receive
func RecordNATSReceive() {
	NATSMessagesReceived.Inc()
}

// RecordCaseStoreWrite records a case recorded to the case store
func RecordCaseStoreWrite() {
	CaseStoreWrites.Inc()
}

// RecordCaseStoreQuery records a case store nearest-neighbor query's latency
func RecordCaseStoreQuery(durationMs float64) {
	CaseStoreQueryLatency.Observe(durationMs)
}

// RecordStrategyValidationFailure records a strategy validation failure with normalized reason
func RecordStrategyValidationFailure(reason string) {
	StrategyValidationFailures.WithLabelValues(NormalizeValidationReason(reason)).Inc()
}
