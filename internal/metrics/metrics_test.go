package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateDatabaseConnections(t *testing.T) {
	assert.NotPanics(t, func() {
		UpdateDatabaseConnections(10, 3)
		UpdateDatabaseConnections(0, 0)
		UpdateDatabaseConnections(100, 50)
	})
}

func TestRecordAPIRequest(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		statusCode string
		durationMs float64
	}{
		{name: "GET request success", method: "GET", path: "/v1/pool", statusCode: "200", durationMs: 45.5},
		{name: "POST request created", method: "POST", path: "/v1/participants", statusCode: "201", durationMs: 120.3},
		{name: "GET request not found", method: "GET", path: "/v1/unknown", statusCode: "404", durationMs: 5.2},
		{name: "POST request error", method: "POST", path: "/v1/withdrawals", statusCode: "500", durationMs: 250.8},
		{name: "zero duration", method: "GET", path: "/health", statusCode: "200", durationMs: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				RecordAPIRequest(tt.method, tt.path, tt.statusCode, tt.durationMs)
			})
		})
	}
}

func TestRecordError(t *testing.T) {
	tests := []struct {
		name      string
		errorType string
		component string
	}{
		{name: "database error", errorType: "database_timeout", component: "casestore"},
		{name: "api error", errorType: "invalid_request", component: "api"},
		{name: "venue error", errorType: "rate_limit", component: "binance"},
		{name: "oracle error", errorType: "timeout", component: "oracle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				RecordError(tt.errorType, tt.component)
			})
		})
	}
}

func TestRecordDatabaseQuery(t *testing.T) {
	tests := []struct {
		name       string
		queryType  string
		durationMs float64
	}{
		{name: "SELECT query fast", queryType: "SELECT", durationMs: 2.5},
		{name: "INSERT query", queryType: "INSERT", durationMs: 15.3},
		{name: "UPDATE query slow", queryType: "UPDATE", durationMs: 250.7},
		{name: "DELETE query", queryType: "DELETE", durationMs: 50.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				RecordDatabaseQuery(tt.queryType, tt.durationMs)
			})
		})
	}
}

func TestRecordMCPToolCall(t *testing.T) {
	tests := []struct {
		name       string
		toolName   string
		server     string
		durationMs float64
	}{
		{name: "assess_proposal call", toolName: "assess_proposal", server: "risk-analyzer", durationMs: 25.5},
		{name: "fast call", toolName: "assess_proposal", server: "risk-analyzer", durationMs: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				RecordMCPToolCall(tt.toolName, tt.server, tt.durationMs)
			})
		})
	}
}

func TestRecordRedisOperation(t *testing.T) {
	tests := []struct {
		name      string
		operation string
	}{
		{name: "GET operation", operation: "get"},
		{name: "SET operation", operation: "set"},
		{name: "DEL operation", operation: "del"},
		{name: "EXISTS operation", operation: "exists"},
		{name: "EXPIRE operation", operation: "expire"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				RecordRedisOperation(tt.operation)
			})
		})
	}
}

func TestUpdateCircuitBreaker(t *testing.T) {
	tests := []struct {
		name        string
		breakerType string
		active      bool
	}{
		{name: "drawdown breaker active", breakerType: "max_drawdown", active: true},
		{name: "oracle breaker inactive", breakerType: "oracle", active: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				UpdateCircuitBreaker(tt.breakerType, tt.active)
			})
		})
	}
}

func TestRecordCircuitBreakerTrip(t *testing.T) {
	tests := []struct {
		name        string
		breakerType string
		reason      string
	}{
		{name: "drawdown trip", breakerType: "max_drawdown", reason: "exceeded_threshold"},
		{name: "risk-analyzer trip", breakerType: "risk-analyzer", reason: "too_many_timeouts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				RecordCircuitBreakerTrip(tt.breakerType, tt.reason)
			})
		})
	}
}

func TestRecordVenueAPICall(t *testing.T) {
	tests := []struct {
		name       string
		venue      string
		endpoint   string
		durationMs float64
		err        error
	}{
		{name: "successful binance call", venue: "binance", endpoint: "book_ticker", durationMs: 50.5, err: nil},
		{name: "failed kraken-synth call", venue: "kraken-synth", endpoint: "book_ticker", durationMs: 250.3, err: assert.AnError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				RecordVenueAPICall(tt.venue, tt.endpoint, tt.durationMs, tt.err)
			})
		})
	}
}

func TestRecordFill(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordFill(1.5)
		RecordFill(0)
	})
}

func TestRecordAuditLog(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordAuditLog("cycle_completed", true, 2.5)
		RecordAuditLog("withdrawal_rejected", false, 5.1)
	})
}

func TestVaultMetricsHelpers(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordVaultRequest(10, nil)
		RecordVaultRequest(10, assert.AnError)
		RecordVaultCacheHit()
		RecordVaultCacheMiss()
		UpdateVaultCacheSize(4)
	})
}

func TestRecordNATSHelpers(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordNATSPublish()
		RecordNATSReceive()
	})
}

func TestCaseStoreMetricsHelpers(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordCaseStoreWrite()
		RecordCaseStoreQuery(12.5)
	})
}

func TestRecordStrategyValidationFailure(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordStrategyValidationFailure("schema mismatch")
		RecordStrategyValidationFailure("unrecognized")
	})
}
