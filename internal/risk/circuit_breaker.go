package risk

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
)

// Circuit breaker states for Prometheus metrics
const (
	StateClosed   = "closed"
	StateOpen     = "open"
	StateHalfOpen = "half_open"

	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Circuit breaker thresholds, per external dependency the risk gate and
// oracle call out to.
const (
	// RiskAnalyzerMinRequests etc. guard the MCP risk-analyzer tool call.
	RiskAnalyzerMinRequests     = 5
	RiskAnalyzerFailureRatio    = 0.6
	RiskAnalyzerOpenTimeout     = 30 * time.Second
	RiskAnalyzerHalfOpenMaxReqs = 3
	RiskAnalyzerCountInterval   = 10 * time.Second

	// LLM settings use a longer open timeout — model providers recover slower.
	LLMMinRequests     = 3
	LLMFailureRatio    = 0.6
	LLMOpenTimeout     = 60 * time.Second
	LLMHalfOpenMaxReqs = 2
	LLMCountInterval   = 10 * time.Second

	// Database settings recover fastest.
	DBMinRequests     = 10
	DBFailureRatio    = 0.6
	DBOpenTimeout     = 15 * time.Second
	DBHalfOpenMaxReqs = 5
	DBCountInterval   = 10 * time.Second
)

// CircuitBreakerManager manages circuit breakers for the risk gate's
// external dependencies: the MCP risk-analyzer tool, the LLM oracle, and
// the database.
type CircuitBreakerManager struct {
	riskAnalyzer *gobreaker.CircuitBreaker
	llm          *gobreaker.CircuitBreaker
	database     *gobreaker.CircuitBreaker
	metrics      *CircuitBreakerMetrics
}

// CircuitBreakerMetrics holds Prometheus metrics for circuit breakers.
type CircuitBreakerMetrics struct {
	state    *prometheus.GaugeVec
	requests *prometheus.CounterVec
	failures *prometheus.CounterVec
}

var (
	globalMetrics *CircuitBreakerMetrics
	metricsOnce   sync.Once
)

func initMetrics() {
	metricsOnce.Do(func() {
		globalMetrics = &CircuitBreakerMetrics{
			state: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "circuit_breaker_state",
					Help: "Circuit breaker state (0=closed, 1=open, 2=half_open)",
				},
				[]string{"service"},
			),
			requests: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "circuit_breaker_requests_total",
					Help: "Total number of requests through circuit breaker",
				},
				[]string{"service", "result"},
			),
			failures: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "circuit_breaker_failures_total",
					Help: "Total number of failures tracked by circuit breaker",
				},
				[]string{"service"},
			),
		}
	})
}

// ServiceSettings holds circuit breaker configuration for a single service.
type ServiceSettings struct {
	MinRequests     uint32
	FailureRatio    float64
	OpenTimeout     time.Duration
	HalfOpenMaxReqs uint32
	CountInterval   time.Duration
}

// ParseDuration parses a duration string, falling back to defaultValue on an
// empty string or parse error.
func ParseDuration(durationStr string, defaultValue time.Duration) time.Duration {
	if durationStr == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		return defaultValue
	}
	return duration
}

// NewCircuitBreakerManager creates a manager with default settings for all
// three dependencies.
func NewCircuitBreakerManager() *CircuitBreakerManager {
	return NewCircuitBreakerManagerWithSettings(nil, nil, nil)
}

// NewCircuitBreakerManagerWithSettings creates a manager with Prometheus
// metrics wired in; nil settings fall back to the package defaults.
func NewCircuitBreakerManagerWithSettings(riskAnalyzerSettings, llmSettings, dbSettings *ServiceSettings) *CircuitBreakerManager {
	initMetrics()

	manager := &CircuitBreakerManager{metrics: globalMetrics}

	if riskAnalyzerSettings == nil {
		riskAnalyzerSettings = &ServiceSettings{
			MinRequests:     RiskAnalyzerMinRequests,
			FailureRatio:    RiskAnalyzerFailureRatio,
			OpenTimeout:     RiskAnalyzerOpenTimeout,
			HalfOpenMaxReqs: RiskAnalyzerHalfOpenMaxReqs,
			CountInterval:   RiskAnalyzerCountInterval,
		}
	}
	if llmSettings == nil {
		llmSettings = &ServiceSettings{
			MinRequests:     LLMMinRequests,
			FailureRatio:    LLMFailureRatio,
			OpenTimeout:     LLMOpenTimeout,
			HalfOpenMaxReqs: LLMHalfOpenMaxReqs,
			CountInterval:   LLMCountInterval,
		}
	}
	if dbSettings == nil {
		dbSettings = &ServiceSettings{
			MinRequests:     DBMinRequests,
			FailureRatio:    DBFailureRatio,
			OpenTimeout:     DBOpenTimeout,
			HalfOpenMaxReqs: DBHalfOpenMaxReqs,
			CountInterval:   DBCountInterval,
		}
	}

	manager.riskAnalyzer = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "risk_analyzer",
		MaxRequests: riskAnalyzerSettings.HalfOpenMaxReqs,
		Interval:    riskAnalyzerSettings.CountInterval,
		Timeout:     riskAnalyzerSettings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= riskAnalyzerSettings.MinRequests && failureRatio >= riskAnalyzerSettings.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			manager.updateMetrics("risk_analyzer", to)
		},
	})

	manager.llm = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm",
		MaxRequests: llmSettings.HalfOpenMaxReqs,
		Interval:    llmSettings.CountInterval,
		Timeout:     llmSettings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= llmSettings.MinRequests && failureRatio >= llmSettings.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			manager.updateMetrics("llm", to)
		},
	})

	manager.database = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "database",
		MaxRequests: dbSettings.HalfOpenMaxReqs,
		Interval:    dbSettings.CountInterval,
		Timeout:     dbSettings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= dbSettings.MinRequests && failureRatio >= dbSettings.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			manager.updateMetrics("database", to)
		},
	})

	manager.updateMetrics("risk_analyzer", manager.riskAnalyzer.State())
	manager.updateMetrics("llm", manager.llm.State())
	manager.updateMetrics("database", manager.database.State())

	return manager
}

// NewPassthroughCircuitBreakerManager returns a manager whose breakers never
// trip, for tests that want to exercise other components in isolation.
func NewPassthroughCircuitBreakerManager() *CircuitBreakerManager {
	initMetrics()

	manager := &CircuitBreakerManager{metrics: globalMetrics}

	neverTrip := func(counts gobreaker.Counts) bool { return false }

	manager.riskAnalyzer = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "risk_analyzer_passthrough", MaxRequests: 1000, Timeout: time.Millisecond, ReadyToTrip: neverTrip,
	})
	manager.llm = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "llm_passthrough", MaxRequests: 1000, Timeout: time.Millisecond, ReadyToTrip: neverTrip,
	})
	manager.database = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "database_passthrough", MaxRequests: 1000, Timeout: time.Millisecond, ReadyToTrip: neverTrip,
	})

	return manager
}

// RiskAnalyzer returns the circuit breaker guarding the MCP risk-analyzer call.
func (m *CircuitBreakerManager) RiskAnalyzer() *gobreaker.CircuitBreaker {
	return m.riskAnalyzer
}

// LLM returns the circuit breaker configured for LLM calls. The strategy
// oracle's LLM call is not routed through it.
func (m *CircuitBreakerManager) LLM() *gobreaker.CircuitBreaker {
	return m.llm
}

// Database returns the circuit breaker guarding database calls.
func (m *CircuitBreakerManager) Database() *gobreaker.CircuitBreaker {
	return m.database
}

func (m *CircuitBreakerManager) updateMetrics(service string, state gobreaker.State) {
	var stateValue float64
	switch state {
	case gobreaker.StateClosed:
		stateValue = 0
	case gobreaker.StateOpen:
		stateValue = 1
	case gobreaker.StateHalfOpen:
		stateValue = 2
	}
	m.metrics.state.WithLabelValues(service).Set(stateValue)
}

// RecordRequest records a request result for metrics.
func (m *CircuitBreakerMetrics) RecordRequest(service string, success bool) {
	result := ResultSuccess
	if !success {
		result = ResultFailure
		m.failures.WithLabelValues(service).Inc()
	}
	m.requests.WithLabelValues(service, result).Inc()
}

// Metrics returns the metrics instance for manual recording.
func (m *CircuitBreakerManager) Metrics() *CircuitBreakerMetrics {
	return m.metrics
}
