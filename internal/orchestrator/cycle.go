// Package orchestrator drives the pool's Observe→Reason→Act→Reflect cycle.
package orchestrator

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ajitpratap0/cryptofunk/internal/detector"
	"github.com/ajitpratap0/cryptofunk/internal/exchange"
	"github.com/ajitpratap0/cryptofunk/internal/executor"
	metricspkg "github.com/ajitpratap0/cryptofunk/internal/metrics"
	"github.com/ajitpratap0/cryptofunk/internal/oracle"
	"github.com/ajitpratap0/cryptofunk/internal/pool"
	"github.com/ajitpratap0/cryptofunk/internal/quote"
	"github.com/ajitpratap0/cryptofunk/internal/risk"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// State names the cycle's current phase.
type State string

const (
	StateIdle    State = "idle"
	StateObserve State = "observe"
	StateReason  State = "reason"
	StateAct     State = "act"
	StateReflect State = "reflect"
	StateAborted State = "aborted"
)

// maxHistory bounds the cycle record ring per spec.md §4.G.
const maxHistory = 100

// QuoteSource is the subset of internal/quote.Source the cycle needs.
type QuoteSource interface {
	GetSnapshot(ctx context.Context) (*quote.Snapshot, error)
}

// RiskAssessor is the subset of internal/risk.Gate the cycle needs.
type RiskAssessor interface {
	Assess(ctx context.Context, metrics pool.PoolMetrics, proposal oracle.Proposal, opps []detector.Opportunity) risk.Assessment
}

// Executor is the subset of internal/executor.Executor the cycle needs.
type Executor interface {
	Execute(ctx context.Context, opp detector.Opportunity, sizeUSD float64, venueClients map[string]exchange.Exchange) executor.ExecutionRecord
}

// CycleRecord summarizes one completed (or aborted) cycle for the history
// ring and the NATS "poolmind.cycle.completed" publish.
type CycleRecord struct {
	Sequence        int                         `json:"sequence"`
	StartedAt       time.Time                   `json:"started_at"`
	Duration        time.Duration               `json:"duration_ns"`
	Status          string                      `json:"status"` // "ok", "no_viable", "risk_vetoed", "error"
	OpportunityCount int                        `json:"opportunity_count"`
	Proposal        *oracle.Proposal            `json:"proposal,omitempty"`
	RiskAssessment  *risk.Assessment             `json:"risk_assessment,omitempty"`
	Executions      []executor.ExecutionRecord  `json:"executions,omitempty"`
	Fallback        bool                        `json:"fallback"`
	Err             string                      `json:"error,omitempty"`
}

// Config controls the orchestrator's cycle cadence and circuit-breaker
// cooldown. withDefaults fills ErrorRateThreshold, ErrorRateMinOps,
// FallbackRatioThreshold and DrawdownThreshold, but cycleBreaker does not
// read them: it trips on fixed thresholds equal to those defaults
// (breaker.go). CooldownPeriod is the only breaker setting taken from Config.
type Config struct {
	Symbols             []string
	MinSpreadThresholdPct float64
	MaxRiskScore        int
	CycleInterval       time.Duration
	OracleTimeout       time.Duration
	ErrorRateThreshold  float64
	ErrorRateMinOps     int
	FallbackRatioThreshold float64
	DrawdownThreshold   float64
	CooldownPeriod      time.Duration
	NATSSubject         string
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.CycleInterval <= 0 {
		out.CycleInterval = 30 * time.Second
	}
	if out.OracleTimeout <= 0 {
		out.OracleTimeout = 2 * time.Second
	}
	if out.MaxRiskScore <= 0 {
		out.MaxRiskScore = 7
	}
	if out.ErrorRateThreshold <= 0 {
		out.ErrorRateThreshold = 0.15
	}
	if out.ErrorRateMinOps <= 0 {
		out.ErrorRateMinOps = 10
	}
	if out.FallbackRatioThreshold <= 0 {
		out.FallbackRatioThreshold = 0.30
	}
	if out.DrawdownThreshold <= 0 {
		out.DrawdownThreshold = 0.15
	}
	if out.CooldownPeriod <= 0 {
		out.CooldownPeriod = 300 * time.Second
	}
	if out.NATSSubject == "" {
		out.NATSSubject = "poolmind.cycle.completed"
	}
	return out
}

// Metrics holds the Prometheus instruments the cycle updates.
type Metrics struct {
	cycleDuration   prometheus.Histogram
	opportunities   prometheus.Gauge
	executions      prometheus.Counter
	breakerTripped  prometheus.Gauge
	cyclesTotal     *prometheus.CounterVec
}

var (
	metricsOnce   sync.Once
	sharedMetrics *Metrics
)

// newMetrics registers the cycle collectors with the default registry on
// first use and returns the same instruments on every later call, so more
// than one Orchestrator can be built in a process.
func newMetrics() *Metrics {
	metricsOnce.Do(func() {
		sharedMetrics = &Metrics{
			cycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "poolmind_cycle_duration_seconds",
				Help:    "Duration of each Observe-Reason-Act-Reflect cycle",
				Buckets: prometheus.DefBuckets,
			}),
			opportunities: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "poolmind_cycle_opportunities",
				Help: "Arbitrage opportunities found in the most recent cycle",
			}),
			executions: promauto.NewCounter(prometheus.CounterOpts{
				Name: "poolmind_executions_total",
				Help: "Total simulated executions across all cycles",
			}),
			breakerTripped: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "poolmind_circuit_breaker_tripped",
				Help: "1 when the cycle circuit breaker is tripped, 0 otherwise",
			}),
			cyclesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "poolmind_cycles_total",
				Help: "Total cycles by terminal status",
			}, []string{"status"}),
		}
	})
	return sharedMetrics
}

// Orchestrator drives the cycle loop against a pool ledger, quote source,
// detector, strategy oracle, risk gate, and executor.
type Orchestrator struct {
	cfg      Config
	ledger   *pool.Ledger
	quotes   QuoteSource
	strategy oracle.StrategyOracle
	gate     RiskAssessor
	exec     Executor
	fees     detector.FeeModel
	nats     *nats.Conn
	log      zerolog.Logger
	metrics  *Metrics

	mu        sync.Mutex
	history   []CycleRecord
	sequence  int
	running   bool
	stopCh    chan struct{}

	breaker cycleBreaker
}

// New wires an Orchestrator. nats may be nil — publishes are then skipped.
func New(cfg Config, ledger *pool.Ledger, quotes QuoteSource, strategy oracle.StrategyOracle, gate RiskAssessor, exec Executor, fees detector.FeeModel, natsConn *nats.Conn, log zerolog.Logger) *Orchestrator {
	if fees == nil {
		fees = detector.DefaultFeeModel
	}
	return &Orchestrator{
		cfg:      cfg.withDefaults(),
		ledger:   ledger,
		quotes:   quotes,
		strategy: strategy,
		gate:     gate,
		exec:     exec,
		fees:     fees,
		nats:     natsConn,
		log:      log.With().Str("component", "orchestrator").Logger(),
		metrics:  newMetrics(),
		stopCh:   make(chan struct{}),
	}
}

// Run drives the Idle→Observe→Reason→Act→Reflect loop until ctx is
// cancelled or Stop is called. It blocks.
func (o *Orchestrator) Run(ctx context.Context) {
	o.mu.Lock()
	o.running = true
	o.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.stopCh:
			return
		default:
		}

		if o.breaker.tripped(o.cfg.CooldownPeriod) {
			o.metrics.breakerTripped.Set(1)
			o.sleep(ctx, time.Second)
			continue
		}
		o.metrics.breakerTripped.Set(0)

		start := time.Now()
		rec := o.runOneCycle(ctx)
		elapsed := time.Since(start)

		o.recordCycle(rec)
		o.metrics.cycleDuration.Observe(elapsed.Seconds())
		o.metrics.cyclesTotal.WithLabelValues(rec.Status).Inc()
		o.breaker.observe(rec)

		if elapsed < o.cfg.CycleInterval {
			o.sleep(ctx, o.cfg.CycleInterval-elapsed)
		}
	}
}

func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-o.stopCh:
	case <-timer.C:
	}
}

// RunOneCycle runs exactly one cycle and returns its record. Callers must
// ensure the continuous loop (Run) is not active, per spec.md §4.I.
func (o *Orchestrator) RunOneCycle(ctx context.Context) CycleRecord {
	rec := o.runOneCycle(ctx)
	o.recordCycle(rec)
	o.metrics.cyclesTotal.WithLabelValues(rec.Status).Inc()
	o.breaker.observe(rec)
	return rec
}

func (o *Orchestrator) runOneCycle(ctx context.Context) CycleRecord {
	o.mu.Lock()
	o.sequence++
	seq := o.sequence
	o.mu.Unlock()

	rec := CycleRecord{Sequence: seq, StartedAt: time.Now()}
	defer func() { rec.Duration = time.Since(rec.StartedAt) }()

	// Observe
	snap, err := o.quotes.GetSnapshot(ctx)
	if err != nil {
		rec.Status = "error"
		rec.Err = err.Error()
		return rec
	}

	opps := detector.Scan(snap, o.cfg.MinSpreadThresholdPct, o.fees)
	rec.OpportunityCount = len(opps)
	o.metrics.opportunities.Set(float64(len(opps)))

	if len(opps) == 0 {
		rec.Status = "no_viable"
		return rec
	}

	// Reason
	reasonCtx, cancel := context.WithTimeout(ctx, o.cfg.OracleTimeout)
	metrics := o.ledger.PoolMetrics()
	proposal := o.strategy.Propose(reasonCtx, metrics, opps)
	cancel()
	rec.Proposal = &proposal
	rec.Fallback = proposal.Fallback

	assessment := o.gate.Assess(ctx, metrics, proposal, opps)
	rec.RiskAssessment = &assessment
	metricspkg.CycleRiskScore.Set(float64(assessment.Score))
	if proposal.Fallback {
		metricspkg.FallbackProposalsTotal.Inc()
	}

	hasPositiveSize := false
	for _, s := range proposal.SizesUSD {
		if s > 0 {
			hasPositiveSize = true
			break
		}
	}

	if assessment.Score > o.cfg.MaxRiskScore || !hasPositiveSize {
		rec.Status = "risk_vetoed"
		return rec
	}

	// Act
	for i, idx := range proposal.SelectedIndices {
		if idx < 0 || idx >= len(opps) || i >= len(proposal.SizesUSD) {
			continue
		}
		size := proposal.SizesUSD[i]
		if size <= 0 {
			continue
		}
		execRec := o.exec.Execute(ctx, opps[idx], size, nil)
		rec.Executions = append(rec.Executions, execRec)
		o.metrics.executions.Inc()
	}

	// Reflect
	rec.Status = "ok"
	o.publish(rec)
	return rec
}

func (o *Orchestrator) recordCycle(rec CycleRecord) {
	o.mu.Lock()
	o.history = append(o.history, rec)
	if len(o.history) > maxHistory {
		o.history = o.history[len(o.history)-maxHistory:]
	}
	o.mu.Unlock()

	m := o.ledger.PoolMetrics()
	initial, _ := m.InitialPoolValue.Float64()
	current, _ := m.TotalPoolValue.Float64()
	o.breaker.ObserveDrawdown(initial, current)
}

func (o *Orchestrator) publish(rec CycleRecord) {
	if o.nats == nil {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		o.log.Warn().Err(err).Msg("orchestrator: failed to marshal cycle record")
		return
	}
	if err := o.nats.Publish(o.cfg.NATSSubject, data); err != nil {
		o.log.Warn().Err(err).Msg("orchestrator: failed to publish cycle record")
		return
	}
	metricspkg.RecordNATSPublish()
}

// Stop requests the loop to exit after finishing the current cycle.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.running {
		return
	}
	o.running = false
	close(o.stopCh)
}

// IsRunning reports whether the continuous loop is active.
func (o *Orchestrator) IsRunning() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// History returns a copy of the cycle record ring, most recent last.
func (o *Orchestrator) History() []CycleRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]CycleRecord, len(o.history))
	copy(out, o.history)
	return out
}

// BreakerTripped reports whether the cycle circuit breaker is currently
// open.
func (o *Orchestrator) BreakerTripped() bool {
	return o.breaker.tripped(o.cfg.CooldownPeriod)
}
