package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/ajitpratap0/cryptofunk/internal/detector"
	"github.com/ajitpratap0/cryptofunk/internal/exchange"
	"github.com/ajitpratap0/cryptofunk/internal/executor"
	"github.com/ajitpratap0/cryptofunk/internal/oracle"
	"github.com/ajitpratap0/cryptofunk/internal/pool"
	"github.com/ajitpratap0/cryptofunk/internal/quote"
	"github.com/ajitpratap0/cryptofunk/internal/risk"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuoteSource struct {
	snap *quote.Snapshot
	err  error
}

func (f *fakeQuoteSource) GetSnapshot(ctx context.Context) (*quote.Snapshot, error) {
	return f.snap, f.err
}

type fakeStrategy struct {
	proposal oracle.Proposal
}

func (f *fakeStrategy) Propose(ctx context.Context, metrics pool.PoolMetrics, opps []detector.Opportunity) oracle.Proposal {
	return f.proposal
}

type fakeGate struct {
	assessment risk.Assessment
}

func (f *fakeGate) Assess(ctx context.Context, metrics pool.PoolMetrics, proposal oracle.Proposal, opps []detector.Opportunity) risk.Assessment {
	return f.assessment
}

type fakeExecutor struct {
	calls int
}

func (f *fakeExecutor) Execute(ctx context.Context, opp detector.Opportunity, sizeUSD float64, venueClients map[string]exchange.Exchange) executor.ExecutionRecord {
	f.calls++
	return executor.ExecutionRecord{Symbol: opp.Symbol, SizeUSD: sizeUSD, Success: true, Profit: 1}
}

func emptySnapshot() *quote.Snapshot {
	return &quote.Snapshot{Timestamp: time.Now(), Venues: map[string]map[string]quote.Quote{}}
}

func snapshotWithOpportunity() *quote.Snapshot {
	return &quote.Snapshot{
		Timestamp: time.Now(),
		Venues: map[string]map[string]quote.Quote{
			"BTC/USDT": {
				"binance": {Venue: "binance", Symbol: "BTC/USDT", Bid: 100, Ask: 100.1, BidVolume: 10, AskVolume: 10},
				"kraken":  {Venue: "kraken", Symbol: "BTC/USDT", Bid: 102, Ask: 102.1, BidVolume: 10, AskVolume: 10},
			},
		},
	}
}

func newTestOrchestrator(t *testing.T, quotes QuoteSource, strat oracle.StrategyOracle, gate RiskAssessor, exec Executor) *Orchestrator {
	t.Helper()
	ledger := pool.New(decimal.NewFromInt(100000), 3)
	cfg := Config{MinSpreadThresholdPct: 0.1, CycleInterval: time.Hour}
	return New(cfg, ledger, quotes, strat, gate, exec, nil, nil, zerolog.Nop())
}

func TestRunOneCycle_NoOpportunitiesIsNoViable(t *testing.T) {
	o := newTestOrchestrator(t, &fakeQuoteSource{snap: emptySnapshot()}, &fakeStrategy{}, &fakeGate{}, &fakeExecutor{})
	rec := o.RunOneCycle(context.Background())
	assert.Equal(t, "no_viable", rec.Status)
	assert.Equal(t, 0, rec.OpportunityCount)
}

func TestRunOneCycle_QuoteErrorAborts(t *testing.T) {
	o := newTestOrchestrator(t, &fakeQuoteSource{err: errSnapshotUnavailable}, &fakeStrategy{}, &fakeGate{}, &fakeExecutor{})
	rec := o.RunOneCycle(context.Background())
	assert.Equal(t, "error", rec.Status)
}

func TestRunOneCycle_RiskVetoSkipsAct(t *testing.T) {
	strat := &fakeStrategy{proposal: oracle.Proposal{SelectedIndices: []int{0}, SizesUSD: []float64{100}}}
	gate := &fakeGate{assessment: risk.Assessment{Score: 9}}
	exec := &fakeExecutor{}
	o := newTestOrchestrator(t, &fakeQuoteSource{snap: snapshotWithOpportunity()}, strat, gate, exec)

	rec := o.RunOneCycle(context.Background())
	assert.Equal(t, "risk_vetoed", rec.Status)
	assert.Equal(t, 0, exec.calls)
}

func TestRunOneCycle_ApprovedProposalExecutes(t *testing.T) {
	strat := &fakeStrategy{proposal: oracle.Proposal{SelectedIndices: []int{0}, SizesUSD: []float64{100}}}
	gate := &fakeGate{assessment: risk.Assessment{Score: 3}}
	exec := &fakeExecutor{}
	o := newTestOrchestrator(t, &fakeQuoteSource{snap: snapshotWithOpportunity()}, strat, gate, exec)

	rec := o.RunOneCycle(context.Background())
	require.Equal(t, "ok", rec.Status)
	assert.Equal(t, 1, exec.calls)
	assert.Len(t, rec.Executions, 1)
}

func TestRunOneCycle_ZeroSizeSelectionIsVetoed(t *testing.T) {
	strat := &fakeStrategy{proposal: oracle.Proposal{SelectedIndices: []int{0}, SizesUSD: []float64{0}}}
	gate := &fakeGate{assessment: risk.Assessment{Score: 3}}
	o := newTestOrchestrator(t, &fakeQuoteSource{snap: snapshotWithOpportunity()}, strat, gate, &fakeExecutor{})

	rec := o.RunOneCycle(context.Background())
	assert.Equal(t, "risk_vetoed", rec.Status)
}

func TestHistory_TrimsToMaxLength(t *testing.T) {
	o := newTestOrchestrator(t, &fakeQuoteSource{snap: emptySnapshot()}, &fakeStrategy{}, &fakeGate{}, &fakeExecutor{})
	for i := 0; i < maxHistory+10; i++ {
		o.RunOneCycle(context.Background())
	}
	assert.Len(t, o.History(), maxHistory)
}

func TestStop_MarksNotRunning(t *testing.T) {
	o := newTestOrchestrator(t, &fakeQuoteSource{snap: emptySnapshot()}, &fakeStrategy{}, &fakeGate{}, &fakeExecutor{})
	o.mu.Lock()
	o.running = true
	o.mu.Unlock()
	o.Stop()
	assert.False(t, o.IsRunning())
}

type errSnapshot struct{}

func (errSnapshot) Error() string { return "snapshot unavailable" }

var errSnapshotUnavailable = errSnapshot{}
