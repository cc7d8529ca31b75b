// Package pool implements the participant ledger for the pooled
// cross-exchange arbitrage engine: participant accounting, withdrawal
// processing, and asset mark-to-market.
package pool

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrDuplicateParticipant is returned by AddParticipant for an id already present.
	ErrDuplicateParticipant = errors.New("pool: participant already exists")
	// ErrUnknownParticipant is returned when an operation references an unknown id.
	ErrUnknownParticipant = errors.New("pool: unknown participant")
	// ErrOverdrawn is returned when a withdrawal request exceeds the participant's current value.
	ErrOverdrawn = errors.New("pool: withdrawal amount exceeds current value")
	// ErrInvalidAmount is returned for non-positive investment or withdrawal amounts.
	ErrInvalidAmount = errors.New("pool: amount must be positive")
)

// WithdrawalStatus is the lifecycle state of a WithdrawalRequest.
type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalCompleted WithdrawalStatus = "completed"
	WithdrawalDelayed   WithdrawalStatus = "delayed"
)

// WithdrawalRequest is one participant's request to pull cash out of the pool.
type WithdrawalRequest struct {
	Amount      decimal.Decimal
	RequestTime time.Time
	Status      WithdrawalStatus
	ProcessTime time.Time
}

// Participant holds one investor's position in the pool.
type Participant struct {
	ID                 string
	InitialInvestment  decimal.Decimal
	CurrentValue       decimal.Decimal
	JoinTime           time.Time
	WithdrawalRequests []WithdrawalRequest
}

// ROI returns the participant's return on investment as a fraction (0.1 = 10%).
func (p *Participant) ROI() decimal.Decimal {
	if p.InitialInvestment.IsZero() {
		return decimal.Zero
	}
	return p.CurrentValue.Sub(p.InitialInvestment).Div(p.InitialInvestment)
}

// WithdrawalResult is one outcome row returned by ProcessWithdrawals.
type WithdrawalResult struct {
	ParticipantID string
	Amount        decimal.Decimal
	Status        WithdrawalStatus
}

// PoolMetrics is a snapshot of pool-wide figures, grounded on
// poolmind.core.pool_state.PoolState.get_pool_metrics.
type PoolMetrics struct {
	TotalPoolValue    decimal.Decimal
	InitialPoolValue  decimal.Decimal
	CashReserve       decimal.Decimal
	CashRatio         decimal.Decimal
	ROI               decimal.Decimal
	ParticipantCount  int
	AssetCount        int
	Assets            map[string]decimal.Decimal
	AgeDays           float64
	LastUpdate        time.Time
}

// ParticipantMetrics mirrors PoolState.get_participant_metrics for one participant.
type ParticipantMetrics struct {
	ID                     string
	InitialInvestment      decimal.Decimal
	CurrentValue           decimal.Decimal
	ROI                    decimal.Decimal
	JoinTime               time.Time
	PendingWithdrawalCount int
}

// Ledger is the pool's single source of truth. One mutex protects all state;
// the control API and the orchestrator's cycle loop share one instance.
type Ledger struct {
	mu sync.Mutex

	initialPoolValue decimal.Decimal
	poolValue        decimal.Decimal
	cashReserve      decimal.Decimal
	assets           map[string]decimal.Decimal // symbol -> USD marked value
	participants     map[string]*Participant
	order            []string // insertion order, for deterministic iteration
	createdAt        time.Time
	updatedAt        time.Time

	now func() time.Time
}

// New creates a ledger seeded at initialValue with participantCount synthetic
// participants, each receiving initialValue/participantCount scaled by a
// linear variation ramp from 0.8 to 1.2 (mean 1.0), so the seeded
// investments sum to initialValue.
func New(initialValue decimal.Decimal, participantCount int) *Ledger {
	l := &Ledger{
		initialPoolValue: initialValue,
		poolValue:        initialValue,
		cashReserve:      initialValue,
		assets:           make(map[string]decimal.Decimal),
		participants:     make(map[string]*Participant),
		createdAt:        time.Now(),
		updatedAt:        time.Now(),
		now:              time.Now,
	}

	if participantCount > 0 {
		l.seedParticipants(participantCount)
	}

	return l
}

func (l *Ledger) seedParticipants(count int) {
	avgInvestment := l.initialPoolValue.Div(decimal.NewFromInt(int64(count)))
	for i := 0; i < count; i++ {
		// variation = 0.8 + 0.4*(i/(count-1)), ranging [0.8, 1.2] with mean 1.0;
		// a single participant gets exactly the even share.
		variation := decimal.NewFromInt(1)
		if count > 1 {
			variation = decimal.NewFromFloat(0.8).Add(
				decimal.NewFromFloat(0.4).Mul(decimal.NewFromInt(int64(i))).Div(decimal.NewFromInt(int64(count - 1))),
			)
		}
		investment := avgInvestment.Mul(variation)
		id := fmt.Sprintf("participant_%d", i+1)
		l.participants[id] = &Participant{
			ID:                id,
			InitialInvestment: investment,
			CurrentValue:      investment,
			JoinTime:          l.now(),
		}
		l.order = append(l.order, id)
	}
}

// AddParticipant adds a new participant with the given positive investment,
// growing pool_value and cash_reserve by the same amount.
func (l *Ledger) AddParticipant(id string, investment decimal.Decimal) error {
	if investment.Sign() <= 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.participants[id]; exists {
		return ErrDuplicateParticipant
	}

	l.participants[id] = &Participant{
		ID:                id,
		InitialInvestment: investment,
		CurrentValue:      investment,
		JoinTime:          l.now(),
	}
	l.order = append(l.order, id)
	l.poolValue = l.poolValue.Add(investment)
	l.cashReserve = l.cashReserve.Add(investment)
	l.updatedAt = l.now()
	return nil
}

// RequestWithdrawal enqueues a pending withdrawal request; it does not move cash.
func (l *Ledger) RequestWithdrawal(id string, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.participants[id]
	if !ok {
		return ErrUnknownParticipant
	}

	if amount.GreaterThan(p.CurrentValue) {
		return ErrOverdrawn
	}

	p.WithdrawalRequests = append(p.WithdrawalRequests, WithdrawalRequest{
		Amount:      amount,
		RequestTime: l.now(),
		Status:      WithdrawalPending,
	})
	l.updatedAt = l.now()
	return nil
}

// ProcessWithdrawals completes every pending request that cash_reserve can
// cover, in FIFO order per participant, over participants in insertion
// order. Requests that cannot be covered are marked delayed and retried on
// the next call.
func (l *Ledger) ProcessWithdrawals() []WithdrawalResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	var results []WithdrawalResult

	for _, id := range l.order {
		p := l.participants[id]
		for i := range p.WithdrawalRequests {
			w := &p.WithdrawalRequests[i]
			if w.Status != WithdrawalPending && w.Status != WithdrawalDelayed {
				continue
			}

			if w.Amount.LessThanOrEqual(l.cashReserve) {
				w.Status = WithdrawalCompleted
				w.ProcessTime = l.now()
				l.cashReserve = l.cashReserve.Sub(w.Amount)
				l.poolValue = l.poolValue.Sub(w.Amount)
				p.CurrentValue = p.CurrentValue.Sub(w.Amount)
				results = append(results, WithdrawalResult{ParticipantID: id, Amount: w.Amount, Status: WithdrawalCompleted})
			} else {
				w.Status = WithdrawalDelayed
				results = append(results, WithdrawalResult{ParticipantID: id, Amount: w.Amount, Status: WithdrawalDelayed})
			}
		}
	}

	l.updatedAt = l.now()
	return results
}

// UpdateAssetAllocation replaces the asset inventory and recomputes cash
// reserve as pool_value minus the sum of marked asset values. The caller is
// responsible for ensuring the result stays non-negative.
func (l *Ledger) UpdateAssetAllocation(assets map[string]decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.assets = make(map[string]decimal.Decimal, len(assets))
	total := decimal.Zero
	for symbol, value := range assets {
		l.assets[symbol] = value
		total = total.Add(value)
	}

	l.cashReserve = l.poolValue.Sub(total)
	l.updatedAt = l.now()
}

// MarkPoolValue sets a new total pool value and scales every participant's
// current_value proportionally. If the prior pool value was zero, participant
// values are left unchanged (the gain/loss is unattributed house dust).
func (l *Ledger) MarkPoolValue(newValue decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()

	oldValue := l.poolValue
	l.poolValue = newValue

	if oldValue.Sign() > 0 {
		ratio := newValue.Div(oldValue)
		for _, id := range l.order {
			p := l.participants[id]
			p.CurrentValue = p.CurrentValue.Mul(ratio)
		}
	}

	l.updatedAt = l.now()
}

// PoolMetrics returns a pure read-only snapshot of pool-wide figures.
func (l *Ledger) PoolMetrics() PoolMetrics {
	l.mu.Lock()
	defer l.mu.Unlock()

	totalInitial := decimal.Zero
	totalCurrent := decimal.Zero
	for _, id := range l.order {
		p := l.participants[id]
		totalInitial = totalInitial.Add(p.InitialInvestment)
		totalCurrent = totalCurrent.Add(p.CurrentValue)
	}

	roi := decimal.Zero
	if totalInitial.Sign() > 0 {
		roi = totalCurrent.Sub(totalInitial).Div(totalInitial)
	}

	cashRatio := decimal.Zero
	if l.poolValue.Sign() > 0 {
		cashRatio = l.cashReserve.Div(l.poolValue)
	}

	assets := make(map[string]decimal.Decimal, len(l.assets))
	for k, v := range l.assets {
		assets[k] = v
	}

	return PoolMetrics{
		TotalPoolValue:   l.poolValue,
		InitialPoolValue: l.initialPoolValue,
		CashReserve:      l.cashReserve,
		CashRatio:        cashRatio,
		ROI:              roi,
		ParticipantCount: len(l.participants),
		AssetCount:       len(l.assets),
		Assets:           assets,
		AgeDays:          l.now().Sub(l.createdAt).Hours() / 24,
		LastUpdate:       l.updatedAt,
	}
}

// ParticipantMetrics returns metrics for one participant, or all participants
// if id is empty.
func (l *Ledger) ParticipantMetrics(id string) ([]ParticipantMetrics, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if id != "" {
		p, ok := l.participants[id]
		if !ok {
			return nil, ErrUnknownParticipant
		}
		return []ParticipantMetrics{participantMetricsOf(p)}, nil
	}

	out := make([]ParticipantMetrics, 0, len(l.participants))
	for _, pid := range l.order {
		out = append(out, participantMetricsOf(l.participants[pid]))
	}
	return out, nil
}

func participantMetricsOf(p *Participant) ParticipantMetrics {
	pending := 0
	for _, w := range p.WithdrawalRequests {
		if w.Status == WithdrawalPending {
			pending++
		}
	}
	return ParticipantMetrics{
		ID:                     p.ID,
		InitialInvestment:      p.InitialInvestment,
		CurrentValue:           p.CurrentValue,
		ROI:                    p.ROI(),
		JoinTime:               p.JoinTime,
		PendingWithdrawalCount: pending,
	}
}
