// Package oracle turns a cycle's pool metrics and detected opportunities
// into a sizing Proposal, either via an LLM advisory or a deterministic
// fallback. The quote snapshot itself is not an input.
package oracle

import (
	"context"

	"github.com/ajitpratap0/cryptofunk/internal/detector"
	"github.com/ajitpratap0/cryptofunk/internal/pool"
)

// Proposal is the oracle's sizing recommendation for one cycle.
type Proposal struct {
	SelectedIndices []int
	SizesUSD        []float64
	RiskLabel       string
	Reasoning       string
	// Fallback marks a proposal produced by the deterministic tiers rather
	// than the LLM advisory, so the orchestrator can count it toward the
	// circuit breaker's fallback-activation ratio.
	Fallback bool
}

// StrategyOracle proposes which opportunities to act on and how to size
// them. It never returns an error to the caller — any internal failure
// (timeout, schema mismatch, disabled) routes to the deterministic fallback.
type StrategyOracle interface {
	Propose(ctx context.Context, metrics pool.PoolMetrics, opps []detector.Opportunity) Proposal
}

// validateProposal checks the schema invariants spec.md §4.D requires on
// return: in-range and unique indices, non-negative sizes, equal lengths.
func validateProposal(p Proposal, oppCount int) bool {
	if len(p.SelectedIndices) != len(p.SizesUSD) {
		return false
	}

	seen := make(map[int]bool, len(p.SelectedIndices))
	for _, idx := range p.SelectedIndices {
		if idx < 0 || idx >= oppCount {
			return false
		}
		if seen[idx] {
			return false
		}
		seen[idx] = true
	}

	for _, size := range p.SizesUSD {
		if size < 0 {
			return false
		}
	}

	return true
}
