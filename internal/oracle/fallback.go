package oracle

import (
	"context"

	"github.com/ajitpratap0/cryptofunk/internal/detector"
	"github.com/ajitpratap0/cryptofunk/internal/pool"
)

// FallbackOracle implements the deterministic tiered sizing rules used
// whenever the LLM advisory is unavailable or disabled, grounded on
// poolmind/core/arbitrage.py and research.py's tiered position sizing.
type FallbackOracle struct{}

// NewFallbackOracle returns the always-available deterministic oracle.
func NewFallbackOracle() *FallbackOracle {
	return &FallbackOracle{}
}

// Propose never fails; it is the terminal fallback for every other oracle
// implementation.
func (f *FallbackOracle) Propose(_ context.Context, metrics pool.PoolMetrics, opps []detector.Opportunity) Proposal {
	return fallbackProposal(metrics, opps)
}

func fallbackProposal(metrics pool.PoolMetrics, opps []detector.Opportunity) Proposal {
	if len(opps) == 0 {
		return Proposal{RiskLabel: "none", Reasoning: "no opportunities available", Fallback: true}
	}

	poolValue, _ := metrics.TotalPoolValue.Float64()

	var (
		topN      int
		totalPct  float64
		riskLabel string
	)

	switch {
	case poolValue < 10_000:
		topN, totalPct, riskLabel = 1, 0.02, "conservative"
	case poolValue < 100_000:
		topN, totalPct, riskLabel = 3, 0.05, "moderate"
	default:
		topN, totalPct, riskLabel = 5, 0.10, "aggressive"
	}

	if topN > len(opps) {
		topN = len(opps)
	}

	totalUSD := poolValue * totalPct
	perOpp := totalUSD / float64(topN)

	indices := make([]int, 0, topN)
	sizes := make([]float64, 0, topN)
	for i := 0; i < topN; i++ {
		size := perOpp
		if size > opps[i].MaxVolumeUSD {
			size = opps[i].MaxVolumeUSD
		}
		indices = append(indices, i)
		sizes = append(sizes, size)
	}

	return Proposal{
		SelectedIndices: indices,
		SizesUSD:        sizes,
		RiskLabel:       riskLabel,
		Reasoning:       "deterministic tiered sizing (oracle unavailable or disabled)",
		Fallback:        true,
	}
}
