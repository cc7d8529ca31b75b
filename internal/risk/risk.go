package risk

import (
	"context"
	"fmt"
	"strings"

	"github.com/ajitpratap0/cryptofunk/internal/detector"
	"github.com/ajitpratap0/cryptofunk/internal/oracle"
	"github.com/ajitpratap0/cryptofunk/internal/pool"
	"github.com/rs/zerolog/log"
)

const (
	// defaultScore is returned whenever the MCP call fails, times out, or
	// returns something unusable — the gate must always produce an
	// Assessment.
	defaultScore      = 5
	defaultReasoning  = "unable to assess"
	minScore, maxScore = 1, 10
)

// Assessment is the risk gate's verdict on a proposal.
type Assessment struct {
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
	Degraded  bool   `json:"degraded"` // true when the MCP call failed and the default was used
}

// proposalAssessor abstracts the MCP transport so Assess can be tested
// without a live stdio session.
type proposalAssessor interface {
	AssessProposal(ctx context.Context, args map[string]interface{}) (string, error)
}

// Gate is the risk gate. A nil mcp field is valid — every assessment then
// degrades to the default.
type Gate struct {
	mcp proposalAssessor
}

// NewGate wires a risk gate against an MCP client. client may be nil to
// always use the default assessment (e.g. the risk-analyzer server is
// disabled in config).
func NewGate(client *MCPClient) *Gate {
	if client == nil {
		return &Gate{}
	}
	return &Gate{mcp: client}
}

type assessResponse struct {
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
}

// Assess queries the MCP risk-analyzer tool for a 1-10 score and reasoning
// on the oracle's proposal. It never returns an error — any failure along
// the way (no client configured, transport error, malformed response,
// out-of-range score) produces the degraded default assessment instead.
func (g *Gate) Assess(ctx context.Context, metrics pool.PoolMetrics, proposal oracle.Proposal, opps []detector.Opportunity) Assessment {
	if g == nil || g.mcp == nil {
		return Assessment{Score: defaultScore, Reasoning: defaultReasoning, Degraded: true}
	}

	poolValue, _ := metrics.TotalPoolValue.Float64()
	raw, err := g.mcp.AssessProposal(ctx, buildAssessArgs(poolValue, proposal, opps))
	if err != nil {
		log.Warn().Err(err).Msg("risk gate: falling back to default assessment")
		return Assessment{Score: defaultScore, Reasoning: defaultReasoning, Degraded: true}
	}

	var resp assessResponse
	if err := unmarshalResponse(raw, &resp); err != nil {
		log.Warn().Err(err).Msg("risk gate: malformed assess_proposal response")
		return Assessment{Score: defaultScore, Reasoning: defaultReasoning, Degraded: true}
	}

	if resp.Score < minScore || resp.Score > maxScore {
		log.Warn().Int("score", resp.Score).Msg("risk gate: score out of range")
		return Assessment{Score: defaultScore, Reasoning: defaultReasoning, Degraded: true}
	}

	reasoning := resp.Reasoning
	if strings.TrimSpace(reasoning) == "" {
		reasoning = defaultReasoning
	}
	return Assessment{Score: resp.Score, Reasoning: reasoning}
}

func buildAssessArgs(poolValue float64, proposal oracle.Proposal, opps []detector.Opportunity) map[string]interface{} {
	selected := make([]map[string]interface{}, 0, len(proposal.SelectedIndices))
	for i, idx := range proposal.SelectedIndices {
		if idx < 0 || idx >= len(opps) {
			continue
		}
		size := 0.0
		if i < len(proposal.SizesUSD) {
			size = proposal.SizesUSD[i]
		}
		o := opps[idx]
		selected = append(selected, map[string]interface{}{
			"symbol":         o.Symbol,
			"buy_venue":      o.BuyVenue,
			"sell_venue":     o.SellVenue,
			"profit_pct":     o.ProfitPct,
			"size_usd":       size,
			"max_volume_usd": o.MaxVolumeUSD,
		})
	}

	return map[string]interface{}{
		"pool_value_usd":    poolValue,
		"fallback_proposal": proposal.Fallback,
		"selections":        selected,
		"summary":           fmt.Sprintf("%d selection(s), %s", len(selected), proposal.RiskLabel),
	}
}
