package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ajitpratap0/cryptofunk/internal/detector"
	"github.com/ajitpratap0/cryptofunk/internal/llm"
	"github.com/ajitpratap0/cryptofunk/internal/pool"
	"github.com/rs/zerolog/log"
)

// CaseStore supplies a short textual summary of the k prior cases nearest to
// the current context, so the oracle's prompt can reference past outcomes.
// Only the oracle may consult this — the rest of the cycle state machine has
// no access to case history per spec.md §4.H.
type CaseStore interface {
	NearestSummaries(ctx context.Context, queryText string, k int) ([]string, error)
}

// LLMOracle is the advisory-backed StrategyOracle. Any failure along the
// path (timeout, malformed JSON, schema violation) routes to FallbackOracle
// rather than surfacing an error to the caller.
type LLMOracle struct {
	client   llm.LLMClient
	cases    CaseStore
	fallback *FallbackOracle
	budget   time.Duration
	nearestK int
}

// NewLLMOracle wires an LLM client and an optional case store (nil disables
// case lookups) behind the fixed fallback tiers. budget bounds the LLM call.
func NewLLMOracle(client llm.LLMClient, cases CaseStore, budget time.Duration) *LLMOracle {
	if budget <= 0 {
		budget = 2 * time.Second
	}
	return &LLMOracle{client: client, cases: cases, fallback: NewFallbackOracle(), budget: budget, nearestK: 3}
}

// oracleResponse is the fixed schema spec.md §4.D requires from the LLM.
type oracleResponse struct {
	SelectedOpportunities []int     `json:"selected_opportunities"`
	PositionSizes         []float64 `json:"position_sizes"`
	RiskAssessment        string    `json:"risk_assessment"`
	Reasoning             string    `json:"reasoning"`
}

// Propose builds a prompt from the cycle's inputs, calls the LLM within a
// bounded budget, and validates the response schema. Any failure falls back
// to the deterministic tiers.
func (o *LLMOracle) Propose(ctx context.Context, metrics pool.PoolMetrics, opps []detector.Opportunity) Proposal {
	if o.client == nil || len(opps) == 0 {
		return o.fallback.Propose(ctx, metrics, opps)
	}

	callCtx, cancel := context.WithTimeout(ctx, o.budget)
	defer cancel()

	systemPrompt := oracleSystemPrompt
	userPrompt := o.buildUserPrompt(callCtx, metrics, opps)

	raw, err := o.client.CompleteWithSystem(callCtx, systemPrompt, userPrompt)
	if err != nil {
		log.Warn().Err(err).Msg("oracle: LLM call failed, using deterministic fallback")
		return o.fallback.Propose(ctx, metrics, opps)
	}

	var resp oracleResponse
	if err := o.client.ParseJSONResponse(raw, &resp); err != nil {
		log.Warn().Err(err).Msg("oracle: LLM response did not parse, using deterministic fallback")
		return o.fallback.Propose(ctx, metrics, opps)
	}

	proposal := Proposal{
		SelectedIndices: resp.SelectedOpportunities,
		SizesUSD:        resp.PositionSizes,
		RiskLabel:       resp.RiskAssessment,
		Reasoning:       resp.Reasoning,
	}

	if !validateProposal(proposal, len(opps)) {
		log.Warn().Msg("oracle: LLM response failed schema validation, using deterministic fallback")
		return o.fallback.Propose(ctx, metrics, opps)
	}

	return proposal
}

func (o *LLMOracle) buildUserPrompt(ctx context.Context, metrics pool.PoolMetrics, opps []detector.Opportunity) string {
	var b strings.Builder

	poolValue, _ := metrics.TotalPoolValue.Float64()
	cashReserve, _ := metrics.CashReserve.Float64()
	fmt.Fprintf(&b, "Pool value: $%.2f, cash reserve: $%.2f, participants: %d\n\n", poolValue, cashReserve, metrics.ParticipantCount)

	b.WriteString("Opportunities (index: symbol buy->sell spread% profit% max_volume_usd):\n")
	for i, o := range opps {
		fmt.Fprintf(&b, "%d: %s %s->%s spread=%.3f%% profit=%.3f%% max_volume=$%.2f\n",
			i, o.Symbol, o.BuyVenue, o.SellVenue, o.SpreadPct, o.ProfitPct, o.MaxVolumeUSD)
	}

	if o.cases != nil {
		summaries, err := o.cases.NearestSummaries(ctx, cycleQueryText(metrics, opps), o.nearestK)
		if err != nil {
			log.Debug().Err(err).Msg("oracle: case store lookup failed, proceeding without history")
		} else if len(summaries) > 0 {
			b.WriteString("\nSimilar past cycles:\n")
			for _, s := range summaries {
				b.WriteString("- ")
				b.WriteString(s)
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\nRespond with JSON: {\"selected_opportunities\": [int], \"position_sizes\": [usd], \"risk_assessment\": string, \"reasoning\": string}")
	return b.String()
}

func cycleQueryText(metrics pool.PoolMetrics, opps []detector.Opportunity) string {
	poolValue, _ := metrics.TotalPoolValue.Float64()
	symbols := make([]string, 0, len(opps))
	for _, o := range opps {
		symbols = append(symbols, o.Symbol)
	}
	return fmt.Sprintf("pool_value=%.0f symbols=%s", poolValue, strings.Join(symbols, ","))
}

const oracleSystemPrompt = `You are the strategy oracle for a pooled cross-exchange arbitrage engine.
Given the pool's current metrics and a list of detected arbitrage opportunities, select which
opportunities to act on this cycle and how many USD to allocate to each. Favor higher profit_pct
and sufficient max_volume_usd; never exceed an opportunity's max_volume_usd. Respond only with the
requested JSON object, no prose.`
