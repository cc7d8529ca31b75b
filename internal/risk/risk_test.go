package risk

import (
	"context"
	"errors"
	"testing"

	"github.com/ajitpratap0/cryptofunk/internal/detector"
	"github.com/ajitpratap0/cryptofunk/internal/oracle"
	"github.com/ajitpratap0/cryptofunk/internal/pool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type fakeAssessor struct {
	response string
	err      error
}

func (f *fakeAssessor) AssessProposal(ctx context.Context, args map[string]interface{}) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func metrics(poolValue string) pool.PoolMetrics {
	v, _ := decimal.NewFromString(poolValue)
	return pool.PoolMetrics{TotalPoolValue: v}
}

func sampleOpps() []detector.Opportunity {
	return []detector.Opportunity{
		{Symbol: "BTC/USDT", BuyVenue: "binance", SellVenue: "kraken-synth", ProfitPct: 0.5, MaxVolumeUSD: 1000},
	}
}

func TestAssess_ValidResponse(t *testing.T) {
	g := NewGate(nil)
	g.mcp = &fakeAssessor{response: `{"score":3,"reasoning":"spread is thin but liquid"}`}

	a := g.Assess(context.Background(), metrics("50000"), oracle.Proposal{SelectedIndices: []int{0}, SizesUSD: []float64{500}}, sampleOpps())
	assert.Equal(t, 3, a.Score)
	assert.Equal(t, "spread is thin but liquid", a.Reasoning)
	assert.False(t, a.Degraded)
}

func TestAssess_NoClientConfiguredUsesDefault(t *testing.T) {
	g := NewGate(nil)
	a := g.Assess(context.Background(), metrics("50000"), oracle.Proposal{}, sampleOpps())
	assert.Equal(t, defaultScore, a.Score)
	assert.Equal(t, defaultReasoning, a.Reasoning)
	assert.True(t, a.Degraded)
}

func TestAssess_TransportErrorUsesDefault(t *testing.T) {
	g := NewGate(nil)
	g.mcp = &fakeAssessor{err: errors.New("broken pipe")}

	a := g.Assess(context.Background(), metrics("50000"), oracle.Proposal{}, sampleOpps())
	assert.True(t, a.Degraded)
	assert.Equal(t, defaultScore, a.Score)
}

func TestAssess_MalformedJSONUsesDefault(t *testing.T) {
	g := NewGate(nil)
	g.mcp = &fakeAssessor{response: `not json`}

	a := g.Assess(context.Background(), metrics("50000"), oracle.Proposal{}, sampleOpps())
	assert.True(t, a.Degraded)
}

func TestAssess_OutOfRangeScoreUsesDefault(t *testing.T) {
	g := NewGate(nil)
	g.mcp = &fakeAssessor{response: `{"score":11,"reasoning":"too aggressive"}`}

	a := g.Assess(context.Background(), metrics("50000"), oracle.Proposal{}, sampleOpps())
	assert.True(t, a.Degraded)
	assert.Equal(t, defaultScore, a.Score)
}

func TestAssess_ZeroScoreUsesDefault(t *testing.T) {
	g := NewGate(nil)
	g.mcp = &fakeAssessor{response: `{"score":0,"reasoning":"x"}`}

	a := g.Assess(context.Background(), metrics("50000"), oracle.Proposal{}, sampleOpps())
	assert.True(t, a.Degraded)
}

func TestAssess_BlankReasoningFallsBackToDefaultText(t *testing.T) {
	g := NewGate(nil)
	g.mcp = &fakeAssessor{response: `{"score":4,"reasoning":""}`}

	a := g.Assess(context.Background(), metrics("50000"), oracle.Proposal{}, sampleOpps())
	assert.False(t, a.Degraded)
	assert.Equal(t, defaultReasoning, a.Reasoning)
}

func TestAssess_SkipsOutOfRangeSelectedIndexWhenBuildingArgs(t *testing.T) {
	args := buildAssessArgs(50000, oracle.Proposal{SelectedIndices: []int{0, 99}, SizesUSD: []float64{500, 100}}, sampleOpps())
	selections, ok := args["selections"].([]map[string]interface{})
	assert.True(t, ok)
	assert.Len(t, selections, 1)
}
