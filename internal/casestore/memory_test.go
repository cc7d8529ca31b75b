package casestore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RecordAndQueryNearest(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Case{QueryText: "pool_value=50000 symbols=BTC/USDT", Outcome: "profitable cycle"}))
	require.NoError(t, s.Record(ctx, Case{QueryText: "pool_value=9000 symbols=ETH/USDT", Outcome: "fallback used"}))
	require.NoError(t, s.Record(ctx, Case{QueryText: "pool_value=51000 symbols=BTC/USDT", Outcome: "another profitable cycle"}))

	nearest, err := s.QueryNearest(ctx, "pool_value=50500 symbols=BTC/USDT", 2)
	require.NoError(t, err)
	require.Len(t, nearest, 2)

	outcomes := []string{nearest[0].Outcome, nearest[1].Outcome}
	assert.Contains(t, outcomes, "profitable cycle")
	assert.Contains(t, outcomes, "another profitable cycle")
}

func TestMemoryStore_QueryNearest_EmptyStore(t *testing.T) {
	s := NewMemoryStore()
	nearest, err := s.QueryNearest(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, nearest)
}

func TestMemoryStore_QueryNearest_KLargerThanStoreSize(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Record(context.Background(), Case{QueryText: "a", Outcome: "x"}))

	nearest, err := s.QueryNearest(context.Background(), "a", 10)
	require.NoError(t, err)
	assert.Len(t, nearest, 1)
}

func TestOracleAdapter_FlattensToOutcomeStrings(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Record(context.Background(), Case{QueryText: "pool_value=50000", Outcome: "result A"}))

	adapter := OracleAdapter{Store: s}
	summaries, err := adapter.NearestSummaries(context.Background(), "pool_value=50000", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"result A"}, summaries)
}

func TestEmbed_DeterministicForSameText(t *testing.T) {
	a := embed("pool_value=50000 symbols=BTC/USDT,ETH/USDT")
	b := embed("pool_value=50000 symbols=BTC/USDT,ETH/USDT")
	assert.Equal(t, a, b)
}

func TestCosineDistance_IdenticalVectorsAreZero(t *testing.T) {
	v := embed("same text")
	assert.InDelta(t, 0, cosineDistance(v, v), 1e-9)
}
