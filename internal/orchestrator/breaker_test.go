package orchestrator

import (
	"testing"
	"time"

	"github.com/ajitpratap0/cryptofunk/internal/executor"
	"github.com/stretchr/testify/assert"
)

func TestCycleBreaker_TripsOnHighErrorRate(t *testing.T) {
	var b cycleBreaker
	for i := 0; i < 8; i++ {
		b.observe(CycleRecord{Status: "ok"})
	}
	for i := 0; i < 2; i++ {
		b.observe(CycleRecord{Status: "error"})
	}
	assert.True(t, b.tripped(time.Hour))
}

func TestCycleBreaker_StaysClosedBelowErrorThreshold(t *testing.T) {
	var b cycleBreaker
	for i := 0; i < 9; i++ {
		b.observe(CycleRecord{Status: "ok"})
	}
	b.observe(CycleRecord{Status: "error"})
	assert.False(t, b.tripped(time.Hour))
}

func TestCycleBreaker_TripsOnHighFallbackRatio(t *testing.T) {
	var b cycleBreaker
	b.observe(CycleRecord{Status: "ok", Fallback: true, Executions: []executor.ExecutionRecord{{Success: true}}})
	assert.True(t, b.tripped(time.Hour))
}

func TestCycleBreaker_TripsOnDrawdown(t *testing.T) {
	var b cycleBreaker
	b.ObserveDrawdown(100000, 80000)
	assert.True(t, b.tripped(time.Hour))
}

func TestCycleBreaker_NoDrawdownWhenNoInitialValue(t *testing.T) {
	var b cycleBreaker
	assert.False(t, b.tripped(time.Hour))
}

func TestCycleBreaker_ResetsAfterCooldown(t *testing.T) {
	var b cycleBreaker
	b.ObserveDrawdown(100000, 80000)
	assert.True(t, b.tripped(time.Hour))
	assert.False(t, b.tripped(0))
}
