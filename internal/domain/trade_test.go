package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize_Empty(t *testing.T) {
	r := Summarize(nil, 0, 0)
	assert.Equal(t, 0, r.NumTrades)
	assert.Zero(t, r.NetProfit)
	assert.Zero(t, r.WinRate)
	assert.Zero(t, r.ProfitFactor)
	assert.Zero(t, r.MaxDrawdown)
}

func TestSummarize_PooledMetrics(t *testing.T) {
	trades := []Trade{
		{RealizedPnL: 2.0},
		{RealizedPnL: -1.0},
		{RealizedPnL: 3.0},
		{RealizedPnL: -0.5},
	}
	r := Summarize(trades, 0.4, 0)

	assert.Equal(t, 4, r.NumTrades)
	assert.Equal(t, 2, r.Wins)
	assert.InDelta(t, 0.5, r.WinRate, 1e-12)
	assert.InDelta(t, 3.5, r.NetProfit, 1e-12)
	assert.InDelta(t, 5.0, r.GrossProfit, 1e-12)
	assert.InDelta(t, 1.5, r.GrossLoss, 1e-12)
	assert.InDelta(t, 5.0/1.5, r.ProfitFactor, 1e-12)
	assert.InDelta(t, 0.4, r.TotalFees, 1e-12)
}

func TestProfitFactor_NoLosses(t *testing.T) {
	assert.True(t, math.IsInf(ProfitFactor(3.0, 0), 1))
	assert.Zero(t, ProfitFactor(0, 0))
}

func TestMaxDrawdown(t *testing.T) {
	// Curva: +2, +1, -3, +1 → acumulado 2, 3, 0, 1. Pico 3, valle 0.
	trades := []Trade{
		{RealizedPnL: 2},
		{RealizedPnL: 1},
		{RealizedPnL: -3},
		{RealizedPnL: 1},
	}
	assert.InDelta(t, 3.0, MaxDrawdown(trades), 1e-12)
	assert.Zero(t, MaxDrawdown(nil))
}

func TestMaxDrawdown_AllLosses(t *testing.T) {
	trades := []Trade{{RealizedPnL: -1}, {RealizedPnL: -2}}
	assert.InDelta(t, 3.0, MaxDrawdown(trades), 1e-12)
}
