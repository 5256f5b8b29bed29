package sim

import (
	"testing"
	"time"

	"github.com/alejandrodnm/polygrid/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)

func snap(offset time.Duration, forecast, mid float64) domain.AlignedSnapshot {
	return domain.AlignedSnapshot{
		Timestamp: t0.Add(offset),
		Forecast:  forecast,
		MarketMid: mid,
	}
}

func baseConfig() domain.StrategyConfig {
	return domain.StrategyConfig{
		EntryThreshold: 0.15,
		ExitThreshold:  0.01,
		BetAmount:      10,
		FeePerTrade:    0.1,
	}
}

// Escenario de referencia: pronóstico constante 0.70, mercado subiendo de
// 0.50 a 0.70 en diez snapshots. Exactamente un trade: abre en el primer
// snapshot (divergencia 0.20 > 0.15) y cierra cuando la divergencia cae por
// debajo de 0.01 (mercado en 0.70).
func TestRun_SingleConvergenceTrade(t *testing.T) {
	mids := []float64{0.50, 0.52, 0.54, 0.56, 0.58, 0.60, 0.62, 0.65, 0.68, 0.70}
	snaps := make([]domain.AlignedSnapshot, len(mids))
	for i, m := range mids {
		snaps[i] = snap(time.Duration(i)*time.Minute, 0.70, m)
	}

	res := Run("ev-1", snaps, baseConfig())

	require.Equal(t, 1, res.NumTrades)
	trade := res.Trades[0]
	assert.Equal(t, domain.SideA, trade.Side)
	assert.Equal(t, t0, trade.EntryTime)
	assert.InDelta(t, 0.50, trade.EntryPrice, 1e-12)
	assert.Equal(t, t0.Add(9*time.Minute), trade.ExitTime)
	assert.InDelta(t, 0.70, trade.ExitPrice, 1e-12)
	assert.False(t, trade.Forced)

	// pnl = (0.70 - 0.50) × 10 - 0.1
	assert.InDelta(t, 1.9, trade.RealizedPnL, 1e-12)
	assert.InDelta(t, 1.9, res.NetProfit, 1e-12)
	assert.InDelta(t, 0.1, res.TotalFees, 1e-12)
	assert.Equal(t, 1.0, res.WinRate)
}

func TestRun_LongBWhenMarketOverpricesA(t *testing.T) {
	snaps := []domain.AlignedSnapshot{
		snap(0, 0.30, 0.55),             // mercado - pronóstico = 0.25 > entry
		snap(time.Minute, 0.30, 0.40),
		snap(2*time.Minute, 0.30, 0.305), // |div| = 0.005 < exit
	}

	res := Run("ev-1", snaps, baseConfig())

	require.Equal(t, 1, res.NumTrades)
	trade := res.Trades[0]
	assert.Equal(t, domain.SideB, trade.Side)
	// Precios en orientación B: entra a 1-0.55, sale a 1-0.305.
	assert.InDelta(t, 0.45, trade.EntryPrice, 1e-12)
	assert.InDelta(t, 0.695, trade.ExitPrice, 1e-12)
	assert.InDelta(t, (0.695-0.45)*10-0.1, trade.RealizedPnL, 1e-12)
}

func TestRun_ForcedCloseAtEventEnd(t *testing.T) {
	snaps := []domain.AlignedSnapshot{
		snap(0, 0.70, 0.50),
		snap(time.Minute, 0.70, 0.52), // divergencia nunca cae bajo exit
		snap(2*time.Minute, 0.70, 0.54),
	}

	res := Run("ev-1", snaps, baseConfig())

	require.Equal(t, 1, res.NumTrades)
	trade := res.Trades[0]
	assert.True(t, trade.Forced)
	assert.Equal(t, t0.Add(2*time.Minute), trade.ExitTime)
	assert.InDelta(t, 0.54, trade.ExitPrice, 1e-12)
}

func TestRun_ExecutesAgainstQuotesWhenConfigured(t *testing.T) {
	cfg := baseConfig()
	cfg.UseMarketQuote = true

	entry := snap(0, 0.70, 0.50)
	entry.Bid = domain.Float(0.49)
	entry.Ask = domain.Float(0.51)
	exit := snap(time.Minute, 0.70, 0.70)
	exit.Bid = domain.Float(0.69)
	exit.Ask = domain.Float(0.71)

	res := Run("ev-1", []domain.AlignedSnapshot{entry, exit}, cfg)

	require.Equal(t, 1, res.NumTrades)
	trade := res.Trades[0]
	assert.InDelta(t, 0.51, trade.EntryPrice, 1e-12) // compra al ask
	assert.InDelta(t, 0.69, trade.ExitPrice, 1e-12)  // vende al bid
}

func TestRun_SlippageCharged(t *testing.T) {
	cfg := baseConfig()
	cfg.SlippageRate = 0.01 // 1% del nominal por round trip

	snaps := []domain.AlignedSnapshot{
		snap(0, 0.70, 0.50),
		snap(time.Minute, 0.70, 0.70),
	}

	res := Run("ev-1", snaps, cfg)
	require.Equal(t, 1, res.NumTrades)
	// coste = fee 0.1 + slippage 0.01×10 = 0.2
	assert.InDelta(t, 0.2, res.TotalFees, 1e-12)
	assert.InDelta(t, (0.70-0.50)*10-0.2, res.NetProfit, 1e-12)
}

func TestRun_NoLookAheadAndSinglePosition(t *testing.T) {
	// Divergencia que entra y sale dos veces: dos trades, nunca solapados.
	mids := []float64{0.50, 0.695, 0.50, 0.695, 0.695}
	snaps := make([]domain.AlignedSnapshot, len(mids))
	for i, m := range mids {
		snaps[i] = snap(time.Duration(i)*time.Minute, 0.70, m)
	}

	res := Run("ev-1", snaps, baseConfig())

	require.Equal(t, 2, res.NumTrades)
	for _, trade := range res.Trades {
		assert.False(t, trade.ExitTime.Before(trade.EntryTime))
	}
	// El segundo trade abre después de cerrar el primero.
	assert.False(t, res.Trades[1].EntryTime.Before(res.Trades[0].ExitTime))
}

func TestRun_EmptyInput(t *testing.T) {
	res := Run("ev-1", nil, baseConfig())
	assert.Equal(t, 0, res.NumTrades)
	assert.Zero(t, res.NetProfit)
	assert.Empty(t, res.Trades)
}

func TestRun_DefensiveGuardSkipsInvalidSnapshots(t *testing.T) {
	snaps := []domain.AlignedSnapshot{
		snap(0, 0.70, 0.50),
		snap(time.Minute, 1.7, 0.52), // pronóstico imposible: se salta
		snap(2*time.Minute, 0.70, 0.70),
	}

	res := Run("ev-1", snaps, baseConfig())

	assert.Equal(t, 1, res.SkippedSnapshots)
	require.Equal(t, 1, res.NumTrades)
	assert.InDelta(t, 0.70, res.Trades[0].ExitPrice, 1e-12)
}

func TestRun_NoEntryOnFinalSnapshot(t *testing.T) {
	// La divergencia solo supera el umbral en el último snapshot: sin
	// recorrido para salir no se abre nada.
	snaps := []domain.AlignedSnapshot{
		snap(0, 0.70, 0.68),
		snap(time.Minute, 0.70, 0.50),
	}

	res := Run("ev-1", snaps, baseConfig())
	assert.Equal(t, 0, res.NumTrades)
}
