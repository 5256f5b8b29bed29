package domain

import (
	"math"
	"time"
)

// Trade es una operación cerrada de la simulación. EntryPrice/ExitPrice están
// en la orientación del lado apostado (para SideB ya son precios del lado B),
// de modo que el P&L es siempre (exit − entry) × bet − costes.
type Trade struct {
	ID          string
	EventID     string
	Side        Side
	EntryTime   time.Time
	EntryPrice  float64
	ExitTime    time.Time
	ExitPrice   float64
	RealizedPnL float64

	// Forced marca cierres forzosos en el último snapshot del evento.
	Forced bool
}

// SimulationResult agrega las métricas de una simulación (evento, config).
// Un evento sin trades produce un resultado válido y vacío, nunca un error.
type SimulationResult struct {
	Trades       []Trade
	NetProfit    float64
	NumTrades    int
	Wins         int
	WinRate      float64
	GrossProfit  float64
	GrossLoss    float64
	ProfitFactor float64
	MaxDrawdown  float64
	TotalFees    float64

	// SkippedSnapshots cuenta snapshots descartados por la guarda defensiva
	// del simulador (independiente del filtrado del alineador).
	SkippedSnapshots int
}

// Summarize calcula las métricas agregadas a partir de la lista de trades,
// ordenada por tiempo de cierre. totalFees incluye fee + slippage realizados.
func Summarize(eventTrades []Trade, totalFees float64, skipped int) SimulationResult {
	r := SimulationResult{
		Trades:           eventTrades,
		NumTrades:        len(eventTrades),
		TotalFees:        totalFees,
		SkippedSnapshots: skipped,
	}
	for _, t := range eventTrades {
		r.NetProfit += t.RealizedPnL
		if t.RealizedPnL > 0 {
			r.Wins++
			r.GrossProfit += t.RealizedPnL
		} else {
			r.GrossLoss += -t.RealizedPnL
		}
	}
	if r.NumTrades > 0 {
		r.WinRate = float64(r.Wins) / float64(r.NumTrades)
	}
	r.ProfitFactor = ProfitFactor(r.GrossProfit, r.GrossLoss)
	r.MaxDrawdown = MaxDrawdown(eventTrades)
	return r
}

// ProfitFactor devuelve grossProfit / grossLoss. Sin pérdidas el factor es
// +Inf si hubo ganancia y 0 si no hubo nada (evento vacío).
func ProfitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss == 0 {
		if grossProfit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return grossProfit / grossLoss
}

// MaxDrawdown devuelve la mayor caída pico-valle del P&L acumulado sobre la
// secuencia de trades en orden de cierre. Resultado >= 0.
func MaxDrawdown(trades []Trade) float64 {
	var cum, peak, maxDD float64
	for _, t := range trades {
		cum += t.RealizedPnL
		if cum > peak {
			peak = cum
		}
		if dd := peak - cum; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}
