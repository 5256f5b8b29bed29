package sim

// simulator.go — máquina de estados de la estrategia de divergencia sobre la
// secuencia alineada de un evento. Tres estados: FLAT, LONG_A, LONG_B; una
// transición por snapshot, en orden estricto de timestamp.
//
// Orientación de precios: un LONG_B se contabiliza en precios del lado B
// (1 − bid/ask/mid del lado A), así el P&L de cualquier trade es siempre
// (exit − entry) × bet − costes, sin casos por lado.

import (
	"log/slog"
	"math"
	"time"

	"github.com/alejandrodnm/polygrid/internal/domain"
	"github.com/google/uuid"
)

type state int

const (
	stateFlat state = iota
	stateLongA
	stateLongB
)

type position struct {
	side       domain.Side
	entryTime  time.Time
	entryPrice float64
}

// Run simula la estrategia sobre los snapshots de un evento y devuelve el
// resultado agregado. Cero snapshots o cero trades producen un resultado
// válido y vacío. Una posición abierta al final se cierra forzosamente en el
// último snapshot: ninguna posición sobrevive al evento.
func Run(eventID string, snaps []domain.AlignedSnapshot, cfg domain.StrategyConfig) domain.SimulationResult {
	var (
		st        = stateFlat
		pos       position
		trades    []domain.Trade
		totalFees float64
		skipped   int
		lastValid = -1
	)

	// Índice del último snapshot válido: marca dónde forzar el cierre y
	// dónde ya no tiene sentido abrir.
	for i := len(snaps) - 1; i >= 0; i-- {
		if snaps[i].Valid() {
			lastValid = i
			break
		}
	}

	for i, snap := range snaps {
		// Guarda defensiva, independiente del filtrado del alineador:
		// un valor imposible se registra y se salta, nunca entra al P&L.
		if !snap.Valid() {
			skipped++
			slog.Debug("sim: skipping invalid snapshot",
				"event_id", eventID,
				"timestamp", snap.Timestamp,
				"forecast", snap.Forecast,
				"market_mid", snap.MarketMid,
			)
			continue
		}

		div := snap.Divergence()

		switch st {
		case stateFlat:
			if i == lastValid {
				break // sin recorrido para salir: no se abre en el último snapshot
			}
			if div > cfg.EntryThreshold {
				st = stateLongA
				pos = position{
					side:       domain.SideA,
					entryTime:  snap.Timestamp,
					entryPrice: buyPriceA(snap, cfg),
				}
			} else if -div > cfg.EntryThreshold {
				st = stateLongB
				pos = position{
					side:       domain.SideB,
					entryTime:  snap.Timestamp,
					entryPrice: buyPriceB(snap, cfg),
				}
			}

		case stateLongA, stateLongB:
			exitHit := math.Abs(div) < cfg.ExitThreshold
			if exitHit || i == lastValid {
				t, cost := closePosition(eventID, pos, snap, cfg, !exitHit)
				trades = append(trades, t)
				totalFees += cost
				st = stateFlat
			}
		}
	}

	return domain.Summarize(trades, totalFees, skipped)
}

// closePosition cierra la posición al precio de salida del snapshot dado y
// materializa el trade con sus costes (fee fijo + slippage por nominal).
func closePosition(eventID string, pos position, snap domain.AlignedSnapshot, cfg domain.StrategyConfig, forced bool) (domain.Trade, float64) {
	var exitPrice float64
	switch pos.side {
	case domain.SideA:
		exitPrice = sellPriceA(snap, cfg)
	case domain.SideB:
		exitPrice = sellPriceB(snap, cfg)
	}

	cost := cfg.FeePerTrade + cfg.SlippageRate*cfg.BetAmount
	pnl := (exitPrice-pos.entryPrice)*cfg.BetAmount - cost

	return domain.Trade{
		ID:          uuid.New().String(),
		EventID:     eventID,
		Side:        pos.side,
		EntryTime:   pos.entryTime,
		EntryPrice:  pos.entryPrice,
		ExitTime:    snap.Timestamp,
		ExitPrice:   exitPrice,
		RealizedPnL: pnl,
		Forced:      forced,
	}, cost
}

// buyPriceA es el precio de compra del lado A: ask si la config ejecuta
// contra cotización y hay ask; si no, el mid (mismo fallback que al vender).
func buyPriceA(s domain.AlignedSnapshot, cfg domain.StrategyConfig) float64 {
	if cfg.UseMarketQuote && s.Ask != nil {
		return *s.Ask
	}
	return s.MarketMid
}

// sellPriceA es el precio de venta del lado A: el bid, o el mid como fallback.
func sellPriceA(s domain.AlignedSnapshot, cfg domain.StrategyConfig) float64 {
	if cfg.UseMarketQuote && s.Bid != nil {
		return *s.Bid
	}
	return s.MarketMid
}

// buyPriceB compra el lado B: su ask es 1 − bid del lado A.
func buyPriceB(s domain.AlignedSnapshot, cfg domain.StrategyConfig) float64 {
	if cfg.UseMarketQuote && s.Bid != nil {
		return 1 - *s.Bid
	}
	return 1 - s.MarketMid
}

// sellPriceB vende el lado B: su bid es 1 − ask del lado A.
func sellPriceB(s domain.AlignedSnapshot, cfg domain.StrategyConfig) float64 {
	if cfg.UseMarketQuote && s.Ask != nil {
		return 1 - *s.Ask
	}
	return 1 - s.MarketMid
}
