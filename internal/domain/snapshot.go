package domain

import "time"

// AlignedSnapshot es una observación normalizada de un evento: pronóstico y
// mercado en la misma orientación (gana el lado A) y en escala [0,1].
// El alineador solo emite snapshots con Forecast y MarketMid válidos; Bid/Ask
// son refinamientos opcionales y pueden faltar. Inmutable una vez construido.
type AlignedSnapshot struct {
	Timestamp time.Time
	Forecast  float64
	MarketMid float64
	Bid       *float64
	Ask       *float64

	// QuoteSide indica qué lado aportó la cotización original antes de
	// la conversión de orientación. Solo informativo.
	QuoteSide Side
}

// Divergence devuelve pronóstico − mercado. Positivo: el mercado infravalora
// al lado A según el pronóstico.
func (s AlignedSnapshot) Divergence() float64 {
	return s.Forecast - s.MarketMid
}

// Valid reverifica los invariantes del snapshot. El simulador lo llama como
// segunda línea de defensa independiente del filtrado del alineador.
func (s AlignedSnapshot) Valid() bool {
	if !in01(s.Forecast) || !in01(s.MarketMid) {
		return false
	}
	if s.Bid != nil && !in01(*s.Bid) {
		return false
	}
	if s.Ask != nil && !in01(*s.Ask) {
		return false
	}
	return true
}

func in01(x float64) bool {
	return x >= 0 && x <= 1 && x == x // x != x descarta NaN
}
