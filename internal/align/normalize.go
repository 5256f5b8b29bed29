package align

// normalize.go — canonicalización de escalares a probabilidad [0,1] en
// orientación lado A. Funciones puras sobre punteros: nil significa "sin dato"
// y atraviesa todo sin convertirse en cero.

import (
	"log/slog"
	"sync"
)

// rescaleOnce limita el diagnóstico de reescalado a una línea por proceso.
// El feed upstream promete escala 0–1; si llega 0–100 normalizamos igual,
// pero avisamos porque suele indicar una violación de contrato upstream.
var rescaleOnce sync.Once

// Normalize01 reescala un valor a [0,1]: si |x| > 1 lo divide entre 100
// (feed en escala 0–100). No valida rango — rechazar valores imposibles es
// responsabilidad del alineador, no de esta función.
func Normalize01(x *float64) *float64 {
	if x == nil {
		return nil
	}
	v := *x
	if v > 1 || v < -1 {
		rescaleOnce.Do(func() {
			slog.Warn("normalize: got value outside [-1,1], assuming 0-100 scale",
				"value", v,
			)
		})
		v = v / 100
	}
	return &v
}

// OppositeSide convierte una probabilidad del lado contrario a orientación
// primaria: 1 − p. nil pasa sin tocar.
func OppositeSide(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := 1 - *p
	return &v
}

// OppositeSideQuote convierte una cotización bid/ask del lado contrario.
// Las puntas intercambian roles: bid' = 1 − ask, ask' = 1 − bid.
// Comprar B a su ask equivale a vender A a (1 − ask), que es un bid de A.
func OppositeSideQuote(bid, ask *float64) (*float64, *float64) {
	return OppositeSide(ask), OppositeSide(bid)
}
