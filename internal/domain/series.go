package domain

import "time"

// ForecastSample es una muestra cruda del feed de pronóstico de un evento.
// Probability puede venir mal escalada (0–100) o ausente: no es de fiar
// hasta que el alineador la normaliza y valida.
type ForecastSample struct {
	Timestamp   time.Time
	Probability *float64
}

// MarketQuote es una cotización periódica de dos puntas para un lado del
// evento. Bid/Ask son probabilidades nominales en [0,1] de ese lado.
// Es también la forma adaptadora común: los trade prints se mapean con
// bid = ask = precio antes de llegar aquí.
type MarketQuote struct {
	Timestamp time.Time
	Side      Side
	Bid       *float64
	Ask       *float64
}

// Mid devuelve el punto medio de la cotización, o nil si falta alguna punta.
// Con una sola punta presente se usa esa punta como mid (mejor dato disponible).
func (q MarketQuote) Mid() *float64 {
	switch {
	case q.Bid != nil && q.Ask != nil:
		m := (*q.Bid + *q.Ask) / 2
		return &m
	case q.Bid != nil:
		v := *q.Bid
		return &v
	case q.Ask != nil:
		v := *q.Ask
		return &v
	}
	return nil
}

// QuoteFromTrade adapta un trade print {timestamp, side, price} a la forma
// común de cotización: bid = ask = price.
func QuoteFromTrade(ts time.Time, side Side, price *float64) MarketQuote {
	var bid, ask *float64
	if price != nil {
		b, a := *price, *price
		bid, ask = &b, &a
	}
	return MarketQuote{Timestamp: ts, Side: side, Bid: bid, Ask: ask}
}

// EventMeta son los metadatos del evento que entrega la capa de persistencia.
type EventMeta struct {
	EventID        string
	ScheduledStart time.Time
	FinalOutcome   Outcome
}

// EventData agrupa todo lo que el núcleo consume de un evento: metadatos,
// serie de pronóstico y serie de mercado (ambos lados mezclados).
type EventData struct {
	Meta     EventMeta
	Forecast []ForecastSample
	Quotes   []MarketQuote
}

// Float devuelve un puntero a x. Azúcar para construir muestras con campos
// opcionales en adaptadores y tests.
func Float(x float64) *float64 {
	return &x
}
