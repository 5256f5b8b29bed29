package align

// aligner.go — reconcilia las dos series crudas de un evento (pronóstico y
// cotizaciones de mercado de ambos lados) en una secuencia de snapshots
// alineados sobre la rejilla temporal del pronóstico.
//
// Las cotizaciones siempre se remuestrean sobre las muestras del pronóstico:
// nunca se emite un snapshot por cotización. La conversión de lado ocurre
// aquí, en la ingesta, marcada por qué lado casó la ventana — jamás se
// infiere después con heurísticas sobre bid+ask.

import (
	"log/slog"
	"sort"
	"time"

	"github.com/alejandrodnm/polygrid/internal/domain"
)

// DefaultTolerance es la ventana de casado temporal pronóstico↔cotización.
const DefaultTolerance = 60 * time.Second

// Config controla la alineación de un evento.
type Config struct {
	// Tolerance es la media ventana de casado (±). <= 0 usa DefaultTolerance.
	Tolerance time.Duration

	// ExcludeFirst/ExcludeLast recortan snapshots cerca del inicio
	// programado y del final del propio evento (no del mercado).
	ExcludeFirst time.Duration
	ExcludeLast  time.Duration
}

func (c Config) tolerance() time.Duration {
	if c.Tolerance <= 0 {
		return DefaultTolerance
	}
	return c.Tolerance
}

// Align produce la secuencia de snapshots alineados de un evento, en orden
// estrictamente creciente de timestamp, junto con el desglose de descartes.
// Los problemas de datos nunca son error: se cuenta y se sigue.
func Align(ev domain.EventData, cfg Config) ([]domain.AlignedSnapshot, domain.AlignDiagnostics) {
	diag := domain.AlignDiagnostics{EventID: ev.Meta.EventID}

	samples := make([]domain.ForecastSample, len(ev.Forecast))
	copy(samples, ev.Forecast)
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})

	sideA, sideB := splitBySide(ev.Quotes)

	start, end := eventWindow(ev.Meta, samples)
	tol := cfg.tolerance()

	snaps := make([]domain.AlignedSnapshot, 0, len(samples))
	for _, s := range samples {
		forecast := Normalize01(s.Probability)
		if forecast == nil {
			diag.RejectedNoForecast++
			continue
		}

		bid, ask, mid, quoteSide, ok := matchQuote(s.Timestamp, sideA, sideB, tol)
		if !ok {
			diag.RejectedNoMarket++
			continue
		}

		bid = Normalize01(bid)
		ask = Normalize01(ask)
		mid = Normalize01(mid)
		if mid == nil {
			diag.RejectedNoMarket++
			continue
		}
		if !in01(*forecast) || !in01(*mid) {
			diag.RejectedOutOfRange++
			continue
		}
		// Bid/ask fuera de rango se anulan individualmente: son
		// refinamientos opcionales, el snapshot sobrevive con el mid.
		if bid != nil && !in01(*bid) {
			bid = nil
		}
		if ask != nil && !in01(*ask) {
			ask = nil
		}

		if excluded(s.Timestamp, start, end, cfg) {
			diag.ExcludedByWindow++
			continue
		}
		// Timestamps duplicados del feed colapsan en la primera muestra.
		if n := len(snaps); n > 0 && !s.Timestamp.After(snaps[n-1].Timestamp) {
			diag.ExcludedByWindow++
			continue
		}

		snaps = append(snaps, domain.AlignedSnapshot{
			Timestamp: s.Timestamp,
			Forecast:  *forecast,
			MarketMid: *mid,
			Bid:       bid,
			Ask:       ask,
			QuoteSide: quoteSide,
		})
		diag.Accepted++
	}

	if diag.Accepted == 0 && (len(ev.Forecast) > 0 || len(ev.Quotes) > 0) {
		slog.Warn("align: event produced zero snapshots",
			"event_id", ev.Meta.EventID,
			"forecast_samples", len(ev.Forecast),
			"market_quotes", len(ev.Quotes),
			"rejected_no_forecast", diag.RejectedNoForecast,
			"rejected_no_market", diag.RejectedNoMarket,
			"rejected_out_of_range", diag.RejectedOutOfRange,
			"excluded_by_window", diag.ExcludedByWindow,
		)
	}

	return snaps, diag
}

// splitBySide separa las cotizaciones por lado, ordenadas por timestamp.
func splitBySide(quotes []domain.MarketQuote) (a, b []domain.MarketQuote) {
	for _, q := range quotes {
		switch q.Side {
		case domain.SideA:
			a = append(a, q)
		case domain.SideB:
			b = append(b, q)
		}
	}
	byTime := func(s []domain.MarketQuote) {
		sort.SliceStable(s, func(i, j int) bool {
			return s[i].Timestamp.Before(s[j].Timestamp)
		})
	}
	byTime(a)
	byTime(b)
	return a, b
}

// matchQuote busca la cotización más cercana dentro de ±tol. El lado A tiene
// prioridad; sin cotización A en ventana, una del lado B se convierte de
// orientación con el intercambio bid/ask. ok=false si ningún lado casó.
func matchQuote(ts time.Time, sideA, sideB []domain.MarketQuote, tol time.Duration) (bid, ask, mid *float64, side domain.Side, ok bool) {
	if q, found := nearest(sideA, ts, tol); found {
		return q.Bid, q.Ask, q.Mid(), domain.SideA, true
	}
	if q, found := nearest(sideB, ts, tol); found {
		bid, ask = OppositeSideQuote(q.Bid, q.Ask)
		return bid, ask, OppositeSide(q.Mid()), domain.SideB, true
	}
	return nil, nil, nil, domain.SideA, false
}

// nearest devuelve la cotización más cercana a ts dentro de ±tol.
func nearest(quotes []domain.MarketQuote, ts time.Time, tol time.Duration) (domain.MarketQuote, bool) {
	if len(quotes) == 0 {
		return domain.MarketQuote{}, false
	}
	i := sort.Search(len(quotes), func(i int) bool {
		return !quotes[i].Timestamp.Before(ts)
	})
	best := -1
	var bestDelta time.Duration
	for _, j := range []int{i - 1, i} {
		if j < 0 || j >= len(quotes) {
			continue
		}
		delta := absDuration(quotes[j].Timestamp.Sub(ts))
		if best == -1 || delta < bestDelta {
			best, bestDelta = j, delta
		}
	}
	if best == -1 || bestDelta > tol {
		return domain.MarketQuote{}, false
	}
	return quotes[best], true
}

// eventWindow determina inicio y fin de la línea temporal del evento:
// el inicio programado de los metadatos (o la primera muestra si falta)
// y la última muestra del pronóstico.
func eventWindow(meta domain.EventMeta, samples []domain.ForecastSample) (start, end time.Time) {
	if len(samples) > 0 {
		start = samples[0].Timestamp
		end = samples[len(samples)-1].Timestamp
	}
	if !meta.ScheduledStart.IsZero() {
		start = meta.ScheduledStart
	}
	return start, end
}

func excluded(ts, start, end time.Time, cfg Config) bool {
	if cfg.ExcludeFirst > 0 && !start.IsZero() && ts.Before(start.Add(cfg.ExcludeFirst)) {
		return true
	}
	if cfg.ExcludeLast > 0 && !end.IsZero() && ts.After(end.Add(-cfg.ExcludeLast)) {
		return true
	}
	return false
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func in01(x float64) bool {
	return x >= 0 && x <= 1 && x == x
}
