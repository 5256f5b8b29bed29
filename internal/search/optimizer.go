package search

// optimizer.go — orquesta la búsqueda completa: particiona eventos, enumera
// el retículo, lanza las simulaciones al pool y selecciona la combinación
// final con el protocolo train→validation→test.
//
// La alineación se hace una sola vez por evento: es independiente de la
// combinación, y las unidades leen las secuencias alineadas como datos
// inmutables compartidos en solo lectura.

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/alejandrodnm/polygrid/internal/align"
	"github.com/alejandrodnm/polygrid/internal/domain"
	"github.com/alejandrodnm/polygrid/internal/ports"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// progressLogEvery acota la cadencia de las líneas de progreso en el log.
const progressLogEvery = 2 * time.Second

// Optimizer ejecuta búsquedas de parámetros sobre un dataset de eventos.
type Optimizer struct {
	cfg      domain.GridSearchConfig
	strategy domain.StrategyConfig
	alignCfg align.Config
	provider ports.EventProvider
	progress ports.ProgressReporter
	logLimit *rate.Limiter
}

// New crea un Optimizer. El reporter de progreso se inyecta; con nil se
// descarta el avance.
func New(
	cfg domain.GridSearchConfig,
	strategy domain.StrategyConfig,
	alignCfg align.Config,
	provider ports.EventProvider,
	progress ports.ProgressReporter,
) *Optimizer {
	if progress == nil {
		progress = ports.NopProgress{}
	}
	return &Optimizer{
		cfg:      cfg,
		strategy: strategy,
		alignCfg: alignCfg,
		provider: provider,
		progress: progress,
		logLimit: rate.NewLimiter(rate.Every(progressLogEvery), 1),
	}
}

// alignedEvent es la vista inmutable de un evento ya alineado.
type alignedEvent struct {
	meta  domain.EventMeta
	snaps []domain.AlignedSnapshot
}

// comboSplit es la clave de reducción: una fila agregada por cada par.
type comboSplit struct {
	comboIdx int
	split    domain.SplitKind
}

// Run ejecuta la búsqueda completa. Los errores de configuración abortan
// antes de simular nada; los problemas de datos por evento degradan a
// resultados vacíos con diagnóstico, nunca abortan.
func (o *Optimizer) Run(ctx context.Context) (*domain.GridSearchResult, error) {
	if err := o.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("search.Optimizer: %w", err)
	}
	if err := o.strategy.Validate(); err != nil {
		return nil, fmt.Errorf("search.Optimizer: %w", err)
	}

	started := time.Now()

	events, diags, calibration, err := o.loadAndAlign(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.meta.EventID)
	}

	assignment, err := Split(ids, o.cfg.Ratios, o.cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("search.Optimizer: %w", err)
	}

	combos, err := Generate(o.cfg.Grid)
	if err != nil {
		return nil, fmt.Errorf("search.Optimizer: %w", err)
	}
	if len(combos) == 0 {
		return nil, fmt.Errorf("search.Optimizer: grid config produces no combinations")
	}

	slog.Info("grid search starting",
		"events", len(events),
		"combinations", len(combos),
		"units", len(combos)*len(events),
		"seed", o.cfg.Seed,
		"workers", o.cfg.Workers,
	)

	units := make([]unit, 0, len(combos)*len(events))
	for comboIdx, combo := range combos {
		cfg := o.strategy.WithThresholds(combo)
		for _, ev := range events {
			units = append(units, unit{
				comboIdx: comboIdx,
				split:    assignment[ev.meta.EventID],
				eventID:  ev.meta.EventID,
				snaps:    ev.snaps,
				cfg:      cfg,
			})
		}
	}

	// Reducción: el consumidor de resultados es el único punto de
	// acumulación; done es atómico porque el reporter puede leerlo
	// concurrentemente con las actualizaciones.
	acc := make(map[comboSplit]*accumulator, len(combos)*3)
	var done atomic.Int64
	total := len(units)

	runUnits(ctx, units, o.cfg.Workers, func(r unitResult) {
		key := comboSplit{comboIdx: r.comboIdx, split: r.split}
		a := acc[key]
		if a == nil {
			a = &accumulator{}
			acc[key] = a
		}
		a.add(r.res)

		n := int(done.Add(1))
		o.progress.Report(ports.Progress{Done: n, Total: total})
		if o.logLimit.Allow() {
			slog.Info("grid search progress", "done", n, "total", total)
		}
	})

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("search.Optimizer: cancelled after %d/%d units: %w",
			done.Load(), total, err)
	}

	rows := buildRows(combos, acc)
	selection := o.selectFinal(combos, rows)
	pattern := Analyze(combos, o.cfg.Grid, rows[domain.SplitTrain], rows[domain.SplitValidation],
		selection.Combination, o.cfg.TopN)

	result := &domain.GridSearchResult{
		RunID:               uuid.New().String(),
		Combinations:        len(combos),
		EventsTotal:         len(events),
		Elapsed:             time.Since(started),
		Train:               topNRows(rows[domain.SplitTrain], o.cfg.TopN),
		Validation:          rows[domain.SplitValidation],
		Test:                rows[domain.SplitTest],
		Selection:           selection,
		Pattern:             pattern,
		Alignment:           diags,
		ForecastCalibration: calibration,
	}

	slog.Info("grid search complete",
		"run_id", result.RunID,
		"elapsed", result.Elapsed,
		"selected", selection.Combination.String(),
		"fallback", selection.Fallback,
		"test_net_profit", selection.Test.NetProfit,
	)
	return result, nil
}

// loadAndAlign carga y alinea todos los eventos del proveedor. Un evento
// que no alinea nada sigue en la búsqueda: contribuye cero, no ausencia.
func (o *Optimizer) loadAndAlign(ctx context.Context) ([]alignedEvent, []domain.AlignDiagnostics, float64, error) {
	metas, err := o.provider.ListEvents(ctx)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("search.Optimizer: list events: %w", err)
	}
	if len(metas) == 0 {
		return nil, nil, 0, fmt.Errorf("search.Optimizer: dataset has no events")
	}

	events := make([]alignedEvent, 0, len(metas))
	diags := make([]domain.AlignDiagnostics, 0, len(metas))

	var calibSum float64
	var calibN int

	for _, meta := range metas {
		data, err := o.provider.FetchEvent(ctx, meta.EventID)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("search.Optimizer: fetch event %q: %w", meta.EventID, err)
		}

		snaps, diag := align.Align(data, o.alignCfg)
		events = append(events, alignedEvent{meta: meta, snaps: snaps})
		diags = append(diags, diag)

		if p, resolved := meta.FinalOutcome.Probability(); resolved && len(snaps) > 0 {
			calibSum += math.Abs(snaps[len(snaps)-1].Forecast - p)
			calibN++
		}
	}

	calibration := -1.0
	if calibN > 0 {
		calibration = calibSum / float64(calibN)
	}
	return events, diags, calibration, nil
}

// buildRows materializa la fila agregada de cada (combinación, partición).
// Particiones sin eventos producen filas vacías explícitas.
func buildRows(
	combos []domain.GridCombination,
	acc map[comboSplit]*accumulator,
) map[domain.SplitKind][]domain.CombinationStats {
	rows := make(map[domain.SplitKind][]domain.CombinationStats, 3)
	for _, split := range domain.Splits {
		splitRows := make([]domain.CombinationStats, len(combos))
		for i, combo := range combos {
			a := acc[comboSplit{comboIdx: i, split: split}]
			if a == nil {
				a = &accumulator{}
			}
			splitRows[i] = a.stats(combo, split)
		}
		rows[split] = splitRows
	}
	return rows
}

// selectFinal aplica el protocolo de selección: top-N por net profit de
// train, mejor net profit de validación entre ellas sujeto a
// min_trade_count en validación, y si ninguna cumple, la mejor por train
// con el flag de fallback — jamás una sustitución silenciosa.
func (o *Optimizer) selectFinal(
	combos []domain.GridCombination,
	rows map[domain.SplitKind][]domain.CombinationStats,
) domain.SelectionReport {
	train := rows[domain.SplitTrain]
	validation := rows[domain.SplitValidation]
	test := rows[domain.SplitTest]

	ranked := rankByProfit(train)
	topN := ranked
	if len(topN) > o.cfg.TopN {
		topN = topN[:o.cfg.TopN]
	}

	best := -1
	for _, idx := range topN {
		if validation[idx].NumTrades < o.cfg.MinTradeCount {
			continue
		}
		if best == -1 || validation[idx].NetProfit > validation[best].NetProfit {
			best = idx
		}
	}

	fallback := false
	if best == -1 {
		best = ranked[0]
		fallback = true
		slog.Warn("selection fallback: no top-N combination reached min trades on validation",
			"top_n", o.cfg.TopN,
			"min_trade_count", o.cfg.MinTradeCount,
			"selected", combos[best].String(),
		)
	}

	return domain.SelectionReport{
		Combination: combos[best],
		Train:       train[best],
		Validation:  validation[best],
		Test:        test[best],
		Fallback:    fallback,
	}
}

// rankByProfit devuelve los índices de combinación ordenados por net profit
// descendente, con desempate por orden del retículo para que el ranking sea
// determinista.
func rankByProfit(rows []domain.CombinationStats) []int {
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return rows[idx[a]].NetProfit > rows[idx[b]].NetProfit
	})
	return idx
}

// topNRows devuelve las n mejores filas por net profit (acota el tamaño de
// salida de train, que solo se reporta recortado).
func topNRows(rows []domain.CombinationStats, n int) []domain.CombinationStats {
	ranked := rankByProfit(rows)
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	out := make([]domain.CombinationStats, 0, len(ranked))
	for _, i := range ranked {
		out = append(out, rows[i])
	}
	return out
}

// accumulator reduce los resultados por evento de una (combinación,
// partición). Sumas para magnitudes, pool para tasas, máximo para drawdown:
// los eventos son líneas temporales independientes y concatenar sus curvas
// de equity impondría un orden ficticio.
type accumulator struct {
	netProfit   float64
	grossProfit float64
	grossLoss   float64
	totalFees   float64
	maxDrawdown float64
	trades      int
	wins        int
	events      int
	emptyEvents int
}

func (a *accumulator) add(r domain.SimulationResult) {
	a.netProfit += r.NetProfit
	a.grossProfit += r.GrossProfit
	a.grossLoss += r.GrossLoss
	a.totalFees += r.TotalFees
	if r.MaxDrawdown > a.maxDrawdown {
		a.maxDrawdown = r.MaxDrawdown
	}
	a.trades += r.NumTrades
	a.wins += r.Wins
	a.events++
	if r.NumTrades == 0 {
		a.emptyEvents++
	}
}

func (a *accumulator) stats(combo domain.GridCombination, split domain.SplitKind) domain.CombinationStats {
	s := domain.CombinationStats{
		Combination: combo,
		Split:       split,
		NetProfit:   a.netProfit,
		NumTrades:   a.trades,
		Wins:        a.wins,
		GrossProfit: a.grossProfit,
		GrossLoss:   a.grossLoss,
		MaxDrawdown: a.maxDrawdown,
		TotalFees:   a.totalFees,
		Events:      a.events,
		EmptyEvents: a.emptyEvents,
	}
	if a.trades > 0 {
		s.WinRate = float64(a.wins) / float64(a.trades)
	}
	s.ProfitFactor = domain.ProfitFactor(a.grossProfit, a.grossLoss)
	return s
}
