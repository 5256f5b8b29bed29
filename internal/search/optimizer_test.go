package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alejandrodnm/polygrid/internal/align"
	"github.com/alejandrodnm/polygrid/internal/domain"
	"github.com/alejandrodnm/polygrid/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)

type mockProvider struct {
	events map[string]domain.EventData
	order  []string
}

func (m *mockProvider) ListEvents(context.Context) ([]domain.EventMeta, error) {
	metas := make([]domain.EventMeta, 0, len(m.order))
	for _, id := range m.order {
		metas = append(metas, m.events[id].Meta)
	}
	return metas, nil
}

func (m *mockProvider) FetchEvent(_ context.Context, id string) (domain.EventData, error) {
	ev, ok := m.events[id]
	if !ok {
		return domain.EventData{}, fmt.Errorf("unknown event %q", id)
	}
	return ev, nil
}

// convergenceEvent construye un evento sintético donde el mercado converge
// hacia el pronóstico: rentable para cualquier entry razonable.
func convergenceEvent(id string) domain.EventData {
	mids := []float64{0.50, 0.52, 0.54, 0.56, 0.58, 0.60, 0.62, 0.65, 0.68, 0.70}
	ev := domain.EventData{
		Meta: domain.EventMeta{
			EventID:        id,
			ScheduledStart: testStart,
			FinalOutcome:   domain.OutcomeA,
		},
	}
	for i, mid := range mids {
		ts := testStart.Add(time.Duration(i) * time.Minute)
		ev.Forecast = append(ev.Forecast, domain.ForecastSample{
			Timestamp:   ts,
			Probability: domain.Float(0.70),
		})
		bid, ask := mid-0.01, mid+0.01
		ev.Quotes = append(ev.Quotes, domain.MarketQuote{
			Timestamp: ts,
			Side:      domain.SideA,
			Bid:       domain.Float(bid),
			Ask:       domain.Float(ask),
		})
	}
	return ev
}

func testProvider(n int) *mockProvider {
	p := &mockProvider{events: map[string]domain.EventData{}}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("ev-%03d", i)
		p.events[id] = convergenceEvent(id)
		p.order = append(p.order, id)
	}
	return p
}

func testSearchConfig() domain.GridSearchConfig {
	return domain.GridSearchConfig{
		Grid: domain.GridConfig{
			EntryMin: 0.10, EntryMax: 0.20, EntryStep: 0.10,
			ExitMin: 0.01, ExitMax: 0.05, ExitStep: 0.04,
		},
		Ratios:        domain.SplitRatios{Train: 0.6, Validation: 0.2, Test: 0.2},
		Seed:          42,
		TopN:          2,
		MinTradeCount: 1,
		Workers:       4,
	}
}

func testStrategy() domain.StrategyConfig {
	return domain.StrategyConfig{
		EntryThreshold: 0.15,
		ExitThreshold:  0.05,
		BetAmount:      10,
		FeePerTrade:    0.1,
	}
}

type progressRecorder struct {
	last ports.Progress
}

func (p *progressRecorder) Report(pr ports.Progress) { p.last = pr }

func TestOptimizer_Run(t *testing.T) {
	progress := &progressRecorder{}
	opt := New(testSearchConfig(), testStrategy(), align.Config{}, testProvider(10), progress)

	result, err := opt.Run(context.Background())
	require.NoError(t, err)

	// Retículo 2×2 completo: todos los pares cumplen exit < entry.
	assert.Equal(t, 4, result.Combinations)
	assert.Equal(t, 10, result.EventsTotal)
	assert.Len(t, result.Validation, 4)
	assert.Len(t, result.Test, 4)
	assert.LessOrEqual(t, len(result.Train), 2) // train se reporta recortado a top-N

	// Todos los eventos convergen: la selección gana en las tres particiones.
	assert.False(t, result.Selection.Fallback)
	assert.Greater(t, result.Selection.Train.NetProfit, 0.0)
	assert.Greater(t, result.Selection.Validation.NetProfit, 0.0)
	assert.Greater(t, result.Selection.Test.NetProfit, 0.0)
	assert.Equal(t, 6, result.Selection.Train.Events)
	assert.Equal(t, 2, result.Selection.Validation.Events)
	assert.Equal(t, 2, result.Selection.Test.Events)

	// 4 combinaciones × 10 eventos = 40 unidades reportadas.
	assert.Equal(t, ports.Progress{Done: 40, Total: 40}, progress.last)

	// Diagnóstico de alineación por evento, sin descartes en datos limpios.
	require.Len(t, result.Alignment, 10)
	for _, d := range result.Alignment {
		assert.Equal(t, 10, d.Accepted)
	}

	// Todos los pronósticos acaban en 0.70 y todos los eventos los gana A.
	assert.InDelta(t, 0.30, result.ForecastCalibration, 1e-9)
}

func TestOptimizer_Deterministic(t *testing.T) {
	run := func() *domain.GridSearchResult {
		opt := New(testSearchConfig(), testStrategy(), align.Config{}, testProvider(10), nil)
		result, err := opt.Run(context.Background())
		require.NoError(t, err)
		return result
	}

	a, b := run(), run()
	assert.Equal(t, a.Selection.Combination, b.Selection.Combination)
	assert.Equal(t, a.Validation, b.Validation)
	assert.Equal(t, a.Test, b.Test)
}

func TestOptimizer_EmptyEventContributesZeroNotAbsence(t *testing.T) {
	provider := testProvider(10)
	// Un evento sin cotizaciones: cero snapshots, resultado vacío válido.
	barren := provider.events["ev-004"]
	barren.Quotes = nil
	provider.events["ev-004"] = barren

	opt := New(testSearchConfig(), testStrategy(), align.Config{}, provider, nil)
	result, err := opt.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, result.EventsTotal)
	total := result.Selection.Train.Events + result.Selection.Validation.Events +
		result.Selection.Test.Events
	assert.Equal(t, 10, total, "empty event must stay in its split")
}

func TestOptimizer_SelectionFallback(t *testing.T) {
	cfg := testSearchConfig()
	cfg.MinTradeCount = 1000 // inalcanzable: fuerza el fallback

	opt := New(cfg, testStrategy(), align.Config{}, testProvider(10), nil)
	result, err := opt.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Selection.Fallback)
	// El fallback elige la mejor por train, nunca una sustitución muda.
	best := result.Train[0].Combination
	assert.Equal(t, best, result.Selection.Combination)
}

func TestOptimizer_ConfigurationErrorsAbortBeforeWork(t *testing.T) {
	badRatios := testSearchConfig()
	badRatios.Ratios.Test = 0.5
	_, err := New(badRatios, testStrategy(), align.Config{}, testProvider(3), nil).Run(context.Background())
	assert.Error(t, err)

	badStrategy := testStrategy()
	badStrategy.ExitThreshold = badStrategy.EntryThreshold
	_, err = New(testSearchConfig(), badStrategy, align.Config{}, testProvider(3), nil).Run(context.Background())
	assert.Error(t, err)
}

func TestOptimizer_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opt := New(testSearchConfig(), testStrategy(), align.Config{}, testProvider(10), nil)
	_, err := opt.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
