package search

import (
	"testing"

	"github.com/alejandrodnm/polygrid/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// patternGrid construye un retículo sintético de 3 entradas × 2 salidas,
// en el mismo orden estable que Generate.
func patternGrid() (domain.GridConfig, []domain.GridCombination) {
	cfg := domain.GridConfig{
		EntryMin: 0.10, EntryMax: 0.30, EntryStep: 0.10,
		ExitMin: 0.02, ExitMax: 0.04, ExitStep: 0.02,
	}
	combos, _ := Generate(cfg)
	return cfg, combos
}

func statsFor(combos []domain.GridCombination, split domain.SplitKind, profits map[domain.GridCombination]float64) []domain.CombinationStats {
	rows := make([]domain.CombinationStats, len(combos))
	for i, c := range combos {
		rows[i] = domain.CombinationStats{
			Combination: c,
			Split:       split,
			NetProfit:   profits[c],
			NumTrades:   10,
		}
	}
	return rows
}

func TestAnalyze_PlateauWhenRegionIsBroad(t *testing.T) {
	cfg, combos := patternGrid()
	require.Len(t, combos, 6)

	// Todo el retículo es rentable: región conexa = retículo completo.
	profits := map[domain.GridCombination]float64{}
	for _, c := range combos {
		profits[c] = 1.0 + c.Entry // más profit a mayor entry, monótono
	}
	train := statsFor(combos, domain.SplitTrain, profits)
	validation := statsFor(combos, domain.SplitValidation, profits)

	selected := combos[0]
	d := Analyze(combos, cfg, train, validation, selected, 6)

	assert.Equal(t, domain.PatternPlateau, d.Class)
	assert.Equal(t, 6, d.ProfitableRegion)
	assert.Equal(t, 6, d.GridSize)
	assert.Equal(t, 1.0, d.EntryMonotonicity)
	// Mismo ranking en train y validación: correlación perfecta.
	assert.InDelta(t, 1.0, d.RankCorrelation, 1e-12)
	assert.False(t, d.OverfitSuspect)
}

func TestAnalyze_SpikeWhenSingleCellProfits(t *testing.T) {
	cfg, combos := patternGrid()

	profits := map[domain.GridCombination]float64{}
	for _, c := range combos {
		profits[c] = -1.0
	}
	selected := combos[3] // una sola celda rentable, aislada
	profits[selected] = 5.0

	train := statsFor(combos, domain.SplitTrain, profits)
	validation := statsFor(combos, domain.SplitValidation, profits)

	d := Analyze(combos, cfg, train, validation, selected, 6)
	assert.Equal(t, domain.PatternSpike, d.Class)
	assert.Equal(t, 1, d.ProfitableRegion)
}

func TestAnalyze_NoneWhenSelectionUnprofitable(t *testing.T) {
	cfg, combos := patternGrid()
	profits := map[domain.GridCombination]float64{}
	for _, c := range combos {
		profits[c] = -1.0
	}
	train := statsFor(combos, domain.SplitTrain, profits)
	validation := statsFor(combos, domain.SplitValidation, profits)

	d := Analyze(combos, cfg, train, validation, combos[0], 6)
	assert.Equal(t, domain.PatternNone, d.Class)
	assert.Equal(t, 0, d.ProfitableRegion)
}

func TestAnalyze_InvertedValidationRankingFlagsOverfit(t *testing.T) {
	cfg, combos := patternGrid()

	trainProfits := map[domain.GridCombination]float64{}
	valProfits := map[domain.GridCombination]float64{}
	for i, c := range combos {
		trainProfits[c] = float64(i)
		valProfits[c] = float64(len(combos) - i) // ranking exactamente invertido
	}
	train := statsFor(combos, domain.SplitTrain, trainProfits)
	validation := statsFor(combos, domain.SplitValidation, valProfits)

	d := Analyze(combos, cfg, train, validation, combos[0], 6)
	assert.InDelta(t, -1.0, d.RankCorrelation, 1e-12)
	assert.True(t, d.OverfitSuspect)
}

func TestRanksDescending(t *testing.T) {
	ranks := ranksDescending([]float64{3.0, 1.0, 2.0})
	assert.Equal(t, []float64{0, 2, 1}, ranks)
}
