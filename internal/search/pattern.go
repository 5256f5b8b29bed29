package search

// pattern.go — diagnóstico de la superficie de respuesta en validación:
// ¿la zona rentable es una meseta ancha (robusta) o un pico aislado
// (sobreajuste casi seguro)? ¿el profit se mueve de forma coherente a lo
// largo de cada eje? ¿el ranking por train se sostiene en validación?

import (
	"math"
	"sort"

	"github.com/alejandrodnm/polygrid/internal/domain"
)

const (
	// plateauMinCells es el tamaño mínimo absoluto de región conexa para
	// clasificar meseta; con retículos grandes manda el 5% del total.
	plateauMinCells = 4

	// overfitCorrelation es el umbral de Spearman por debajo del cual el
	// ranking train/validation se considera inestable.
	overfitCorrelation = 0.3
)

// Analyze caracteriza el retículo de resultados de validación alrededor de
// la combinación seleccionada.
func Analyze(
	combos []domain.GridCombination,
	grid domain.GridConfig,
	train, validation []domain.CombinationStats,
	selected domain.GridCombination,
	topN int,
) domain.PatternDiagnostics {
	d := domain.PatternDiagnostics{GridSize: len(combos)}

	profit := make(map[domain.GridCombination]float64, len(validation))
	for _, row := range validation {
		profit[row.Combination] = row.NetProfit
	}

	d.EntryMonotonicity = axisMonotonicity(combos, profit, func(c domain.GridCombination) (fixed, moving float64) {
		return c.Exit, c.Entry
	})
	d.ExitMonotonicity = axisMonotonicity(combos, profit, func(c domain.GridCombination) (fixed, moving float64) {
		return c.Entry, c.Exit
	})

	d.ProfitableRegion = profitableRegion(selected, profit, grid)
	d.Class = classify(d.ProfitableRegion, len(combos))

	d.RankCorrelation = topRankCorrelation(train, validation, topN)
	d.OverfitSuspect = d.RankCorrelation < overfitCorrelation

	return d
}

// axisMonotonicity mide, fila a fila (el otro eje fijo), qué fracción de los
// pasos adyacentes sigue la dirección dominante de su fila. 1.0 = el profit
// es monótono a lo largo del eje en todas las filas.
func axisMonotonicity(
	combos []domain.GridCombination,
	profit map[domain.GridCombination]float64,
	axes func(domain.GridCombination) (fixed, moving float64),
) float64 {
	lines := make(map[float64][]domain.GridCombination)
	for _, c := range combos {
		fixed, _ := axes(c)
		lines[fixed] = append(lines[fixed], c)
	}

	var agreeing, steps int
	for _, line := range lines {
		sort.Slice(line, func(i, j int) bool {
			_, mi := axes(line[i])
			_, mj := axes(line[j])
			return mi < mj
		})
		var up, down int
		for i := 1; i < len(line); i++ {
			delta := profit[line[i]] - profit[line[i-1]]
			switch {
			case delta > 0:
				up++
			case delta < 0:
				down++
			default:
				up++ // un paso plano no rompe la monotonía
				down++
			}
		}
		n := len(line) - 1
		if n <= 0 {
			continue
		}
		steps += n
		if up > down {
			agreeing += up
		} else {
			agreeing += down
		}
	}
	if steps == 0 {
		return 1
	}
	return float64(agreeing) / float64(steps)
}

// profitableRegion mide por BFS la región conexa de celdas con profit > 0
// alrededor de la selección. Vecindad: un paso de retículo en un solo eje.
func profitableRegion(
	selected domain.GridCombination,
	profit map[domain.GridCombination]float64,
	grid domain.GridConfig,
) int {
	key := func(c domain.GridCombination) [2]int64 {
		return [2]int64{
			int64(math.Round(c.Entry / grid.EntryStep)),
			int64(math.Round(c.Exit / grid.ExitStep)),
		}
	}

	byKey := make(map[[2]int64]domain.GridCombination, len(profit))
	for c := range profit {
		byKey[key(c)] = c
	}

	start, ok := byKey[key(selected)]
	if !ok || profit[start] <= 0 {
		return 0
	}

	visited := map[[2]int64]bool{key(start): true}
	queue := [][2]int64{key(start)}
	size := 0
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		size++
		for _, nk := range [][2]int64{
			{k[0] - 1, k[1]}, {k[0] + 1, k[1]},
			{k[0], k[1] - 1}, {k[0], k[1] + 1},
		} {
			if visited[nk] {
				continue
			}
			c, exists := byKey[nk]
			if !exists || profit[c] <= 0 {
				continue
			}
			visited[nk] = true
			queue = append(queue, nk)
		}
	}
	return size
}

// classify traduce el tamaño de región a una clase de patrón.
func classify(region, gridSize int) domain.PatternClass {
	if region == 0 {
		return domain.PatternNone
	}
	threshold := plateauMinCells
	if pct := gridSize / 20; pct > threshold {
		threshold = pct
	}
	if region >= threshold {
		return domain.PatternPlateau
	}
	return domain.PatternSpike
}

// topRankCorrelation calcula la correlación de Spearman entre el ranking por
// train y por validación de las top-N combinaciones por train.
func topRankCorrelation(train, validation []domain.CombinationStats, topN int) float64 {
	ranked := rankByProfit(train)
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	n := len(ranked)
	if n < 3 {
		return 1 // con menos de 3 puntos el ranking no puede discriminar
	}

	valProfit := make([]float64, n)
	for i, idx := range ranked {
		valProfit[i] = validation[idx].NetProfit
	}
	valRank := ranksDescending(valProfit)

	// El rango por train es la posición en `ranked` (0..n-1) por construcción.
	var sumD2 float64
	for i := 0; i < n; i++ {
		d := float64(i) - valRank[i]
		sumD2 += d * d
	}
	nf := float64(n)
	return 1 - 6*sumD2/(nf*(nf*nf-1))
}

// ranksDescending devuelve el rango (0 = mayor) de cada valor.
func ranksDescending(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] > values[idx[b]]
	})
	ranks := make([]float64, len(values))
	for pos, i := range idx {
		ranks[i] = float64(pos)
	}
	return ranks
}
