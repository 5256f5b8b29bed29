package domain

import "time"

// CombinationStats es la fila agregada de una (combinación, partición):
// la reducción de todas las simulaciones por evento de esa partición.
// Sumas para profit/trades/fees; tasas re-derivadas del pool, no promediadas.
type CombinationStats struct {
	Combination GridCombination
	Split       SplitKind

	NetProfit    float64
	NumTrades    int
	Wins         int
	WinRate      float64
	GrossProfit  float64
	GrossLoss    float64
	ProfitFactor float64
	MaxDrawdown  float64
	TotalFees    float64

	// Events simulados y cuántos produjeron cero trades. Los vacíos
	// contribuyen cero al agregado, nunca se omiten.
	Events      int
	EmptyEvents int
}

// SelectionReport es la combinación final elegida por el protocolo
// train→validation→test, con sus métricas en las tres particiones.
type SelectionReport struct {
	Combination GridCombination
	Train       CombinationStats
	Validation  CombinationStats
	Test        CombinationStats

	// Fallback indica que ninguna combinación top-N alcanzó
	// min_trade_count en validación y se eligió la mejor por train.
	// Nunca se sustituye en silencio.
	Fallback bool
}

// PatternClass clasifica la forma de la región rentable en validación.
type PatternClass string

const (
	PatternPlateau PatternClass = "plateau"
	PatternSpike   PatternClass = "spike"
	PatternNone    PatternClass = "none"
)

// PatternDiagnostics caracteriza la superficie de respuesta en validación:
// robustez (meseta vs pico), monotonía por eje y estabilidad de ranking
// train/validation.
type PatternDiagnostics struct {
	// Monotonía de profit a lo largo de cada eje con el otro fijo, en
	// [0,1]: fracción de pasos adyacentes que siguen la dirección
	// dominante del eje. 1.0 = perfectamente monótono.
	EntryMonotonicity float64
	ExitMonotonicity  float64

	// Tamaño de la región rentable conexa alrededor de la selección,
	// en celdas del retículo, y su clasificación.
	ProfitableRegion int
	GridSize         int
	Class            PatternClass

	// Correlación de rangos (Spearman) entre ranking por train y por
	// validación sobre las top-N combinaciones. Baja => sobreajuste.
	RankCorrelation float64
	OverfitSuspect  bool
}

// AlignDiagnostics resume la calidad de la alineación de un evento.
type AlignDiagnostics struct {
	EventID            string
	Accepted           int
	RejectedNoForecast int
	RejectedNoMarket   int
	RejectedOutOfRange int
	ExcludedByWindow   int
}

// GridSearchResult es el resultado completo de una búsqueda: filas agregadas
// por partición (train limitado a top-N para acotar el tamaño de salida),
// la selección final y los diagnósticos de patrón y de alineación.
type GridSearchResult struct {
	RunID        string
	Combinations int
	EventsTotal  int
	Elapsed      time.Duration

	// Train contiene solo las top-N filas por net profit; Validation y
	// Test contienen el grid completo.
	Train      []CombinationStats
	Validation []CombinationStats
	Test       []CombinationStats

	Selection SelectionReport
	Pattern   PatternDiagnostics

	Alignment []AlignDiagnostics

	// ForecastCalibration es el error absoluto medio entre el último
	// pronóstico alineado y el resultado final, sobre eventos resueltos.
	// Negativo si ningún evento estaba resuelto.
	ForecastCalibration float64
}
