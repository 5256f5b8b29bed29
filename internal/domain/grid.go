package domain

import (
	"fmt"
	"math"
)

// GridCombination es un punto del retículo de umbrales bajo evaluación.
// Su identidad es el propio par: no hay id separado.
type GridCombination struct {
	Entry float64
	Exit  float64
}

// String devuelve la etiqueta de la combinación para logs y tablas.
func (g GridCombination) String() string {
	return fmt.Sprintf("entry=%.3f exit=%.3f", g.Entry, g.Exit)
}

// GridConfig define los rangos y pasos del retículo (entry, exit).
type GridConfig struct {
	EntryMin  float64 `yaml:"entry_min"`
	EntryMax  float64 `yaml:"entry_max"`
	EntryStep float64 `yaml:"entry_step"`
	ExitMin   float64 `yaml:"exit_min"`
	ExitMax   float64 `yaml:"exit_max"`
	ExitStep  float64 `yaml:"exit_step"`
}

// Validate comprueba que el retículo sea enumerable.
func (g GridConfig) Validate() error {
	if g.EntryStep <= 0 || g.ExitStep <= 0 {
		return fmt.Errorf("domain.GridConfig: steps must be > 0")
	}
	if g.EntryMax < g.EntryMin || g.ExitMax < g.ExitMin {
		return fmt.Errorf("domain.GridConfig: max must be >= min")
	}
	return nil
}

// SplitKind identifica una de las tres particiones de eventos.
type SplitKind int

const (
	SplitTrain SplitKind = iota
	SplitValidation
	SplitTest
)

// Splits enumera las particiones en orden canónico.
var Splits = [3]SplitKind{SplitTrain, SplitValidation, SplitTest}

// String devuelve el nombre de la partición.
func (k SplitKind) String() string {
	switch k {
	case SplitTrain:
		return "train"
	case SplitValidation:
		return "validation"
	case SplitTest:
		return "test"
	}
	return "?"
}

// SplitRatios son las fracciones train/validation/test. Deben sumar 1.0.
type SplitRatios struct {
	Train      float64 `yaml:"train"`
	Validation float64 `yaml:"validation"`
	Test       float64 `yaml:"test"`
}

// Validate comprueba que las fracciones sean no negativas y sumen 1.0
// (con tolerancia de redondeo flotante).
func (r SplitRatios) Validate() error {
	if r.Train < 0 || r.Validation < 0 || r.Test < 0 {
		return fmt.Errorf("domain.SplitRatios: ratios must be >= 0")
	}
	if sum := r.Train + r.Validation + r.Test; math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("domain.SplitRatios: ratios must sum to 1.0, got %g", sum)
	}
	return nil
}

// SplitAssignment asigna cada evento a exactamente una partición.
// Inmutable durante toda la ejecución del optimizador.
type SplitAssignment map[string]SplitKind

// Events devuelve los ids asignados a la partición dada, en el orden de ids.
func (a SplitAssignment) Events(ids []string, kind SplitKind) []string {
	var out []string
	for _, id := range ids {
		if a[id] == kind {
			out = append(out, id)
		}
	}
	return out
}

// GridSearchConfig parametriza una búsqueda completa.
type GridSearchConfig struct {
	Grid          GridConfig  `yaml:"grid"`
	Ratios        SplitRatios `yaml:"ratios"`
	Seed          int64       `yaml:"seed"`
	TopN          int         `yaml:"top_n"`
	MinTradeCount int         `yaml:"min_trade_count"`
	Workers       int         `yaml:"workers"`
}

// Validate comprueba la configuración completa antes de arrancar la búsqueda.
func (c GridSearchConfig) Validate() error {
	if err := c.Grid.Validate(); err != nil {
		return err
	}
	if err := c.Ratios.Validate(); err != nil {
		return err
	}
	if c.TopN <= 0 {
		return fmt.Errorf("domain.GridSearchConfig: top_n must be > 0, got %d", c.TopN)
	}
	if c.MinTradeCount < 0 {
		return fmt.Errorf("domain.GridSearchConfig: min_trade_count must be >= 0, got %d", c.MinTradeCount)
	}
	return nil
}
