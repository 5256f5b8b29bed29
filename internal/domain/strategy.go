package domain

import (
	"fmt"
	"time"
)

// StrategyConfig parametriza una simulación de divergencia sobre un evento.
// Invariante: ExitThreshold < EntryThreshold. GridGenerator nunca produce
// pares que lo violen; configs manuales se validan antes de simular.
type StrategyConfig struct {
	EntryThreshold float64
	ExitThreshold  float64
	BetAmount      float64
	FeePerTrade    float64
	SlippageRate   float64

	// Exclusiones temporales sobre la línea de tiempo del propio evento.
	ExcludeFirstSeconds int
	ExcludeLastSeconds  int

	// UseMarketQuote ejecuta contra bid/ask cuando están presentes;
	// si no, contra el mid. Desactivado, siempre ejecuta contra el mid.
	UseMarketQuote bool
}

// Validate comprueba la configuración antes de cualquier simulación.
// Un error aquí es fatal: ninguna unidad de trabajo debe arrancar.
func (c StrategyConfig) Validate() error {
	if c.EntryThreshold <= 0 {
		return fmt.Errorf("domain.StrategyConfig: entry_threshold must be > 0, got %g", c.EntryThreshold)
	}
	if c.ExitThreshold < 0 {
		return fmt.Errorf("domain.StrategyConfig: exit_threshold must be >= 0, got %g", c.ExitThreshold)
	}
	if c.ExitThreshold >= c.EntryThreshold {
		return fmt.Errorf("domain.StrategyConfig: exit_threshold %g must be < entry_threshold %g",
			c.ExitThreshold, c.EntryThreshold)
	}
	if c.BetAmount <= 0 {
		return fmt.Errorf("domain.StrategyConfig: bet_amount must be > 0, got %g", c.BetAmount)
	}
	if c.FeePerTrade < 0 || c.SlippageRate < 0 {
		return fmt.Errorf("domain.StrategyConfig: fees must be >= 0")
	}
	if c.ExcludeFirstSeconds < 0 || c.ExcludeLastSeconds < 0 {
		return fmt.Errorf("domain.StrategyConfig: time exclusions must be >= 0")
	}
	return nil
}

// WithThresholds devuelve una copia con los umbrales de la combinación dada.
// El resto de parámetros (bet, fees, exclusiones) se conserva.
func (c StrategyConfig) WithThresholds(combo GridCombination) StrategyConfig {
	c.EntryThreshold = combo.Entry
	c.ExitThreshold = combo.Exit
	return c
}

// ExcludeFirst devuelve la exclusión inicial como duración.
func (c StrategyConfig) ExcludeFirst() time.Duration {
	return time.Duration(c.ExcludeFirstSeconds) * time.Second
}

// ExcludeLast devuelve la exclusión final como duración.
func (c StrategyConfig) ExcludeLast() time.Duration {
	return time.Duration(c.ExcludeLastSeconds) * time.Second
}
