package search

// grid.go — enumeración del retículo (entry, exit) con la restricción
// exit < entry. El orden es estable entre llamadas con la misma config:
// entry ascendente, exit ascendente dentro de cada entry.

import "github.com/alejandrodnm/polygrid/internal/domain"

// stepEpsilon evita que el error flotante acumulado descarte el punto
// exacto del borde superior del rango.
const stepEpsilon = 1e-9

// Generate enumera las combinaciones válidas del retículo. Toda combinación
// emitida cumple exit < entry; pares inválidos no se generan nunca.
func Generate(cfg domain.GridConfig) ([]domain.GridCombination, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var combos []domain.GridCombination
	for entry := cfg.EntryMin; entry <= cfg.EntryMax+stepEpsilon; entry += cfg.EntryStep {
		for exit := cfg.ExitMin; exit <= cfg.ExitMax+stepEpsilon; exit += cfg.ExitStep {
			if exit >= entry {
				break // exit asciende: el resto de la fila tampoco vale
			}
			combos = append(combos, domain.GridCombination{Entry: entry, Exit: exit})
		}
	}
	return combos, nil
}
