package search

// concurrent.go — worker pool para las unidades de simulación.
//
// Una unidad es (combinación, partición, evento): lee su secuencia inmutable
// de snapshots y su config, y escribe solo su propio resultado. Los workers
// no comparten estado mutable; la agregación ocurre en un único punto, el
// consumidor de resultCh.

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/alejandrodnm/polygrid/internal/domain"
	"github.com/alejandrodnm/polygrid/internal/sim"
)

// unit es una simulación independiente pendiente de ejecutar.
type unit struct {
	comboIdx int
	split    domain.SplitKind
	eventID  string
	snaps    []domain.AlignedSnapshot
	cfg      domain.StrategyConfig
}

// unitResult es el resultado de una unidad, listo para reducir.
type unitResult struct {
	comboIdx int
	split    domain.SplitKind
	res      domain.SimulationResult
}

// runUnits ejecuta todas las unidades en un pool de tamaño fijo y entrega
// cada resultado a onResult desde el único goroutine consumidor (el punto
// de acumulación). Cancelar el contexto deja de despachar unidades nuevas;
// las en vuelo terminan — no hay estado parcial que deshacer.
//
// Si workers <= 0 usa runtime.NumCPU() × 2 para saturar los cores.
func runUnits(ctx context.Context, units []unit, workers int, onResult func(unitResult)) {
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}

	workCh := make(chan unit)
	resultCh := make(chan unitResult, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range workCh {
				resultCh <- unitResult{
					comboIdx: u.comboIdx,
					split:    u.split,
					res:      sim.Run(u.eventID, u.snaps, u.cfg),
				}
			}
		}()
	}

	// Cerrar resultCh cuando todos los workers terminen.
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	go func() {
		defer close(workCh)
		for _, u := range units {
			select {
			case <-ctx.Done():
				slog.Warn("search: cancelled, draining in-flight units",
					"err", ctx.Err(),
				)
				return
			case workCh <- u:
			}
		}
	}()

	for r := range resultCh {
		onResult(r)
	}
}
