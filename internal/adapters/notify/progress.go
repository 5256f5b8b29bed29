package notify

import (
	"fmt"
	"io"
	"os"

	"github.com/alejandrodnm/polygrid/internal/ports"
)

// ConsoleProgress implementa ports.ProgressReporter imprimiendo el avance en
// saltos de 10%. Lo llama el punto de acumulación del optimizador (un solo
// goroutine), así que no necesita sincronización propia.
type ConsoleProgress struct {
	out     io.Writer
	lastPct int
}

// NewConsoleProgress crea un reporter que escribe a stderr para no mezclarse
// con las tablas de resultados.
func NewConsoleProgress() *ConsoleProgress {
	return &ConsoleProgress{out: os.Stderr, lastPct: -1}
}

// NewConsoleProgressWriter crea un reporter para tests.
func NewConsoleProgressWriter(w io.Writer) *ConsoleProgress {
	return &ConsoleProgress{out: w, lastPct: -1}
}

// Report implementa ports.ProgressReporter.
func (p *ConsoleProgress) Report(pr ports.Progress) {
	if pr.Total <= 0 {
		return
	}
	pct := pr.Done * 100 / pr.Total
	pct -= pct % 10
	if pct == p.lastPct {
		return
	}
	p.lastPct = pct
	fmt.Fprintf(p.out, "progress: %d%% (%d/%d units)\n", pct, pr.Done, pr.Total)
}
