package notify

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/polygrid/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier sobre stdout.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout. Con table=false
// imprime un resumen compacto de una línea.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify imprime el resultado de la búsqueda en el modo configurado.
func (c *Console) Notify(_ context.Context, result *domain.GridSearchResult) error {
	if c.table {
		c.printFull(result)
	} else {
		c.printCompact(result)
	}
	return nil
}

// printCompact imprime lo esencial en 1-2 líneas.
func (c *Console) printCompact(r *domain.GridSearchResult) {
	now := time.Now().Format("15:04:05")
	sel := r.Selection

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d combos × %d events in %s | pick %s",
		now, r.Combinations, r.EventsTotal, r.Elapsed.Round(time.Millisecond),
		sel.Combination.String(),
	)
	fmt.Fprintf(&sb, " | val $%.2f test $%.2f trades:%d | %s corr %.2f",
		sel.Validation.NetProfit, sel.Test.NetProfit, sel.Test.NumTrades,
		r.Pattern.Class, r.Pattern.RankCorrelation,
	)
	if sel.Fallback {
		sb.WriteString(" | FALLBACK")
	}
	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime las tablas completas: top train, grid de validación
// recortado, selección final y diagnóstico de patrón.
func (c *Console) printFull(r *domain.GridSearchResult) {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "\n[%s] grid search %s — %d combinations, %d events, %s\n",
		now, r.RunID, r.Combinations, r.EventsTotal, r.Elapsed.Round(time.Millisecond))

	fmt.Fprintln(c.out, "\nTop combinations by train net profit:")
	c.printStatsTable(r.Train)

	c.printSelection(r.Selection)
	c.printPattern(r.Pattern)
	c.printDataQuality(r)
}

// printStatsTable imprime filas agregadas de combinaciones.
func (c *Console) printStatsTable(rows []domain.CombinationStats) {
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Entry", "Exit", "Net", "Trades", "Win%", "PF", "MaxDD", "Fees", "Empty")

	for i, row := range rows {
		table.Append(
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%.3f", row.Combination.Entry),
			fmt.Sprintf("%.3f", row.Combination.Exit),
			fmt.Sprintf("$%.2f", row.NetProfit),
			fmt.Sprintf("%d", row.NumTrades),
			fmt.Sprintf("%.1f%%", row.WinRate*100),
			pfLabel(row.ProfitFactor),
			fmt.Sprintf("$%.2f", row.MaxDrawdown),
			fmt.Sprintf("$%.2f", row.TotalFees),
			fmt.Sprintf("%d/%d", row.EmptyEvents, row.Events),
		)
	}
	table.Render()
}

// printSelection imprime la combinación final con sus tres particiones.
func (c *Console) printSelection(sel domain.SelectionReport) {
	fmt.Fprintf(c.out, "\nFinal selection: %s\n", sel.Combination.String())
	if sel.Fallback {
		fmt.Fprintln(c.out, "  ⚠ FALLBACK: no top-N combination reached min trades on validation;")
		fmt.Fprintln(c.out, "    picked best-by-train instead. Treat test metrics with suspicion.")
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Split", "Net", "Trades", "Win%", "PF", "MaxDD", "Fees")
	for _, row := range []domain.CombinationStats{sel.Train, sel.Validation, sel.Test} {
		table.Append(
			row.Split.String(),
			fmt.Sprintf("$%.2f", row.NetProfit),
			fmt.Sprintf("%d", row.NumTrades),
			fmt.Sprintf("%.1f%%", row.WinRate*100),
			pfLabel(row.ProfitFactor),
			fmt.Sprintf("$%.2f", row.MaxDrawdown),
			fmt.Sprintf("$%.2f", row.TotalFees),
		)
	}
	table.Render()
}

// printPattern imprime el diagnóstico de la superficie de respuesta.
func (c *Console) printPattern(p domain.PatternDiagnostics) {
	fmt.Fprintf(c.out, "\nPattern: %s — profitable region %d/%d cells\n",
		p.Class, p.ProfitableRegion, p.GridSize)
	fmt.Fprintf(c.out, "  monotonicity entry %.2f exit %.2f | train/val rank corr %.2f\n",
		p.EntryMonotonicity, p.ExitMonotonicity, p.RankCorrelation)
	if p.OverfitSuspect {
		fmt.Fprintln(c.out, "  ⚠ low rank correlation: train ranking does not hold on validation")
	}
}

// printDataQuality resume descartes de alineación y calibración del pronóstico.
func (c *Console) printDataQuality(r *domain.GridSearchResult) {
	var accepted, rejected, excluded, emptyEvents int
	for _, d := range r.Alignment {
		accepted += d.Accepted
		rejected += d.RejectedNoForecast + d.RejectedNoMarket + d.RejectedOutOfRange
		excluded += d.ExcludedByWindow
		if d.Accepted == 0 {
			emptyEvents++
		}
	}
	fmt.Fprintf(c.out, "\nAlignment: %d snapshots accepted, %d rejected, %d window-excluded, %d events empty\n",
		accepted, rejected, excluded, emptyEvents)
	if r.ForecastCalibration >= 0 {
		fmt.Fprintf(c.out, "Forecast calibration (mean |last forecast − outcome|): %.3f\n",
			r.ForecastCalibration)
	}
}

// PrintAlignment imprime la línea temporal alineada de un evento, para
// inspección de datos.
func (c *Console) PrintAlignment(snaps []domain.AlignedSnapshot, diag domain.AlignDiagnostics) {
	fmt.Fprintf(c.out, "\nEvent %s — %d aligned snapshots\n", diag.EventID, diag.Accepted)
	fmt.Fprintf(c.out, "  rejected: no_forecast=%d no_market=%d out_of_range=%d | excluded=%d\n",
		diag.RejectedNoForecast, diag.RejectedNoMarket, diag.RejectedOutOfRange,
		diag.ExcludedByWindow)

	if len(snaps) == 0 {
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Time", "Forecast", "Mid", "Bid", "Ask", "Div", "Src")
	for _, s := range snaps {
		table.Append(
			s.Timestamp.Format("15:04:05"),
			fmt.Sprintf("%.3f", s.Forecast),
			fmt.Sprintf("%.3f", s.MarketMid),
			optLabel(s.Bid),
			optLabel(s.Ask),
			fmt.Sprintf("%+.3f", s.Divergence()),
			s.QuoteSide.String(),
		)
	}
	table.Render()
}

func pfLabel(pf float64) string {
	if math.IsInf(pf, 1) {
		return "INF"
	}
	return fmt.Sprintf("%.2f", pf)
}

func optLabel(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.3f", *v)
}
