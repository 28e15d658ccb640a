package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/san-kum/pdesim/internal/diagnostics"
	"github.com/san-kum/pdesim/internal/experiment"
)

// RunSummary renders the summary panel for a finished run. runID may be
// empty for runs that were not stored.
func RunSummary(runID string, s experiment.Summary, records []diagnostics.Record) string {
	var b strings.Builder

	title := fmt.Sprintf("%s · %s", s.Equation, s.Integrator)
	if runID != "" {
		title += Subtle.Render("  " + runID)
	}
	b.WriteString(Title.Render(title))
	b.WriteString("\n\n")

	row := func(label, value string) {
		b.WriteString(Label.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	row("grid", Value.Render(s.Grid))
	row("steps", Value.Render(fmt.Sprintf("%d × dt=%g (t=%g)", s.Steps, s.Dt, s.Duration)))
	row("stable dt", stability(s))
	row("elapsed", Value.Render(s.Elapsed.String()))
	row("final range", Value.Render(fmt.Sprintf("[%s, %s]", num(s.FinalMin), num(s.FinalMax))))
	row("mass drift", Value.Render(num(s.MassDrift)))
	if !math.IsNaN(s.FinalL2) {
		row("final l2", Value.Render(num(s.FinalL2)))
	}
	if s.Finite {
		row("status", Good.Render("finite"))
	} else {
		row("status", Bad.Render("non-finite values in final state"))
	}

	if len(records) > 1 {
		b.WriteString("\n")
		for _, name := range []string{diagnostics.Max, diagnostics.Mass, diagnostics.L2Error} {
			_, values := diagnostics.Series(records, name)
			if allNaN(values) {
				continue
			}
			row(name, Sparkline(values, 40))
		}
	}

	return Panel.Render(strings.TrimRight(b.String(), "\n"))
}

func stability(s experiment.Summary) string {
	if s.StableDt == 0 || math.IsInf(s.StableDt, 0) {
		return Subtle.Render("n/a")
	}
	text := num(s.StableDt)
	if s.Dt > s.StableDt {
		return Bad.Render(text + " (dt exceeds it)")
	}
	return Good.Render(text)
}

// CompareTable lays out one row per integrator run.
func CompareTable(summaries []experiment.Summary) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#444466"))).
		Headers("integrator", "final max", "mass drift", "final l2", "stable dt", "time").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return Title.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	for _, s := range summaries {
		t.Row(
			s.Integrator,
			num(s.FinalMax),
			num(s.MassDrift),
			num(s.FinalL2),
			num(s.StableDt),
			fmt.Sprintf("%.2fms", float64(s.Elapsed.Microseconds())/1000),
		)
	}

	return t.Render()
}

func num(v float64) string {
	switch {
	case math.IsNaN(v):
		return "—"
	case math.IsInf(v, 0):
		return fmt.Sprintf("%v", v)
	}
	return fmt.Sprintf("%.6g", v)
}

func allNaN(values []float64) bool {
	for _, v := range values {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
