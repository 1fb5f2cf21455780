// Package ui renders schedule, cost, and earned-value reports for the
// terminal. All output goes through a Renderer so commands stay free of
// formatting concerns.
package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/papapumpkin/ephemeris/internal/evm"
	"github.com/papapumpkin/ephemeris/internal/project"
	"github.com/papapumpkin/ephemeris/internal/schedule"
	"github.com/papapumpkin/ephemeris/internal/store"
)

// Semantic color palette.
var (
	colorPrimary = lipgloss.Color("#00BFFF") // Cyan — headers, accents
	colorAccent  = lipgloss.Color("#FFD700") // Gold — attention
	colorSuccess = lipgloss.Color("#00E676") // Green — healthy
	colorDanger  = lipgloss.Color("#FF5252") // Red — critical/errors
	colorMuted   = lipgloss.Color("#636363") // Gray — de-emphasized
)

var (
	styleHeader = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleCritical = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true)

	styleOK = lipgloss.NewStyle().
		Foreground(colorSuccess)

	styleWarn = lipgloss.NewStyle().
			Foreground(colorAccent)

	styleDim = lipgloss.NewStyle().
			Foreground(colorMuted)
)

const timeLayout = "2006-01-02 15:04"

// Renderer writes formatted reports to a single output stream.
type Renderer struct {
	w           io.Writer
	hoursPerDay float64
}

// New creates a Renderer. hoursPerDay converts working hours into the
// day figures shown in reports; values <= 0 fall back to 8.
func New(w io.Writer, hoursPerDay float64) *Renderer {
	if hoursPerDay <= 0 {
		hoursPerDay = 8
	}
	return &Renderer{w: w, hoursPerDay: hoursPerDay}
}

// ScheduleTable prints the computed schedule, one row per task, with
// WBS codes when provided. Critical tasks are marked and highlighted.
func (r *Renderer) ScheduleTable(res *schedule.Result, wbs map[string]string) {
	fmt.Fprintf(r.w, "%s\n", styleHeader.Render("schedule"))
	fmt.Fprintf(r.w, "%s\n", styleDim.Render(fmt.Sprintf("  %s → %s",
		res.ProjectStart.Format(timeLayout), res.ProjectFinish.Format(timeLayout))))

	fmt.Fprintf(r.w, "  %-8s %-14s %-24s %-16s %-16s %10s  %s\n",
		"WBS", "ID", "NAME", "START", "FINISH", "SLACK(d)", "")
	for _, t := range res.Tasks {
		mark := ""
		line := fmt.Sprintf("  %-8s %-14s %-24s %-16s %-16s %10.1f  ",
			wbs[t.ID], t.ID, truncate(t.Name, 24),
			t.EarlyStart.Format(timeLayout), t.EarlyFinish.Format(timeLayout),
			t.SlackHours/r.hoursPerDay)
		if t.Critical {
			mark = styleCritical.Render("critical")
		} else if t.IsSummary() {
			mark = styleDim.Render("summary")
		}
		fmt.Fprintf(r.w, "%s%s\n", line, mark)
	}

	for _, w := range res.Warnings {
		fmt.Fprintf(r.w, "  %s %s\n", styleWarn.Render("warning:"), w)
	}
}

// CriticalPath prints the chain of zero-slack tasks in execution order.
func (r *Renderer) CriticalPath(res *schedule.Result) {
	fmt.Fprintf(r.w, "%s\n", styleHeader.Render("critical path"))
	if len(res.CriticalPath) == 0 {
		fmt.Fprintf(r.w, "  %s\n", styleDim.Render("(none)"))
		return
	}
	fmt.Fprintf(r.w, "  %s\n", styleCritical.Render(strings.Join(res.CriticalPath, " → ")))
}

// CostTable prints per-task rolled-up costs and the project total.
func (r *Renderer) CostTable(tasks []schedule.Task, total float64) {
	fmt.Fprintf(r.w, "%s\n", styleHeader.Render("costs"))
	fmt.Fprintf(r.w, "  %-14s %-24s %12s\n", "ID", "NAME", "COST")
	for _, t := range tasks {
		name := truncate(t.Name, 24)
		if t.IsSummary() {
			name = styleDim.Render(name)
		}
		fmt.Fprintf(r.w, "  %-14s %-24s %12.2f\n", t.ID, name, t.Cost)
	}
	fmt.Fprintf(r.w, "  %s %.2f\n", styleHeader.Render("total:"), total)
}

// EVMReport prints the earned-value metrics with health coloring: green
// when an index is at or above 1, red below.
func (r *Renderer) EVMReport(m *evm.Metrics) {
	fmt.Fprintf(r.w, "%s\n", styleHeader.Render("earned value"))
	fmt.Fprintf(r.w, "  %s\n", styleDim.Render(fmt.Sprintf("status date %s, baseline %s",
		m.StatusDate.Format(timeLayout), m.BaselineID)))

	fmt.Fprintf(r.w, "  BAC %12.2f   PV %12.2f   EV %12.2f   AC %12.2f\n", m.BAC, m.PV, m.EV, m.AC)
	fmt.Fprintf(r.w, "  SV  %12.2f   CV %12.2f   EAC %11.2f   ETC %11.2f\n", m.SV, m.CV, m.EAC, m.ETC)
	fmt.Fprintf(r.w, "  SPI %s   CPI %s   TCPI %11.2f   VAC %11.2f\n",
		r.index(m.SPI), r.index(m.CPI), m.TCPI, m.VAC)
}

func (r *Renderer) index(v float64) string {
	s := fmt.Sprintf("%12.2f", v)
	if v < 1 {
		return styleCritical.Render(s)
	}
	return styleOK.Render(s)
}

// LevelingReport summarizes a resource leveling run.
func (r *Renderer) LevelingReport(lr *schedule.LevelResult) {
	fmt.Fprintf(r.w, "%s\n", styleHeader.Render("leveling"))
	if lr.Moved == 0 {
		fmt.Fprintf(r.w, "  %s\n", styleOK.Render("no overlaps; nothing moved"))
		return
	}
	fmt.Fprintf(r.w, "  %s\n", styleWarn.Render(fmt.Sprintf("moved %d task(s), %.1f working hours of delay",
		lr.Moved, lr.TotalDelayHours)))
}

// ValidationReport prints findings as a lint report, or a success line
// when the project is clean.
func (r *Renderer) ValidationReport(findings []*project.ValidationError) {
	if len(findings) == 0 {
		fmt.Fprintf(r.w, "%s\n", styleOK.Render("✓ project is valid"))
		return
	}
	fmt.Fprintf(r.w, "%s\n", styleCritical.Render(fmt.Sprintf("✗ %d problem(s) found", len(findings))))
	for _, f := range findings {
		fmt.Fprintf(r.w, "  %s [%s] %s\n", styleCritical.Render("•"), f.Category, f.Error())
	}
}

// BaselineList prints saved baselines, newest first.
func (r *Renderer) BaselineList(list []store.Summary) {
	fmt.Fprintf(r.w, "%s\n", styleHeader.Render("baselines"))
	if len(list) == 0 {
		fmt.Fprintf(r.w, "  %s\n", styleDim.Render("(none saved)"))
		return
	}
	fmt.Fprintf(r.w, "  %-38s %-20s %-18s %8s %12s\n", "ID", "NAME", "TAKEN", "TASKS", "COST")
	for _, b := range list {
		fmt.Fprintf(r.w, "  %-38s %-20s %-18s %8d %12.2f\n",
			b.ID, truncate(b.Name, 20), b.TakenAt.Format(timeLayout), b.TaskCount, b.TotalCost)
	}
}

// BaselineDetail prints one snapshot's header and task rows.
func (r *Renderer) BaselineDetail(b *schedule.Baseline) {
	fmt.Fprintf(r.w, "%s\n", styleHeader.Render("baseline "+b.ID))
	fmt.Fprintf(r.w, "  %s\n", styleDim.Render(fmt.Sprintf("%q taken %s, total %.2f",
		b.Name, b.TakenAt.Format(timeLayout), b.TotalCost)))

	ids := make([]string, 0, len(b.Tasks))
	for id := range b.Tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	fmt.Fprintf(r.w, "  %-14s %-16s %-16s %10s %12s\n", "TASK", "START", "FINISH", "HOURS", "COST")
	for _, id := range ids {
		t := b.Tasks[id]
		fmt.Fprintf(r.w, "  %-14s %-16s %-16s %10.1f %12.2f\n",
			t.TaskID, t.Start.Format(timeLayout), t.End.Format(timeLayout), t.DurationHours, t.Cost)
	}
}

// WatchEvent prints a one-line notice for a detected project edit.
func (r *Renderer) WatchEvent(path string, at time.Time) {
	fmt.Fprintf(r.w, "%s %s changed, recomputing\n",
		styleDim.Render(at.Format("15:04:05")), path)
}

// Error prints a command failure.
func (r *Renderer) Error(err error) {
	fmt.Fprintf(r.w, "%s %v\n", styleCritical.Render("error:"), err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
