package evm

import (
	"errors"
	"time"

	"github.com/papapumpkin/ephemeris/internal/schedule"
)

// ErrNoBaseline is returned when earned-value analysis is requested
// without a baseline snapshot to measure against.
var ErrNoBaseline = errors.New("no baseline snapshot")

// Metrics is a full earned-value report at a status date.
//
// AC is an approximation: with no ground-truth spend field, actual cost
// is taken as the current computed cost scaled by progress. SPI and CPI
// report the neutral sentinel 1.0 when their denominator (PV, AC) is
// zero; they never divide by zero.
type Metrics struct {
	StatusDate time.Time `json:"status_date"`
	BaselineID string    `json:"baseline_id"`

	BAC float64 `json:"bac"` // budget at completion (baseline total)
	PV  float64 `json:"pv"`  // planned value at the status date
	EV  float64 `json:"ev"`  // earned value
	AC  float64 `json:"ac"`  // actual cost (approximated)

	SV   float64 `json:"sv"`   // schedule variance: EV - PV
	CV   float64 `json:"cv"`   // cost variance: EV - AC
	SPI  float64 `json:"spi"`  // schedule performance index: EV / PV
	CPI  float64 `json:"cpi"`  // cost performance index: EV / AC
	EAC  float64 `json:"eac"`  // estimate at completion
	ETC  float64 `json:"etc"`  // estimate to complete: EAC - AC
	TCPI float64 `json:"tcpi"` // to-complete performance index
	VAC  float64 `json:"vac"`  // variance at completion: BAC - EAC
}

// ComputeEVM measures the current task set against a baseline at the
// given status date. Only leaves and milestones contribute to the sums
// (summaries would double-count their subtrees). Tasks added after the
// baseline was taken carry no planned or earned value; their actual
// cost still counts.
func ComputeEVM(tasks []schedule.Task, resources []schedule.Resource, baseline *schedule.Baseline, statusDate time.Time) (*Metrics, error) {
	if baseline == nil {
		return nil, ErrNoBaseline
	}

	costed, err := RollupCosts(tasks, resources)
	if err != nil {
		return nil, err
	}

	m := &Metrics{StatusDate: statusDate, BaselineID: baseline.ID}

	for i := range costed {
		t := &costed[i]
		if t.IsSummary() {
			continue
		}
		progress := t.Progress / 100

		m.AC += t.Cost * progress

		base, ok := baseline.Tasks[t.ID]
		if !ok {
			continue
		}
		m.PV += base.Cost * plannedFraction(base, statusDate)
		m.EV += base.Cost * progress
	}

	m.BAC = baseline.TotalCost
	if m.BAC == 0 {
		for _, base := range baseline.Tasks {
			m.BAC += base.Cost
		}
	}

	m.SV = m.EV - m.PV
	m.CV = m.EV - m.AC

	m.SPI = 1
	if m.PV > 0 {
		m.SPI = m.EV / m.PV
	}
	m.CPI = 1
	if m.AC > 0 {
		m.CPI = m.EV / m.AC
	}

	if m.CPI > 0 {
		m.EAC = m.BAC / m.CPI
	} else {
		m.EAC = m.AC + (m.BAC - m.EV)
	}
	m.ETC = m.EAC - m.AC
	m.VAC = m.BAC - m.EAC

	m.TCPI = 1
	if remaining := m.BAC - m.AC; remaining > 0 {
		m.TCPI = (m.BAC - m.EV) / remaining
	}

	return m, nil
}

// plannedFraction is how much of a task's baseline span has elapsed at
// the status date: 0 before the span, 1 after it, linear in between.
// A zero-duration milestone is worth its full value the moment its
// baseline instant passes.
func plannedFraction(base schedule.BaselineTask, statusDate time.Time) float64 {
	if !base.End.After(base.Start) {
		if statusDate.Before(base.Start) {
			return 0
		}
		return 1
	}
	if statusDate.Before(base.Start) {
		return 0
	}
	if !statusDate.Before(base.End) {
		return 1
	}
	elapsed := statusDate.Sub(base.Start).Seconds()
	span := base.End.Sub(base.Start).Seconds()
	return elapsed / span
}

// TakeBaseline captures an immutable snapshot of the costed task set.
// Start/End snapshots prefer the engine's computed early dates and fall
// back to the stored dates for tasks that have not been scheduled.
func TakeBaseline(id, name string, tasks []schedule.Task, resources []schedule.Resource, takenAt time.Time) (*schedule.Baseline, error) {
	costed, err := RollupCosts(tasks, resources)
	if err != nil {
		return nil, err
	}

	b := &schedule.Baseline{
		ID:      id,
		Name:    name,
		TakenAt: takenAt,
		Tasks:   make(map[string]schedule.BaselineTask, len(costed)),
	}
	for i := range costed {
		t := &costed[i]
		start, end := t.EarlyStart, t.EarlyFinish
		if start.IsZero() {
			start, end = t.Start, t.End
		}
		b.Tasks[t.ID] = schedule.BaselineTask{
			TaskID:        t.ID,
			Start:         start,
			End:           end,
			DurationHours: t.DurationHours,
			Cost:          t.Cost,
			Progress:      t.Progress,
		}
		if t.IsSummary() {
			continue
		}
		b.TotalCost += t.Cost
		if b.ProjectStart.IsZero() || (!start.IsZero() && start.Before(b.ProjectStart)) {
			b.ProjectStart = start
		}
		if end.After(b.ProjectEnd) {
			b.ProjectEnd = end
		}
	}
	return b, nil
}
