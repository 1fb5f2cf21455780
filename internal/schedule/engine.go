package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/papapumpkin/ephemeris/internal/calendar"
	"github.com/papapumpkin/ephemeris/internal/graph"
)

// ErrNoProjectStart indicates that neither an explicit project start nor
// any task start date was available to anchor the forward pass.
var ErrNoProjectStart = errors.New("no project start date available")

// slackEpsilon is the zero tolerance for criticality. Slack at or below
// this is critical; near-zero but larger is not.
const slackEpsilon = 1e-9

// slackAgreement is the allowed disagreement, in hours, between slack
// computed from start dates and from finish dates. Minute-resolution
// calendar arithmetic keeps both within this; a larger gap is a defect
// and is surfaced as a warning on the Result.
const slackAgreement = 0.1

// Options configures a Recalculate run.
type Options struct {
	// ProjectStart anchors tasks with no predecessors. Zero means derive
	// it from the earliest explicit task start.
	ProjectStart time.Time
	// ProjectEnd anchors the backward pass when it is later than the
	// computed maximum early finish.
	ProjectEnd time.Time
	// Calendars resolves per-task calendar overrides by ID. Tasks without
	// an override (or with an unknown ID) use the project calendar.
	Calendars map[string]*calendar.Calendar
}

// Recalculate runs the forward and backward passes and derives slack and
// the critical path. The input slices are not mutated; the returned
// Result carries updated copies in the original order.
//
// It fails fast with graph.ErrDependencyCycle when no topological order
// exists and with calendar.ErrInvalidCalendar when the calendar defines
// no working time; partial results are never returned.
func Recalculate(tasks []Task, deps []graph.Dependency, cal *calendar.Calendar, opts Options) (*Result, error) {
	if err := cal.Validate(); err != nil {
		return nil, err
	}

	out := make([]Task, len(tasks))
	copy(out, tasks)

	byID := make(map[string]*Task, len(out))
	ids := make([]string, 0, len(out))
	for i := range out {
		byID[out[i].ID] = &out[i]
		ids = append(ids, out[i].ID)
	}

	order, err := graph.TopoOrder(ids, deps)
	if err != nil {
		return nil, fmt.Errorf("scheduling pass: %w", err)
	}

	projectStart, err := resolveProjectStart(out, opts.ProjectStart)
	if err != nil {
		return nil, err
	}

	calFor := func(t *Task) *calendar.Calendar {
		if t.CalendarID != "" {
			if c, ok := opts.Calendars[t.CalendarID]; ok {
				return c
			}
		}
		return cal
	}

	incoming := graph.Incoming(deps)
	outgoing := graph.Outgoing(deps)

	if err := forwardPass(order, byID, incoming, calFor, projectStart); err != nil {
		return nil, err
	}

	projectFinish := resolveProjectFinish(out, opts.ProjectEnd)

	if err := backwardPass(order, byID, outgoing, calFor, projectFinish); err != nil {
		return nil, err
	}

	result := &Result{
		Order:         order,
		ProjectStart:  projectStart,
		ProjectFinish: projectFinish,
	}

	for _, id := range order {
		t := byID[id]
		if t.IsSummary() {
			continue
		}
		c := calFor(t)
		t.SlackHours = c.WorkingHoursBetween(t.EarlyStart, t.LateStart)
		finishSlack := c.WorkingHoursBetween(t.EarlyFinish, t.LateFinish)
		if diff := t.SlackHours - finishSlack; diff > slackAgreement || diff < -slackAgreement {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"task %s: start slack %.2fh and finish slack %.2fh disagree", id, t.SlackHours, finishSlack))
		}
		t.Critical = t.SlackHours <= slackEpsilon
	}

	rollupSummaries(out, byID)

	for _, id := range order {
		t := byID[id]
		if t.Critical && !t.IsSummary() {
			result.CriticalPath = append(result.CriticalPath, id)
		}
	}

	result.Tasks = out
	return result, nil
}

// resolveProjectStart picks the forward-pass anchor: the explicit option,
// else the earliest explicit start among non-summary tasks.
func resolveProjectStart(tasks []Task, explicit time.Time) (time.Time, error) {
	if !explicit.IsZero() {
		return explicit, nil
	}
	var earliest time.Time
	for i := range tasks {
		t := &tasks[i]
		if t.IsSummary() || t.Start.IsZero() {
			continue
		}
		if earliest.IsZero() || t.Start.Before(earliest) {
			earliest = t.Start
		}
	}
	if earliest.IsZero() {
		return time.Time{}, ErrNoProjectStart
	}
	return earliest, nil
}

// resolveProjectFinish anchors the backward pass at the maximum early
// finish (over every task, which also covers start-to-start tails that
// outlive their successors), or the explicit project end if later.
func resolveProjectFinish(tasks []Task, explicit time.Time) time.Time {
	finish := explicit
	for i := range tasks {
		t := &tasks[i]
		if t.IsSummary() {
			continue
		}
		if t.EarlyFinish.After(finish) {
			finish = t.EarlyFinish
		}
	}
	return finish
}

// forwardPass computes EarlyStart/EarlyFinish in topological order.
func forwardPass(order []string, byID map[string]*Task, incoming map[string][]graph.Dependency,
	calFor func(*Task) *calendar.Calendar, projectStart time.Time) error {

	for _, id := range order {
		t := byID[id]
		if t.IsSummary() {
			continue
		}
		c := calFor(t)
		dur := durationOf(t, c)

		var esBound, efBound time.Time
		for _, d := range incoming[id] {
			pred := byID[d.From]
			if pred == nil || pred.IsSummary() {
				continue
			}
			var anchor time.Time
			switch d.Kind {
			case graph.FinishToStart, graph.FinishToFinish:
				anchor = pred.EarlyFinish
			case graph.StartToStart, graph.StartToFinish:
				anchor = pred.EarlyStart
			}
			bound, err := c.AddWorkingHours(anchor, d.LagHours)
			if err != nil {
				return fmt.Errorf("task %s: %w", id, err)
			}
			switch d.Kind {
			case graph.FinishToStart, graph.StartToStart:
				esBound = maxTime(esBound, bound)
			case graph.FinishToFinish, graph.StartToFinish:
				efBound = maxTime(efBound, bound)
			}
		}

		es := esBound
		if es.IsZero() {
			snapped, err := c.AddWorkingHours(projectStart, 0)
			if err != nil {
				return fmt.Errorf("task %s: %w", id, err)
			}
			es = snapped
		}
		if !efBound.IsZero() {
			derived, err := c.AddWorkingHours(efBound, -dur)
			if err != nil {
				return fmt.Errorf("task %s: %w", id, err)
			}
			es = maxTime(es, derived)
		}

		if t.Constraint != nil {
			switch t.Constraint.Kind {
			case MustStartOn:
				es = t.Constraint.Date
			case StartNoEarlierThan:
				es = maxTime(es, t.Constraint.Date)
			}
		}

		var ef time.Time
		if t.IsMilestone() {
			snapped, err := c.NextWorkingInstant(es)
			if err != nil {
				return fmt.Errorf("task %s: %w", id, err)
			}
			es, ef = snapped, snapped
		} else {
			var err error
			ef, err = c.AddWorkingHours(es, dur)
			if err != nil {
				return fmt.Errorf("task %s: %w", id, err)
			}
		}

		if t.Constraint != nil {
			pin := false
			switch t.Constraint.Kind {
			case MustFinishOn:
				ef = t.Constraint.Date
				pin = true
			case FinishNoEarlierThan:
				if t.Constraint.Date.After(ef) {
					ef = t.Constraint.Date
					pin = true
				}
			}
			if pin && !t.IsMilestone() {
				derived, err := c.AddWorkingHours(ef, -dur)
				if err != nil {
					return fmt.Errorf("task %s: %w", id, err)
				}
				es = derived
			} else if pin {
				es = ef
			}
		}

		t.EarlyStart = es
		t.EarlyFinish = ef
	}
	return nil
}

// backwardPass computes LateStart/LateFinish in reverse topological order.
func backwardPass(order []string, byID map[string]*Task, outgoing map[string][]graph.Dependency,
	calFor func(*Task) *calendar.Calendar, projectFinish time.Time) error {

	for i := len(order) - 1; i >= 0; i-- {
		t := byID[order[i]]
		if t.IsSummary() {
			continue
		}
		c := calFor(t)
		dur := durationOf(t, c)

		var lfBound, lsBound time.Time
		for _, d := range outgoing[t.ID] {
			succ := byID[d.To]
			if succ == nil || succ.IsSummary() {
				continue
			}
			var anchor time.Time
			switch d.Kind {
			case graph.FinishToStart, graph.StartToStart:
				anchor = succ.LateStart
			case graph.FinishToFinish, graph.StartToFinish:
				anchor = succ.LateFinish
			}
			bound, err := c.AddWorkingHours(anchor, -d.LagHours)
			if err != nil {
				return fmt.Errorf("task %s: %w", t.ID, err)
			}
			switch d.Kind {
			case graph.FinishToStart, graph.FinishToFinish:
				lfBound = minTime(lfBound, bound)
			case graph.StartToStart, graph.StartToFinish:
				lsBound = minTime(lsBound, bound)
			}
		}

		lf := projectFinish
		if !lfBound.IsZero() {
			lf = minTime(lf, lfBound)
		}
		if !lsBound.IsZero() {
			derived, err := c.AddWorkingHours(lsBound, dur)
			if err != nil {
				return fmt.Errorf("task %s: %w", t.ID, err)
			}
			lf = minTime(lf, derived)
		}

		if t.Constraint != nil {
			switch t.Constraint.Kind {
			case MustFinishOn:
				lf = t.Constraint.Date
			case FinishNoLaterThan:
				lf = minTime(lf, t.Constraint.Date)
			}
		}

		var ls time.Time
		if dur == 0 {
			ls = lf
		} else {
			var err error
			ls, err = c.AddWorkingHours(lf, -dur)
			if err != nil {
				return fmt.Errorf("task %s: %w", t.ID, err)
			}
		}

		if t.Constraint != nil {
			pin := false
			switch t.Constraint.Kind {
			case MustStartOn:
				ls = t.Constraint.Date
				pin = true
			case StartNoLaterThan:
				if t.Constraint.Date.Before(ls) {
					ls = t.Constraint.Date
					pin = true
				}
			}
			if pin && dur > 0 {
				derived, err := c.AddWorkingHours(ls, dur)
				if err != nil {
					return fmt.Errorf("task %s: %w", t.ID, err)
				}
				lf = derived
			} else if pin {
				lf = ls
			}
		}

		t.LateStart = ls
		t.LateFinish = lf
	}
	return nil
}

// durationOf returns the task's working-hour duration: the explicit
// value, else the calendar distance between its start and end dates.
// Milestones are always zero.
func durationOf(t *Task, c *calendar.Calendar) float64 {
	if t.IsMilestone() {
		return 0
	}
	if t.DurationHours > 0 {
		return t.DurationHours
	}
	if !t.Start.IsZero() && !t.End.IsZero() {
		return c.WorkingHoursBetween(t.Start, t.End)
	}
	return 0
}

// rollupSummaries sets each summary task's span to the union of its
// descendants' spans, walking deepest summaries first so nested
// containers see their children already resolved. Summaries carry no
// slack and are never critical. A summary on a cyclic parent chain is
// left untouched (upstream validation rejects such data).
func rollupSummaries(tasks []Task, byID map[string]*Task) {
	children := make(map[string][]*Task)
	for i := range tasks {
		t := &tasks[i]
		if t.Parent != "" {
			children[t.Parent] = append(children[t.Parent], t)
		}
	}

	var summaries []*Task
	for i := range tasks {
		if tasks[i].IsSummary() {
			summaries = append(summaries, &tasks[i])
		}
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return hierarchyDepth(summaries[i], byID) > hierarchyDepth(summaries[j], byID)
	})

	for _, s := range summaries {
		var es, ef, ls, lf time.Time
		for _, child := range children[s.ID] {
			if child.EarlyStart.IsZero() && child.EarlyFinish.IsZero() {
				continue
			}
			if es.IsZero() || child.EarlyStart.Before(es) {
				es = child.EarlyStart
			}
			ef = maxTime(ef, child.EarlyFinish)
			if ls.IsZero() || child.LateStart.Before(ls) {
				ls = child.LateStart
			}
			lf = maxTime(lf, child.LateFinish)
		}
		s.EarlyStart, s.EarlyFinish = es, ef
		s.LateStart, s.LateFinish = ls, lf
		s.SlackHours = 0
		s.Critical = false
	}
}

// hierarchyDepth walks the parent chain, stopping if it revisits a node.
func hierarchyDepth(t *Task, byID map[string]*Task) int {
	depth := 0
	seen := map[string]bool{t.ID: true}
	for cur := t; cur.Parent != ""; {
		next := byID[cur.Parent]
		if next == nil || seen[next.ID] {
			break
		}
		seen[next.ID] = true
		depth++
		cur = next
	}
	return depth
}

func maxTime(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

func minTime(a, b time.Time) time.Time {
	if a.IsZero() || b.Before(a) {
		return b
	}
	return a
}
