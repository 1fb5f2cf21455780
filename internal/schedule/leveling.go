package schedule

import (
	"fmt"
	"sort"

	"github.com/papapumpkin/ephemeris/internal/calendar"
)

// LevelOptions configures a leveling sweep.
type LevelOptions struct {
	// RespectPriorities sorts same-start tasks by priority (highest
	// first) before sweeping, so lower-priority work is what gets pushed.
	RespectPriorities bool
}

// LevelResult reports what a leveling sweep changed.
type LevelResult struct {
	// Tasks is the full input set with shifted dates, in input order.
	Tasks []Task
	// Moved is the number of tasks whose dates were shifted.
	Moved int
	// TotalDelayHours is the sum of working-hour shifts applied.
	TotalDelayHours float64
}

// LevelResources resolves double-booking of shared resources with a
// single sweep per resource: tasks assigned to the resource are sorted
// by start (then priority), and whenever a task overlaps the next one in
// that order, the later task is pushed to start at the earlier task's
// end, keeping its working-hour duration.
//
// The sweep is a deliberate heuristic, not a solver. It only examines
// adjacent pairs, so a large shift can introduce a new overlap further
// down that this pass will not resolve, and it is dependency-unaware: a
// shifted task can violate its links. Callers must re-run Recalculate
// afterwards so slack and critical flags reflect the new dates.
func LevelResources(tasks []Task, cal *calendar.Calendar, opts LevelOptions) (*LevelResult, error) {
	if err := cal.Validate(); err != nil {
		return nil, err
	}

	out := make([]Task, len(tasks))
	copy(out, tasks)

	byResource := make(map[string][]*Task)
	for i := range out {
		t := &out[i]
		if t.IsSummary() || t.Start.IsZero() {
			continue
		}
		for _, a := range t.Assignments {
			byResource[a.ResourceID] = append(byResource[a.ResourceID], t)
		}
	}

	resources := make([]string, 0, len(byResource))
	for id := range byResource {
		resources = append(resources, id)
	}
	sort.Strings(resources)

	result := &LevelResult{}
	moved := make(map[string]bool)

	for _, rid := range resources {
		assigned := byResource[rid]
		sort.SliceStable(assigned, func(i, j int) bool {
			if !assigned[i].Start.Equal(assigned[j].Start) {
				return assigned[i].Start.Before(assigned[j].Start)
			}
			if opts.RespectPriorities && assigned[i].Priority != assigned[j].Priority {
				return assigned[i].Priority > assigned[j].Priority
			}
			return assigned[i].ID < assigned[j].ID
		})

		for i := 0; i+1 < len(assigned); i++ {
			cur, next := assigned[i], assigned[i+1]
			if !overlaps(cur, next) {
				continue
			}
			dur := durationOf(next, cal)
			delay := cal.WorkingHoursBetween(next.Start, cur.End)
			newEnd, err := cal.AddWorkingHours(cur.End, dur)
			if err != nil {
				return nil, fmt.Errorf("leveling %s: %w", next.ID, err)
			}
			next.Start = cur.End
			next.End = newEnd
			if !moved[next.ID] {
				moved[next.ID] = true
				result.Moved++
			}
			result.TotalDelayHours += delay
		}
	}

	result.Tasks = out
	return result, nil
}

// overlaps reports whether two scheduled tasks share any time. Touching
// endpoints (one ends exactly when the other starts) do not overlap.
func overlaps(a, b *Task) bool {
	aEnd, bEnd := a.End, b.End
	if aEnd.IsZero() || bEnd.IsZero() {
		return false
	}
	return a.Start.Before(bEnd) && b.Start.Before(aEnd)
}
