// Package schedule holds the project model and the CPM engine: the
// forward and backward passes that derive earliest/latest dates, slack,
// and the critical path from tasks, dependencies, and a working-time
// calendar, plus the single-sweep resource leveler.
//
// The engine is a pure function of its inputs. It never creates or
// deletes tasks; it only fills in derived fields and returns the updated
// set. Re-running it on unchanged inputs produces identical output, so
// callers may recompute as often as they like.
package schedule

import (
	"time"
)

// TaskType distinguishes ordinary work items from zero-duration markers
// and container rows.
type TaskType string

const (
	// TypeLeaf is an ordinary task with a duration.
	TypeLeaf TaskType = "leaf"
	// TypeMilestone is a zero-duration marker. If its nominal instant is
	// non-working it snaps forward to the next working instant.
	TypeMilestone TaskType = "milestone"
	// TypeSummary is a container whose span is the union of its
	// descendants' spans. Summaries are excluded from slack and critical
	// path computation.
	TypeSummary TaskType = "summary"
)

// ConstraintKind restricts where the passes may place a task.
type ConstraintKind string

const (
	// MustStartOn pins the start to the constraint date exactly.
	MustStartOn ConstraintKind = "must_start_on"
	// MustFinishOn pins the finish to the constraint date exactly.
	MustFinishOn ConstraintKind = "must_finish_on"
	// StartNoEarlierThan clamps the dependency-derived start forward.
	StartNoEarlierThan ConstraintKind = "start_no_earlier_than"
	// StartNoLaterThan clamps the late start backward.
	StartNoLaterThan ConstraintKind = "start_no_later_than"
	// FinishNoEarlierThan clamps the dependency-derived finish forward.
	FinishNoEarlierThan ConstraintKind = "finish_no_earlier_than"
	// FinishNoLaterThan clamps the late finish backward.
	FinishNoLaterThan ConstraintKind = "finish_no_later_than"
)

// Constraint is an optional date restriction on a task. "Must"
// constraints are equality overrides; the others are one-sided clamps
// applied after the dependency-derived value.
type Constraint struct {
	Kind ConstraintKind `toml:"kind" json:"kind"`
	Date time.Time      `toml:"date" json:"date"`
}

// Assignment allocates a fraction of a resource to a task. Percent is
// 0–100 and is interpreted per resource; the engine does not cap the
// aggregate allocation of a resource across tasks (that is the leveler's
// and the planner's concern).
type Assignment struct {
	ResourceID string  `toml:"resource" json:"resource"`
	Percent    float64 `toml:"percent" json:"percent"`
}

// Resource is a read-only roster entry: the engine consumes rates and
// availability but never edits them.
type Resource struct {
	ID                  string  `toml:"id" json:"id"`
	Name                string  `toml:"name" json:"name"`
	RatePerHour         float64 `toml:"rate_per_hour" json:"rate_per_hour"`
	AvailabilityPercent float64 `toml:"availability_percent" json:"availability_percent"`
}

// Task is a single row of the project. Start/End and DurationHours are
// authoritative input; the fields below the marker comment are derived
// by the engine and are stale the moment any input changes.
type Task struct {
	ID       string   `toml:"id" json:"id"`
	Name     string   `toml:"name" json:"name"`
	Type     TaskType `toml:"type" json:"type"`
	Parent   string   `toml:"parent,omitempty" json:"parent,omitempty"`
	Order    int      `toml:"order" json:"order"`
	Priority int      `toml:"priority" json:"priority"`

	Start         time.Time `toml:"start" json:"start"`
	End           time.Time `toml:"end" json:"end"`
	DurationHours float64   `toml:"duration_hours" json:"duration_hours"`
	// EffortHours is the explicit work content used for costing. Zero
	// means derive from duration and the costing hours-per-day.
	EffortHours float64 `toml:"effort_hours,omitempty" json:"effort_hours,omitempty"`
	// Progress is 0–100. The engine reads it for earned value but never
	// enforces monotonicity; that is a business rule of the editing layer.
	Progress float64 `toml:"progress" json:"progress"`

	Assignments []Assignment `toml:"assignments,omitempty" json:"assignments,omitempty"`
	FixedCost   float64      `toml:"fixed_cost" json:"fixed_cost"`
	Constraint  *Constraint  `toml:"constraint,omitempty" json:"constraint,omitempty"`
	// CalendarID selects a calendar override for this task's arithmetic.
	// Empty means the project calendar. Overrides do not chain.
	CalendarID string `toml:"calendar,omitempty" json:"calendar,omitempty"`

	// Derived fields. Recomputed by Recalculate; never authoritative.
	EarlyStart  time.Time `toml:"-" json:"early_start,omitzero"`
	EarlyFinish time.Time `toml:"-" json:"early_finish,omitzero"`
	LateStart   time.Time `toml:"-" json:"late_start,omitzero"`
	LateFinish  time.Time `toml:"-" json:"late_finish,omitzero"`
	SlackHours  float64   `toml:"-" json:"slack_hours"`
	Critical    bool      `toml:"-" json:"critical"`
	// Cost is the rolled-up cost (resource work + fixed, summaries
	// aggregating their subtree). Computed by the cost rollup.
	Cost float64 `toml:"-" json:"cost"`
}

// IsMilestone reports whether the task is a zero-duration marker.
func (t *Task) IsMilestone() bool { return t.Type == TypeMilestone }

// IsSummary reports whether the task is a container row.
func (t *Task) IsSummary() bool { return t.Type == TypeSummary }

// BaselineTask is a task's frozen snapshot at baseline time.
type BaselineTask struct {
	TaskID        string    `toml:"task_id" json:"task_id"`
	Start         time.Time `toml:"start" json:"start"`
	End           time.Time `toml:"end" json:"end"`
	DurationHours float64   `toml:"duration_hours" json:"duration_hours"`
	Cost          float64   `toml:"cost" json:"cost"`
	Progress      float64   `toml:"progress" json:"progress"`
}

// Baseline is an immutable snapshot of the project taken at an explicit
// save action. It is the planned-value reference for earned value
// analysis and is never mutated after capture.
type Baseline struct {
	ID           string                  `toml:"id" json:"id"`
	Name         string                  `toml:"name" json:"name"`
	TakenAt      time.Time               `toml:"taken_at" json:"taken_at"`
	ProjectStart time.Time               `toml:"project_start" json:"project_start"`
	ProjectEnd   time.Time               `toml:"project_end" json:"project_end"`
	TotalCost    float64                 `toml:"total_cost" json:"total_cost"`
	Tasks        map[string]BaselineTask `toml:"tasks" json:"tasks"`
}

// Result is the output of a Recalculate run.
type Result struct {
	// Tasks is the input set with derived fields filled in, in the same
	// order the tasks were supplied.
	Tasks []Task
	// CriticalPath lists critical task IDs in topological order.
	CriticalPath []string
	// Order is the topological order used by the passes.
	Order []string
	// ProjectStart and ProjectFinish bound the computed schedule.
	ProjectStart  time.Time
	ProjectFinish time.Time
	// Warnings records internal consistency findings (such as start- and
	// finish-derived slack disagreeing beyond rounding). A non-empty list
	// indicates a defect worth reporting, not a user error.
	Warnings []string
}
