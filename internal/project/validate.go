package project

import (
	"errors"
	"fmt"

	"github.com/papapumpkin/ephemeris/internal/graph"
	"github.com/papapumpkin/ephemeris/internal/schedule"
)

// Sentinel errors for project-level validation.
var (
	// ErrMissingField indicates a required field (e.g. task id) is empty.
	ErrMissingField = errors.New("required field missing")
	// ErrDuplicateID indicates two or more tasks share the same ID.
	ErrDuplicateID = errors.New("duplicate task ID")
	// ErrUnknownParent indicates a task's parent reference does not exist.
	ErrUnknownParent = errors.New("task references unknown parent")
	// ErrParentCycle indicates a task's parent chain loops back on itself.
	ErrParentCycle = errors.New("parent chain forms a cycle")
	// ErrUnknownResource indicates an assignment names a resource that is
	// not in the roster.
	ErrUnknownResource = errors.New("assignment references unknown resource")
	// ErrBadBounds indicates a numeric field is out of its valid range.
	ErrBadBounds = errors.New("value out of range")
)

// ValidationCategory classifies a finding for programmatic handling.
type ValidationCategory string

const (
	ValCatMissingField    ValidationCategory = "missing_field"
	ValCatDuplicateID     ValidationCategory = "duplicate_id"
	ValCatUnknownParent   ValidationCategory = "unknown_parent"
	ValCatParentCycle     ValidationCategory = "parent_cycle"
	ValCatUnknownResource ValidationCategory = "unknown_resource"
	ValCatBoundsViolation ValidationCategory = "bounds_violation"
	ValCatDependency      ValidationCategory = "dependency"
	ValCatCalendar        ValidationCategory = "calendar"
)

// ValidationError records a single structural problem with its context.
type ValidationError struct {
	Category ValidationCategory
	TaskID   string
	Field    string
	Err      error
}

// Error returns a human-readable string including task context.
func (e *ValidationError) Error() string {
	if e.TaskID != "" {
		return fmt.Sprintf("task %s: %v", e.TaskID, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *ValidationError) Unwrap() error { return e.Err }

// Validate checks the project for structural problems: empty or
// duplicate IDs, dangling parent and resource references, parent
// cycles, out-of-range numerics, invalid dependency links, and a
// calendar with no working time. It returns every finding rather than
// stopping at the first, so a validate run reads like a lint report.
func Validate(p *Project) []*ValidationError {
	var findings []*ValidationError
	add := func(cat ValidationCategory, taskID, field string, err error) {
		findings = append(findings, &ValidationError{Category: cat, TaskID: taskID, Field: field, Err: err})
	}

	if err := p.ProjectCalendar().Validate(); err != nil {
		add(ValCatCalendar, "", "calendar", err)
	}
	for i := range p.Calendars {
		if err := p.Calendars[i].Validate(); err != nil {
			add(ValCatCalendar, "", "calendars."+p.Calendars[i].ID, err)
		}
	}

	byID := make(map[string]*schedule.Task, len(p.Tasks))
	taskIDs := make(map[string]bool, len(p.Tasks))
	for i := range p.Tasks {
		t := &p.Tasks[i]
		if t.ID == "" {
			add(ValCatMissingField, "", "id", fmt.Errorf("%w: task %d has no id", ErrMissingField, i))
			continue
		}
		if taskIDs[t.ID] {
			add(ValCatDuplicateID, t.ID, "id", ErrDuplicateID)
			continue
		}
		taskIDs[t.ID] = true
		byID[t.ID] = t
	}

	resources := make(map[string]bool, len(p.Resources))
	for _, r := range p.Resources {
		resources[r.ID] = true
	}

	for i := range p.Tasks {
		t := &p.Tasks[i]
		if t.ID == "" {
			continue
		}
		if t.Parent != "" {
			if !taskIDs[t.Parent] {
				add(ValCatUnknownParent, t.ID, "parent", fmt.Errorf("%w: %s", ErrUnknownParent, t.Parent))
			} else if onParentCycle(t, byID) {
				add(ValCatParentCycle, t.ID, "parent", ErrParentCycle)
			}
		}
		if t.Progress < 0 || t.Progress > 100 {
			add(ValCatBoundsViolation, t.ID, "progress", fmt.Errorf("%w: progress %.1f", ErrBadBounds, t.Progress))
		}
		if t.DurationHours < 0 {
			add(ValCatBoundsViolation, t.ID, "duration_hours", fmt.Errorf("%w: duration %.1f", ErrBadBounds, t.DurationHours))
		}
		for _, a := range t.Assignments {
			if !resources[a.ResourceID] {
				add(ValCatUnknownResource, t.ID, "assignments", fmt.Errorf("%w: %s", ErrUnknownResource, a.ResourceID))
			}
			if a.Percent < 0 || a.Percent > 100 {
				add(ValCatBoundsViolation, t.ID, "assignments", fmt.Errorf("%w: allocation %.1f%%", ErrBadBounds, a.Percent))
			}
		}
	}

	for i, d := range p.Dependencies {
		if err := graph.Validate(d, taskIDs, p.Dependencies[:i]); err != nil {
			add(ValCatDependency, d.To, "dependencies", err)
		}
	}

	return findings
}

// onParentCycle reports whether the task's parent chain revisits a node.
func onParentCycle(t *schedule.Task, byID map[string]*schedule.Task) bool {
	seen := map[string]bool{t.ID: true}
	for cur := t; cur.Parent != ""; {
		next := byID[cur.Parent]
		if next == nil {
			return false
		}
		if seen[next.ID] {
			return true
		}
		seen[next.ID] = true
		cur = next
	}
	return false
}
