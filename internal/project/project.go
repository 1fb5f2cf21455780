// Package project owns the on-disk representation of a project: a TOML
// file holding the task set, dependency links, resource roster, and
// calendar definitions. The engine packages never touch disk; this
// package loads their inputs and persists their authoritative fields.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/papapumpkin/ephemeris/internal/calendar"
	"github.com/papapumpkin/ephemeris/internal/graph"
	"github.com/papapumpkin/ephemeris/internal/schedule"
)

// DefaultPath is the conventional project file location.
const DefaultPath = "ephemeris.toml"

// Info holds the project's identity and scheduling anchors.
type Info struct {
	Name string `toml:"name"`
	// Start anchors tasks with no predecessors. Zero means derive from
	// the earliest task start.
	Start time.Time `toml:"start,omitempty"`
	// End, when set and later than the computed finish, anchors the
	// backward pass and grants the whole schedule slack.
	End time.Time `toml:"end,omitempty"`
	// HoursPerDay converts working hours to the days shown in reports.
	HoursPerDay float64 `toml:"hours_per_day,omitempty"`
}

// Project is the fully parsed project file.
type Project struct {
	Project      Info                `toml:"project"`
	Calendar     *calendar.Calendar  `toml:"calendar,omitempty"`
	Calendars    []calendar.Calendar `toml:"calendars,omitempty"`
	Resources    []schedule.Resource `toml:"resources,omitempty"`
	Tasks        []schedule.Task     `toml:"tasks,omitempty"`
	Dependencies []graph.Dependency  `toml:"dependencies,omitempty"`
}

// Load reads and parses a project file.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project file: %w", err)
	}
	var p Project
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &p, nil
}

// Save writes the project file, creating parent directories as needed.
func Save(path string, p *Project) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling project: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ProjectCalendar returns the project's working calendar, falling back
// to the standard Monday–Friday calendar when the file defines none.
func (p *Project) ProjectCalendar() *calendar.Calendar {
	if p.Calendar != nil && len(p.Calendar.Spans) > 0 {
		return p.Calendar
	}
	return calendar.Default()
}

// CalendarOverrides indexes the named override calendars by ID for the
// engine's per-task lookup.
func (p *Project) CalendarOverrides() map[string]*calendar.Calendar {
	if len(p.Calendars) == 0 {
		return nil
	}
	m := make(map[string]*calendar.Calendar, len(p.Calendars))
	for i := range p.Calendars {
		m[p.Calendars[i].ID] = &p.Calendars[i]
	}
	return m
}

// HoursPerDay returns the configured report conversion, defaulting to
// the project calendar's standard day.
func (p *Project) HoursPerDay() float64 {
	if p.Project.HoursPerDay > 0 {
		return p.Project.HoursPerDay
	}
	return p.ProjectCalendar().HoursPerDay()
}

// Recalculate runs the CPM engine over the project's current state.
func (p *Project) Recalculate() (*schedule.Result, error) {
	return schedule.Recalculate(p.Tasks, p.Dependencies, p.ProjectCalendar(), schedule.Options{
		ProjectStart: p.Project.Start,
		ProjectEnd:   p.Project.End,
		Calendars:    p.CalendarOverrides(),
	})
}
