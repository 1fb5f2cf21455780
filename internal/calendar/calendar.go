// Package calendar models working time: which instants of the week count
// as work, plus dated exceptions that force days working or non-working.
// All scheduling arithmetic in the engine (adding durations, measuring
// spans, snapping milestones) goes through this package so that task
// dates always land inside working hours.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidCalendar indicates a calendar that defines no working time,
// or whose definition is malformed. Arithmetic on such a calendar fails
// fast instead of scanning forever.
var ErrInvalidCalendar = errors.New("invalid calendar")

// ErrInvalidSpan indicates a working-hours span with a start at or after
// its end, or minutes outside the day.
var ErrInvalidSpan = errors.New("invalid working span")

// ErrInvalidException indicates an exception whose date range is reversed.
var ErrInvalidException = errors.New("invalid calendar exception")

// minutesPerDay is the number of minutes in a civil day.
const minutesPerDay = 24 * 60

// maxScanDays bounds every day-by-day scan. A structurally valid calendar
// reaches working time well before this; hitting the bound means the
// definition is degenerate.
const maxScanDays = 20 * 366

// Span is a working time-of-day window, in minutes from midnight.
// End is exclusive: Span{480, 720} is 08:00–12:00.
type Span struct {
	StartMinute int `toml:"start_minute"`
	EndMinute   int `toml:"end_minute"`
}

// Minutes returns the span length in minutes.
func (s Span) Minutes() int { return s.EndMinute - s.StartMinute }

// Exception overrides the weekly pattern for a date range (inclusive on
// both ends, compared by civil date). Working=true forces the standard
// working spans onto the covered days; Working=false blanks them out.
type Exception struct {
	Name    string    `toml:"name"`
	From    time.Time `toml:"from"`
	To      time.Time `toml:"to"`
	Working bool      `toml:"working"`
}

// Calendar defines working time as a weekly pattern plus an ordered list
// of exceptions. When multiple exceptions cover the same date, the last
// one in the list wins; appending an exception is therefore always an
// override of whatever came before it.
type Calendar struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`

	// WorkDays is indexed by time.Weekday (Sunday = 0).
	WorkDays [7]bool `toml:"work_days"`

	// Spans are the working windows applied to every working day.
	Spans []Span `toml:"spans"`

	Exceptions []Exception `toml:"exceptions"`
}

// Default returns a Monday–Friday, 08:00–12:00 and 13:00–17:00 calendar.
func Default() *Calendar {
	return &Calendar{
		ID:   "default",
		Name: "Standard week",
		WorkDays: [7]bool{
			time.Monday:    true,
			time.Tuesday:   true,
			time.Wednesday: true,
			time.Thursday:  true,
			time.Friday:    true,
		},
		Spans: []Span{
			{StartMinute: 8 * 60, EndMinute: 12 * 60},
			{StartMinute: 13 * 60, EndMinute: 17 * 60},
		},
	}
}

// Validate checks the calendar for structural problems. The weekly
// pattern itself must contain working time; exceptions can only reshape
// a week that already works somewhere, which keeps every scan bounded.
func (c *Calendar) Validate() error {
	if len(c.Spans) == 0 {
		return fmt.Errorf("%w: no working spans defined", ErrInvalidCalendar)
	}
	for i, s := range c.Spans {
		if s.StartMinute < 0 || s.EndMinute > minutesPerDay || s.StartMinute >= s.EndMinute {
			return fmt.Errorf("%w: span %d (%d–%d)", ErrInvalidSpan, i, s.StartMinute, s.EndMinute)
		}
	}
	anyDay := false
	for _, w := range c.WorkDays {
		if w {
			anyDay = true
			break
		}
	}
	if !anyDay {
		return fmt.Errorf("%w: no working days in weekly pattern", ErrInvalidCalendar)
	}
	for i, ex := range c.Exceptions {
		if dateOf(ex.To).Before(dateOf(ex.From)) {
			return fmt.Errorf("%w: exception %d (%s) has reversed range", ErrInvalidException, i, ex.Name)
		}
	}
	return nil
}

// HoursPerDay returns the working hours of a standard working day.
func (c *Calendar) HoursPerDay() float64 {
	total := 0
	for _, s := range c.Spans {
		total += s.Minutes()
	}
	return float64(total) / 60
}

// IsWorkingInstant reports whether t falls inside working time.
func (c *Calendar) IsWorkingInstant(t time.Time) bool {
	spans := c.daySpans(t)
	if len(spans) == 0 {
		return false
	}
	m := t.Hour()*60 + t.Minute()
	for _, s := range spans {
		if m >= s.StartMinute && m < s.EndMinute {
			return true
		}
	}
	return false
}

// daySpans returns the working spans applicable on t's civil date, or
// nil when the day is non-working. Exceptions are resolved last-wins.
func (c *Calendar) daySpans(t time.Time) []Span {
	working := c.WorkDays[t.Weekday()]
	for _, ex := range c.Exceptions {
		if coversDate(ex, t) {
			working = ex.Working
		}
	}
	if !working {
		return nil
	}
	return c.Spans
}

// coversDate reports whether the exception's date range includes t's date.
func coversDate(ex Exception, t time.Time) bool {
	d := dateOf(t)
	return !d.Before(dateOf(ex.From)) && !d.After(dateOf(ex.To))
}

// dateOf truncates t to its civil date in t's own location.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
