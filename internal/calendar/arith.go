package calendar

import (
	"fmt"
	"math"
	"time"
)

// AddWorkingHours moves start by the given number of working hours and
// returns the resulting instant. Hours may be fractional (minute
// resolution) and may be negative, which walks backward through working
// time. Adding zero hours snaps forward to the first working instant at
// or after start; subtracting zero snaps the same way.
//
// The result of adding a positive amount always lands inside a working
// span or exactly on a span's end (a task that consumes a full day
// finishes at closing time, not at the next morning's opening).
func (c *Calendar) AddWorkingHours(start time.Time, hours float64) (time.Time, error) {
	if err := c.Validate(); err != nil {
		return time.Time{}, err
	}
	mins := int(math.Round(hours * 60))
	if mins < 0 {
		return c.subWorkingMinutes(start, -mins)
	}
	return c.addWorkingMinutes(start, mins)
}

// NextWorkingInstant returns the first working instant at or after t.
// Milestones with non-working nominal dates are snapped with this.
func (c *Calendar) NextWorkingInstant(t time.Time) (time.Time, error) {
	if err := c.Validate(); err != nil {
		return time.Time{}, err
	}
	return c.addWorkingMinutes(t, 0)
}

// WorkingHoursBetween counts the working hours in [a, b). The result is
// signed: negative when b is before a. The count is a pure measurement
// and never fails; on a calendar with no working time it is zero.
func (c *Calendar) WorkingHoursBetween(a, b time.Time) float64 {
	if b.Before(a) {
		return -c.WorkingHoursBetween(b, a)
	}
	aDate, bDate := dateOf(a), dateOf(b)
	total := 0
	for date := aDate; !date.After(bDate); date = date.AddDate(0, 0, 1) {
		lo, hi := 0, minutesPerDay
		if date.Equal(aDate) {
			lo = minuteOfDay(a)
		}
		if date.Equal(bDate) {
			hi = minuteOfDay(b)
		}
		for _, s := range c.daySpans(date) {
			from := max(s.StartMinute, lo)
			to := min(s.EndMinute, hi)
			if to > from {
				total += to - from
			}
		}
	}
	return float64(total) / 60
}

// addWorkingMinutes walks forward from start consuming remaining working
// minutes. With remaining == 0 it returns the first working instant at
// or after start.
func (c *Calendar) addWorkingMinutes(start time.Time, remaining int) (time.Time, error) {
	date := dateOf(start)
	minute := minuteOfDay(start)
	for day := 0; day < maxScanDays; day++ {
		for _, s := range c.daySpans(date) {
			if s.EndMinute <= minute {
				continue
			}
			from := max(s.StartMinute, minute)
			avail := s.EndMinute - from
			if remaining <= avail {
				if remaining == 0 {
					return timeAt(date, from), nil
				}
				return timeAt(date, from+remaining), nil
			}
			remaining -= avail
		}
		date = date.AddDate(0, 0, 1)
		minute = 0
	}
	return time.Time{}, fmt.Errorf("%w: no working time within %d days of %s",
		ErrInvalidCalendar, maxScanDays, start.Format(time.RFC3339))
}

// subWorkingMinutes walks backward from end consuming remaining working
// minutes. With remaining == 0 it returns the last working instant at or
// before end (span ends count as working boundaries, so subtracting a
// full day's hours from closing time yields that day's opening time).
func (c *Calendar) subWorkingMinutes(end time.Time, remaining int) (time.Time, error) {
	date := dateOf(end)
	minute := minuteOfDay(end)
	for day := 0; day < maxScanDays; day++ {
		spans := c.daySpans(date)
		for i := len(spans) - 1; i >= 0; i-- {
			s := spans[i]
			if s.StartMinute >= minute {
				continue
			}
			to := min(s.EndMinute, minute)
			avail := to - s.StartMinute
			if remaining <= avail {
				return timeAt(date, to-remaining), nil
			}
			remaining -= avail
		}
		date = date.AddDate(0, 0, -1)
		minute = minutesPerDay
	}
	return time.Time{}, fmt.Errorf("%w: no working time within %d days before %s",
		ErrInvalidCalendar, maxScanDays, end.Format(time.RFC3339))
}

func minuteOfDay(t time.Time) int { return t.Hour()*60 + t.Minute() }

func timeAt(date time.Time, minute int) time.Time {
	return date.Add(time.Duration(minute) * time.Minute)
}
