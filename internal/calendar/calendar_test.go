package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mon is a Monday at midnight, the anchor for most tests.
var mon = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func at(day int, hour, minute int) time.Time {
	return mon.AddDate(0, 0, day).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Default().Validate())

	noSpans := Default()
	noSpans.Spans = nil
	assert.ErrorIs(t, noSpans.Validate(), ErrInvalidCalendar)

	noDays := Default()
	noDays.WorkDays = [7]bool{}
	assert.ErrorIs(t, noDays.Validate(), ErrInvalidCalendar)

	badSpan := Default()
	badSpan.Spans = []Span{{StartMinute: 600, EndMinute: 600}}
	assert.ErrorIs(t, badSpan.Validate(), ErrInvalidSpan)

	badEx := Default()
	badEx.Exceptions = []Exception{{From: at(3, 0, 0), To: at(1, 0, 0)}}
	assert.ErrorIs(t, badEx.Validate(), ErrInvalidException)
}

func TestIsWorkingInstant(t *testing.T) {
	c := Default()

	assert.True(t, c.IsWorkingInstant(at(0, 9, 0)))   // Monday 09:00
	assert.True(t, c.IsWorkingInstant(at(0, 8, 0)))   // opening minute
	assert.False(t, c.IsWorkingInstant(at(0, 12, 30))) // lunch
	assert.False(t, c.IsWorkingInstant(at(0, 17, 0)))  // closing minute is exclusive
	assert.False(t, c.IsWorkingInstant(at(5, 10, 0)))  // Saturday
}

func TestExceptionLastWins(t *testing.T) {
	c := Default()
	// First exception blanks the whole week, second re-opens Wednesday.
	c.Exceptions = []Exception{
		{Name: "shutdown", From: at(0, 0, 0), To: at(4, 0, 0), Working: false},
		{Name: "wednesday recall", From: at(2, 0, 0), To: at(2, 0, 0), Working: true},
	}

	assert.False(t, c.IsWorkingInstant(at(0, 9, 0)))
	assert.True(t, c.IsWorkingInstant(at(2, 9, 0)))
	assert.False(t, c.IsWorkingInstant(at(3, 9, 0)))
}

func TestExceptionForcesWeekendWorking(t *testing.T) {
	c := Default()
	c.Exceptions = []Exception{
		{Name: "crunch saturday", From: at(5, 0, 0), To: at(5, 0, 0), Working: true},
	}
	assert.True(t, c.IsWorkingInstant(at(5, 9, 0)))
	assert.False(t, c.IsWorkingInstant(at(6, 9, 0)))
}

func TestAddWorkingHours(t *testing.T) {
	c := Default()

	tests := []struct {
		name  string
		start time.Time
		hours float64
		want  time.Time
	}{
		{"zero snaps forward from weekend", at(5, 10, 0), 0, at(7, 8, 0)},
		{"zero inside span is identity", at(0, 9, 0), 0, at(0, 9, 0)},
		{"within one span", at(0, 8, 0), 2, at(0, 10, 0)},
		{"across lunch", at(0, 10, 0), 4, at(0, 15, 0)},
		{"full day lands on closing time", at(0, 8, 0), 8, at(0, 17, 0)},
		{"into next day", at(0, 8, 0), 9, at(1, 9, 0)},
		{"over the weekend", at(4, 16, 0), 2, at(7, 9, 0)},
		{"fractional hours", at(0, 8, 0), 1.5, at(0, 9, 30)},
		{"negative walks backward", at(0, 15, 0), -4, at(0, 10, 0)},
		{"negative across weekend", at(7, 9, 0), -2, at(4, 16, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.AddWorkingHours(tt.start, tt.hours)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddWorkingHoursInvalidCalendar(t *testing.T) {
	c := Default()
	c.WorkDays = [7]bool{}
	_, err := c.AddWorkingHours(at(0, 8, 0), 1)
	assert.ErrorIs(t, err, ErrInvalidCalendar)
}

func TestWorkingHoursBetween(t *testing.T) {
	c := Default()

	assert.Equal(t, 8.0, c.WorkingHoursBetween(at(0, 8, 0), at(0, 17, 0)))
	assert.Equal(t, 4.0, c.WorkingHoursBetween(at(0, 10, 0), at(0, 15, 0)))
	assert.Equal(t, 16.0, c.WorkingHoursBetween(at(4, 8, 0), at(7, 17, 0))) // Fri + Mon
	assert.Equal(t, 0.0, c.WorkingHoursBetween(at(5, 0, 0), at(6, 23, 0))) // weekend only
	assert.Equal(t, -8.0, c.WorkingHoursBetween(at(0, 17, 0), at(0, 8, 0)))
}

func TestAddBetweenRoundTrip(t *testing.T) {
	c := Default()
	starts := []time.Time{at(0, 8, 0), at(0, 11, 15), at(4, 16, 0), at(5, 3, 0)}
	amounts := []float64{0, 0.5, 3, 8, 27.25}

	for _, start := range starts {
		for _, n := range amounts {
			end, err := c.AddWorkingHours(start, n)
			require.NoError(t, err)
			assert.InDelta(t, -n, c.WorkingHoursBetween(end, start), 1e-9,
				"start=%s n=%v end=%s", start, n, end)
		}
	}
}

func TestNextWorkingInstant(t *testing.T) {
	c := Default()

	got, err := c.NextWorkingInstant(at(5, 12, 0)) // Saturday noon
	require.NoError(t, err)
	assert.Equal(t, at(7, 8, 0), got)

	got, err = c.NextWorkingInstant(at(0, 9, 30))
	require.NoError(t, err)
	assert.Equal(t, at(0, 9, 30), got)
}

func TestHoursPerDay(t *testing.T) {
	assert.Equal(t, 8.0, Default().HoursPerDay())
}
