package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papapumpkin/ephemeris/internal/schedule"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "baselines.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleBaseline(id string, takenAt time.Time) *schedule.Baseline {
	start := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.March, 6, 17, 0, 0, 0, time.UTC)
	return &schedule.Baseline{
		ID:           id,
		Name:         "plan of record",
		TakenAt:      takenAt,
		ProjectStart: start,
		ProjectEnd:   end,
		TotalCost:    4200,
		Tasks: map[string]schedule.BaselineTask{
			"a": {TaskID: "a", Start: start, End: end, DurationHours: 40, Cost: 4000, Progress: 25},
			"m": {TaskID: "m", Start: end, End: end, Cost: 200, Progress: 0},
		},
	}
}

func TestSaveAndGetBaseline(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	want := sampleBaseline("b1", time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC))
	require.NoError(t, s.SaveBaseline(ctx, want))

	got, err := s.GetBaseline(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, want.Name, got.Name)
	assert.True(t, want.TakenAt.Equal(got.TakenAt))
	assert.True(t, want.ProjectStart.Equal(got.ProjectStart))
	assert.Equal(t, want.TotalCost, got.TotalCost)
	require.Len(t, got.Tasks, 2)
	assert.Equal(t, 40.0, got.Tasks["a"].DurationHours)
	assert.Equal(t, 25.0, got.Tasks["a"].Progress)
	assert.True(t, want.Tasks["m"].Start.Equal(got.Tasks["m"].Start))
}

func TestSaveBaselineRejectsDuplicateID(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	b := sampleBaseline("b1", time.Now().UTC())
	require.NoError(t, s.SaveBaseline(ctx, b))
	assert.ErrorIs(t, s.SaveBaseline(ctx, b), ErrBaselineExists)
}

func TestGetBaselineNotFound(t *testing.T) {
	s := openStore(t)
	_, err := s.GetBaseline(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrBaselineNotFound)
}

func TestListBaselinesNewestFirst(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	older := sampleBaseline("b1", time.Date(2026, time.March, 4, 9, 0, 0, 0, time.UTC))
	newer := sampleBaseline("b2", time.Date(2026, time.March, 5, 9, 0, 0, 0, time.UTC))
	require.NoError(t, s.SaveBaseline(ctx, older))
	require.NoError(t, s.SaveBaseline(ctx, newer))

	list, err := s.ListBaselines(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b2", list[0].ID)
	assert.Equal(t, "b1", list[1].ID)
	assert.Equal(t, 2, list[0].TaskCount)
	assert.Equal(t, 4200.0, list[0].TotalCost)
}

func TestLatestBaseline(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_, err := s.LatestBaseline(ctx)
	assert.ErrorIs(t, err, ErrBaselineNotFound)

	require.NoError(t, s.SaveBaseline(ctx, sampleBaseline("b1", time.Date(2026, time.March, 4, 9, 0, 0, 0, time.UTC))))
	require.NoError(t, s.SaveBaseline(ctx, sampleBaseline("b2", time.Date(2026, time.March, 5, 9, 0, 0, 0, time.UTC))))

	latest, err := s.LatestBaseline(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b2", latest.ID)
}
