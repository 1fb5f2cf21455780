package project

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papapumpkin/ephemeris/internal/graph"
	"github.com/papapumpkin/ephemeris/internal/schedule"
)

var mon = time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)

func sample() *Project {
	return &Project{
		Project: Info{Name: "launch", Start: mon},
		Resources: []schedule.Resource{
			{ID: "dev", Name: "Developer", RatePerHour: 100, AvailabilityPercent: 100},
		},
		Tasks: []schedule.Task{
			{ID: "a", Name: "design", Type: schedule.TypeLeaf, DurationHours: 16,
				Assignments: []schedule.Assignment{{ResourceID: "dev", Percent: 100}}},
			{ID: "b", Name: "build", Type: schedule.TypeLeaf, DurationHours: 24},
		},
		Dependencies: []graph.Dependency{
			{ID: "d1", From: "a", To: "b", Kind: graph.FinishToStart},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ephemeris.toml")
	require.NoError(t, Save(path, sample()))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "launch", loaded.Project.Name)
	require.Len(t, loaded.Tasks, 2)
	assert.Equal(t, "a", loaded.Tasks[0].ID)
	assert.Equal(t, 16.0, loaded.Tasks[0].DurationHours)
	require.Len(t, loaded.Dependencies, 1)
	assert.Equal(t, graph.FinishToStart, loaded.Dependencies[0].Kind)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRecalculateThroughProject(t *testing.T) {
	res, err := sample().Recalculate()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.CriticalPath)
}

func TestValidateCleanProject(t *testing.T) {
	assert.Empty(t, Validate(sample()))
}

func TestValidateFindings(t *testing.T) {
	p := sample()
	p.Tasks = append(p.Tasks,
		schedule.Task{ID: "a", Type: schedule.TypeLeaf},                 // duplicate
		schedule.Task{ID: "c", Parent: "ghost"},                        // unknown parent
		schedule.Task{ID: "d", Progress: 150},                          // bounds
		schedule.Task{ID: "e", Assignments: []schedule.Assignment{{ResourceID: "nobody", Percent: 100}}},
	)
	p.Dependencies = append(p.Dependencies,
		graph.Dependency{From: "b", To: "a", Kind: graph.FinishToStart}) // cycle

	findings := Validate(p)

	cats := map[ValidationCategory]int{}
	for _, f := range findings {
		cats[f.Category]++
	}
	assert.Equal(t, 1, cats[ValCatDuplicateID])
	assert.Equal(t, 1, cats[ValCatUnknownParent])
	assert.Equal(t, 1, cats[ValCatBoundsViolation])
	assert.Equal(t, 1, cats[ValCatUnknownResource])
	assert.Equal(t, 1, cats[ValCatDependency])
}

func TestValidateParentCycle(t *testing.T) {
	p := &Project{Tasks: []schedule.Task{
		{ID: "a", Parent: "b"},
		{ID: "b", Parent: "a"},
	}}
	findings := Validate(p)

	cycles := 0
	for _, f := range findings {
		if f.Category == ValCatParentCycle {
			cycles++
		}
	}
	assert.Equal(t, 2, cycles)
}

func TestWatcherEmitsDebouncedChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ephemeris.toml")
	require.NoError(t, Save(path, sample()))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	// A burst of writes collapses into one change.
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("# touched\n"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case change := <-w.Changes:
		assert.Equal(t, path, change.Path)
	case <-time.After(2 * time.Second):
		t.Fatal("no change emitted")
	}

	select {
	case <-w.Changes:
		t.Fatal("burst produced more than one change")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ephemeris.toml")
	require.NoError(t, Save(path, sample()))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("hi"), 0o644))

	select {
	case <-w.Changes:
		t.Fatal("unrelated file triggered a change")
	case <-time.After(300 * time.Millisecond):
	}
}
