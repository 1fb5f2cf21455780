package wbs

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/papapumpkin/ephemeris/internal/schedule"
)

func task(id, parent string, order int) schedule.Task {
	return schedule.Task{ID: id, Parent: parent, Order: order, Type: schedule.TypeLeaf}
}

func TestAssign(t *testing.T) {
	tasks := []schedule.Task{
		task("design", "", 1),
		task("build", "", 2),
		task("wireframes", "design", 1),
		task("mockups", "design", 2),
		task("backend", "build", 1),
		task("api", "backend", 1),
	}

	codes := Assign(tasks)

	assert.Equal(t, "1", codes["design"])
	assert.Equal(t, "1.1", codes["wireframes"])
	assert.Equal(t, "1.2", codes["mockups"])
	assert.Equal(t, "2", codes["build"])
	assert.Equal(t, "2.1", codes["backend"])
	assert.Equal(t, "2.1.1", codes["api"])
}

func TestAssignCodesUniqueAndPrefixed(t *testing.T) {
	tasks := []schedule.Task{
		task("a", "", 0), task("b", "", 0),
		task("a1", "a", 0), task("a2", "a", 0), task("b1", "b", 0),
	}
	codes := Assign(tasks)

	parents := map[string]string{}
	for _, tk := range tasks {
		parents[tk.ID] = tk.Parent
	}

	seen := map[string]bool{}
	for id, code := range codes {
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true

		if parent := parents[id]; parent != "" {
			assert.True(t, strings.HasPrefix(code, codes[parent]+"."),
				"%s (%s) is not an extension of its parent's code %s", id, code, codes[parent])
		}
	}
}

func TestAssignSiblingTieBreaks(t *testing.T) {
	early := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	late := early.AddDate(0, 0, 3)

	tasks := []schedule.Task{
		{ID: "z", Order: 1, Start: early, Type: schedule.TypeLeaf},
		{ID: "a", Order: 1, Start: late, Type: schedule.TypeLeaf},
		{ID: "m", Order: 1, Start: late, Type: schedule.TypeLeaf},
	}
	codes := Assign(tasks)

	// Same order: start date wins, then ID.
	assert.Equal(t, "1", codes["z"])
	assert.Equal(t, "2", codes["a"])
	assert.Equal(t, "3", codes["m"])
}

func TestAssignOrphanedParent(t *testing.T) {
	tasks := []schedule.Task{task("a", "ghost", 0)}
	codes := Assign(tasks)
	assert.Equal(t, "1", codes["a"])
}

func TestAssignParentCycleTerminates(t *testing.T) {
	tasks := []schedule.Task{
		task("a", "b", 0),
		task("b", "a", 0),
		task("c", "", 0),
	}
	codes := Assign(tasks)

	// Both cyclic tasks become roots; every task still gets a code.
	assert.Len(t, codes, 3)
	for id, code := range codes {
		assert.NotEmpty(t, code, "task %s has no code", id)
		assert.NotContains(t, code, ".")
	}
}

func TestAssignDeepHierarchy(t *testing.T) {
	// A 10k-deep chain must not exhaust the stack.
	tasks := make([]schedule.Task, 10000)
	tasks[0] = task("t0", "", 0)
	for i := 1; i < len(tasks); i++ {
		tasks[i] = task("t"+strconv.Itoa(i), "t"+strconv.Itoa(i-1), 0)
	}
	codes := Assign(tasks)
	assert.Len(t, codes, len(tasks))
	deepest := "t" + strconv.Itoa(len(tasks)-1)
	assert.Equal(t, strings.Repeat("1.", len(tasks)-1)+"1", codes[deepest])
}
