// Package wbs assigns hierarchical work-breakdown codes ("1", "1.1",
// "1.2.3") from each task's parent reference and display order.
package wbs

import (
	"sort"
	"strconv"

	"github.com/papapumpkin/ephemeris/internal/schedule"
)

// Assign returns a WBS code for every task. Sibling groups are numbered
// 1-based after sorting by display order, then start date, then ID, so
// the numbering is fully deterministic. The traversal is an explicit
// worklist, never recursion, and a task whose parent chain loops back on
// itself is treated as an orphan root rather than followed forever.
func Assign(tasks []schedule.Task) map[string]string {
	byID := make(map[string]*schedule.Task, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = &tasks[i]
	}

	children := make(map[string][]*schedule.Task)
	var roots []*schedule.Task
	for i := range tasks {
		t := &tasks[i]
		if t.Parent == "" || byID[t.Parent] == nil || onCyclicChain(t, byID) {
			roots = append(roots, t)
			continue
		}
		children[t.Parent] = append(children[t.Parent], t)
	}

	codes := make(map[string]string, len(tasks))

	type frame struct {
		task *schedule.Task
		code string
	}
	var stack []frame
	for i, root := range sortSiblings(roots) {
		stack = append(stack, frame{root, strconv.Itoa(i + 1)})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		codes[f.task.ID] = f.code
		for i, child := range sortSiblings(children[f.task.ID]) {
			stack = append(stack, frame{child, f.code + "." + strconv.Itoa(i+1)})
		}
	}
	return codes
}

// sortSiblings orders a sibling group: explicit display order first,
// start date second, ID last.
func sortSiblings(group []*schedule.Task) []*schedule.Task {
	sorted := make([]*schedule.Task, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if !a.Start.Equal(b.Start) {
			if a.Start.IsZero() || b.Start.IsZero() {
				return b.Start.IsZero()
			}
			return a.Start.Before(b.Start)
		}
		return a.ID < b.ID
	})
	return sorted
}

// onCyclicChain reports whether following the task's parent chain ever
// revisits a node (including the task itself).
func onCyclicChain(t *schedule.Task, byID map[string]*schedule.Task) bool {
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
