// Package evm computes costs and earned-value metrics. Costs roll up
// from resource assignments and fixed amounts through the task
// hierarchy; the EVM side measures PV/EV/AC and the derived indices
// against an immutable baseline snapshot.
package evm

import (
	"errors"
	"fmt"
	"sort"

	"github.com/papapumpkin/ephemeris/internal/schedule"
)

// ErrUnknownResource is returned when an assignment references a
// resource that is not in the roster. Dangling references are rejected,
// never silently priced at zero.
var ErrUnknownResource = errors.New("assignment references unknown resource")

// RollupCosts fills in the Cost field on every task: leaves and
// milestones price their resource work plus fixed cost, summaries sum
// their whole subtree plus their own fixed cost. The walk is iterative
// (deepest summaries first), so arbitrarily deep hierarchies cannot
// exhaust the stack, and each task is visited exactly once.
//
// The input slice is not mutated.
func RollupCosts(tasks []schedule.Task, resources []schedule.Resource) ([]schedule.Task, error) {
	rates := make(map[string]float64, len(resources))
	for _, r := range resources {
		rates[r.ID] = r.RatePerHour
	}

	out := make([]schedule.Task, len(tasks))
	copy(out, tasks)

	byID := make(map[string]*schedule.Task, len(out))
	children := make(map[string][]*schedule.Task)
	for i := range out {
		byID[out[i].ID] = &out[i]
	}
	for i := range out {
		t := &out[i]
		if t.Parent != "" && byID[t.Parent] != nil {
			children[t.Parent] = append(children[t.Parent], t)
		}
	}

	// Leaves and milestones first.
	for i := range out {
		t := &out[i]
		if t.IsSummary() {
			continue
		}
		own, err := ownCost(t, rates)
		if err != nil {
			return nil, err
		}
		t.Cost = own
	}

	// Summaries deepest-first so nested containers see resolved children.
	var summaries []*schedule.Task
	for i := range out {
		if out[i].IsSummary() {
			summaries = append(summaries, &out[i])
		}
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return depth(summaries[i], byID) > depth(summaries[j], byID)
	})
	for _, s := range summaries {
		total := s.FixedCost
		for _, child := range children[s.ID] {
			total += child.Cost
		}
		s.Cost = total
	}

	return out, nil
}

// ProjectCost returns the total project cost: every leaf's resource work
// and every task's fixed cost, each counted once.
func ProjectCost(tasks []schedule.Task, resources []schedule.Resource) (float64, error) {
	rates := make(map[string]float64, len(resources))
	for _, r := range resources {
		rates[r.ID] = r.RatePerHour
	}

	total := 0.0
	for i := range tasks {
		t := &tasks[i]
		if t.IsSummary() {
			total += t.FixedCost
			continue
		}
		own, err := ownCost(t, rates)
		if err != nil {
			return 0, err
		}
		total += own
	}
	return total, nil
}

// ownCost prices a non-summary task: work hours times allocation times
// rate, summed over assignments, plus the fixed cost.
func ownCost(t *schedule.Task, rates map[string]float64) (float64, error) {
	cost := t.FixedCost
	hours := workHours(t)
	for _, a := range t.Assignments {
		rate, ok := rates[a.ResourceID]
		if !ok {
			return 0, fmt.Errorf("%w: task %s -> %s", ErrUnknownResource, t.ID, a.ResourceID)
		}
		cost += hours * (a.Percent / 100) * rate
	}
	return cost, nil
}

// workHours is the task's costed work content: explicit effort when set,
// else its working-hour duration.
func workHours(t *schedule.Task) float64 {
	if t.EffortHours > 0 {
		return t.EffortHours
	}
	return t.DurationHours
}

// depth walks the parent chain with a revisit guard, so a cyclic chain
// (rejected upstream, but defended against here) terminates.
func depth(t *schedule.Task, byID map[string]*schedule.Task) int {
	d := 0
	seen := map[string]bool{t.ID: true}
	for cur := t; cur.Parent != ""; {
		next := byID[cur.Parent]
		if next == nil || seen[next.ID] {
			break
		}
		seen[next.ID] = true
		d++
		cur = next
	}
	return d
}
