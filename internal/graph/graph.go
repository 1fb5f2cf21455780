// Package graph validates and indexes task-to-task dependency links. It
// supports the four temporal relation kinds with signed lag, rejects
// structurally invalid links (dangling endpoints, self-loops, duplicates,
// cycles), and produces a deterministic topological order for the
// scheduling passes.
package graph

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDependencyCycle is returned when a link would create (or the link
// set already contains) a circular dependency.
var ErrDependencyCycle = errors.New("dependency cycle detected")

// ErrUnknownTask is returned when a link references a task that does not exist.
var ErrUnknownTask = errors.New("dependency references unknown task")

// ErrSelfDependency is returned when a link's endpoints are the same task.
var ErrSelfDependency = errors.New("task cannot depend on itself")

// ErrDuplicateDependency is returned when an identical link (same
// endpoints and kind) already exists.
var ErrDuplicateDependency = errors.New("duplicate dependency")

// Kind is the temporal relation between predecessor and successor.
type Kind string

const (
	// FinishToStart: successor may start once the predecessor finishes.
	FinishToStart Kind = "FS"
	// StartToStart: successor may start once the predecessor starts.
	StartToStart Kind = "SS"
	// FinishToFinish: successor may finish once the predecessor finishes.
	FinishToFinish Kind = "FF"
	// StartToFinish: successor may finish once the predecessor starts.
	StartToFinish Kind = "SF"
)

// ValidKinds is the set of recognized relation kinds.
var ValidKinds = map[Kind]bool{
	FinishToStart:  true,
	StartToStart:   true,
	FinishToFinish: true,
	StartToFinish:  true,
}

// Dependency is a directed link from a predecessor task to a successor
// task. LagHours shifts the relation in working hours; negative lag is
// lead time.
type Dependency struct {
	ID       string  `toml:"id" json:"id"`
	From     string  `toml:"from" json:"from"`
	To       string  `toml:"to" json:"to"`
	Kind     Kind    `toml:"kind" json:"kind"`
	LagHours float64 `toml:"lag_hours" json:"lag_hours"`
}

// RejectionCategory classifies why a dependency was rejected.
type RejectionCategory string

const (
	RejUnknownTask RejectionCategory = "unknown_task"
	RejSelfLoop    RejectionCategory = "self_loop"
	RejDuplicate   RejectionCategory = "duplicate"
	RejCycle       RejectionCategory = "cycle"
	RejBadKind     RejectionCategory = "bad_kind"
)

// Rejection records why a proposed dependency was not accepted. It wraps
// a sentinel error so callers can match with errors.Is while still
// getting the offending link in the message.
type Rejection struct {
	Category RejectionCategory
	Dep      Dependency
	Err      error
}

// Error returns a human-readable string naming the offending link.
func (r *Rejection) Error() string {
	return fmt.Sprintf("dependency %s -> %s (%s): %v", r.Dep.From, r.Dep.To, r.Dep.Kind, r.Err)
}

// Unwrap returns the underlying sentinel for use with errors.Is.
func (r *Rejection) Unwrap() error { return r.Err }

// Validate checks a proposed dependency against the existing task ID set
// and link set. A nil return means the link may be appended; a non-nil
// return is always a *Rejection and the existing sets are untouched.
func Validate(dep Dependency, taskIDs map[string]bool, existing []Dependency) error {
	reject := func(cat RejectionCategory, err error) error {
		return &Rejection{Category: cat, Dep: dep, Err: err}
	}

	if !ValidKinds[dep.Kind] {
		return reject(RejBadKind, fmt.Errorf("unrecognized kind %q", dep.Kind))
	}
	if dep.From == dep.To {
		return reject(RejSelfLoop, ErrSelfDependency)
	}
	if !taskIDs[dep.From] {
		return reject(RejUnknownTask, fmt.Errorf("%w: %s", ErrUnknownTask, dep.From))
	}
	if !taskIDs[dep.To] {
		return reject(RejUnknownTask, fmt.Errorf("%w: %s", ErrUnknownTask, dep.To))
	}
	for _, d := range existing {
		if d.From == dep.From && d.To == dep.To && d.Kind == dep.Kind {
			return reject(RejDuplicate, ErrDuplicateDependency)
		}
	}
	// Cycle probe: if From is already reachable from To, closing the
	// loop with From -> To would create a cycle.
	succ := successorIndex(existing)
	if hasPath(succ, dep.To, dep.From) {
		return reject(RejCycle, fmt.Errorf("%w: %s -> %s closes a loop", ErrDependencyCycle, dep.From, dep.To))
	}
	return nil
}

// TopoOrder produces a linearization of the task IDs respecting every
// link (predecessors before successors). Ties are broken lexically by
// task ID, so identical inputs always yield the identical order.
// Returns ErrDependencyCycle when no complete order exists.
func TopoOrder(taskIDs []string, deps []Dependency) ([]string, error) {
	known := make(map[string]bool, len(taskIDs))
	for _, id := range taskIDs {
		known[id] = true
	}

	inDegree := make(map[string]int, len(taskIDs))
	succ := make(map[string][]string, len(taskIDs))
	for _, id := range taskIDs {
		inDegree[id] = 0
	}
	for _, d := range deps {
		if !known[d.From] || !known[d.To] {
			return nil, &Rejection{Category: RejUnknownTask, Dep: d,
				Err: fmt.Errorf("%w: %s -> %s", ErrUnknownTask, d.From, d.To)}
		}
		succ[d.From] = append(succ[d.From], d.To)
		inDegree[d.To]++
	}

	var queue []string
	for _, id := range taskIDs {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	order := make([]string, 0, len(taskIDs))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		var ready []string
		for _, s := range succ[id] {
			inDegree[s]--
			if inDegree[s] == 0 {
				ready = append(ready, s)
			}
		}
		sort.Strings(ready)
		queue = append(queue, ready...)
	}

	if len(order) != len(taskIDs) {
		return nil, fmt.Errorf("%w: %d of %d tasks ordered", ErrDependencyCycle, len(order), len(taskIDs))
	}
	return order, nil
}

// Incoming returns the links grouped by successor task.
func Incoming(deps []Dependency) map[string][]Dependency {
	in := make(map[string][]Dependency)
	for _, d := range deps {
		in[d.To] = append(in[d.To], d)
	}
	return in
}

// Outgoing returns the links grouped by predecessor task.
func Outgoing(deps []Dependency) map[string][]Dependency {
	out := make(map[string][]Dependency)
	for _, d := range deps {
		out[d.From] = append(out[d.From], d)
	}
	return out
}

// successorIndex builds a From -> set-of-To adjacency from the link set.
func successorIndex(deps []Dependency) map[string]map[string]bool {
	succ := make(map[string]map[string]bool)
	for _, d := range deps {
		if succ[d.From] == nil {
			succ[d.From] = make(map[string]bool)
		}
		succ[d.From][d.To] = true
	}
	return succ
}

// hasPath reports whether to is reachable from from via iterative DFS.
func hasPath(succ map[string]map[string]bool, from, to string) bool {
	if from == to {
		return true
	}
	visited := map[string]bool{from: true}
	stack := []string{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for next := range succ[n] {
			if next == to {
				return true
			}
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}
