package graph

import (
	"errors"
	"testing"
)

// link builds a FinishToStart dependency with zero lag.
func link(from, to string) Dependency {
	return Dependency{From: from, To: to, Kind: FinishToStart}
}

func taskSet(ids ...string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func TestValidateAccepts(t *testing.T) {
	tasks := taskSet("a", "b", "c")
	existing := []Dependency{link("a", "b")}

	if err := Validate(link("b", "c"), tasks, existing); err != nil {
		t.Fatalf("Validate returned unexpected error: %v", err)
	}
	// Same endpoints, different kind is a distinct link.
	if err := Validate(Dependency{From: "a", To: "b", Kind: StartToStart}, tasks, existing); err != nil {
		t.Fatalf("Validate rejected distinct kind: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tasks := taskSet("a", "b", "c")
	existing := []Dependency{link("a", "b"), link("b", "c")}

	tests := []struct {
		name     string
		dep      Dependency
		sentinel error
		category RejectionCategory
	}{
		{"unknown from", link("x", "a"), ErrUnknownTask, RejUnknownTask},
		{"unknown to", link("a", "x"), ErrUnknownTask, RejUnknownTask},
		{"self loop", link("a", "a"), ErrSelfDependency, RejSelfLoop},
		{"duplicate", link("a", "b"), ErrDuplicateDependency, RejDuplicate},
		{"direct cycle", link("b", "a"), ErrDependencyCycle, RejCycle},
		{"transitive cycle", link("c", "a"), ErrDependencyCycle, RejCycle},
		{"bad kind", Dependency{From: "a", To: "c", Kind: "FB"}, nil, RejBadKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.dep, tasks, existing)
			if err == nil {
				t.Fatal("Validate accepted an invalid dependency")
			}
			var rej *Rejection
			if !errors.As(err, &rej) {
				t.Fatalf("error is not a *Rejection: %v", err)
			}
			if rej.Category != tt.category {
				t.Errorf("category = %q, want %q", rej.Category, tt.category)
			}
			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.sentinel)
			}
		})
	}
	// The existing set must be untouched after rejections.
	if len(existing) != 2 {
		t.Errorf("existing link set mutated: %d links", len(existing))
	}
}

func TestTopoOrder(t *testing.T) {
	ids := []string{"d", "c", "b", "a"}
	deps := []Dependency{link("a", "b"), link("b", "c"), link("a", "d")}

	order, err := TopoOrder(ids, deps)
	if err != nil {
		t.Fatalf("TopoOrder: %v", err)
	}
	if len(order) != 4 {
		t.Fatalf("order has %d entries, want 4", len(order))
	}
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	for _, d := range deps {
		if pos[d.From] >= pos[d.To] {
			t.Errorf("%s appears after its successor %s in %v", d.From, d.To, order)
		}
	}
}

func TestTopoOrderDeterministic(t *testing.T) {
	// No links at all: order must fall back to lexical IDs.
	order, err := TopoOrder([]string{"z", "m", "a"}, nil)
	if err != nil {
		t.Fatalf("TopoOrder: %v", err)
	}
	want := []string{"a", "m", "z"}
	for i, id := range want {
		if order[i] != id {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestTopoOrderCycle(t *testing.T) {
	deps := []Dependency{link("a", "b"), link("b", "c"), link("c", "a")}
	_, err := TopoOrder([]string{"a", "b", "c"}, deps)
	if !errors.Is(err, ErrDependencyCycle) {
		t.Fatalf("err = %v, want ErrDependencyCycle", err)
	}
}

func TestTopoOrderUnknownEndpoint(t *testing.T) {
	_, err := TopoOrder([]string{"a"}, []Dependency{link("a", "ghost")})
	if !errors.Is(err, ErrUnknownTask) {
		t.Fatalf("err = %v, want ErrUnknownTask", err)
	}
}

func TestIncomingOutgoing(t *testing.T) {
	deps := []Dependency{link("a", "c"), link("b", "c"), link("c", "d")}

	in := Incoming(deps)
	if len(in["c"]) != 2 || len(in["d"]) != 1 || len(in["a"]) != 0 {
		t.Errorf("Incoming grouping wrong: %v", in)
	}
	out := Outgoing(deps)
	if len(out["a"]) != 1 || len(out["c"]) != 1 || len(out["d"]) != 0 {
		t.Errorf("Outgoing grouping wrong: %v", out)
	}
}
