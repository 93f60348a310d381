package possibility

import (
	"errors"
	"testing"
)

func newABC(t *testing.T) *Class[string] {
	t.Helper()
	c, err := New("A", "B", "C")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestNewRejectsEmpty(t *testing.T) {
	if _, err := New[string](); !errors.Is(err, ErrContradiction) {
		t.Fatalf("New with no candidates: want ErrContradiction, got %v", err)
	}
}

func TestNewCollapsesDuplicates(t *testing.T) {
	c, err := New("A", "B", "A")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if c.Size() != 2 {
		t.Errorf("Size: want 2, got %d", c.Size())
	}
}

func TestNarrowShrinksMonotonically(t *testing.T) {
	c := newABC(t)
	if err := c.Narrow("A", "B"); err != nil {
		t.Fatalf("Narrow failed: %v", err)
	}
	if c.Size() != 2 {
		t.Errorf("Size after narrow: want 2, got %d", c.Size())
	}
	if c.Contains("C") {
		t.Error("C should be excluded after Narrow(A, B)")
	}
	// Narrowing with a superset never grows the set back.
	if err := c.Narrow("A", "B", "C"); err != nil {
		t.Fatalf("superset Narrow failed: %v", err)
	}
	if c.Size() != 2 || c.Contains("C") {
		t.Error("candidate set grew after superset narrow")
	}
}

func TestRemoveResolves(t *testing.T) {
	c := newABC(t)
	if err := c.Remove("B", "C"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !c.Resolved() {
		t.Fatal("class should be resolved after removing all but one")
	}
	v, ok := c.Value()
	if !ok || v != "A" {
		t.Errorf("Value: want A, got %q (ok=%v)", v, ok)
	}
}

func TestContradictionIsFatal(t *testing.T) {
	c := newABC(t)
	if err := c.Narrow("D"); !errors.Is(err, ErrContradiction) {
		t.Fatalf("Narrow to disjoint set: want ErrContradiction, got %v", err)
	}
	// The failed operation must not have touched the set.
	if c.Size() != 3 {
		t.Errorf("Size after failed narrow: want 3, got %d", c.Size())
	}
	if err := c.Remove("A", "B", "C"); !errors.Is(err, ErrContradiction) {
		t.Fatalf("Remove of everything: want ErrContradiction, got %v", err)
	}
	if c.Size() != 3 {
		t.Errorf("Size after failed remove: want 3, got %d", c.Size())
	}
}

func TestNarrowResolvedIsNoOp(t *testing.T) {
	c := newABC(t)
	if err := c.Narrow("A"); err != nil {
		t.Fatalf("Narrow failed: %v", err)
	}
	if err := c.Narrow("A"); err != nil {
		t.Fatalf("re-narrow of a resolved class should be a no-op, got %v", err)
	}
	if err := c.Narrow("B"); !errors.Is(err, ErrContradiction) {
		t.Fatalf("conflicting narrow of a resolved class: want ErrContradiction, got %v", err)
	}
}

func TestOnUpdateKept(t *testing.T) {
	c := newABC(t)
	fired := 0
	kept := false
	c.OnUpdate([]string{"A", "B"}, func(k bool) {
		fired++
		kept = k
	})
	if fired != 0 {
		t.Fatal("callback fired before resolution")
	}
	if err := c.Remove("B"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if fired != 0 {
		t.Fatal("callback fired while watch set outcome was still open")
	}
	if err := c.Remove("C"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if fired != 1 || !kept {
		t.Errorf("callback: want fired once with kept=true, got fired=%d kept=%v", fired, kept)
	}
}

func TestOnUpdateExcluded(t *testing.T) {
	c := newABC(t)
	fired := 0
	kept := true
	c.OnUpdate([]string{"C"}, func(k bool) {
		fired++
		kept = k
	})
	// Excluding C decides the watch set even though the class is not
	// yet resolved.
	if err := c.Remove("C"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if fired != 1 || kept {
		t.Errorf("callback: want fired once with kept=false, got fired=%d kept=%v", fired, kept)
	}
	if c.Resolved() {
		t.Error("class should not be resolved yet")
	}
}

func TestOnUpdateAfterResolution(t *testing.T) {
	c := newABC(t)
	if err := c.Narrow("B"); err != nil {
		t.Fatalf("Narrow failed: %v", err)
	}
	fired := 0
	kept := false
	c.OnUpdate([]string{"B"}, func(k bool) {
		fired++
		kept = k
	})
	if fired != 1 || !kept {
		t.Errorf("late subscriber: want immediate kept=true, got fired=%d kept=%v", fired, kept)
	}
}

func TestOnUpdateCancel(t *testing.T) {
	c := newABC(t)
	fired := 0
	cancel := c.OnUpdate([]string{"A"}, func(bool) { fired++ })
	cancel()
	if err := c.Narrow("A"); err != nil {
		t.Fatalf("Narrow failed: %v", err)
	}
	if fired != 0 {
		t.Errorf("canceled subscription fired %d times", fired)
	}
}

func TestIndependentSubscribers(t *testing.T) {
	c := newABC(t)
	var got []string
	c.OnUpdate([]string{"A"}, func(k bool) {
		if k {
			got = append(got, "first")
		}
	})
	c.OnUpdate([]string{"B"}, func(k bool) {
		if !k {
			got = append(got, "second")
		}
	})
	if err := c.Narrow("A"); err != nil {
		t.Fatalf("Narrow failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want both subscribers to fire, got %v", got)
	}
}
