// Package possibility tracks hidden attributes of game entities: values
// known to be exactly one member of a finite, shrinking candidate set.
// The owning entity holds the tracker; observers subscribe with integer
// handles rather than direct references.
package possibility

import (
	"errors"
	"fmt"
)

// ErrContradiction is returned when an operation would empty the
// candidate set. The set invariant (never empty) is load-bearing: an
// emptied set means a protocol assumption was wrong, so the operation
// must fail rather than proceed.
var ErrContradiction = errors.New("possibility: candidate set contradiction")

// subscription is one pending observer. Subscriptions fire at most
// once and are addressed by id so that cancellation never touches a
// neighbor's entry.
type subscription[T comparable] struct {
	id    int
	watch map[T]struct{}
	cb    func(kept bool)
	done  bool
}

// Class tracks one unknown ground-truth value over a finite candidate
// set. The set only ever shrinks; once it reaches a single value the
// class is resolved and never changes again.
type Class[T comparable] struct {
	candidates []T // current set, insertion order preserved
	member     map[T]struct{}
	subs       []subscription[T]
	nextSubID  int
}

// New creates a tracker over the given non-empty candidate set.
// Duplicate candidates are collapsed.
func New[T comparable](candidates ...T) (*Class[T], error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: created with no candidates", ErrContradiction)
	}
	c := &Class[T]{member: make(map[T]struct{}, len(candidates))}
	for _, v := range candidates {
		if _, dup := c.member[v]; dup {
			continue
		}
		c.member[v] = struct{}{}
		c.candidates = append(c.candidates, v)
	}
	return c, nil
}

// Size returns the number of remaining candidates.
func (c *Class[T]) Size() int { return len(c.candidates) }

// Candidates returns a copy of the remaining candidate set.
func (c *Class[T]) Candidates() []T {
	out := make([]T, len(c.candidates))
	copy(out, c.candidates)
	return out
}

// Contains reports whether v is still a candidate.
func (c *Class[T]) Contains(v T) bool {
	_, ok := c.member[v]
	return ok
}

// Resolved reports whether exactly one candidate remains.
func (c *Class[T]) Resolved() bool { return len(c.candidates) == 1 }

// Value returns the resolved value, or ok=false while more than one
// candidate remains.
func (c *Class[T]) Value() (T, bool) {
	if len(c.candidates) == 1 {
		return c.candidates[0], true
	}
	var zero T
	return zero, false
}

// Narrow intersects the candidate set with keep. An empty intersection
// is a contradiction and leaves the set untouched. Narrowing a
// resolved class to a set containing its value is a no-op.
func (c *Class[T]) Narrow(keep ...T) error {
	keepSet := make(map[T]struct{}, len(keep))
	for _, v := range keep {
		keepSet[v] = struct{}{}
	}
	next := c.candidates[:0:0]
	for _, v := range c.candidates {
		if _, ok := keepSet[v]; ok {
			next = append(next, v)
		}
	}
	return c.apply(next, "narrow")
}

// Remove subtracts drop from the candidate set. Removing the last
// candidate is a contradiction and leaves the set untouched.
func (c *Class[T]) Remove(drop ...T) error {
	dropSet := make(map[T]struct{}, len(drop))
	for _, v := range drop {
		dropSet[v] = struct{}{}
	}
	next := c.candidates[:0:0]
	for _, v := range c.candidates {
		if _, ok := dropSet[v]; !ok {
			next = append(next, v)
		}
	}
	return c.apply(next, "remove")
}

// apply commits a shrunken candidate slice, then fires any
// subscriptions whose outcome is now known.
func (c *Class[T]) apply(next []T, op string) error {
	if len(next) == 0 {
		return fmt.Errorf("%w: %s emptied set (had %d candidates)", ErrContradiction, op, len(c.candidates))
	}
	if len(next) == len(c.candidates) {
		return nil
	}
	c.candidates = next
	c.member = make(map[T]struct{}, len(next))
	for _, v := range next {
		c.member[v] = struct{}{}
	}
	c.fire()
	return nil
}

// OnUpdate registers cb to fire exactly once: with kept=true when the
// class resolves to a value inside watch, or kept=false as soon as
// every watched value has been excluded. If the outcome is already
// known the callback fires synchronously before OnUpdate returns. The
// returned cancel revokes a subscription that has not yet fired.
func (c *Class[T]) OnUpdate(watch []T, cb func(kept bool)) (cancel func()) {
	watchSet := make(map[T]struct{}, len(watch))
	for _, v := range watch {
		watchSet[v] = struct{}{}
	}
	sub := subscription[T]{id: c.nextSubID, watch: watchSet, cb: cb}
	c.nextSubID++

	if kept, known := c.outcome(watchSet); known {
		cb(kept)
		return func() {}
	}

	c.subs = append(c.subs, sub)
	id := sub.id
	return func() {
		for i := range c.subs {
			if c.subs[i].id == id {
				c.subs[i].done = true
				return
			}
		}
	}
}

// outcome reports whether a watch set's fate is decided yet.
func (c *Class[T]) outcome(watch map[T]struct{}) (kept, known bool) {
	overlap := false
	for v := range watch {
		if _, ok := c.member[v]; ok {
			overlap = true
			break
		}
	}
	if !overlap {
		return false, true
	}
	if len(c.candidates) == 1 {
		// Resolved, and the overlap check above means the value is watched.
		return true, true
	}
	return false, false
}

// fire walks subscriptions after a shrink and invokes the decided ones.
// Each subscription is marked done before its callback runs, so
// reentrant narrowing from inside a callback cannot double-fire it.
// Fired entries stay in place as tombstones; a tracker lives only as
// long as its owning entity, so they are not compacted.
func (c *Class[T]) fire() {
	for i := 0; i < len(c.subs); i++ {
		if c.subs[i].done {
			continue
		}
		kept, known := c.outcome(c.subs[i].watch)
		if !known {
			continue
		}
		c.subs[i].done = true
		c.subs[i].cb(kept)
	}
}
