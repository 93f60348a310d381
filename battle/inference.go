package battle

import (
	"errors"

	"github.com/jordanwry/showdown/possibility"
)

// SubReason is an atomic claim about hidden state that a later
// observation may prove or disprove.
type SubReason interface {
	// Assert marks the claim true, narrowing tracked state.
	Assert() error
	// Reject marks the claim false.
	Reject() error
	// Delay registers cb for when the claim's truth becomes known,
	// even if determined indirectly through tracker narrowing. The
	// returned cancel revokes an unfired registration.
	Delay(cb func(held bool)) (cancel func())
}

// classReason claims that a possibility tracker's true value lies
// within a subset of its candidates.
type classReason[T comparable] struct {
	cls    *possibility.Class[T]
	within []T
}

// ReasonIn builds the claim "cls's value is one of within".
func ReasonIn[T comparable](cls *possibility.Class[T], within ...T) SubReason {
	return &classReason[T]{cls: cls, within: within}
}

func (r *classReason[T]) Assert() error { return r.cls.Narrow(r.within...) }
func (r *classReason[T]) Reject() error { return r.cls.Remove(r.within...) }
func (r *classReason[T]) Delay(cb func(held bool)) (cancel func()) {
	return r.cls.OnUpdate(r.within, cb)
}

// SubInference is one candidate explanation for an ambiguous event: an
// immutable set of reasons that stand or fall together.
type SubInference struct {
	name     string
	reasons  []SubReason
	resolved bool
}

// NewSubInference builds a named explanation from its member reasons.
func NewSubInference(name string, reasons ...SubReason) *SubInference {
	return &SubInference{name: name, reasons: reasons}
}

// Name returns the explanation's display name.
func (s *SubInference) Name() string { return s.name }

// Resolve asserts every member reason when held, rejects every member
// otherwise. Resolving twice is a no-op: truth values propagate at
// most once.
func (s *SubInference) Resolve(held bool) error {
	if s.resolved {
		return nil
	}
	s.resolved = true
	var errs []error
	for _, r := range s.reasons {
		var err error
		if held {
			err = r.Assert()
		} else {
			err = r.Reject()
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// EventInference is one ambiguous decision point: mutually exclusive
// candidate explanations plus an inner parser that must identify
// exactly one of them before committing to an event.
type EventInference[T any] struct {
	// Name labels the decision point in logs and errors.
	Name string
	// Cases are the mutually exclusive candidate explanations.
	Cases []*SubInference
	// Parse examines the upcoming event; to commit it passes the one
	// explaining case to accept, which consumes-commits through the
	// unordered engine and propagates truth values. Returning without
	// calling accept passes on the event.
	Parse func(ctx *Context, accept func(*SubInference) error) (T, error)
}

// Deadline adapts the inference to an unordered-engine candidate. The
// specialized accept forwards the plain acceptance signal, then
// resolves the chosen case true and every sibling false. An expired
// deadline resolves every case false: none of the candidate
// explanations occurred.
func (ei *EventInference[T]) Deadline() Deadline[T] {
	return Deadline[T]{
		Name: ei.Name,
		Parse: func(ctx *Context, accept AcceptFn) (T, error) {
			return ei.Parse(ctx, func(chosen *SubInference) error {
				if !ei.owns(chosen) {
					return contractf("inference %s accepted a foreign case", ei.Name)
				}
				accept()
				return ei.commit(chosen)
			})
		},
		Reject: ei.RejectAll,
	}
}

func (ei *EventInference[T]) owns(s *SubInference) bool {
	for _, c := range ei.Cases {
		if c == s {
			return true
		}
	}
	return false
}

// commit resolves the chosen case true and all others false.
func (ei *EventInference[T]) commit(chosen *SubInference) error {
	var errs []error
	if err := chosen.Resolve(true); err != nil {
		errs = append(errs, err)
	}
	for _, c := range ei.Cases {
		if c == chosen {
			continue
		}
		if err := c.Resolve(false); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RejectAll resolves every case false, for use when the inference's
// structural deadline passed without a commitment.
func (ei *EventInference[T]) RejectAll() error {
	var errs []error
	for _, c := range ei.Cases {
		if err := c.Resolve(false); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CasesOver builds inference cases from a tracker's remaining
// candidates. For each value still in cls, pred returns the extra
// reasons that must hold for that value to explain the upcoming
// event, or ok=false when the value could not possibly produce it;
// such values are excluded from the case set entirely. Every case
// additionally claims that the tracker equals its value.
func CasesOver[T comparable](name func(T) string, cls *possibility.Class[T], pred func(v T) (extra []SubReason, ok bool)) []*SubInference {
	var cases []*SubInference
	for _, v := range cls.Candidates() {
		extra, ok := pred(v)
		if !ok {
			continue
		}
		reasons := append([]SubReason{ReasonIn(cls, v)}, extra...)
		cases = append(cases, NewSubInference(name(v), reasons...))
	}
	return cases
}
