package battle

import "errors"

// AcceptFn signals that a candidate commits to consuming the current
// event. It must be called at most once, before the candidate's first
// Consume; commitment is atomic from the perspective of every sibling
// candidate.
type AcceptFn func()

// Deadline is a candidate computation competing for upcoming events.
// Parse examines the buffered event and either calls accept and
// consumes it, or returns without accepting to pass. Reject runs when
// the candidate's structural deadline expires without an acceptance;
// it may itself raise a contract violation when the caller considered
// that outcome impossible.
type Deadline[T any] struct {
	Name   string
	Parse  func(ctx *Context, accept AcceptFn) (T, error)
	Reject func() error
}

// acceptToken enforces the accept-exactly-once invariant structurally:
// the engine inspects it after each trial instead of trusting the
// candidate.
type acceptToken struct {
	fired  bool
	double bool
}

func (t *acceptToken) fn() AcceptFn {
	return func() {
		if t.fired {
			t.double = true
			return
		}
		t.fired = true
	}
}

// All evaluates competing candidates against the event stream where
// arrival order does not determine which candidate consumes which
// event. For the earliest unconsumed event, candidates are offered a
// trial in the supplied order; an acceptance removes the candidate and
// restarts the pass, since its removal can unblock siblings. The
// optional filter runs before every trial to consume events irrelevant
// to all remaining candidates; if the filter itself accepts, the phase
// is over and every remaining candidate is rejected. A full pass with
// neither an acceptance nor a cursor advance is a deadlock: everyone
// still pending is rejected and evaluation ends. Results are returned
// in acceptance order.
func All[T any](ctx *Context, candidates []Deadline[T], filter *Deadline[T]) ([]T, error) {
	pending := make([]Deadline[T], len(candidates))
	copy(pending, candidates)
	var results []T

outer:
	for len(pending) > 0 {
		if _, err := ctx.Peek(); err != nil {
			return results, unwind(pending, -1, err)
		}
		for i := 0; i < len(pending); i++ {
			if filter != nil {
				stop, advanced, err := runFilter(ctx, filter)
				if err != nil {
					return results, unwind(pending, -1, err)
				}
				if stop {
					return results, rejectAll(pending)
				}
				if advanced {
					continue outer
				}
			}
			res, ok, err := trial(ctx, &pending[i])
			if err != nil {
				return results, unwind(pending, i, err)
			}
			if ok {
				results = append(results, res)
				pending = append(pending[:i], pending[i+1:]...)
				continue outer
			}
		}
		// Deadlock: nobody accepted the buffered event and the filter
		// did not advance past it. The phase is structurally over.
		if err := rejectAll(pending); err != nil {
			return results, err
		}
		pending = nil
	}
	return results, nil
}

// OneOf offers the current event to each candidate in order. The
// first to accept wins; every other candidate is rejected exactly
// once. When nobody accepts, ok is false and the event remains
// unconsumed for the next stage.
func OneOf[T any](ctx *Context, candidates ...Deadline[T]) (res T, ok bool, err error) {
	var zero T
	if _, err := ctx.Peek(); err != nil {
		return zero, false, unwind(candidates, -1, err)
	}
	for i := 0; i < len(candidates); i++ {
		res, accepted, err := trial(ctx, &candidates[i])
		if err != nil {
			return zero, false, unwind(candidates, i, err)
		}
		if accepted {
			var rejErr error
			for j := range candidates {
				if j == i {
					continue
				}
				if e := reject(&candidates[j]); e != nil && rejErr == nil {
					rejErr = e
				}
			}
			return res, true, rejErr
		}
	}
	return zero, false, nil
}

// trial offers the buffered event to one candidate and reports whether
// it accepted. Consuming without accepting would steal the event from
// a sibling branch, so it is flagged as a contract violation.
func trial[T any](ctx *Context, cand *Deadline[T]) (T, bool, error) {
	var zero T
	before := ctx.cur.Consumed()
	tok := &acceptToken{}
	res, err := cand.Parse(ctx, tok.fn())
	if err != nil {
		return zero, false, err
	}
	if tok.double {
		return zero, false, contractf("candidate %s accepted twice", cand.Name)
	}
	if !tok.fired {
		if ctx.cur.Consumed() != before {
			return zero, false, contractf("candidate %s consumed without accepting", cand.Name)
		}
		return zero, false, nil
	}
	return res, true, nil
}

// runFilter runs the filter candidate once. stop means the filter
// accepted (phase over); advanced means it consumed an event without
// accepting, so the pass restarts against the next event.
func runFilter[T any](ctx *Context, filter *Deadline[T]) (stop, advanced bool, err error) {
	before := ctx.cur.Consumed()
	tok := &acceptToken{}
	if _, err := filter.Parse(ctx, tok.fn()); err != nil {
		return false, false, err
	}
	if tok.double {
		return false, false, contractf("filter %s accepted twice", filter.Name)
	}
	return tok.fired, ctx.cur.Consumed() != before, nil
}

// reject runs a candidate's rejection callback, tolerating absent ones.
func reject[T any](cand *Deadline[T]) error {
	if cand.Reject == nil {
		return nil
	}
	return cand.Reject()
}

// rejectAll rejects pending candidates in order, running every
// callback exactly once even when an earlier one fails; the first
// failure is returned.
func rejectAll[T any](pending []Deadline[T]) error {
	var first error
	for i := range pending {
		if err := reject(&pending[i]); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// unwind handles a fatal or halt error raised mid-evaluation: every
// still-suspended candidate gets its rejection callback in reverse
// registration order, then the original error propagates (joined with
// any cleanup failures). The candidate at skip is the one whose own
// Parse raised the error; it already ran to completion, so it gets no
// rejection. Pass skip -1 when the error came from the engine itself.
func unwind[T any](pending []Deadline[T], skip int, err error) error {
	var rejErr error
	for i := len(pending) - 1; i >= 0; i-- {
		if i == skip {
			continue
		}
		if e := reject(&pending[i]); e != nil && rejErr == nil {
			rejErr = e
		}
	}
	if rejErr != nil {
		return errors.Join(err, rejErr)
	}
	return err
}
