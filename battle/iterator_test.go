package battle

import (
	"errors"
	"testing"

	"github.com/jordanwry/showdown/protocol"
)

func TestIteratorRunsToCompletion(t *testing.T) {
	var kinds []protocol.EventKind
	it := startParser(t, func(ctx *Context) error {
		for i := 0; i < 2; i++ {
			ev, err := ctx.Peek()
			if err != nil {
				return err
			}
			kinds = append(kinds, ev.Kind)
			if _, err := ctx.Consume(); err != nil {
				return err
			}
		}
		return nil
	})

	done, err := feed(t, it, "|turn|1")
	if done || err != nil {
		t.Fatalf("after first event: done=%v err=%v", done, err)
	}
	done, err = feed(t, it, "|upkeep")
	if !done || err != nil {
		t.Fatalf("after second event: done=%v err=%v", done, err)
	}
	if kinds[0] != protocol.Turn || kinds[1] != protocol.Upkeep {
		t.Fatalf("parser saw %v", kinds)
	}
	if _, err := mustFinish(t, it); err != nil {
		t.Fatalf("finish: %v", err)
	}
}

func TestConsumeWithoutPeekIsContractViolation(t *testing.T) {
	it := startParser(t, func(ctx *Context) error {
		if _, err := ctx.Peek(); err != nil {
			return err
		}
		if _, err := ctx.Consume(); err != nil {
			return err
		}
		// Second consume with no intervening peek.
		_, err := ctx.Consume()
		return err
	})

	done, _ := feed(t, it, "|turn|1")
	if !done {
		t.Fatalf("expected immediate termination")
	}
	_, err := mustFinish(t, it)
	if !errors.Is(err, ErrContract) {
		t.Fatalf("expected contract violation, got %v", err)
	}
}

func TestConsumedCountsEveryCommittedEvent(t *testing.T) {
	it := startParser(t, func(ctx *Context) error {
		for i := 0; i < 3; i++ {
			if _, err := ctx.Peek(); err != nil {
				return err
			}
			if _, err := ctx.Consume(); err != nil {
				return err
			}
		}
		return nil
	})

	feed(t, it, "|turn|1", "|upkeep", "|turn|2")
	if got := it.Consumed(); got != 3 {
		t.Fatalf("Consumed() = %d, want 3", got)
	}
}

func TestReturnHaltsSuspendedParser(t *testing.T) {
	sawHalt := false
	it := startParser(t, func(ctx *Context) error {
		_, err := ctx.Peek()
		if errors.Is(err, ErrHalted) {
			sawHalt = true
		}
		return err
	})

	if err := it.Return(); err != nil {
		t.Fatalf("Return: %v", err)
	}
	if !sawHalt {
		t.Fatalf("parser never observed the halt")
	}
	if !it.Done() {
		t.Fatalf("session should be done after Return")
	}
}

func TestReturnRejectsPendingCandidates(t *testing.T) {
	rejected := false
	it := startParser(t, func(ctx *Context) error {
		_, err := All(ctx, []Deadline[int]{{
			Name:  "never",
			Parse: func(ctx *Context, _ AcceptFn) (int, error) { _, err := ctx.Peek(); return 0, err },
			Reject: func() error {
				rejected = true
				return nil
			},
		}}, nil)
		return err
	})

	if err := it.Return(); err != nil {
		t.Fatalf("Return: %v", err)
	}
	if !rejected {
		t.Fatalf("pending candidate was not rejected on halt")
	}
}

func TestReturnSurfacesCleanupErrors(t *testing.T) {
	boom := errors.New("impossible outcome")
	it := startParser(t, func(ctx *Context) error {
		_, err := All(ctx, []Deadline[int]{{
			Name:   "required",
			Parse:  func(ctx *Context, _ AcceptFn) (int, error) { _, err := ctx.Peek(); return 0, err },
			Reject: func() error { return boom },
		}}, nil)
		return err
	})

	err := it.Return()
	if !errors.Is(err, boom) {
		t.Fatalf("cleanup error was swallowed, got %v", err)
	}
	if errors.Is(err, ErrHalted) {
		t.Fatalf("plain halt should be stripped from the returned error, got %v", err)
	}
}

func TestFinishWhileRunningIsAnError(t *testing.T) {
	it := startParser(t, func(ctx *Context) error {
		_, err := ctx.Peek()
		return err
	})
	if _, err := it.Finish(); err == nil {
		t.Fatalf("Finish on a running session should fail")
	}
	it.Return()
}

func TestStartRequiresAgentAndDex(t *testing.T) {
	if _, err := Start(Config{Dex: testDex(t)}, func(*Context) (Result, error) { return Result{}, nil }); err == nil {
		t.Fatalf("missing agent accepted")
	}
	if _, err := Start(Config{Agent: func(*Context, []Choice) error { return nil }}, func(*Context) (Result, error) { return Result{}, nil }); err == nil {
		t.Fatalf("missing dex accepted")
	}
}

func TestTryPeekNeverSuspends(t *testing.T) {
	it := startParser(t, func(ctx *Context) error {
		if _, ok := ctx.TryPeek(); ok {
			return errors.New("TryPeek reported an event on an empty backlog")
		}
		ev, err := ctx.Peek()
		if err != nil {
			return err
		}
		got, ok := ctx.TryPeek()
		if !ok || got.Kind != ev.Kind {
			return errors.New("TryPeek disagreed with Peek")
		}
		_, err = ctx.Consume()
		return err
	})

	done, err := feed(t, it, "|turn|1")
	if !done || err != nil {
		t.Fatalf("done=%v err=%v", done, err)
	}
}
