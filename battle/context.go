package battle

import (
	"github.com/sirupsen/logrus"

	"github.com/jordanwry/showdown/dex"
	"github.com/jordanwry/showdown/protocol"
	"github.com/jordanwry/showdown/state"
)

// SendFn delivers an outbound room command ("/choose move 1") to the
// transport layer.
type SendFn func(cmd string) error

// Agent is the injected decision policy. It reorders choices in
// place, most preferred first; the parser sends the first entry back
// to the server. Called again with a shrunken list when the server
// rejects a choice.
type Agent func(ctx *Context, choices []Choice) error

// Context is the mutable environment threaded through every parse
// function: the event cursor, the tracked battle state, the injected
// agent, and the outbound sender. It is owned by exactly one session
// goroutine.
type Context struct {
	Log   logrus.FieldLogger
	State *state.Battle
	Dex   *dex.Dex

	agent    Agent
	send     SendFn
	username string
	cur      *Cursor
}

// Peek returns the earliest unconsumed event, suspending the session
// when none is buffered yet.
func (c *Context) Peek() (protocol.Event, error) { return c.cur.Peek() }

// TryPeek returns the earliest unconsumed event without suspending.
func (c *Context) TryPeek() (protocol.Event, bool) { return c.cur.TryPeek() }

// Consume commits the most recently peeked event.
func (c *Context) Consume() (protocol.Event, error) { return c.cur.Consume() }

// Verify peeks and checks pred against the upcoming event. A failed
// predicate is a contract violation: the stream diverged from an
// assumption the caller absolutely required. The event is returned
// unconsumed.
func (c *Context) Verify(what string, pred func(protocol.Event) bool) (protocol.Event, error) {
	ev, err := c.cur.Peek()
	if err != nil {
		return protocol.Event{}, err
	}
	if !pred(ev) {
		return protocol.Event{}, contractf("expected %s, got |%s| event", what, ev.Kind)
	}
	return ev, nil
}

// VerifyKind is Verify specialized to an event kind.
func (c *Context) VerifyKind(kind protocol.EventKind) (protocol.Event, error) {
	return c.Verify("|"+kind.String()+"|", func(ev protocol.Event) bool { return ev.Kind == kind })
}

// TryVerify peeks and checks pred, reporting ok=false instead of
// failing when the predicate does not hold. Used whenever the absence
// of the expected event is a legitimate outcome. The error return is
// only ever a suspension failure (halt).
func (c *Context) TryVerify(pred func(protocol.Event) bool) (protocol.Event, bool, error) {
	ev, err := c.cur.Peek()
	if err != nil {
		return protocol.Event{}, false, err
	}
	if !pred(ev) {
		return protocol.Event{}, false, nil
	}
	return ev, true, nil
}

// TryVerifyKind is TryVerify specialized to an event kind.
func (c *Context) TryVerifyKind(kind protocol.EventKind) (protocol.Event, bool, error) {
	return c.TryVerify(func(ev protocol.Event) bool { return ev.Kind == kind })
}

// Send delivers a room command through the configured sender.
func (c *Context) Send(cmd string) error {
	if c.send == nil {
		return nil
	}
	return c.send(cmd)
}
