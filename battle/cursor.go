package battle

import "github.com/jordanwry/showdown/protocol"

// resumeMsg travels driver -> session. halt requests a cooperative
// unwind instead of delivering an event.
type resumeMsg struct {
	ev   protocol.Event
	halt bool
}

// suspendMsg travels session -> driver. done means the parser function
// returned; otherwise the session is blocked waiting for an event.
type suspendMsg struct {
	done bool
}

// Cursor owns the ordered backlog of not-yet-consumed events for one
// battle session and the coroutine handshake with the session driver.
// The session goroutine is the only reader; the Iterator is the only
// writer. Suspension happens exclusively here: Peek on an empty
// backlog yields control back to the driver until the next event is
// fed in.
type Cursor struct {
	backlog  []protocol.Event
	resume   chan resumeMsg
	suspend  chan suspendMsg
	peeked   bool
	halted   bool
	consumed int
}

func newCursor() *Cursor {
	return &Cursor{
		resume:  make(chan resumeMsg),
		suspend: make(chan suspendMsg),
	}
}

// Peek returns the earliest unconsumed event. With an empty backlog it
// suspends the session until the driver feeds the next event, or
// returns ErrHalted when the driver requested termination.
func (c *Cursor) Peek() (protocol.Event, error) {
	if c.halted {
		return protocol.Event{}, ErrHalted
	}
	if len(c.backlog) == 0 {
		c.suspend <- suspendMsg{}
		msg := <-c.resume
		if msg.halt {
			c.halted = true
			return protocol.Event{}, ErrHalted
		}
		c.backlog = append(c.backlog, msg.ev)
	}
	c.peeked = true
	return c.backlog[0], nil
}

// TryPeek returns the earliest unconsumed event without ever
// suspending; ok is false when nothing is buffered.
func (c *Cursor) TryPeek() (protocol.Event, bool) {
	if c.halted || len(c.backlog) == 0 {
		return protocol.Event{}, false
	}
	c.peeked = true
	return c.backlog[0], true
}

// Consume commits the event most recently returned by Peek or
// TryPeek. Calling it without a peek in the current step is a
// contract violation.
func (c *Cursor) Consume() (protocol.Event, error) {
	if !c.peeked {
		return protocol.Event{}, contractf("consume without a preceding peek")
	}
	ev := c.backlog[0]
	c.backlog = c.backlog[1:]
	c.peeked = false
	c.consumed++
	return ev, nil
}

// Consumed returns the number of events consumed over the session's
// lifetime.
func (c *Cursor) Consumed() int { return c.consumed }
