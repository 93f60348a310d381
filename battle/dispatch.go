package battle

import "github.com/jordanwry/showdown/protocol"

// HandlerFunc processes the upcoming event; it is responsible for
// consuming it (directly or through nested parsers).
type HandlerFunc func(ctx *Context) error

// Dispatcher maps an event's kind to a registered handler. Kinds
// without a registration fall through to a default handler that
// consumes the event and performs no state mutation, so no event is
// ever silently lost or left stuck in the cursor.
type Dispatcher struct {
	handlers map[protocol.EventKind]HandlerFunc
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[protocol.EventKind]HandlerFunc)}
}

// Handle registers fn for kind, replacing any previous registration.
// Returns the dispatcher for chaining.
func (d *Dispatcher) Handle(kind protocol.EventKind, fn HandlerFunc) *Dispatcher {
	d.handlers[kind] = fn
	return d
}

// Dispatch peeks the upcoming event and runs its handler. Handlers
// must not depend on dispatch order of unrelated kinds beyond what the
// battle-state contract already encodes.
func (d *Dispatcher) Dispatch(ctx *Context) error {
	ev, err := ctx.Peek()
	if err != nil {
		return err
	}
	if fn, ok := d.handlers[ev.Kind]; ok {
		return fn(ctx)
	}
	return ConsumeIgnored(ctx)
}

// ConsumeIgnored is the default handler: verify something is buffered,
// consume it, mutate nothing.
func ConsumeIgnored(ctx *Context) error {
	if _, err := ctx.Peek(); err != nil {
		return err
	}
	_, err := ctx.Consume()
	return err
}
