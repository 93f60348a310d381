package battle

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/jordanwry/showdown/dex"
	"github.com/jordanwry/showdown/protocol"
	"github.com/jordanwry/showdown/state"
)

// Config supplies the collaborators a battle session needs.
type Config struct {
	// Username identifies which |player| line refers to this client.
	Username string
	// Agent is the injected decision policy. Required.
	Agent Agent
	// Send delivers outbound room commands. Optional; nil discards.
	Send SendFn
	// Log receives structured session logging. Optional.
	Log logrus.FieldLogger
	// Dex supplies the static data tables. Required.
	Dex *dex.Dex
}

// ParserFunc is a top-level battle parser: a suspendable computation
// that consumes the session's whole event stream and produces the
// terminal result.
type ParserFunc func(ctx *Context) (Result, error)

// Result is a finished battle's outcome.
type Result struct {
	// Winner is the winning player's name; "" on a tie.
	Winner string
	Tie    bool
	Turns  int
}

// Iterator drives one battle session. Exactly one goroutine runs the
// parser; Next and Return alternate control with it, so Iterator
// methods must be called from a single driving goroutine.
type Iterator struct {
	cur  *Cursor
	done bool
	res  Result
	err  error
}

// Start launches a session running parser and advances it until it
// first suspends (or finishes without consuming anything).
func Start(cfg Config, parser ParserFunc) (*Iterator, error) {
	if cfg.Agent == nil {
		return nil, errors.New("battle: Config.Agent is required")
	}
	if cfg.Dex == nil {
		return nil, errors.New("battle: Config.Dex is required")
	}
	log := cfg.Log
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}

	cur := newCursor()
	ctx := &Context{
		Log:      log,
		State:    state.New(cfg.Dex),
		Dex:      cfg.Dex,
		agent:    cfg.Agent,
		send:     cfg.Send,
		username: cfg.Username,
		cur:      cur,
	}
	it := &Iterator{cur: cur}

	go func() {
		res, err := parser(ctx)
		// The driver only reads these after receiving the final
		// suspend message, which orders the writes.
		it.res, it.err = res, err
		cur.suspend <- suspendMsg{done: true}
	}()
	msg := <-cur.suspend
	it.done = msg.done
	return it, nil
}

// Next feeds one decoded event and resumes the session until it either
// suspends waiting for the next event or terminates. done=true means
// the parser reached its terminal state; the error, if any, is the
// parser's terminal error.
func (it *Iterator) Next(ev protocol.Event) (done bool, err error) {
	if it.done {
		return true, it.err
	}
	it.cur.resume <- resumeMsg{ev: ev}
	msg := <-it.cur.suspend
	if msg.done {
		it.done = true
		return true, it.err
	}
	return false, nil
}

// Return forces cooperative early termination: the suspended parser
// unwinds, giving every pending branch its rejection callback. The
// returned error is non-nil only when a cleanup path raised something
// beyond the plain halt.
func (it *Iterator) Return() error {
	if it.done {
		return nil
	}
	it.cur.resume <- resumeMsg{halt: true}
	<-it.cur.suspend
	it.done = true
	return nonHalt(it.err)
}

// nonHalt strips the plain halt signal from a terminal error. A halt
// joined with cleanup failures keeps the failures: a rejection that
// raised a contract violation during the unwind must still surface.
func nonHalt(err error) error {
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrHalted) {
		return err
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var rest []error
		for _, e := range joined.Unwrap() {
			if e := nonHalt(e); e != nil {
				rest = append(rest, e)
			}
		}
		return errors.Join(rest...)
	}
	return nil
}

// Done reports whether the session has terminated.
func (it *Iterator) Done() bool { return it.done }

// Finish returns the terminal result. Valid once Done reports true;
// the error mirrors what the parser terminated with.
func (it *Iterator) Finish() (Result, error) {
	if !it.done {
		return Result{}, errors.New("battle: session still running")
	}
	return it.res, it.err
}

// Consumed returns the number of events the session has consumed.
func (it *Iterator) Consumed() int { return it.cur.Consumed() }
