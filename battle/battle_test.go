package battle

import (
	"testing"

	"github.com/jordanwry/showdown/dex"
	"github.com/jordanwry/showdown/protocol"
)

func testDex(t *testing.T) *dex.Dex {
	t.Helper()
	d, err := dex.Load()
	if err != nil {
		t.Fatalf("loading dex: %v", err)
	}
	return d
}

// startParser launches a session whose parser is fn, with a pass-through
// agent and no sender. The wrapped parser discards the result value so
// unit tests can exercise individual combinators.
func startParser(t *testing.T, fn func(ctx *Context) error) *Iterator {
	t.Helper()
	it, err := Start(Config{
		Username: "testbot",
		Agent:    func(*Context, []Choice) error { return nil },
		Dex:      testDex(t),
	}, func(ctx *Context) (Result, error) {
		return Result{}, fn(ctx)
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return it
}

func decode(t *testing.T, line string) protocol.Event {
	t.Helper()
	ev, err := protocol.DecodeLine(line)
	if err != nil {
		t.Fatalf("decoding %q: %v", line, err)
	}
	return ev
}

// feed pushes lines into the session one at a time, stopping early if
// the parser terminates.
func feed(t *testing.T, it *Iterator, lines ...string) (done bool, err error) {
	t.Helper()
	for _, line := range lines {
		done, err = it.Next(decode(t, line))
		if done {
			return done, err
		}
	}
	return done, err
}

// mustFinish asserts the session already terminated and returns its
// outcome.
func mustFinish(t *testing.T, it *Iterator) (Result, error) {
	t.Helper()
	if !it.Done() {
		t.Fatalf("session still running")
	}
	res, err := it.Finish()
	return res, err
}
