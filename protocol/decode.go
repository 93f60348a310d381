package protocol

import (
	"fmt"
	"strings"
)

// DecodeError describes a wire line the decoder could not turn into an
// event. Decode errors are fatal to the enclosing stream: the protocol
// contract requires a total, order-preserving event sequence, so a bad
// line must surface rather than be dropped.
type DecodeError struct {
	Line   string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("protocol: cannot decode %q: %s", e.Line, e.Reason)
}

// minArgs holds per-kind minimum positional argument counts. Kinds not
// listed accept any arity.
var minArgs = map[EventKind]int{
	Player:       2,
	TeamSize:     2,
	Move:         2,
	Switch:       2,
	Drag:         2,
	Faint:        1,
	Turn:         1,
	Request:      1,
	MinorDamage:  2,
	MinorHeal:    2,
	MinorStatus:  2,
	MinorBoost:   3,
	MinorUnboost: 3,
	MinorAbility: 2,
	MinorItem:    2,
	MinorWeather: 1,
}

// DecodeLine decodes a single wire line into an Event. Lines that do
// not start with '|' (server log output, rule text continuation) decode
// to a Raw event carrying the whole line.
func DecodeLine(line string) (Event, error) {
	if !strings.HasPrefix(line, "|") {
		return Event{Kind: Raw, Args: []string{line}}, nil
	}
	parts := strings.Split(line[1:], "|")
	typ := parts[0]
	if typ == "" {
		// "||text" is a log line.
		return Event{Kind: Raw, Args: parts[1:]}, nil
	}
	if strings.ContainsAny(typ, " \t") {
		return Event{}, &DecodeError{Line: line, Reason: "whitespace in type segment"}
	}

	kind := KindOf(typ)
	ev := Event{Kind: kind}

	for _, p := range parts[1:] {
		// Request payloads are JSON and may contain brackets; never
		// treat them as keyword arguments. Annotation keys are single
		// bracketed words ("[from]", "[of]"); anything else that starts
		// with '[' — bracketed text with whitespace ("[Gen 9] OU"),
		// free text with no closing bracket at all — is a positional
		// argument, since chat lines may carry arbitrary user text.
		if kind != Request && strings.HasPrefix(p, "[") {
			if end := strings.IndexByte(p, ']'); end >= 0 {
				key := p[1:end]
				if !strings.ContainsAny(key, " \t") {
					val := strings.TrimPrefix(p[end+1:], " ")
					if ev.KwArgs == nil {
						ev.KwArgs = make(map[string]string, 2)
					}
					ev.KwArgs[key] = val
					continue
				}
			}
		}
		ev.Args = append(ev.Args, p)
	}

	if min, ok := minArgs[kind]; ok && len(ev.Args) < min {
		return Event{}, &DecodeError{
			Line:   line,
			Reason: fmt.Sprintf("%s needs at least %d arguments, got %d", kind, min, len(ev.Args)),
		}
	}
	return ev, nil
}

// Decode decodes one websocket message block. A block is optionally
// prefixed by a ">roomid" line and contains one message per line.
// Blank lines are skipped. The returned room is "" for global blocks.
func Decode(block string) (room string, events []Event, err error) {
	lines := strings.Split(block, "\n")
	if len(lines) > 0 && strings.HasPrefix(lines[0], ">") {
		room = strings.TrimSpace(lines[0][1:])
		lines = lines[1:]
	}
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		ev, err := DecodeLine(line)
		if err != nil {
			return room, events, err
		}
		events = append(events, ev)
	}
	return room, events, nil
}
