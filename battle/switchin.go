package battle

import (
	"strings"

	"github.com/jordanwry/showdown/protocol"
	"github.com/jordanwry/showdown/state"
)

// switchInInference builds the ambiguous decision point for a freshly
// active pokemon: which, if any, of its still-possible announcing
// abilities explains the announcement that may follow the switch-in.
// Candidates that never announce on switch-in cannot produce the event
// and are excluded from the case set. Returns nil when no candidate
// announces, in which case the switch carries no inference at all.
func (s *session) switchInInference(mon *state.Pokemon) *EventInference[struct{}] {
	d := s.ctx.Dex
	// Mirror CasesOver's candidate-order iteration to key each case by
	// its ability name.
	var announcers []string
	for _, a := range mon.Ability.Candidates() {
		if d.Abilities[a].OnSwitch {
			announcers = append(announcers, a)
		}
	}
	cases := CasesOver(
		func(a string) string { return mon.Species + " announces " + a },
		mon.Ability,
		func(a string) ([]SubReason, bool) { return nil, d.Abilities[a].OnSwitch },
	)
	if len(cases) == 0 {
		return nil
	}
	caseFor := make(map[string]*SubInference, len(cases))
	for i, a := range announcers {
		caseFor[a] = cases[i]
	}

	return &EventInference[struct{}]{
		Name:  "switch-in ability of " + mon.Species,
		Cases: cases,
		Parse: func(ctx *Context, accept func(*SubInference) error) (struct{}, error) {
			ev, ok, err := ctx.TryVerify(func(ev protocol.Event) bool {
				a, match := announcedAbility(ctx, ev, mon)
				return match && caseFor[a] != nil
			})
			if err != nil || !ok {
				return struct{}{}, err
			}
			ability, _ := announcedAbility(ctx, ev, mon)
			if err := accept(caseFor[ability]); err != nil {
				return struct{}{}, err
			}
			if ev.Kind == protocol.MinorWeather {
				ctx.State.Weather = ev.Arg(0)
			}
			_, err = ctx.Consume()
			return struct{}{}, err
		},
	}
}

// announcedAbility checks whether ev is a switch-in announcement made
// by mon and extracts the ability name. Two shapes occur on the wire:
//
//	|-ability|p2a: Gyarados|Intimidate|boost
//	|-weather|RainDance|[from] ability: Drizzle|[of] p2a: Kyogre
func announcedAbility(ctx *Context, ev protocol.Event, mon *state.Pokemon) (string, bool) {
	switch ev.Kind {
	case protocol.MinorAbility:
		id, ok := protocol.ParseIdent(ev.Arg(0))
		if !ok || !identifies(ctx, id, mon) {
			return "", false
		}
		return ev.Arg(1), true
	case protocol.MinorWeather:
		from, _ := ev.KwArg("from")
		ability, isAbility := strings.CutPrefix(from, "ability: ")
		if !isAbility {
			return "", false
		}
		of, hasOf := ev.KwArg("of")
		if !hasOf {
			return "", false
		}
		id, ok := protocol.ParseIdent(of)
		if !ok || !identifies(ctx, id, mon) {
			return "", false
		}
		return ability, true
	}
	return "", false
}

// identifies reports whether the ident refers to the tracked mon.
func identifies(ctx *Context, id protocol.Ident, mon *state.Pokemon) bool {
	side := ctx.State.Side(id.Side)
	return side != nil && side.Find(id.Name) == mon
}

// noiseFilter consumes events that are irrelevant to every candidate
// in an unordered phase (chat, join/leave churn, raw log output). It
// never accepts: phase boundaries are detected by deadlock, not by the
// filter.
func noiseFilter[T any]() *Deadline[T] {
	return &Deadline[T]{
		Name: "noise",
		Parse: func(ctx *Context, _ AcceptFn) (T, error) {
			var zero T
			_, ok, err := ctx.TryVerify(func(ev protocol.Event) bool {
				switch ev.Kind {
				case protocol.Raw, protocol.Chat, protocol.ChatTS,
					protocol.Join, protocol.Leave, protocol.Title:
					return true
				}
				return false
			})
			if err != nil || !ok {
				return zero, err
			}
			_, err = ctx.Consume()
			return zero, err
		},
	}
}
