package battle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jordanwry/showdown/protocol"
	"github.com/jordanwry/showdown/state"
)

// Run is the standard top-level battle parser: preamble, lead
// switch-ins, then the turn loop until the battle ends.
func Run(ctx *Context) (Result, error) {
	s := &session{ctx: ctx}
	if err := s.parsePreamble(); err != nil {
		return Result{}, err
	}
	if err := s.parseLeads(); err != nil {
		return Result{}, err
	}
	d := s.gameDispatcher()
	for !ctx.State.Ended {
		if err := d.Dispatch(ctx); err != nil {
			return Result{}, err
		}
	}
	res := Result{
		Winner: ctx.State.Winner,
		Tie:    ctx.State.Winner == "",
		Turns:  ctx.State.Turn,
	}
	ctx.Log.WithFields(map[string]any{
		"winner": res.Winner,
		"turns":  res.Turns,
	}).Info("battle finished")
	return res, nil
}

// session carries the per-battle parsing state that outlives a single
// handler: the pending choice list and the active request id.
type session struct {
	ctx     *Context
	choices []Choice
	rqid    int
}

// parsePreamble consumes everything up to and including |start|.
func (s *session) parsePreamble() error {
	d := NewDispatcher().
		Handle(protocol.Player, s.handlePlayer).
		Handle(protocol.TeamSize, s.handleTeamSize).
		Handle(protocol.Gen, s.handleGen).
		Handle(protocol.Tier, s.handleTier).
		Handle(protocol.Request, s.handleRequest)
	for {
		ev, err := s.ctx.Peek()
		if err != nil {
			return err
		}
		if ev.Kind == protocol.Start {
			if _, err := s.ctx.Consume(); err != nil {
				return err
			}
			s.ctx.State.Started = true
			return nil
		}
		if err := d.Dispatch(s.ctx); err != nil {
			return err
		}
	}
}

// parseLeads consumes both lead switch-ins, in whichever order the
// server emits them, then evaluates their switch-in ability
// inferences together.
func (s *session) parseLeads() error {
	mons, err := All(s.ctx, []Deadline[*state.Pokemon]{
		s.leadSwitch("p1"),
		s.leadSwitch("p2"),
	}, noiseFilter[*state.Pokemon]())
	if err != nil {
		return err
	}
	if len(mons) != 2 {
		return contractf("expected both lead switch-ins, saw %d", len(mons))
	}
	return s.switchInEffects(mons)
}

// leadSwitch is an unordered candidate that claims the lead switch-in
// for one side. A missing lead is impossible, so its deadline
// rejection raises a contract violation.
func (s *session) leadSwitch(side string) Deadline[*state.Pokemon] {
	return Deadline[*state.Pokemon]{
		Name: "lead " + side,
		Parse: func(ctx *Context, accept AcceptFn) (*state.Pokemon, error) {
			ev, ok, err := ctx.TryVerify(func(ev protocol.Event) bool {
				if ev.Kind != protocol.Switch && ev.Kind != protocol.Drag {
					return false
				}
				id, idOK := protocol.ParseIdent(ev.Arg(0))
				return idOK && id.Side == side
			})
			if err != nil || !ok {
				return nil, err
			}
			accept()
			return s.applySwitch(ev)
		},
		Reject: func() error {
			return contractf("battle started without a lead switch-in for %s", side)
		},
	}
}

// applySwitch consumes a verified |switch|/|drag| event and applies it.
func (s *session) applySwitch(ev protocol.Event) (*state.Pokemon, error) {
	if _, err := s.ctx.Consume(); err != nil {
		return nil, err
	}
	id, _ := protocol.ParseIdent(ev.Arg(0))
	det := protocol.ParseDetails(ev.Arg(1))
	hs := protocol.ParseHPStatus(ev.Arg(2))
	mon, err := s.ctx.State.Side(id.Side).SwitchIn(id.Name, det, hs)
	if err != nil {
		return nil, err
	}
	s.ctx.Log.WithFields(map[string]any{
		"side":    id.Side,
		"species": det.Species,
	}).Debug("switch-in")
	return mon, nil
}

// switchInEffects runs the switch-in ability inferences for freshly
// active pokemon as one unordered phase: announcements may arrive in
// any order, and an inference whose announcement never comes has its
// announcing abilities ruled out when the phase deadlocks.
func (s *session) switchInEffects(mons []*state.Pokemon) error {
	var cands []Deadline[struct{}]
	for _, mon := range mons {
		if inf := s.switchInInference(mon); inf != nil {
			cands = append(cands, inf.Deadline())
		}
	}
	if len(cands) == 0 {
		return nil
	}
	_, err := All(s.ctx, cands, noiseFilter[struct{}]())
	return err
}

// gameDispatcher builds the main turn-loop dispatcher.
func (s *session) gameDispatcher() *Dispatcher {
	return NewDispatcher().
		Handle(protocol.Turn, s.handleTurn).
		Handle(protocol.Request, s.handleRequest).
		Handle(protocol.Error, s.handleChoiceError).
		Handle(protocol.Move, s.handleMove).
		Handle(protocol.Switch, s.handleSwitch).
		Handle(protocol.Drag, s.handleSwitch).
		Handle(protocol.Faint, s.handleFaint).
		Handle(protocol.MinorDamage, s.handleHPChange).
		Handle(protocol.MinorHeal, s.handleHPChange).
		Handle(protocol.MinorStatus, s.handleStatus).
		Handle(protocol.MinorCureStatus, s.handleCureStatus).
		Handle(protocol.MinorBoost, s.handleBoost).
		Handle(protocol.MinorUnboost, s.handleUnboost).
		Handle(protocol.MinorAbility, s.handleAbility).
		Handle(protocol.MinorItem, s.handleItem).
		Handle(protocol.MinorEndItem, s.handleEndItem).
		Handle(protocol.MinorWeather, s.handleWeather).
		Handle(protocol.Win, s.handleWin).
		Handle(protocol.Tie, s.handleTie)
}

func (s *session) handlePlayer(ctx *Context) error {
	ev, err := ctx.Consume()
	if err != nil {
		return err
	}
	side := ctx.State.Side(ev.Arg(0))
	if side == nil {
		return contractf("|player| for unknown side %q", ev.Arg(0))
	}
	side.Name = ev.Arg(1)
	if ev.Arg(1) == ctx.username {
		ctx.State.Ours = side.ID
	}
	return nil
}

func (s *session) handleTeamSize(ctx *Context) error {
	ev, err := ctx.Consume()
	if err != nil {
		return err
	}
	if side := ctx.State.Side(ev.Arg(0)); side != nil {
		side.TeamSize, _ = strconv.Atoi(ev.Arg(1))
	}
	return nil
}

func (s *session) handleGen(ctx *Context) error {
	ev, err := ctx.Consume()
	if err != nil {
		return err
	}
	ctx.State.Gen, _ = strconv.Atoi(ev.Arg(0))
	return nil
}

func (s *session) handleTier(ctx *Context) error {
	ev, err := ctx.Consume()
	if err != nil {
		return err
	}
	ctx.State.Format = ev.Arg(0)
	return nil
}

func (s *session) handleTurn(ctx *Context) error {
	ev, err := ctx.Consume()
	if err != nil {
		return err
	}
	n, convErr := strconv.Atoi(ev.Arg(0))
	if convErr != nil {
		return contractf("|turn| with non-numeric argument %q", ev.Arg(0))
	}
	ctx.State.Turn = n
	// The previous request is fulfilled once the turn advances; a
	// later |error| must not resend a stale choice.
	s.choices = nil
	return nil
}

// handleRequest decodes a |request| payload, asks the agent to rank
// the legal choices, and sends the top pick.
func (s *session) handleRequest(ctx *Context) error {
	ev, err := ctx.Consume()
	if err != nil {
		return err
	}
	s.choices = nil
	payload := ev.Arg(0)
	if payload == "" {
		return nil
	}
	req, err := decodeRequest(payload)
	if err != nil {
		// A request we cannot decode means we can no longer answer the
		// server; fatal.
		return err
	}
	s.rqid = req.RQID
	choices := choicesFrom(req)
	if len(choices) == 0 {
		// Wait request; the opponent acts first.
		return nil
	}
	s.choices = choices
	return s.chooseAndSend()
}

// handleChoiceError maps a server |error| rejecting our choice to a
// regenerated choice list: the rejected top pick becomes unavailable
// and the agent decides again over the remainder.
func (s *session) handleChoiceError(ctx *Context) error {
	ev, err := ctx.Consume()
	if err != nil {
		return err
	}
	if len(s.choices) == 0 {
		// Not a choice rejection (e.g. a chat command error); ignore.
		return nil
	}
	ctx.Log.WithField("reason", ev.Arg(0)).Warn("choice rejected")
	s.choices = s.choices[1:]
	if len(s.choices) == 0 {
		return contractf("server rejected every legal choice")
	}
	return s.chooseAndSend()
}

func (s *session) chooseAndSend() error {
	if err := s.ctx.agent(s.ctx, s.choices); err != nil {
		return fmt.Errorf("battle: agent failed: %w", err)
	}
	cmd := "/choose " + s.choices[0].String()
	if s.rqid != 0 {
		cmd += "|" + strconv.Itoa(s.rqid)
	}
	return s.ctx.Send(cmd)
}

func (s *session) handleMove(ctx *Context) error {
	ev, err := ctx.Consume()
	if err != nil {
		return err
	}
	mon, err := s.monFor(ev, 0)
	if err != nil {
		return err
	}
	mon.RevealMove(ev.Arg(1))
	return nil
}

// handleSwitch applies a mid-battle switch or drag, then gives the
// incoming pokemon's switch-in inference a chance against the
// following events.
func (s *session) handleSwitch(ctx *Context) error {
	ev, err := ctx.Peek()
	if err != nil {
		return err
	}
	mon, err := s.applySwitch(ev)
	if err != nil {
		return err
	}
	return s.switchInEffects([]*state.Pokemon{mon})
}

func (s *session) handleFaint(ctx *Context) error {
	ev, err := ctx.Consume()
	if err != nil {
		return err
	}
	mon, err := s.monFor(ev, 0)
	if err != nil {
		return err
	}
	mon.Faint()
	return nil
}

// handleHPChange covers |-damage| and |-heal|, including the item and
// ability reveals their [from] annotations carry.
func (s *session) handleHPChange(ctx *Context) error {
	ev, err := ctx.Consume()
	if err != nil {
		return err
	}
	mon, err := s.monFor(ev, 0)
	if err != nil {
		return err
	}
	mon.SetHP(protocol.ParseHPStatus(ev.Arg(1)))
	if from, ok := ev.KwArg("from"); ok {
		if item, isItem := strings.CutPrefix(from, "item: "); isItem {
			if err := mon.RevealItem(item); err != nil {
				return err
			}
		} else if ability, isAbility := strings.CutPrefix(from, "ability: "); isAbility {
			if err := s.revealAbilityFor(ev, mon, ability); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *session) handleStatus(ctx *Context) error {
	ev, err := ctx.Consume()
	if err != nil {
		return err
	}
	mon, err := s.monFor(ev, 0)
	if err != nil {
		return err
	}
	mon.Status = ev.Arg(1)
	return nil
}

func (s *session) handleCureStatus(ctx *Context) error {
	ev, err := ctx.Consume()
	if err != nil {
		return err
	}
	mon, err := s.monFor(ev, 0)
	if err != nil {
		return err
	}
	mon.Status = ""
	return nil
}

func (s *session) handleBoost(ctx *Context) error   { return s.applyBoost(ctx, 1) }
func (s *session) handleUnboost(ctx *Context) error { return s.applyBoost(ctx, -1) }

func (s *session) applyBoost(ctx *Context, sign int) error {
	ev, err := ctx.Consume()
	if err != nil {
		return err
	}
	mon, err := s.monFor(ev, 0)
	if err != nil {
		return err
	}
	stages, convErr := strconv.Atoi(ev.Arg(2))
	if convErr != nil {
		return contractf("boost with non-numeric stage %q", ev.Arg(2))
	}
	mon.ApplyBoost(ev.Arg(1), sign*stages)
	return nil
}

func (s *session) handleAbility(ctx *Context) error {
	ev, err := ctx.Consume()
	if err != nil {
		return err
	}
	mon, err := s.monFor(ev, 0)
	if err != nil {
		return err
	}
	return mon.RevealAbility(ev.Arg(1))
}

func (s *session) handleItem(ctx *Context) error {
	ev, err := ctx.Consume()
	if err != nil {
		return err
	}
	mon, err := s.monFor(ev, 0)
	if err != nil {
		return err
	}
	return mon.RevealItem(ev.Arg(1))
}

func (s *session) handleEndItem(ctx *Context) error {
	ev, err := ctx.Consume()
	if err != nil {
		return err
	}
	mon, err := s.monFor(ev, 0)
	if err != nil {
		return err
	}
	// The consumed or removed item is revealed as it leaves.
	if err := mon.RevealItem(ev.Arg(1)); err != nil {
		return err
	}
	mon.LoseItem()
	return nil
}

func (s *session) handleWeather(ctx *Context) error {
	ev, err := ctx.Consume()
	if err != nil {
		return err
	}
	weather := ev.Arg(0)
	if weather == "none" {
		ctx.State.Weather = ""
		return nil
	}
	ctx.State.Weather = weather
	if from, ok := ev.KwArg("from"); ok {
		if ability, isAbility := strings.CutPrefix(from, "ability: "); isAbility {
			if of, ok := ev.KwArg("of"); ok {
				if id, idOK := protocol.ParseIdent(of); idOK {
					if mon := ctx.State.Side(id.Side).Find(id.Name); mon != nil {
						return mon.RevealAbility(ability)
					}
				}
			}
		}
	}
	return nil
}

func (s *session) handleWin(ctx *Context) error {
	ev, err := ctx.Consume()
	if err != nil {
		return err
	}
	ctx.State.Winner = ev.Arg(0)
	ctx.State.Ended = true
	return nil
}

func (s *session) handleTie(ctx *Context) error {
	if _, err := ctx.Consume(); err != nil {
		return err
	}
	ctx.State.Ended = true
	return nil
}

// monFor resolves an ident argument to a tracked pokemon. References
// to a pokemon we have never seen switch in violate the stream
// contract.
func (s *session) monFor(ev protocol.Event, argIdx int) (*state.Pokemon, error) {
	id, ok := protocol.ParseIdent(ev.Arg(argIdx))
	if !ok {
		return nil, contractf("|%s| with malformed ident %q", ev.Kind, ev.Arg(argIdx))
	}
	mon := s.ctx.State.Side(id.Side).Find(id.Name)
	if mon == nil {
		return nil, contractf("|%s| references unknown pokemon %q", ev.Kind, ev.Arg(argIdx))
	}
	return mon, nil
}

// revealAbilityFor narrows the ability of the pokemon an annotation
// refers to: the [of] target when present, otherwise the event's
// subject.
func (s *session) revealAbilityFor(ev protocol.Event, subject *state.Pokemon, ability string) error {
	mon := subject
	if of, ok := ev.KwArg("of"); ok {
		if id, idOK := protocol.ParseIdent(of); idOK {
			if m := s.ctx.State.Side(id.Side).Find(id.Name); m != nil {
				mon = m
			}
		}
	}
	return mon.RevealAbility(ability)
}
