package bot

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jordanwry/showdown/battle"
	"github.com/jordanwry/showdown/dex"
	"github.com/jordanwry/showdown/internal/records"
	"github.com/jordanwry/showdown/protocol"
)

// sender abstracts the outbound half of the connection so the router
// can be exercised without a live socket.
type sender interface {
	Send(ctx context.Context, room, text string) error
}

// Router fans incoming blocks out to the global handler and to one
// battle session per battle room.
type Router struct {
	cfg      Config
	log      logrus.FieldLogger
	dex      *dex.Dex
	send     sender
	http     *http.Client
	store    *records.Store
	agent    battle.Agent
	rooms    map[string]*battleRoom
	loggedIn bool
}

// battleRoom pairs a running battle session with the context captured
// from its parser, which carries the tracked state for record keeping.
type battleRoom struct {
	it  *battle.Iterator
	ctx *battle.Context
}

// NewRouter builds a router. store may be nil to disable record
// keeping; agent defaults to the greedy policy.
func NewRouter(cfg Config, log logrus.FieldLogger, d *dex.Dex, send sender, store *records.Store, agent battle.Agent) *Router {
	if agent == nil {
		agent = Greedy()
	}
	return &Router{
		cfg:   cfg,
		log:   log,
		dex:   d,
		send:  send,
		http:  &http.Client{},
		store: store,
		agent: agent,
		rooms: make(map[string]*battleRoom),
	}
}

// Handle routes one decoded block. Global blocks drive the login
// handshake; battle-room blocks feed the room's session.
func (r *Router) Handle(ctx context.Context, room string, events []protocol.Event) error {
	if strings.HasPrefix(room, "battle-") {
		return r.handleBattle(ctx, room, events)
	}
	return r.handleGlobal(ctx, events)
}

func (r *Router) handleGlobal(ctx context.Context, events []protocol.Event) error {
	for _, ev := range events {
		switch ev.Kind {
		case protocol.ChallStr:
			challstr := strings.Join(ev.Args, "|")
			a, err := assertion(ctx, r.http, r.cfg, challstr)
			if err != nil {
				return err
			}
			if err := r.send.Send(ctx, "", "/trn "+r.cfg.Username+",0,"+a); err != nil {
				return err
			}
		case protocol.UpdateUser:
			// arg 1 is "1" once the name is registered with the server.
			if ev.Arg(1) == "1" && !r.loggedIn {
				r.loggedIn = true
				r.log.WithField("username", ev.Arg(0)).Info("logged in")
				if err := r.send.Send(ctx, "", "/search "+r.cfg.Format); err != nil {
					return err
				}
			}
		case protocol.PM:
			r.log.WithFields(logrus.Fields{"from": ev.Arg(0), "message": ev.Arg(2)}).Info("pm")
		case protocol.Popup:
			r.log.WithField("message", ev.Arg(0)).Warn("popup")
		}
	}
	return nil
}

func (r *Router) handleBattle(ctx context.Context, room string, events []protocol.Event) error {
	br := r.rooms[room]
	for _, ev := range events {
		if ev.Kind == protocol.Init {
			if br == nil {
				var err error
				br, err = r.startBattle(ctx, room)
				if err != nil {
					return err
				}
				r.rooms[room] = br
			}
			continue
		}
		if ev.Kind == protocol.DeInit {
			if br != nil {
				if err := br.it.Return(); err != nil {
					r.log.WithError(err).Warn("session unwind failed")
				}
				delete(r.rooms, room)
				br = nil
			}
			continue
		}
		if br == nil || br.it.Done() {
			continue
		}
		done, err := br.it.Next(ev)
		if err != nil {
			return err
		}
		if done {
			if err := r.finishBattle(ctx, room, br); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Router) startBattle(ctx context.Context, room string) (*battleRoom, error) {
	br := &battleRoom{}
	it, err := battle.Start(battle.Config{
		Username: r.cfg.Username,
		Agent:    r.agent,
		Send: func(cmd string) error {
			return r.send.Send(ctx, room, cmd)
		},
		Log: r.log.WithField("room", room),
		Dex: r.dex,
	}, func(c *battle.Context) (battle.Result, error) {
		br.ctx = c
		return battle.Run(c)
	})
	if err != nil {
		return nil, err
	}
	br.it = it
	r.log.WithField("room", room).Info("battle started")
	return br, nil
}

func (r *Router) finishBattle(ctx context.Context, room string, br *battleRoom) error {
	res, err := br.it.Finish()
	if err != nil {
		return err
	}
	if r.store != nil {
		st := br.ctx.State
		var opponent string
		if ours := st.OurSide(); ours != nil {
			for _, id := range []string{"p1", "p2"} {
				if side := st.Side(id); side != nil && side != ours {
					opponent = side.Name
				}
			}
		}
		won := !res.Tie && st.OurSide() != nil && res.Winner == st.OurSide().Name
		if _, err := r.store.Save(ctx, records.Record{
			Room:     room,
			Format:   st.Format,
			Opponent: opponent,
			Winner:   res.Winner,
			Won:      won,
			Tie:      res.Tie,
			Turns:    res.Turns,
		}); err != nil {
			r.log.WithError(err).Warn("saving battle record failed")
		}
	}
	r.log.WithFields(logrus.Fields{"room": room, "winner": res.Winner, "turns": res.Turns}).Info("battle finished")
	return r.send.Send(ctx, room, "/leave")
}

// Shutdown unwinds every running session.
func (r *Router) Shutdown() {
	for room, br := range r.rooms {
		if err := br.it.Return(); err != nil {
			r.log.WithError(err).WithField("room", room).Warn("session unwind failed")
		}
		delete(r.rooms, room)
	}
}
