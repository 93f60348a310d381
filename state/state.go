// Package state holds the client-side reconstruction of a battle:
// both sides, their revealed pokemon, and a possibility tracker for
// every hidden attribute (ability, held item). The battle parser is
// the only writer; everything here is single-owner.
package state

import (
	"fmt"

	"github.com/jordanwry/showdown/dex"
	"github.com/jordanwry/showdown/possibility"
	"github.com/jordanwry/showdown/protocol"
)

// Battle is the full tracked state of one battle room.
type Battle struct {
	Format string
	Gen    int
	// Ours is the side id ("p1" or "p2") this client plays.
	Ours    string
	Turn    int
	Started bool
	Ended   bool
	// Winner is the winning player's name, or "" for a tie or an
	// unfinished battle.
	Winner  string
	Weather string

	sides map[string]*Side
	dex   *dex.Dex
}

// New creates an empty battle over the given data tables.
func New(d *dex.Dex) *Battle {
	b := &Battle{dex: d, sides: make(map[string]*Side, 2)}
	for _, id := range []string{"p1", "p2"} {
		b.sides[id] = &Side{ID: id, dex: d}
	}
	return b
}

// Side returns the side with the given id ("p1" or "p2"), or nil.
func (b *Battle) Side(id string) *Side { return b.sides[id] }

// OurSide returns the side this client plays, or nil before |player|
// identified it.
func (b *Battle) OurSide() *Side { return b.sides[b.Ours] }

// Side is one player's tracked half of the battle.
type Side struct {
	ID       string
	Name     string
	TeamSize int
	// Active is the currently active pokemon, nil before first switch-in.
	Active *Pokemon
	// Team holds every revealed pokemon, in reveal order.
	Team []*Pokemon

	dex *dex.Dex
}

// Find returns the revealed pokemon with the given nickname, or nil.
func (s *Side) Find(name string) *Pokemon {
	for _, p := range s.Team {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// SwitchIn records a switch or drag. The pokemon is revealed on first
// sight, seeding its hidden-attribute trackers from the data tables,
// and becomes the side's active pokemon. Volatile state (boosts) of
// the previous active pokemon is cleared.
func (s *Side) SwitchIn(name string, det protocol.Details, hs protocol.HPStatus) (*Pokemon, error) {
	if s.Active != nil {
		s.Active.clearVolatile()
	}
	p := s.Find(name)
	if p == nil {
		var err error
		p, err = newPokemon(s.dex, name, det)
		if err != nil {
			return nil, err
		}
		s.Team = append(s.Team, p)
	}
	p.HP, p.MaxHP = hs.HP, hs.MaxHP
	p.Fainted = hs.Fainted
	s.Active = p
	return p, nil
}

// Pokemon is one revealed pokemon and everything inferred about it.
type Pokemon struct {
	Name    string // nickname
	Species string
	Level   int
	Gender  string
	HP      int
	MaxHP   int // 100 for opposing pokemon (percent scale)
	Status  string
	Fainted bool
	// Boosts maps stat keys ("atk", "spe", ...) to stages in [-6, 6].
	Boosts map[string]int
	// Moves holds revealed moves in reveal order.
	Moves []string

	// Ability tracks the hidden ability, seeded with the species'
	// legal abilities.
	Ability *possibility.Class[string]
	// Item tracks the held item, seeded with the item universe. Nil
	// once an item was consumed or knocked off.
	Item *possibility.Class[string]
}

func newPokemon(d *dex.Dex, name string, det protocol.Details) (*Pokemon, error) {
	ability, err := possibility.New(d.AbilityCandidates(det.Species)...)
	if err != nil {
		return nil, fmt.Errorf("state: seeding ability tracker for %s: %w", det.Species, err)
	}
	item, err := possibility.New(d.ItemCandidates()...)
	if err != nil {
		return nil, fmt.Errorf("state: seeding item tracker for %s: %w", det.Species, err)
	}
	return &Pokemon{
		Name:    name,
		Species: det.Species,
		Level:   det.Level,
		Gender:  det.Gender,
		Boosts:  make(map[string]int),
		Ability: ability,
		Item:    item,
	}, nil
}

func (p *Pokemon) clearVolatile() {
	for k := range p.Boosts {
		delete(p.Boosts, k)
	}
}

// SetHP applies a damage or heal line.
func (p *Pokemon) SetHP(hs protocol.HPStatus) {
	p.HP = hs.HP
	if hs.MaxHP > 0 {
		p.MaxHP = hs.MaxHP
	}
	if hs.Fainted {
		p.Faint()
	} else if hs.Status != "" {
		p.Status = hs.Status
	}
}

// Faint marks the pokemon fainted and clears volatile state.
func (p *Pokemon) Faint() {
	p.Fainted = true
	p.HP = 0
	p.clearVolatile()
}

// ApplyBoost adjusts a stat stage, clamped to [-6, 6].
func (p *Pokemon) ApplyBoost(stat string, delta int) {
	v := p.Boosts[stat] + delta
	if v > 6 {
		v = 6
	} else if v < -6 {
		v = -6
	}
	p.Boosts[stat] = v
}

// RevealMove records a move on first use.
func (p *Pokemon) RevealMove(name string) {
	for _, m := range p.Moves {
		if m == name {
			return
		}
	}
	p.Moves = append(p.Moves, name)
}

// RevealAbility narrows the ability tracker to the announced ability.
// Abilities outside the species' legal set are a contradiction.
func (p *Pokemon) RevealAbility(name string) error {
	return p.Ability.Narrow(name)
}

// RevealItem narrows the item tracker to the revealed item.
func (p *Pokemon) RevealItem(name string) error {
	if p.Item == nil {
		return nil
	}
	return p.Item.Narrow(name)
}

// LoseItem drops the item tracker after a consume/knock-off; the
// pokemon is known to hold nothing from here on.
func (p *Pokemon) LoseItem() {
	p.Item = nil
}
