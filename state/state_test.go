package state

import (
	"testing"

	"github.com/jordanwry/showdown/dex"
	"github.com/jordanwry/showdown/protocol"
)

func newBattle(t *testing.T) *Battle {
	t.Helper()
	d, err := dex.Load()
	if err != nil {
		t.Fatalf("dex.Load failed: %v", err)
	}
	return New(d)
}

func switchIn(t *testing.T, s *Side, name, details, hp string) *Pokemon {
	t.Helper()
	p, err := s.SwitchIn(name, protocol.ParseDetails(details), protocol.ParseHPStatus(hp))
	if err != nil {
		t.Fatalf("SwitchIn %s failed: %v", name, err)
	}
	return p
}

func TestSwitchInRevealsOnce(t *testing.T) {
	b := newBattle(t)
	s := b.Side("p1")

	p := switchIn(t, s, "Karp", "Magikarp, L50, M", "100/100")
	if s.Active != p {
		t.Fatal("switched-in pokemon should be active")
	}
	if got := p.Ability.Size(); got != 2 {
		t.Errorf("ability candidates: want 2, got %d", got)
	}

	switchIn(t, s, "Wobb", "Wobbuffet, L50", "100/100")
	again := switchIn(t, s, "Karp", "Magikarp, L50, M", "80/100")
	if again != p {
		t.Error("re-switching should reuse the revealed pokemon")
	}
	if len(s.Team) != 2 {
		t.Errorf("team size: want 2, got %d", len(s.Team))
	}
	if again.HP != 80 {
		t.Errorf("hp after re-switch: want 80, got %d", again.HP)
	}
}

func TestSwitchClearsBoosts(t *testing.T) {
	b := newBattle(t)
	s := b.Side("p2")
	p := switchIn(t, s, "Gyara", "Gyarados, L50, F", "100/100")
	p.ApplyBoost("atk", 2)

	switchIn(t, s, "Wobb", "Wobbuffet, L50", "100/100")
	if p.Boosts["atk"] != 0 {
		t.Error("boosts should clear on switch-out")
	}
}

func TestBoostClamped(t *testing.T) {
	b := newBattle(t)
	p := switchIn(t, b.Side("p1"), "Gyara", "Gyarados, L50", "100/100")
	for i := 0; i < 5; i++ {
		p.ApplyBoost("atk", 2)
	}
	if p.Boosts["atk"] != 6 {
		t.Errorf("boost stage: want clamp at 6, got %d", p.Boosts["atk"])
	}
	p.ApplyBoost("spe", -7)
	if p.Boosts["spe"] != -6 {
		t.Errorf("boost stage: want clamp at -6, got %d", p.Boosts["spe"])
	}
}

func TestSetHPFaint(t *testing.T) {
	b := newBattle(t)
	p := switchIn(t, b.Side("p1"), "Karp", "Magikarp, L50", "100/100")
	p.ApplyBoost("spe", 1)
	p.SetHP(protocol.ParseHPStatus("0 fnt"))
	if !p.Fainted || p.HP != 0 {
		t.Errorf("want fainted at 0 hp, got fainted=%v hp=%d", p.Fainted, p.HP)
	}
	if p.Boosts["spe"] != 0 {
		t.Error("fainting should clear volatile state")
	}
}

func TestRevealAbilityNarrows(t *testing.T) {
	b := newBattle(t)
	p := switchIn(t, b.Side("p2"), "Karp", "Magikarp, L50", "100/100")
	if err := p.RevealAbility("Swift Swim"); err != nil {
		t.Fatalf("RevealAbility failed: %v", err)
	}
	v, ok := p.Ability.Value()
	if !ok || v != "Swift Swim" {
		t.Errorf("ability: want resolved Swift Swim, got %q (ok=%v)", v, ok)
	}
	// A second, conflicting reveal is a protocol contradiction.
	if err := p.RevealAbility("Rain Dish"); err == nil {
		t.Error("conflicting reveal should fail")
	}
}

func TestRevealMoveDeduplicates(t *testing.T) {
	b := newBattle(t)
	p := switchIn(t, b.Side("p1"), "Karp", "Magikarp, L50", "100/100")
	p.RevealMove("Splash")
	p.RevealMove("Splash")
	p.RevealMove("Tackle")
	if len(p.Moves) != 2 {
		t.Errorf("moves: want 2 unique, got %v", p.Moves)
	}
}
