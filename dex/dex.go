// Package dex holds the static per-game data tables: species, moves,
// items, and abilities. Tables are loaded from an embedded yaml file
// at startup; the inference engine seeds possibility trackers from
// them but never mutates them.
package dex

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data.yaml
var rawTables []byte

// Ability describes one ability.
type Ability struct {
	Name string `yaml:"name"`
	// OnSwitch is true for abilities that announce themselves as the
	// holder switches in (weather setters, Intimidate, traps). The
	// absence of that announcement lets the inference engine rule the
	// ability out.
	OnSwitch bool `yaml:"onSwitch"`
}

// Species describes one species and its legal hidden attributes.
type Species struct {
	Name      string   `yaml:"name"`
	Abilities []string `yaml:"abilities"`
	BaseSpeed int      `yaml:"baseSpeed"`
}

// Move describes one move.
type Move struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Category string `yaml:"category"` // physical, special, or status
	PP       int    `yaml:"pp"`
}

// Item describes one held item.
type Item struct {
	Name string `yaml:"name"`
}

// Dex is the full loaded table set, keyed by display name.
type Dex struct {
	Species   map[string]Species
	Moves     map[string]Move
	Items     map[string]Item
	Abilities map[string]Ability
}

type rawDex struct {
	Species   []Species `yaml:"species"`
	Moves     []Move    `yaml:"moves"`
	Items     []Item    `yaml:"items"`
	Abilities []Ability `yaml:"abilities"`
}

var (
	loadOnce sync.Once
	loaded   *Dex
	loadErr  error
)

// Load parses the embedded tables. The result is cached; repeat calls
// return the same Dex.
func Load() (*Dex, error) {
	loadOnce.Do(func() {
		loaded, loadErr = parse(rawTables)
	})
	return loaded, loadErr
}

func parse(data []byte) (*Dex, error) {
	var raw rawDex
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("dex: parsing tables: %w", err)
	}
	d := &Dex{
		Species:   make(map[string]Species, len(raw.Species)),
		Moves:     make(map[string]Move, len(raw.Moves)),
		Items:     make(map[string]Item, len(raw.Items)),
		Abilities: make(map[string]Ability, len(raw.Abilities)),
	}
	for _, a := range raw.Abilities {
		d.Abilities[a.Name] = a
	}
	for _, s := range raw.Species {
		for _, ab := range s.Abilities {
			if _, ok := d.Abilities[ab]; !ok {
				return nil, fmt.Errorf("dex: species %s references unknown ability %s", s.Name, ab)
			}
		}
		d.Species[s.Name] = s
	}
	for _, m := range raw.Moves {
		d.Moves[m.Name] = m
	}
	for _, it := range raw.Items {
		d.Items[it.Name] = it
	}
	return d, nil
}

// AbilityCandidates returns the legal abilities for a species, used to
// seed the species' hidden-ability tracker. Unknown species get the
// whole ability universe so that parsing never hard-fails on a species
// missing from the tables.
func (d *Dex) AbilityCandidates(species string) []string {
	if s, ok := d.Species[species]; ok && len(s.Abilities) > 0 {
		out := make([]string, len(s.Abilities))
		copy(out, s.Abilities)
		return out
	}
	out := make([]string, 0, len(d.Abilities))
	for name := range d.Abilities {
		out = append(out, name)
	}
	return out
}

// ItemCandidates returns the item universe, used to seed a freshly
// revealed pokemon's held-item tracker.
func (d *Dex) ItemCandidates() []string {
	out := make([]string, 0, len(d.Items))
	for name := range d.Items {
		out = append(out, name)
	}
	return out
}
