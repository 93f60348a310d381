package protocol

import (
	"strconv"
	"strings"
)

// Ident is a parsed pokemon identifier argument, e.g. "p1a: Sparky".
type Ident struct {
	// Side is the player slot, "p1" or "p2".
	Side string
	// Position is the active slot letter ("a" in singles), or "" when
	// the identifier referenced a benched pokemon.
	Position string
	// Name is the pokemon's nickname.
	Name string
}

// ParseIdent parses a pokemon identifier argument. The reported ok is
// false when the argument does not follow the "p1a: Name" shape.
func ParseIdent(s string) (Ident, bool) {
	prefix, name, found := strings.Cut(s, ": ")
	if !found || len(prefix) < 2 {
		return Ident{}, false
	}
	side := prefix[:2]
	if side != "p1" && side != "p2" {
		return Ident{}, false
	}
	return Ident{Side: side, Position: prefix[2:], Name: name}, true
}

// Details is a parsed details argument, e.g. "Magikarp, L50, M".
type Details struct {
	Species string
	Level   int
	Gender  string // "M", "F", or "" for genderless
	Shiny   bool
}

// ParseDetails parses a details argument. Level defaults to 100 when
// omitted by the server.
func ParseDetails(s string) Details {
	d := Details{Level: 100}
	for i, part := range strings.Split(s, ", ") {
		if i == 0 {
			d.Species = part
			continue
		}
		switch {
		case strings.HasPrefix(part, "L"):
			if lv, err := strconv.Atoi(part[1:]); err == nil {
				d.Level = lv
			}
		case part == "M" || part == "F":
			d.Gender = part
		case part == "shiny":
			d.Shiny = true
		}
	}
	return d
}

// HPStatus is a parsed hp/status argument, e.g. "87/100 par" or "0 fnt".
type HPStatus struct {
	HP      int
	MaxHP   int
	Status  string
	Fainted bool
}

// ParseHPStatus parses an hp/status argument. Opponent hp is reported
// by the server as a percentage out of 100.
func ParseHPStatus(s string) HPStatus {
	var hs HPStatus
	hpPart, statusPart, _ := strings.Cut(s, " ")
	cur, max, found := strings.Cut(hpPart, "/")
	if n, err := strconv.Atoi(cur); err == nil {
		hs.HP = n
	}
	if found {
		if n, err := strconv.Atoi(max); err == nil {
			hs.MaxHP = n
		}
	}
	if statusPart == "fnt" || hs.HP == 0 {
		hs.Fainted = true
	} else {
		hs.Status = statusPart
	}
	return hs
}
