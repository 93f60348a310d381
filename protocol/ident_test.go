package protocol

import "testing"

func TestParseIdent(t *testing.T) {
	id, ok := ParseIdent("p1a: Sparky")
	if !ok {
		t.Fatalf("parse failed")
	}
	if id.Side != "p1" || id.Position != "a" || id.Name != "Sparky" {
		t.Fatalf("ident = %+v", id)
	}

	id, ok = ParseIdent("p2: Benched")
	if !ok || id.Position != "" || id.Name != "Benched" {
		t.Fatalf("benched ident = %+v, ok=%v", id, ok)
	}

	for _, bad := range []string{"", "Sparky", "p3a: Nope", "x: y"} {
		if _, ok := ParseIdent(bad); ok {
			t.Fatalf("%q parsed as an ident", bad)
		}
	}
}

func TestParseDetails(t *testing.T) {
	d := ParseDetails("Magikarp, L50, M, shiny")
	if d.Species != "Magikarp" || d.Level != 50 || d.Gender != "M" || !d.Shiny {
		t.Fatalf("details = %+v", d)
	}

	d = ParseDetails("Gengar")
	if d.Species != "Gengar" || d.Level != 100 || d.Gender != "" {
		t.Fatalf("bare details = %+v", d)
	}
}

func TestParseHPStatus(t *testing.T) {
	hs := ParseHPStatus("87/100 par")
	if hs.HP != 87 || hs.MaxHP != 100 || hs.Status != "par" || hs.Fainted {
		t.Fatalf("hp = %+v", hs)
	}

	hs = ParseHPStatus("0 fnt")
	if !hs.Fainted || hs.HP != 0 || hs.Status != "" {
		t.Fatalf("fainted hp = %+v", hs)
	}

	hs = ParseHPStatus("120/120")
	if hs.HP != 120 || hs.MaxHP != 120 || hs.Fainted || hs.Status != "" {
		t.Fatalf("full hp = %+v", hs)
	}
}
