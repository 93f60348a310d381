package battle

import "testing"

func TestChoiceString(t *testing.T) {
	if got := (Choice{Type: ChoiceMove, Slot: 1}).String(); got != "move 1" {
		t.Fatalf("move choice rendered %q", got)
	}
	if got := (Choice{Type: ChoiceSwitch, Slot: 3}).String(); got != "switch 3" {
		t.Fatalf("switch choice rendered %q", got)
	}
}

func TestChoicesFromSkipsUnusableMoves(t *testing.T) {
	req, err := decodeRequest(`{
		"active": [{"moves": [
			{"move": "Tackle", "pp": 0, "maxpp": 35},
			{"move": "Surf", "pp": 10, "maxpp": 15},
			{"move": "Splash", "pp": 40, "maxpp": 40, "disabled": true}
		]}],
		"side": {"pokemon": [
			{"ident": "p1: Blastoise", "condition": "100/100", "active": true},
			{"ident": "p1: Snorlax", "condition": "95/100"},
			{"ident": "p1: Gengar", "condition": "0 fnt"}
		]},
		"rqid": 7
	}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	choices := choicesFrom(req)
	want := []Choice{
		{Type: ChoiceMove, Slot: 2, Name: "Surf"},
		{Type: ChoiceSwitch, Slot: 2, Name: "p1: Snorlax"},
	}
	if len(choices) != len(want) {
		t.Fatalf("got %d choices %v, want %d", len(choices), choices, len(want))
	}
	for i := range want {
		if choices[i] != want[i] {
			t.Fatalf("choice %d = %v, want %v", i, choices[i], want[i])
		}
	}
}

func TestChoicesFromForceSwitchOffersOnlySwitches(t *testing.T) {
	req, err := decodeRequest(`{
		"forceSwitch": [true],
		"side": {"pokemon": [
			{"ident": "p1: Blastoise", "condition": "0 fnt", "active": true},
			{"ident": "p1: Snorlax", "condition": "95/100"}
		]},
		"rqid": 8
	}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	choices := choicesFrom(req)
	if len(choices) != 1 || choices[0].Type != ChoiceSwitch || choices[0].Slot != 2 {
		t.Fatalf("choices = %v", choices)
	}
}

func TestChoicesFromTrappedOffersOnlyMoves(t *testing.T) {
	req, err := decodeRequest(`{
		"active": [{"trapped": true, "moves": [{"move": "Tackle", "pp": 30, "maxpp": 35}]}],
		"side": {"pokemon": [
			{"ident": "p1: Blastoise", "condition": "50/100", "active": true},
			{"ident": "p1: Snorlax", "condition": "95/100"}
		]},
		"rqid": 9
	}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	choices := choicesFrom(req)
	if len(choices) != 1 || choices[0].Type != ChoiceMove {
		t.Fatalf("choices = %v", choices)
	}
}

func TestChoicesFromWaitRequestIsEmpty(t *testing.T) {
	req, err := decodeRequest(`{"wait": true, "rqid": 10}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if choices := choicesFrom(req); choices != nil {
		t.Fatalf("wait request produced choices %v", choices)
	}
}
