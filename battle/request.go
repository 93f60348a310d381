package battle

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ChoiceType discriminates the decision kinds offered to the agent.
type ChoiceType uint8

const (
	ChoiceMove ChoiceType = iota
	ChoiceSwitch
)

// Choice is one legal decision from a |request| payload.
type Choice struct {
	Type ChoiceType
	// Slot is the 1-based move or team slot on the wire.
	Slot int
	// Name is the move or pokemon name, for the agent and logs.
	Name string
}

// String renders the wire form of the choice ("move 1", "switch 3").
func (c Choice) String() string {
	switch c.Type {
	case ChoiceSwitch:
		return "switch " + strconv.Itoa(c.Slot)
	default:
		return "move " + strconv.Itoa(c.Slot)
	}
}

// requestMsg mirrors the |request| JSON payload, limited to the
// fields the choice builder needs.
type requestMsg struct {
	Active []struct {
		Moves []struct {
			Move     string `json:"move"`
			PP       int    `json:"pp"`
			MaxPP    int    `json:"maxpp"`
			Disabled bool   `json:"disabled"`
		} `json:"moves"`
		Trapped bool `json:"trapped"`
	} `json:"active"`
	Side struct {
		Name    string `json:"name"`
		ID      string `json:"id"`
		Pokemon []struct {
			Ident     string `json:"ident"`
			Details   string `json:"details"`
			Condition string `json:"condition"`
			Active    bool   `json:"active"`
		} `json:"pokemon"`
	} `json:"side"`
	ForceSwitch []bool `json:"forceSwitch"`
	Wait        bool   `json:"wait"`
	RQID        int    `json:"rqid"`
}

func decodeRequest(payload string) (requestMsg, error) {
	var req requestMsg
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return requestMsg{}, fmt.Errorf("battle: decoding request payload: %w", err)
	}
	return req, nil
}

// choicesFrom builds the ordered legal choice list for a request.
// Move choices come first, then switches; the agent reorders from
// there. Returns nil for wait requests (the opponent must act).
func choicesFrom(req requestMsg) []Choice {
	if req.Wait {
		return nil
	}
	var choices []Choice
	forced := len(req.ForceSwitch) > 0 && req.ForceSwitch[0]
	trapped := len(req.Active) > 0 && req.Active[0].Trapped

	if !forced && len(req.Active) > 0 {
		for i, m := range req.Active[0].Moves {
			if m.Disabled || (m.MaxPP > 0 && m.PP == 0) {
				continue
			}
			choices = append(choices, Choice{Type: ChoiceMove, Slot: i + 1, Name: m.Move})
		}
	}
	if !trapped {
		for i, p := range req.Side.Pokemon {
			if p.Active || fainted(p.Condition) {
				continue
			}
			choices = append(choices, Choice{Type: ChoiceSwitch, Slot: i + 1, Name: p.Ident})
		}
	}
	return choices
}

func fainted(condition string) bool {
	return condition == "0 fnt" || condition == "0"
}
