package bot

import (
	"sort"

	"github.com/jordanwry/showdown/battle"
)

// Greedy is the default decision policy: damaging moves first, other
// moves next, switches last. Order within a band is preserved, so the
// server's own move ordering breaks ties.
func Greedy() battle.Agent {
	return func(ctx *battle.Context, choices []battle.Choice) error {
		rank := func(c battle.Choice) int {
			if c.Type == battle.ChoiceSwitch {
				return 2
			}
			if m, ok := ctx.Dex.Moves[c.Name]; ok && m.Category == "status" {
				return 1
			}
			return 0
		}
		sort.SliceStable(choices, func(i, j int) bool {
			return rank(choices[i]) < rank(choices[j])
		})
		return nil
	}
}
