package cribbage

import (
	"strings"

	"cribbage-rooms/backend/internal/game/common"
)

// FifteensResult lists every combination of cards that sums to 15.
type FifteensResult struct {
	Points       int             `json:"points"`
	Combinations [][]common.Card `json:"combinations"`
}

// Detail renders one "15: a+b" line per combination.
func (f FifteensResult) Detail() []string {
	out := make([]string, 0, len(f.Combinations))
	for _, combo := range f.Combinations {
		out = append(out, "15: "+strings.Join(common.CardStrings(combo), "+"))
	}
	return out
}

// ScoreFifteens scores the fifteens in cards plus the starter: every subset
// summing to 15 is worth 2, overlapping subsets included. Only fifteens are
// counted automatically; pairs, runs, flushes and nobs are pegged by hand.
func ScoreFifteens(cards []common.Card, starter common.Card) FifteensResult {
	all := make([]common.Card, 0, len(cards)+1)
	all = append(all, cards...)
	all = append(all, starter)

	res := FifteensResult{Combinations: [][]common.Card{}}
	n := len(all)
	for mask := 1; mask < (1 << n); mask++ {
		sum := 0
		for i := 0; i < n && sum <= 15; i++ {
			if mask&(1<<i) != 0 {
				sum += all[i].FaceValue()
			}
		}
		if sum != 15 {
			continue
		}
		combo := make([]common.Card, 0, n)
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				combo = append(combo, all[i])
			}
		}
		res.Combinations = append(res.Combinations, combo)
		res.Points += 2
	}
	return res
}
