package cribbage

import (
	"fmt"
	"strings"

	"cribbage-rooms/backend/internal/game/common"
)

const (
	peggingLimit = 31

	// ReasonExceeds31 is the rejection reason for a play that would take the count past 31.
	ReasonExceeds31 = "EXCEEDS_31"
)

// PlayResult is the outcome of evaluating one pegging play.
type PlayResult struct {
	OK     bool          `json:"ok"`
	Reason string        `json:"reason,omitempty"`
	NewSeq []common.Card `json:"new_seq"`
	Total  int           `json:"total"`
	Points int           `json:"points"`

	Hit15      bool          `json:"hit15"`
	Hit31      bool          `json:"hit31"`
	RunLength  int           `json:"run_length"`
	RunCards   []common.Card `json:"run_cards,omitempty"`
	PairLength int           `json:"pair_length"`

	// Notes are human-readable lines describing the play, in scoring order.
	Notes []string `json:"notes"`
}

// Label summarises what scored, e.g. "15 & pair". Empty when nothing scored.
func (r PlayResult) Label() string {
	var parts []string
	if r.Hit15 {
		parts = append(parts, "15")
	}
	if r.Hit31 {
		parts = append(parts, "31")
	}
	if r.PairLength > 0 {
		parts = append(parts, pairLabel(r.PairLength))
	}
	if r.RunLength > 0 {
		parts = append(parts, fmt.Sprintf("run of %d", r.RunLength))
	}
	return strings.Join(parts, " & ")
}

// EvaluatePlay scores card played on top of prev (the cards since the last
// reset, oldest first). prev is never modified.
func EvaluatePlay(prev []common.Card, card common.Card) PlayResult {
	before := common.SumFaceValues(prev)
	total := before + card.FaceValue()

	if total > peggingLimit {
		return PlayResult{
			OK:     false,
			Reason: ReasonExceeds31,
			NewSeq: append([]common.Card(nil), prev...),
			Total:  before,
			Notes: []string{
				fmt.Sprintf("Reject %s: would exceed 31 (current %d, value %d).", card, before, card.FaceValue()),
			},
		}
	}

	seq := make([]common.Card, 0, len(prev)+1)
	seq = append(seq, prev...)
	seq = append(seq, card)

	res := PlayResult{
		OK:     true,
		NewSeq: seq,
		Total:  total,
		Notes:  []string{fmt.Sprintf("Played %s, total %d.", card, total)},
	}

	if total == 15 {
		res.Points += 2
		res.Hit15 = true
		res.Notes = append(res.Notes, "+2 for reaching 15.")
	}
	if total == peggingLimit {
		res.Points += 2
		res.Hit31 = true
		res.Notes = append(res.Notes, "+2 for reaching 31.")
	}

	if n, pts := trailingPairs(seq); n > 0 {
		res.Points += pts
		res.PairLength = n
		res.Notes = append(res.Notes, fmt.Sprintf("+%d for %s (%d %s's).", pts, pairLabel(n), n, card.Rank))
	}

	if n := trailingRun(seq); n > 0 {
		res.Points += n
		res.RunLength = n
		res.RunCards = append([]common.Card(nil), seq[len(seq)-n:]...)
		res.Notes = append(res.Notes, fmt.Sprintf("+%d for run of %d: %s.", n, n, strings.Join(common.CardStrings(res.RunCards), " - ")))
	}

	return res
}

// trailingPairs counts consecutive cards of the last card's rank, capped at 4.
func trailingPairs(seq []common.Card) (length int, points int) {
	if len(seq) < 2 {
		return 0, 0
	}
	last := seq[len(seq)-1].RankOrder()
	count := 1
	for i := len(seq) - 2; i >= 0 && count < 4; i-- {
		if seq[i].RankOrder() != last {
			break
		}
		count++
	}
	switch count {
	case 2:
		return 2, 2
	case 3:
		return 3, 6
	case 4:
		return 4, 12
	}
	return 0, 0
}

// trailingRun returns the longest run (>= 3) ending at the last card. The
// backward scan stops at the first repeated rank.
func trailingRun(seq []common.Card) int {
	if len(seq) < 3 {
		return 0
	}
	seen := map[int]bool{}
	lo, hi := 14, 0
	best := 0
	for i := len(seq) - 1; i >= 0; i-- {
		r := seq[i].RankOrder()
		if seen[r] {
			break
		}
		seen[r] = true
		if r < lo {
			lo = r
		}
		if r > hi {
			hi = r
		}
		n := len(seq) - i
		if n >= 3 && hi-lo+1 == n {
			best = n
		}
	}
	return best
}

func pairLabel(n int) string {
	switch n {
	case 4:
		return "double pair royal"
	case 3:
		return "pair royal"
	default:
		return "pair"
	}
}

// canPlayAny reports whether any card keeps the count at or under 31.
func canPlayAny(cards []common.Card, total int) bool {
	for _, c := range cards {
		if total+c.FaceValue() <= peggingLimit {
			return true
		}
	}
	return false
}
