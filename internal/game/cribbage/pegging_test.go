package cribbage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cribbage-rooms/backend/internal/game/common"
)

func mustCards(t *testing.T, in ...string) []common.Card {
	t.Helper()
	out := make([]common.Card, 0, len(in))
	for _, s := range in {
		c, err := common.ParseCard(s)
		require.NoError(t, err, "card %q", s)
		out = append(out, c)
	}
	return out
}

func mustCard(t *testing.T, s string) common.Card {
	t.Helper()
	return mustCards(t, s)[0]
}

func TestEvaluatePlay(t *testing.T) {
	tests := []struct {
		name   string
		prev   []string
		card   string
		total  int
		points int
		hit15  bool
		hit31  bool
		pairs  int
		run    int
	}{
		{name: "opening card", prev: nil, card: "5♣", total: 5},
		{name: "fifteen", prev: []string{"5♣"}, card: "10♦", total: 15, points: 2, hit15: true},
		{name: "fifteen and pair royal", prev: []string{"5♣", "5♦"}, card: "5♠", total: 15, points: 8, hit15: true, pairs: 3},
		{name: "run of three", prev: []string{"2♣", "3♦"}, card: "4♠", total: 9, points: 3, run: 3},
		{name: "thirty", prev: []string{"10♣", "9♦", "A♠"}, card: "J♥", total: 30},
		{name: "thirty-one", prev: []string{"10♣", "9♦", "A♠", "J♥"}, card: "A♣", total: 31, points: 2, hit31: true},
		{name: "pair", prev: []string{"9♣"}, card: "9♦", total: 18, points: 2, pairs: 2},
		{name: "double pair royal scores once", prev: []string{"2♣", "2♦", "2♥"}, card: "2♠", total: 8, points: 12, pairs: 4},
		{name: "run out of order", prev: []string{"6♣", "4♦"}, card: "5♠", total: 15, points: 5, hit15: true, run: 3},
		{name: "run of four", prev: []string{"A♣", "3♦", "2♥"}, card: "4♠", total: 10, points: 4, run: 4},
		{name: "run stops at duplicate", prev: []string{"3♣", "3♦", "4♥"}, card: "5♠", total: 15, points: 5, hit15: true, run: 3},
		{name: "no run across gap", prev: []string{"2♣", "3♦"}, card: "5♠", total: 10},
		{name: "face cards are ten", prev: []string{"K♣"}, card: "5♦", total: 15, points: 2, hit15: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := mustCards(t, tt.prev...)
			card := mustCard(t, tt.card)

			res := EvaluatePlay(prev, card)
			require.True(t, res.OK)
			assert.Empty(t, res.Reason)
			assert.Equal(t, tt.total, res.Total)
			assert.Equal(t, tt.points, res.Points)
			assert.Equal(t, tt.hit15, res.Hit15)
			assert.Equal(t, tt.hit31, res.Hit31)
			assert.Equal(t, tt.pairs, res.PairLength)
			assert.Equal(t, tt.run, res.RunLength)
			assert.Equal(t, append(prev, card), res.NewSeq)
			assert.Equal(t, common.SumFaceValues(res.NewSeq), res.Total)
		})
	}
}

func TestEvaluatePlay_Exceeds31(t *testing.T) {
	prev := mustCards(t, "10♣", "10♦", "2♠")
	before := append([]common.Card(nil), prev...)

	res := EvaluatePlay(prev, mustCard(t, "K♥"))
	assert.False(t, res.OK)
	assert.Equal(t, ReasonExceeds31, res.Reason)
	assert.Equal(t, 22, res.Total)
	assert.Zero(t, res.Points)
	assert.Equal(t, before, res.NewSeq)
	assert.Equal(t, before, prev)
	require.Len(t, res.Notes, 1)
	assert.Contains(t, res.Notes[0], "would exceed 31")
}

func TestEvaluatePlay_Pure(t *testing.T) {
	prev := make([]common.Card, 2, 8)
	copy(prev, mustCards(t, "5♣", "5♦"))
	card := mustCard(t, "5♠")

	first := EvaluatePlay(prev, card)
	first.NewSeq[0] = mustCard(t, "K♠")
	second := EvaluatePlay(prev, card)

	assert.Equal(t, mustCards(t, "5♣", "5♦"), prev)
	assert.Equal(t, mustCards(t, "5♣", "5♦", "5♠"), second.NewSeq)
	assert.Equal(t, 8, second.Points)
}

func TestPlayResult_Label(t *testing.T) {
	res := EvaluatePlay(mustCards(t, "5♣", "5♦"), mustCard(t, "5♠"))
	assert.Equal(t, "15 & pair royal", res.Label())

	res = EvaluatePlay(nil, mustCard(t, "5♠"))
	assert.Empty(t, res.Label())
}

func TestCanPlayAny(t *testing.T) {
	assert.True(t, canPlayAny(mustCards(t, "K♠", "A♠"), 30))
	assert.False(t, canPlayAny(mustCards(t, "K♠", "2♠"), 30))
	assert.False(t, canPlayAny(nil, 0))
}
