package common

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

func NewStandardDeck() []Card {
	deck := make([]Card, 0, 52)
	for _, s := range Suits {
		for r := Ace; r <= King; r++ {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return deck
}

// Shuffle is a crypto-secure Fisher–Yates shuffle.
func Shuffle(cards []Card) error {
	for i := len(cards) - 1; i > 0; i-- {
		nBig, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return fmt.Errorf("shuffle: %w", err)
		}
		j := int(nBig.Int64())
		cards[i], cards[j] = cards[j], cards[i]
	}
	return nil
}
