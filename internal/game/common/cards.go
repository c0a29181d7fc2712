package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrInvalidCardFormat is returned for any card text or object that cannot be parsed.
var ErrInvalidCardFormat = errors.New("invalid card format")

type Suit string

const (
	Spades   Suit = "♠"
	Hearts   Suit = "♥"
	Diamonds Suit = "♦"
	Clubs    Suit = "♣"
)

// Suits lists every suit in deck order.
var Suits = []Suit{Spades, Hearts, Diamonds, Clubs}

type Rank int

const (
	Ace   Rank = 1
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

type Card struct {
	Rank Rank
	Suit Suit
}

func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	default:
		return strconv.Itoa(int(r))
	}
}

func (c Card) String() string {
	return c.Rank.String() + string(c.Suit)
}

// FaceValue is the counting value used for fifteens and the pegging total:
// face cards are 10, ace is 1.
func (c Card) FaceValue() int {
	if c.Rank >= Ten {
		return 10
	}
	return int(c.Rank)
}

// RankOrder is the position used for pair and run adjacency (A=1 .. K=13).
// Unlike FaceValue it keeps 10, J, Q and K distinct.
func (c Card) RankOrder() int {
	return int(c.Rank)
}

func (c Card) Valid() bool {
	if c.Rank < Ace || c.Rank > King {
		return false
	}
	_, err := parseSuit(string(c.Suit))
	return err == nil
}

// ParseCard parses the compact text form ("5♣", "10♦", "QH", "1s").
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) < 2 {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCardFormat, s)
	}
	last, size := utf8.DecodeLastRuneInString(s)
	return CardFromParts(s[:len(s)-size], string(last))
}

// CardFromParts builds a card from separate rank and suit strings, the
// structured {rank, suit} form some clients send.
func CardFromParts(rank, suit string) (Card, error) {
	r, err := parseRank(rank)
	if err != nil {
		return Card{}, err
	}
	st, err := parseSuit(suit)
	if err != nil {
		return Card{}, err
	}
	return Card{Rank: r, Suit: st}, nil
}

func parseRank(s string) (Rank, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "A":
		return Ace, nil
	case "J":
		return Jack, nil
	case "Q":
		return Queen, nil
	case "K":
		return King, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 || v > 13 {
		return 0, fmt.Errorf("%w: rank %q", ErrInvalidCardFormat, s)
	}
	return Rank(v), nil
}

func parseSuit(s string) (Suit, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "♠", "S":
		return Spades, nil
	case "♥", "H":
		return Hearts, nil
	case "♦", "D":
		return Diamonds, nil
	case "♣", "C":
		return Clubs, nil
	}
	return "", fmt.Errorf("%w: suit %q", ErrInvalidCardFormat, s)
}

func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts either "10♦" or {"rank": "10"|10, "suit": "♦"|"D"}.
func (c *Card) UnmarshalJSON(b []byte) error {
	var text string
	if err := json.Unmarshal(b, &text); err == nil {
		card, err := ParseCard(text)
		if err != nil {
			return err
		}
		*c = card
		return nil
	}

	var obj struct {
		Rank json.RawMessage `json:"rank"`
		Suit string          `json:"suit"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidCardFormat, string(b))
	}
	var rank string
	if err := json.Unmarshal(obj.Rank, &rank); err != nil {
		var n int
		if err := json.Unmarshal(obj.Rank, &n); err != nil {
			return fmt.Errorf("%w: rank %s", ErrInvalidCardFormat, string(obj.Rank))
		}
		rank = strconv.Itoa(n)
	}
	card, err := CardFromParts(rank, obj.Suit)
	if err != nil {
		return err
	}
	*c = card
	return nil
}

// CardStrings renders a slice of cards in text form.
func CardStrings(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}

// SumFaceValues totals FaceValue over cards.
func SumFaceValues(cards []Card) int {
	total := 0
	for _, c := range cards {
		total += c.FaceValue()
	}
	return total
}
