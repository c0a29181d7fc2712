package cribbage

// Rules captures the table constants for four-player cribbage.
type Rules struct {
	Seats        int `json:"seats"`
	HandSize     int `json:"hand_size"`
	DiscardCount int `json:"discard_count"`
	WinningScore int `json:"winning_score"`
	PegLimit     int `json:"peg_limit"`
	MaxLog       int `json:"-"`
	MaxNameLen   int `json:"-"`
}

func DefaultRules() Rules {
	return Rules{
		Seats:        4,
		HandSize:     6,
		DiscardCount: 2,
		WinningScore: 121,
		PegLimit:     31,
		MaxLog:       200,
		MaxNameLen:   40,
	}
}

// KeptSize is the number of cards a seat holds once its crib cards are gone.
func (r Rules) KeptSize() int {
	return r.HandSize - r.DiscardCount
}

// CribSize is the number of cards in a locked crib.
func (r Rules) CribSize() int {
	return r.Seats * r.DiscardCount
}
