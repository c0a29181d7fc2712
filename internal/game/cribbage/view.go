package cribbage

import "cribbage-rooms/backend/internal/game/common"

// PublicState is the room snapshot broadcast to every participant. It never
// carries hand contents, only counts.
type PublicState struct {
	RoomID          string                `json:"room_id"`
	Rules           Rules                 `json:"rules"`
	Players         []Player              `json:"players"`
	DealerSeat      *int                  `json:"dealer_seat"`
	Phase           Phase                 `json:"phase"`
	CribCount       int                   `json:"crib_count"`
	CribLocked      bool                  `json:"crib_locked"`
	CutCard         *common.Card          `json:"cut_card"`
	RunCount        int                   `json:"run_count"`
	PegPile         []common.Card         `json:"peg_pile"`
	LastShown       *common.Card          `json:"last_shown"`
	LastShownBySeat *int                  `json:"last_shown_by_seat"`
	LastShownByName string                `json:"last_shown_by_name,omitempty"`
	ShownBySeat     map[int][]common.Card `json:"shown_by_seat"`
	PeggingComplete bool                  `json:"pegging_complete"`
	RevealHands     map[int][]common.Card `json:"reveal_hands"`
	RevealCrib      []common.Card         `json:"reveal_crib"`
	HandCounts      map[int]int           `json:"hand_counts"`
	WinnerSeat      *int                  `json:"winner_seat"`
	WinnerName      string                `json:"winner_name,omitempty"`
	Log             []LogEntry            `json:"log"`
	LastScoring     *ScoringEvent         `json:"last_scoring_event"`
}

// PublicView copies the public fields of the state. The result shares no
// memory with s.
func (s *State) PublicView() PublicState {
	v := PublicState{
		RoomID:          s.roomID,
		Rules:           s.rules,
		Players:         append([]Player{}, s.players...),
		DealerSeat:      copyInt(s.dealer),
		Phase:           s.phase,
		CribCount:       s.CribCount(),
		CribLocked:      s.CribLocked(),
		CutCard:         copyCard(s.cut),
		RunCount:        s.runCount,
		PegPile:         append([]common.Card{}, s.pegPile...),
		LastShown:       copyCard(s.lastShown),
		LastShownBySeat: copyInt(s.lastShownBySeat),
		ShownBySeat:     copyCardMap(s.shownBySeat),
		PeggingComplete: s.peggingComplete,
		HandCounts:      make(map[int]int, len(s.players)),
		WinnerSeat:      copyInt(s.winnerSeat),
		WinnerName:      s.winnerName,
		Log:             append([]LogEntry{}, s.log...),
	}
	if s.lastShownBySeat != nil {
		v.LastShownByName = s.seatName(*s.lastShownBySeat)
	}
	if s.revealHands != nil {
		v.RevealHands = copyCardMap(s.revealHands)
		v.RevealCrib = append([]common.Card{}, s.revealCrib...)
	}
	for _, p := range s.players {
		v.HandCounts[p.SeatID] = len(s.hands[p.SeatID])
	}
	if s.lastScoring != nil {
		ev := *s.lastScoring
		v.LastScoring = &ev
	}
	return v
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyCard(c *common.Card) *common.Card {
	if c == nil {
		return nil
	}
	v := *c
	return &v
}

func copyCardMap(m map[int][]common.Card) map[int][]common.Card {
	out := make(map[int][]common.Card, len(m))
	for k, v := range m {
		out[k] = append([]common.Card{}, v...)
	}
	return out
}
