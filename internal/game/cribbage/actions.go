package cribbage

import (
	"fmt"
	"sort"
	"strings"

	"cribbage-rooms/backend/internal/game/common"
	"cribbage-rooms/backend/internal/models"
)

// AddPlayer seats a new player at the lowest free seat.
func (s *State) AddPlayer(name string) (int, error) {
	if len(s.players) >= s.rules.Seats {
		return -1, models.ErrRoomFull
	}
	taken := map[int]bool{}
	for _, p := range s.players {
		taken[p.SeatID] = true
	}
	seat := 0
	for taken[seat] {
		seat++
	}
	p := Player{SeatID: seat, Name: normName(name, s.rules.MaxNameLen)}
	s.players = append(s.players, p)
	sortPlayers(s.players)
	if s.dealer == nil {
		d := s.players[0].SeatID
		s.dealer = &d
	}
	s.addLog("join", fmt.Sprintf("%s joined as Seat %d", p.Name, seat))
	return seat, nil
}

// Rejoin reclaims a seat after a reconnect. An existing seat is matched by id
// (and renamed when a new name is given), then by display name; otherwise a
// fresh seat is assigned if the room has room.
func (s *State) Rejoin(seat int, name string) (int, error) {
	if p := s.player(seat); p != nil {
		if strings.TrimSpace(name) != "" {
			p.Name = normName(name, s.rules.MaxNameLen)
		}
		return p.SeatID, nil
	}
	nm := normName(name, s.rules.MaxNameLen)
	for _, p := range s.players {
		if p.Name == nm {
			return p.SeatID, nil
		}
	}
	return s.AddPlayer(name)
}

// Deal shuffles a fresh deck and deals a new hand. Only the dealer may deal,
// and only with every seat filled.
func (s *State) Deal(actor int) (Outcome, error) {
	if s.winnerSeat != nil {
		return Outcome{}, models.ErrWinnerDeclared
	}
	if s.dealer == nil || *s.dealer != actor {
		return Outcome{}, models.ErrNotDealer
	}
	if len(s.players) != s.rules.Seats {
		return Outcome{}, models.ErrNotEnoughPlayers
	}

	deck := common.NewStandardDeck()
	if err := s.shuffle(deck); err != nil {
		return Outcome{}, err
	}

	s.resetHand()
	var out Outcome
	for _, seat := range s.seatIDs() {
		hand := append([]common.Card(nil), deck[:s.rules.HandSize]...)
		deck = deck[s.rules.HandSize:]
		s.hands[seat] = hand
		out.HandsChanged = append(out.HandsChanged, seat)
	}
	s.deck = deck
	s.phase = PhaseCrib
	s.addLog("deal", fmt.Sprintf("%s dealt %d cards each", s.seatName(actor), s.rules.HandSize))
	return out, nil
}

// SelectCrib moves a seat's two crib cards from its hand to the crib. The
// last contribution locks the crib and cuts the starter.
func (s *State) SelectCrib(seat int, cards []common.Card) (Outcome, error) {
	if s.winnerSeat != nil {
		return Outcome{}, models.ErrWinnerDeclared
	}
	if s.player(seat) == nil {
		return Outcome{}, models.ErrInvalidPlayer
	}
	if s.phase != PhaseCrib {
		return Outcome{}, models.ErrWrongPhase
	}
	if len(cards) != s.rules.DiscardCount {
		return Outcome{}, models.ErrInvalidDiscardCount
	}
	if s.cribBySeat[seat] {
		return Outcome{}, models.ErrCribAlreadyContributed
	}
	seen := map[common.Card]bool{}
	for _, c := range cards {
		if seen[c] {
			return Outcome{}, models.ErrDuplicateCard
		}
		seen[c] = true
		if !containsCard(s.hands[seat], c) {
			return Outcome{}, models.ErrCardNotInHand
		}
	}

	hand := s.hands[seat]
	for _, c := range cards {
		hand = removeCard(hand, c)
		s.crib = append(s.crib, c)
	}
	s.hands[seat] = hand
	s.cribBySeat[seat] = true
	s.addLog("crib", fmt.Sprintf("%s put %d cards in the crib (%d/%d)", s.seatName(seat), len(cards), s.CribCount(), s.rules.Seats))

	out := Outcome{HandsChanged: []int{seat}}
	if s.CribLocked() {
		if err := s.cutStarter(); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (s *State) cutStarter() error {
	if len(s.deck) == 0 {
		return models.ErrEmptyDeck
	}
	c := s.deck[0]
	s.deck = s.deck[1:]
	s.cut = &c
	s.phase = PhasePeg
	s.addLog("cut", fmt.Sprintf("Crib locked. Starter is %s", c))
	return nil
}

// ShowCard plays one card onto the pegging pile.
func (s *State) ShowCard(seat int, card common.Card) (Outcome, error) {
	if s.winnerSeat != nil {
		return Outcome{}, models.ErrWinnerDeclared
	}
	if s.player(seat) == nil {
		return Outcome{}, models.ErrInvalidPlayer
	}
	if s.phase != PhasePeg {
		return Outcome{}, models.ErrWrongPhase
	}
	if !card.Valid() {
		return Outcome{}, models.ErrInvalidCard
	}
	if !containsCard(s.hands[seat], card) {
		return Outcome{}, models.ErrCardNotInHand
	}
	if containsCard(s.shownBySeat[seat], card) {
		return Outcome{}, models.ErrCardAlreadyShown
	}

	res := EvaluatePlay(s.pegPile, card)
	if !res.OK {
		for _, n := range res.Notes {
			s.addLog("peg", n)
		}
		return Outcome{}, &PlayRejectedError{SeatID: seat, Card: card, Reason: res.Reason, Total: res.Total}
	}

	name := s.seatName(seat)
	s.pegPile = res.NewSeq
	s.runCount = res.Total
	c := card
	s.lastShown = &c
	sh := seat
	s.lastShownBySeat = &sh
	s.shownBySeat[seat] = append(s.shownBySeat[seat], card)
	for _, n := range res.Notes {
		s.addLog("peg", n)
	}

	out := Outcome{Play: &res}
	if res.Points > 0 {
		if ev := s.award(seat, res.Points, res.Label()); ev != nil {
			out.Scoring = append(out.Scoring, *ev)
			s.addLog("score", fmt.Sprintf("%s +%d for %s.", name, res.Points, res.Label()))
		}
	}
	s.addLog("peg-show", fmt.Sprintf("%s showed %s (count %d)", name, card, s.runCount))

	wentGo := false
	if s.runCount < peggingLimit && !s.runGoAwarded && !s.othersCanPlay(seat) {
		s.runGoAwarded = true
		wentGo = true
		if ev := s.award(seat, 1, "go"); ev != nil {
			out.Scoring = append(out.Scoring, *ev)
			s.addLog("score", fmt.Sprintf("%s +1 for go.", name))
		}
	}

	if s.allSeatsShown() {
		if !wentGo && s.runCount < peggingLimit {
			if ev := s.award(seat, 1, "last card"); ev != nil {
				out.Scoring = append(out.Scoring, *ev)
				s.addLog("score", fmt.Sprintf("%s +1 for last card.", name))
			}
		}
		out.Scoring = append(out.Scoring, s.completePegging()...)
	}
	return out, nil
}

// othersCanPlay reports whether any other seat still holds an unshown card
// that fits under 31.
func (s *State) othersCanPlay(seat int) bool {
	for _, id := range s.seatIDs() {
		if id == seat {
			continue
		}
		if canPlayAny(s.unshown(id), s.runCount) {
			return true
		}
	}
	return false
}

func (s *State) unshown(seat int) []common.Card {
	var out []common.Card
	for _, c := range s.hands[seat] {
		if !containsCard(s.shownBySeat[seat], c) {
			out = append(out, c)
		}
	}
	return out
}

func (s *State) allSeatsShown() bool {
	if len(s.players) == 0 {
		return false
	}
	for _, id := range s.seatIDs() {
		if len(s.shownBySeat[id]) < s.rules.KeptSize() {
			return false
		}
	}
	return true
}

// completePegging reveals every hand and the crib, clears the run and counts
// fifteens: seats left of the dealer first, then the dealer, then the crib.
func (s *State) completePegging() []ScoringEvent {
	s.peggingComplete = true
	s.phase = PhaseReveal
	s.revealHands = map[int][]common.Card{}
	for seat, cards := range s.hands {
		s.revealHands[seat] = append([]common.Card{}, cards...)
	}
	s.revealCrib = append([]common.Card{}, s.crib...)
	s.clearRun()
	s.shownBySeat = map[int][]common.Card{}
	s.addLog("peg-complete", "Pegging complete. Hands revealed.")

	if s.cut == nil || s.dealer == nil {
		return nil
	}
	var events []ScoringEvent
	count := func(seat int, cards []common.Card, what string) {
		f := ScoreFifteens(cards, *s.cut)
		s.addLog("count", fmt.Sprintf("%s's %s: %d for fifteens", s.seatName(seat), what, f.Points))
		for _, d := range f.Detail() {
			s.addLog("count", d)
		}
		if f.Points > 0 {
			if ev := s.award(seat, f.Points, what+" fifteens"); ev != nil {
				events = append(events, *ev)
			}
		}
	}

	ids := s.seatIDs()
	start := 0
	for i, id := range ids {
		if id == *s.dealer {
			start = i
		}
	}
	for off := 1; off <= len(ids); off++ {
		seat := ids[(start+off)%len(ids)]
		count(seat, s.hands[seat], "hand")
	}
	count(*s.dealer, s.crib, "crib")
	return events
}

// ResetRun ends the current count ("go"). The last player to show gets +1
// for the go when the count is under 31, unless a go was already credited
// during this run: a run pays at most one go, so a go awarded at play time
// is not paid again on reset.
func (s *State) ResetRun() (Outcome, error) {
	if s.winnerSeat != nil {
		return Outcome{}, models.ErrWinnerDeclared
	}
	if s.phase != PhasePeg {
		return Outcome{}, models.ErrWrongPhase
	}
	var out Outcome
	if s.lastShownBySeat != nil && s.runCount < peggingLimit && !s.runGoAwarded {
		seat := *s.lastShownBySeat
		if ev := s.award(seat, 1, "go"); ev != nil {
			out.Scoring = append(out.Scoring, *ev)
			s.addLog("score", fmt.Sprintf("%s +1 for go.", s.seatName(seat)))
		}
	}
	s.clearRun()
	s.addLog("peg-reset", "Count reset (GO)")
	return out, nil
}

// AddScore is the manual scorekeeper: any non-zero delta, floored at zero.
func (s *State) AddScore(seat, delta int) (Outcome, error) {
	if s.winnerSeat != nil {
		return Outcome{}, models.ErrWinnerDeclared
	}
	if delta == 0 {
		return Outcome{}, models.ErrInvalidDelta
	}
	if s.player(seat) == nil {
		return Outcome{}, models.ErrInvalidPlayer
	}
	var out Outcome
	if ev := s.award(seat, delta, "manual"); ev != nil {
		out.Scoring = append(out.Scoring, *ev)
	}
	s.addLog("score", fmt.Sprintf("%s %+d", s.seatName(seat), delta))
	return out, nil
}

// NextHand passes the deal clockwise once pegging is complete.
func (s *State) NextHand() (Outcome, error) {
	if s.winnerSeat != nil {
		return Outcome{}, models.ErrWinnerDeclared
	}
	if !s.peggingComplete {
		return Outcome{}, models.ErrPeggingIncomplete
	}
	ids := s.seatIDs()
	if len(ids) == 0 {
		return Outcome{}, models.ErrNotEnoughPlayers
	}
	cur := 0
	if s.dealer != nil {
		cur = *s.dealer
	}
	next := ids[0]
	for _, id := range ids {
		if id > cur {
			next = id
			break
		}
	}
	s.dealer = &next

	out := Outcome{HandsChanged: s.seatIDs()}
	s.resetHand()
	s.addLog("next-hand", fmt.Sprintf("Next hand. Dealer: %s", s.seatName(next)))
	return out, nil
}

// NewGame resets scores, the winner and the current hand. It is the only
// action accepted once a winner is set.
func (s *State) NewGame() (Outcome, error) {
	for i := range s.players {
		s.players[i].Score = 0
		s.players[i].PrevScore = 0
	}
	if len(s.players) > 0 {
		d := 0
		s.dealer = &d
	} else {
		s.dealer = nil
	}
	s.winnerSeat = nil
	s.winnerName = ""
	s.lastScoring = nil

	out := Outcome{HandsChanged: s.seatIDs()}
	s.resetHand()
	s.addLog("new-game", "New game started. Scores reset, dealer is Seat 0")
	return out, nil
}

func sortPlayers(ps []Player) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].SeatID < ps[j].SeatID })
}
