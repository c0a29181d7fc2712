package cribbage

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"cribbage-rooms/backend/internal/game/common"
)

type Phase string

const (
	PhaseIdle   Phase = "idle"   // no hand in progress (before the first deal, after next-hand/new-game)
	PhaseCrib   Phase = "crib"   // dealt, collecting crib contributions
	PhasePeg    Phase = "peg"    // crib locked, starter cut, cards being shown
	PhaseReveal Phase = "reveal" // pegging complete, hands and crib revealed and counted
)

type Player struct {
	SeatID    int    `json:"seat_id"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	PrevScore int    `json:"prev_score"`
}

type LogEntry struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
	Kind      string `json:"kind"`
	Text      string `json:"text"`
}

// ScoringEvent is a single award applied to a seat.
type ScoringEvent struct {
	SeatID    int    `json:"seat_id"`
	Name      string `json:"name"`
	Points    int    `json:"points"`
	Label     string `json:"label"`
	Timestamp int64  `json:"ts"`
}

// Outcome describes the side effects of an accepted action that the
// transport layer has to deliver beyond the public snapshot.
type Outcome struct {
	// HandsChanged lists the seats whose private hand must be re-sent.
	HandsChanged []int
	Scoring      []ScoringEvent
	Play         *PlayResult
}

type Option func(*State)

// WithClock overrides the time source used for log ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *State) { s.now = now }
}

// WithShuffler overrides the deck shuffle. Tests use it to stack the deck.
func WithShuffler(shuffle func([]common.Card) error) Option {
	return func(s *State) { s.shuffle = shuffle }
}

// WithRules overrides the default table rules.
func WithRules(r Rules) Option {
	return func(s *State) { s.rules = r }
}

// State is the authoritative record of one room. It is not safe for
// concurrent use; callers serialize access per room.
type State struct {
	roomID  string
	rules   Rules
	players []Player
	dealer  *int
	phase   Phase

	deck       []common.Card
	hands      map[int][]common.Card
	crib       []common.Card
	cribBySeat map[int]bool
	cut        *common.Card

	pegPile         []common.Card
	runCount        int
	runGoAwarded    bool
	lastShown       *common.Card
	lastShownBySeat *int
	shownBySeat     map[int][]common.Card
	peggingComplete bool

	revealHands map[int][]common.Card
	revealCrib  []common.Card

	winnerSeat  *int
	winnerName  string
	log         []LogEntry
	logSeq      int
	lastScoring *ScoringEvent

	now     func() time.Time
	shuffle func([]common.Card) error
}

func NewState(roomID string, opts ...Option) *State {
	s := &State{
		roomID:  roomID,
		rules:   DefaultRules(),
		phase:   PhaseIdle,
		now:     time.Now,
		shuffle: common.Shuffle,
	}
	for _, o := range opts {
		o(s)
	}
	s.resetHand()
	return s
}

func (s *State) RoomID() string { return s.roomID }
func (s *State) Rules() Rules   { return s.rules }
func (s *State) Phase() Phase   { return s.phase }
func (s *State) RunCount() int  { return s.runCount }

func (s *State) DealerSeat() (int, bool) {
	if s.dealer == nil {
		return 0, false
	}
	return *s.dealer, true
}

func (s *State) Winner() (seat int, name string, ok bool) {
	if s.winnerSeat == nil {
		return 0, "", false
	}
	return *s.winnerSeat, s.winnerName, true
}

func (s *State) Players() []Player {
	return append([]Player(nil), s.players...)
}

func (s *State) Player(seat int) (Player, bool) {
	if p := s.player(seat); p != nil {
		return *p, true
	}
	return Player{}, false
}

// Hand returns a copy of a seat's private hand.
func (s *State) Hand(seat int) []common.Card {
	return append([]common.Card{}, s.hands[seat]...)
}

func (s *State) PegPile() []common.Card {
	return append([]common.Card{}, s.pegPile...)
}

func (s *State) Cut() (common.Card, bool) {
	if s.cut == nil {
		return common.Card{}, false
	}
	return *s.cut, true
}

// CribCount is the number of seats that have contributed to the crib.
func (s *State) CribCount() int { return len(s.cribBySeat) }

func (s *State) CribLocked() bool { return len(s.cribBySeat) >= s.rules.Seats }

func (s *State) PeggingComplete() bool { return s.peggingComplete }

func (s *State) Log() []LogEntry {
	return append([]LogEntry(nil), s.log...)
}

func (s *State) player(seat int) *Player {
	for i := range s.players {
		if s.players[i].SeatID == seat {
			return &s.players[i]
		}
	}
	return nil
}

func (s *State) seatName(seat int) string {
	if p := s.player(seat); p != nil {
		return p.Name
	}
	return fmt.Sprintf("Seat %d", seat)
}

func (s *State) seatIDs() []int {
	ids := make([]int, 0, len(s.players))
	for _, p := range s.players {
		ids = append(ids, p.SeatID)
	}
	sort.Ints(ids)
	return ids
}

// resetHand clears every per-hand field. Scores, players and the dealer survive.
func (s *State) resetHand() {
	s.phase = PhaseIdle
	s.deck = nil
	s.hands = map[int][]common.Card{}
	s.crib = nil
	s.cribBySeat = map[int]bool{}
	s.cut = nil
	s.shownBySeat = map[int][]common.Card{}
	s.peggingComplete = false
	s.revealHands = nil
	s.revealCrib = nil
	s.clearRun()
}

func (s *State) clearRun() {
	s.pegPile = nil
	s.runCount = 0
	s.runGoAwarded = false
	s.lastShown = nil
	s.lastShownBySeat = nil
}

func (s *State) addLog(kind, text string) {
	now := s.now()
	s.logSeq++
	s.log = append(s.log, LogEntry{
		ID:        fmt.Sprintf("%d-%d", now.UnixMilli(), s.logSeq),
		Timestamp: now.UnixMilli(),
		Kind:      kind,
		Text:      text,
	})
	if limit := s.rules.MaxLog; limit > 0 && len(s.log) > limit {
		s.log = append([]LogEntry(nil), s.log[len(s.log)-limit:]...)
	}
}

// award applies delta to a seat and checks for a winner. The event carries
// the change actually applied, which differs from delta when the score is
// floored at zero. Once a winner is set every award is a no-op until the
// next game.
func (s *State) award(seat, delta int, label string) *ScoringEvent {
	if s.winnerSeat != nil || delta == 0 {
		return nil
	}
	p := s.player(seat)
	if p == nil {
		return nil
	}
	p.PrevScore = p.Score
	p.Score += delta
	if p.Score < 0 {
		p.Score = 0
	}

	ev := ScoringEvent{
		SeatID:    seat,
		Name:      p.Name,
		Points:    p.Score - p.PrevScore,
		Label:     label,
		Timestamp: s.now().UnixMilli(),
	}
	s.lastScoring = &ev

	if p.Score >= s.rules.WinningScore {
		w := seat
		s.winnerSeat = &w
		s.winnerName = p.Name
		s.addLog("winner", fmt.Sprintf("%s wins with %d!", p.Name, p.Score))
	}
	return &ev
}

func normName(name string, maxLen int) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Player"
	}
	if maxLen > 0 && utf8.RuneCountInString(name) > maxLen {
		name = string([]rune(name)[:maxLen])
	}
	return name
}

func containsCard(cards []common.Card, c common.Card) bool {
	for _, x := range cards {
		if x == c {
			return true
		}
	}
	return false
}

func removeCard(cards []common.Card, c common.Card) []common.Card {
	out := make([]common.Card, 0, len(cards))
	for _, x := range cards {
		if x != c {
			out = append(out, x)
		}
	}
	return out
}
