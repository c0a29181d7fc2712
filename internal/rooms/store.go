package rooms

import (
	"strings"
	"sync"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"

	"cribbage-rooms/backend/internal/game/cribbage"
	"cribbage-rooms/backend/internal/models"
)

const maxRoomIDLen = 64

// Room owns one game state. Every action against it goes through Do, so
// actions for a room are applied one at a time in arrival order.
type Room struct {
	mu    sync.Mutex
	state *cribbage.State
}

// Do runs fn with exclusive access to the room state. fn must not keep the
// state pointer after it returns.
func (r *Room) Do(fn func(*cribbage.State) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.state)
}

// View returns the public projection of the room.
func (r *Room) View() cribbage.PublicState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.PublicView()
}

type Store struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	opts  []cribbage.Option
}

// NewStore returns an empty store. opts are applied to every new room state.
func NewStore(opts ...cribbage.Option) *Store {
	return &Store{rooms: map[string]*Room{}, opts: opts}
}

// NormalizeID trims a room id and validates it.
func NormalizeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || utf8.RuneCountInString(id) > maxRoomIDLen {
		return "", models.ErrInvalidRoom
	}
	return id, nil
}

// Ensure returns the room with id, creating it if needed.
func (s *Store) Ensure(id string) (*Room, bool, error) {
	id, err := NormalizeID(id)
	if err != nil {
		return nil, false, err
	}
	if r, ok := s.Get(id); ok {
		return r, false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[id]; ok {
		return r, false, nil
	}
	r := &Room{state: cribbage.NewState(id, s.opts...)}
	s.rooms[id] = r
	log.WithField("room_id", id).Info("room created")
	return r, true, nil
}

func (s *Store) Get(id string) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[strings.TrimSpace(id)]
	return r, ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
