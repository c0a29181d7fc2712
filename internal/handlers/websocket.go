package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"cribbage-rooms/backend/internal/auth"
	"cribbage-rooms/backend/internal/config"
	"cribbage-rooms/backend/internal/game/common"
	"cribbage-rooms/backend/internal/game/cribbage"
	"cribbage-rooms/backend/internal/models"
	"cribbage-rooms/backend/internal/rooms"
	"cribbage-rooms/backend/internal/tracing"
	ws "cribbage-rooms/backend/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Inbound message types.
const (
	msgRoomCreate = "room:create"
	msgRoomJoin   = "room:join"
	msgRoomRejoin = "room:rejoin"
	msgHostDeal   = "host:deal"
	msgCribSelect = "player:cribSelect"
	msgPegShow    = "peg:show"
	msgPegReset   = "peg:reset"
	msgPegAdd     = "peg:add"
	msgHandNext   = "hand:next"
	msgGameNew    = "game:new"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// intentPayload is the union of every inbound payload; each intent reads the
// fields it needs.
type intentPayload struct {
	RoomID      string        `json:"room_id"`
	DisplayName string        `json:"display_name"`
	SeatID      *int          `json:"seat_id"`
	SeatToken   string        `json:"seat_token"`
	Card        *common.Card  `json:"card"`
	Cards       []common.Card `json:"cards"`
	Delta       *int          `json:"delta"`
}

type roomServer struct {
	store *rooms.Store
	db    *sql.DB
	cfg   config.Config
}

func newUpgrader(cfg config.Config) websocket.Upgrader {
	allowed := map[string]bool{}
	for _, o := range cfg.WSAllowedOrigins {
		allowed[o] = true
	}
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" {
				// Non-browser clients (no Origin) are allowed.
				return true
			}
			if allowed[origin] {
				return true
			}
			if !cfg.IsDevelopment() {
				return false
			}
			return cfg.DevWebSocketsAllowAll || isLocalhostOrigin(origin)
		},
	}
}

func isLocalhostOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

// WebSocketHandler upgrades the connection and routes room intents to the
// store. Joining is open; the seat a connection acts for is fixed by its
// join or rejoin.
func WebSocketHandler(hubProvider func() (*ws.Hub, bool), store *rooms.Store, db *sql.DB, cfg config.Config) gin.HandlerFunc {
	upgrader := newUpgrader(cfg)
	srv := &roomServer{store: store, db: db, cfg: cfg}
	return func(c *gin.Context) {
		hub, ok := hubProvider()
		if !ok {
			log.WithField("path", c.Request.URL.Path).Error("websocket hub unavailable")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"remote": c.ClientIP(),
				"origin": c.Request.Header.Get("Origin"),
			}).Warn("websocket upgrade failed")
			return
		}

		client := ws.NewClient(conn, hub)
		hub.Register(client)

		go client.WritePump()
		go client.ReadPump(func(msg []byte) {
			srv.handleMessage(hub, client, msg)
		})

		hub.SendTo(client, msgConnected, gin.H{"session_id": client.SessionID})
	}
}

func (s *roomServer) handleMessage(hub *ws.Hub, client *ws.Client, raw []byte) {
	var in inboundMessage
	if err := json.Unmarshal(raw, &in); err != nil {
		s.reject(hub, client, "", models.ErrInvalidJSON)
		return
	}
	var p intentPayload
	if len(in.Payload) > 0 && string(in.Payload) != "null" {
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			if errors.Is(err, common.ErrInvalidCardFormat) {
				err = models.ErrInvalidCard
			} else {
				err = models.ErrInvalidJSON
			}
			s.reject(hub, client, in.Type, err)
			return
		}
	}

	ctx, span := tracing.StartSpan(context.Background(), "ws "+in.Type,
		attribute.String("room_id", p.RoomID),
		attribute.String("session_id", client.SessionID),
	)
	err := s.dispatch(ctx, hub, client, in.Type, p)
	_, _, known := classify(err)
	tracing.EndSpan(span, err, known)
	if err != nil {
		s.reject(hub, client, in.Type, err)
	}
}

func (s *roomServer) dispatch(ctx context.Context, hub *ws.Hub, client *ws.Client, typ string, p intentPayload) error {
	switch typ {
	case msgRoomCreate, msgRoomJoin:
		return s.join(ctx, hub, client, typ, p)
	case msgRoomRejoin:
		return s.rejoin(ctx, hub, client, p)
	case msgHostDeal:
		return s.act(ctx, hub, client, typ, p, false, "", func(st *cribbage.State, seat int) (cribbage.Outcome, error) {
			return st.Deal(seat)
		})
	case msgCribSelect:
		return s.act(ctx, hub, client, typ, p, true, "", func(st *cribbage.State, seat int) (cribbage.Outcome, error) {
			return st.SelectCrib(seat, p.Cards)
		})
	case msgPegShow:
		if p.Card == nil {
			return models.ErrInvalidCard
		}
		return s.act(ctx, hub, client, typ, p, true, p.Card.String(), func(st *cribbage.State, seat int) (cribbage.Outcome, error) {
			return st.ShowCard(seat, *p.Card)
		})
	case msgPegReset:
		return s.act(ctx, hub, client, typ, p, false, "", func(st *cribbage.State, _ int) (cribbage.Outcome, error) {
			return st.ResetRun()
		})
	case msgPegAdd:
		if p.SeatID == nil {
			return models.ErrInvalidPlayer
		}
		if p.Delta == nil {
			return models.ErrInvalidDelta
		}
		return s.act(ctx, hub, client, typ, p, false, "", func(st *cribbage.State, _ int) (cribbage.Outcome, error) {
			return st.AddScore(*p.SeatID, *p.Delta)
		})
	case msgHandNext:
		return s.act(ctx, hub, client, typ, p, false, "", func(st *cribbage.State, _ int) (cribbage.Outcome, error) {
			return st.NextHand()
		})
	case msgGameNew:
		return s.act(ctx, hub, client, typ, p, false, "", func(st *cribbage.State, _ int) (cribbage.Outcome, error) {
			return st.NewGame()
		})
	default:
		return models.ErrUnknownMessageType
	}
}

type roomAction func(st *cribbage.State, seat int) (cribbage.Outcome, error)

// act runs fn for the connection's bound seat. With ownSeat set, a seat_id in
// the payload must be the bound seat.
func (s *roomServer) act(ctx context.Context, hub *ws.Hub, client *ws.Client, typ string, p intentPayload, ownSeat bool, card string, fn roomAction) error {
	roomID, seat, ok := client.Binding()
	if !ok {
		return models.ErrNotSeated
	}
	if p.RoomID != "" && strings.TrimSpace(p.RoomID) != roomID {
		return models.ErrSeatMismatch
	}
	if ownSeat && p.SeatID != nil && *p.SeatID != seat {
		return models.ErrSeatMismatch
	}
	room, ok := s.store.Get(roomID)
	if !ok {
		return models.ErrRoomNotFound
	}

	var out cribbage.Outcome
	err := room.Do(func(st *cribbage.State) error {
		var err error
		out, err = fn(st, seat)
		var rejected *cribbage.PlayRejectedError
		if err == nil || errors.As(err, &rejected) {
			// a refused play still logs a line everyone sees
			publish(hub, st, out)
		}
		return err
	})
	if err != nil {
		return err
	}

	recordEvent(ctx, s.db, journalEntry(roomID, typ, &seat, card, out))
	log.WithFields(log.Fields{"room_id": roomID, "seat_id": seat, "type": typ}).Debug("ws action applied")
	return nil
}

func (s *roomServer) join(ctx context.Context, hub *ws.Hub, client *ws.Client, typ string, p intentPayload) error {
	room, created, err := s.store.Ensure(p.RoomID)
	if err != nil {
		return err
	}

	var joined joinedView
	err = room.Do(func(st *cribbage.State) error {
		seat, err := st.AddPlayer(p.DisplayName)
		if err != nil {
			return err
		}
		joined = s.bind(hub, client, st, seat)
		return nil
	})
	if err != nil {
		return err
	}

	seat := joined.SeatID
	recordEvent(ctx, s.db, journalEntry(joined.RoomID, typ, &seat, "", cribbage.Outcome{}))
	log.WithFields(log.Fields{
		"room_id": joined.RoomID,
		"seat_id": seat,
		"created": created,
	}).Info("player joined")
	return nil
}

// rejoin reclaims a seat. A seat token only reclaims a seat in a room that
// already exists; without one the room is created as for a join.
func (s *roomServer) rejoin(ctx context.Context, hub *ws.Hub, client *ws.Client, p intentPayload) error {
	roomID, err := rooms.NormalizeID(p.RoomID)
	if err != nil {
		return err
	}

	want := ws.NoSeat
	var room *rooms.Room
	switch {
	case p.SeatToken != "":
		claims, err := auth.ParseSeatToken(p.SeatToken, s.cfg)
		if err != nil || claims.RoomID != roomID {
			return models.ErrSeatMismatch
		}
		var ok bool
		if room, ok = s.store.Get(roomID); !ok {
			return models.ErrRoomNotFound
		}
		want = claims.SeatID
	default:
		if p.SeatID != nil {
			want = *p.SeatID
		}
		if room, _, err = s.store.Ensure(roomID); err != nil {
			return err
		}
	}

	var joined joinedView
	err = room.Do(func(st *cribbage.State) error {
		seat, err := st.Rejoin(want, p.DisplayName)
		if err != nil {
			return err
		}
		joined = s.bind(hub, client, st, seat)
		return nil
	})
	if err != nil {
		return err
	}

	seat := joined.SeatID
	recordEvent(ctx, s.db, journalEntry(joined.RoomID, msgRoomRejoin, &seat, "", cribbage.Outcome{}))
	log.WithFields(log.Fields{"room_id": joined.RoomID, "seat_id": seat}).Info("player rejoined")
	return nil
}

// bind attaches client to seat, tells it which seat it holds and publishes
// the room with that seat's hand. Called under the room lock.
func (s *roomServer) bind(hub *ws.Hub, client *ws.Client, st *cribbage.State, seat int) joinedView {
	roomID := st.RoomID()
	client.Bind(roomID, seat)
	hub.Join(client, roomID)

	p, _ := st.Player(seat)
	joined := joinedView{RoomID: roomID, SeatID: seat, Name: p.Name, SessionID: client.SessionID}
	token, err := auth.GenerateSeatToken(roomID, seat, p.Name, s.cfg)
	if err != nil {
		log.WithError(err).WithField("room_id", roomID).Warn("seat token not issued")
	} else {
		joined.SeatToken = token
	}

	hub.SendTo(client, msgRoomJoined, joined)
	publish(hub, st, cribbage.Outcome{HandsChanged: []int{seat}})
	return joined
}

func (s *roomServer) reject(hub *ws.Hub, client *ws.Client, typ string, err error) {
	fields := log.Fields{"type": typ, "session_id": client.SessionID}

	var rejected *cribbage.PlayRejectedError
	if errors.As(err, &rejected) {
		roomID, _, _ := client.Binding()
		log.WithFields(fields).WithField("reason", rejected.Reason).Debug("ws play rejected")
		hub.SendTo(client, msgPegRejected, pegRejectedFor(roomID, rejected))
		return
	}

	code, _, ok := classify(err)
	if ok {
		log.WithFields(fields).WithField("reason", code).Debug("ws action rejected")
	} else {
		log.WithError(err).WithFields(fields).Error("ws action failed")
	}
	hub.SendTo(client, msgRejected, rejectedView{Type: typ, Reason: code})
}
