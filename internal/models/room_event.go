package models

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// RoomEvent is one accepted action recorded in the journal.
type RoomEvent struct {
	ID        int64     `json:"id"`
	RoomID    string    `json:"room_id"`
	SeatID    *int64    `json:"seat_id,omitempty"`
	Action    string    `json:"action"`
	Card      *string   `json:"card,omitempty"`
	Points    int64     `json:"points"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func InsertRoomEvent(ctx context.Context, db *sql.DB, e RoomEvent) (int64, error) {
	res, err := db.ExecContext(ctx,
		`INSERT INTO room_events(room_id, seat_id, action, card, points, detail) VALUES (?, ?, ?, ?, ?, ?)`,
		e.RoomID, e.SeatID, e.Action, e.Card, e.Points, e.Detail,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func GetRoomEventByID(ctx context.Context, db *sql.DB, id int64) (*RoomEvent, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, room_id, seat_id, action, card, points, detail, created_at FROM room_events WHERE id = ?`,
		id,
	)
	e, err := scanRoomEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// ListRoomEvents returns the newest events first.
func ListRoomEvents(ctx context.Context, db *sql.DB, roomID string, limit int64) ([]RoomEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	rows, err := db.QueryContext(ctx,
		`SELECT id, room_id, seat_id, action, card, points, detail, created_at
		 FROM room_events WHERE room_id = ? ORDER BY id DESC LIMIT ?`,
		roomID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []RoomEvent{}
	for rows.Next() {
		e, err := scanRoomEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoomEvent(r rowScanner) (*RoomEvent, error) {
	var e RoomEvent
	var seat sql.NullInt64
	var card sql.NullString
	if err := r.Scan(&e.ID, &e.RoomID, &seat, &e.Action, &card, &e.Points, &e.Detail, &e.CreatedAt); err != nil {
		return nil, err
	}
	if seat.Valid {
		v := seat.Int64
		e.SeatID = &v
	}
	if card.Valid {
		v := card.String
		e.Card = &v
	}
	return &e, nil
}
