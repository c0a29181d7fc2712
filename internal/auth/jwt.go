package auth

import (
	"fmt"
	"time"

	"cribbage-rooms/backend/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// SeatClaims bind a token to one seat in one room. A client presents it on
// rejoin or when fetching its private hand over HTTP.
type SeatClaims struct {
	RoomID string `json:"room_id"`
	SeatID int    `json:"seat_id"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

func GenerateSeatToken(roomID string, seatID int, name string, cfg config.Config) (string, error) {
	if cfg.JWTSecret == "" {
		return "", fmt.Errorf("JWT_SECRET is required")
	}
	now := time.Now().UTC()
	claims := SeatClaims{
		RoomID: roomID,
		SeatID: seatID,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.JWTIssuer,
			Subject:   fmt.Sprintf("%s/%d", roomID, seatID),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.JWTTTL())),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString([]byte(cfg.JWTSecret))
}

func ParseSeatToken(tokenString string, cfg config.Config) (*SeatClaims, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	tok, err := jwt.ParseWithClaims(tokenString, &SeatClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	},
		jwt.WithIssuer(cfg.JWTIssuer),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(*SeatClaims)
	if !ok || !tok.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
