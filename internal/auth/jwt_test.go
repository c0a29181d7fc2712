package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cribbage-rooms/backend/internal/config"
)

func testConfig() config.Config {
	return config.Config{JWTSecret: "test-secret", JWTIssuer: "cribbage-test", JWTTTLMinutes: 5}
}

func TestSeatToken_RoundTrip(t *testing.T) {
	cfg := testConfig()
	tok, err := GenerateSeatToken("room-9", 2, "Cy", cfg)
	require.NoError(t, err)

	claims, err := ParseSeatToken(tok, cfg)
	require.NoError(t, err)
	assert.Equal(t, "room-9", claims.RoomID)
	assert.Equal(t, 2, claims.SeatID)
	assert.Equal(t, "Cy", claims.Name)
	assert.Equal(t, "room-9/2", claims.Subject)
}

func TestParseSeatToken_Rejects(t *testing.T) {
	cfg := testConfig()
	tok, err := GenerateSeatToken("room-9", 2, "Cy", cfg)
	require.NoError(t, err)

	other := cfg
	other.JWTSecret = "another-secret"
	_, err = ParseSeatToken(tok, other)
	assert.Error(t, err)

	other = cfg
	other.JWTIssuer = "someone-else"
	_, err = ParseSeatToken(tok, other)
	assert.Error(t, err)

	_, err = ParseSeatToken("not-a-token", cfg)
	assert.Error(t, err)

	_, err = GenerateSeatToken("room-9", 2, "Cy", config.Config{})
	assert.Error(t, err)
}

func TestParseSeatToken_Expired(t *testing.T) {
	cfg := testConfig()
	past := time.Now().Add(-time.Hour)
	claims := SeatClaims{
		RoomID: "r",
		SeatID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.JWTIssuer,
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Minute)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)

	_, err = ParseSeatToken(tok, cfg)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}
