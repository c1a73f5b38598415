// Package auth mints and verifies the opaque member token handed back
// in welcome and required on the administrator-only HTTP endpoints.
// Identity in Trivion is "a self-chosen display name plus an opaque
// server-generated token" — this package is that token.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"trivion/member"
)

const tokenTTL = 6 * time.Hour

// Claims binds a token to exactly one member in exactly one room.
type Claims struct {
	jwt.RegisteredClaims
	Room     string      `json:"room"`
	MemberID string      `json:"member_id"`
	Role     member.Role `json:"role"`
}

// Issuer mints and verifies member tokens with an HS256 secret.
type Issuer struct {
	secret []byte
}

// NewIssuer builds an Issuer. If secret is empty, a random per-process
// secret is generated — tokens remain valid for the life of the
// process but are never portable across restarts, which is consistent
// with room state not surviving restarts either.
func NewIssuer(secret string) (*Issuer, error) {
	if secret == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("generating random jwt secret: %w", err)
		}
		secret = hex.EncodeToString(b)
	}
	return &Issuer{secret: []byte(secret)}, nil
}

// Issue mints a token for m within roomCode.
func (i *Issuer) Issue(roomCode string, m *member.Member) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
		Room:     roomCode,
		MemberID: m.ID.String(),
		Role:     m.Role,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(i.secret)
}

// Verify parses and validates a token, returning its claims.
func (i *Issuer) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}
