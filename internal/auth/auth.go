// Package auth issues and verifies the signed tokens that bind a player
// name to a room. A token is handed out at registration and presented on
// every subsequent join.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token fails verification or names a
// different room/player than claimed.
var ErrInvalidToken = errors.New("auth: invalid token")

// Issuer signs and verifies room tokens with a shared HMAC secret.
type Issuer struct {
	secret []byte
}

// New builds an Issuer from the configured secret.
func New(secret string) *Issuer {
	return &Issuer{secret: []byte(secret)}
}

// Issue signs a token for player in room.
func (i *Issuer) Issue(room, player string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"room":   room,
		"player": player,
		"iat":    time.Now().Unix(),
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and that the claims match room and player.
func (i *Issuer) Verify(tokenString, room, player string) error {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ErrInvalidToken
	}
	if claims["room"] != room || claims["player"] != player {
		return ErrInvalidToken
	}
	return nil
}
