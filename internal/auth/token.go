// Package auth turns signed tokens into the acting user of a board mutation.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chepyr/go-task-board/internal/models"
)

var (
	ErrMissingToken  = errors.New("missing token")
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidClaims = errors.New("invalid token claims")
)

// ActorFromToken verifies an HS256 token and reads the actor from its claims:
// sub (required), name, picture and admin. Tokens without exp are rejected.
// A "Bearer " prefix is accepted.
func ActorFromToken(tokenString, secret string) (models.Actor, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return models.Actor{}, ErrMissingToken
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return models.Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Actor{}, ErrInvalidClaims
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return models.Actor{}, ErrInvalidClaims
	}
	name, _ := claims["name"].(string)
	picture, _ := claims["picture"].(string)
	admin, _ := claims["admin"].(bool)
	return models.Actor{ID: sub, Fullname: name, ImgURL: picture, IsAdmin: admin}, nil
}

// IssueToken signs a token for the actor that expires after ttl.
func IssueToken(actor models.Actor, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": actor.ID,
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
	}
	if actor.Fullname != "" {
		claims["name"] = actor.Fullname
	}
	if actor.ImgURL != "" {
		claims["picture"] = actor.ImgURL
	}
	if actor.IsAdmin {
		claims["admin"] = true
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
