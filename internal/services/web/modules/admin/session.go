package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// sessionCookieName holds the signed admin session token.
	sessionCookieName = "pd_admin"
	sessionIssuer     = "pepedome-admin"
)

var errSessionInvalid = errors.New("admin session is invalid")

// sessions issues and verifies HS256 session tokens for the single operator.
type sessions struct {
	secret   []byte
	username string
	ttl      time.Duration
	now      func() time.Time
}

// issue returns a signed token for username and its expiry.
func (s sessions) issue(username string) (string, time.Time, error) {
	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign admin session: %w", err)
	}
	return signed, expiresAt, nil
}

// verify checks signature, issuer, and expiry of raw and returns the
// operator name. Tokens for a different operator name are rejected so a
// credential change ends existing sessions.
func (s sessions) verify(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errSessionInvalid
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errSessionInvalid, err)
	}
	if claims.Subject == "" || claims.Subject != s.username {
		return "", errSessionInvalid
	}
	return claims.Subject, nil
}

type operatorKey struct{}

func withOperator(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, operatorKey{}, username)
}

func operatorFrom(ctx context.Context) string {
	username, _ := ctx.Value(operatorKey{}).(string)
	return username
}
