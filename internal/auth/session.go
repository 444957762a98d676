// Package auth decides whether a signed-in user session is available.
//
// The backend verifies tokens; this package only reads the claims of the
// locally stored ID token to decide whether the list can be shown or the
// login view is needed.
package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSession means no usable user session exists.
var ErrNoSession = errors.New("no authenticated session")

// Session describes the signed-in user.
type Session struct {
	Token    string
	Subject  string
	Username string
	Expires  time.Time
}

// Valid reports whether the session is usable at now.
func (s Session) Valid(now time.Time) bool {
	return s.Token != "" && (s.Expires.IsZero() || now.Before(s.Expires))
}

type idClaims struct {
	jwt.RegisteredClaims
	Username      string `json:"cognito:username"`
	PreferredName string `json:"preferred_username"`
	Email         string `json:"email"`
}

// Parse reads the claims of an ID token and rejects expired tokens.
func Parse(token string, now time.Time) (Session, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return Session{}, ErrNoSession
	}

	var claims idClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Session{}, fmt.Errorf("%w: parse id token: %v", ErrNoSession, err)
	}

	s := Session{Token: token, Subject: claims.Subject, Username: firstNonEmpty(claims.Username, claims.PreferredName, claims.Email, claims.Subject)}
	if claims.ExpiresAt != nil {
		s.Expires = claims.ExpiresAt.Time
	}
	if !s.Valid(now) {
		return Session{}, fmt.Errorf("%w: token expired at %s", ErrNoSession, s.Expires.Format(time.RFC3339))
	}
	return s, nil
}

// Load returns the session from token, or from the file at tokenFile when
// token is empty.
func Load(token, tokenFile string, now time.Time) (Session, error) {
	if strings.TrimSpace(token) == "" && strings.TrimSpace(tokenFile) != "" {
		data, err := os.ReadFile(tokenFile)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return Session{}, ErrNoSession
			}
			return Session{}, fmt.Errorf("read id token: %w", err)
		}
		token = string(data)
	}
	return Parse(token, now)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
