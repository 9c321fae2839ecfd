// ABOUTME: Auth session model and access-token claim parsing
// ABOUTME: Sessions are persisted locally so the portal survives restarts offline
package remote

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// SessionKey is where the signed-in session is stored in the local store.
const SessionKey = "auth-session"

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// Session is the backend's token grant.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         User   `json:"user"`
}

// Claims are the access-token fields the portal reads.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// ParseClaims reads the access token's claims without checking the
// signature; the backend verifies tokens, the portal only reads them.
func ParseClaims(accessToken string) (*Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}
	return &claims, nil
}

// Expiry returns when the access token stops being accepted. expires_at wins,
// then the token's exp claim. Zero means unknown.
func (s *Session) Expiry() time.Time {
	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0)
	}
	claims, err := ParseClaims(s.AccessToken)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// Expired reports whether the token is expired, or will be within leeway.
func (s *Session) Expired(now time.Time, leeway time.Duration) bool {
	exp := s.Expiry()
	if exp.IsZero() {
		return false
	}
	return !now.Add(leeway).Before(exp)
}

// Token converts the session for oauth2 transports.
func (s *Session) Token() *oauth2.Token {
	tokenType := s.TokenType
	if tokenType == "" {
		tokenType = "bearer"
	}
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    tokenType,
		Expiry:       s.Expiry(),
	}
}

// fillFromClaims backfills the user and expiry when the grant omitted them.
func (s *Session) fillFromClaims(now time.Time) {
	if s.ExpiresAt == 0 && s.ExpiresIn > 0 {
		s.ExpiresAt = now.Add(time.Duration(s.ExpiresIn) * time.Second).Unix()
	}
	if s.User.ID != "" && s.User.Email != "" {
		return
	}
	claims, err := ParseClaims(s.AccessToken)
	if err != nil {
		return
	}
	if s.User.ID == "" {
		s.User.ID = claims.Subject
	}
	if s.User.Email == "" {
		s.User.Email = claims.Email
	}
	if s.User.Role == "" {
		s.User.Role = claims.Role
	}
}
