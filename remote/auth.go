// ABOUTME: Session provider for the hosted auth service
// ABOUTME: Signs in, refreshes and validates sessions and doubles as the liveness probe
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// refreshLeeway refreshes tokens slightly before they expire.
const refreshLeeway = 30 * time.Second

// SessionStore persists the session between runs.
type SessionStore interface {
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, value any) error
	Del(ctx context.Context, key string) error
}

// AuthClient talks to the backend's auth endpoints under /auth/v1.
type AuthClient struct {
	baseURL string
	anonKey string
	http    *http.Client
	store   SessionStore
	now     func() time.Time
	logger  *zap.Logger

	mu sync.Mutex
}

// Option configures the remote clients.
type Option func(*options)

type options struct {
	http   *http.Client
	now    func() time.Time
	logger *zap.Logger
}

// WithHTTPClient overrides the base HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.http = c
		}
	}
}

// WithClock injects the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		http:   &http.Client{},
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func NewAuthClient(baseURL, anonKey string, store SessionStore, opts ...Option) *AuthClient {
	o := buildOptions(opts)
	return &AuthClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		http:    o.http,
		store:   store,
		now:     o.now,
		logger:  o.logger,
	}
}

// SignIn exchanges email and password for a session and stores it.
func (a *AuthClient) SignIn(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	session, err := a.grant(ctx, "password", body)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.store.Set(ctx, SessionKey, session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return session, nil
}

// SignOut revokes the session remotely when possible and always forgets it
// locally.
func (a *AuthClient) SignOut(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var session Session
	if a.store.Get(ctx, SessionKey, &session) && session.AccessToken != "" {
		req, err := a.newRequest(ctx, http.MethodPost, "/auth/v1/logout", nil)
		if err == nil {
			req.Header.Set("Authorization", "Bearer "+session.AccessToken)
			if resp, err := a.http.Do(req); err != nil {
				a.logger.Warn("remote sign-out failed", zap.Error(err))
			} else {
				_ = resp.Body.Close()
			}
		}
	}
	return a.store.Del(ctx, SessionKey)
}

// GetSession returns the current session, refreshing it when expired and
// validating it against the backend. With no stored session it returns
// (nil, nil) once the backend proves reachable. Any failure to reach the
// backend is an ErrUnavailable.
func (a *AuthClient) GetSession(ctx context.Context) (*Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var session Session
	if !a.store.Get(ctx, SessionKey, &session) || session.AccessToken == "" {
		if err := a.health(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if session.Expired(a.now(), refreshLeeway) {
		refreshed, err := a.refresh(ctx, &session)
		if err != nil {
			return nil, err
		}
		if refreshed == nil {
			return nil, nil
		}
		session = *refreshed
	}

	user, err := a.user(ctx, session.AccessToken)
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = a.store.Del(ctx, SessionKey)
		return nil, nil
	}
	session.User = *user
	return &session, nil
}

// Probe is a liveness check: the session lookup must complete.
func (a *AuthClient) Probe(ctx context.Context) error {
	_, err := a.GetSession(ctx)
	return err
}

// TokenSource yields the stored access token, refreshing it when expired.
// It never validates the token remotely.
func (a *AuthClient) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &sessionTokenSource{ctx: ctx, auth: a}
}

type sessionTokenSource struct {
	ctx  context.Context
	auth *AuthClient
}

func (s *sessionTokenSource) Token() (*oauth2.Token, error) {
	return s.auth.currentToken(s.ctx)
}

func (a *AuthClient) currentToken(ctx context.Context) (*oauth2.Token, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var session Session
	if !a.store.Get(ctx, SessionKey, &session) || session.AccessToken == "" {
		return nil, ErrNoSession
	}
	if session.Expired(a.now(), refreshLeeway) {
		refreshed, err := a.refresh(ctx, &session)
		if err != nil {
			return nil, err
		}
		if refreshed == nil {
			return nil, ErrNoSession
		}
		session = *refreshed
	}
	return session.Token(), nil
}

// refresh trades the refresh token for a new session. A rejected refresh
// token forgets the session and returns (nil, nil). Caller holds a.mu.
func (a *AuthClient) refresh(ctx context.Context, session *Session) (*Session, error) {
	if session.RefreshToken == "" {
		_ = a.store.Del(ctx, SessionKey)
		return nil, nil
	}
	refreshed, err := a.grant(ctx, "refresh_token", map[string]string{"refresh_token": session.RefreshToken})
	if err != nil {
		var status *StatusError
		if asStatus(err, &status) && (status.StatusCode == http.StatusBadRequest || status.StatusCode == http.StatusUnauthorized) {
			_ = a.store.Del(ctx, SessionKey)
			return nil, nil
		}
		return nil, err
	}
	if err := a.store.Set(ctx, SessionKey, refreshed); err != nil {
		a.logger.Warn("failed to persist refreshed session", zap.Error(err))
	}
	return refreshed, nil
}

func (a *AuthClient) grant(ctx context.Context, grantType string, body map[string]string) (*Session, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := a.newRequest(ctx, http.MethodPost, "/auth/v1/token?grant_type="+grantType, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var session Session
	if err := a.do(req, &session); err != nil {
		return nil, err
	}
	if session.AccessToken == "" {
		return nil, unavailable("token grant", fmt.Errorf("response carried no access token"))
	}
	session.fillFromClaims(a.now())
	return &session, nil
}

// user returns nil when the backend rejects the token.
func (a *AuthClient) user(ctx context.Context, accessToken string) (*User, error) {
	req, err := a.newRequest(ctx, http.MethodGet, "/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var user User
	if err := a.do(req, &user); err != nil {
		var status *StatusError
		if asStatus(err, &status) && (status.StatusCode == http.StatusUnauthorized || status.StatusCode == http.StatusForbidden) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (a *AuthClient) health(ctx context.Context) error {
	req, err := a.newRequest(ctx, http.MethodGet, "/auth/v1/health", nil)
	if err != nil {
		return err
	}
	return a.do(req, nil)
}

func (a *AuthClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if a.anonKey != "" {
		req.Header.Set("apikey", a.anonKey)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (a *AuthClient) do(req *http.Request, dst any) error {
	return doJSON(a.http, req, dst)
}
