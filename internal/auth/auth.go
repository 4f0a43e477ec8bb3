// Package auth implements the password gate in front of the workspace: a
// single shared password checked with bcrypt and short-lived session tokens
// kept in memory.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Sentinel errors.
var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidHash     = errors.New("invalid password hash")
	ErrGateDisabled    = errors.New("no password configured")
)

// CookieName is the session cookie set by a successful login.
const CookieName = "themepdf_session"

// Gate checks the shared password and tracks sessions. A Gate with no
// password is disabled and treats every request as authenticated.
type Gate struct {
	hash     []byte
	ttl      time.Duration
	now      func() time.Time
	mu       sync.Mutex
	sessions map[string]time.Time
}

// New creates a gate. passwordHash (bcrypt) wins over password; with
// neither, the gate is disabled.
func New(password, passwordHash string, ttl time.Duration) (*Gate, error) {
	g := &Gate{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]time.Time),
	}

	switch {
	case passwordHash != "":
		if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidHash, err)
		}
		g.hash = []byte(passwordHash)
	case password != "":
		h, err := HashPassword(password)
		if err != nil {
			return nil, err
		}
		g.hash = []byte(h)
	}
	return g, nil
}

// HashPassword returns the bcrypt hash of password at the default cost.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(h), nil
}

// Enabled reports whether a password is required.
func (g *Gate) Enabled() bool {
	return g.hash != nil
}

// TTL returns the session lifetime.
func (g *Gate) TTL() time.Duration {
	return g.ttl
}

// Login checks password and opens a session. It returns the token and its
// expiry.
func (g *Gate) Login(password string) (string, time.Time, error) {
	if !g.Enabled() {
		return "", time.Time{}, ErrGateDisabled
	}
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidPassword
	}

	token := uuid.NewString()
	now := g.now()
	expires := now.Add(g.ttl)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.pruneLocked(now)
	g.sessions[token] = expires
	return token, expires, nil
}

// Valid reports whether token names a live session. Always true when the
// gate is disabled.
func (g *Gate) Valid(token string) bool {
	if !g.Enabled() {
		return true
	}
	if token == "" {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	expires, ok := g.sessions[token]
	if !ok {
		return false
	}
	if !g.now().Before(expires) {
		delete(g.sessions, token)
		return false
	}
	return true
}

// Logout ends a session.
func (g *Gate) Logout(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.sessions, token)
}

// Sessions returns the number of live sessions.
func (g *Gate) Sessions() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pruneLocked(g.now())
	return len(g.sessions)
}

// Authenticated reports whether r carries a valid session cookie.
func (g *Gate) Authenticated(r *http.Request) bool {
	if !g.Enabled() {
		return true
	}
	c, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}
	return g.Valid(c.Value)
}

// SetCookie writes the session cookie for token.
func SetCookie(w http.ResponseWriter, token string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (g *Gate) pruneLocked(now time.Time) {
	for token, expires := range g.sessions {
		if !now.Before(expires) {
			delete(g.sessions, token)
		}
	}
}
