// Package session manages signed session cookies for the reference app and
// implements risk.SessionTerminator so enforcement can log a user out.
package session

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "riskgate/pkg/domain-errors"
)

const defaultTTL = 24 * time.Hour

// Claims are the JWT claims carried by a session cookie.
type Claims struct {
	UserID string `json:"user_id"`
	Scope  string `json:"scope"`
	jwt.RegisteredClaims
}

// Manager issues, verifies, and clears per-scope session cookies. Cookies
// are HS256-signed JWTs; one cookie per authentication scope so terminating
// the "user" session leaves an "admin" session alone.
type Manager struct {
	signingKey []byte
	ttl        time.Duration
	secure     bool
}

// Option configures the Manager.
type Option func(*Manager)

// WithTTL sets the session lifetime. Defaults to 24 hours.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithSecureCookies marks session cookies Secure. Off by default so the
// reference app works over plain HTTP in development.
func WithSecureCookies(secure bool) Option {
	return func(m *Manager) {
		m.secure = secure
	}
}

// NewManager creates a session manager with the given signing key.
func NewManager(signingKey string, opts ...Option) *Manager {
	m := &Manager{
		signingKey: []byte(signingKey),
		ttl:        defaultTTL,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Issue signs a session for the user and sets the scope's cookie.
func (m *Manager) Issue(w http.ResponseWriter, scope string, userID uuid.UUID) error {
	now := time.Now()
	claims := Claims{
		UserID: userID.String(),
		Scope:  scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signingKey)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "sign session token")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName(scope),
		Value:    signed,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Authenticate verifies the scope's session cookie and returns the user ID.
func (m *Manager) Authenticate(r *http.Request, scope string) (uuid.UUID, error) {
	cookie, err := r.Cookie(cookieName(scope))
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeUnauthorized, "no session")
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(cookie.Value, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "unexpected signing method")
		}
		return m.signingKey, nil
	})
	if err != nil || !token.Valid || claims.Scope != scope {
		return uuid.Nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session subject")
	}
	return userID, nil
}

// Clear expires the scope's session cookie.
func (m *Manager) Clear(w http.ResponseWriter, scope string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName(scope),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Terminate implements risk.SessionTerminator: it logs the scope out.
func (m *Manager) Terminate(w http.ResponseWriter, _ *http.Request, scope string) {
	m.Clear(w, scope)
}

func cookieName(scope string) string {
	return scope + "_session"
}
