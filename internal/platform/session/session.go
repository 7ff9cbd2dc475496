package session

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// CookieName is the cookie carrying the signed session token.
const CookieName = "session"

// Role distinguishes the two account variants.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

// Identity is the resolved {role, id} pair derived from an active session,
// plus the cached display name.
type Identity struct {
	Role      Role
	AccountID int64
	Name      string
}

// Claims is the JWT payload stored in the session cookie.
type Claims struct {
	jwt.RegisteredClaims
	Role Role   `json:"role"`
	Name string `json:"name"`
}

type contextKey string

const identityKey contextKey = "session_identity"

// Manager signs and verifies session tokens. A session holds at most one
// identity; establishing a new one replaces the cookie wholesale.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl}
}

// Establish binds the session to the given identity, clearing any previous
// identity by overwriting the cookie.
func (m *Manager) Establish(c echo.Context, id Identity) error {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id.AccountID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Role: id.Role,
		Name: id.Name,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  now.Add(m.ttl),
	})
	return nil
}

// Clear removes all identity state from the session. Idempotent.
func (m *Manager) Clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// Resolve parses the session cookie into an Identity. A missing, expired, or
// tampered cookie resolves to nil (anonymous), never to an error.
func (m *Manager) Resolve(c echo.Context) *Identity {
	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil
	}
	if claims.Role != RolePatient && claims.Role != RoleDoctor {
		return nil
	}

	accountID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil
	}

	return &Identity{Role: claims.Role, AccountID: accountID, Name: claims.Name}
}

// Middleware resolves the session cookie once per request and stores the
// identity in the request context. It never blocks a request; the Require*
// gates do that.
func (m *Manager) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id := m.Resolve(c); id != nil {
				c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), id)))
			}
			return next(c)
		}
	}
}

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext returns the resolved identity, or nil when the request is
// anonymous.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// RequirePatient gates page routes that need a patient identity, redirecting
// anonymous or doctor sessions to the patient login page.
func RequirePatient() echo.MiddlewareFunc {
	return requireRole(RolePatient, "/login")
}

// RequireDoctor gates page routes that need a doctor identity.
func RequireDoctor() echo.MiddlewareFunc {
	return requireRole(RoleDoctor, "/doctor_login")
}

// RequireAny gates page routes open to either role, redirecting anonymous
// requests to the patient login page.
func RequireAny() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if FromContext(c.Request().Context()) == nil {
				return c.Redirect(http.StatusSeeOther, "/login")
			}
			return next(c)
		}
	}
}

// RequireAnyJSON gates API routes open to either role, answering anonymous
// requests with 401 instead of a redirect.
func RequireAnyJSON() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if FromContext(c.Request().Context()) == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			}
			return next(c)
		}
	}
}

func requireRole(role Role, loginPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := FromContext(c.Request().Context())
			if id == nil || id.Role != role {
				return c.Redirect(http.StatusSeeOther, loginPath)
			}
			return next(c)
		}
	}
}
