package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func newContext(e *echo.Echo) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func sessionCookie(rec *httptest.ResponseRecorder, t *testing.T) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == CookieName {
			return ck
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestEstablishResolve_RoundTrip(t *testing.T) {
	e := echo.New()
	m := NewManager("secret", time.Hour)

	c, rec := newContext(e)
	want := Identity{Role: RolePatient, AccountID: 42, Name: "Alice"}
	if err := m.Establish(c, want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ck := sessionCookie(rec, t)
	if !ck.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}

	c2, _ := newContext(e)
	c2.Request().AddCookie(ck)
	got := m.Resolve(c2)
	if got == nil {
		t.Fatal("expected an identity")
	}
	if *got != want {
		t.Errorf("expected %+v, got %+v", want, *got)
	}
}

func TestResolve_AnonymousWithoutCookie(t *testing.T) {
	e := echo.New()
	m := NewManager("secret", time.Hour)
	c, _ := newContext(e)
	if m.Resolve(c) != nil {
		t.Error("expected nil identity without a cookie")
	}
}

func TestResolve_RejectsTamperedToken(t *testing.T) {
	e := echo.New()
	m := NewManager("secret", time.Hour)

	c, rec := newContext(e)
	m.Establish(c, Identity{Role: RolePatient, AccountID: 1})
	ck := sessionCookie(rec, t)
	ck.Value = ck.Value + "x"

	c2, _ := newContext(e)
	c2.Request().AddCookie(ck)
	if m.Resolve(c2) != nil {
		t.Error("tampered token must resolve to anonymous")
	}
}

func TestResolve_RejectsForeignSecret(t *testing.T) {
	e := echo.New()
	signer := NewManager("secret-a", time.Hour)
	verifier := NewManager("secret-b", time.Hour)

	c, rec := newContext(e)
	signer.Establish(c, Identity{Role: RoleDoctor, AccountID: 1})
	ck := sessionCookie(rec, t)

	c2, _ := newContext(e)
	c2.Request().AddCookie(ck)
	if verifier.Resolve(c2) != nil {
		t.Error("token signed with another secret must resolve to anonymous")
	}
}

func TestResolve_RejectsExpiredToken(t *testing.T) {
	e := echo.New()
	m := NewManager("secret", time.Nanosecond)

	c, rec := newContext(e)
	m.Establish(c, Identity{Role: RolePatient, AccountID: 1})
	ck := sessionCookie(rec, t)
	time.Sleep(10 * time.Millisecond)

	c2, _ := newContext(e)
	c2.Request().AddCookie(ck)
	if m.Resolve(c2) != nil {
		t.Error("expired token must resolve to anonymous")
	}
}

func TestClear_ExpiresCookie(t *testing.T) {
	e := echo.New()
	m := NewManager("secret", time.Hour)
	c, rec := newContext(e)

	m.Clear(c)
	ck := sessionCookie(rec, t)
	if ck.MaxAge >= 0 {
		t.Errorf("expected negative MaxAge, got %d", ck.MaxAge)
	}
}

func TestEstablish_ReplacesIdentity(t *testing.T) {
	e := echo.New()
	m := NewManager("secret", time.Hour)

	c, rec := newContext(e)
	m.Establish(c, Identity{Role: RolePatient, AccountID: 1})
	m.Establish(c, Identity{Role: RoleDoctor, AccountID: 2})

	cookies := rec.Result().Cookies()
	ck := cookies[len(cookies)-1]

	c2, _ := newContext(e)
	c2.Request().AddCookie(ck)
	got := m.Resolve(c2)
	if got == nil || got.Role != RoleDoctor || got.AccountID != 2 {
		t.Errorf("expected the second identity, got %+v", got)
	}
}

func TestMiddleware_InjectsIdentity(t *testing.T) {
	e := echo.New()
	m := NewManager("secret", time.Hour)

	c, rec := newContext(e)
	m.Establish(c, Identity{Role: RolePatient, AccountID: 7, Name: "Bob"})
	ck := sessionCookie(rec, t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(ck)
	rec2 := httptest.NewRecorder()
	c2 := e.NewContext(req, rec2)

	var seen *Identity
	handler := m.Middleware()(func(c echo.Context) error {
		seen = FromContext(c.Request().Context())
		return nil
	})
	if err := handler(c2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen == nil || seen.AccountID != 7 {
		t.Errorf("expected identity 7 in context, got %+v", seen)
	}
}

func TestRequirePatient_RedirectsWrongRole(t *testing.T) {
	e := echo.New()
	gate := RequirePatient()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	for _, tc := range []struct {
		name string
		id   *Identity
	}{
		{"anonymous", nil},
		{"doctor", &Identity{Role: RoleDoctor, AccountID: 1}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newContext(e)
			if tc.id != nil {
				c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), tc.id)))
			}
			if err := gate(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != http.StatusSeeOther {
				t.Fatalf("expected 303, got %d", rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != "/login" {
				t.Errorf("expected redirect to /login, got %q", loc)
			}
		})
	}
}

func TestRequireDoctor_AllowsDoctor(t *testing.T) {
	e := echo.New()
	gate := RequireDoctor()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	c, rec := newContext(e)
	c.SetRequest(c.Request().WithContext(
		WithIdentity(c.Request().Context(), &Identity{Role: RoleDoctor, AccountID: 1})))
	if err := gate(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequireAnyJSON_Returns401(t *testing.T) {
	e := echo.New()
	gate := RequireAnyJSON()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	c, rec := newContext(e)
	if err := gate(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}
