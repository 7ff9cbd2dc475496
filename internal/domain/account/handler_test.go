package account

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/strokecare/strokecare/internal/platform/session"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc, _, _, _ := newTestService()
	h := NewHandler(svc, session.NewManager("test-secret", time.Hour))
	return h, echo.New()
}

func formRequest(e *echo.Echo, path string, form url.Values) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func asIdentity(c echo.Context, id *session.Identity) {
	ctx := session.WithIdentity(c.Request().Context(), id)
	c.SetRequest(c.Request().WithContext(ctx))
}

func registrationForm(name, email, password string) url.Values {
	return url.Values{
		"name":             {name},
		"email":            {email},
		"password":         {password},
		"confirm_password": {password},
	}
}

func TestRegisterPatient_RedirectsToLogin(t *testing.T) {
	h, e := newTestHandler()
	c, rec := formRequest(e, "/register", registrationForm("Alice", "alice@example.com", "pw"))

	if err := h.RegisterPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/login?msg=") {
		t.Errorf("expected redirect to /login with message, got %q", loc)
	}
}

func TestRegisterPatient_ValidationRedirectsBack(t *testing.T) {
	h, e := newTestHandler()
	form := registrationForm("Alice", "alice@example.com", "pw")
	form.Set("confirm_password", "other")
	c, rec := formRequest(e, "/register", form)

	if err := h.RegisterPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/register?error=") {
		t.Errorf("expected redirect back to /register with error, got %q", loc)
	}
}

func TestRegisterDoctor_BadKeyRedirectsBack(t *testing.T) {
	h, e := newTestHandler()
	form := registrationForm("Bob", "bob@example.com", "pw")
	form.Set("key", "wrong")
	c, rec := formRequest(e, "/doctor_register", form)

	if err := h.RegisterDoctor(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/doctor_register?error=") {
		t.Errorf("expected redirect back with error, got %q", loc)
	}
}

func TestLoginPatient_SetsSessionCookie(t *testing.T) {
	h, e := newTestHandler()
	h.svc.Register(context.Background(), session.RolePatient, RegisterInput{
		Name: "Alice", Email: "alice@example.com", Password: "pw", ConfirmPassword: "pw",
	})

	c, rec := formRequest(e, "/login", url.Values{"email": {"alice@example.com"}, "password": {"pw"}})
	if err := h.LoginPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/home" {
		t.Errorf("expected redirect to /home, got %q", loc)
	}

	res := rec.Result()
	var found bool
	for _, ck := range res.Cookies() {
		if ck.Name == session.CookieName && ck.Value != "" {
			found = true
			if !ck.HttpOnly {
				t.Error("session cookie must be HttpOnly")
			}
		}
	}
	if !found {
		t.Error("expected a session cookie on successful login")
	}
}

func TestLoginPatient_BadCredentialsRedirectsBack(t *testing.T) {
	h, e := newTestHandler()
	c, rec := formRequest(e, "/login", url.Values{"email": {"nobody@example.com"}, "password": {"pw"}})

	if err := h.LoginPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/login?error=") {
		t.Errorf("expected redirect back to /login with error, got %q", loc)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("failed login must not set a cookie")
	}
}

func TestLogout_ExpiresCookie(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Logout(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var cleared bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == session.CookieName && ck.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected session cookie to be expired")
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/login?msg=") {
		t.Errorf("expected redirect to /login, got %q", loc)
	}
}

func TestDoctorLogout_RedirectsToDoctorLogin(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/doctor_logout", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.DoctorLogout(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var cleared bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == session.CookieName && ck.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected session cookie to be expired")
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/doctor_login?msg=") {
		t.Errorf("expected redirect to /doctor_login, got %q", loc)
	}
}

func TestRoot_RedirectsByRole(t *testing.T) {
	h, e := newTestHandler()
	for _, tc := range []struct {
		name string
		id   *session.Identity
		want string
	}{
		{"anonymous", nil, "/login"},
		{"patient", &session.Identity{Role: session.RolePatient, AccountID: 1}, "/home"},
		{"doctor", &session.Identity{Role: session.RoleDoctor, AccountID: 1}, "/doctor_home"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tc.id != nil {
				asIdentity(c, tc.id)
			}
			if err := h.Root(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if loc := rec.Header().Get("Location"); loc != tc.want {
				t.Errorf("expected redirect to %q, got %q", tc.want, loc)
			}
		})
	}
}

func TestUpdatePassword_SuccessRedirectsToLogin(t *testing.T) {
	h, e := newTestHandler()
	a, _ := h.svc.Register(context.Background(), session.RolePatient, RegisterInput{
		Name: "Alice", Email: "alice@example.com", Password: "pw", ConfirmPassword: "pw",
	})

	c, rec := formRequest(e, "/update_password", url.Values{
		"old_password":     {"pw"},
		"new_password":     {"pw2"},
		"confirm_password": {"pw2"},
	})
	asIdentity(c, &session.Identity{Role: session.RolePatient, AccountID: a.ID})

	if err := h.UpdatePassword(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/login?msg=") {
		t.Errorf("expected redirect to /login, got %q", loc)
	}
}

func TestDeleteUser_ForeignIDRedirectsHome(t *testing.T) {
	h, e := newTestHandler()
	a, _ := h.svc.Register(context.Background(), session.RolePatient, RegisterInput{
		Name: "Alice", Email: "alice@example.com", Password: "pw", ConfirmPassword: "pw",
	})

	req := httptest.NewRequest(http.MethodGet, "/delete_user/999", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("999")
	asIdentity(c, &session.Identity{Role: session.RolePatient, AccountID: a.ID})

	if err := h.DeleteUser(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/home?error=") {
		t.Errorf("expected redirect to /home with error, got %q", loc)
	}
}

func TestDeleteUser_OwnAccount(t *testing.T) {
	h, e := newTestHandler()
	a, _ := h.svc.Register(context.Background(), session.RolePatient, RegisterInput{
		Name: "Alice", Email: "alice@example.com", Password: "pw", ConfirmPassword: "pw",
	})

	req := httptest.NewRequest(http.MethodGet, "/delete_user/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	asIdentity(c, &session.Identity{Role: session.RolePatient, AccountID: a.ID})

	if err := h.DeleteUser(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/login?msg=") {
		t.Errorf("expected redirect to /login, got %q", loc)
	}
	if _, err := h.svc.Login(context.Background(), session.RolePatient, "alice@example.com", "pw"); err == nil {
		t.Error("deleted account must not log in")
	}
}
