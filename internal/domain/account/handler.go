package account

import (
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/strokecare/strokecare/internal/platform/apperr"
	"github.com/strokecare/strokecare/internal/platform/session"
)

type Handler struct {
	svc      *Service
	sessions *session.Manager
}

func NewHandler(svc *Service, sessions *session.Manager) *Handler {
	return &Handler{svc: svc, sessions: sessions}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)

	e.GET("/register", h.RegisterPage)
	e.POST("/register", h.RegisterPatient)
	e.GET("/login", h.LoginPage)
	e.POST("/login", h.LoginPatient)
	e.GET("/logout", h.Logout)

	e.GET("/doctor_register", h.DoctorRegisterPage)
	e.POST("/doctor_register", h.RegisterDoctor)
	e.GET("/doctor_login", h.DoctorLoginPage)
	e.POST("/doctor_login", h.LoginDoctor)
	e.GET("/doctor_logout", h.DoctorLogout)

	e.GET("/home", h.Home, session.RequirePatient())
	e.GET("/doctor_home", h.DoctorHome, session.RequireDoctor())
	e.GET("/profile", h.Profile, session.RequireAny())
	e.GET("/update_password", h.UpdatePasswordPage, session.RequireAny())
	e.POST("/update_password", h.UpdatePassword, session.RequireAny())
	e.GET("/delete_user/:id", h.DeleteUser, session.RequirePatient())
}

// Root routes an active session to its home page and everyone else to login.
func (h *Handler) Root(c echo.Context) error {
	switch id := session.FromContext(c.Request().Context()); {
	case id == nil:
		return c.Redirect(http.StatusSeeOther, "/login")
	case id.Role == session.RoleDoctor:
		return c.Redirect(http.StatusSeeOther, "/doctor_home")
	default:
		return c.Redirect(http.StatusSeeOther, "/home")
	}
}

func (h *Handler) RegisterPage(c echo.Context) error {
	return renderPage(c, "Register", registerForm("/register", false))
}

func (h *Handler) DoctorRegisterPage(c echo.Context) error {
	return renderPage(c, "Doctor Register", registerForm("/doctor_register", true))
}

func (h *Handler) LoginPage(c echo.Context) error {
	return renderPage(c, "Login", loginForm("/login"))
}

func (h *Handler) DoctorLoginPage(c echo.Context) error {
	return renderPage(c, "Doctor Login", loginForm("/doctor_login"))
}

func (h *Handler) RegisterPatient(c echo.Context) error {
	return h.register(c, session.RolePatient, "/register", "/login")
}

func (h *Handler) RegisterDoctor(c echo.Context) error {
	return h.register(c, session.RoleDoctor, "/doctor_register", "/doctor_login")
}

func (h *Handler) register(c echo.Context, role session.Role, formPath, loginPath string) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return redirectError(c, formPath, "invalid form submission")
	}

	_, err := h.svc.Register(c.Request().Context(), role, in)
	switch {
	case err == nil:
		return redirectMsg(c, loginPath, "Registration successful, please log in")
	case apperr.Is(err, apperr.Conflict):
		return redirectError(c, loginPath, err.Error())
	case apperr.Is(err, apperr.Validation), apperr.Is(err, apperr.Authorization):
		return redirectError(c, formPath, err.Error())
	default:
		return err
	}
}

func (h *Handler) LoginPatient(c echo.Context) error {
	return h.login(c, session.RolePatient, "/login", "/home")
}

func (h *Handler) LoginDoctor(c echo.Context) error {
	return h.login(c, session.RoleDoctor, "/doctor_login", "/doctor_home")
}

func (h *Handler) login(c echo.Context, role session.Role, formPath, homePath string) error {
	a, err := h.svc.Login(c.Request().Context(), role, c.FormValue("email"), c.FormValue("password"))
	if err != nil {
		if apperr.Is(err, apperr.Authentication) {
			return redirectError(c, formPath, err.Error())
		}
		return err
	}

	if err := h.sessions.Establish(c, session.Identity{Role: role, AccountID: a.ID, Name: a.Name}); err != nil {
		return fmt.Errorf("establishing session: %w", err)
	}
	return c.Redirect(http.StatusSeeOther, homePath)
}

// Logout clears the session. Safe to call without one.
func (h *Handler) Logout(c echo.Context) error {
	h.sessions.Clear(c)
	return redirectMsg(c, "/login", "Logged out")
}

// DoctorLogout clears the session and returns to the doctor login page.
func (h *Handler) DoctorLogout(c echo.Context) error {
	h.sessions.Clear(c)
	return redirectMsg(c, "/doctor_login", "Logged out")
}

func (h *Handler) Home(c echo.Context) error {
	id := session.FromContext(c.Request().Context())
	body := fmt.Sprintf(`<h1>Welcome, %s</h1>
<ul>
<li><a href="/patient_data">My records</a></li>
<li><a href="/add_patient_data">Add record</a></li>
<li><a href="/profile">Profile</a></li>
<li><a href="/update_password">Change password</a></li>
<li><a href="/delete_user/%d" onclick="return confirm('Delete your account and all records?')">Delete account</a></li>
<li><a href="/logout">Log out</a></li>
</ul>`, html.EscapeString(id.Name), id.AccountID)
	return renderPage(c, "Home", body)
}

func (h *Handler) DoctorHome(c echo.Context) error {
	id := session.FromContext(c.Request().Context())
	body := fmt.Sprintf(`<h1>Welcome, Dr. %s</h1>
<ul>
<li><a href="/patient_data">All patient records</a></li>
<li><a href="/add_patient_data">Add record</a></li>
<li><a href="/profile">Profile</a></li>
<li><a href="/update_password">Change password</a></li>
<li><a href="/doctor_logout">Log out</a></li>
</ul>`, html.EscapeString(id.Name))
	return renderPage(c, "Doctor Home", body)
}

func (h *Handler) Profile(c echo.Context) error {
	a, err := h.svc.Profile(c.Request().Context(), session.FromContext(c.Request().Context()))
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			h.sessions.Clear(c)
			return redirectError(c, "/login", "account no longer exists")
		}
		return err
	}
	body := fmt.Sprintf(`<h1>Profile</h1>
<p>Name: %s</p>
<p>Email: %s</p>
<p><a href="/">Back</a></p>`, html.EscapeString(a.Name), html.EscapeString(a.Email))
	return renderPage(c, "Profile", body)
}

func (h *Handler) UpdatePasswordPage(c echo.Context) error {
	return renderPage(c, "Change Password", `<h1>Change password</h1>
<form method="post" action="/update_password">
<label>Old password <input type="password" name="old_password"></label><br>
<label>New password <input type="password" name="new_password"></label><br>
<label>Confirm <input type="password" name="confirm_password"></label><br>
<button type="submit">Update</button>
</form>`)
}

func (h *Handler) UpdatePassword(c echo.Context) error {
	var in ChangePasswordInput
	if err := c.Bind(&in); err != nil {
		return redirectError(c, "/update_password", "invalid form submission")
	}

	err := h.svc.ChangePassword(c.Request().Context(), session.FromContext(c.Request().Context()), in)
	switch {
	case err == nil:
		return redirectMsg(c, "/login", "Password updated, please log in again")
	case apperr.Is(err, apperr.Validation), apperr.Is(err, apperr.Authentication):
		return redirectError(c, "/update_password", err.Error())
	default:
		return err
	}
}

// DeleteUser removes the patient account in the path, all its records, and
// the session. The path id must match the logged-in patient.
func (h *Handler) DeleteUser(c echo.Context) error {
	accountID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return redirectError(c, "/home", "invalid account id")
	}

	err = h.svc.DeleteAccount(c.Request().Context(), session.FromContext(c.Request().Context()), accountID)
	switch {
	case err == nil:
		h.sessions.Clear(c)
		return redirectMsg(c, "/login", "Account deleted")
	case apperr.Is(err, apperr.Authorization):
		return redirectError(c, "/home", err.Error())
	case apperr.Is(err, apperr.NotFound):
		return redirectError(c, "/home", err.Error())
	default:
		return err
	}
}

// -- page helpers --

func renderPage(c echo.Context, title, body string) error {
	flash := ""
	if msg := c.QueryParam("msg"); msg != "" {
		flash = `<p class="flash">` + html.EscapeString(msg) + `</p>`
	}
	if msg := c.QueryParam("error"); msg != "" {
		flash = `<p class="flash error">` + html.EscapeString(msg) + `</p>`
	}
	page := fmt.Sprintf(`<!DOCTYPE html>
<html><head><title>%s</title></head>
<body>%s
%s</body></html>`, html.EscapeString(title), flash, body)
	return c.HTML(http.StatusOK, page)
}

func registerForm(action string, doctor bool) string {
	keyField := ""
	title := "Patient registration"
	if doctor {
		keyField = `<label>Doctor key <input type="password" name="key"></label><br>`
		title = "Doctor registration"
	}
	return fmt.Sprintf(`<h1>%s</h1>
<form method="post" action="%s">
<label>Name <input type="text" name="name"></label><br>
<label>Email <input type="email" name="email"></label><br>
<label>Password <input type="password" name="password"></label><br>
<label>Confirm <input type="password" name="confirm_password"></label><br>
%s<button type="submit">Register</button>
</form>`, title, action, keyField)
}

func loginForm(action string) string {
	return fmt.Sprintf(`<h1>Login</h1>
<form method="post" action="%s">
<label>Email <input type="email" name="email"></label><br>
<label>Password <input type="password" name="password"></label><br>
<button type="submit">Log in</button>
</form>`, action)
}

func redirectMsg(c echo.Context, path, msg string) error {
	return c.Redirect(http.StatusSeeOther, path+"?msg="+url.QueryEscape(msg))
}

func redirectError(c echo.Context, path, msg string) error {
	return c.Redirect(http.StatusSeeOther, path+"?error="+url.QueryEscape(msg))
}
