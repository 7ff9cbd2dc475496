package record

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/strokecare/strokecare/internal/platform/apperr"
	"github.com/strokecare/strokecare/internal/platform/session"
	"github.com/strokecare/strokecare/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/patient_data", h.ListPage, session.RequireAny())
	e.GET("/add_patient_data", h.AddPage, session.RequireAny())
	e.POST("/add_patient_data", h.AddSubmit, session.RequireAny())
	e.GET("/update_patient_data/:id", h.EditPage, session.RequireAny())
	e.POST("/update_patient_data/:id", h.EditSubmit, session.RequireAny())

	e.GET("/api/patient_data", h.ListJSON, session.RequireAnyJSON())
	// Anonymous submissions are accepted; they are stored without an owner.
	e.POST("/api/patient_data", h.CreateJSON)
	e.DELETE("/api/patient_data/:id", h.DeleteJSON, session.RequireAnyJSON())
}

func inputFromForm(c echo.Context) Input {
	return Input{
		ExternalID:      c.FormValue("id"),
		Gender:          c.FormValue("gender"),
		Age:             c.FormValue("age"),
		Hypertension:    c.FormValue("hypertension"),
		HeartDisease:    c.FormValue("heart_disease"),
		EverMarried:     c.FormValue("ever_married"),
		WorkType:        c.FormValue("work_type"),
		ResidenceType:   c.FormValue("Residence_type"),
		AvgGlucoseLevel: c.FormValue("avg_glucose_level"),
		BMI:             c.FormValue("bmi"),
		SmokingStatus:   c.FormValue("smoking_status"),
		Stroke:          c.FormValue("stroke"),
	}
}

func mineFlag(c echo.Context) bool {
	v := c.QueryParam("mine")
	return v != "" && v != "0" && !strings.EqualFold(v, "false")
}

// -- JSON API --

func jsonError(c echo.Context, err error) error {
	status := apperr.Status(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("record request failed")
		msg = "internal server error"
	}
	return c.JSON(status, map[string]string{"error": msg})
}

func (h *Handler) ListJSON(c echo.Context) error {
	p := pagination.FromContext(c)
	records, err := h.svc.List(c.Request().Context(),
		session.FromContext(c.Request().Context()), mineFlag(c), p.Limit, p.Offset)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, records)
}

func (h *Handler) CreateJSON(c echo.Context) error {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return jsonError(c, apperr.New(apperr.Validation, "invalid JSON body"))
	}

	hex, err := h.svc.Create(c.Request().Context(),
		session.FromContext(c.Request().Context()), InputFromJSON(body))
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"inserted_id": hex})
}

func (h *Handler) DeleteJSON(c echo.Context) error {
	err := h.svc.Delete(c.Request().Context(),
		session.FromContext(c.Request().Context()), c.Param("id"))
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// -- HTML pages --

func (h *Handler) ListPage(c echo.Context) error {
	p := pagination.FromContext(c)
	id := session.FromContext(c.Request().Context())
	records, err := h.svc.List(c.Request().Context(), id, mineFlag(c), p.Limit, p.Offset)
	if err != nil {
		return err
	}

	var rows strings.Builder
	for _, r := range records {
		owner := ""
		if r.UserID != nil {
			owner = fmt.Sprintf("%d", *r.UserID)
		}
		rows.WriteString(fmt.Sprintf(
			`<tr><td>%s</td><td>%s</td><td>%d</td><td>%.2f</td><td>%.1f</td><td>%d</td><td>%s</td>`+
				`<td><a href="/update_patient_data/%s">edit</a></td></tr>`+"\n",
			r.ID.Hex(), html.EscapeString(r.Gender), r.Age, r.AvgGlucoseLevel, r.BMI,
			r.Stroke, owner, r.ID.Hex()))
	}

	body := fmt.Sprintf(`<h1>Patient records</h1>
<p><a href="/add_patient_data">Add record</a> | <a href="/">Home</a></p>
<table border="1">
<tr><th>id</th><th>gender</th><th>age</th><th>glucose</th><th>bmi</th><th>stroke</th><th>owner</th><th></th></tr>
%s</table>`, rows.String())
	return renderPage(c, "Patient records", body)
}

func (h *Handler) AddPage(c echo.Context) error {
	return renderPage(c, "Add record", recordForm("/add_patient_data", nil))
}

func (h *Handler) AddSubmit(c echo.Context) error {
	_, err := h.svc.Create(c.Request().Context(),
		session.FromContext(c.Request().Context()), inputFromForm(c))
	switch {
	case err == nil:
		return redirectMsg(c, "/patient_data", "Record added")
	case apperr.Is(err, apperr.Validation):
		return redirectError(c, "/add_patient_data", err.Error())
	default:
		return err
	}
}

func (h *Handler) EditPage(c echo.Context) error {
	r, err := h.svc.Get(c.Request().Context(),
		session.FromContext(c.Request().Context()), c.Param("id"))
	switch {
	case err == nil:
		return renderPage(c, "Edit record", recordForm("/update_patient_data/"+r.ID.Hex(), r))
	case apperr.Is(err, apperr.NotFound), apperr.Is(err, apperr.Authorization):
		return redirectError(c, "/patient_data", err.Error())
	default:
		return err
	}
}

func (h *Handler) EditSubmit(c echo.Context) error {
	err := h.svc.Update(c.Request().Context(),
		session.FromContext(c.Request().Context()), c.Param("id"), inputFromForm(c))
	switch {
	case err == nil:
		return redirectMsg(c, "/patient_data", "Record updated")
	case apperr.Is(err, apperr.Validation):
		return redirectError(c, "/update_patient_data/"+c.Param("id"), err.Error())
	case apperr.Is(err, apperr.NotFound), apperr.Is(err, apperr.Authorization):
		return redirectError(c, "/patient_data", err.Error())
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

func recordForm(action string, r *Record) string {
	val := func(s string) string { return html.EscapeString(s) }
	num := func(format string, v interface{}) string { return fmt.Sprintf(format, v) }

	var extID, gender, age, hyp, heart, married, work, residence, glucose, bmi, smoking, stroke string
	if r != nil {
		if r.ExternalID != nil {
			extID = num("%d", *r.ExternalID)
		}
		gender = val(r.Gender)
		age = num("%d", r.Age)
		hyp = num("%d", r.Hypertension)
		heart = num("%d", r.HeartDisease)
		married = val(r.EverMarried)
		work = val(r.WorkType)
		residence = val(r.ResidenceType)
		glucose = num("%g", r.AvgGlucoseLevel)
		bmi = num("%g", r.BMI)
		smoking = val(r.SmokingStatus)
		stroke = num("%d", r.Stroke)
	}

	return fmt.Sprintf(`<h1>Record</h1>
<form method="post" action="%s">
<label>Dataset id <input type="text" name="id" value="%s"></label><br>
<label>Gender <input type="text" name="gender" value="%s"></label><br>
<label>Age <input type="text" name="age" value="%s"></label><br>
<label>Hypertension <input type="text" name="hypertension" value="%s"></label><br>
<label>Heart disease <input type="text" name="heart_disease" value="%s"></label><br>
<label>Ever married <input type="text" name="ever_married" value="%s"></label><br>
<label>Work type <input type="text" name="work_type" value="%s"></label><br>
<label>Residence type <input type="text" name="Residence_type" value="%s"></label><br>
<label>Avg glucose level <input type="text" name="avg_glucose_level" value="%s"></label><br>
<label>BMI <input type="text" name="bmi" value="%s"></label><br>
<label>Smoking status <input type="text" name="smoking_status" value="%s"></label><br>
<label>Stroke <input type="text" name="stroke" value="%s"></label><br>
<button type="submit">Save</button>
</form>
<p><a href="/patient_data">Back</a></p>`,
		action, extID, gender, age, hyp, heart, married, work, residence,
		glucose, bmi, smoking, stroke)
}

func redirectMsg(c echo.Context, path, msg string) error {
	return c.Redirect(http.StatusSeeOther, path+"?msg="+url.QueryEscape(msg))
}

func redirectError(c echo.Context, path, msg string) error {
	return c.Redirect(http.StatusSeeOther, path+"?error="+url.QueryEscape(msg))
}
