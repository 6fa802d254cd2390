package encounter

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/patientdocs/api/internal/platform/access"
	"github.com/patientdocs/api/internal/platform/auth"
	"github.com/patientdocs/api/internal/platform/db"
	"github.com/patientdocs/api/internal/platform/render"
	"github.com/patientdocs/api/internal/platform/respond"
	"github.com/patientdocs/api/pkg/pagination"
)

// Handler exposes encounter and appointment endpoints.
type Handler struct {
	svc      *Service
	checker  *access.Checker
	renderer *render.Renderer
	debug    bool
}

func NewHandler(svc *Service, checker *access.Checker, renderer *render.Renderer, debug bool) *Handler {
	return &Handler{svc: svc, checker: checker, renderer: renderer, debug: debug}
}

func (h *Handler) RegisterRoutes(api, fragments *echo.Group, nonces *auth.Nonces) {
	view := api.Group("", auth.RequireCapability(auth.CapView))
	view.GET("/encounters", h.list)
	view.GET("/encounters/:id", h.get)
	view.GET("/appointments", h.appointments)

	manage := api.Group("", auth.RequireNonce(nonces), auth.RequireCapability(auth.CapManageEncounters))
	manage.PATCH("/encounters/:id/status", h.updateStatus)
	manage.DELETE("/encounters/:id", h.delete)
	manage.DELETE("/appointments/:id", h.deleteAppointment)

	fragments.GET("/encounters", h.rowsFragment, auth.RequireCapability(auth.CapView))
}

func (h *Handler) list(c echo.Context) error {
	f, err := filterFromQuery(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, err.Error())
	}
	params := pagination.FromContext(c)

	encs, total, err := h.svc.List(c.Request().Context(), f, params.Limit, params.Offset)
	if err != nil {
		if isValidationErr(err) {
			return respond.Fail(c, http.StatusBadRequest, err.Error())
		}
		return h.serverError(c, "could not list encounters", err)
	}
	return respond.OK(c, pagination.NewResponse(encs, total, params.Limit, params.Offset))
}

func (h *Handler) get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid encounter id")
	}
	enc, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return respond.NotFound(c, "encounter not found")
		}
		return h.serverError(c, "could not load encounter", err)
	}
	if err := h.authorizePatient(c, enc.PatientID); err != nil {
		return err
	}
	return respond.OK(c, enc)
}

func (h *Handler) updateStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid encounter id")
	}
	var body struct {
		Status string `json:"status" form:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	ok, err := h.svc.UpdateStatus(c.Request().Context(), id, body.Status)
	if err != nil {
		if errors.Is(err, ErrInvalidStatus) {
			return respond.Fail(c, http.StatusBadRequest, err.Error())
		}
		return h.serverError(c, "could not update encounter", err)
	}
	if !ok {
		return respond.NotFound(c, "encounter not found")
	}
	return respond.OK(c, map[string]any{"id": id, "status": body.Status})
}

func (h *Handler) delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid encounter id")
	}
	ok, err := h.svc.Delete(c.Request().Context(), id)
	if err != nil {
		return h.serverError(c, "could not delete encounter", err)
	}
	if !ok {
		return respond.NotFound(c, "encounter not found")
	}
	return respond.OK(c, map[string]any{"deleted": id})
}

func (h *Handler) appointments(c echo.Context) error {
	year, _ := strconv.Atoi(c.QueryParam("year"))
	month, err := strconv.Atoi(c.QueryParam("month"))
	if err != nil {
		month = int(time.Now().Month())
	}
	appts, err := h.svc.AppointmentsForMonth(c.Request().Context(), year, month)
	if err != nil {
		if errors.Is(err, ErrInvalidMonth) {
			return respond.Fail(c, http.StatusBadRequest, err.Error())
		}
		return h.serverError(c, "could not list appointments", err)
	}
	return respond.OK(c, appts)
}

func (h *Handler) deleteAppointment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid appointment id")
	}
	ok, err := h.svc.DeleteAppointment(c.Request().Context(), id)
	if err != nil {
		return h.serverError(c, "could not delete appointment", err)
	}
	if !ok {
		return respond.NotFound(c, "appointment not found")
	}
	return respond.OK(c, map[string]any{"deleted": id})
}

// rowsFragment renders the encounter table body for the records list page.
func (h *Handler) rowsFragment(c echo.Context) error {
	f, err := filterFromQuery(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, err.Error())
	}
	params := pagination.FromContext(c)

	encs, _, err := h.svc.List(c.Request().Context(), f, params.Limit, params.Offset)
	if err != nil {
		if isValidationErr(err) {
			return respond.Fail(c, http.StatusBadRequest, err.Error())
		}
		return h.serverError(c, "could not list encounters", err)
	}
	html, err := h.renderer.Render("encounter_rows.html", encs)
	if err != nil {
		return h.serverError(c, "could not render encounters", err)
	}
	return c.HTML(http.StatusOK, html)
}

func (h *Handler) authorizePatient(c echo.Context, patientID int64) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	ok, err := h.checker.MayAccess(c.Request().Context(), ident, patientID)
	if err != nil {
		return h.serverError(c, "could not verify patient access", err)
	}
	if !ok {
		return respond.Forbidden(c, "no access to this patient")
	}
	return nil
}

func (h *Handler) serverError(c echo.Context, msg string, err error) error {
	if h.debug {
		return respond.FailDebug(c, http.StatusInternalServerError, msg, err.Error())
	}
	return respond.Fail(c, http.StatusInternalServerError, msg)
}

func pathID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func filterFromQuery(c echo.Context) (Filter, error) {
	f := Filter{
		Search:     c.QueryParam("search"),
		DateFilter: c.QueryParam("date_filter"),
		Status:     c.QueryParam("status"),
	}
	if f.DateFilter == DateFilterCustom {
		var err error
		if f.From, err = parseDate(c.QueryParam("from")); err != nil {
			return f, errors.New("from must be a YYYY-MM-DD date")
		}
		if f.To, err = parseDate(c.QueryParam("to")); err != nil {
			return f, errors.New("to must be a YYYY-MM-DD date")
		}
	}
	return f, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

func isValidationErr(err error) bool {
	return errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidDateFilter) ||
		errors.Is(err, ErrInvalidDateRange)
}
