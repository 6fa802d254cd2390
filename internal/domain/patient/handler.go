package patient

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/patientdocs/api/internal/platform/access"
	"github.com/patientdocs/api/internal/platform/auth"
	"github.com/patientdocs/api/internal/platform/db"
	"github.com/patientdocs/api/internal/platform/render"
	"github.com/patientdocs/api/internal/platform/respond"
	"github.com/patientdocs/api/pkg/pagination"
)

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
	view.GET("/patients", h.list)
	view.GET("/patients/:id", h.get)
	view.GET("/patients/:id/view", h.view)

	manage := api.Group("", auth.RequireNonce(nonces), auth.RequireCapability(auth.CapManagePatients))
	manage.POST("/patients", h.create)
	manage.DELETE("/patients/:id", h.delete)

	fragments.GET("/patients", h.listFragment, auth.RequireCapability(auth.CapView))
	fragments.GET("/patients/:id/view", h.viewFragment, auth.RequireCapability(auth.CapView))
}

func (h *Handler) create(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Create(c.Request().Context(), &p); err != nil {
		if errors.Is(err, ErrNameRequired) {
			return respond.Fail(c, http.StatusBadRequest, err.Error())
		}
		return h.serverError(c, "could not create patient", err)
	}
	return respond.Created(c, p)
}

func (h *Handler) get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid patient id")
	}
	if err := h.authorizePatient(c, id); err != nil {
		return err
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return respond.NotFound(c, "patient not found")
		}
		return h.serverError(c, "could not load patient", err)
	}
	return respond.OK(c, p)
}

func (h *Handler) list(c echo.Context) error {
	params := pagination.FromContext(c)
	patients, total, err := h.svc.List(c.Request().Context(), c.QueryParam("search"), params.Limit, params.Offset)
	if err != nil {
		return h.serverError(c, "could not list patients", err)
	}
	return respond.OK(c, pagination.NewResponse(patients, total, params.Limit, params.Offset))
}

func (h *Handler) delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid patient id")
	}
	ok, err := h.svc.Delete(c.Request().Context(), id)
	if err != nil {
		return h.serverError(c, "could not delete patient", err)
	}
	if !ok {
		return respond.NotFound(c, "patient not found")
	}
	return respond.OK(c, map[string]any{"deleted": id})
}

// view answers the aggregate a chart screen needs in one round trip: the
// patient, their latest encounter, and its prescriptions.
func (h *Handler) view(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid patient id")
	}
	if err := h.authorizePatient(c, id); err != nil {
		return err
	}
	view, err := h.svc.View(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return respond.NotFound(c, "patient not found")
		}
		return h.serverError(c, "could not load patient view", err)
	}
	return respond.OK(c, view)
}

func (h *Handler) listFragment(c echo.Context) error {
	params := pagination.FromContext(c)
	patients, _, err := h.svc.List(c.Request().Context(), c.QueryParam("search"), params.Limit, params.Offset)
	if err != nil {
		return h.serverError(c, "could not list patients", err)
	}
	html, err := h.renderer.Render("patients_list.html", map[string]any{"Patients": patients})
	if err != nil {
		return h.serverError(c, "could not render patients", err)
	}
	return c.HTML(http.StatusOK, html)
}

func (h *Handler) viewFragment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid patient id")
	}
	if err := h.authorizePatient(c, id); err != nil {
		return err
	}
	view, err := h.svc.View(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return respond.NotFound(c, "patient not found")
		}
		return h.serverError(c, "could not load patient view", err)
	}
	html, err := h.renderer.Render("patient_view.html", view)
	if err != nil {
		return h.serverError(c, "could not render patient view", err)
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
