package prescription

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/patientdocs/api/internal/platform/auth"
	"github.com/patientdocs/api/internal/platform/db"
	"github.com/patientdocs/api/internal/platform/render"
	"github.com/patientdocs/api/internal/platform/respond"
)

type Handler struct {
	svc      *Service
	renderer *render.Renderer
	debug    bool
}

func NewHandler(svc *Service, renderer *render.Renderer, debug bool) *Handler {
	return &Handler{svc: svc, renderer: renderer, debug: debug}
}

func (h *Handler) RegisterRoutes(api, fragments *echo.Group, nonces *auth.Nonces) {
	view := api.Group("", auth.RequireCapability(auth.CapView))
	view.GET("/encounters/:id/prescriptions", h.listByEncounter)
	view.GET("/prescriptions/:id", h.get)

	edit := api.Group("", auth.RequireNonce(nonces), auth.RequireCapability(auth.CapEdit))
	edit.POST("/prescriptions", h.add)
	edit.DELETE("/prescriptions/:id", h.delete)

	fragments.GET("/encounters/:id/prescription-print", h.printFragment, auth.RequireCapability(auth.CapView))
}

func (h *Handler) add(c echo.Context) error {
	var p Prescription
	if err := c.Bind(&p); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if ident := auth.IdentityFromContext(c.Request().Context()); ident != nil && p.DoctorID == 0 {
		p.DoctorID = ident.UserID
	}
	if err := h.svc.Add(c.Request().Context(), &p); err != nil {
		if errors.Is(err, ErrMedicationRequired) || errors.Is(err, ErrEncounterRequired) {
			return respond.Fail(c, http.StatusBadRequest, err.Error())
		}
		return h.serverError(c, "could not add prescription", err)
	}
	return respond.Created(c, p)
}

func (h *Handler) get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid prescription id")
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return respond.NotFound(c, "prescription not found")
		}
		return h.serverError(c, "could not load prescription", err)
	}
	return respond.OK(c, p)
}

func (h *Handler) listByEncounter(c echo.Context) error {
	encounterID, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid encounter id")
	}
	lines, err := h.svc.ListByEncounter(c.Request().Context(), encounterID)
	if err != nil {
		return h.serverError(c, "could not list prescriptions", err)
	}
	return respond.OK(c, lines)
}

func (h *Handler) delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid prescription id")
	}
	ok, err := h.svc.Delete(c.Request().Context(), id)
	if err != nil {
		return h.serverError(c, "could not delete prescription", err)
	}
	if !ok {
		return respond.NotFound(c, "prescription not found")
	}
	return respond.OK(c, map[string]any{"deleted": id})
}

func (h *Handler) printFragment(c echo.Context) error {
	encounterID, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid encounter id")
	}
	data, err := h.svc.PrintData(c.Request().Context(), encounterID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return respond.NotFound(c, "encounter not found")
		}
		return h.serverError(c, "could not load prescriptions", err)
	}
	html, err := h.renderer.Render("prescription_print.html", data)
	if err != nil {
		return h.serverError(c, "could not render prescriptions", err)
	}
	return c.HTML(http.StatusOK, html)
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
