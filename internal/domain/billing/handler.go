package billing

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/patientdocs/api/internal/platform/auth"
	"github.com/patientdocs/api/internal/platform/db"
	"github.com/patientdocs/api/internal/platform/respond"
)

type Handler struct {
	svc   *Service
	debug bool
}

func NewHandler(svc *Service, debug bool) *Handler {
	return &Handler{svc: svc, debug: debug}
}

func (h *Handler) RegisterRoutes(api, fragments *echo.Group, nonces *auth.Nonces) {
	view := api.Group("", auth.RequireCapability(auth.CapView))
	view.GET("/bills/:id", h.get)
	view.GET("/encounters/:id/bill", h.getByEncounter)

	manage := api.Group("", auth.RequireNonce(nonces), auth.RequireCapability(auth.CapManageAccounting))
	manage.POST("/bills", h.save)
	manage.DELETE("/bills/:id", h.delete)
	manage.POST("/bills/:id/send", h.sendInvoice)

	fragments.GET("/bills/:id", h.popupFragment, auth.RequireCapability(auth.CapView))
}

func (h *Handler) save(c echo.Context) error {
	var in SaveInput
	if err := c.Bind(&in); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	b, err := h.svc.Save(c.Request().Context(), &in)
	if err != nil {
		if errors.Is(err, ErrEncounterRequired) || errors.Is(err, ErrNoItems) || errors.Is(err, ErrBadItem) {
			return respond.Fail(c, http.StatusBadRequest, err.Error())
		}
		return h.serverError(c, "could not save bill", err)
	}
	return respond.OK(c, b)
}

func (h *Handler) get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid bill id")
	}
	b, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return respond.NotFound(c, "bill not found")
		}
		return h.serverError(c, "could not load bill", err)
	}
	return respond.OK(c, b)
}

func (h *Handler) getByEncounter(c echo.Context) error {
	encounterID, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid encounter id")
	}
	b, err := h.svc.GetByEncounter(c.Request().Context(), encounterID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return respond.NotFound(c, "bill not found")
		}
		return h.serverError(c, "could not load bill", err)
	}
	return respond.OK(c, b)
}

func (h *Handler) delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid bill id")
	}
	ok, err := h.svc.Delete(c.Request().Context(), id)
	if err != nil {
		return h.serverError(c, "could not delete bill", err)
	}
	if !ok {
		return respond.NotFound(c, "bill not found")
	}
	return respond.OK(c, map[string]any{"deleted": id})
}

func (h *Handler) sendInvoice(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid bill id")
	}
	if err := h.svc.SendInvoice(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, db.ErrNotFound):
			return respond.NotFound(c, "bill not found")
		case errors.Is(err, ErrNoPatientEmail):
			return respond.Fail(c, http.StatusBadRequest, err.Error())
		}
		return h.serverError(c, "could not send invoice", err)
	}
	return respond.OK(c, map[string]any{"sent": id})
}

func (h *Handler) popupFragment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid bill id")
	}
	html, err := h.svc.RenderPopup(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return respond.NotFound(c, "bill not found")
		}
		return h.serverError(c, "could not render bill", err)
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
