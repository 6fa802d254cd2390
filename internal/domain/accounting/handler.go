package accounting

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/patientdocs/api/internal/platform/auth"
	"github.com/patientdocs/api/internal/platform/db"
	"github.com/patientdocs/api/internal/platform/render"
	"github.com/patientdocs/api/internal/platform/respond"
	"github.com/patientdocs/api/pkg/pagination"
)

type Handler struct {
	svc      *Service
	renderer *render.Renderer
	debug    bool
}

func NewHandler(svc *Service, renderer *render.Renderer, debug bool) *Handler {
	return &Handler{svc: svc, renderer: renderer, debug: debug}
}

// The whole ledger sits behind the accounting capability, reads included.
func (h *Handler) RegisterRoutes(api, fragments *echo.Group, nonces *auth.Nonces) {
	view := api.Group("", auth.RequireCapability(auth.CapManageAccounting))
	view.GET("/accounting", h.list)
	view.GET("/accounting/:id", h.get)

	manage := api.Group("", auth.RequireNonce(nonces), auth.RequireCapability(auth.CapManageAccounting))
	manage.POST("/accounting", h.save)
	manage.DELETE("/accounting/:id", h.delete)

	fragments.GET("/accounting", h.pageFragment, auth.RequireCapability(auth.CapManageAccounting))
}

func (h *Handler) save(c echo.Context) error {
	var e Entry
	if err := c.Bind(&e); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Save(c.Request().Context(), &e); err != nil {
		switch {
		case errors.Is(err, ErrBeneficiaryRequired), errors.Is(err, ErrInvalidMethod), errors.Is(err, ErrInvalidAmount):
			return respond.Fail(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, db.ErrNotFound):
			return respond.NotFound(c, "accounting entry not found")
		}
		return h.serverError(c, "could not save accounting entry", err)
	}
	return respond.OK(c, e)
}

func (h *Handler) get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid entry id")
	}
	e, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return respond.NotFound(c, "accounting entry not found")
		}
		return h.serverError(c, "could not load accounting entry", err)
	}
	return respond.OK(c, e)
}

func (h *Handler) list(c echo.Context) error {
	f, err := filterFromQuery(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, err.Error())
	}
	params := pagination.FromContext(c)
	entries, total, err := h.svc.List(c.Request().Context(), f, params.Limit, params.Offset)
	if err != nil {
		return h.serverError(c, "could not list accounting entries", err)
	}
	return respond.OK(c, pagination.NewResponse(entries, total, params.Limit, params.Offset))
}

func (h *Handler) delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid entry id")
	}
	ok, err := h.svc.Delete(c.Request().Context(), id)
	if err != nil {
		return h.serverError(c, "could not delete accounting entry", err)
	}
	if !ok {
		return respond.NotFound(c, "accounting entry not found")
	}
	return respond.OK(c, map[string]any{"deleted": id})
}

func (h *Handler) pageFragment(c echo.Context) error {
	f, err := filterFromQuery(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, err.Error())
	}
	params := pagination.FromContext(c)
	entries, _, err := h.svc.List(c.Request().Context(), f, params.Limit, params.Offset)
	if err != nil {
		return h.serverError(c, "could not list accounting entries", err)
	}
	html, err := h.renderer.Render("accounting_page.html", map[string]any{"Entries": entries})
	if err != nil {
		return h.serverError(c, "could not render accounting page", err)
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

func filterFromQuery(c echo.Context) (Filter, error) {
	f := Filter{Search: c.QueryParam("search")}
	var err error
	if f.From, err = parseDate(c.QueryParam("from")); err != nil {
		return f, errors.New("from must be a YYYY-MM-DD date")
	}
	if f.To, err = parseDate(c.QueryParam("to")); err != nil {
		return f, errors.New("to must be a YYYY-MM-DD date")
	}
	return f, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}
