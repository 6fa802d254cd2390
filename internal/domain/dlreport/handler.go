package dlreport

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/patientdocs/api/internal/platform/auth"
	"github.com/patientdocs/api/internal/platform/db"
	"github.com/patientdocs/api/internal/platform/render"
	"github.com/patientdocs/api/internal/platform/respond"
	"github.com/patientdocs/api/internal/platform/upload"
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

func (h *Handler) RegisterRoutes(api, fragments *echo.Group, nonces *auth.Nonces) {
	view := api.Group("", auth.RequireCapability(auth.CapView))
	view.GET("/driver-license-reports", h.list)
	view.GET("/driver-license-reports/:id", h.get)
	view.GET("/driver-license-reports/:id/file", h.downloadFile)

	edit := api.Group("", auth.RequireNonce(nonces), auth.RequireCapability(auth.CapEdit))
	edit.POST("/driver-license-reports", h.save)
	edit.DELETE("/driver-license-reports/:id", h.delete)
	edit.POST("/driver-license-reports/:id/file", h.uploadFile)

	fragments.GET("/driver-license-reports/:id/form", h.formFragment, auth.RequireCapability(auth.CapView))
}

func (h *Handler) save(c echo.Context) error {
	var rec Record
	if err := c.Bind(&rec); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Save(c.Request().Context(), &rec); err != nil {
		switch {
		case errors.Is(err, ErrPatientNameRequired), errors.Is(err, ErrCINRequired), errors.Is(err, ErrInvalidLicenseType):
			return respond.Fail(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, db.ErrNotFound):
			return respond.NotFound(c, "report not found")
		}
		return h.serverError(c, "could not save report", err)
	}
	return respond.OK(c, rec)
}

func (h *Handler) get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid report id")
	}
	rec, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return respond.NotFound(c, "report not found")
		}
		return h.serverError(c, "could not load report", err)
	}
	return respond.OK(c, rec)
}

func (h *Handler) list(c echo.Context) error {
	f := Filter{
		Search:     c.QueryParam("search"),
		DateFilter: c.QueryParam("date_filter"),
	}
	var err error
	if f.From, err = parseDate(c.QueryParam("from")); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "from must be a YYYY-MM-DD date")
	}
	if f.To, err = parseDate(c.QueryParam("to")); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "to must be a YYYY-MM-DD date")
	}
	params := pagination.FromContext(c)
	records, total, err := h.svc.List(c.Request().Context(), f, params.Limit, params.Offset)
	if err != nil {
		if errors.Is(err, ErrInvalidDateFilter) || errors.Is(err, ErrInvalidDateRange) {
			return respond.Fail(c, http.StatusBadRequest, err.Error())
		}
		return h.serverError(c, "could not list reports", err)
	}
	return respond.OK(c, pagination.NewResponse(records, total, params.Limit, params.Offset))
}

func (h *Handler) delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid report id")
	}
	ok, err := h.svc.Delete(c.Request().Context(), id)
	if err != nil {
		return h.serverError(c, "could not delete report", err)
	}
	if !ok {
		return respond.NotFound(c, "report not found")
	}
	return respond.OK(c, map[string]any{"deleted": id})
}

func (h *Handler) uploadFile(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid report id")
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "file is required")
	}
	src, err := fileHeader.Open()
	if err != nil {
		return h.serverError(c, "could not read upload", err)
	}
	defer src.Close()

	rec, err := h.svc.AttachFile(c.Request().Context(), id,
		fileHeader.Filename, fileHeader.Header.Get(echo.HeaderContentType), src)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrNotFound):
			return respond.NotFound(c, "report not found")
		case errors.Is(err, upload.ErrInvalidContentType),
			errors.Is(err, upload.ErrFileTooLarge),
			errors.Is(err, upload.ErrMissingFileName):
			return respond.Fail(c, http.StatusBadRequest, err.Error())
		}
		return h.serverError(c, "could not store file", err)
	}
	return respond.OK(c, rec)
}

func (h *Handler) downloadFile(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid report id")
	}
	_, rc, meta, err := h.svc.OpenFile(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return respond.NotFound(c, "report file not found")
		}
		return h.serverError(c, "could not open file", err)
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+meta.FileName+`"`)
	return c.Stream(http.StatusOK, meta.ContentType, rc)
}

func (h *Handler) formFragment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid report id")
	}
	rec, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return respond.NotFound(c, "report not found")
		}
		return h.serverError(c, "could not load report", err)
	}
	html, err := h.renderer.Render("dlreport_form.html", map[string]any{"Record": rec})
	if err != nil {
		return h.serverError(c, "could not render report form", err)
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

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}
