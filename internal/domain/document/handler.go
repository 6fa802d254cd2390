package document

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/patientdocs/api/internal/platform/auth"
	"github.com/patientdocs/api/internal/platform/db"
	"github.com/patientdocs/api/internal/platform/respond"
	"github.com/patientdocs/api/internal/platform/upload"
)

type Handler struct {
	svc   *Service
	debug bool
}

func NewHandler(svc *Service, debug bool) *Handler {
	return &Handler{svc: svc, debug: debug}
}

func (h *Handler) RegisterRoutes(api, _ *echo.Group, nonces *auth.Nonces) {
	view := api.Group("", auth.RequireCapability(auth.CapView))
	view.GET("/documents/:id", h.get)
	view.GET("/encounters/:id/documents", h.listByEncounter)
	view.GET("/encounters/:id/documents/:type", h.getByType)
	view.GET("/document-templates", h.listTemplates)
	view.GET("/medical-reports/:id/file", h.downloadReport)
	view.GET("/encounters/:id/medical-reports", h.listReports)

	edit := api.Group("", auth.RequireNonce(nonces), auth.RequireCapability(auth.CapEdit))
	edit.POST("/documents", h.save)
	edit.POST("/consultations", h.saveConsultation)
	edit.POST("/document-templates", h.saveTemplate)
	edit.DELETE("/document-templates/:id", h.deleteTemplate)
	edit.POST("/encounters/:id/medical-reports", h.uploadReport)
}

func (h *Handler) save(c echo.Context) error {
	var d Document
	if err := c.Bind(&d); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if ident := auth.IdentityFromContext(c.Request().Context()); ident != nil && d.CreatedBy == 0 {
		d.CreatedBy = ident.UserID
	}
	if err := h.svc.Save(c.Request().Context(), &d); err != nil {
		if errors.Is(err, ErrTypeRequired) || errors.Is(err, ErrEncounterRequired) {
			return respond.Fail(c, http.StatusBadRequest, err.Error())
		}
		return h.serverError(c, "could not save document", err)
	}
	return respond.OK(c, d)
}

func (h *Handler) get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid document id")
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return respond.NotFound(c, "document not found")
		}
		return h.serverError(c, "could not load document", err)
	}
	return respond.OK(c, d)
}

func (h *Handler) getByType(c echo.Context) error {
	encounterID, err := pathID(c, "id")
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid encounter id")
	}
	d, err := h.svc.GetByEncounterAndType(c.Request().Context(), encounterID, c.Param("type"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return respond.NotFound(c, "document not found")
		}
		return h.serverError(c, "could not load document", err)
	}
	return respond.OK(c, d)
}

func (h *Handler) listByEncounter(c echo.Context) error {
	encounterID, err := pathID(c, "id")
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid encounter id")
	}
	docs, err := h.svc.ListByEncounter(c.Request().Context(), encounterID)
	if err != nil {
		return h.serverError(c, "could not list documents", err)
	}
	return respond.OK(c, docs)
}

func (h *Handler) saveConsultation(c echo.Context) error {
	var in ConsultationInput
	if err := c.Bind(&in); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	var createdBy int64
	if ident := auth.IdentityFromContext(c.Request().Context()); ident != nil {
		createdBy = ident.UserID
	}
	saved, err := h.svc.SaveConsultation(c.Request().Context(), &in, createdBy)
	if err != nil {
		if errors.Is(err, ErrEncounterRequired) || errors.Is(err, ErrNoDocuments) || errors.Is(err, ErrTypeRequired) {
			return respond.Fail(c, http.StatusBadRequest, err.Error())
		}
		return h.serverError(c, "could not save consultation", err)
	}
	return respond.OK(c, saved)
}

func (h *Handler) saveTemplate(c echo.Context) error {
	var d Document
	if err := c.Bind(&d); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if ident := auth.IdentityFromContext(c.Request().Context()); ident != nil && d.CreatedBy == 0 {
		d.CreatedBy = ident.UserID
	}
	if err := h.svc.SaveTemplate(c.Request().Context(), &d); err != nil {
		if errors.Is(err, ErrTypeRequired) || errors.Is(err, ErrTemplateName) {
			return respond.Fail(c, http.StatusBadRequest, err.Error())
		}
		return h.serverError(c, "could not save template", err)
	}
	return respond.OK(c, d)
}

func (h *Handler) listTemplates(c echo.Context) error {
	docs, err := h.svc.ListTemplates(c.Request().Context(), c.QueryParam("type"))
	if err != nil {
		return h.serverError(c, "could not list templates", err)
	}
	return respond.OK(c, docs)
}

func (h *Handler) deleteTemplate(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid template id")
	}
	ok, err := h.svc.DeleteTemplate(c.Request().Context(), id)
	if err != nil {
		return h.serverError(c, "could not delete template", err)
	}
	if !ok {
		return respond.NotFound(c, "template not found")
	}
	return respond.OK(c, map[string]any{"deleted": id})
}

func (h *Handler) uploadReport(c echo.Context) error {
	encounterID, err := pathID(c, "id")
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid encounter id")
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

	var createdBy int64
	if ident := auth.IdentityFromContext(c.Request().Context()); ident != nil {
		createdBy = ident.UserID
	}
	rep, err := h.svc.UploadReport(c.Request().Context(), encounterID, createdBy,
		fileHeader.Filename, fileHeader.Header.Get(echo.HeaderContentType), src)
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrInvalidContentType),
			errors.Is(err, upload.ErrFileTooLarge),
			errors.Is(err, upload.ErrMissingFileName):
			return respond.Fail(c, http.StatusBadRequest, err.Error())
		}
		return h.serverError(c, "could not store report", err)
	}
	return respond.Created(c, rep)
}

func (h *Handler) listReports(c echo.Context) error {
	encounterID, err := pathID(c, "id")
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid encounter id")
	}
	reports, err := h.svc.ListReports(c.Request().Context(), encounterID)
	if err != nil {
		return h.serverError(c, "could not list reports", err)
	}
	return respond.OK(c, reports)
}

func (h *Handler) downloadReport(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid report id")
	}
	rep, rc, err := h.svc.OpenReport(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return respond.NotFound(c, "report not found")
		}
		return h.serverError(c, "could not open report", err)
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+rep.FileName+`"`)
	return c.Stream(http.StatusOK, rep.ContentType, rc)
}

func (h *Handler) serverError(c echo.Context, msg string, err error) error {
	if h.debug {
		return respond.FailDebug(c, http.StatusInternalServerError, msg, err.Error())
	}
	return respond.Fail(c, http.StatusInternalServerError, msg)
}

func pathID(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}
