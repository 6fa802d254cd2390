package catalog

import (
	"context"
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
	view.GET("/medications", h.listMedications)
	view.GET("/ultrasound-types", h.listUltrasoundTypes)
	view.GET("/analyse-radio-types", h.listAnalyseRadioTypes)
	view.GET("/encounters/:id/ultrasounds", h.listPatientUltrasounds)
	view.GET("/encounters/:id/analyse-radios", h.listPatientAnalyseRadios)

	edit := api.Group("", auth.RequireNonce(nonces), auth.RequireCapability(auth.CapEdit))
	edit.POST("/medications", h.addMedication)
	edit.POST("/ultrasound-types", h.addUltrasoundType)
	edit.POST("/analyse-radio-types", h.addAnalyseRadioType)
	edit.POST("/encounters/:id/ultrasounds", h.addPatientUltrasound)
	edit.DELETE("/ultrasounds/:id", h.deletePatientUltrasound)
	edit.POST("/encounters/:id/analyse-radios", h.addPatientAnalyseRadio)
	edit.DELETE("/analyse-radios/:id", h.deletePatientAnalyseRadio)

	fragments.GET("/encounters/:id/ultrasound-print", h.ultrasoundPrint, auth.RequireCapability(auth.CapView))
	fragments.GET("/encounters/:id/analyse-radio-print", h.analyseRadioPrint, auth.RequireCapability(auth.CapView))
}

type nameBody struct {
	Name string `json:"name" form:"name"`
}

func (h *Handler) addMedication(c echo.Context) error {
	var body nameBody
	if err := c.Bind(&body); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	m, err := h.svc.AddMedication(c.Request().Context(), body.Name)
	if err != nil {
		if errors.Is(err, ErrNameRequired) {
			return respond.Fail(c, http.StatusBadRequest, err.Error())
		}
		return h.serverError(c, "could not add medication", err)
	}
	return respond.Created(c, m)
}

func (h *Handler) listMedications(c echo.Context) error {
	meds, err := h.svc.ListMedications(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return h.serverError(c, "could not list medications", err)
	}
	return respond.OK(c, meds)
}

func (h *Handler) addUltrasoundType(c echo.Context) error {
	var body nameBody
	if err := c.Bind(&body); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	t, err := h.svc.AddUltrasoundType(c.Request().Context(), body.Name)
	if err != nil {
		if errors.Is(err, ErrNameRequired) {
			return respond.Fail(c, http.StatusBadRequest, err.Error())
		}
		return h.serverError(c, "could not add ultrasound type", err)
	}
	return respond.Created(c, t)
}

func (h *Handler) listUltrasoundTypes(c echo.Context) error {
	types, err := h.svc.ListUltrasoundTypes(c.Request().Context())
	if err != nil {
		return h.serverError(c, "could not list ultrasound types", err)
	}
	return respond.OK(c, types)
}

func (h *Handler) addAnalyseRadioType(c echo.Context) error {
	var body nameBody
	if err := c.Bind(&body); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	t, err := h.svc.AddAnalyseRadioType(c.Request().Context(), body.Name)
	if err != nil {
		if errors.Is(err, ErrNameRequired) {
			return respond.Fail(c, http.StatusBadRequest, err.Error())
		}
		return h.serverError(c, "could not add analyse radio type", err)
	}
	return respond.Created(c, t)
}

func (h *Handler) listAnalyseRadioTypes(c echo.Context) error {
	types, err := h.svc.ListAnalyseRadioTypes(c.Request().Context())
	if err != nil {
		return h.serverError(c, "could not list analyse radio types", err)
	}
	return respond.OK(c, types)
}

func (h *Handler) addPatientUltrasound(c echo.Context) error {
	encounterID, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid encounter id")
	}
	var pu PatientUltrasound
	if err := c.Bind(&pu); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	pu.EncounterID = encounterID
	if err := h.svc.AddPatientUltrasound(c.Request().Context(), &pu); err != nil {
		if errors.Is(err, ErrTypeRequired) || errors.Is(err, ErrEncounterRequired) {
			return respond.Fail(c, http.StatusBadRequest, err.Error())
		}
		return h.serverError(c, "could not add ultrasound order", err)
	}
	return respond.Created(c, pu)
}

func (h *Handler) listPatientUltrasounds(c echo.Context) error {
	encounterID, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid encounter id")
	}
	orders, err := h.svc.ListPatientUltrasounds(c.Request().Context(), encounterID)
	if err != nil {
		return h.serverError(c, "could not list ultrasound orders", err)
	}
	return respond.OK(c, orders)
}

func (h *Handler) deletePatientUltrasound(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid order id")
	}
	ok, err := h.svc.DeletePatientUltrasound(c.Request().Context(), id)
	if err != nil {
		return h.serverError(c, "could not delete ultrasound order", err)
	}
	if !ok {
		return respond.NotFound(c, "ultrasound order not found")
	}
	return respond.OK(c, map[string]any{"deleted": id})
}

func (h *Handler) addPatientAnalyseRadio(c echo.Context) error {
	encounterID, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid encounter id")
	}
	var pa PatientAnalyseRadio
	if err := c.Bind(&pa); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	pa.EncounterID = encounterID
	if err := h.svc.AddPatientAnalyseRadio(c.Request().Context(), &pa); err != nil {
		if errors.Is(err, ErrTypeRequired) || errors.Is(err, ErrEncounterRequired) {
			return respond.Fail(c, http.StatusBadRequest, err.Error())
		}
		return h.serverError(c, "could not add analyse radio order", err)
	}
	return respond.Created(c, pa)
}

func (h *Handler) listPatientAnalyseRadios(c echo.Context) error {
	encounterID, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid encounter id")
	}
	orders, err := h.svc.ListPatientAnalyseRadios(c.Request().Context(), encounterID)
	if err != nil {
		return h.serverError(c, "could not list analyse radio orders", err)
	}
	return respond.OK(c, orders)
}

func (h *Handler) deletePatientAnalyseRadio(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid order id")
	}
	ok, err := h.svc.DeletePatientAnalyseRadio(c.Request().Context(), id)
	if err != nil {
		return h.serverError(c, "could not delete analyse radio order", err)
	}
	if !ok {
		return respond.NotFound(c, "analyse radio order not found")
	}
	return respond.OK(c, map[string]any{"deleted": id})
}

func (h *Handler) ultrasoundPrint(c echo.Context) error {
	return h.printFragment(c, h.svc.UltrasoundPrintData)
}

func (h *Handler) analyseRadioPrint(c echo.Context) error {
	return h.printFragment(c, h.svc.AnalyseRadioPrintData)
}

func (h *Handler) printFragment(c echo.Context, load func(ctx context.Context, encounterID int64) (*PrintData, error)) error {
	encounterID, err := pathID(c)
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "invalid encounter id")
	}
	data, err := load(c.Request().Context(), encounterID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return respond.NotFound(c, "encounter not found")
		}
		return h.serverError(c, "could not load orders", err)
	}
	html, err := h.renderer.Render("catalog_print.html", data)
	if err != nil {
		return h.serverError(c, "could not render orders", err)
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
