package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/patientdocs/api/internal/platform/render"
)

func newTestHandler(t *testing.T, repo *mockRepo) *Handler {
	t.Helper()
	renderer, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	return NewHandler(NewService(repo), renderer, false)
}

func TestHandler_AddMedication(t *testing.T) {
	repo := newMockRepo()
	h := newTestHandler(t, repo)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/medications",
		strings.NewReader(`{"name":"Amoxicillin"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.addMedication(e.NewContext(req, rec)); err != nil {
		t.Fatalf("addMedication: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["success"] != true {
		t.Error("expected success envelope")
	}
}

func TestHandler_AddMedicationRejectsBlank(t *testing.T) {
	h := newTestHandler(t, newMockRepo())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/medications",
		strings.NewReader(`{"name":"  "}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.addMedication(e.NewContext(req, rec)); err != nil {
		t.Fatalf("addMedication: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandler_UltrasoundPrintFragment(t *testing.T) {
	repo := newMockRepo()
	h := newTestHandler(t, repo)
	ut, err := h.svc.AddUltrasoundType(context.Background(), "Abdominal")
	if err != nil {
		t.Fatalf("AddUltrasoundType: %v", err)
	}
	if err := h.svc.AddPatientUltrasound(context.Background(), &PatientUltrasound{
		PatientID: 9, EncounterID: 1, TypeID: ut.ID,
	}); err != nil {
		t.Fatalf("AddPatientUltrasound: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/fragments/encounters/1/ultrasound-print", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := h.ultrasoundPrint(c); err != nil {
		t.Fatalf("ultrasoundPrint: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	html := rec.Body.String()
	if !strings.Contains(html, "Abdominal") || !strings.Contains(html, "Alice Smith") {
		t.Errorf("fragment missing content: %s", html)
	}
}

func TestHandler_PrintFragmentMissingEncounter(t *testing.T) {
	h := newTestHandler(t, newMockRepo())

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/fragments/encounters/42/analyse-radio-print", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("42")

	if err := h.analyseRadioPrint(c); err != nil {
		t.Fatalf("analyseRadioPrint: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
